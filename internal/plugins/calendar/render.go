package calendar

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/keyxmakerx/eventhub/internal/templates/layouts"
)

// PageData is everything CalendarPage needs to draw one rendered page.
type PageData struct {
	Page       Page
	Theme      Theme
	WeekStart  time.Weekday
	MaxPerCell int
	Location   *time.Location
}

// link builds a /calendar URL for a date and mode.
func link(d Date, mode ViewMode) string {
	q := url.Values{}
	q.Set("date", d.String())
	q.Set("mode", string(mode))
	return "/calendar?" + q.Encode()
}

// CalendarPage renders a page as a full HTML document.
func CalendarPage(data PageData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		writeHeader(&b, data)
		switch data.Page.Mode {
		case ModeDay:
			writeDay(&b, data)
		case ModeAgenda:
			writeAgenda(&b, data)
		case ModeList:
			writeList(&b, data)
		default:
			writeGrid(&b, data)
		}
		_, err := io.WriteString(w, b.String())
		return err
	})
	return layouts.Base(data.Page.Title, body)
}

func writeHeader(b *strings.Builder, data PageData) {
	p := data.Page
	ref := p.Reference
	fmt.Fprintf(b, `<header><h1>%s</h1><nav>`, templ.EscapeString(p.Title))
	fmt.Fprintf(b, `<a href="%s">&larr; Previous</a>`, templ.EscapeString(link(ref.AddMonths(-1), p.Mode)))
	fmt.Fprintf(b, `<a href="%s">Today</a>`, templ.EscapeString("/calendar?mode="+string(p.Mode)))
	fmt.Fprintf(b, `<a href="%s">Next &rarr;</a>`, templ.EscapeString(link(ref.AddMonths(1), p.Mode)))
	b.WriteString(`</nav><nav>`)
	for _, m := range []ViewMode{ModeMonth, ModeWeek, ModeDay, ModeAgenda, ModeList} {
		class := ""
		if m == p.Mode {
			class = ` class="active"`
		}
		fmt.Fprintf(b, `<a%s href="%s">%s</a>`, class, templ.EscapeString(link(ref, m)), strings.ToUpper(string(m[:1]))+string(m[1:]))
	}
	b.WriteString(`</nav></header>`)
}

func writeGrid(b *strings.Builder, data PageData) {
	b.WriteString(`<table class="grid"><thead><tr>`)
	for i := 0; i < 7; i++ {
		day := (data.WeekStart + time.Weekday(i)) % 7
		fmt.Fprintf(b, `<th>%s</th>`, day.String()[:3])
	}
	b.WriteString(`</tr></thead><tbody>`)
	for _, week := range data.Page.Weeks {
		b.WriteString(`<tr>`)
		for _, cell := range week {
			var classes []string
			if !cell.IsCurrentMonth {
				classes = append(classes, "other")
			}
			if cell.IsToday {
				classes = append(classes, "today")
			}
			fmt.Fprintf(b, `<td class="%s"><a class="num" href="%s">%d</a>`,
				strings.Join(classes, " "), templ.EscapeString(link(cell.Date, ModeDay)), cell.Date.Day)
			shown, more := cell.Visible(data.MaxPerCell)
			for _, e := range shown {
				writeEventChip(b, data, e)
			}
			if more > 0 {
				fmt.Fprintf(b, `<span class="more">+%d more</span>`, more)
			}
			b.WriteString(`</td>`)
		}
		b.WriteString(`</tr>`)
	}
	b.WriteString(`</tbody></table>`)
}

func writeEventChip(b *strings.Builder, data PageData, e Event) {
	fmt.Fprintf(b, `<span class="event" style="background:%s" title="%s">%s %s</span>`,
		templ.EscapeString(data.Theme.ColorFor(e)),
		templ.EscapeString(e.Title),
		e.Start.In(data.Location).Format("15:04"),
		templ.EscapeString(e.Title),
	)
}

func writeEventItem(b *strings.Builder, data PageData, e Event) {
	fmt.Fprintf(b, `<li><span class="event" style="background:%s">%s&ndash;%s</span> <strong>%s</strong>`,
		templ.EscapeString(data.Theme.ColorFor(e)),
		e.Start.In(data.Location).Format("15:04"),
		e.End.In(data.Location).Format("15:04"),
		templ.EscapeString(e.Title),
	)
	if e.Speaker != "" {
		fmt.Fprintf(b, ` &middot; %s`, templ.EscapeString(e.Speaker))
	}
	if e.Location != "" {
		fmt.Fprintf(b, ` &middot; %s`, templ.EscapeString(e.Location))
	}
	b.WriteString(`</li>`)
}

func writeDay(b *strings.Builder, data PageData) {
	day := data.Page.Day
	if day == nil {
		return
	}
	fmt.Fprintf(b, `<h2>%s</h2><ul class="agenda">`, templ.EscapeString(day.Date.Time(time.UTC).Format("Monday, January 2")))
	for _, e := range day.Events {
		writeEventItem(b, data, e)
	}
	if len(day.Events) == 0 {
		b.WriteString(`<li>No events.</li>`)
	}
	b.WriteString(`</ul>`)
}

func writeAgenda(b *strings.Builder, data PageData) {
	if len(data.Page.Agenda) == 0 {
		b.WriteString(`<p>No events this month.</p>`)
		return
	}
	for _, day := range data.Page.Agenda {
		fmt.Fprintf(b, `<h3>%s</h3><ul class="agenda">`, templ.EscapeString(day.Date.Time(time.UTC).Format("Mon Jan 2")))
		for _, e := range day.Events {
			writeEventItem(b, data, e)
		}
		b.WriteString(`</ul>`)
	}
}

func writeList(b *strings.Builder, data PageData) {
	b.WriteString(`<ul class="agenda">`)
	for _, e := range data.Page.Events {
		writeEventItem(b, data, e)
	}
	if len(data.Page.Events) == 0 {
		b.WriteString(`<li>No events this month.</li>`)
	}
	b.WriteString(`</ul>`)
}
