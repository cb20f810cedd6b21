package calendar

import "strings"

// Theme is the presentation policy for rendered calendars: category colors
// and the stylesheet inlined into the page. Callers pass one in; the
// calendar logic never depends on it.
type Theme struct {
	Name           string
	CategoryColors map[string]string
	FallbackColor  string
	Stylesheet     string
}

// ColorFor returns the event's own color, else its category's color, else
// the fallback.
func (t Theme) ColorFor(e Event) string {
	if e.Color != "" {
		return e.Color
	}
	if c, ok := t.CategoryColors[strings.ToLower(e.Category)]; ok {
		return c
	}
	if t.FallbackColor != "" {
		return t.FallbackColor
	}
	return "#6b7280"
}

// DefaultTheme is the built-in light theme.
func DefaultTheme() Theme {
	return Theme{
		Name: "default",
		CategoryColors: map[string]string{
			"workshop":   "#2563eb",
			"talk":       "#7c3aed",
			"meetup":     "#059669",
			"social":     "#d97706",
			"hackathon":  "#dc2626",
			"conference": "#0891b2",
		},
		FallbackColor: "#6b7280",
		Stylesheet: `
body{font-family:system-ui,sans-serif;margin:0;background:#f9fafb;color:#111827}
header{display:flex;align-items:center;gap:1rem;padding:1rem 1.5rem;background:#fff;border-bottom:1px solid #e5e7eb}
header h1{font-size:1.25rem;margin:0;flex:1}
nav a{margin-right:.5rem;color:#2563eb;text-decoration:none}
nav a.active{font-weight:600;text-decoration:underline}
table.grid{width:100%;border-collapse:collapse;table-layout:fixed}
table.grid th{padding:.5rem;font-size:.75rem;text-transform:uppercase;color:#6b7280}
table.grid td{vertical-align:top;height:7rem;border:1px solid #e5e7eb;padding:.25rem;background:#fff}
td.other{background:#f3f4f6;color:#9ca3af}
td.today .num{background:#2563eb;color:#fff;border-radius:9999px;padding:0 .4rem}
.event{display:block;margin-top:.2rem;padding:.1rem .3rem;border-radius:.25rem;color:#fff;font-size:.75rem;overflow:hidden;white-space:nowrap;text-overflow:ellipsis}
.more{font-size:.7rem;color:#6b7280}
ul.agenda{list-style:none;padding:0 1.5rem}
.error{max-width:32rem;margin:4rem auto;text-align:center}
`,
	}
}
