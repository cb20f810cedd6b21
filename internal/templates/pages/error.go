// Package pages holds full-page Templ components that don't belong to a
// single plugin.
package pages

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/a-h/templ"

	"github.com/keyxmakerx/eventhub/internal/templates/layouts"
)

// ErrorPage is the fallback shown for any failed browser request. It keeps
// the user on the same URL and offers a full reload.
func ErrorPage(code int, message string) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w,
			`<main class="error"><h1>%d %s</h1><p>%s</p>`+
				`<p><a href="">Reload</a> · <a href="/calendar">Back to calendar</a></p></main>`,
			code,
			templ.EscapeString(http.StatusText(code)),
			templ.EscapeString(message),
		)
		return err
	})
	return layouts.Base(http.StatusText(code), body)
}
