package layouts

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// Base wraps body in the HTML document shell. The stylesheet and signed-in
// user come from the context (see data.go).
func Base(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!DOCTYPE html><html lang="`+templ.EscapeString(GetLocale(ctx))+`"><head><meta charset="utf-8">`+
			`<meta name="viewport" content="width=device-width, initial-scale=1">`+
			`<title>`+templ.EscapeString(title)+`</title>`); err != nil {
			return err
		}
		if css := GetStylesheet(ctx); css != "" {
			if _, err := io.WriteString(w, "<style>"+css+"</style>"); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "</head><body>"); err != nil {
			return err
		}
		if email := GetUserEmail(ctx); email != "" {
			if _, err := io.WriteString(w, `<div class="user">`+templ.EscapeString(email)+`</div>`); err != nil {
				return err
			}
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, "</body></html>")
		return err
	})
}
