// data.go provides typed context helpers for passing layout data from
// handlers/middleware to Templ templates. This avoids importing plugin
// types in the layouts package; only simple types are stored.
//
// Data flow: Handler/Middleware → Echo Context → LayoutInjector → Go Context → Templ
package layouts

import "context"

// ctxKey is a private type for context keys to prevent collisions.
type ctxKey string

const (
	keyStylesheet ctxKey = "layout_stylesheet"
	keyActivePath ctxKey = "layout_active_path"
	keyUserEmail  ctxKey = "layout_user_email"
	keyLocale     ctxKey = "layout_locale"
)

// SetStylesheet stores the theme stylesheet inlined by the base layout.
func SetStylesheet(ctx context.Context, css string) context.Context {
	return context.WithValue(ctx, keyStylesheet, css)
}

// GetStylesheet returns the theme stylesheet, or "".
func GetStylesheet(ctx context.Context) string {
	s, _ := ctx.Value(keyStylesheet).(string)
	return s
}

// SetActivePath stores the request path for nav highlighting.
func SetActivePath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, keyActivePath, path)
}

// GetActivePath returns the request path, or "".
func GetActivePath(ctx context.Context) string {
	s, _ := ctx.Value(keyActivePath).(string)
	return s
}

// SetUserEmail stores the signed-in user's email.
func SetUserEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, keyUserEmail, email)
}

// GetUserEmail returns the signed-in user's email, or "" when anonymous.
func GetUserEmail(ctx context.Context) string {
	s, _ := ctx.Value(keyUserEmail).(string)
	return s
}

// SetLocale stores the negotiated UI language.
func SetLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, keyLocale, locale)
}

// GetLocale returns the negotiated UI language, defaulting to "en".
func GetLocale(ctx context.Context) string {
	if s, ok := ctx.Value(keyLocale).(string); ok && s != "" {
		return s
	}
	return "en"
}
