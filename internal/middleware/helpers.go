package middleware

import (
	"context"
	"strings"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

// LayoutInjector copies page-level data (theme stylesheet, locale, signed-in
// email) from the Echo context into the context.Context templ components
// render with. Set once in app/routes.go so this package needs no plugin
// imports.
var LayoutInjector func(echo.Context, context.Context) context.Context

// Render writes an HTML component with the given status code after running
// LayoutInjector.
func Render(c echo.Context, statusCode int, component templ.Component) error {
	ctx := c.Request().Context()
	if LayoutInjector != nil {
		ctx = LayoutInjector(c, ctx)
	}

	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(statusCode)
	return component.Render(ctx, c.Response().Writer)
}

// IsAPIRequest reports whether the request targets the JSON API, whose
// errors are answered as JSON rather than an HTML page.
func IsAPIRequest(c echo.Context) bool {
	path := c.Request().URL.Path
	return path == "/api" || strings.HasPrefix(path, "/api/")
}
