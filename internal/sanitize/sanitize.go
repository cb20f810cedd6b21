// Package sanitize cleans event text loaded from external sources before it
// reaches a page or a feed. Uses bluemonday to strip dangerous HTML (script
// tags, event handlers, javascript: URLs).
package sanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// Policies are built once and shared; bluemonday policies are safe for
// concurrent use after construction.
var (
	richPolicy  *bluemonday.Policy
	plainPolicy *bluemonday.Policy
	policyOnce  sync.Once
)

func policies() (*bluemonday.Policy, *bluemonday.Policy) {
	policyOnce.Do(func() {
		richPolicy = bluemonday.UGCPolicy()

		// Event blurbs are often pasted from other calendars with
		// tables for schedules.
		richPolicy.AllowElements("table", "thead", "tbody", "tr", "td", "th")
		richPolicy.AllowAttrs("colspan", "rowspan").OnElements("td", "th")

		plainPolicy = bluemonday.StrictPolicy()
	})
	return richPolicy, plainPolicy
}

// HTML sanitizes an event description, keeping safe formatting tags.
func HTML(input string) string {
	if input == "" {
		return ""
	}
	rich, _ := policies()
	return rich.Sanitize(input)
}

// Text strips all markup from a single-line field (title, speaker,
// location) and collapses whitespace. Entities are decoded so the result is
// plain text; callers escape it again when rendering.
func Text(input string) string {
	if input == "" {
		return ""
	}
	_, plain := policies()
	return strings.Join(strings.Fields(html.UnescapeString(plain.Sanitize(input))), " ")
}
