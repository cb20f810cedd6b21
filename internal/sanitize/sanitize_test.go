package sanitize

import (
	"strings"
	"testing"
)

func TestHTML_StripsScripts(t *testing.T) {
	got := HTML(`<p>Bring a laptop</p><script>alert(1)</script><a href="javascript:alert(1)">x</a>`)
	if strings.Contains(got, "<script") {
		t.Errorf("script tag survived: %s", got)
	}
	if strings.Contains(got, "javascript:") {
		t.Errorf("javascript URL survived: %s", got)
	}
	if !strings.Contains(got, "<p>Bring a laptop</p>") {
		t.Errorf("safe formatting was removed: %s", got)
	}
}

func TestHTML_KeepsTables(t *testing.T) {
	got := HTML(`<table><tr><td colspan="2">09:00</td></tr></table>`)
	if !strings.Contains(got, `colspan="2"`) {
		t.Errorf("expected table attributes to be kept, got %s", got)
	}
}

func TestText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "Go Meetup", "Go Meetup"},
		{"ampersand", "A & B", "A & B"},
		{"tags removed", "<b>Go</b> <i>Meetup</i>", "Go Meetup"},
		{"whitespace collapsed", "  Go \n\t Meetup ", "Go Meetup"},
		{"script dropped", "Talk<script>x()</script>", "Talk"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Text(tt.in); got != tt.want {
				t.Errorf("Text(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
