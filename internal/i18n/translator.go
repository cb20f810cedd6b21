// Package i18n localizes user-facing strings: error messages, reminder
// offset labels and reminder notifications.
package i18n

import (
	"embed"
	"log/slog"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

//go:embed active.*.toml
var localeFS embed.FS

// localeFiles are loaded in order; the default locale's file must be among them.
var localeFiles = []string{"active.en.toml", "active.fr.toml"}

// Translator is a thin wrapper around go-i18n's Bundle/Localizer.
type Translator struct {
	bundle          *i18n.Bundle
	defaultLanguage language.Tag
	tags            []language.Tag
	matcher         language.Matcher
}

// NewTranslator builds a Translator for the embedded catalogs with the given
// default locale (e.g. "en"). An unparseable locale falls back to English.
func NewTranslator(defaultLocale string) *Translator {
	tag, err := language.Parse(defaultLocale)
	if err != nil {
		tag = language.English
	}
	bundle := i18n.NewBundle(tag)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	for _, file := range localeFiles {
		if _, err := bundle.LoadMessageFileFS(localeFS, file); err != nil {
			slog.Warn("i18n: failed to load catalog", slog.String("file", file), slog.Any("error", err))
		}
	}

	// The default goes first so it wins ties in Match.
	tags := []language.Tag{tag}
	for _, t := range bundle.LanguageTags() {
		if t != tag {
			tags = append(tags, t)
		}
	}

	return &Translator{
		bundle:          bundle,
		defaultLanguage: tag,
		tags:            tags,
		matcher:         language.NewMatcher(tags),
	}
}

// DefaultLocale returns the fallback locale as a BCP 47 string.
func (t *Translator) DefaultLocale() string {
	return t.defaultLanguage.String()
}

// Match picks the best supported locale for an Accept-Language header value.
func (t *Translator) Match(acceptLanguage string) string {
	prefs, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(prefs) == 0 {
		return t.DefaultLocale()
	}
	_, idx, conf := t.matcher.Match(prefs...)
	if conf == language.No {
		return t.DefaultLocale()
	}
	return t.tags[idx].String()
}

// Lookup renders the message identified by key for locale, falling back to
// the default locale. ok is false when no catalog has the key.
func (t *Translator) Lookup(locale, key string, data map[string]any) (string, bool) {
	if key == "" {
		return "", false
	}

	languages := []string{}
	if locale != "" {
		languages = append(languages, locale)
	}
	languages = append(languages, t.defaultLanguage.String())

	localizer := i18n.NewLocalizer(t.bundle, languages...)
	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: data,
	})
	if err != nil {
		return "", false
	}
	return msg, true
}

// T renders the message identified by key for the given locale.
// If the key/locale is not found, it falls back to the default locale,
// then finally to the key itself.
func (t *Translator) T(locale, key string, data map[string]any) string {
	msg, ok := t.Lookup(locale, key, data)
	if !ok {
		slog.Debug("i18n: missing message", slog.String("key", key), slog.String("locale", locale))
		return key
	}
	return msg
}
