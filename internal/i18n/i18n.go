// Package i18n localizes user-facing strings from the embedded locale files.
package i18n

import (
	"embed"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/tartampluch/go-contacts/internal/auth"
	"github.com/tartampluch/go-contacts/internal/config"
	"github.com/tartampluch/go-contacts/internal/engine"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

const (
	localeDir    = "locales"
	localePrefix = "active."
	localeSuffix = ".json"
)

// Translator resolves translation keys for the current language.
// It is safe for concurrent use; SetLanguage may be called at any time.
type Translator struct {
	bundle    *goi18n.Bundle
	languages []string

	mu        sync.RWMutex
	lang      string
	localizer *goi18n.Localizer
}

// New loads every embedded locale and selects lang (a BCP 47 or POSIX locale).
func New(lang string) *Translator {
	bundle := goi18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	t := &Translator{bundle: bundle}

	entries, err := localeFS.ReadDir(localeDir)
	if err != nil {
		slog.Error(config.ErrLocalesAccess,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyError, err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, localePrefix) || !strings.HasSuffix(name, localeSuffix) {
			slog.Debug(config.MsgLocaleSkip,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name)
			continue
		}

		code := strings.TrimSuffix(strings.TrimPrefix(name, localePrefix), localeSuffix)
		if code == "" {
			slog.Warn(config.MsgLocaleBadName,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name)
			continue
		}

		if _, err := bundle.LoadMessageFileFS(localeFS, localeDir+"/"+name); err != nil {
			slog.Error(config.ErrLocaleLoad,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
				config.LogKeyError, err)
			continue
		}
		t.languages = append(t.languages, code)
		slog.Debug(config.MsgLocaleLoaded,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyLang, code)
	}

	t.SetLanguage(lang)
	return t
}

// Languages lists the loaded locale codes.
func (t *Translator) Languages() []string {
	return t.languages
}

// Lang returns the language last passed to SetLanguage, normalized.
func (t *Translator) Lang() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lang
}

// SetLanguage switches the active language. Unknown languages fall back to English.
func (t *Translator) SetLanguage(lang string) {
	lang = normalize(lang)
	if lang == "" {
		lang = config.DefaultLanguage
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.lang = lang
	t.localizer = goi18n.NewLocalizer(t.bundle, lang, config.DefaultLanguage)
}

// Msg translates key. A missing key is returned as is.
func (t *Translator) Msg(key string) string {
	return t.localize(&goi18n.LocalizeConfig{MessageID: key})
}

// Format translates key and fills its template with data.
func (t *Translator) Format(key string, data map[string]any) string {
	return t.localize(&goi18n.LocalizeConfig{MessageID: key, TemplateData: data})
}

// Plural translates a key carrying a {{.Count}} placeholder with plural forms.
func (t *Translator) Plural(key string, count int) string {
	return t.localize(&goi18n.LocalizeConfig{
		MessageID:    key,
		PluralCount:  count,
		TemplateData: map[string]any{"Count": count},
	})
}

// ErrorMessage renders a retrieval failure for the user.
func (t *Translator) ErrorMessage(err error) string {
	if errors.Is(err, engine.ErrAccessDenied) {
		return t.Msg(config.TKeyErrAccessDenied)
	}
	return t.Format(config.TKeyErrLoadFailed, map[string]any{"Reason": err.Error()})
}

// StatusLabel names an authorization status.
func (t *Translator) StatusLabel(s auth.Status) string {
	switch s {
	case auth.StatusAuthorized:
		return t.Msg(config.TKeyStatusAuth)
	case auth.StatusDenied, auth.StatusRestricted:
		return t.Msg(config.TKeyStatusDenied)
	default:
		return t.Msg(config.TKeyStatusNotDet)
	}
}

func (t *Translator) localize(cfg *goi18n.LocalizeConfig) string {
	t.mu.RLock()
	l := t.localizer
	t.mu.RUnlock()

	msg, err := l.Localize(cfg)
	if err != nil {
		slog.Debug(config.MsgTransMissing,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyKey, cfg.MessageID,
			config.LogKeyError, err)
		return cfg.MessageID
	}
	return msg
}

// normalize turns POSIX locales such as "fr_FR.UTF-8" into BCP 47 tags.
func normalize(lang string) string {
	lang = strings.TrimSpace(lang)
	if i := strings.IndexAny(lang, ".@"); i >= 0 {
		lang = lang[:i]
	}
	return strings.ReplaceAll(lang, "_", "-")
}
