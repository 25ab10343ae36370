package ui

import (
	"context"
	"log/slog"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
	"github.com/tartampluch/go-contacts/internal/auth"
	"github.com/tartampluch/go-contacts/internal/config"
	"github.com/tartampluch/go-contacts/internal/contact"
	"github.com/tartampluch/go-contacts/internal/engine"
	"github.com/tartampluch/go-contacts/internal/i18n"
	"github.com/tartampluch/go-contacts/internal/session"
	"github.com/tartampluch/go-contacts/internal/source"
)

// ContactsApp encapsulates the picker UI, its settings and the search session.
type ContactsApp struct {
	App          fyne.App
	Ctx          context.Context
	Tr           *i18n.Translator
	Settings     config.Settings
	SettingsPath string

	Provider *auth.KeyringProvider
	Gate     *auth.Gate

	// NewSource builds the contact store for the current settings.
	NewSource func(s config.Settings, password string) (engine.ContactSource, error)

	// OnSelect receives the contact the user picked.
	OnSelect func(contact.Contact)

	// Clock drives the search debounce; nil uses the real clock.
	Clock session.Clock

	mu             sync.Mutex
	controller     *session.Controller
	picker         *picker
	settingsWindow fyne.Window
}

// NewContactsApp constructs the application and wires dependencies.
func NewContactsApp(a fyne.App, ctx context.Context, s config.Settings, settingsPath string) *ContactsApp {
	a.SetIcon(theme.AccountIcon())

	app := &ContactsApp{
		App:          a,
		Ctx:          ctx,
		Tr:           i18n.New(s.ResolveLocale()),
		Settings:     s,
		SettingsPath: settingsPath,
		NewSource:    openSource,
	}
	app.Provider = auth.NewKeyringProvider(&DialogPrompter{App: app})
	app.Gate = auth.NewGate(app.Provider)
	return app
}

func openSource(s config.Settings, password string) (engine.ContactSource, error) {
	src, err := source.New(s, password)
	if err != nil {
		return nil, err
	}
	return src, nil
}

// Run shows the picker and blocks in the fyne event loop.
func (app *ContactsApp) Run() {
	app.ShowPickerWindow()
	app.App.Run()

	if c := app.Controller(); c != nil {
		c.Close()
	}
}

// Controller returns the current search session, if any.
func (app *ContactsApp) Controller() *session.Controller {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.controller
}

// Reload builds a fresh pipeline and session from the current settings and
// closes the previous session. A source that cannot be opened surfaces as a
// load failure in the picker.
func (app *ContactsApp) Reload() *session.Controller {
	log := slog.With(config.LogKeyComponent, config.CompUI)

	src, err := app.NewSource(app.Settings, app.Settings.Password())
	if err != nil {
		log.Error(config.ErrSourceUnavailable, config.LogKeyError, err)
		src = unavailableSource{err: err}
	}

	locale := app.Settings.ResolveLocale()
	pipeline := &engine.Pipeline{
		Gate:          app.Gate,
		Source:        src,
		DefaultLocale: locale,
		Dispatcher:    engine.DispatcherFunc(fyne.Do),
	}
	ctrl := session.NewController(app.Gate, pipeline, session.Options{
		Locale:   locale,
		Debounce: app.Settings.Debounce,
		Clock:    app.Clock,
		Messages: app.Tr.ErrorMessage,
	})

	app.mu.Lock()
	old := app.controller
	app.controller = ctrl
	app.mu.Unlock()

	if old != nil {
		old.Close()
	}
	log.Debug(config.MsgSourceOpened,
		config.LogKeyMode, app.Settings.Source.Mode,
		config.LogKeyLocale, locale)
	return ctrl
}

// unavailableSource stands in for a store that could not be opened.
type unavailableSource struct {
	err error
}

func (u unavailableSource) Enumerate(context.Context, func(contact.Record)) error {
	return u.err
}
