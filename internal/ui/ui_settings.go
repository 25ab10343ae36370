package ui

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/tartampluch/go-contacts/internal/config"
)

// settingsWidgets holds references to UI elements to simplify data retrieval during save.
type settingsWidgets struct {
	modeSelect    *widget.Select
	pathEntry     *widget.Entry
	urlEntry      *widget.Entry
	userEntry     *widget.Entry
	passEntry     *widget.Entry
	localeSelect  *widget.SelectEntry
	debounceEntry *NumericalEntry

	modes map[string]string // translated label -> config.SourceMode*
}

// ShowSettingsWindow displays the configuration window.
func (app *ContactsApp) ShowSettingsWindow() {
	log := slog.With(config.LogKeyComponent, config.CompUISet)
	if app.settingsWindow != nil {
		log.Debug(config.MsgSettingsFocus)
		app.settingsWindow.RequestFocus()
		return
	}

	log.Info(config.MsgOpenSettings)
	w := app.App.NewWindow(app.Tr.Msg(config.TKeyWinSettings))
	app.settingsWindow = w

	sw := app.newSettingsWidgets()

	var content *fyne.Container
	refreshLayout := func() {
		if content == nil {
			return
		}
		content.Refresh()
		w.Resize(fyne.NewSize(config.SettingsWindowWidth, content.MinSize().Height))
	}

	sourceCard := app.buildSourceCard(w, sw, refreshLayout)

	debounceRow := container.NewBorder(nil, nil, nil, nil, sw.debounceEntry)
	generalForm := widget.NewForm(
		widget.NewFormItem(app.Tr.Msg(config.TKeyLblLocale), sw.localeSelect),
		widget.NewFormItem(app.Tr.Msg(config.TKeyLblDebounce), debounceRow),
	)

	btnSave := widget.NewButtonWithIcon(app.Tr.Msg(config.TKeyBtnSave), theme.DocumentSaveIcon(), func() {
		app.saveSettings(sw, w)
	})
	btnSave.Importance = widget.HighImportance
	btnCancel := widget.NewButtonWithIcon(app.Tr.Msg(config.TKeyBtnCancel), theme.CancelIcon(), w.Close)

	content = container.NewPadded(container.NewVBox(
		sourceCard,
		widget.NewCard("", "", generalForm),
		container.NewGridWithColumns(config.LayoutColumnsDouble, btnCancel, btnSave),
	))

	w.SetContent(content)
	w.SetFixedSize(true)
	w.SetOnClosed(func() { app.settingsWindow = nil })
	refreshLayout()
	w.Show()
}

// newSettingsWidgets creates the form widgets pre-filled from app.Settings.
func (app *ContactsApp) newSettingsWidgets() *settingsWidgets {
	s := app.Settings
	sw := &settingsWidgets{
		modes: map[string]string{
			app.Tr.Msg(config.TKeyModeLocal):       config.SourceModeLocal,
			app.Tr.Msg(config.TKeyModeWeb):         config.SourceModeWeb,
			app.Tr.Msg(config.TKeyModeAddressBook): config.SourceModeAddressBook,
		},
	}

	sw.modeSelect = widget.NewSelect([]string{
		app.Tr.Msg(config.TKeyModeLocal),
		app.Tr.Msg(config.TKeyModeWeb),
		app.Tr.Msg(config.TKeyModeAddressBook),
	}, nil)

	sw.pathEntry = widget.NewEntry()
	sw.pathEntry.SetText(s.Source.Path)

	sw.urlEntry = widget.NewEntry()
	sw.urlEntry.SetText(s.Source.URL)
	sw.urlEntry.PlaceHolder = config.PlaceholderURL

	sw.userEntry = widget.NewEntry()
	sw.userEntry.SetText(s.Source.User)

	sw.passEntry = widget.NewPasswordEntry()
	sw.passEntry.SetText(s.Password())

	sw.localeSelect = widget.NewSelectEntry(config.LocaleChoices)
	sw.localeSelect.SetText(s.Locale)

	sw.debounceEntry = NewRangeEntry(
		int(config.MinDebounce/time.Millisecond),
		int(config.MaxDebounce/time.Millisecond),
		config.ErrDebounceRange)
	sw.debounceEntry.SetText(strconv.FormatInt(s.Debounce.Milliseconds(), 10))

	return sw
}

// buildSourceCard constructs the source selection UI.
func (app *ContactsApp) buildSourceCard(w fyne.Window, sw *settingsWidgets, onLayoutChange func()) *widget.Card {
	browseBtn := widget.NewButton(app.Tr.Msg(config.TKeyBtnBrowse), func() {
		d := dialog.NewFileOpen(func(r fyne.URIReadCloser, err error) {
			if err == nil && r != nil {
				sw.pathEntry.SetText(r.URI().Path())
				_ = r.Close()
			}
		}, w)
		d.SetFilter(storage.NewExtensionFileFilter([]string{config.ExtVCF, config.ExtVCard, config.ExtAddressBook}))
		d.Show()
	})

	pathForm := widget.NewForm(widget.NewFormItem(app.Tr.Msg(config.TKeyLblPath),
		container.NewBorder(nil, nil, nil, browseBtn, sw.pathEntry)))
	webForm := widget.NewForm(
		widget.NewFormItem(app.Tr.Msg(config.TKeyLblURL), sw.urlEntry),
		widget.NewFormItem(app.Tr.Msg(config.TKeyLblUser), sw.userEntry),
		widget.NewFormItem(app.Tr.Msg(config.TKeyLblPass), sw.passEntry),
	)

	// The web source needs credentials; the others read a file.
	sw.modeSelect.OnChanged = func(label string) {
		if sw.modes[label] == config.SourceModeWeb {
			webForm.Show()
			pathForm.Hide()
		} else {
			webForm.Hide()
			pathForm.Show()
		}
		if onLayoutChange != nil {
			onLayoutChange()
		}
	}

	selected := app.Tr.Msg(config.TKeyModeLocal)
	for label, mode := range sw.modes {
		if mode == app.Settings.Source.Mode {
			selected = label
		}
	}
	sw.modeSelect.SetSelected(selected)

	return widget.NewCard(app.Tr.Msg(config.TKeyLblSource), "", container.NewVBox(sw.modeSelect, pathForm, webForm))
}

// settingsFromWidgets builds and validates the settings entered in the form.
func (sw *settingsWidgets) settings() (config.Settings, error) {
	if err := sw.debounceEntry.Validate(); err != nil {
		return config.Settings{}, err
	}
	ms, err := sw.debounceEntry.IntValue()
	if err != nil {
		return config.Settings{}, err
	}

	s := config.Settings{
		Locale:   strings.TrimSpace(sw.localeSelect.Text),
		Debounce: time.Duration(ms) * time.Millisecond,
		Source: config.SourceSettings{
			Mode: sw.modes[sw.modeSelect.Selected],
			Path: strings.TrimSpace(sw.pathEntry.Text),
			URL:  strings.TrimSpace(sw.urlEntry.Text),
			User: strings.TrimSpace(sw.userEntry.Text),
		},
	}
	return s, s.Validate()
}

// saveSettings persists the form, stores the password in the keyring and
// restarts the search session with the new source.
func (app *ContactsApp) saveSettings(sw *settingsWidgets, w fyne.Window) {
	log := slog.With(config.LogKeyComponent, config.CompUISet)
	log.Info(config.MsgSavingSettings)

	s, err := sw.settings()
	if err != nil {
		dialog.ShowError(err, w)
		return
	}

	if err := config.Save(app.SettingsPath, s); err != nil {
		log.Error(config.ErrSettingsWrite, config.LogKeyError, err)
		dialog.ShowError(err, w)
		return
	}

	if s.Source.User != "" && sw.passEntry.Text != "" {
		if err := config.StorePassword(s.Source.User, sw.passEntry.Text); err != nil {
			log.Error(config.ErrKeyringWrite, config.LogKeyError, err)
		}
	}

	app.Settings = s
	app.Tr.SetLanguage(s.ResolveLocale())
	ctrl := app.Reload()
	if app.picker != nil {
		app.picker.attach(ctrl)
	}

	w.Close()
}
