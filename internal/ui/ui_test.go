package ui

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-contacts/internal/auth"
	"github.com/tartampluch/go-contacts/internal/config"
	"github.com/tartampluch/go-contacts/internal/contact"
	"github.com/tartampluch/go-contacts/internal/session"
	"github.com/zalando/go-keyring"
)

// -----------------------------------------------------------------------------
// Test Setup Helper
// -----------------------------------------------------------------------------

const testVCF = "BEGIN:VCARD\r\n" +
	"VERSION:3.0\r\n" +
	"UID:alice-1\r\n" +
	"N:Liddell;Alice;;;\r\n" +
	"TEL;TYPE=CELL:+1 555 0100\r\n" +
	"END:VCARD\r\n" +
	"BEGIN:VCARD\r\n" +
	"VERSION:3.0\r\n" +
	"UID:zhang-1\r\n" +
	"N:张;三;;;\r\n" +
	"TEL:13800001111\r\n" +
	"END:VCARD\r\n" +
	"BEGIN:VCARD\r\n" +
	"VERSION:3.0\r\n" +
	"UID:nophone-1\r\n" +
	"N:Nobody;Ned;;;\r\n" +
	"END:VCARD\r\n"

const waitFor, tick = 2 * time.Second, 10 * time.Millisecond

// setupTestApp initializes a headless Fyne app reading testVCF, with an
// in-memory keyring and a prompter that grants access.
func setupTestApp(t *testing.T) *ContactsApp {
	keyring.MockInit()
	a := test.NewApp()

	dir := t.TempDir()
	path := filepath.Join(dir, "contacts.vcf")
	require.NoError(t, os.WriteFile(path, []byte(testVCF), config.FilePermUserRW))

	s := config.DefaultSettings()
	s.Locale = "en"
	s.Debounce = 0
	s.Source.Mode = config.SourceModeLocal
	s.Source.Path = path

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	app := NewContactsApp(a, ctx, s, filepath.Join(dir, config.ConfigFileName))
	app.Provider.Prompter = auth.AutoPrompter(true)
	require.NoError(t, app.Provider.Reset())
	return app
}

func waitPhase(t *testing.T, ctrl *session.Controller, phase session.Phase) session.State {
	t.Helper()
	require.Eventually(t, func() bool {
		return ctrl.State().Phase == phase
	}, waitFor, tick)
	return ctrl.State()
}

func contactIDs(cs []contact.Contact) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.ID)
	}
	return out
}

// -----------------------------------------------------------------------------
// Picker
// -----------------------------------------------------------------------------

func TestPicker_LoadsAllContacts(t *testing.T) {
	app := setupTestApp(t)
	app.ShowPickerWindow()
	p := app.picker
	require.NotNil(t, p)

	st := waitPhase(t, app.Controller(), session.PhaseSettled)
	assert.Equal(t, auth.StatusAuthorized, st.Authorization)
	assert.Equal(t, []string{"alice-1", "zhang-1"}, contactIDs(st.Results))

	p.render(st)
	assert.Equal(t, "2 contacts", p.status.Text)
	assert.False(t, p.errText.Visible())
	assert.False(t, p.retry.Visible())
	assert.Equal(t, 2, p.list.Length())
}

func TestPicker_FiltersOnTyping(t *testing.T) {
	app := setupTestApp(t)
	app.ShowPickerWindow()
	p := app.picker
	ctrl := app.Controller()
	waitPhase(t, ctrl, session.PhaseSettled)

	p.search.SetText("138")

	require.Eventually(t, func() bool {
		st := ctrl.State()
		return st.Query == "138" && st.Phase == session.PhaseSettled && len(st.Results) == 1
	}, waitFor, tick)
	assert.Equal(t, "zhang-1", ctrl.State().Results[0].ID)

	p.search.SetText("nobody matches this")
	require.Eventually(t, func() bool {
		st := ctrl.State()
		return st.Phase == session.PhaseSettled && len(st.Results) == 0
	}, waitFor, tick)

	p.render(ctrl.State())
	assert.Equal(t, "No matching contacts", p.status.Text)
}

func TestPicker_Singleton(t *testing.T) {
	app := setupTestApp(t)
	app.ShowPickerWindow()
	first := app.picker

	app.ShowPickerWindow()
	assert.Same(t, first, app.picker)

	first.window.Close()
	assert.Nil(t, app.picker)
}

func TestPicker_SelectionCallsOnSelect(t *testing.T) {
	app := setupTestApp(t)
	var picked []contact.Contact
	app.OnSelect = func(c contact.Contact) { picked = append(picked, c) }

	app.ShowPickerWindow()
	p := app.picker
	p.render(waitPhase(t, app.Controller(), session.PhaseSettled))

	p.selected(1)
	p.selected(99)

	require.Len(t, picked, 1)
	assert.Equal(t, "zhang-1", picked[0].ID)
	assert.Equal(t, "13800001111", picked[0].PhoneNumbers[0].Number)
}

func TestPicker_DeniedShowsErrorAndRetryRecovers(t *testing.T) {
	app := setupTestApp(t)
	app.Provider.Prompter = auth.AutoPrompter(false)

	app.ShowPickerWindow()
	p := app.picker
	ctrl := app.Controller()

	st := waitPhase(t, ctrl, session.PhaseFailed)
	assert.Equal(t, auth.StatusDenied, st.Authorization)

	p.render(st)
	assert.Equal(t, "Contacts access denied. Please enable in Settings.", p.errText.Text)
	assert.True(t, p.errText.Visible())
	assert.True(t, p.retry.Visible())
	assert.Equal(t, 0, p.list.Length())

	// The user changes their mind: forget the decision and retry.
	require.NoError(t, app.Provider.Reset())
	app.Gate.Reset()
	app.Provider.Prompter = auth.AutoPrompter(true)

	test.Tap(p.retry)

	st = waitPhase(t, ctrl, session.PhaseSettled)
	assert.Equal(t, auth.StatusAuthorized, st.Authorization)
	assert.Len(t, st.Results, 2)
}

func TestPicker_MissingFileShowsLoadFailure(t *testing.T) {
	app := setupTestApp(t)
	app.Settings.Source.Path = filepath.Join(t.TempDir(), "missing.vcf")

	app.ShowPickerWindow()
	st := waitPhase(t, app.Controller(), session.PhaseFailed)

	assert.Equal(t, auth.StatusAuthorized, st.Authorization)
	assert.Contains(t, st.Error, "Failed to load contacts: ")
	assert.Contains(t, st.Error, config.ErrFileOpen)
	assert.Empty(t, st.Results)
}

func TestReload_InvalidSettingsSurfaceAsFailure(t *testing.T) {
	app := setupTestApp(t)
	app.Settings.Source = config.SourceSettings{Mode: config.SourceModeWeb}

	ctrl := app.Reload()
	assert.True(t, ctrl.RequestAccess(context.Background()))

	st := ctrl.State()
	assert.Equal(t, session.PhaseFailed, st.Phase)
	assert.Contains(t, st.Error, config.ErrWebURLEmpty)
}

func TestReload_ClosesPreviousSession(t *testing.T) {
	app := setupTestApp(t)
	first := app.Reload()
	second := app.Reload()

	assert.NotSame(t, first, second)
	assert.Same(t, second, app.Controller())
	assert.False(t, first.RequestAccess(context.Background()), "closed session must refuse work")
}

// -----------------------------------------------------------------------------
// Formatting
// -----------------------------------------------------------------------------

func TestResultSummary(t *testing.T) {
	app := setupTestApp(t)

	tests := []struct {
		name  string
		count int
		query string
		want  string
	}{
		{"One", 1, "", "1 contact"},
		{"Many", 12, "a", "12 contacts"},
		{"EmptyBook", 0, "  ", "No contacts found"},
		{"NoMatch", 0, "zz", "No matching contacts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resultSummary(tt.count, tt.query, app.Tr))
		})
	}
}

func TestPhoneLine(t *testing.T) {
	app := setupTestApp(t)

	labeled := contact.Contact{PhoneNumbers: []contact.PhoneNumber{
		{Number: "+1 555", Label: "mobile"},
		{Number: "+1 666", Label: "home"},
	}}
	unlabeled := contact.Contact{PhoneNumbers: []contact.PhoneNumber{{Number: "010"}}}

	assert.Equal(t, "mobile: +1 555", phoneLine(labeled, app.Tr))
	assert.Equal(t, "phone: 010", phoneLine(unlabeled, app.Tr))
	assert.Empty(t, phoneLine(contact.Contact{}, app.Tr))

	app.Tr.SetLanguage("fr")
	assert.NotEqual(t, "phone: 010", phoneLine(unlabeled, app.Tr))
}

func TestContactRow_Bind(t *testing.T) {
	app := setupTestApp(t)
	row := newContactRow()
	w := test.NewWindow(row)
	defer w.Close()

	row.bind(contact.Contact{
		ID:           "x",
		FirstName:    "Bob",
		LastName:     "Smith",
		PhoneNumbers: []contact.PhoneNumber{{Number: "123", Label: "work"}},
	}, app.Tr)
	assert.Equal(t, "Smith Bob", row.name.Text)
	assert.Equal(t, "work: 123", row.phone.Text)

	row.bind(contact.Contact{ID: "y", PhoneNumbers: []contact.PhoneNumber{{Number: "9"}}}, app.Tr)
	assert.Equal(t, config.FallbackName, row.name.Text)
}

// -----------------------------------------------------------------------------
// Access Prompt
// -----------------------------------------------------------------------------

func TestDialogPrompter_Answer(t *testing.T) {
	app := setupTestApp(t)

	var gotTitle string
	var gotParent fyne.Window
	d := &DialogPrompter{App: app, Show: func(title, _ string, callback func(bool), parent fyne.Window) {
		gotTitle, gotParent = title, parent
		callback(true)
	}}

	ok, err := d.Confirm(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Contacts Access", gotTitle)
	assert.NotNil(t, gotParent, "a temporary window hosts the dialog when the picker is closed")
}

func TestDialogPrompter_UsesPickerWindow(t *testing.T) {
	app := setupTestApp(t)
	app.ShowPickerWindow()
	waitPhase(t, app.Controller(), session.PhaseSettled)

	var gotParent fyne.Window
	d := &DialogPrompter{App: app, Show: func(_, _ string, callback func(bool), parent fyne.Window) {
		gotParent = parent
		callback(false)
	}}

	ok, err := d.Confirm(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Same(t, app.picker.window, gotParent)
}

func TestDialogPrompter_ContextCancelled(t *testing.T) {
	app := setupTestApp(t)
	d := &DialogPrompter{App: app, Show: func(string, string, func(bool), fyne.Window) {}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ok, err := d.Confirm(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ok)
}

// -----------------------------------------------------------------------------
// Settings Window
// -----------------------------------------------------------------------------

func newTestSettingsForm(t *testing.T, app *ContactsApp) (*settingsWidgets, fyne.Window) {
	t.Helper()
	w := test.NewWindow(nil)
	t.Cleanup(w.Close)
	sw := app.newSettingsWidgets()
	w.SetContent(app.buildSourceCard(w, sw, nil))
	return sw, w
}

func TestSettingsWindow_Singleton(t *testing.T) {
	app := setupTestApp(t)
	app.ShowSettingsWindow()
	first := app.settingsWindow
	require.NotNil(t, first)

	app.ShowSettingsWindow()
	assert.Same(t, first, app.settingsWindow)

	first.Close()
	assert.Nil(t, app.settingsWindow)
}

func TestSettingsForm_PrefilledFromSettings(t *testing.T) {
	app := setupTestApp(t)
	sw, _ := newTestSettingsForm(t, app)

	assert.Equal(t, app.Tr.Msg(config.TKeyModeLocal), sw.modeSelect.Selected)
	assert.Equal(t, app.Settings.Source.Path, sw.pathEntry.Text)
	assert.Equal(t, "en", sw.localeSelect.Text)
	assert.Equal(t, "0", sw.debounceEntry.Text)

	s, err := sw.settings()
	require.NoError(t, err)
	assert.Equal(t, app.Settings, s)
}

func TestSettingsForm_Validation(t *testing.T) {
	app := setupTestApp(t)

	tests := []struct {
		name    string
		edit    func(sw *settingsWidgets)
		wantErr string
	}{
		{"LocalWithoutPath", func(sw *settingsWidgets) {
			sw.pathEntry.SetText("  ")
		}, config.ErrLocalPathEmpty},
		{"WebWithoutURL", func(sw *settingsWidgets) {
			sw.modeSelect.SetSelected(app.Tr.Msg(config.TKeyModeWeb))
			sw.urlEntry.SetText("")
		}, config.ErrWebURLEmpty},
		{"DebounceTooLong", func(sw *settingsWidgets) {
			sw.debounceEntry.SetText("6000")
		}, config.ErrDebounceRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sw, _ := newTestSettingsForm(t, app)
			tt.edit(sw)
			_, err := sw.settings()
			assert.EqualError(t, err, tt.wantErr)
		})
	}

	t.Run("AddressBookNeedsNoPath", func(t *testing.T) {
		sw, _ := newTestSettingsForm(t, app)
		sw.modeSelect.SetSelected(app.Tr.Msg(config.TKeyModeAddressBook))
		sw.pathEntry.SetText("")
		s, err := sw.settings()
		require.NoError(t, err)
		assert.Equal(t, config.SourceModeAddressBook, s.Source.Mode)
	})
}

func TestSaveSettings_PersistsAndReloads(t *testing.T) {
	app := setupTestApp(t)
	app.ShowPickerWindow()
	oldCtrl := app.Controller()
	waitPhase(t, oldCtrl, session.PhaseSettled)

	sw, w := newTestSettingsForm(t, app)
	sw.modeSelect.SetSelected(app.Tr.Msg(config.TKeyModeWeb))
	sw.urlEntry.SetText(" http://127.0.0.1:1/me.vcf ")
	sw.userEntry.SetText("alice")
	sw.passEntry.SetText("s3cret")
	sw.localeSelect.SetText("zh-Hans")
	sw.debounceEntry.SetText("250")

	app.saveSettings(sw, w)

	loaded, err := config.Load(app.SettingsPath)
	require.NoError(t, err)
	assert.Equal(t, config.SourceModeWeb, loaded.Source.Mode)
	assert.Equal(t, "http://127.0.0.1:1/me.vcf", loaded.Source.URL)
	assert.Equal(t, "alice", loaded.Source.User)
	assert.Equal(t, "zh-Hans", loaded.Locale)
	assert.Equal(t, 250*time.Millisecond, loaded.Debounce)
	assert.Equal(t, loaded, app.Settings)

	pass, err := keyring.Get(config.KeyringService, "alice")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", pass)

	assert.Equal(t, "zh-Hans", app.Tr.Lang())
	assert.NotSame(t, oldCtrl, app.Controller())
	assert.Same(t, app.Controller(), app.picker.ctrl, "open picker follows the new session")
}

func TestSaveSettings_InvalidKeepsPrevious(t *testing.T) {
	app := setupTestApp(t)
	before := app.Settings

	sw, w := newTestSettingsForm(t, app)
	sw.pathEntry.SetText("")
	app.saveSettings(sw, w)

	assert.Equal(t, before, app.Settings)
	_, err := os.Stat(app.SettingsPath)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
