package ui

import (
	"log/slog"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/tartampluch/go-contacts/internal/config"
	"github.com/tartampluch/go-contacts/internal/contact"
	"github.com/tartampluch/go-contacts/internal/i18n"
	"github.com/tartampluch/go-contacts/internal/session"
)

// picker is the contact picker window. All fields are owned by the UI thread.
type picker struct {
	app    *ContactsApp
	ctrl   *session.Controller
	window fyne.Window

	query    binding.String
	search   *widget.Entry
	list     *widget.List
	status   *widget.Label
	errText  *widget.Label
	retry    *widget.Button
	settings *widget.Button

	results []contact.Contact
}

// ShowPickerWindow displays the contact picker and asks for contacts access.
// If the window is already open, it requests focus.
func (app *ContactsApp) ShowPickerWindow() {
	if app.picker != nil {
		app.picker.window.RequestFocus()
		return
	}

	ctrl := app.Controller()
	if ctrl == nil {
		ctrl = app.Reload()
	}

	slog.Info(config.MsgOpenPicker, config.LogKeyComponent, config.CompUI)
	p := newPicker(app)
	app.picker = p
	p.window.SetOnClosed(func() { app.picker = nil })
	p.window.Show()

	p.attach(ctrl)
}

func newPicker(app *ContactsApp) *picker {
	tr := app.Tr
	p := &picker{
		app:    app,
		window: app.App.NewWindow(tr.Msg(config.TKeyWinPicker)),
		query:  binding.NewString(),
	}
	p.window.Resize(fyne.NewSize(config.PickerWinWidth, config.PickerWinHeight))

	p.search = widget.NewEntryWithData(p.query)
	p.search.SetPlaceHolder(tr.Msg(config.TKeySearchPrompt))
	p.query.AddListener(binding.NewDataListener(func() {
		q, _ := p.query.Get()
		if p.ctrl != nil {
			p.ctrl.SetQuery(q)
		}
	}))

	p.list = widget.NewList(
		func() int { return len(p.results) },
		func() fyne.CanvasObject { return newContactRow() },
		func(id widget.ListItemID, o fyne.CanvasObject) {
			if id >= len(p.results) {
				return
			}
			o.(*contactRow).bind(p.results[id], tr)
		},
	)
	p.list.OnSelected = p.selected

	p.status = widget.NewLabel("")
	p.errText = widget.NewLabel("")
	p.errText.Wrapping = fyne.TextWrapWord
	p.errText.Importance = widget.DangerImportance
	p.errText.Hide()

	p.retry = widget.NewButtonWithIcon(tr.Msg(config.TKeyBtnRetry), theme.ViewRefreshIcon(), func() {
		ctrl := p.ctrl
		go ctrl.Retry(app.Ctx)
	})
	p.retry.Hide()
	p.settings = widget.NewButtonWithIcon(tr.Msg(config.TKeyBtnSettings), theme.SettingsIcon(), app.ShowSettingsWindow)

	top := container.NewVBox(p.search, p.status)
	bottom := container.NewVBox(p.errText, container.NewHBox(p.retry, layout.NewSpacer(), p.settings))
	p.window.SetContent(container.NewBorder(top, bottom, nil, nil, p.list))
	return p
}

// attach binds the picker to a (new) session and starts it with the current query.
func (p *picker) attach(ctrl *session.Controller) {
	p.ctrl = ctrl
	ctrl.AddListener(func() {
		fyne.Do(func() {
			if p.ctrl == ctrl {
				p.render(ctrl.State())
			}
		})
	})

	q, _ := p.query.Get()
	ctrl.SetQuery(q)
	p.render(ctrl.State())
	go ctrl.RequestAccess(p.app.Ctx)
}

// render reflects a session snapshot in the widgets.
func (p *picker) render(st session.State) {
	tr := p.app.Tr
	p.results = st.Results

	switch st.Phase {
	case session.PhaseAwaitingAuthorization, session.PhaseLoading:
		p.status.SetText(tr.Msg(config.TKeyLoading))
	case session.PhaseSettled:
		p.status.SetText(resultSummary(len(st.Results), st.Query, tr))
	default:
		p.status.SetText("")
	}

	if st.Error != "" {
		p.errText.SetText(st.Error)
		p.errText.Show()
		p.retry.Show()
	} else {
		p.errText.Hide()
		p.retry.Hide()
	}

	p.list.UnselectAll()
	p.list.Refresh()
}

func (p *picker) selected(id widget.ListItemID) {
	if id >= len(p.results) {
		return
	}
	c := p.results[id]
	slog.Info(config.MsgContactPicked,
		config.LogKeyComponent, config.CompUI,
		config.LogKeyID, c.ID)

	if p.app.OnSelect != nil {
		p.app.OnSelect(c)
	}
}

// resultSummary is the status line of a settled search.
func resultSummary(count int, query string, tr *i18n.Translator) string {
	if count > 0 {
		return tr.Plural(config.TKeyResultCount, count)
	}
	if strings.TrimSpace(query) == "" {
		return tr.Msg(config.TKeyEmptyAll)
	}
	return tr.Msg(config.TKeyEmptyMatch)
}

// phoneLine renders the first phone number with its label.
func phoneLine(c contact.Contact, tr *i18n.Translator) string {
	if len(c.PhoneNumbers) == 0 {
		return ""
	}
	p := c.PhoneNumbers[0]
	label := p.Label
	if label == "" {
		label = tr.Msg(config.TKeyPhoneUnlabeled)
	}
	return label + ": " + p.Number
}

// contactRow is one list entry: thumbnail, display name and first phone number.
type contactRow struct {
	widget.BaseWidget
	thumb *canvas.Image
	name  *widget.Label
	phone *widget.Label
}

func newContactRow() *contactRow {
	r := &contactRow{
		thumb: canvas.NewImageFromResource(theme.AccountIcon()),
		name:  widget.NewLabel(config.ListPlaceholder),
		phone: widget.NewLabel(""),
	}
	r.thumb.FillMode = canvas.ImageFillContain
	r.thumb.SetMinSize(fyne.NewSize(config.ThumbnailSize, config.ThumbnailSize))
	r.name.TextStyle = fyne.TextStyle{Bold: true}
	r.ExtendBaseWidget(r)
	return r
}

func (r *contactRow) bind(c contact.Contact, tr *i18n.Translator) {
	if c.HasThumbnail() {
		r.thumb.Resource = fyne.NewStaticResource(c.ID, c.Thumbnail)
	} else {
		r.thumb.Resource = theme.AccountIcon()
	}
	r.thumb.Refresh()
	r.name.SetText(c.DisplayName())
	r.phone.SetText(phoneLine(c, tr))
}

func (r *contactRow) CreateRenderer() fyne.WidgetRenderer {
	text := container.NewVBox(r.name, r.phone)
	return widget.NewSimpleRenderer(container.NewBorder(nil, nil, r.thumb, nil, text))
}
