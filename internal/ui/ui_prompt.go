package ui

import (
	"context"
	"fmt"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"github.com/tartampluch/go-contacts/internal/config"
)

// DialogPrompter implements auth.Prompter with a confirmation dialog shown on
// the UI thread. Confirm must not be called from the UI thread itself.
type DialogPrompter struct {
	App *ContactsApp

	// Show displays the question; nil uses dialog.ShowConfirm.
	Show func(title, message string, callback func(bool), parent fyne.Window)
}

// Confirm blocks until the user answers or ctx is done.
func (d *DialogPrompter) Confirm(ctx context.Context) (bool, error) {
	show := d.Show
	if show == nil {
		show = dialog.ShowConfirm
	}
	tr := d.App.Tr

	title := tr.Msg(config.TKeyPromptTitle)
	if title == config.TKeyPromptTitle {
		title = config.FallbackPromptTitle
	}
	body := tr.Msg(config.TKeyPromptBody)
	if body == config.TKeyPromptBody {
		body = fmt.Sprintf(config.FallbackPromptBody, config.AppName)
	}

	slog.Debug(config.MsgPromptStart, config.LogKeyComponent, config.CompUI)

	answer := make(chan bool, config.ChannelBufferSize)
	fyne.Do(func() {
		parent, cleanup := d.parent(title)
		show(title, body, func(ok bool) {
			answer <- ok
			cleanup()
		}, parent)
	})

	select {
	case ok := <-answer:
		return ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// parent returns the picker window, or a temporary window when none is open.
func (d *DialogPrompter) parent(title string) (fyne.Window, func()) {
	if p := d.App.picker; p != nil {
		return p.window, func() {}
	}
	w := d.App.App.NewWindow(title)
	w.Resize(fyne.NewSize(config.PickerWinWidth, config.PickerWinHeight/2))
	w.Show()
	return w, w.Close
}
