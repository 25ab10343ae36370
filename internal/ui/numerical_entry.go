package ui

import (
	"errors"
	"strconv"

	"fyne.io/fyne/v2/driver/mobile"
	"fyne.io/fyne/v2/widget"
)

// NumericalEntry is an Entry that only accepts digits from the keyboard.
type NumericalEntry struct {
	widget.Entry
}

// NewNumericalEntry creates a new instance of NumericalEntry.
func NewNumericalEntry() *NumericalEntry {
	entry := &NumericalEntry{}
	entry.ExtendBaseWidget(entry)
	return entry
}

// NewRangeEntry returns a NumericalEntry whose validator requires an integer in
// [min, max]. rangeErr is reported for anything else, pasted text included.
func NewRangeEntry(min, max int, rangeErr string) *NumericalEntry {
	entry := NewNumericalEntry()
	entry.Validator = func(s string) error {
		v, err := strconv.Atoi(s)
		if err != nil || v < min || v > max {
			return errors.New(rangeErr)
		}
		return nil
	}
	return entry
}

// TypedRune drops anything but 0-9. Pasted text bypasses it; see NewRangeEntry.
func (e *NumericalEntry) TypedRune(r rune) {
	if r >= '0' && r <= '9' {
		e.Entry.TypedRune(r)
	}
}

// Keyboard shows a numeric keypad on mobile devices.
func (e *NumericalEntry) Keyboard() mobile.KeyboardType {
	return mobile.NumberKeyboard
}

// IntValue parses the current text.
func (e *NumericalEntry) IntValue() (int, error) {
	return strconv.Atoi(e.Text)
}
