// Package collation orders contacts for display. Latin locales use Unicode
// collation; Chinese locales group names by the pinyin initial of their first
// character so that 张三 files under Z next to Zoe.
package collation

import (
	"unicode"
	"unicode/utf8"

	"github.com/mozillazg/go-pinyin"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FallbackInitial is returned for text whose first character has no Latin initial.
const FallbackInitial byte = 'Z'

// Readings maps a Han ideograph to the initial of its most common Mandarin reading.
type Readings interface {
	// InitialOf returns an ASCII letter (any case) and true when r has a known reading.
	InitialOf(r rune) (byte, bool)
}

// PinyinReadings implements Readings with the go-pinyin dictionary.
type PinyinReadings struct {
	args pinyin.Args
}

// NewPinyinReadings returns a dictionary-backed Readings using the first
// (most common) reading of each character.
func NewPinyinReadings() *PinyinReadings {
	args := pinyin.NewArgs()
	args.Style = pinyin.FirstLetter
	args.Heteronym = false
	return &PinyinReadings{args: args}
}

// InitialOf implements Readings.
func (p *PinyinReadings) InitialOf(r rune) (byte, bool) {
	readings := pinyin.SinglePinyin(r, p.args)
	if len(readings) == 0 || readings[0] == "" {
		return 0, false
	}
	return readings[0][0], true
}

// Transliterator reduces a name to a single uppercase ASCII letter.
type Transliterator struct {
	readings Readings
}

// NewTransliterator returns a Transliterator backed by readings.
// A nil readings uses the go-pinyin dictionary.
func NewTransliterator(readings Readings) *Transliterator {
	if readings == nil {
		readings = NewPinyinReadings()
	}
	return &Transliterator{readings: readings}
}

// InitialLetter returns exactly one byte in 'A'..'Z' for any input.
// Han ideographs map to their pinyin initial, accented Latin letters to their
// base letter, and everything else to FallbackInitial.
func (t *Transliterator) InitialLetter(text string) byte {
	r, _ := utf8.DecodeRuneInString(text)
	if r == utf8.RuneError {
		return FallbackInitial
	}

	if unicode.Is(unicode.Han, r) {
		if l, ok := t.readings.InitialOf(r); ok {
			if u, ok := asciiUpper(rune(l)); ok {
				return u
			}
		}
		return FallbackInitial
	}

	if u, ok := asciiUpper(r); ok {
		return u
	}
	if unicode.IsLetter(r) {
		if u, ok := asciiUpper(baseLetter(r)); ok {
			return u
		}
	}
	return FallbackInitial
}

// asciiUpper uppercases r when it is an ASCII letter.
func asciiUpper(r rune) (byte, bool) {
	switch {
	case r >= 'A' && r <= 'Z':
		return byte(r), true
	case r >= 'a' && r <= 'z':
		return byte(r - 'a' + 'A'), true
	}
	return 0, false
}

// baseLetter strips combining marks: 'É' becomes 'E', 'ñ' becomes 'n'.
func baseLetter(r rune) rune {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, err := transform.String(t, string(r))
	if err != nil || s == "" {
		return r
	}
	base, _ := utf8.DecodeRuneInString(s)
	return base
}
