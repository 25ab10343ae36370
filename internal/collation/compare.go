package collation

import (
	"cmp"
	"log/slog"
	"slices"
	"strings"

	"github.com/tartampluch/go-contacts/internal/config"
	"github.com/tartampluch/go-contacts/internal/contact"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Comparator orders contacts by SortKey according to a locale.
//
// A Comparator reuses collation buffers and must not be shared between goroutines.
type Comparator struct {
	chinese  bool
	collator *collate.Collator
	translit *Transliterator
}

// IsChineseLocale reports whether locale selects pinyin-initial ordering.
func IsChineseLocale(locale string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(locale)), config.ChineseLocalePrefix)
}

// NewComparator builds a Comparator for locale. Unparsable or empty locales
// collate as English.
func NewComparator(locale string, t *Transliterator) *Comparator {
	if t == nil {
		t = NewTransliterator(nil)
	}
	if IsChineseLocale(locale) {
		return &Comparator{chinese: true, translit: t}
	}
	return &Comparator{
		collator: collate.New(parseTag(locale), collate.IgnoreCase),
		translit: t,
	}
}

// Compare returns a negative number when a sorts before b, zero when they tie
// and a positive number otherwise.
func (c *Comparator) Compare(a, b contact.Contact) int {
	ka, kb := a.SortKey(), b.SortKey()
	if !c.chinese {
		return c.collator.CompareString(ka, kb)
	}

	switch {
	case ka == "" && kb == "":
		return 0
	case ka == "":
		return 1
	case kb == "":
		return -1
	}
	return cmp.Compare(c.translit.InitialLetter(ka), c.translit.InitialLetter(kb))
}

// Sort orders contacts in place. Ties keep their original relative order.
func (c *Comparator) Sort(contacts []contact.Contact) {
	slices.SortStableFunc(contacts, c.Compare)
}

func parseTag(locale string) language.Tag {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return language.English
	}
	// POSIX-style values such as "fr_FR.UTF-8" are common in environment locales.
	if i := strings.IndexByte(locale, '.'); i >= 0 {
		locale = locale[:i]
	}
	tag, err := language.Parse(strings.ReplaceAll(locale, "_", "-"))
	if err != nil {
		slog.Debug(config.MsgLocaleInvalid,
			config.LogKeyComponent, config.CompEngine,
			config.LogKeyLocale, locale,
			config.LogKeyError, err)
		return language.English
	}
	return tag
}
