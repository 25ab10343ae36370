// Package contact holds the immutable address book model and the text matcher.
package contact

import (
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/tartampluch/go-contacts/internal/config"
)

// PhoneNumber is one labeled number of a contact.
type PhoneNumber struct {
	// ID only distinguishes rows in list widgets; it carries no meaning.
	ID string

	// Number is kept exactly as the source stored it (no normalization).
	Number string

	// Label is a free-text, possibly localized descriptor. Empty means absent.
	Label string
}

// Contact is an address book entry that has at least one phone number.
// Two contacts are the same contact when their IDs are equal.
type Contact struct {
	ID           string
	FirstName    string
	LastName     string
	PhoneNumbers []PhoneNumber

	// Thumbnail holds the raw image bytes from the source, nil when absent.
	Thumbnail []byte
}

// FullName returns "LastName FirstName" with surrounding spaces trimmed.
func (c Contact) FullName() string {
	return strings.TrimSpace(c.LastName + " " + c.FirstName)
}

// DisplayName returns FullName, or a placeholder for nameless contacts.
func (c Contact) DisplayName() string {
	if name := c.FullName(); name != "" {
		return name
	}
	return config.FallbackName
}

// SortKey is the collation key: FirstName when set, else LastName.
func (c Contact) SortKey() string {
	if c.FirstName != "" {
		return c.FirstName
	}
	return c.LastName
}

// Equal reports whether c and other identify the same contact.
func (c Contact) Equal(other Contact) bool {
	return c.ID == other.ID
}

// HasThumbnail reports whether the source provided a photo.
func (c Contact) HasThumbnail() bool {
	return len(c.Thumbnail) > 0
}

// LabeledValue is a raw phone entry as the source exposes it.
type LabeledValue struct {
	Value string
	Label string
}

// Record is a raw contact as enumerated from a contact store.
type Record struct {
	Identifier   string
	GivenName    string
	FamilyName   string
	PhoneNumbers []LabeledValue
	PhotoData    []byte
}

// FromRecord converts a source record. Records without phone numbers are
// rejected and ok is false. The returned Contact shares no memory with r.
func FromRecord(r Record) (c Contact, ok bool) {
	if len(r.PhoneNumbers) == 0 {
		return Contact{}, false
	}

	phones := make([]PhoneNumber, 0, len(r.PhoneNumbers))
	for _, p := range r.PhoneNumbers {
		phones = append(phones, PhoneNumber{
			ID:     uuid.NewString(),
			Number: p.Value,
			Label:  p.Label,
		})
	}

	return Contact{
		ID:           r.Identifier,
		FirstName:    r.GivenName,
		LastName:     r.FamilyName,
		PhoneNumbers: phones,
		Thumbnail:    slices.Clone(r.PhotoData),
	}, true
}
