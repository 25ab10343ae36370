package source

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/emersion/go-vcard"
	"github.com/tartampluch/go-contacts/internal/config"
	"github.com/tartampluch/go-contacts/internal/contact"
)

// VCardSource reads contacts from a vCard stream.
type VCardSource struct {
	Opener Opener
}

// Enumerate decodes every card of the stream and hands it to visit.
// A malformed card aborts the enumeration; the caller gets no partial list.
func (s *VCardSource) Enumerate(ctx context.Context, visit func(contact.Record)) error {
	rc, err := s.Opener.Open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	decoder := vcard.NewDecoder(rc)
	count := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		card, err := decoder.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("%s: %w", config.ErrVCardParse, err)
		}

		visit(recordFromCard(card))
		count++
	}

	slog.DebugContext(ctx, config.MsgSourceDone,
		config.LogKeyComponent, config.CompSource,
		config.LogKeyCount, count)
	return nil
}

// recordFromCard maps N/FN, TEL and PHOTO onto a Record.
func recordFromCard(card vcard.Card) contact.Record {
	var r contact.Record

	if n := card.Name(); n != nil {
		r.GivenName = strings.TrimSpace(n.GivenName)
		r.FamilyName = strings.TrimSpace(n.FamilyName)
	}
	if r.GivenName == "" && r.FamilyName == "" {
		r.GivenName = strings.TrimSpace(card.Value(vcard.FieldFormattedName))
	}

	for _, f := range card[vcard.FieldTelephone] {
		if strings.TrimSpace(f.Value) == "" {
			continue
		}
		r.PhoneNumbers = append(r.PhoneNumbers, contact.LabeledValue{
			Value: f.Value,
			Label: phoneLabel(f),
		})
	}

	if f := card.Get(vcard.FieldPhoto); f != nil {
		r.PhotoData = decodePhoto(f)
	}

	r.Identifier = strings.TrimSpace(card.Value(vcard.FieldUID))
	if r.Identifier == "" {
		r.Identifier = derivedUID(r)
	}
	return r
}

// phoneLabel returns the first TYPE of a TEL field other than "pref", as written.
func phoneLabel(f *vcard.Field) string {
	for _, t := range f.Params[vcard.ParamType] {
		for _, v := range strings.Split(t, ",") {
			v = strings.TrimSpace(v)
			if v != "" && !strings.EqualFold(v, config.VCardTypePref) {
				return v
			}
		}
	}
	return ""
}

// decodePhoto supports inline base64 (vCard 3 ENCODING=b) and base64 data URIs
// (vCard 4). Photos referenced by URL are not downloaded.
func decodePhoto(f *vcard.Field) []byte {
	log := slog.With(config.LogKeyComponent, config.CompSource)
	value := strings.Join(strings.Fields(f.Value), "")

	var payload string
	switch enc := strings.ToLower(f.Params.Get(config.VCardParamEncoding)); {
	case enc == config.VCardEncodingB || enc == config.VCardEncodingBase64:
		payload = value
	case strings.HasPrefix(value, config.DataURIPrefix):
		i := strings.Index(value, config.DataURIBase64Marker)
		if i < 0 {
			log.Debug(config.MsgPhotoSkipped)
			return nil
		}
		payload = value[i+len(config.DataURIBase64Marker):]
	default:
		log.Debug(config.MsgPhotoSkipped)
		return nil
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		log.Debug(config.MsgPhotoInvalid, config.LogKeyError, fmt.Errorf("%s: %w", config.ErrPhotoDecode, err))
		return nil
	}
	return data
}

// derivedUID builds a stable identifier for cards without UID so that
// repeated enumerations of the same file agree.
func derivedUID(r contact.Record) string {
	var b strings.Builder
	b.WriteString(config.UIDSalt)
	b.WriteString(r.GivenName)
	b.WriteByte(0)
	b.WriteString(r.FamilyName)
	for _, p := range r.PhoneNumbers {
		b.WriteByte(0)
		b.WriteString(p.Value)
	}
	hash := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("%x", hash[:config.UIDHashLength])
}
