package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tartampluch/go-contacts/internal/auth"
	"github.com/tartampluch/go-contacts/internal/collation"
	"github.com/tartampluch/go-contacts/internal/config"
	"github.com/tartampluch/go-contacts/internal/contact"
)

var (
	// ErrAccessDenied is returned when contacts access is not granted.
	// It is not retried; the user has to change the decision first.
	ErrAccessDenied = errors.New(config.ErrAccessDenied)

	// ErrSourceUnavailable wraps any failure of the contact store while enumerating.
	ErrSourceUnavailable = errors.New(config.ErrSourceUnavailable)
)

// AccessGate resolves the permission state before a fetch. *auth.Gate implements it.
type AccessGate interface {
	EnsureAccess(ctx context.Context) auth.Status
}

// ContactSource enumerates raw records from a contact store in a single read-only pass.
// This interface allows for mocking in tests and decoupling from the storage backend.
type ContactSource interface {
	Enumerate(ctx context.Context, visit func(contact.Record)) error
}

// Pipeline is the retrieval pipeline: authorize, enumerate, convert, filter, sort.
type Pipeline struct {
	Gate   AccessGate
	Source ContactSource

	// Transliterator provides pinyin initials for Chinese locales. Nil uses the
	// go-pinyin dictionary.
	Transliterator *collation.Transliterator

	// DefaultLocale is used when a call passes an empty locale.
	DefaultLocale string

	// Dispatcher delivers SearchAsync completions. Nil calls them on the worker goroutine.
	Dispatcher Dispatcher
}

// Fetch runs the pipeline synchronously on the calling goroutine. It either
// returns the full filtered and sorted list or an error, never both.
func (p *Pipeline) Fetch(ctx context.Context, query, locale string) ([]contact.Contact, error) {
	start := time.Now()
	if locale == "" {
		locale = p.DefaultLocale
	}
	log := slog.With(
		config.LogKeyComponent, config.CompEngine,
		config.LogKeyLocale, locale,
	)
	log.DebugContext(ctx, config.MsgFetchStarted, config.LogKeyQuery, query)

	// 1. Authorization
	if p.Gate.EnsureAccess(ctx) != auth.StatusAuthorized {
		log.InfoContext(ctx, config.MsgFetchDenied)
		return nil, ErrAccessDenied
	}

	// 2. Enumerate & convert, 3. filter
	stats := struct{ total, dropped, matched int }{}
	contacts := make([]contact.Contact, 0)

	err := p.Source.Enumerate(ctx, func(r contact.Record) {
		stats.total++
		c, ok := contact.FromRecord(r)
		if !ok {
			stats.dropped++
			return
		}
		if contact.Matches(c, query) {
			stats.matched++
			contacts = append(contacts, c)
		}
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 4. Sort
	collation.NewComparator(locale, p.transliterator()).Sort(contacts)

	log.DebugContext(ctx, config.MsgFetchDone,
		slog.Group(config.LogKeyStats,
			slog.Int(config.LogKeyTotal, stats.total),
			slog.Int(config.LogKeyDropped, stats.dropped),
			slog.Int(config.LogKeyMatched, stats.matched),
		),
		config.LogKeyDuration, time.Since(start).Milliseconds(),
	)
	return contacts, nil
}

var defaultTransliterator = sync.OnceValue(func() *collation.Transliterator {
	return collation.NewTransliterator(nil)
})

func (p *Pipeline) transliterator() *collation.Transliterator {
	if p.Transliterator != nil {
		return p.Transliterator
	}
	return defaultTransliterator()
}
