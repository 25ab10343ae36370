// Package source provides the contact stores behind the retrieval pipeline:
// vCard files, remote vCard exports and the macOS AddressBook database.
package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/tartampluch/go-contacts/internal/config"
	"github.com/tartampluch/go-contacts/internal/contact"
)

// Source enumerates raw contact records in a single read-only pass.
type Source interface {
	Enumerate(ctx context.Context, visit func(contact.Record)) error
}

// Opener yields a fresh vCard stream for each enumeration.
type Opener interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// FileOpener opens a local .vcf file.
type FileOpener struct {
	Path string
}

// Open implements Opener.
func (o FileOpener) Open(context.Context) (io.ReadCloser, error) {
	f, err := os.Open(o.Path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrFileOpen, err)
	}
	return f, nil
}

// RemoteOpener downloads a vCard export through a Fetcher.
type RemoteOpener struct {
	Fetcher Fetcher
	URL     string
	User    string
	Pass    string
}

// Open implements Opener.
func (o RemoteOpener) Open(ctx context.Context) (io.ReadCloser, error) {
	if o.Fetcher == nil {
		return nil, fmt.Errorf("%s", config.ErrFetcherMissing)
	}
	return o.Fetcher.Fetch(ctx, o.URL, o.User, o.Pass)
}

// New builds the Source selected by s. password is only used by the web mode.
func New(s config.Settings, password string) (Source, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	slog.Debug(config.MsgSourceOpened,
		config.LogKeyComponent, config.CompSource,
		config.LogKeyMode, s.Source.Mode)

	switch s.Source.Mode {
	case config.SourceModeLocal:
		return &VCardSource{Opener: FileOpener{Path: s.Source.Path}}, nil
	case config.SourceModeWeb:
		return &VCardSource{Opener: RemoteOpener{
			Fetcher: NewHTTPFetcher(),
			URL:     s.Source.URL,
			User:    s.Source.User,
			Pass:    password,
		}}, nil
	default: // config.SourceModeAddressBook, Validate rejects the rest
		if s.Source.Path != "" {
			return &AddressBookSource{Paths: []string{s.Source.Path}}, nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		paths, err := DiscoverAddressBooks(home)
		if err != nil {
			return nil, err
		}
		return &AddressBookSource{Paths: paths}, nil
	}
}
