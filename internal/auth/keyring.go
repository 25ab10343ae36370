package auth

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/tartampluch/go-contacts/internal/config"
	"github.com/zalando/go-keyring"
)

// Prompter asks the user whether the application may read their contacts.
type Prompter interface {
	Confirm(ctx context.Context) (bool, error)
}

// PrompterFunc adapts a function to Prompter.
type PrompterFunc func(ctx context.Context) (bool, error)

// Confirm implements Prompter.
func (f PrompterFunc) Confirm(ctx context.Context) (bool, error) {
	return f(ctx)
}

// AutoPrompter answers every prompt with its own value (used by --yes).
type AutoPrompter bool

// Confirm implements Prompter.
func (a AutoPrompter) Confirm(context.Context) (bool, error) {
	return bool(a), nil
}

// ReaderPrompter asks a yes/no question on a terminal.
type ReaderPrompter struct {
	In       io.Reader
	Out      io.Writer
	Question string
}

// Confirm writes the question and reads one line. Only "y" and "yes" grant access.
func (p ReaderPrompter) Confirm(ctx context.Context) (bool, error) {
	if _, err := fmt.Fprintf(p.Out, "%s [y/N] ", p.Question); err != nil {
		return false, err
	}

	answer := make(chan string, config.ChannelBufferSize)
	failed := make(chan error, config.ChannelBufferSize)
	go func() {
		line, err := bufio.NewReader(p.In).ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			failed <- err
			return
		}
		answer <- line
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case err := <-failed:
		return false, err
	case line := <-answer:
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		}
		return false, nil
	}
}

// KeyringProvider remembers the user's decision in the OS keyring so that it
// survives restarts, the way a platform permission would.
type KeyringProvider struct {
	Service  string
	Account  string
	Prompter Prompter
}

// NewKeyringProvider returns a provider using the application's keyring entry.
func NewKeyringProvider(p Prompter) *KeyringProvider {
	return &KeyringProvider{
		Service:  config.KeyringService,
		Account:  config.KeyringAccessAccount,
		Prompter: p,
	}
}

// CurrentStatus implements Provider. A missing or unreadable entry is NotDetermined.
func (k *KeyringProvider) CurrentStatus() Status {
	v, err := keyring.Get(k.Service, k.Account)
	if err != nil {
		if !errors.Is(err, keyring.ErrNotFound) {
			slog.Warn(config.ErrKeyringRead,
				config.LogKeyComponent, config.CompAuth,
				config.LogKeyError, err)
		}
		return StatusNotDetermined
	}

	switch st := Status(v); st {
	case StatusAuthorized, StatusDenied, StatusRestricted:
		return st
	}
	return StatusNotDetermined
}

// Prompt implements Provider. Any prompter failure is a denial that is not remembered.
func (k *KeyringProvider) Prompt(ctx context.Context) (Status, error) {
	if k.Prompter == nil {
		return StatusDenied, errors.New(config.ErrPromptFailed)
	}

	granted, err := k.Prompter.Confirm(ctx)
	if err != nil {
		return StatusDenied, fmt.Errorf("%s: %w", config.ErrPromptFailed, err)
	}

	st := StatusDenied
	if granted {
		st = StatusAuthorized
	}

	if err := keyring.Set(k.Service, k.Account, string(st)); err != nil {
		// The answer still holds for this process; the gate memoizes it.
		slog.Warn(config.ErrKeyringWrite,
			config.LogKeyComponent, config.CompAuth,
			config.LogKeyError, err)
	}
	return st, nil
}

// Reset forgets the remembered decision.
func (k *KeyringProvider) Reset() error {
	err := keyring.Delete(k.Service, k.Account)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("%s: %w", config.ErrKeyringWrite, err)
	}
	slog.Info(config.MsgDecisionReset, config.LogKeyComponent, config.CompAuth)
	return nil
}
