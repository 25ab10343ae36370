// Package auth tracks whether the process may read the address book.
package auth

import (
	"context"
	"log/slog"
	"sync"

	"github.com/tartampluch/go-contacts/internal/config"
	"golang.org/x/sync/singleflight"
)

// Status is a contacts permission state.
type Status string

const (
	// StatusNotDetermined indicates access has not been requested yet.
	StatusNotDetermined Status = "not_determined"
	// StatusAuthorized indicates contacts access is granted.
	StatusAuthorized Status = "authorized"
	// StatusDenied indicates the user denied access.
	StatusDenied Status = "denied"
	// StatusRestricted indicates policy prevents access. The gate reports it as StatusDenied.
	StatusRestricted Status = "restricted"
)

// Provider is the platform permission mechanism.
type Provider interface {
	// CurrentStatus reads the stored decision without side effects.
	CurrentStatus() Status

	// Prompt asks the user once. Implementations may show UI and block until answered.
	Prompt(ctx context.Context) (Status, error)
}

const promptKey = "contacts-access"

// Gate serializes access checks for one process. It prompts at most once:
// concurrent callers share the in-flight prompt and later callers reuse its outcome.
type Gate struct {
	provider Provider
	prompts  singleflight.Group

	mu       sync.Mutex
	prompted bool
	outcome  Status
	last     Status
}

// NewGate returns a Gate that delegates to provider.
func NewGate(provider Provider) *Gate {
	return &Gate{provider: provider, last: StatusNotDetermined}
}

// CheckStatus returns the provider's current state with Restricted folded into Denied,
// or the memoized prompt outcome while the provider has no decision. It never prompts
// and records nothing.
func (g *Gate) CheckStatus() Status {
	st := normalize(g.provider.CurrentStatus())

	g.mu.Lock()
	defer g.mu.Unlock()
	if st == StatusNotDetermined && g.prompted {
		st = g.outcome
	}
	return st
}

// EnsureAccess returns StatusAuthorized or StatusDenied, prompting when no
// decision exists yet. A cancelled ctx yields StatusDenied for this caller only;
// the prompt keeps running for the others.
func (g *Gate) EnsureAccess(ctx context.Context) Status {
	switch st := g.observe(g.CheckStatus()); st {
	case StatusAuthorized, StatusDenied:
		return st
	}

	ch := g.prompts.DoChan(promptKey, func() (any, error) {
		return g.prompt(context.WithoutCancel(ctx)), nil
	})

	select {
	case res := <-ch:
		if res.Shared {
			slog.Debug(config.MsgPromptJoined, config.LogKeyComponent, config.CompAuth)
		}
		return res.Val.(Status)
	case <-ctx.Done():
		return StatusDenied
	}
}

// observe remembers st as the last seen status. A Denied following an
// Authorized is a revocation and overrides the memoized prompt outcome.
func (g *Gate) observe(st Status) Status {
	g.mu.Lock()
	defer g.mu.Unlock()

	if st == StatusDenied && g.last == StatusAuthorized {
		slog.Warn(config.MsgAccessRevoked, config.LogKeyComponent, config.CompAuth)
		if g.prompted {
			g.outcome = StatusDenied
		}
	}
	g.last = st
	return st
}

// Reset forgets the outcome of a previous prompt so the next EnsureAccess
// consults the provider again.
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompted = false
	g.outcome = ""
	g.last = StatusNotDetermined
}

func (g *Gate) prompt(ctx context.Context) Status {
	g.mu.Lock()
	if g.prompted {
		outcome := g.outcome
		g.mu.Unlock()
		return outcome
	}
	g.mu.Unlock()

	slog.Info(config.MsgPromptStart, config.LogKeyComponent, config.CompAuth)

	outcome := StatusDenied
	st, err := g.provider.Prompt(ctx)
	switch {
	case err != nil:
		slog.Warn(config.ErrPromptFailed,
			config.LogKeyComponent, config.CompAuth,
			config.LogKeyError, err)
	case normalize(st) == StatusAuthorized:
		outcome = StatusAuthorized
	}

	g.mu.Lock()
	g.prompted = true
	g.outcome = outcome
	g.last = outcome
	g.mu.Unlock()

	slog.Info(config.MsgPromptResult,
		config.LogKeyComponent, config.CompAuth,
		config.LogKeyAuth, outcome)
	return outcome
}

func normalize(st Status) Status {
	switch st {
	case StatusAuthorized:
		return StatusAuthorized
	case StatusDenied, StatusRestricted:
		return StatusDenied
	default:
		return StatusNotDetermined
	}
}
