// Package session drives a search box: it asks for contacts access, debounces
// query edits and keeps only the newest fetch result.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/tartampluch/go-contacts/internal/auth"
	"github.com/tartampluch/go-contacts/internal/config"
	"github.com/tartampluch/go-contacts/internal/contact"
	"github.com/tartampluch/go-contacts/internal/engine"
)

// Phase is the controller's lifecycle position.
type Phase string

const (
	PhaseIdle                  Phase = "idle"
	PhaseAwaitingAuthorization Phase = "awaiting_authorization"
	PhaseLoading               Phase = "loading"
	PhaseSettled               Phase = "settled"
	PhaseFailed                Phase = "failed"
)

// State is a snapshot of the session observed by the UI.
type State struct {
	Authorization auth.Status
	Query         string
	Results       []contact.Contact
	IsLoading     bool
	Error         string
	Phase         Phase

	// Outcomes counts settled and failed fetches. It changes exactly when
	// Results or Error is replaced.
	Outcomes uint64
	// ResultsQuery is the query Results or Error belong to. Query may
	// already hold a newer edit.
	ResultsQuery string
}

// Searcher runs a fetch in the background and reports through done.
// *engine.Pipeline implements it.
type Searcher interface {
	SearchAsync(ctx context.Context, query, locale string, done engine.Completion)
}

// MessageFunc turns a pipeline error into a message for the user.
type MessageFunc func(err error) string

// Options tunes a Controller. Zero values select the defaults.
type Options struct {
	Locale   string
	Debounce time.Duration
	Clock    Clock
	Messages MessageFunc
}

// Controller owns the SessionState. All methods are safe for concurrent use.
type Controller struct {
	gate     engine.AccessGate
	searcher Searcher
	opts     Options
	log      *slog.Logger

	base context.Context
	stop context.CancelFunc

	mu         sync.Mutex
	state      State
	closed     bool
	seq        uint64
	cancel     context.CancelFunc
	inflight   <-chan struct{}
	fetchQuery string
	timer      Timer
	timerGen   uint64
	fired      bool
	lastFired  string
	listeners  []func()
}

// NewController creates a controller in the Idle phase.
// A negative Debounce is treated as zero.
func NewController(gate engine.AccessGate, searcher Searcher, opts Options) *Controller {
	if opts.Clock == nil {
		opts.Clock = RealClock{}
	}
	if opts.Messages == nil {
		opts.Messages = DefaultMessage
	}
	if opts.Debounce < 0 {
		opts.Debounce = 0
	}

	base, stop := context.WithCancel(context.Background())
	return &Controller{
		gate:     gate,
		searcher: searcher,
		opts:     opts,
		log:      slog.With(config.LogKeyComponent, config.CompSession),
		base:     base,
		stop:     stop,
		state: State{
			Authorization: auth.StatusNotDetermined,
			Phase:         PhaseIdle,
		},
	}
}

// DefaultMessage renders errors with the built-in English strings.
func DefaultMessage(err error) string {
	if errors.Is(err, engine.ErrAccessDenied) {
		return config.FallbackAccessDenied
	}
	return fmt.Sprintf(config.FallbackLoadFailed, err)
}

// State returns a copy of the current session state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	s.Results = slices.Clone(s.Results)
	return s
}

// AddListener registers fn to be called after every state change.
// Listeners run on the goroutine that made the change.
func (c *Controller) AddListener(fn func()) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// RequestAccess asks for contacts access and, once granted, waits for the first
// fetch to settle. It reports whether access was granted. When ctx ends before
// the prompt is answered the session is left as it was.
func (c *Controller) RequestAccess(ctx context.Context) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	prev := c.state.Phase
	c.setPhaseLocked(PhaseAwaitingAuthorization)
	c.mu.Unlock()
	c.notify()

	status := c.gate.EnsureAccess(ctx)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	if status != auth.StatusAuthorized && ctx.Err() != nil {
		c.setPhaseLocked(prev)
		c.mu.Unlock()
		c.notify()
		c.log.Debug(config.MsgAccessAbandoned, config.LogKeyError, ctx.Err())
		return false
	}
	if status != auth.StatusAuthorized {
		c.state.Authorization = auth.StatusDenied
		c.failLocked(c.state.Query, engine.ErrAccessDenied)
		c.mu.Unlock()
		c.notify()
		return false
	}

	c.state.Authorization = auth.StatusAuthorized
	done, launch := c.startFetchLocked()
	c.mu.Unlock()
	c.notify()
	launch()

	select {
	case <-done:
	case <-ctx.Done():
	}
	return true
}

// SetQuery stores q. While authorized it (re)arms the debounce timer; the fetch
// starts when the timer fires unless the trimmed query equals the last one fetched.
func (c *Controller) SetQuery(q string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.state.Query = q

	if c.state.Authorization == auth.StatusAuthorized {
		if c.timer != nil {
			c.timer.Stop()
		}
		c.timerGen++
		gen := c.timerGen
		c.timer = c.opts.Clock.AfterFunc(c.opts.Debounce, func() { c.fire(gen) })
		c.log.Debug(config.MsgQueryDebounced, config.LogKeyQuery, q)
	}
	c.mu.Unlock()
	c.notify()
}

// Retry starts over: it requests access again when not authorized, otherwise it
// refetches the current query immediately.
func (c *Controller) Retry(ctx context.Context) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	if c.state.Authorization != auth.StatusAuthorized {
		c.mu.Unlock()
		return c.RequestAccess(ctx)
	}
	done, launch := c.startFetchLocked()
	c.mu.Unlock()
	c.notify()
	launch()

	select {
	case <-done:
	case <-ctx.Done():
	}
	return true
}

// Close stops the debounce timer and cancels in-flight work. Late results are dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
	}
	c.stop()
}

// Flush fires a pending debounced query now and waits until the latest fetch,
// if any, has been handled.
func (c *Controller) Flush(ctx context.Context) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	var launch func()
	if c.timer != nil {
		c.timer.Stop()
		c.timerGen++
		launch = c.firePendingLocked()
	}
	done := c.inflight
	c.mu.Unlock()

	if launch != nil {
		c.notify()
		launch()
	}
	if done == nil {
		return
	}
	select {
	case <-done:
	case <-ctx.Done():
	}
}

func (c *Controller) fire(gen uint64) {
	c.mu.Lock()
	if c.closed || gen != c.timerGen {
		c.mu.Unlock()
		return
	}
	launch := c.firePendingLocked()
	c.mu.Unlock()

	if launch != nil {
		c.notify()
		launch()
	}
}

// firePendingLocked consumes the armed timer. It returns nil when the query
// equals the last one fetched.
func (c *Controller) firePendingLocked() func() {
	c.timer = nil
	if c.fired && strings.TrimSpace(c.state.Query) == c.lastFired {
		c.log.Debug(config.MsgQueryDuplicate, config.LogKeyQuery, c.state.Query)
		return nil
	}
	_, launch := c.startFetchLocked()
	return launch
}

// startFetchLocked supersedes any running fetch and prepares a new one for the
// current query. launch must be called once the lock is released; done closes
// when the outcome has been handled.
func (c *Controller) startFetchLocked() (done <-chan struct{}, launch func()) {
	if c.cancel != nil {
		c.cancel()
	}
	c.seq++
	seq := c.seq
	ctx, cancel := context.WithCancel(c.base)
	c.cancel = cancel

	query := strings.TrimSpace(c.state.Query)
	c.fetchQuery = query
	c.fired = true
	c.lastFired = query

	c.state.IsLoading = true
	c.state.Error = ""
	c.setPhaseLocked(PhaseLoading)

	c.log.Debug(config.MsgFetchStarted, config.LogKeySeq, seq, config.LogKeyQuery, query)

	finished := make(chan struct{})
	c.inflight = finished
	return finished, func() {
		c.searcher.SearchAsync(ctx, query, c.opts.Locale, func(contacts []contact.Contact, err error) {
			defer close(finished)
			c.settle(seq, contacts, err)
		})
	}
}

// settle applies a fetch outcome if it belongs to the newest fetch.
func (c *Controller) settle(seq uint64, contacts []contact.Contact, err error) {
	c.mu.Lock()
	if c.closed || seq != c.seq {
		c.mu.Unlock()
		c.log.Debug(config.MsgFetchSuperseded, config.LogKeySeq, seq)
		return
	}

	if err != nil {
		if errors.Is(err, engine.ErrAccessDenied) {
			c.state.Authorization = auth.StatusDenied
		}
		c.failLocked(c.fetchQuery, err)
	} else {
		c.state.Outcomes++
		c.state.ResultsQuery = c.fetchQuery
		c.state.Results = contacts
		c.state.IsLoading = false
		c.state.Error = ""
		c.setPhaseLocked(PhaseSettled)
	}
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) failLocked(query string, err error) {
	c.state.Outcomes++
	c.state.ResultsQuery = query
	c.state.Results = nil
	c.state.IsLoading = false
	c.state.Error = c.opts.Messages(err)
	c.setPhaseLocked(PhaseFailed)
	c.log.Info(config.MsgStateChanged,
		config.LogKeyPhase, PhaseFailed,
		config.LogKeyError, err)
}

func (c *Controller) setPhaseLocked(p Phase) {
	if c.state.Phase == p {
		return
	}
	c.state.Phase = p
	c.log.Debug(config.MsgStateChanged,
		config.LogKeyPhase, p,
		config.LogKeyAuth, c.state.Authorization)
}

func (c *Controller) notify() {
	c.mu.Lock()
	listeners := slices.Clone(c.listeners)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}
