package engine

import (
	"context"

	"github.com/tartampluch/go-contacts/internal/contact"
)

// Dispatcher runs completion callbacks on a chosen goroutine, typically the UI thread.
type Dispatcher interface {
	Dispatch(fn func())
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(fn func())

// Dispatch implements Dispatcher.
func (f DispatcherFunc) Dispatch(fn func()) {
	f(fn)
}

// inline runs callbacks on whichever goroutine finished the work.
type inline struct{}

func (inline) Dispatch(fn func()) { fn() }

// Completion receives the outcome of SearchAsync.
type Completion func(contacts []contact.Contact, err error)

type outcome struct {
	contacts []contact.Contact
	err      error
}

// Search runs Fetch on a background goroutine and blocks until it completes or
// ctx is done. Cancellation is cooperative: the worker observes ctx between records.
func (p *Pipeline) Search(ctx context.Context, query, locale string) ([]contact.Contact, error) {
	done := make(chan outcome, 1)
	go func() {
		contacts, err := p.Fetch(ctx, query, locale)
		done <- outcome{contacts: contacts, err: err}
	}()

	select {
	case o := <-done:
		return o.contacts, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// SearchAsync queues Fetch on a background goroutine and returns immediately.
// complete is invoked exactly once through the pipeline's Dispatcher.
func (p *Pipeline) SearchAsync(ctx context.Context, query, locale string, complete Completion) {
	dispatcher := p.Dispatcher
	if dispatcher == nil {
		dispatcher = inline{}
	}

	go func() {
		contacts, err := p.Fetch(ctx, query, locale)
		dispatcher.Dispatch(func() { complete(contacts, err) })
	}()
}
