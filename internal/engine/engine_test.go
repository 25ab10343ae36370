package engine_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-contacts/internal/auth"
	"github.com/tartampluch/go-contacts/internal/contact"
	"github.com/tartampluch/go-contacts/internal/engine"
)

// -----------------------------------------------------------------------------
// Mocks
// -----------------------------------------------------------------------------

// MockGate simulates the authorization gate.
type MockGate struct {
	mock.Mock
}

func (m *MockGate) EnsureAccess(ctx context.Context) auth.Status {
	return m.Called(ctx).Get(0).(auth.Status)
}

// MockSource simulates a contact store using `testify/mock`.
type MockSource struct {
	mock.Mock
}

// Enumerate implements engine.ContactSource.
func (m *MockSource) Enumerate(ctx context.Context, visit func(contact.Record)) error {
	return m.Called(ctx, visit).Error(0)
}

// yielding returns a Run function that feeds records to the visitor.
func yielding(records ...contact.Record) func(mock.Arguments) {
	return func(args mock.Arguments) {
		visit := args.Get(1).(func(contact.Record))
		for _, r := range records {
			visit(r)
		}
	}
}

// -----------------------------------------------------------------------------
// Fixtures
// -----------------------------------------------------------------------------

var (
	zhangRecord = contact.Record{
		Identifier:   "zhang",
		FamilyName:   "张三",
		PhoneNumbers: []contact.LabeledValue{{Value: "13800138000", Label: "mobile"}},
	}
	bobRecord = contact.Record{
		Identifier:   "bob",
		GivenName:    "Bob",
		FamilyName:   "Smith",
		PhoneNumbers: []contact.LabeledValue{{Value: "650-555-0100"}},
		PhotoData:    []byte{0x89, 'P', 'N', 'G'},
	}
	nameOnlyRecord = contact.Record{
		Identifier: "name-only",
		GivenName:  "Aaron",
	}
)

func newPipeline(t *testing.T, status auth.Status, records ...contact.Record) (*engine.Pipeline, *MockSource) {
	t.Helper()
	gate := new(MockGate)
	gate.On("EnsureAccess", mock.Anything).Return(status)

	src := new(MockSource)
	src.On("Enumerate", mock.Anything, mock.Anything).Run(yielding(records...)).Return(nil)

	return &engine.Pipeline{Gate: gate, Source: src, DefaultLocale: "en"}, src
}

func ids(cs []contact.Contact) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}

// -----------------------------------------------------------------------------
// Test Cases
// -----------------------------------------------------------------------------

func TestFetch_ChineseLocaleOrdersByPinyinInitial(t *testing.T) {
	p, _ := newPipeline(t, auth.StatusAuthorized, zhangRecord, bobRecord)

	got, err := p.Fetch(context.Background(), "", "zh")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "zhang"}, ids(got))
}

func TestFetch_LatinLocaleIsDeterministic(t *testing.T) {
	p, _ := newPipeline(t, auth.StatusAuthorized, zhangRecord, bobRecord)

	first, err := p.Fetch(context.Background(), "", "en")
	require.NoError(t, err)
	require.Len(t, first, 2)

	for i := 0; i < 5; i++ {
		again, err := p.Fetch(context.Background(), "", "en")
		require.NoError(t, err)
		assert.Equal(t, ids(first), ids(again))
	}
}

func TestFetch_PhoneQuery(t *testing.T) {
	for _, locale := range []string{"en", "zh", "fr", ""} {
		t.Run(locale, func(t *testing.T) {
			p, _ := newPipeline(t, auth.StatusAuthorized, zhangRecord, bobRecord)

			got, err := p.Fetch(context.Background(), "138", locale)
			require.NoError(t, err)
			assert.Equal(t, []string{"zhang"}, ids(got))
		})
	}
}

func TestFetch_DeniedNeverTouchesSource(t *testing.T) {
	for _, st := range []auth.Status{auth.StatusDenied, auth.StatusNotDetermined} {
		t.Run(string(st), func(t *testing.T) {
			p, src := newPipeline(t, st, bobRecord)

			got, err := p.Fetch(context.Background(), "", "en")
			assert.ErrorIs(t, err, engine.ErrAccessDenied)
			assert.Nil(t, got)
			src.AssertNumberOfCalls(t, "Enumerate", 0)
		})
	}
}

func TestFetch_DropsPhonelessRecords(t *testing.T) {
	for _, locale := range []string{"en", "zh"} {
		for _, query := range []string{"", "a", "Aaron"} {
			p, _ := newPipeline(t, auth.StatusAuthorized, nameOnlyRecord, bobRecord, zhangRecord)

			got, err := p.Fetch(context.Background(), query, locale)
			require.NoError(t, err)
			assert.NotContains(t, ids(got), "name-only", "locale=%s query=%q", locale, query)
		}
	}
}

func TestFetch_PreservesFieldsVerbatim(t *testing.T) {
	p, _ := newPipeline(t, auth.StatusAuthorized, bobRecord)

	got, err := p.Fetch(context.Background(), "bob", "en")
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, "Smith Bob", got[0].FullName())
	assert.Equal(t, "650-555-0100", got[0].PhoneNumbers[0].Number)
	assert.Empty(t, got[0].PhoneNumbers[0].Label)
	assert.Equal(t, bobRecord.PhotoData, got[0].Thumbnail)
}

func TestFetch_EmptyResultIsNotNil(t *testing.T) {
	p, _ := newPipeline(t, auth.StatusAuthorized)

	got, err := p.Fetch(context.Background(), "nobody", "en")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFetch_SourceFailureIsSourceUnavailable(t *testing.T) {
	gate := new(MockGate)
	gate.On("EnsureAccess", mock.Anything).Return(auth.StatusAuthorized)

	cause := errors.New("disk on fire")
	src := new(MockSource)
	// Some records stream before the failure; none of them may leak out.
	src.On("Enumerate", mock.Anything, mock.Anything).Run(yielding(bobRecord)).Return(cause)

	p := &engine.Pipeline{Gate: gate, Source: src}
	got, err := p.Fetch(context.Background(), "", "en")

	assert.Nil(t, got)
	assert.ErrorIs(t, err, engine.ErrSourceUnavailable)
	assert.ErrorIs(t, err, cause)
}

func TestFetch_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	gate := new(MockGate)
	gate.On("EnsureAccess", mock.Anything).Return(auth.StatusAuthorized)

	src := new(MockSource)
	src.On("Enumerate", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { cancel() }).
		Return(context.Canceled)

	p := &engine.Pipeline{Gate: gate, Source: src}
	_, err := p.Fetch(ctx, "", "en")
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, engine.ErrSourceUnavailable)
}

func TestFetch_DefaultLocaleApplies(t *testing.T) {
	p, _ := newPipeline(t, auth.StatusAuthorized, zhangRecord, bobRecord)
	p.DefaultLocale = "zh-Hans"

	got, err := p.Fetch(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "zhang"}, ids(got))
}

// TestSearch_BlockingAndAsyncAgree verifies both delivery styles share one behavior.
func TestSearch_BlockingAndAsyncAgree(t *testing.T) {
	records := []contact.Record{zhangRecord, bobRecord, nameOnlyRecord,
		{Identifier: "amy", GivenName: "amy", PhoneNumbers: []contact.LabeledValue{{Value: "138 1"}}},
	}

	for _, tc := range []struct{ query, locale string }{{"", "en"}, {"", "zh"}, {"138", "en"}, {"SMITH", "fr"}} {
		p, _ := newPipeline(t, auth.StatusAuthorized, records...)

		blocking, err := p.Search(context.Background(), tc.query, tc.locale)
		require.NoError(t, err)

		done := make(chan []contact.Contact, 1)
		p.SearchAsync(context.Background(), tc.query, tc.locale, func(cs []contact.Contact, err error) {
			assert.NoError(t, err)
			done <- cs
		})

		select {
		case async := <-done:
			assert.Equal(t, ids(blocking), ids(async), "query=%q locale=%s", tc.query, tc.locale)
		case <-time.After(time.Second):
			t.Fatal("async completion never delivered")
		}
	}
}

func TestSearchAsync_UsesDispatcher(t *testing.T) {
	p, _ := newPipeline(t, auth.StatusDenied, bobRecord)

	var mu sync.Mutex
	dispatched := 0
	p.Dispatcher = engine.DispatcherFunc(func(fn func()) {
		mu.Lock()
		dispatched++
		mu.Unlock()
		fn()
	})

	errs := make(chan error, 1)
	p.SearchAsync(context.Background(), "", "en", func(cs []contact.Contact, err error) {
		assert.Nil(t, cs)
		errs <- err
	})

	assert.ErrorIs(t, <-errs, engine.ErrAccessDenied)
	mu.Lock()
	assert.Equal(t, 1, dispatched)
	mu.Unlock()
}

func TestSearch_ReturnsWhenCallerGivesUp(t *testing.T) {
	gate := new(MockGate)
	gate.On("EnsureAccess", mock.Anything).Return(auth.StatusAuthorized)

	release := make(chan time.Time)
	src := new(MockSource)
	src.On("Enumerate", mock.Anything, mock.Anything).WaitUntil(release).Return(nil)
	t.Cleanup(func() { close(release) })

	p := &engine.Pipeline{Gate: gate, Source: src}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := p.Search(ctx, "", "en")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
