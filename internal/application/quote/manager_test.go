package quote

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/erp/quotedesk/internal/domain/job"
	"github.com/erp/quotedesk/internal/domain/quote"
	"github.com/erp/quotedesk/internal/domain/shared"
	"github.com/erp/quotedesk/internal/infrastructure/cache"
	"github.com/erp/quotedesk/internal/infrastructure/httpclient"
	"github.com/erp/quotedesk/internal/infrastructure/localstore"
	"github.com/erp/quotedesk/internal/infrastructure/telemetry"
	"github.com/erp/quotedesk/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

type managerFixture struct {
	quotes  *MockQuoteGateway
	orders  *MockOrderGateway
	repo    *localstore.OrderRepository
	claims  *cache.MemoryIdempotencyStore
	metrics *telemetry.Metrics
	manager *Manager
}

func newManagerFixture(t *testing.T, opts ...Option) *managerFixture {
	t.Helper()

	f := &managerFixture{
		quotes:  new(MockQuoteGateway),
		orders:  new(MockOrderGateway),
		repo:    localstore.NewOrderRepository(localstore.NewMemoryStore()),
		claims:  cache.NewMemoryIdempotencyStore(),
		metrics: telemetry.NewMetrics(telemetry.DefaultMetricsConfig()),
	}
	t.Cleanup(func() { _ = f.claims.Close() })

	base := []Option{
		WithIdempotencyStore(f.claims, time.Minute),
		WithConfirmer(AutoConfirm),
		WithClock(func() time.Time { return testNow }),
		WithMetrics(f.metrics),
	}
	f.manager = NewManager(f.quotes, f.orders, f.repo, append(base, opts...)...)
	return f
}

func conversionCount(t *testing.T, m *telemetry.Metrics, outcome string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "quotedesk_quote_conversions_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, lp := range metric.GetLabel() {
				if lp.GetName() == "outcome" && lp.GetValue() == outcome {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestManager_ListLoadsOnce(t *testing.T) {
	fx := testutil.NewFixtures(1)
	f := newManagerFixture(t)

	draft := fx.Quote(testutil.WithID("q1"), testutil.WithStatus(quote.StatusDraft))
	approved := fx.Quote(testutil.WithID("q2"), testutil.WithStatus(quote.StatusApproved))
	f.quotes.On("List", mock.Anything).Return([]quote.Quote{draft, approved}, nil).Once()

	all, err := f.manager.List(context.Background(), quote.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	approvedOnly, err := f.manager.List(context.Background(), quote.Filter{Status: quote.StatusApproved})
	require.NoError(t, err)
	require.Len(t, approvedOnly, 1)
	assert.Equal(t, "q2", approvedOnly[0].ID)

	f.quotes.AssertNumberOfCalls(t, "List", 1)
}

func TestManager_RefreshError(t *testing.T) {
	f := newManagerFixture(t)
	f.quotes.On("List", mock.Anything).Return(nil, &httpclient.APIError{StatusCode: 503, Message: "maintenance"})

	_, err := f.manager.List(context.Background(), quote.Filter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maintenance")
	assert.Empty(t, f.manager.Snapshot())
}

func TestManager_StaleRefreshIsDiscarded(t *testing.T) {
	fx := testutil.NewFixtures(2)
	f := newManagerFixture(t)

	older := []quote.Quote{fx.Quote(testutil.WithID("old"))}
	newer := []quote.Quote{fx.Quote(testutil.WithID("new"))}

	started := make(chan struct{})
	release := make(chan struct{})
	f.quotes.On("List", mock.Anything).Run(func(mock.Arguments) {
		close(started)
		<-release
	}).Return(older, nil).Once()
	f.quotes.On("List", mock.Anything).Return(newer, nil).Once()

	var wg sync.WaitGroup
	var slowResult []quote.Quote
	var slowErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		slowResult, slowErr = f.manager.Refresh(context.Background())
	}()

	<-started
	fast, err := f.manager.Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, fast, 1)
	assert.Equal(t, "new", fast[0].ID)

	close(release)
	wg.Wait()

	require.NoError(t, slowErr)
	require.Len(t, slowResult, 1)
	assert.Equal(t, "new", slowResult[0].ID, "older refresh must return the newer state")

	snapshot := f.manager.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, "new", snapshot[0].ID)
}

func TestManager_RefreshCancelledKeepsState(t *testing.T) {
	fx := testutil.NewFixtures(3)
	f := newManagerFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	f.quotes.On("List", mock.Anything).Run(func(mock.Arguments) {
		cancel()
	}).Return([]quote.Quote{fx.Quote()}, nil)

	_, err := f.manager.Refresh(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.manager.Snapshot())
}

func TestManager_RefreshOverlaysLocalOrders(t *testing.T) {
	fx := testutil.NewFixtures(4)
	f := newManagerFixture(t)

	q := fx.Quote(testutil.WithID("q1"), testutil.WithStatus(quote.StatusApproved))
	order := quote.NewFallbackOrder(q, quote.DefaultFallbackDefaults(), testNow)
	require.NoError(t, f.repo.Put(context.Background(), order))

	f.quotes.On("List", mock.Anything).Return([]quote.Quote{q}, nil)

	quotes, err := f.manager.Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, quote.StatusConverted, quotes[0].Status)
	assert.Equal(t, order.ID, quotes[0].OrderID)
}

func TestManager_Edit(t *testing.T) {
	fx := testutil.NewFixtures(5)
	f := newManagerFixture(t)

	draft := fx.Quote(testutil.WithID("q-draft"), testutil.WithStatus(quote.StatusDraft))
	approved := fx.Quote(testutil.WithID("q-approved"), testutil.WithStatus(quote.StatusApproved))
	f.quotes.On("List", mock.Anything).Return([]quote.Quote{draft, approved}, nil)

	t.Run("editable status returns a pre-filled form", func(t *testing.T) {
		form, err := f.manager.Edit(context.Background(), "q-draft")
		require.NoError(t, err)
		assert.Equal(t, "q-draft", form.ID)
		assert.Empty(t, form.ParentQuoteID)
		assert.True(t, form.IsInPlaceEdit())
		assert.Equal(t, draft.Title, form.Title)
		assert.Len(t, form.LineItems, len(draft.LineItems))
	})

	t.Run("approved quote cannot be edited", func(t *testing.T) {
		form, err := f.manager.Edit(context.Background(), "q-approved")
		assert.Nil(t, form)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
		assert.Contains(t, err.Error(), "Approved")
	})

	t.Run("unknown quote", func(t *testing.T) {
		_, err := f.manager.Edit(context.Background(), "missing")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestManager_NewVersion(t *testing.T) {
	fx := testutil.NewFixtures(6)
	f := newManagerFixture(t)

	sent := fx.Quote(testutil.WithID("q1"), testutil.WithStatus(quote.StatusSent))
	declined := fx.Quote(testutil.WithID("q2"), testutil.WithStatus(quote.StatusDeclined))
	f.quotes.On("List", mock.Anything).Return([]quote.Quote{sent, declined}, nil)

	form, err := f.manager.NewVersion(context.Background(), "q1", "price change")
	require.NoError(t, err)
	assert.Empty(t, form.ID)
	assert.Equal(t, "q1", form.ParentQuoteID)
	assert.Equal(t, "price change", form.ChangeReason)
	assert.False(t, form.IsInPlaceEdit())

	_, err = f.manager.NewVersion(context.Background(), "q2", "too late")
	assert.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestManager_SaveDispatch(t *testing.T) {
	fx := testutil.NewFixtures(7)

	tests := []struct {
		name       string
		id         string
		parent     string
		wantUpdate bool
	}{
		{"draft edit updates in place", "q1", "", true},
		{"new version creates", "", "q1", false},
		{"id with parent creates", "q1", "q0", false},
		{"new quote creates", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newManagerFixture(t)
			form := fx.Form()
			form.ID = tt.id
			form.ParentQuoteID = tt.parent

			saved := fx.Quote(testutil.WithID("saved"))
			if tt.wantUpdate {
				f.quotes.On("Update", mock.Anything, tt.id, form).Return(&saved, nil).Once()
			} else {
				f.quotes.On("Create", mock.Anything, form).Return(&saved, nil).Once()
			}
			f.quotes.On("List", mock.Anything).Return([]quote.Quote{saved}, nil).Once()

			got, err := f.manager.Save(context.Background(), form)
			require.NoError(t, err)
			assert.Equal(t, "saved", got.ID)
			assert.Len(t, f.manager.Snapshot(), 1)
			f.quotes.AssertExpectations(t)
		})
	}
}

func TestManager_SaveRejectsInvalidForm(t *testing.T) {
	f := newManagerFixture(t)

	form := quote.Form{
		Title:     "",
		LineItems: []quote.FormLineItem{{Description: "Bracket", Quantity: decimal.Zero, UnitPrice: decimal.NewFromInt(10)}},
	}

	_, err := f.manager.Save(context.Background(), form)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	fields := make([]string, 0, len(verr.Violations))
	for _, v := range verr.Violations {
		fields = append(fields, v.Field)
	}
	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "customerId")
	assert.Contains(t, fields, "lineItems[0].quantity")

	f.quotes.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.quotes.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestManager_SaveFailureLeavesState(t *testing.T) {
	fx := testutil.NewFixtures(8)
	f := newManagerFixture(t)

	form := fx.Form()
	f.quotes.On("Create", mock.Anything, form).Return(nil, &httpclient.APIError{StatusCode: 422, Message: "customer is archived"})

	_, err := f.manager.Save(context.Background(), form)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "customer is archived")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	f.quotes.AssertNotCalled(t, "List", mock.Anything)
}

func TestManager_Clone(t *testing.T) {
	fx := testutil.NewFixtures(9)
	original := fx.Quote(testutil.WithID("q1"), testutil.WithStatus(quote.StatusExpired))
	cloned := fx.Quote(testutil.WithID("q1-copy"))

	t.Run("declined confirmation makes no call", func(t *testing.T) {
		f := newManagerFixture(t, WithConfirmer(ContextConfirmer))
		f.quotes.On("List", mock.Anything).Return([]quote.Quote{original}, nil)

		_, err := f.manager.Clone(context.Background(), "q1")
		assert.ErrorIs(t, err, shared.ErrCancelled)
		f.quotes.AssertNotCalled(t, "Clone", mock.Anything, mock.Anything)
	})

	t.Run("confirmed clone refreshes", func(t *testing.T) {
		f := newManagerFixture(t, WithConfirmer(ContextConfirmer))
		f.quotes.On("List", mock.Anything).Return([]quote.Quote{original}, nil).Once()
		f.quotes.On("Clone", mock.Anything, "q1").Return(&cloned, nil).Once()
		f.quotes.On("List", mock.Anything).Return([]quote.Quote{original, cloned}, nil).Once()

		ctx := WithConfirmation(context.Background(), true)
		got, err := f.manager.Clone(ctx, "q1")
		require.NoError(t, err)
		assert.Equal(t, "q1-copy", got.ID)
		assert.Len(t, f.manager.Snapshot(), 2)
	})

	t.Run("failure surfaces the server message", func(t *testing.T) {
		f := newManagerFixture(t)
		f.quotes.On("List", mock.Anything).Return([]quote.Quote{original}, nil).Once()
		f.quotes.On("Clone", mock.Anything, "q1").Return(nil, &httpclient.APIError{StatusCode: 500, Message: "clone failed upstream"})

		_, err := f.manager.Clone(context.Background(), "q1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "clone failed upstream")

		snapshot := f.manager.Snapshot()
		require.Len(t, snapshot, 1)
		assert.Equal(t, original.Status, snapshot[0].Status)
		f.quotes.AssertNumberOfCalls(t, "List", 1)
	})

	t.Run("confirmer error", func(t *testing.T) {
		f := newManagerFixture(t, WithConfirmer(ConfirmFunc(func(context.Context, Prompt) (bool, error) {
			return false, errors.New("no terminal")
		})))
		f.quotes.On("List", mock.Anything).Return([]quote.Quote{original}, nil)

		_, err := f.manager.Clone(context.Background(), "q1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no terminal")
		assert.NotErrorIs(t, err, shared.ErrCancelled)
	})
}

func TestManager_CreateJob(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		f := newManagerFixture(t)
		_, err := f.manager.CreateJob(context.Background(), job.Draft{OrderID: "o-1"})
		assert.Error(t, err)
	})

	t.Run("requires an order", func(t *testing.T) {
		jobs := new(MockJobGateway)
		f := newManagerFixture(t, WithJobGateway(jobs))

		_, err := f.manager.CreateJob(context.Background(), job.Draft{Title: "No order"})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
		jobs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("creates the job", func(t *testing.T) {
		jobs := new(MockJobGateway)
		f := newManagerFixture(t, WithJobGateway(jobs))

		draft := job.Draft{OrderID: "o-1", QuoteID: "q1", Title: "Frame assembly"}
		jobs.On("Create", mock.Anything, draft).Return(&job.Job{ID: "j-1", OrderID: "o-1"}, nil)

		created, err := f.manager.CreateJob(context.Background(), draft)
		require.NoError(t, err)
		assert.Equal(t, "j-1", created.ID)
	})
}
