package quote

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/erp/quotedesk/internal/domain/quote"
	"github.com/erp/quotedesk/internal/domain/shared"
	"github.com/erp/quotedesk/internal/infrastructure/httpclient"
	"github.com/erp/quotedesk/internal/infrastructure/telemetry"
	"github.com/erp/quotedesk/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func approvedQuote(fx *testutil.Fixtures, id string) quote.Quote {
	return fx.Quote(testutil.WithID(id), testutil.WithStatus(quote.StatusApproved))
}

func TestConvert_RequiresApprovedStatus(t *testing.T) {
	fx := testutil.NewFixtures(20)

	for _, status := range []quote.Status{
		quote.StatusDraft, quote.StatusSent, quote.StatusPending,
		quote.StatusDeclined, quote.StatusExpired, quote.StatusConverted,
	} {
		t.Run(string(status), func(t *testing.T) {
			asked := false
			f := newManagerFixture(t, WithConfirmer(ConfirmFunc(func(context.Context, Prompt) (bool, error) {
				asked = true
				return true, nil
			})))
			q := fx.Quote(testutil.WithID("q1"), testutil.WithStatus(status))
			f.quotes.On("List", mock.Anything).Return([]quote.Quote{q}, nil)

			result, err := f.manager.Convert(context.Background(), "q1")
			assert.Nil(t, result)
			assert.ErrorIs(t, err, shared.ErrInvalidState)
			assert.Contains(t, err.Error(), status.Label())
			assert.False(t, asked, "confirmation must not be requested")
			f.orders.AssertNotCalled(t, "FromQuote", mock.Anything, mock.Anything)

			claimed, _ := f.claims.IsClaimed(context.Background(), ConvertClaimKey("q1"))
			assert.False(t, claimed)
		})
	}
}

func TestConvert_DeclinedConfirmation(t *testing.T) {
	fx := testutil.NewFixtures(21)
	f := newManagerFixture(t, WithConfirmer(ContextConfirmer))
	f.quotes.On("List", mock.Anything).Return([]quote.Quote{approvedQuote(fx, "q1")}, nil)

	ctx := WithConfirmation(context.Background(), false)
	_, err := f.manager.Convert(ctx, "q1")
	assert.ErrorIs(t, err, shared.ErrCancelled)
	f.orders.AssertNotCalled(t, "FromQuote", mock.Anything, mock.Anything)

	claimed, _ := f.claims.IsClaimed(context.Background(), ConvertClaimKey("q1"))
	assert.False(t, claimed)
}

func TestConvert_RemoteSuccess(t *testing.T) {
	fx := testutil.NewFixtures(22)
	f := newManagerFixture(t)

	q := approvedQuote(fx, "q1")
	converted := q.Copy()
	converted.MarkConverted("o-77")

	f.quotes.On("List", mock.Anything).Return([]quote.Quote{q}, nil).Once()
	f.orders.On("FromQuote", mock.Anything, "q1").
		Return(quote.OrderRef{ID: "o-77", Raw: json.RawMessage(`{"order":{"id":"o-77"}}`)}, nil)
	f.quotes.On("List", mock.Anything).Return([]quote.Quote{converted}, nil).Once()

	result, err := f.manager.Convert(context.Background(), "q1")
	require.NoError(t, err)

	assert.Equal(t, "o-77", result.OrderID)
	assert.False(t, result.Fallback)
	assert.Nil(t, result.Order)
	assert.NoError(t, result.RemoteErr)
	require.NotNil(t, result.Quote)
	assert.Equal(t, quote.StatusConverted, result.Quote.Status)
	require.NotNil(t, result.JobDraft)
	assert.Equal(t, "o-77", result.JobDraft.OrderID)
	assert.Equal(t, "q1", result.JobDraft.QuoteID)
	assert.Equal(t, q.CustomerID, result.JobDraft.CustomerID)

	orders, err := f.repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, orders)

	assert.Equal(t, float64(1), conversionCount(t, f.metrics, telemetry.ConversionRemote))
	assert.Equal(t, float64(0), conversionCount(t, f.metrics, telemetry.ConversionFallback))
}

func TestConvert_RemoteSuccessWithoutOrderID(t *testing.T) {
	fx := testutil.NewFixtures(23)
	f := newManagerFixture(t)

	q := approvedQuote(fx, "q1")
	f.quotes.On("List", mock.Anything).Return([]quote.Quote{q}, nil)
	f.orders.On("FromQuote", mock.Anything, "q1").Return(quote.OrderRef{Raw: json.RawMessage(`{"success":true}`)}, nil)

	result, err := f.manager.Convert(context.Background(), "q1")
	require.NoError(t, err)
	assert.Empty(t, result.OrderID)
	assert.False(t, result.Fallback)
	assert.Nil(t, result.JobDraft)
	assert.Contains(t, result.Message, "did not return an order ID")
}

func TestConvert_FallbackOnRemoteFailure(t *testing.T) {
	fx := testutil.NewFixtures(24)

	failures := map[string]error{
		"server error": &httpclient.APIError{StatusCode: 500, Message: "boom"},
		"not found":    &httpclient.APIError{StatusCode: 404},
		"transport":    errors.New("dial tcp: connection refused"),
	}

	for name, remoteErr := range failures {
		t.Run(name, func(t *testing.T) {
			f := newManagerFixture(t)

			q := approvedQuote(fx, "q1")
			q.TotalAmount = decimal.RequireFromString("4821.37")
			f.quotes.On("List", mock.Anything).Return([]quote.Quote{q}, nil)
			f.orders.On("FromQuote", mock.Anything, "q1").Return(quote.OrderRef{}, remoteErr)

			result, err := f.manager.Convert(context.Background(), "q1")
			require.NoError(t, err)

			assert.True(t, result.Fallback)
			assert.Regexp(t, `^mock-order-1773135000000-[0-9a-f]{8}$`, result.OrderID)
			assert.Equal(t, remoteErr, result.RemoteErr)
			assert.Contains(t, result.Message, "this device only")

			require.NotNil(t, result.Order)
			assert.True(t, result.Order.ProjectValue.Equal(q.TotalAmount))
			assert.True(t, result.Order.Value.Equal(q.TotalAmount))
			assert.Len(t, result.Order.Items, len(q.LineItems))
			assert.Equal(t, quote.FallbackOrderStatus, result.Order.Status)

			stored, err := f.repo.Get(context.Background(), result.OrderID)
			require.NoError(t, err)
			assert.Equal(t, "q1", stored.QuoteID)

			require.NotNil(t, result.Quote)
			assert.Equal(t, quote.StatusConverted, result.Quote.Status)
			assert.Equal(t, result.OrderID, result.Quote.OrderID)

			local, err := f.manager.Get(context.Background(), "q1")
			require.NoError(t, err)
			assert.Equal(t, quote.StatusConverted, local.Status)

			require.NotNil(t, result.JobDraft)
			assert.Equal(t, result.OrderID, result.JobDraft.OrderID)

			assert.Equal(t, float64(1), conversionCount(t, f.metrics, telemetry.ConversionFallback))
			f.quotes.AssertNumberOfCalls(t, "List", 1)
		})
	}
}

func TestConvert_FallbacksInSameMillisecondAreKept(t *testing.T) {
	fx := testutil.NewFixtures(31)
	f := newManagerFixture(t)

	q1 := approvedQuote(fx, "q1")
	q2 := approvedQuote(fx, "q2")
	f.quotes.On("List", mock.Anything).Return([]quote.Quote{q1, q2}, nil)
	f.orders.On("FromQuote", mock.Anything, mock.Anything).Return(quote.OrderRef{}, errors.New("timeout"))

	first, err := f.manager.Convert(context.Background(), "q1")
	require.NoError(t, err)
	second, err := f.manager.Convert(context.Background(), "q2")
	require.NoError(t, err)
	assert.NotEqual(t, first.OrderID, second.OrderID)

	orders, err := f.repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 2)
	quoteIDs := []string{orders[0].QuoteID, orders[1].QuoteID}
	assert.ElementsMatch(t, []string{"q1", "q2"}, quoteIDs)
}

func TestConvert_FallbackSurvivesRefresh(t *testing.T) {
	fx := testutil.NewFixtures(25)
	f := newManagerFixture(t)

	q := approvedQuote(fx, "q1")
	f.quotes.On("List", mock.Anything).Return([]quote.Quote{q}, nil)
	f.orders.On("FromQuote", mock.Anything, "q1").Return(quote.OrderRef{}, errors.New("timeout"))

	result, err := f.manager.Convert(context.Background(), "q1")
	require.NoError(t, err)

	quotes, err := f.manager.Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, quote.StatusConverted, quotes[0].Status)
	assert.Equal(t, result.OrderID, quotes[0].OrderID)
}

func TestConvert_CancelledContextSkipsFallback(t *testing.T) {
	fx := testutil.NewFixtures(26)
	f := newManagerFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f.quotes.On("List", mock.Anything).Return([]quote.Quote{approvedQuote(fx, "q1")}, nil)
	f.orders.On("FromQuote", mock.Anything, "q1").Run(func(mock.Arguments) {
		cancel()
	}).Return(quote.OrderRef{}, context.Canceled)

	result, err := f.manager.Convert(ctx, "q1")
	assert.Nil(t, result)
	assert.ErrorIs(t, err, context.Canceled)

	orders, err := f.repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, orders)

	claimed, _ := f.claims.IsClaimed(context.Background(), ConvertClaimKey("q1"))
	assert.False(t, claimed, "claim must be released")

	local := f.manager.Snapshot()
	assert.Equal(t, quote.StatusApproved, local[0].Status)
	assert.Equal(t, float64(1), conversionCount(t, f.metrics, telemetry.ConversionFailed))
}

func TestConvert_RepositoryFailure(t *testing.T) {
	fx := testutil.NewFixtures(27)
	f := newManagerFixture(t)

	repo := new(MockOrderRepository)
	repo.On("List", mock.Anything).Return([]quote.FallbackOrder{}, nil)
	repo.On("Put", mock.Anything, mock.AnythingOfType("quote.FallbackOrder")).Return(errors.New("disk full"))
	f.manager.repo = repo

	f.quotes.On("List", mock.Anything).Return([]quote.Quote{approvedQuote(fx, "q1")}, nil)
	f.orders.On("FromQuote", mock.Anything, "q1").Return(quote.OrderRef{}, errors.New("offline"))

	result, err := f.manager.Convert(context.Background(), "q1")
	assert.Nil(t, result)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	claimed, _ := f.claims.IsClaimed(context.Background(), ConvertClaimKey("q1"))
	assert.False(t, claimed)
	assert.Equal(t, quote.StatusApproved, f.manager.Snapshot()[0].Status)
}

func TestConvert_RepeatedConversionConflicts(t *testing.T) {
	fx := testutil.NewFixtures(28)
	f := newManagerFixture(t)

	q := approvedQuote(fx, "q1")
	f.quotes.On("List", mock.Anything).Return([]quote.Quote{q}, nil)
	f.orders.On("FromQuote", mock.Anything, "q1").Return(quote.OrderRef{ID: "o-1"}, nil).Once()

	_, err := f.manager.Convert(context.Background(), "q1")
	require.NoError(t, err)

	_, err = f.manager.Convert(context.Background(), "q1")
	assert.ErrorIs(t, err, shared.ErrConflict)
	f.orders.AssertNumberOfCalls(t, "FromQuote", 1)
}

func TestConvert_ConcurrentConversionConflicts(t *testing.T) {
	fx := testutil.NewFixtures(29)
	f := newManagerFixture(t)

	q := approvedQuote(fx, "q1")
	f.quotes.On("List", mock.Anything).Return([]quote.Quote{q}, nil)

	inFlight := make(chan struct{})
	release := make(chan struct{})
	f.orders.On("FromQuote", mock.Anything, "q1").Run(func(mock.Arguments) {
		close(inFlight)
		<-release
	}).Return(quote.OrderRef{ID: "o-1"}, nil).Once()

	_, err := f.manager.Refresh(context.Background())
	require.NoError(t, err)

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = f.manager.Convert(context.Background(), "q1")
	}()

	<-inFlight
	_, err = f.manager.Convert(context.Background(), "q1")
	assert.ErrorIs(t, err, shared.ErrConflict)

	close(release)
	wg.Wait()
	assert.NoError(t, firstErr)
}

func TestConvert_WithoutIdempotencyStore(t *testing.T) {
	fx := testutil.NewFixtures(30)
	f := newManagerFixture(t)
	f.manager.claims = nil

	q := approvedQuote(fx, "q1")
	f.quotes.On("List", mock.Anything).Return([]quote.Quote{q}, nil)
	f.orders.On("FromQuote", mock.Anything, "q1").Return(quote.OrderRef{ID: "o-1"}, nil)

	_, err := f.manager.Convert(context.Background(), "q1")
	require.NoError(t, err)
	_, err = f.manager.Convert(context.Background(), "q1")
	require.NoError(t, err)
	f.orders.AssertNumberOfCalls(t, "FromQuote", 2)
}
