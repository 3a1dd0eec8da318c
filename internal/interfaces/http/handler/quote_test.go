package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	quoteapp "github.com/erp/quotedesk/internal/application/quote"
	"github.com/erp/quotedesk/internal/domain/job"
	"github.com/erp/quotedesk/internal/domain/quote"
	"github.com/erp/quotedesk/internal/domain/shared"
	"github.com/erp/quotedesk/internal/infrastructure/httpclient"
	"github.com/erp/quotedesk/internal/infrastructure/printing"
	"github.com/erp/quotedesk/internal/interfaces/http/dto"
	"github.com/erp/quotedesk/internal/interfaces/http/middleware"
	"github.com/erp/quotedesk/internal/interfaces/http/router"
	"github.com/erp/quotedesk/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type quoteFixture struct {
	engine    *gin.Engine
	service   *MockQuoteService
	documents *MockDocumentRenderer
	fx        *testutil.Fixtures
}

func newQuoteFixture(t *testing.T) *quoteFixture {
	t.Helper()
	f := &quoteFixture{
		engine:    gin.New(),
		service:   new(MockQuoteService),
		documents: new(MockDocumentRenderer),
		fx:        testutil.NewFixtures(21),
	}
	f.engine.Use(middleware.RequestID())

	h := NewQuoteHandler(f.service, f.documents)
	router.NewRouter(f.engine).
		Register(QuoteRoutes(h)).
		Register(LocalOrderRoutes(h)).
		Setup()
	return f
}

func (f *quoteFixture) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

var confirmedCtx = mock.MatchedBy(func(ctx context.Context) bool {
	ok, _ := quoteapp.ContextConfirmer.Confirm(ctx, quoteapp.Prompt{})
	return ok
})

var unconfirmedCtx = mock.MatchedBy(func(ctx context.Context) bool {
	ok, _ := quoteapp.ContextConfirmer.Confirm(ctx, quoteapp.Prompt{})
	return !ok
})

func TestQuoteHandler_List(t *testing.T) {
	f := newQuoteFixture(t)
	quotes := f.fx.Quotes(3, testutil.WithStatus(quote.StatusApproved))

	f.service.On("List", mock.Anything, quote.Filter{
		Status: quote.StatusApproved, Search: "acme", LatestOnly: true,
	}).Return(quotes, nil).Once()

	w := f.do(http.MethodGet, "/api/v1/quotes?status=APPROVED&search=acme&latest=true", nil)
	require.Equal(t, http.StatusOK, w.Code)

	env := decode(t, w)
	assert.True(t, env.Success)
	assert.Equal(t, 3, env.Meta.Total)

	var items []dto.QuoteResponse
	require.NoError(t, json.Unmarshal(env.Data, &items))
	require.Len(t, items, 3)
	assert.Equal(t, quotes[0].ID, items[0].ID)
	assert.Equal(t, "Approved", items[0].StatusLabel)
	assert.Equal(t, []quote.Action{quote.ActionConvert, quote.ActionClone, quote.ActionView, quote.ActionRender}, items[0].Actions)
	f.service.AssertExpectations(t)
}

func TestQuoteHandler_ListEmpty(t *testing.T) {
	f := newQuoteFixture(t)
	f.service.On("List", mock.Anything, quote.Filter{}).Return([]quote.Quote(nil), nil).Once()

	w := f.do(http.MethodGet, "/api/v1/quotes", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":[],"meta":{"total":0}}`, w.Body.String())
}

func TestQuoteHandler_ListUpstreamFailure(t *testing.T) {
	f := newQuoteFixture(t)
	upstream := &httpclient.APIError{StatusCode: http.StatusInternalServerError, Message: "database unavailable"}
	f.service.On("List", mock.Anything, mock.Anything).
		Return(nil, errors.Join(errors.New("failed to load quotes"), upstream)).Once()

	w := f.do(http.MethodGet, "/api/v1/quotes", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	env := decode(t, w)
	assert.Equal(t, dto.ErrCodeUpstream, env.Error.Code)
	assert.Equal(t, "database unavailable", env.Error.Message)
	assert.NotEmpty(t, env.Error.RequestID)
}

func TestQuoteHandler_Refresh(t *testing.T) {
	f := newQuoteFixture(t)
	f.service.On("Refresh", mock.Anything).Return(f.fx.Quotes(2), nil).Once()

	w := f.do(http.MethodPost, "/api/v1/quotes/refresh", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decode(t, w).Meta.Total)
}

func TestQuoteHandler_GetNotFound(t *testing.T) {
	f := newQuoteFixture(t)
	f.service.On("Get", mock.Anything, "missing").
		Return(nil, shared.NewDomainError("NOT_FOUND", "Quote missing not found")).Once()

	w := f.do(http.MethodGet, "/api/v1/quotes/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	env := decode(t, w)
	assert.Equal(t, dto.ErrCodeNotFound, env.Error.Code)
	assert.Equal(t, "Quote missing not found", env.Error.Message)
}

func TestQuoteHandler_Actions(t *testing.T) {
	f := newQuoteFixture(t)
	q := f.fx.Quote(testutil.WithID("q-1"))
	f.service.On("Get", mock.Anything, "q-1").Return(&q, nil).Once()
	f.service.On("AllowedActions", mock.Anything, "q-1").Return(quote.AllowedActions(q.Status), nil).Once()

	w := f.do(http.MethodGet, "/api/v1/quotes/q-1/actions", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.ActionsResponse
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &resp))
	assert.Equal(t, "DRAFT", resp.Status)
	assert.Contains(t, resp.Actions, quote.ActionEdit)
	assert.NotContains(t, resp.Actions, quote.ActionConvert)
}

func TestQuoteHandler_EditInvalidState(t *testing.T) {
	f := newQuoteFixture(t)
	f.service.On("Edit", mock.Anything, "q-2").
		Return(nil, shared.NewDomainError("INVALID_STATE", "Cannot edit a quote in status Approved")).Once()

	w := f.do(http.MethodGet, "/api/v1/quotes/q-2/edit", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidState, decode(t, w).Error.Code)
}

func TestQuoteHandler_NewVersion(t *testing.T) {
	f := newQuoteFixture(t)
	form := &quote.Form{ParentQuoteID: "q-1", Title: "Frame", ChangeReason: "price update"}
	f.service.On("NewVersion", mock.Anything, "q-1", "price update").Return(form, nil).Once()

	w := f.do(http.MethodPost, "/api/v1/quotes/q-1/versions", dto.NewVersionRequest{Reason: "price update"})
	require.Equal(t, http.StatusOK, w.Code)

	var got quote.Form
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &got))
	assert.Equal(t, "q-1", got.ParentQuoteID)
	assert.Equal(t, "price update", got.ChangeReason)
}

func TestQuoteHandler_Save(t *testing.T) {
	tests := []struct {
		name   string
		form   quote.Form
		status int
	}{
		{"new quote is created", quote.Form{Title: "New", CustomerID: "c-1"}, http.StatusCreated},
		{"draft edit is updated", quote.Form{ID: "q-1", Title: "Edit", CustomerID: "c-1"}, http.StatusOK},
		{"new version is created", quote.Form{ID: "", ParentQuoteID: "q-1", Title: "V2", CustomerID: "c-1"}, http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newQuoteFixture(t)
			saved := f.fx.Quote()
			f.service.On("Save", mock.Anything, mock.MatchedBy(func(form quote.Form) bool {
				return form.Title == tt.form.Title && form.ID == tt.form.ID
			})).Return(&saved, nil).Once()

			w := f.do(http.MethodPost, "/api/v1/quotes", tt.form)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestQuoteHandler_SaveValidationError(t *testing.T) {
	f := newQuoteFixture(t)
	f.service.On("Save", mock.Anything, mock.Anything).Return(nil, &quoteapp.ValidationError{
		Violations: []quoteapp.FieldViolation{
			{Field: "title", Message: "is required"},
			{Field: "lineItems[0].quantity", Message: "must be greater than 0"},
		},
	}).Once()

	w := f.do(http.MethodPost, "/api/v1/quotes", quote.Form{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	env := decode(t, w)
	assert.Equal(t, dto.ErrCodeValidation, env.Error.Code)
	require.Len(t, env.Error.Details, 2)
	assert.Equal(t, "lineItems[0].quantity", env.Error.Details[1].Field)
}

func TestQuoteHandler_SaveBadJSON(t *testing.T) {
	f := newQuoteFixture(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/quotes", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidJSON, decode(t, w).Error.Code)
	f.service.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestQuoteHandler_CloneRequiresConfirmation(t *testing.T) {
	f := newQuoteFixture(t)
	f.service.On("Clone", unconfirmedCtx, "q-1").Return(nil, shared.ErrCancelled).Once()

	w := f.do(http.MethodPost, "/api/v1/quotes/q-1/clone", nil)
	assert.Equal(t, http.StatusPreconditionRequired, w.Code)
	assert.Equal(t, dto.ErrCodeNotConfirmed, decode(t, w).Error.Code)
	f.service.AssertExpectations(t)
}

func TestQuoteHandler_CloneConfirmed(t *testing.T) {
	f := newQuoteFixture(t)
	cloned := f.fx.Quote(testutil.WithID("q-9"))
	f.service.On("Clone", confirmedCtx, "q-1").Return(&cloned, nil).Once()

	w := f.do(http.MethodPost, "/api/v1/quotes/q-1/clone", dto.ConfirmRequest{Confirm: true})
	require.Equal(t, http.StatusCreated, w.Code)

	var got dto.QuoteResponse
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &got))
	assert.Equal(t, "q-9", got.ID)
}

func TestQuoteHandler_WriteWithoutEchoedQuote(t *testing.T) {
	t.Run("save", func(t *testing.T) {
		f := newQuoteFixture(t)
		f.service.On("Save", mock.Anything, mock.Anything).Return(nil, nil).Once()

		w := f.do(http.MethodPost, "/api/v1/quotes", quote.Form{Title: "New", CustomerID: "c-1"})
		require.Equal(t, http.StatusCreated, w.Code)
		env := decode(t, w)
		assert.True(t, env.Success)
		assert.JSONEq(t, "null", string(env.Data))
	})

	t.Run("in-place edit", func(t *testing.T) {
		f := newQuoteFixture(t)
		f.service.On("Save", mock.Anything, mock.Anything).Return(nil, nil).Once()

		w := f.do(http.MethodPost, "/api/v1/quotes", quote.Form{ID: "q-1", Title: "Edit", CustomerID: "c-1"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, "null", string(decode(t, w).Data))
	})

	t.Run("clone", func(t *testing.T) {
		f := newQuoteFixture(t)
		f.service.On("Clone", confirmedCtx, "q-1").Return(nil, nil).Once()

		w := f.do(http.MethodPost, "/api/v1/quotes/q-1/clone", dto.ConfirmRequest{Confirm: true})
		require.Equal(t, http.StatusCreated, w.Code)
		env := decode(t, w)
		assert.True(t, env.Success)
		assert.JSONEq(t, "null", string(env.Data))
	})
}

func TestQuoteHandler_ConvertRemote(t *testing.T) {
	f := newQuoteFixture(t)
	converted := f.fx.Quote(testutil.WithID("q-1"), testutil.WithStatus(quote.StatusConverted))
	converted.OrderID = "ord-7"
	f.service.On("Convert", confirmedCtx, "q-1").Return(&quoteapp.ConversionResult{
		OrderID:  "ord-7",
		Quote:    &converted,
		JobDraft: &job.Draft{OrderID: "ord-7", QuoteID: "q-1"},
		Message:  "Quote converted to order ord-7",
	}, nil).Once()

	w := f.do(http.MethodPost, "/api/v1/quotes/q-1/convert", dto.ConfirmRequest{Confirm: true})
	require.Equal(t, http.StatusCreated, w.Code)

	var got dto.ConversionResponse
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &got))
	assert.Equal(t, "ord-7", got.OrderID)
	assert.False(t, got.Fallback)
	assert.Equal(t, "CONVERTED", got.Quote.Status)
	assert.Equal(t, "ord-7", got.JobDraft.OrderID)
	assert.Nil(t, got.Order)
}

func TestQuoteHandler_ConvertFallback(t *testing.T) {
	f := newQuoteFixture(t)
	q := f.fx.Quote(testutil.WithID("q-1"), testutil.WithStatus(quote.StatusApproved))
	order := quote.NewFallbackOrder(q, quote.DefaultFallbackDefaults(), q.CreatedAt)
	f.service.On("Convert", confirmedCtx, "q-1").Return(&quoteapp.ConversionResult{
		OrderID:  order.ID,
		Fallback: true,
		Order:    &order,
		Message:  "Order " + order.ID + " was created on this device only and has not been synced to the server.",
	}, nil).Once()

	w := f.do(http.MethodPost, "/api/v1/quotes/q-1/convert", dto.ConfirmRequest{Confirm: true})
	require.Equal(t, http.StatusCreated, w.Code)

	var got dto.ConversionResponse
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &got))
	assert.True(t, got.Fallback)
	require.NotNil(t, got.Order)
	assert.Equal(t, quote.FallbackOrderStatus, got.Order.Status)
	assert.Contains(t, got.Message, "not been synced")
}

func TestQuoteHandler_ConvertErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"wrong status", shared.NewDomainError("INVALID_STATE", "Only approved quotes can be converted"), http.StatusUnprocessableEntity, dto.ErrCodeInvalidState},
		{"already converting", shared.NewDomainError("CONFLICT", "Quote q-1 is already being converted"), http.StatusConflict, dto.ErrCodeConflict},
		{"backend rejected token", &httpclient.APIError{StatusCode: http.StatusUnauthorized, Message: "token expired"}, http.StatusUnauthorized, dto.ErrCodeUnauthorized},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, dto.ErrCodeUpstream},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newQuoteFixture(t)
			f.service.On("Convert", mock.Anything, "q-1").Return(nil, tt.err).Once()

			w := f.do(http.MethodPost, "/api/v1/quotes/q-1/convert", dto.ConfirmRequest{Confirm: true})
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decode(t, w).Error.Code)
		})
	}
}

func TestQuoteHandler_Document(t *testing.T) {
	f := newQuoteFixture(t)
	q := f.fx.Quote(testutil.WithID("q-1"))
	doc := &printing.Document{Key: "quotes/Q-00001-v1.pdf", URL: "file:///tmp/x.pdf", Size: 4, PageCount: 1, PDF: []byte("%PDF")}
	f.service.On("Get", mock.Anything, "q-1").Return(&q, nil)
	f.documents.On("RenderQuote", mock.Anything, &q).Return(doc, nil)

	w := f.do(http.MethodGet, "/api/v1/quotes/q-1/document", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `inline; filename="Q-00001-v1.pdf"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF", w.Body.String())

	w = f.do(http.MethodGet, "/api/v1/quotes/q-1/document?format=json", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var meta dto.DocumentResponse
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &meta))
	assert.Equal(t, "quotes/Q-00001-v1.pdf", meta.Key)
	assert.Equal(t, 1, meta.PageCount)
}

func TestQuoteHandler_DocumentRenderTimeout(t *testing.T) {
	f := newQuoteFixture(t)
	q := f.fx.Quote(testutil.WithID("q-1"))
	f.service.On("Get", mock.Anything, "q-1").Return(&q, nil)
	f.documents.On("RenderQuote", mock.Anything, &q).
		Return(nil, printing.NewRenderError(printing.ErrCodeRenderTimeout, "PDF rendering timed out after 30s", nil))

	w := f.do(http.MethodGet, "/api/v1/quotes/q-1/document", nil)
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Equal(t, dto.ErrCodeRenderTimeout, decode(t, w).Error.Code)
}

func TestQuoteHandler_DocumentDisabled(t *testing.T) {
	engine := gin.New()
	h := NewQuoteHandler(new(MockQuoteService), nil)
	router.NewRouter(engine).Register(QuoteRoutes(h)).Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/quotes/q-1/document", nil))
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestQuoteHandler_LocalOrders(t *testing.T) {
	f := newQuoteFixture(t)
	q := f.fx.Quote(testutil.WithStatus(quote.StatusApproved))
	order := quote.NewFallbackOrder(q, quote.DefaultFallbackDefaults(), q.CreatedAt)
	f.service.On("LocalOrders", mock.Anything).Return([]quote.FallbackOrder{order}, nil)
	f.documents.On("RenderFallbackOrder", mock.Anything, mock.MatchedBy(func(o *quote.FallbackOrder) bool {
		return o.ID == order.ID
	})).Return(&printing.Document{Key: "orders/" + order.ID + ".pdf", PDF: []byte("%PDF")}, nil)

	w := f.do(http.MethodGet, "/api/v1/local-orders", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var orders []quote.FallbackOrder
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &orders))
	require.Len(t, orders, 1)
	assert.Equal(t, order.ID, orders[0].ID)
	assert.True(t, order.ProjectValue.Equal(orders[0].ProjectValue))

	w = f.do(http.MethodGet, "/api/v1/local-orders/"+order.ID+"/document", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodGet, "/api/v1/local-orders/unknown/document", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
