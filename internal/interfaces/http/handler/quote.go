package handler

import (
	"context"
	"fmt"
	"net/http"
	"path"

	quoteapp "github.com/erp/quotedesk/internal/application/quote"
	"github.com/erp/quotedesk/internal/domain/quote"
	"github.com/erp/quotedesk/internal/infrastructure/printing"
	"github.com/erp/quotedesk/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// QuoteService is the lifecycle surface used by the quote endpoints
type QuoteService interface {
	Refresh(ctx context.Context) ([]quote.Quote, error)
	List(ctx context.Context, f quote.Filter) ([]quote.Quote, error)
	Get(ctx context.Context, id string) (*quote.Quote, error)
	AllowedActions(ctx context.Context, id string) ([]quote.Action, error)
	Edit(ctx context.Context, id string) (*quote.Form, error)
	NewVersion(ctx context.Context, id, reason string) (*quote.Form, error)
	Save(ctx context.Context, form quote.Form) (*quote.Quote, error)
	Clone(ctx context.Context, id string) (*quote.Quote, error)
	Convert(ctx context.Context, id string) (*quoteapp.ConversionResult, error)
	LocalOrders(ctx context.Context) ([]quote.FallbackOrder, error)
}

// DocumentRenderer produces PDF documents
type DocumentRenderer interface {
	RenderQuote(ctx context.Context, q *quote.Quote) (*printing.Document, error)
	RenderFallbackOrder(ctx context.Context, o *quote.FallbackOrder) (*printing.Document, error)
}

// QuoteHandler serves the quote lifecycle endpoints
type QuoteHandler struct {
	BaseHandler
	quotes    QuoteService
	documents DocumentRenderer
}

// NewQuoteHandler creates a QuoteHandler. documents may be nil, which
// disables the document endpoints.
func NewQuoteHandler(quotes QuoteService, documents DocumentRenderer) *QuoteHandler {
	return &QuoteHandler{quotes: quotes, documents: documents}
}

// List returns the filtered, sorted quote list
//
//	GET /quotes?status=APPROVED&search=acme&latest=true
func (h *QuoteHandler) List(c *gin.Context) {
	var req dto.ListQuotesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "Invalid query: "+err.Error())
		return
	}

	quotes, err := h.quotes.List(c.Request.Context(), req.Filter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListResponse(dto.ToQuoteResponses(quotes)))
}

// Refresh reloads the list from the backend
func (h *QuoteHandler) Refresh(c *gin.Context) {
	quotes, err := h.quotes.Refresh(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListResponse(dto.ToQuoteResponses(quotes)))
}

// Get returns one quote
func (h *QuoteHandler) Get(c *gin.Context) {
	q, err := h.quotes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToQuoteResponse(q))
}

// Actions lists the operations the quote's status allows
func (h *QuoteHandler) Actions(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	q, err := h.quotes.Get(ctx, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	actions, err := h.quotes.AllowedActions(ctx, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if actions == nil {
		actions = []quote.Action{}
	}
	h.Success(c, dto.ActionsResponse{QuoteID: id, Status: string(q.Status), Actions: actions})
}

// Edit returns the editor form of a draft
func (h *QuoteHandler) Edit(c *gin.Context) {
	form, err := h.quotes.Edit(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, form)
}

// NewVersion returns a form that saves as a new version of the quote
func (h *QuoteHandler) NewVersion(c *gin.Context) {
	var req dto.NewVersionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, "Invalid request body: "+err.Error())
			return
		}
	}

	form, err := h.quotes.NewVersion(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, form)
}

// Save creates or updates a quote from a form
func (h *QuoteHandler) Save(c *gin.Context) {
	var form quote.Form
	if err := c.ShouldBindJSON(&form); err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, "Invalid request body: "+err.Error())
		return
	}

	saved, err := h.quotes.Save(c.Request.Context(), form)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if form.IsInPlaceEdit() {
		h.Success(c, dto.ToOptionalQuoteResponse(saved))
		return
	}
	h.Created(c, dto.ToOptionalQuoteResponse(saved))
}

// Clone copies a quote into a new draft. The body must confirm the action.
func (h *QuoteHandler) Clone(c *gin.Context) {
	ctx, ok := h.confirmed(c)
	if !ok {
		return
	}

	cloned, err := h.quotes.Clone(ctx, c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.ToOptionalQuoteResponse(cloned))
}

// Convert turns an approved quote into an order. The body must confirm the
// action. A fallback conversion still answers 201 with fallback=true.
func (h *QuoteHandler) Convert(c *gin.Context) {
	ctx, ok := h.confirmed(c)
	if !ok {
		return
	}

	result, err := h.quotes.Convert(ctx, c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.ToConversionResponse(result))
}

// Document renders the quote as PDF. ?format=json returns the stored
// document's metadata instead of the bytes.
func (h *QuoteHandler) Document(c *gin.Context) {
	if h.documents == nil {
		h.Error(c, http.StatusNotImplemented, dto.ErrCodeRenderFailed, "Document generation is not configured")
		return
	}
	ctx := c.Request.Context()

	q, err := h.quotes.Get(ctx, c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	doc, err := h.documents.RenderQuote(ctx, q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.sendDocument(c, doc)
}

// LocalOrders lists the orders stored only on this device
func (h *QuoteHandler) LocalOrders(c *gin.Context) {
	orders, err := h.quotes.LocalOrders(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListResponse(orders))
}

// LocalOrderDocument renders a locally stored order as PDF
func (h *QuoteHandler) LocalOrderDocument(c *gin.Context) {
	if h.documents == nil {
		h.Error(c, http.StatusNotImplemented, dto.ErrCodeRenderFailed, "Document generation is not configured")
		return
	}
	ctx := c.Request.Context()
	id := c.Param("id")

	orders, err := h.quotes.LocalOrders(ctx)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	for i := range orders {
		if orders[i].ID != id {
			continue
		}
		doc, err := h.documents.RenderFallbackOrder(ctx, &orders[i])
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.sendDocument(c, doc)
		return
	}
	h.NotFound(c, fmt.Sprintf("Local order %s not found", id))
}

// confirmed binds the confirmation body and carries it in the context
func (h *QuoteHandler) confirmed(c *gin.Context) (context.Context, bool) {
	var req dto.ConfirmRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, "Invalid request body: "+err.Error())
			return nil, false
		}
	}
	return quoteapp.WithConfirmation(c.Request.Context(), req.Confirm), true
}

func (h *QuoteHandler) sendDocument(c *gin.Context, doc *printing.Document) {
	if c.Query("format") == "json" {
		h.Success(c, dto.DocumentResponse{
			Key:       doc.Key,
			URL:       doc.URL,
			Size:      doc.Size,
			PageCount: doc.PageCount,
		})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", path.Base(doc.Key)))
	c.Data(http.StatusOK, "application/pdf", doc.PDF)
}
