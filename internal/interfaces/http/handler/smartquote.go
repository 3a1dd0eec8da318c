package handler

import (
	"context"
	"net/http"

	"github.com/erp/quotedesk/internal/application/smartquote"
	"github.com/erp/quotedesk/internal/domain/quote"
	"github.com/erp/quotedesk/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SmartQuoteHandler serves the suggestion panels of the quote editor.
// Every request builds its own Builder, so panel state never leaks between
// callers.
type SmartQuoteHandler struct {
	BaseHandler
	gateway smartquote.Gateway
	logger  *zap.Logger
}

// NewSmartQuoteHandler creates a SmartQuoteHandler
func NewSmartQuoteHandler(gateway smartquote.Gateway, logger *zap.Logger) *SmartQuoteHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SmartQuoteHandler{gateway: gateway, logger: logger}
}

// Panels lists the panel names in tab order
func (h *SmartQuoteHandler) Panels(c *gin.Context) {
	h.Success(c, smartquote.NewBuilder(h.gateway).Panels())
}

// Load loads one panel for the posted draft
//
//	POST /smart-quote/bundles {"customerId":"c-1","items":[...]}
func (h *SmartQuoteHandler) Load(c *gin.Context) {
	var req dto.SmartQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, "Invalid request body: "+err.Error())
		return
	}

	_, proposals, err := h.load(c.Request.Context(), c.Param("panel"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if proposals == nil {
		proposals = []smartquote.Proposal{}
	}
	h.Success(c, dto.PanelResponse{Panel: c.Param("panel"), Proposals: proposals})
}

// Select loads the panel and returns the line items of one proposal in
// editor form
func (h *SmartQuoteHandler) Select(c *gin.Context) {
	var req dto.SmartQuoteSelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, "Invalid request body: "+err.Error())
		return
	}

	builder, _, err := h.load(c.Request.Context(), c.Param("panel"), req.Draft)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	items, err := builder.Select(*req.Index)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	var form quote.Form
	form.AppendItems(items...)
	if form.LineItems == nil {
		form.LineItems = []quote.FormLineItem{}
	}
	h.Success(c, dto.SelectResponse{Panel: c.Param("panel"), Items: form.LineItems})
}

func (h *SmartQuoteHandler) load(ctx context.Context, panel string, req dto.SmartQuoteRequest) (*smartquote.Builder, []smartquote.Proposal, error) {
	builder := smartquote.NewBuilder(h.gateway, smartquote.WithLogger(h.logger))
	tab, err := builder.TabByName(panel)
	if err != nil {
		return nil, nil, err
	}
	if err := builder.SetTab(tab); err != nil {
		return nil, nil, err
	}
	proposals, err := builder.LoadActive(ctx, req.Input())
	if err != nil {
		return nil, nil, err
	}
	return builder, proposals, nil
}
