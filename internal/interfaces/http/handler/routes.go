package handler

import (
	"github.com/erp/quotedesk/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
)

// QuoteRoutes creates the route group of the quote lifecycle
func QuoteRoutes(h *QuoteHandler, mw ...gin.HandlerFunc) *router.DomainGroup {
	group := router.NewDomainGroup("quotes", "/quotes").Use(mw...)

	group.GET("", h.List)
	group.POST("", h.Save)
	group.POST("/refresh", h.Refresh)
	group.GET("/:id", h.Get)
	group.GET("/:id/actions", h.Actions)
	group.GET("/:id/edit", h.Edit)
	group.POST("/:id/versions", h.NewVersion)
	group.POST("/:id/clone", h.Clone)
	group.POST("/:id/convert", h.Convert)
	group.GET("/:id/document", h.Document)

	return group
}

// LocalOrderRoutes creates the route group of the locally stored orders
func LocalOrderRoutes(h *QuoteHandler, mw ...gin.HandlerFunc) *router.DomainGroup {
	group := router.NewDomainGroup("local-orders", "/local-orders").Use(mw...)

	group.GET("", h.LocalOrders)
	group.GET("/:id/document", h.LocalOrderDocument)

	return group
}

// SmartQuoteRoutes creates the route group of the suggestion panels
func SmartQuoteRoutes(h *SmartQuoteHandler, mw ...gin.HandlerFunc) *router.DomainGroup {
	group := router.NewDomainGroup("smart-quote", "/smart-quote").Use(mw...)

	group.GET("", h.Panels)
	group.POST("/:panel", h.Load)
	group.POST("/:panel/select", h.Select)

	return group
}
