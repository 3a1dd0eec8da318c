// Package handler implements the BFF HTTP handlers.
package handler

import (
	"context"
	"errors"
	"net/http"

	quoteapp "github.com/erp/quotedesk/internal/application/quote"
	"github.com/erp/quotedesk/internal/domain/shared"
	"github.com/erp/quotedesk/internal/infrastructure/httpclient"
	"github.com/erp/quotedesk/internal/infrastructure/logger"
	"github.com/erp/quotedesk/internal/infrastructure/printing"
	"github.com/erp/quotedesk/internal/interfaces/http/dto"
	"github.com/erp/quotedesk/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BaseHandler provides common response helpers
type BaseHandler struct{}

// Success sends a 200 response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response with an explicit status
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// InternalError sends a 500 response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// ValidationError sends a 400 response listing the invalid fields
func (h *BaseHandler) ValidationError(c *gin.Context, violations []quoteapp.FieldViolation) {
	details := make([]dto.ValidationDetail, 0, len(violations))
	for _, v := range violations {
		details = append(details, dto.ValidationDetail{Field: v.Field, Message: v.Message})
	}
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
		"Request validation failed", middleware.GetRequestID(c), details))
}

// HandleError maps application errors onto API responses
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID := middleware.GetRequestID(c)

	var validationErr *quoteapp.ValidationError
	if errors.As(err, &validationErr) {
		h.ValidationError(c, validationErr.Violations)
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		c.JSON(dto.GetHTTPStatus(code), dto.NewErrorResponseWithRequestID(code, domainErr.Message, requestID))
		return
	}

	var renderErr *printing.RenderError
	if errors.As(err, &renderErr) {
		code := dto.NormalizeErrorCode(renderErr.Code)
		if _, ok := dto.ErrorCodeHTTPStatus[code]; !ok {
			code = dto.ErrCodeRenderFailed
		}
		logger.L(c.Request.Context()).Error("Document generation failed", zap.Error(err))
		c.JSON(dto.GetHTTPStatus(code), dto.NewErrorResponseWithRequestID(code, renderErr.Message, requestID))
		return
	}

	var apiErr *httpclient.APIError
	if errors.As(err, &apiErr) {
		code := dto.ErrCodeUpstream
		for _, sentinel := range []*shared.DomainError{
			shared.ErrNotFound, shared.ErrConflict, shared.ErrUnauthorized, shared.ErrInvalidInput,
		} {
			if errors.Is(apiErr, sentinel) {
				code = dto.NormalizeErrorCode(sentinel.Code)
				break
			}
		}
		c.JSON(dto.GetHTTPStatus(code), dto.NewErrorResponseWithRequestID(code, apiErr.Error(), requestID))
		return
	}

	if errors.Is(err, context.DeadlineExceeded) {
		h.Error(c, http.StatusGatewayTimeout, dto.ErrCodeUpstream, "The backend did not respond in time")
		return
	}

	logger.L(c.Request.Context()).Error("Unhandled error", zap.Error(err))
	c.JSON(http.StatusInternalServerError, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeInternal, "An unexpected error occurred", requestID))
}
