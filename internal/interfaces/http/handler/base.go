package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/setusher/PenthouseProtocol/internal/domain/property"
	"github.com/setusher/PenthouseProtocol/internal/domain/settlement"
	"github.com/setusher/PenthouseProtocol/internal/domain/shared"
	"github.com/setusher/PenthouseProtocol/internal/infrastructure/logger"
	"github.com/setusher/PenthouseProtocol/internal/interfaces/http/dto"
	"github.com/setusher/PenthouseProtocol/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString(logger.GinRequestIDKey); id != "" {
		return id
	}
	return c.GetHeader(middleware.RequestIDHeader)
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination metadata
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// Unauthorized sends a 401 unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// BindJSON binds the request body and answers 400 when it does not bind.
// It returns false when a response has already been written.
func (h *BaseHandler) BindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			middleware.HandleValidationError(c, verrs)
			return false
		}
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, "Request body is not valid JSON")
		return false
	}
	return true
}

// HandleError maps catalog and domain errors to a response. Anything it does
// not recognise is logged and answered with 500.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	var domainErr *shared.DomainError
	switch {
	case errors.Is(err, property.ErrListingNotFound):
		h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, "Listing not found")
	case errors.Is(err, property.ErrTokenIssueFailed):
		logger.GetGinLogger(c).Error("share token could not be issued", zap.Error(err))
		h.Error(c, http.StatusBadGateway, dto.ErrCodeTokenIssueFailed, "The share token could not be created on the ledger")
	case errors.As(err, &domainErr):
		code := dto.DomainErrorCode(domainErr.Code)
		h.Error(c, dto.GetHTTPStatus(code), code, domainErr.Message)
	default:
		logger.GetGinLogger(c).Error("unhandled error", zap.Error(err))
		h.InternalError(c, "An unexpected error occurred")
	}
}

// HandleSettlementError answers with the status mapped from the settlement
// failure kind. The outcome, when present, is returned as data so the client
// sees how far the run got and whether its payment was consumed.
func (h *BaseHandler) HandleSettlementError(c *gin.Context, err error, outcome *settlement.Outcome) {
	kind, ok := settlement.KindOf(err)
	if !ok {
		logger.GetGinLogger(c).Error("unclassified settlement error", zap.Error(err))
		h.InternalError(c, "An unexpected error occurred")
		return
	}

	resp := dto.NewErrorResponseWithRequestID(dto.SettlementErrorCode(kind), settlementMessage(err), getRequestID(c))
	resp.Error.Retryable = kind.Retryable()
	if outcome != nil {
		resp.Data = dto.NewOutcomeResponse(outcome)
	}
	c.JSON(dto.SettlementHTTPStatus(kind), resp)
}

// settlementMessage is the client-facing message: the settlement error's own
// message without the wrapped infrastructure cause.
func settlementMessage(err error) string {
	var se *settlement.Error
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	return "settlement failed"
}
