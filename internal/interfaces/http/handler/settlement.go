package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	settlementapp "github.com/setusher/PenthouseProtocol/internal/application/settlement"
	"github.com/setusher/PenthouseProtocol/internal/domain/settlement"
	"github.com/setusher/PenthouseProtocol/internal/infrastructure/logger"
	"github.com/setusher/PenthouseProtocol/internal/interfaces/http/dto"
	"github.com/setusher/PenthouseProtocol/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// Settler runs settlements
type Settler interface {
	SettleInvestment(ctx context.Context, req settlementapp.InvestmentRequest) (*settlement.Outcome, error)
	SettleRental(ctx context.Context, req settlementapp.RentalRequest) (*settlement.Outcome, error)
}

// PaymentHistory lists the payments consumed for a listing
type PaymentHistory interface {
	ListByCorrelation(ctx context.Context, correlationID string) ([]settlement.ProcessedPayment, error)
}

// SettlementHandler handles the payment-gated investment and rental endpoints
type SettlementHandler struct {
	BaseHandler
	settler  Settler
	payments PaymentHistory
}

// NewSettlementHandler creates a new SettlementHandler. payments may be nil
// when the idempotency backend cannot list records; ListPayments must then
// not be routed.
func NewSettlementHandler(settler Settler, payments PaymentHistory) *SettlementHandler {
	return &SettlementHandler{
		settler:  settler,
		payments: payments,
	}
}

// Invest godoc
// POST /api/v1/listings/:id/invest
// Settles a share purchase against a payment the caller already sent.
func (h *SettlementHandler) Invest(c *gin.Context) {
	listingID, callerID, ok := h.target(c)
	if !ok {
		return
	}
	var req dto.InvestRequest
	if !h.BindJSON(c, &req) {
		return
	}

	outcome, err := h.settler.SettleInvestment(c.Request.Context(), settlementapp.InvestmentRequest{
		ListingID:    listingID,
		Units:        req.Units,
		PayerAccount: req.PayerAccount,
		CallerID:     callerID,
	})
	if err != nil {
		h.HandleSettlementError(c, err, outcome)
		return
	}
	h.Success(c, dto.NewOutcomeResponse(outcome))
}

// Rent godoc
// POST /api/v1/listings/:id/rent
// Settles a rental period against a payment the caller already sent.
func (h *SettlementHandler) Rent(c *gin.Context) {
	listingID, callerID, ok := h.target(c)
	if !ok {
		return
	}
	var req dto.RentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	outcome, err := h.settler.SettleRental(c.Request.Context(), settlementapp.RentalRequest{
		ListingID:    listingID,
		LeaseStart:   req.LeaseStart,
		LeaseEnd:     req.LeaseEnd,
		PayerAccount: req.PayerAccount,
		CallerID:     callerID,
	})
	if err != nil {
		h.HandleSettlementError(c, err, outcome)
		return
	}
	h.Success(c, dto.NewOutcomeResponse(outcome))
}

// ListPayments godoc
// GET /api/v1/listings/:id/payments
// Lists the payments consumed by settlements of a listing.
func (h *SettlementHandler) ListPayments(c *gin.Context) {
	listingID, _, ok := h.target(c)
	if !ok {
		return
	}
	records, err := h.payments.ListByCorrelation(c.Request.Context(), listingID.String())
	if err != nil {
		logger.GetGinLogger(c).Error("failed to list consumed payments", zap.Error(err))
		h.InternalError(c, "Failed to list payments")
		return
	}
	h.Success(c, dto.NewPaymentResponses(records))
}

// target parses the listing id and reads the authenticated caller.
func (h *SettlementHandler) target(c *gin.Context) (uuid.UUID, string, bool) {
	callerID := middleware.GetCallerID(c)
	if callerID == "" {
		h.Unauthorized(c, "Authentication required")
		return uuid.Nil, "", false
	}
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid listing ID")
		return uuid.Nil, "", false
	}
	listingID := uuid.MustParse(uri.ID)
	c.Request = c.Request.WithContext(logger.WithListingID(c.Request.Context(), listingID.String()))
	return listingID, callerID, true
}
