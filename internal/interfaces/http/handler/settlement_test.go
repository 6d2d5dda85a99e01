package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	settlementapp "github.com/setusher/PenthouseProtocol/internal/application/settlement"
	"github.com/setusher/PenthouseProtocol/internal/domain/settlement"
	"github.com/setusher/PenthouseProtocol/internal/infrastructure/logger"
	"github.com/setusher/PenthouseProtocol/internal/interfaces/http/dto"
	"github.com/setusher/PenthouseProtocol/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testCaller = "user-1"
	testPayer  = "0.0.2002"
)

type mockSettler struct {
	mock.Mock
}

func (m *mockSettler) SettleInvestment(ctx context.Context, req settlementapp.InvestmentRequest) (*settlement.Outcome, error) {
	args := m.Called(ctx, req)
	o, _ := args.Get(0).(*settlement.Outcome)
	return o, args.Error(1)
}

func (m *mockSettler) SettleRental(ctx context.Context, req settlementapp.RentalRequest) (*settlement.Outcome, error) {
	args := m.Called(ctx, req)
	o, _ := args.Get(0).(*settlement.Outcome)
	return o, args.Error(1)
}

type mockPayments struct {
	mock.Mock
}

func (m *mockPayments) ListByCorrelation(ctx context.Context, correlationID string) ([]settlement.ProcessedPayment, error) {
	args := m.Called(ctx, correlationID)
	records, _ := args.Get(0).([]settlement.ProcessedPayment)
	return records, args.Error(1)
}

func newSettlementRouter(settler Settler, payments PaymentHistory, caller string) *gin.Engine {
	middleware.SetupValidator()
	h := NewSettlementHandler(settler, payments)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		if caller != "" {
			c.Set(logger.GinCallerIDKey, caller)
		}
		c.Next()
	})
	router.POST("/listings/:id/invest", h.Invest)
	router.POST("/listings/:id/rent", h.Rent)
	router.GET("/listings/:id/payments", h.ListPayments)
	return router
}

func post(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func committedOutcome(workflow settlement.Purpose, listingID uuid.UUID) *settlement.Outcome {
	o := settlement.NewOutcome(workflow, listingID.String(), testPayer)
	o.PaymentTxID = "0.0.2002-1700000000-000000001"
	o.AssetMoved = true
	o.Advance(settlement.StateCommitted)
	return o
}

func TestSettlementHandler_Invest(t *testing.T) {
	listingID := uuid.New()
	settler := new(mockSettler)
	settler.On("SettleInvestment", mock.Anything, settlementapp.InvestmentRequest{
		ListingID:    listingID,
		Units:        10,
		PayerAccount: testPayer,
		CallerID:     testCaller,
	}).Return(committedOutcome(settlement.PurposeInvestment, listingID), nil).Once()

	w := post(newSettlementRouter(settler, nil, testCaller), "/listings/"+listingID.String()+"/invest",
		`{"units":10,"payer_account":"0.0.2002"}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	settler.AssertExpectations(t)
	assert.Contains(t, w.Body.String(), `"state":"committed"`)
	assert.Contains(t, w.Body.String(), `"payment_tx_id":"0.0.2002-1700000000-000000001"`)
}

func TestSettlementHandler_InvestRejectedAtTheEdge(t *testing.T) {
	listingID := uuid.New().String()

	tests := []struct {
		name   string
		caller string
		path   string
		body   string
		status int
		code   string
	}{
		{"no caller", "", "/listings/" + listingID + "/invest", `{"units":1,"payer_account":"0.0.2002"}`, http.StatusUnauthorized, dto.ErrCodeUnauthorized},
		{"bad listing id", testCaller, "/listings/not-a-uuid/invest", `{"units":1,"payer_account":"0.0.2002"}`, http.StatusBadRequest, dto.ErrCodeBadRequest},
		{"zero units", testCaller, "/listings/" + listingID + "/invest", `{"units":0,"payer_account":"0.0.2002"}`, http.StatusBadRequest, dto.ErrCodeValidation},
		{"bad payer", testCaller, "/listings/" + listingID + "/invest", `{"units":1,"payer_account":"alice"}`, http.StatusBadRequest, dto.ErrCodeValidation},
		{"broken json", testCaller, "/listings/" + listingID + "/invest", `{"units":`, http.StatusBadRequest, dto.ErrCodeInvalidJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settler := new(mockSettler)

			w := post(newSettlementRouter(settler, nil, tt.caller), tt.path, tt.body)

			assert.Equal(t, tt.status, w.Code)
			resp := decodeResponse(t, w)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			settler.AssertNotCalled(t, "SettleInvestment", mock.Anything, mock.Anything)
		})
	}
}

func TestSettlementHandler_InvestPaymentNotFound(t *testing.T) {
	listingID := uuid.New()
	o := settlement.NewOutcome(settlement.PurposeInvestment, listingID.String(), testPayer)
	err := o.Fail(settlement.ErrPaymentNotFound)

	settler := new(mockSettler)
	settler.On("SettleInvestment", mock.Anything, mock.Anything).Return(o, err).Once()

	w := post(newSettlementRouter(settler, nil, testCaller), "/listings/"+listingID.String()+"/invest",
		`{"units":3,"payer_account":"0.0.2002"}`)

	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "ERR_PAYMENT_NOT_FOUND", resp.Error.Code)
	assert.True(t, resp.Error.Retryable)
	assert.Contains(t, w.Body.String(), `"needs_refund":false`)
}

func TestSettlementHandler_Rent(t *testing.T) {
	listingID := uuid.New()
	start := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)

	settler := new(mockSettler)
	settler.On("SettleRental", mock.Anything, mock.MatchedBy(func(req settlementapp.RentalRequest) bool {
		return req.ListingID == listingID &&
			req.LeaseStart.Equal(start) &&
			req.LeaseEnd.Equal(end) &&
			req.PayerAccount == testPayer &&
			req.CallerID == testCaller
	})).Return(committedOutcome(settlement.PurposeRent, listingID), nil).Once()

	w := post(newSettlementRouter(settler, nil, testCaller), "/listings/"+listingID.String()+"/rent",
		`{"lease_start":"2026-11-01T00:00:00Z","lease_end":"2026-12-01T00:00:00Z","payer_account":"0.0.2002"}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	settler.AssertExpectations(t)
	assert.Contains(t, w.Body.String(), `"workflow":"rent"`)
}

func TestSettlementHandler_RentEndBeforeStart(t *testing.T) {
	settler := new(mockSettler)

	w := post(newSettlementRouter(settler, nil, testCaller), "/listings/"+uuid.New().String()+"/rent",
		`{"lease_start":"2026-12-01T00:00:00Z","lease_end":"2026-11-01T00:00:00Z","payer_account":"0.0.2002"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	require.Len(t, resp.Error.Details, 1)
	assert.Equal(t, "lease_end", resp.Error.Details[0].Field)
	settler.AssertNotCalled(t, "SettleRental", mock.Anything, mock.Anything)
}

func TestSettlementHandler_RentAlreadyRented(t *testing.T) {
	listingID := uuid.New()
	o := settlement.NewOutcome(settlement.PurposeRent, listingID.String(), testPayer)
	o.Advance(settlement.StateEligible)
	err := o.Fail(settlement.ErrAlreadyRented)

	settler := new(mockSettler)
	settler.On("SettleRental", mock.Anything, mock.Anything).Return(o, err).Once()

	w := post(newSettlementRouter(settler, nil, testCaller), "/listings/"+listingID.String()+"/rent",
		`{"lease_start":"2026-11-01T00:00:00Z","lease_end":"2026-12-01T00:00:00Z","payer_account":"0.0.2002"}`)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"ERR_ALREADY_RENTED"`)
	assert.Contains(t, w.Body.String(), `"last_reached":"eligible"`)
}

func TestSettlementHandler_ListPayments(t *testing.T) {
	listingID := uuid.New()
	payments := new(mockPayments)
	payments.On("ListByCorrelation", mock.Anything, listingID.String()).Return([]settlement.ProcessedPayment{{
		TransactionID: "tx-1",
		Sender:        testPayer,
		Amount:        25_000_000,
		AssetType:     "0.0.456858",
		Purpose:       settlement.PurposeRent,
		CorrelationID: listingID.String(),
		Verified:      true,
	}}, nil).Once()

	router := newSettlementRouter(new(mockSettler), payments, testCaller)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/listings/"+listingID.String()+"/payments", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"transaction_id":"tx-1"`)
	assert.Contains(t, w.Body.String(), `"purpose":"rent"`)
	payments.AssertExpectations(t)
}

func TestSettlementHandler_ListPaymentsStoreError(t *testing.T) {
	payments := new(mockPayments)
	payments.On("ListByCorrelation", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset")).Once()

	router := newSettlementRouter(new(mockSettler), payments, testCaller)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/listings/"+uuid.New().String()+"/payments", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection reset")
}
