package dto

import (
	"time"

	"github.com/setusher/PenthouseProtocol/internal/domain/settlement"
)

// InvestRequest is the body of POST /listings/:id/invest
type InvestRequest struct {
	Units        int64  `json:"units" binding:"required,min=1"`
	PayerAccount string `json:"payer_account" binding:"required,ledger_account"`
}

// RentRequest is the body of POST /listings/:id/rent
type RentRequest struct {
	LeaseStart   time.Time `json:"lease_start" binding:"required"`
	LeaseEnd     time.Time `json:"lease_end" binding:"required,gtfield=LeaseStart"`
	PayerAccount string    `json:"payer_account" binding:"required,ledger_account"`
}

// OutcomeResponse is the API view of a settlement run
type OutcomeResponse struct {
	Workflow    string `json:"workflow"`
	ListingID   string `json:"listing_id"`
	Payer       string `json:"payer_account"`
	State       string `json:"state"`
	LastReached string `json:"last_reached"`
	Reason      string `json:"reason,omitempty"`
	PaymentTxID string `json:"payment_tx_id,omitempty"`
	Amount      int64  `json:"amount,omitempty"`
	Units       int64  `json:"units,omitempty"`
	AssetMoved  bool   `json:"asset_moved"`
	LeaseID     string `json:"lease_id,omitempty"`
	NeedsRefund bool   `json:"needs_refund"`
}

// NewOutcomeResponse converts a settlement outcome
func NewOutcomeResponse(o *settlement.Outcome) OutcomeResponse {
	return OutcomeResponse{
		Workflow:    string(o.Workflow),
		ListingID:   o.CorrelationID,
		Payer:       o.Payer,
		State:       string(o.State),
		LastReached: string(o.LastReached),
		Reason:      string(o.Reason),
		PaymentTxID: o.PaymentTxID,
		Amount:      o.Amount,
		Units:       o.Units,
		AssetMoved:  o.AssetMoved,
		LeaseID:     o.LeaseID,
		NeedsRefund: o.NeedsRefund,
	}
}

// PaymentResponse is the API view of a consumed payment
type PaymentResponse struct {
	TransactionID string    `json:"transaction_id"`
	ProcessedAt   time.Time `json:"processed_at"`
	Sender        string    `json:"sender"`
	Amount        int64     `json:"amount"`
	AssetType     string    `json:"asset_type"`
	Purpose       string    `json:"purpose"`
	Verified      bool      `json:"verified"`
}

// NewPaymentResponses converts consumed payment records
func NewPaymentResponses(records []settlement.ProcessedPayment) []PaymentResponse {
	out := make([]PaymentResponse, 0, len(records))
	for _, p := range records {
		out = append(out, PaymentResponse{
			TransactionID: p.TransactionID,
			ProcessedAt:   p.ProcessedAt,
			Sender:        p.Sender,
			Amount:        p.Amount,
			AssetType:     p.AssetType,
			Purpose:       string(p.Purpose),
			Verified:      p.Verified,
		})
	}
	return out
}
