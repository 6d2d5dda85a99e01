package settlement

import (
	"context"
	"time"
)

// Purpose tags what a payment is for.
type Purpose string

const (
	PurposeInvestment Purpose = "investment"
	PurposeRent       Purpose = "rent"
)

// ExpectedPayment is what the orchestrator looks for on the ledger during one attempt.
type ExpectedPayment struct {
	Payer         string
	Amount        int64 // smallest settlement denomination
	Purpose       Purpose
	CorrelationID string
}

// ProcessedPayment is the durable idempotency record. At most one exists per
// transaction ID, and once written it is never updated or deleted.
type ProcessedPayment struct {
	TransactionID string
	ProcessedAt   time.Time
	Sender        string
	Amount        int64
	AssetType     string
	Purpose       Purpose
	CorrelationID string
	Verified      bool
}

// NewProcessedPayment builds the record that reserves txID for expected.
func NewProcessedPayment(txID string, expected ExpectedPayment, assetType string) ProcessedPayment {
	return ProcessedPayment{
		TransactionID: txID,
		ProcessedAt:   time.Now().UTC(),
		Sender:        expected.Payer,
		Amount:        expected.Amount,
		AssetType:     assetType,
		Purpose:       expected.Purpose,
		CorrelationID: expected.CorrelationID,
		Verified:      true,
	}
}

// ReserveResult is the outcome of an insert-if-absent reservation.
type ReserveResult int

const (
	Reserved ReserveResult = iota + 1
	AlreadyReserved
)

func (r ReserveResult) String() string {
	switch r {
	case Reserved:
		return "reserved"
	case AlreadyReserved:
		return "already_reserved"
	default:
		return "unknown"
	}
}

// IdempotencyLedger is the durable set of consumed transaction IDs.
type IdempotencyLedger interface {
	// Reserve atomically inserts record unless its transaction ID exists.
	// Of any number of concurrent callers for one ID exactly one gets Reserved.
	Reserve(ctx context.Context, record ProcessedPayment) (ReserveResult, error)

	// Lookup returns the record for txID, or nil when none exists.
	Lookup(ctx context.Context, txID string) (*ProcessedPayment, error)
}
