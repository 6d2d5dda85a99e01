package cache

import (
	"context"
	"errors"
	"sync"

	"github.com/setusher/PenthouseProtocol/internal/domain/settlement"
)

// InMemoryIdempotencyLedger implements settlement.IdempotencyLedger with a map.
// State is lost on restart and not shared between instances, so it is only
// fit for development and tests.
type InMemoryIdempotencyLedger struct {
	mu      sync.RWMutex
	records map[string]settlement.ProcessedPayment
}

// NewInMemoryIdempotencyLedger creates an empty in-memory ledger
func NewInMemoryIdempotencyLedger() *InMemoryIdempotencyLedger {
	return &InMemoryIdempotencyLedger{
		records: make(map[string]settlement.ProcessedPayment),
	}
}

// Reserve stores the record unless its transaction ID is already present
func (l *InMemoryIdempotencyLedger) Reserve(ctx context.Context, record settlement.ProcessedPayment) (settlement.ReserveResult, error) {
	if record.TransactionID == "" {
		return 0, errors.New("memory ledger: empty transaction id")
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.records[record.TransactionID]; exists {
		return settlement.AlreadyReserved, nil
	}
	l.records[record.TransactionID] = record
	return settlement.Reserved, nil
}

// Lookup returns the record for txID, or nil if the payment is unconsumed
func (l *InMemoryIdempotencyLedger) Lookup(ctx context.Context, txID string) (*settlement.ProcessedPayment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	record, exists := l.records[txID]
	if !exists {
		return nil, nil
	}
	return &record, nil
}

// Size returns the number of consumed payments (for testing/monitoring)
func (l *InMemoryIdempotencyLedger) Size() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// Close is a no-op
func (l *InMemoryIdempotencyLedger) Close() error {
	return nil
}

var _ settlement.IdempotencyLedger = (*InMemoryIdempotencyLedger)(nil)
