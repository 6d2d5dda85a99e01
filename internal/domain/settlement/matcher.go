package settlement

import (
	"context"
)

// Matcher finds the newest observed transfer that satisfies an expected
// payment and has not been consumed yet. It never writes to the ledger;
// reserving the match is a separate step.
type Matcher struct {
	treasury string
	ledger   IdempotencyLedger
}

// NewMatcher creates a matcher crediting treasury and consulting ledger for consumed IDs.
func NewMatcher(treasury string, ledger IdempotencyLedger) *Matcher {
	return &Matcher{treasury: treasury, ledger: ledger}
}

// Match scans window newest first and returns the first transfer ID that pays
// expected in full and is absent from the idempotency ledger.
// window must already be ordered newest first.
func (m *Matcher) Match(ctx context.Context, expected ExpectedPayment, window []ObservedTransfer) (string, error) {
	if expected.Amount <= 0 || expected.Payer == "" {
		return "", Errorf(KindInvalidRequest, "expected payment needs a payer and a positive amount")
	}

	for _, transfer := range window {
		if !transfer.Pays(expected.Payer, m.treasury, expected.Amount) {
			continue
		}
		record, err := m.ledger.Lookup(ctx, transfer.TransactionID)
		if err != nil {
			return "", Wrap(KindStoreUnavailable, "lookup processed payment", err)
		}
		if record != nil {
			continue
		}
		return transfer.TransactionID, nil
	}

	return "", ErrPaymentNotFound
}
