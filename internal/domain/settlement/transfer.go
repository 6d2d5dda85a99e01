package settlement

import (
	"context"
	"time"
)

// TransferLeg is one (account, signed amount) entry of a ledger transfer.
// Negative amounts debit the account, positive amounts credit it.
type TransferLeg struct {
	Account string
	Amount  int64
}

// ObservedTransfer is a transfer record read from the ledger mirror.
// It is never created or mutated by this system.
type ObservedTransfer struct {
	TransactionID string
	Timestamp     time.Time
	Legs          []TransferLeg
}

// HasLeg reports whether the transfer contains a leg moving exactly amount on account.
func (t ObservedTransfer) HasLeg(account string, amount int64) bool {
	for _, leg := range t.Legs {
		if leg.Account == account && leg.Amount == amount {
			return true
		}
	}
	return false
}

// Pays reports whether the transfer debits payer by amount and credits
// treasury by the same amount. Partial payments do not count.
func (t ObservedTransfer) Pays(payer, treasury string, amount int64) bool {
	if amount <= 0 {
		return false
	}
	return t.HasLeg(payer, -amount) && t.HasLeg(treasury, amount)
}

// TransferReader reads recent transfers from the ledger mirror.
type TransferReader interface {
	// FetchRecentTransfers returns at most limit transfers of assetID that touch
	// treasuryAccount, newest first. Records that fail to parse are dropped.
	// Transport failures are reported as ErrLedgerUnavailable.
	FetchRecentTransfers(ctx context.Context, treasuryAccount, assetID string, limit int) ([]ObservedTransfer, error)
}

// BalanceOracle reads how many units of an asset the treasury holds.
type BalanceOracle interface {
	// BalanceOf never fails: any read failure is logged and reported as 0.
	BalanceOf(ctx context.Context, assetID string) int64
}

// AssetTransferClient moves asset units on the ledger.
type AssetTransferClient interface {
	// Transfer reports whether the ledger accepted the movement. Every
	// underlying failure is collapsed into false.
	Transfer(ctx context.Context, assetID string, amount int64, fromTreasury, toAccount string) bool
}

// EligibilityChecker answers whether a user has passed identity verification.
type EligibilityChecker interface {
	IsEligible(ctx context.Context, userID string) (bool, error)
}
