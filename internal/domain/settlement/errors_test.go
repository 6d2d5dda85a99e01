package settlement

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_IsMatchesByKind(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := Wrap(KindLedgerUnavailable, "fetch transfers", cause)

	assert.ErrorIs(t, err, ErrLedgerUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrPaymentNotFound)

	wrapped := fmt.Errorf("handler: %w", err)
	kind, ok := KindOf(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindLedgerUnavailable, kind)
}

func TestKindOf_PlainError(t *testing.T) {
	_, ok := KindOf(errors.New("boom"))
	assert.False(t, ok)
}

func TestError_Message(t *testing.T) {
	assert.Equal(t, "settlement: listing not found", ErrAssetNotFound.Error())
	assert.Equal(t, "settlement: fetch: eof", Wrap(KindLedgerUnavailable, "fetch", errors.New("eof")).Error())
	assert.Equal(t, "settlement: INELIGIBLE", (&Error{Kind: KindIneligible}).Error())
}

func TestKind_Classification(t *testing.T) {
	tests := []struct {
		kind        Kind
		retryable   bool
		remediation bool
	}{
		{KindIneligible, false, false},
		{KindAssetNotFound, false, false},
		{KindAlreadyRented, false, false},
		{KindPaymentNotFound, true, false},
		{KindPaymentAlreadyConsumed, false, false},
		{KindInsufficientSupply, false, true},
		{KindTransferFailed, false, true},
		{KindLedgerUnavailable, true, false},
		{KindRegistryWriteConflict, false, false},
		{KindStoreUnavailable, true, false},
		{KindBookkeepingFailed, false, true},
		{KindInvalidRequest, false, false},
	}

	require.Len(t, tests, len(Kinds()))
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.retryable, tt.kind.Retryable())
			assert.Equal(t, tt.remediation, tt.kind.RequiresRemediation())
		})
	}
}

func TestOutcome_Fail(t *testing.T) {
	o := NewOutcome(PurposeInvestment, "listing-1", testPayer)
	o.Advance(StateEligible)
	o.Advance(StatePaymentMatched)
	o.PaymentTxID = "TX-1"

	err := o.Fail(ErrInsufficientSupply)
	assert.ErrorIs(t, err, ErrInsufficientSupply)
	assert.Equal(t, StateFailed, o.State)
	assert.Equal(t, StatePaymentMatched, o.LastReached)
	assert.Equal(t, KindInsufficientSupply, o.Reason)
	assert.True(t, o.NeedsRefund)
	assert.True(t, o.State.IsTerminal())
	assert.False(t, o.Committed())
}

func TestOutcome_FailBeforeConsumption(t *testing.T) {
	o := NewOutcome(PurposeRent, "listing-1", testPayer)
	o.Advance(StateEligible)

	err := o.Fail(errors.New("connection reset"))
	assert.ErrorIs(t, err, ErrBookkeepingFailed)
	assert.Equal(t, StateEligible, o.LastReached)
	assert.False(t, o.NeedsRefund)
}

func TestOutcome_FailAfterConsumptionAlwaysNeedsRefund(t *testing.T) {
	o := NewOutcome(PurposeRent, "listing-1", testPayer)
	o.PaymentTxID = "TX-2"

	_ = o.Fail(ErrAlreadyRented)
	assert.Equal(t, KindAlreadyRented, o.Reason)
	assert.True(t, o.NeedsRefund)
}
