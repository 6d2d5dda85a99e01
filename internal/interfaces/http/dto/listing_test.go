package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/setusher/PenthouseProtocol/internal/domain/property"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewListingResponse_EscrowInSettlementUnits(t *testing.T) {
	l, err := property.NewListing("owner-1", "0.0.500", "0.0.9001", "Penthouse", "PH",
		decimal.RequireFromString("10.5"), decimal.NewFromInt(1500), 1000)
	require.NoError(t, err)
	l.EscrowBalance = 31_500_000

	resp := NewListingResponse(l, 6)

	assert.Equal(t, l.ID.String(), resp.ID)
	assert.Equal(t, "available", resp.Status)
	assert.True(t, decimal.RequireFromString("31.5").Equal(resp.EscrowBalance))

	body, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"unit_price":"10.5"`)
	assert.Contains(t, string(body), `"escrow_balance":"31.5"`)
}

func TestNewListingDetailResponse(t *testing.T) {
	l, err := property.NewListing("owner-1", "0.0.500", "0.0.9001", "Penthouse", "PH",
		decimal.NewFromInt(10), decimal.NewFromInt(1500), 1000)
	require.NoError(t, err)

	t.Run("no leases encodes an empty list", func(t *testing.T) {
		body, err := json.Marshal(NewListingDetailResponse(l, nil, 6))
		require.NoError(t, err)
		assert.Contains(t, string(body), `"leases":[]`)
	})

	t.Run("carries leases", func(t *testing.T) {
		lease, err := property.NewLease(l.ID, "tenant-1", "0.0.2002",
			time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), "TX1")
		require.NoError(t, err)

		resp := NewListingDetailResponse(l, []property.Lease{*lease}, 6)
		require.Len(t, resp.Leases, 1)
		assert.Equal(t, "TX1", resp.Leases[0].FirstPaymentTxID)
		assert.True(t, resp.Leases[0].PaymentVerified)
		assert.NotEqual(t, uuid.Nil.String(), resp.Leases[0].ID)
	})
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	resp := NewSuccessResponseWithMeta([]int{1, 2}, 41, 2, 20)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 3, resp.Meta.TotalPages)
	assert.Equal(t, int64(41), resp.Meta.Total)

	resp = NewSuccessResponseWithMeta([]int{}, 0, 1, 20)
	assert.Zero(t, resp.Meta.TotalPages)
}

func TestDomainErrorCode(t *testing.T) {
	assert.Equal(t, ErrCodeValidation, DomainErrorCode("INVALID_INPUT"))
	assert.Equal(t, ErrCodeConflict, DomainErrorCode("CONCURRENT_MODIFICATION"))
	assert.Equal(t, ErrCodeUnknown, DomainErrorCode("SOMETHING_ELSE"))
}
