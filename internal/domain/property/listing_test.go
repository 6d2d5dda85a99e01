package property

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/setusher/PenthouseProtocol/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewListing(t *testing.T) {
	t.Run("creates available listing", func(t *testing.T) {
		l, err := NewListing("owner-1", "0.0.500", "0.0.9001", "Penthouse", "PH", decimal.NewFromInt(10), decimal.NewFromInt(1500), 1000)
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, l.ID)
		assert.Equal(t, 1, l.Version)
		assert.Equal(t, ListingStatusAvailable, l.Status)
		assert.True(t, l.IsAvailable())
		assert.Zero(t, l.EscrowBalance)
		assert.Equal(t, l.ID.String(), l.CorrelationID())
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		_, err := NewListing("o", "a", "", "n", "s", decimal.NewFromInt(1), decimal.NewFromInt(1), 1)
		assert.Error(t, err)
		_, err = NewListing("o", "a", "0.0.1", "", "s", decimal.NewFromInt(1), decimal.NewFromInt(1), 1)
		assert.Error(t, err)
		_, err = NewListing("o", "a", "0.0.1", "n", "s", decimal.NewFromInt(-1), decimal.NewFromInt(1), 1)
		assert.Error(t, err)
		_, err = NewListing("o", "a", "0.0.1", "n", "s", decimal.NewFromInt(1), decimal.NewFromInt(1), 0)
		assert.Error(t, err)
	})
}

func TestListingStatus_IsValid(t *testing.T) {
	assert.True(t, ListingStatusAvailable.IsValid())
	assert.True(t, ListingStatusRented.IsValid())
	assert.False(t, ListingStatus("sold").IsValid())
}

func TestNewLease(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	listingID := uuid.New()

	lease, err := NewLease(listingID, "tenant-1", "0.0.777", start, start.AddDate(0, 1, 0), "0.0.777@1700000000.000000001")
	require.NoError(t, err)
	assert.Equal(t, listingID, lease.ListingID)
	assert.True(t, lease.PaymentVerified)
	assert.Equal(t, 31*24*time.Hour, lease.Duration())

	_, err = NewLease(listingID, "tenant-1", "0.0.777", start, start, "tx")
	assert.ErrorIs(t, err, ErrInvalidLeasePeriod)
}

func TestValidateTerms(t *testing.T) {
	tests := []struct {
		name    string
		listing string
		unit    decimal.Decimal
		rent    decimal.Decimal
		supply  int64
		wantErr bool
	}{
		{"valid", "Penthouse", decimal.NewFromInt(10), decimal.NewFromInt(1500), 1000, false},
		{"blank name", "  ", decimal.NewFromInt(10), decimal.NewFromInt(1500), 1000, true},
		{"free shares", "Penthouse", decimal.Zero, decimal.NewFromInt(1500), 1000, true},
		{"free rent", "Penthouse", decimal.NewFromInt(10), decimal.Zero, 1000, true},
		{"no supply", "Penthouse", decimal.NewFromInt(10), decimal.NewFromInt(1500), 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTerms(tt.listing, tt.unit, tt.rent, tt.supply)
			if tt.wantErr {
				assert.ErrorIs(t, err, shared.ErrInvalidInput)
				return
			}
			assert.NoError(t, err)
		})
	}
}
