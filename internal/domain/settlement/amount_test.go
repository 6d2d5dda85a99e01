package settlement

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToSmallestUnit(t *testing.T) {
	tests := []struct {
		name      string
		units     int64
		price     string
		decimals  int32
		expected  int64
		expectErr error
	}{
		{"whole price", 1, "10", 6, 10_000_000, nil},
		{"multiple units", 3, "12.5", 6, 37_500_000, nil},
		{"smallest denomination", 1, "0.000001", 6, 1, nil},
		{"no float drift", 3, "0.1", 6, 300_000, nil},
		{"zero decimals", 4, "7", 0, 28, nil},
		{"sub-unit residue", 1, "0.0000001", 6, 0, ErrFractionalAmount},
		{"zero units", 0, "10", 6, 0, ErrNonPositiveAmount},
		{"negative units", -1, "10", 6, 0, ErrNonPositiveAmount},
		{"zero price", 1, "0", 6, 0, ErrNonPositiveAmount},
		{"overflow", math.MaxInt64, "10", 6, 0, ErrAmountOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToSmallestUnit(tt.units, decimal.RequireFromString(tt.price), tt.decimals)
			if tt.expectErr != nil {
				assert.ErrorIs(t, err, tt.expectErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestFromSmallestUnit(t *testing.T) {
	assert.True(t, decimal.RequireFromString("12.5").Equal(FromSmallestUnit(12_500_000, 6)))
	assert.True(t, decimal.Zero.Equal(FromSmallestUnit(0, 6)))
}
