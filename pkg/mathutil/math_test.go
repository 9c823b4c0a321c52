package mathutil

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestToBaseUnits(t *testing.T) {
	tests := []struct {
		amount    string
		precision int32
		expected  uint64
		err       error
	}{
		{"1", 8, 100000000, nil},
		{"10", 9, 10000000000, nil},
		{"0.00000546", 8, 546, nil},
		{"1.5", 9, 1500000000, nil},
		{"0", 8, 0, nil},
		{"0.000000001", 8, 0, ErrAmountTooPrecise},
		{"-1", 8, 0, ErrNegativeAmount},
		{"184467440737.09551616", 8, 0, ErrAmountOverflow},
	}
	for _, tt := range tests {
		units, err := ParseBaseUnits(tt.amount, tt.precision)
		if tt.err != nil {
			require.ErrorIs(t, err, tt.err)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, tt.expected, units)
	}

	_, err := ParseBaseUnits("ten", 8)
	require.Error(t, err)
}

func TestFromBaseUnits(t *testing.T) {
	require.True(t, decimal.NewFromFloat(1.5).Equal(FromBaseUnits(150000000, 8)))
	require.Equal(t, "1.50000000", FormatBaseUnits(150000000, 8))
	require.Equal(t, "0.000000001", FormatBaseUnits(1, 9))
	require.Equal(t, "100.000000000", FormatBaseUnits(100000000000, 9))
}

func TestSubFloor(t *testing.T) {
	require.Equal(t, uint64(3), SubFloor(10, 7))
	require.Zero(t, SubFloor(7, 10))
	require.Zero(t, SubFloor(7, 7))
}
