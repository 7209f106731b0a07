package normalize

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInt(t *testing.T) {
	tests := []struct {
		raw  string
		want *int64
	}{
		{"N/A", nil},
		{"", nil},
		{"   ", nil},
		{"1,234", ptr(int64(1234))},
		{"12 345 678", ptr(int64(12345678))},
		{"$500", ptr(int64(500))},
		{"shares: 42", ptr(int64(42))},
		{"none", nil},
		{"-", nil},
	}
	for _, tt := range tests {
		got := Int(tt.raw)
		if tt.want == nil {
			assert.Nil(t, got, "raw=%q", tt.raw)
		} else {
			require.NotNil(t, got, "raw=%q", tt.raw)
			assert.Equal(t, *tt.want, *got, "raw=%q", tt.raw)
		}
	}
}

func TestIntOverflowDegradesToNil(t *testing.T) {
	assert.Nil(t, Int("99999999999999999999999999"))
}

func TestDecimal(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"$1,234.50", "1234.5"},
		{"1,234", "1234"},
		{"0.005", "0.005"},
		{"12c", "12"},
	}
	for _, tt := range tests {
		got := Decimal(tt.raw)
		require.NotNil(t, got, "raw=%q", tt.raw)
		want, err := decimal.NewFromString(tt.want)
		require.NoError(t, err)
		assert.True(t, want.Equal(*got), "raw=%q got=%s", tt.raw, got)
	}
}

func TestDecimalMalformed(t *testing.T) {
	assert.Nil(t, Decimal("N/A"))
	assert.Nil(t, Decimal(""))
	assert.Nil(t, Decimal("."))
	assert.Nil(t, Decimal("-"))
	assert.Nil(t, Decimal("1.2.3"))
}

func ptr[T any](v T) *T { return &v }
