package money

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromFloat(t *testing.T) {
	tests := []struct {
		name     string
		amount   float64
		currency string
		want     int64
		wantCode string
	}{
		{"rupees", 199.00, INR, 19900, INR},
		{"paise", 1234.56, INR, 123456, INR},
		{"rounds half away from zero", 12.345, INR, 1235, INR},
		{"negative", -50.99, INR, -5099, INR},
		{"empty code defaults", 10, "", 1000, DefaultCurrency},
		{"unknown code defaults", 10, "XYZ", 1000, DefaultCurrency},
		{"lower case code", 1, "usd", 100, USD},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewFromFloat(tt.amount, tt.currency)
			assert.Equal(t, tt.want, m.Amount())
			assert.Equal(t, tt.wantCode, m.Currency())
		})
	}
}

func TestNewFromString(t *testing.T) {
	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{raw: "1,234.56", want: 123456},
		{raw: "₹ 12,34,567.00", want: 123456700},
		{raw: "Rs. 450", want: 45000},
		{raw: "abc", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			m, err := NewFromString(tt.raw, INR)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Amount())
		})
	}
}

func TestSum(t *testing.T) {
	total, err := Sum(INR, NewFromFloat(0.1, INR), NewFromFloat(0.2, INR), nil, NewFromFloat(199, INR))
	require.NoError(t, err)
	assert.Equal(t, int64(19930), total.Amount())
	assert.Equal(t, "199.30", total.String())

	empty, err := Sum(INR)
	require.NoError(t, err)
	assert.True(t, empty.IsZero())

	_, err = Sum(INR, New(100, INR), New(100, USD))
	assert.Error(t, err)
}

func TestArithmetic(t *testing.T) {
	m := New(-5099, INR)
	assert.True(t, m.IsNegative())
	assert.Equal(t, int64(5099), m.Abs().Amount())
	assert.Equal(t, int64(5099), m.Negate().Amount())
	assert.Equal(t, int64(-5099), New(5099, INR).Negate().Amount())
	assert.Equal(t, INR, m.Negate().Currency())
	assert.True(t, New(100, INR).Equals(NewFromFloat(1, INR)))
	assert.False(t, New(100, INR).Equals(New(100, USD)))
	assert.True(t, decimal.RequireFromString("-50.99").Equal(m.ToDecimal()))
	assert.InDelta(t, -50.99, m.ToFloat64(), 1e-9)
}

func TestDisplay(t *testing.T) {
	d := New(123456, INR).Display()
	assert.Contains(t, d, "₹")
	assert.Contains(t, d, "1,234.56")
	assert.Contains(t, New(-5000, INR).Display(), "-")
}

func TestJSON(t *testing.T) {
	data, err := json.Marshal(New(19900, INR))
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, float64(19900), raw["amount"])
	assert.Equal(t, INR, raw["currency"])
	assert.Contains(t, raw["display"], "199.00")

	var m Money
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, int64(19900), m.Amount())
	assert.Equal(t, INR, m.Currency())
}

func TestNilSafety(t *testing.T) {
	var m *Money
	assert.Equal(t, int64(0), m.Amount())
	assert.Equal(t, "", m.Currency())
	assert.True(t, m.IsZero())
	assert.Equal(t, "0.00", m.String())

	sum, err := m.Add(New(100, INR))
	require.NoError(t, err)
	assert.Equal(t, int64(100), sum.Amount())
}
