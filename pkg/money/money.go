// Package money holds statement amounts as integer minor units so totals and
// exports never accumulate float drift. Amounts default to Indian rupees.
package money

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Currency codes seen on supported statements (ISO-4217).
const (
	INR = "INR"
	USD = "USD"
	EUR = "EUR"
)

// DefaultCurrency is used when a code is empty or unknown.
const DefaultCurrency = INR

// Money is an amount in minor units with its currency.
type Money struct {
	m *money.Money
}

func currencyOrDefault(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" || money.GetCurrency(code) == nil {
		return DefaultCurrency
	}
	return code
}

// New creates Money from minor units.
func New(minor int64, currencyCode string) *Money {
	return &Money{m: money.New(minor, currencyOrDefault(currencyCode))}
}

// NewFromDecimal rounds a decimal amount half-away-from-zero to minor units.
func NewFromDecimal(amount decimal.Decimal, currencyCode string) *Money {
	code := currencyOrDefault(currencyCode)
	fraction := money.GetCurrency(code).Fraction
	minor := amount.Shift(int32(fraction)).Round(0).IntPart()
	return New(minor, code)
}

// NewFromFloat converts a parsed statement amount.
func NewFromFloat(amount float64, currencyCode string) *Money {
	return NewFromDecimal(decimal.NewFromFloat(amount), currencyCode)
}

// NewFromString parses amounts such as "1,234.56" or "₹ 12,34,567.00".
func NewFromString(amount, currencyCode string) (*Money, error) {
	s := strings.TrimSpace(amount)
	for _, sym := range []string{"₹", "Rs.", "Rs", "INR", "$", "€"} {
		s = strings.ReplaceAll(s, sym, "")
	}
	s = strings.ReplaceAll(strings.ReplaceAll(s, ",", ""), " ", "")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	return NewFromDecimal(d, currencyCode), nil
}

// Zero returns zero in the given currency.
func Zero(currencyCode string) *Money {
	return New(0, currencyCode)
}

// Amount returns the value in minor units.
func (m *Money) Amount() int64 {
	if m == nil || m.m == nil {
		return 0
	}
	return m.m.Amount()
}

// Currency returns the ISO-4217 code.
func (m *Money) Currency() string {
	if m == nil || m.m == nil {
		return ""
	}
	return m.m.Currency().Code
}

func (m *Money) IsZero() bool {
	return m == nil || m.m == nil || m.m.IsZero()
}

func (m *Money) IsNegative() bool {
	return m != nil && m.m != nil && m.m.IsNegative()
}

// Abs returns the absolute value.
func (m *Money) Abs() *Money {
	if m == nil || m.m == nil {
		return Zero(DefaultCurrency)
	}
	return &Money{m: m.m.Absolute()}
}

// Negate returns the value with its sign flipped. go-money's Negative always
// returns -|x|, so it cannot be used here.
func (m *Money) Negate() *Money {
	if m == nil || m.m == nil {
		return Zero(DefaultCurrency)
	}
	return &Money{m: money.New(-m.m.Amount(), m.m.Currency().Code)}
}

// Add returns m + other. Mixed currencies are an error.
func (m *Money) Add(other *Money) (*Money, error) {
	if m == nil || m.m == nil {
		return other, nil
	}
	if other == nil || other.m == nil {
		return m, nil
	}
	sum, err := m.m.Add(other.m)
	if err != nil {
		return nil, err
	}
	return &Money{m: sum}, nil
}

// Sum adds amounts of one currency. A nil or empty list yields zero.
func Sum(currencyCode string, values ...*Money) (*Money, error) {
	total := Zero(currencyCode)
	for _, v := range values {
		var err error
		if total, err = total.Add(v); err != nil {
			return nil, err
		}
	}
	return total, nil
}

// Equals reports whether both amounts and currencies match.
func (m *Money) Equals(other *Money) bool {
	if m.IsZero() || other.IsZero() {
		return m.IsZero() && other.IsZero()
	}
	eq, _ := m.m.Equals(other.m)
	return eq
}

// Display formats the amount with its symbol, like "₹1,234.56".
func (m *Money) Display() string {
	if m == nil || m.m == nil {
		return Zero(DefaultCurrency).Display()
	}
	return m.m.Display()
}

// String returns the plain decimal form, like "1234.56".
func (m *Money) String() string {
	return m.ToDecimal().StringFixed(m.fraction())
}

func (m *Money) fraction() int32 {
	if m == nil || m.m == nil {
		return 2
	}
	return int32(m.m.Currency().Fraction)
}

// ToDecimal converts to a decimal in major units.
func (m *Money) ToDecimal() decimal.Decimal {
	if m == nil || m.m == nil {
		return decimal.Zero
	}
	return decimal.New(m.m.Amount(), -m.fraction())
}

// ToFloat64 is for display and spreadsheets only.
func (m *Money) ToFloat64() float64 {
	return m.ToDecimal().InexactFloat64()
}

// MarshalJSON encodes minor units, currency and display text.
func (m *Money) MarshalJSON() ([]byte, error) {
	if m == nil || m.m == nil {
		return json.Marshal(nil)
	}
	return json.Marshal(struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Display  string `json:"display"`
	}{m.Amount(), m.Currency(), m.Display()})
}

// UnmarshalJSON decodes the form written by MarshalJSON.
func (m *Money) UnmarshalJSON(data []byte) error {
	var v struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	m.m = money.New(v.Amount, currencyOrDefault(v.Currency))
	return nil
}
