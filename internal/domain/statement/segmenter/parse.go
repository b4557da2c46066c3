package segmenter

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/echo-statements/internal/domain/statement/layout"
)

var (
	// ErrInvalidDate is returned for dates that are malformed or impossible.
	ErrInvalidDate = errors.New("invalid date")
	// ErrInvalidAmount is returned for amounts that cannot be parsed.
	ErrInvalidAmount = errors.New("invalid amount")
)

const minYear = 1900

var accountPattern = regexp.MustCompile(`(?i)\b(?:account\s*(?:number|no\.?)|a/c\s*no\.?)\s*[:\-]?\s*([0-9Xx*]{6,20})\b`)

// ParseDate parses a DD-MM-YYYY or DD/MM/YYYY date into a UTC calendar date.
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if !dateToken.MatchString(s) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	s = strings.ReplaceAll(s, "/", "-")

	t, err := time.Parse("02-01-2006", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	if t.Year() < minYear {
		return time.Time{}, fmt.Errorf("%w: %q is before %d", ErrInvalidDate, raw, minYear)
	}
	return t, nil
}

// ParseAmount parses an amount such as "1,234.56" or "100".
func ParseAmount(raw string) (float64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	return d.InexactFloat64(), nil
}

// ExtractAccountNumber looks for a labeled account number in the header rows
// of the first page. It returns an empty string when none is printed.
func ExtractAccountNumber(rows []layout.Row) string {
	for _, row := range rows {
		if m := accountPattern.FindStringSubmatch(row.Text()); m != nil {
			return strings.ToUpper(m[1])
		}
	}
	return ""
}
