package service

import (
	"sort"
	"time"

	"github.com/FACorreiaa/echo-statements/internal/domain/statement"
	"github.com/FACorreiaa/echo-statements/pkg/money"
)

// CategoryTotal is the spend or income of one category.
type CategoryTotal struct {
	Category string       `json:"category"`
	Count    int          `json:"count"`
	Debit    *money.Money `json:"debit"`
	Credit   *money.Money `json:"credit"`
}

// Summary aggregates an import's transactions.
type Summary struct {
	Count          int             `json:"count"`
	TotalDebit     *money.Money    `json:"total_debit"`
	TotalCredit    *money.Money    `json:"total_credit"`
	Net            *money.Money    `json:"net"`
	Earliest       *time.Time      `json:"earliest,omitempty"`
	Latest         *time.Time      `json:"latest,omitempty"`
	Categorized    float64         `json:"categorization_rate"`
	RecurringCount int             `json:"recurring_count"`
	Categories     []CategoryTotal `json:"categories"`
}

// Summarize totals transactions in currencyCode. Categories are ordered by
// debit total descending, then name.
func Summarize(txns []statement.Transaction, currencyCode string) (*Summary, error) {
	s := &Summary{
		Count:       len(txns),
		TotalDebit:  money.Zero(currencyCode),
		TotalCredit: money.Zero(currencyCode),
		Categories:  []CategoryTotal{},
	}

	byCategory := make(map[string]*CategoryTotal)
	categorized := 0
	for i := range txns {
		txn := txns[i]
		amount := money.NewFromFloat(txn.Amount, currencyCode).Abs()

		ct, ok := byCategory[txn.Category]
		if !ok {
			ct = &CategoryTotal{Category: txn.Category, Debit: money.Zero(currencyCode), Credit: money.Zero(currencyCode)}
			byCategory[txn.Category] = ct
		}
		ct.Count++

		var err error
		if txn.IsDebit() {
			if s.TotalDebit, err = s.TotalDebit.Add(amount); err != nil {
				return nil, err
			}
			if ct.Debit, err = ct.Debit.Add(amount); err != nil {
				return nil, err
			}
		} else {
			if s.TotalCredit, err = s.TotalCredit.Add(amount); err != nil {
				return nil, err
			}
			if ct.Credit, err = ct.Credit.Add(amount); err != nil {
				return nil, err
			}
		}

		if txn.Category != statement.FallbackCategory {
			categorized++
		}
		if txn.IsRecurring {
			s.RecurringCount++
		}
		if s.Earliest == nil || txn.Date.Before(*s.Earliest) {
			d := txn.Date
			s.Earliest = &d
		}
		if s.Latest == nil || txn.Date.After(*s.Latest) {
			d := txn.Date
			s.Latest = &d
		}
	}

	net, err := s.TotalCredit.Add(s.TotalDebit.Negate())
	if err != nil {
		return nil, err
	}
	s.Net = net
	if len(txns) > 0 {
		s.Categorized = float64(categorized) / float64(len(txns))
	}

	for _, ct := range byCategory {
		s.Categories = append(s.Categories, *ct)
	}
	sort.Slice(s.Categories, func(i, j int) bool {
		a, b := s.Categories[i], s.Categories[j]
		if a.Debit.Amount() != b.Debit.Amount() {
			return a.Debit.Amount() > b.Debit.Amount()
		}
		return a.Category < b.Category
	})
	return s, nil
}
