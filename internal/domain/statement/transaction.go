// Package statement holds the transaction model produced by statement parsing.
package statement

import "time"

// Transaction types as exposed to consumers.
const (
	TypeDebit  = "debit"
	TypeCredit = "credit"
)

// FallbackCategory is assigned when no rule or heuristic matches.
const FallbackCategory = "Others"

// UnknownMerchant is reported when no merchant could be extracted.
const UnknownMerchant = "Unknown"

// UnknownBank is reported when no adapter claims a document.
const UnknownBank = "UNKNOWN"

// Source identifies which enrichment path produced a value.
type Source string

const (
	SourceML     Source = "ml"
	SourceRules  Source = "rules"
	SourceHybrid Source = "hybrid"
)

// Confidence is a [0,1] score plus the path it came from.
type Confidence struct {
	Score  float64 `json:"score"`
	Source Source  `json:"source"`
}

// Transaction is the final, enriched record emitted for one statement line.
type Transaction struct {
	ID            string      `json:"id"`
	Date          time.Time   `json:"date"`
	Amount        float64     `json:"amount"`
	Description   string      `json:"description"`
	Type          string      `json:"type"`
	Category      string      `json:"category"`
	Subcategory   string      `json:"subcategory,omitempty"`
	Merchant      string      `json:"merchant,omitempty"`
	Account       string      `json:"account"`
	PaymentMethod string      `json:"payment_method"`
	IsRecurring   bool        `json:"is_recurring"`
	Tags          []string    `json:"tags"`
	Notes         string      `json:"notes,omitempty"`
	IsVerified    bool        `json:"is_verified"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
	Confidence    *Confidence `json:"confidence,omitempty"`
}

// IsDebit reports whether money left the account.
func (t Transaction) IsDebit() bool {
	return t.Type == TypeDebit
}

// SignedAmount returns the amount negated for debits.
func (t Transaction) SignedAmount() float64 {
	if t.IsDebit() {
		return -t.Amount
	}
	return t.Amount
}

// Enrichment carries the fields derived for one raw record.
type Enrichment struct {
	Merchant      string
	Category      string
	Subcategory   string
	PaymentMethod string
	IsRecurring   bool
	Tags          []string
	Notes         string
	Confidence    *Confidence
}
