// Package segmenter turns ordered statement rows into raw transaction records.
// A record is anchored by a row carrying a date token and may continue over
// following rows until the next date anchor or the end of the page.
package segmenter

import (
	"regexp"
	"strings"

	"github.com/FACorreiaa/echo-statements/internal/domain/statement/layout"
)

// TxnType is the debit/credit marker printed on the statement.
type TxnType string

const (
	Debit  TxnType = "DR"
	Credit TxnType = "CR"
)

// RawTransaction is an unenriched record recovered from one or more rows.
type RawTransaction struct {
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Type        TxnType `json:"type"`
}

// TextCleaner strips statement boilerplate and recognises system lines.
type TextCleaner interface {
	CleanDescription(s string) string
	IsSystemText(line string) bool
}

var (
	dateToken   = regexp.MustCompile(`^\d{2}[-/]\d{2}[-/]\d{4}$`)
	typeToken   = regexp.MustCompile(`(?i)^(DR|CR)$`)
	amountToken = regexp.MustCompile(`^(\d{1,3}(,\d{3})+|\d+)(\.\d{2})?$`)
)

// Segmenter assembles raw transactions from rows.
type Segmenter struct {
	cleaner TextCleaner
}

// New creates a segmenter using the given cleaner for boilerplate filtering.
func New(cleaner TextCleaner) *Segmenter {
	return &Segmenter{cleaner: cleaner}
}

type openRecord struct {
	date   string
	amount *float64
	typ    TxnType
	parts  []string
}

// Segment scans the rows of one page and returns the finalized records in order.
// It holds no state between calls.
func (s *Segmenter) Segment(rows []layout.Row) []RawTransaction {
	var (
		out     []RawTransaction
		current *openRecord
	)

	finalize := func() {
		if current == nil {
			return
		}
		if tx, ok := s.finalize(current); ok {
			out = append(out, tx)
		}
		current = nil
	}

	for _, row := range rows {
		tokens := s.tokens(row)
		if len(tokens) == 0 {
			continue
		}

		dateIdx := -1
		for i, tok := range tokens {
			if dateToken.MatchString(tok) {
				dateIdx = i
				break
			}
		}

		if dateIdx >= 0 {
			finalize()
			current = &openRecord{date: tokens[dateIdx]}
			rest := make([]string, 0, len(tokens)-1)
			rest = append(rest, tokens[:dateIdx]...)
			rest = append(rest, tokens[dateIdx+1:]...)
			current.scan(rest)
			continue
		}

		if current != nil {
			current.scan(tokens)
		}
	}
	finalize()

	return out
}

func (s *Segmenter) tokens(row layout.Row) []string {
	tokens := make([]string, 0, len(row))
	for _, f := range row {
		text := strings.TrimSpace(f.Text)
		if text == "" {
			continue
		}
		if s.cleaner != nil && s.cleaner.IsSystemText(text) {
			continue
		}
		tokens = append(tokens, text)
	}
	return tokens
}

// scan applies the per-token rules: type and amount fill only when unset,
// everything else longer than one character becomes description.
func (r *openRecord) scan(tokens []string) {
	for _, tok := range tokens {
		switch {
		case typeToken.MatchString(tok):
			if r.typ == "" {
				r.typ = TxnType(strings.ToUpper(tok))
			}
		case amountToken.MatchString(tok):
			if r.amount == nil {
				if v, err := ParseAmount(tok); err == nil {
					r.amount = &v
				}
			}
		case dateToken.MatchString(tok):
			// value dates printed next to the transaction date
		case len(tok) > 1:
			r.parts = append(r.parts, tok)
		}
	}
}

func (s *Segmenter) finalize(r *openRecord) (RawTransaction, bool) {
	if r.date == "" || r.amount == nil {
		return RawTransaction{}, false
	}

	description := strings.Join(r.parts, " ")
	if s.cleaner != nil {
		description = s.cleaner.CleanDescription(description)
	} else {
		description = strings.Join(strings.Fields(description), " ")
	}
	if description == "" {
		return RawTransaction{}, false
	}

	typ := r.typ
	if typ == "" {
		typ = Debit
	}

	return RawTransaction{
		Date:        r.date,
		Description: description,
		Amount:      *r.amount,
		Type:        typ,
	}, true
}
