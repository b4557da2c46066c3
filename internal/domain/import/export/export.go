// Package export writes parsed transactions as CSV, XLSX or JSON.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/echo-statements/internal/domain/import/parser"
	"github.com/FACorreiaa/echo-statements/internal/domain/statement"
	"github.com/FACorreiaa/echo-statements/pkg/money"
)

// Format is an output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ErrUnknownFormat is returned for unsupported formats.
var ErrUnknownFormat = errors.New("unknown export format")

// ParseFormat accepts json, csv and xlsx in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatCSV, FormatXLSX:
		return f, nil
	case "":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Row is the flat, spreadsheet-friendly form of a transaction.
type Row struct {
	ID            string  `csv:"id"`
	Date          string  `csv:"date"`
	Description   string  `csv:"description"`
	Type          string  `csv:"type"`
	Amount        string  `csv:"amount"`
	Display       string  `csv:"display_amount"`
	Merchant      string  `csv:"merchant"`
	Category      string  `csv:"category"`
	Subcategory   string  `csv:"subcategory"`
	PaymentMethod string  `csv:"payment_method"`
	Recurring     bool    `csv:"is_recurring"`
	Tags          string  `csv:"tags"`
	Notes         string  `csv:"notes"`
	Account       string  `csv:"account"`
	Confidence    float64 `csv:"confidence"`
	Source        string  `csv:"source"`
}

var headers = []string{
	"id", "date", "description", "type", "amount", "display_amount", "merchant", "category",
	"subcategory", "payment_method", "is_recurring", "tags", "notes", "account", "confidence", "source",
}

// Rows flattens transactions. Amounts are rendered in currencyCode.
func Rows(txns []statement.Transaction, currencyCode string) []*Row {
	rows := make([]*Row, 0, len(txns))
	for _, t := range txns {
		m := money.NewFromFloat(t.Amount, currencyCode)
		row := &Row{
			ID:            t.ID,
			Date:          t.Date.Format("2006-01-02"),
			Description:   t.Description,
			Type:          t.Type,
			Amount:        m.String(),
			Display:       m.Display(),
			Merchant:      t.Merchant,
			Category:      t.Category,
			Subcategory:   t.Subcategory,
			PaymentMethod: t.PaymentMethod,
			Recurring:     t.IsRecurring,
			Tags:          strings.Join(t.Tags, ";"),
			Notes:         t.Notes,
			Account:       t.Account,
		}
		if t.Confidence != nil {
			row.Confidence = t.Confidence.Score
			row.Source = string(t.Confidence.Source)
		}
		rows = append(rows, row)
	}
	return rows
}

func (r *Row) values() []any {
	return []any{
		r.ID, r.Date, r.Description, r.Type, r.Amount, r.Display, r.Merchant, r.Category,
		r.Subcategory, r.PaymentMethod, r.Recurring, r.Tags, r.Notes, r.Account, r.Confidence, r.Source,
	}
}

// Write encodes res in the given format.
func Write(w io.Writer, format Format, res *parser.Result) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, res)
	case FormatCSV:
		return WriteCSV(w, res.Transactions)
	case FormatXLSX:
		return WriteXLSX(w, res)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// WriteJSON writes the whole result, indented.
func WriteJSON(w io.Writer, res *parser.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}
	return nil
}

// WriteCSV writes one header line and one line per transaction.
func WriteCSV(w io.Writer, txns []statement.Transaction) error {
	rows := Rows(txns, money.DefaultCurrency)
	if len(rows) == 0 {
		_, err := io.WriteString(w, strings.Join(headers, ",")+"\n")
		return err
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("failed to encode csv: %w", err)
	}
	return nil
}

const (
	transactionsSheet = "Transactions"
	warningsSheet     = "Warnings"
)

// WriteXLSX writes a workbook with a Transactions sheet and, when present, a
// Warnings sheet.
func WriteXLSX(w io.Writer, res *parser.Result) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), transactionsSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(transactionsSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range Rows(res.Transactions, money.DefaultCurrency) {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := row.values()
		if err := f.SetSheetRow(transactionsSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	if err := f.SetPanes(transactionsSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	if len(res.Warnings) > 0 {
		if _, err := f.NewSheet(warningsSheet); err != nil {
			return fmt.Errorf("failed to add warnings sheet: %w", err)
		}
		for i, warning := range res.Warnings {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(warningsSheet, cell, warning); err != nil {
				return err
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
