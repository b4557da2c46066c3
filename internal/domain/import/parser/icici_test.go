package parser

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/echo-statements/internal/domain/categorization"
	"github.com/FACorreiaa/echo-statements/internal/domain/classification"
	"github.com/FACorreiaa/echo-statements/internal/domain/import/normalizer"
	"github.com/FACorreiaa/echo-statements/internal/domain/statement"
	"github.com/FACorreiaa/echo-statements/internal/domain/statement/layout"
	"github.com/FACorreiaa/echo-statements/internal/domain/statement/statementtest"
)

var fixedNow = time.Date(2024, 4, 1, 9, 30, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// echoEnricher reports the description back as the merchant.
var echoEnricher = EnricherFunc(func(_ context.Context, desc string, _ float64, _ string) statement.Enrichment {
	return statement.Enrichment{Merchant: desc, PaymentMethod: "UPI"}
})

func newTestAdapter(doc *fakeDocument, enricher Enricher) *ICICIAdapter {
	return NewICICIAdapter(fakeDecoder{doc: doc}, normalizer.DefaultTextNormalizer(), enricher, discardLogger()).
		WithClock(func() time.Time { return fixedNow })
}

func headerPage(rows ...[]layout.Fragment) []layout.Fragment {
	header := [][]layout.Fragment{
		line(780, "ICICI BANK LIMITED"),
		line(760, "Account Number", ":", "000401234567"),
		line(740, "Date", "Particulars", "Amount", "Type"),
	}
	return page(append(header, rows...)...)
}

func TestICICIAdapter_NetflixRow(t *testing.T) {
	rules := categorization.NewRuleEnricher(categorization.DefaultRules(), normalizer.NewMerchantNormalizer(normalizer.PolicyLenient))
	pipeline, err := classification.NewPipeline(classification.DefaultConfig(), rules, normalizer.DefaultTextNormalizer(), discardLogger())
	require.NoError(t, err)

	doc := &fakeDocument{pages: [][]layout.Fragment{
		headerPage(line(700, "15-03-2024", "UPI/NETFLIX/123", "199.00", "DR")),
	}}

	res, err := newTestAdapter(doc, pipeline).Parse(context.Background(), pdfBytes, nil)
	require.NoError(t, err)

	assert.Equal(t, "ICICI", res.Bank)
	assert.Equal(t, "000401234567", res.Account)
	assert.Empty(t, res.Warnings)
	require.Len(t, res.Transactions, 1)

	tx := res.Transactions[0]
	assert.True(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC).Equal(tx.Date))
	assert.Equal(t, 199.0, tx.Amount)
	assert.Equal(t, "UPI/NETFLIX/123", tx.Description)
	assert.Equal(t, statement.TypeDebit, tx.Type)
	assert.Equal(t, "Netflix", tx.Merchant)
	assert.Equal(t, "Entertainment", tx.Category)
	assert.Equal(t, "Streaming Services", tx.Subcategory)
	assert.Equal(t, "UPI", tx.PaymentMethod)
	assert.True(t, tx.IsRecurring)
	assert.False(t, tx.IsVerified)
	assert.Equal(t, "000401234567", tx.Account)
	assert.Equal(t, fixedNow, tx.CreatedAt)
	assert.Equal(t, TransactionID("ICICI", "000401234567", tx.Date, 0), tx.ID)
	require.NotNil(t, tx.Confidence)
}

func TestICICIAdapter_PageFailureBecomesWarning(t *testing.T) {
	doc := &fakeDocument{
		pages: [][]layout.Fragment{
			headerPage(line(700, "01-03-2024", "UPI/SWIGGY/1", "450.00", "DR")),
			nil,
			page(line(700, "03-03-2024", "UPI/ZOMATO/2", "320.00", "DR")),
		},
		pageErr: map[int]error{2: errors.New("broken content stream")},
	}

	res, err := newTestAdapter(doc, echoEnricher).Parse(context.Background(), pdfBytes, nil)
	require.NoError(t, err)

	require.Len(t, res.Transactions, 2)
	assert.Equal(t, "UPI/SWIGGY/1", res.Transactions[0].Description)
	assert.Equal(t, "UPI/ZOMATO/2", res.Transactions[1].Description)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "page 2")
}

func TestICICIAdapter_InvalidDateDropped(t *testing.T) {
	doc := &fakeDocument{pages: [][]layout.Fragment{
		headerPage(
			line(700, "31-02-2024", "UPI/UBER/7", "210.00", "DR"),
			line(680, "01-03-2024", "NEFT-N99-ACME SALARY", "85,000.00", "CR"),
		),
	}}

	res, err := newTestAdapter(doc, echoEnricher).Parse(context.Background(), pdfBytes, nil)
	require.NoError(t, err)

	require.Len(t, res.Transactions, 1)
	tx := res.Transactions[0]
	assert.Equal(t, statement.TypeCredit, tx.Type)
	assert.Equal(t, 85000.0, tx.Amount)
	assert.Equal(t, statement.FallbackCategory, tx.Category)
	assert.NotNil(t, tx.Tags)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "UPI/UBER/7")
}

func TestICICIAdapter_DecodeFailure(t *testing.T) {
	adapter := NewICICIAdapter(fakeDecoder{err: errors.New("xref table missing")}, normalizer.DefaultTextNormalizer(), echoEnricher, discardLogger())

	res, err := adapter.Parse(context.Background(), pdfBytes, nil)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrDecodeFailed)
}

func TestICICIAdapter_Cancellation(t *testing.T) {
	doc := &fakeDocument{pages: [][]layout.Fragment{
		page(line(700, "01-03-2024", "UPI/SWIGGY/1", "450.00", "DR")),
		page(line(700, "02-03-2024", "UPI/SWIGGY/2", "450.00", "DR")),
	}}

	t.Run("before parsing", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		res, err := newTestAdapter(doc, echoEnricher).Parse(ctx, pdfBytes, nil)
		assert.Nil(t, res)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("between pages", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		res, err := newTestAdapter(doc, echoEnricher).Parse(ctx, pdfBytes, func(int, string) { cancel() })
		assert.Nil(t, res)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("during enrichment", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		cancelling := EnricherFunc(func(ctx context.Context, desc string, amount float64, typ string) statement.Enrichment {
			cancel()
			return echoEnricher(ctx, desc, amount, typ)
		})
		single := &fakeDocument{pages: [][]layout.Fragment{page(
			line(700, "01-03-2024", "UPI/SWIGGY/1", "450.00", "DR"),
			line(680, "02-03-2024", "UPI/SWIGGY/2", "450.00", "DR"),
		)}}

		res, err := newTestAdapter(single, cancelling).WithWorkers(1).Parse(ctx, pdfBytes, nil)
		assert.Nil(t, res)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestICICIAdapter_Progress(t *testing.T) {
	doc := &fakeDocument{pages: [][]layout.Fragment{
		page(line(700, "01-03-2024", "UPI/SWIGGY/1", "450.00", "DR")),
		page(line(700, "02-03-2024", "UPI/SWIGGY/2", "450.00", "DR")),
		page(line(700, "03-03-2024", "UPI/SWIGGY/3", "450.00", "DR")),
	}}

	var (
		got      []int
		messages []string
	)
	_, err := newTestAdapter(doc, echoEnricher).Parse(context.Background(), pdfBytes, func(p int, msg string) {
		got = append(got, p)
		messages = append(messages, msg)
	})
	require.NoError(t, err)
	assert.Equal(t, []int{33, 66, 100}, got)
	assert.Equal(t, []string{"page 1 of 3", "page 2 of 3", "page 3 of 3"}, messages)
}

func TestICICIAdapter_OrderAndIDs(t *testing.T) {
	gen := statementtest.New(99)
	fragments, lines := gen.Page(40)
	doc := &fakeDocument{pages: [][]layout.Fragment{gen.Shuffle(fragments)}}

	var (
		mu    sync.Mutex
		calls int
	)
	enricher := EnricherFunc(func(ctx context.Context, desc string, amount float64, typ string) statement.Enrichment {
		mu.Lock()
		calls++
		mu.Unlock()
		return echoEnricher(ctx, desc, amount, typ)
	})

	first, err := newTestAdapter(doc, enricher).WithWorkers(8).Parse(context.Background(), pdfBytes, nil)
	require.NoError(t, err)
	second, err := newTestAdapter(doc, enricher).WithWorkers(1).Parse(context.Background(), pdfBytes, nil)
	require.NoError(t, err)

	assert.Equal(t, 80, calls)
	require.Len(t, first.Transactions, len(lines))

	seen := make(map[string]bool)
	for i, l := range lines {
		tx := first.Transactions[i]
		assert.Equal(t, l.Description, tx.Description)
		assert.Equal(t, tx.Description, tx.Merchant)
		assert.Equal(t, second.Transactions[i].ID, tx.ID)
		assert.False(t, seen[tx.ID], "duplicate id %s", tx.ID)
		seen[tx.ID] = true
	}
}

func TestICICIAdapter_CanParse(t *testing.T) {
	icici := &fakeDocument{pages: [][]layout.Fragment{headerPage()}}
	other := &fakeDocument{pages: [][]layout.Fragment{page(line(780, "HDFC BANK LTD"))}}

	tests := []struct {
		name     string
		doc      *fakeDocument
		data     []byte
		fileName string
		want     bool
	}{
		{"file name hint", other, pdfBytes, "ICICI_March.pdf", true},
		{"page text", icici, pdfBytes, "statement.pdf", true},
		{"other bank", other, pdfBytes, "statement.pdf", false},
		{"not a pdf", icici, []byte("Date,Amount"), "icici.csv", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, newTestAdapter(tt.doc, echoEnricher).CanParse(tt.data, tt.fileName))
		})
	}
}

func TestTransactionID(t *testing.T) {
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	id := TransactionID("ICICI", "0004", date, 0)

	assert.Equal(t, id, TransactionID("ICICI", "0004", date, 0))
	assert.NotEqual(t, id, TransactionID("ICICI", "0004", date, 1))
	assert.NotEqual(t, id, TransactionID("ICICI", "0005", date, 0))
	assert.Len(t, strings.ReplaceAll(id, "-", ""), 32)
}
