package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/echo-statements/internal/domain/import/parser"
	"github.com/FACorreiaa/echo-statements/internal/domain/import/sniffer"
	"github.com/FACorreiaa/echo-statements/internal/domain/statement"
	"github.com/FACorreiaa/echo-statements/pkg/metrics"
)

type stubAdapter struct {
	bank   string
	claims bool
	result *parser.Result
	err    error
	block  bool
}

func (s *stubAdapter) Bank() string { return s.bank }

func (s *stubAdapter) CanParse([]byte, string) bool { return s.claims }

func (s *stubAdapter) Parse(ctx context.Context, _ []byte, progress parser.ProgressFunc) (*parser.Result, error) {
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if progress != nil {
		progress(100, "done")
	}
	return s.result, s.err
}

func newTestService(adapters ...parser.Adapter) *StatementService {
	return NewStatementService(parser.NewRegistry(adapters...), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func txn(category string, amount float64, typ string, day int) statement.Transaction {
	return statement.Transaction{
		Category:   category,
		Amount:     amount,
		Type:       typ,
		Date:       time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC),
		Confidence: &statement.Confidence{Score: 0.8, Source: statement.SourceML},
	}
}

func TestStatementService_Process(t *testing.T) {
	t.Run("empty upload", func(t *testing.T) {
		_, err := newTestService().Process(context.Background(), nil, "a.pdf", nil)
		assert.ErrorIs(t, err, sniffer.ErrEmptyFile)
	})

	t.Run("no adapter is not an error", func(t *testing.T) {
		m := metrics.New()
		svc := newTestService(&stubAdapter{bank: "ICICI"}).WithMetrics(m)

		res, err := svc.Process(context.Background(), []byte("%PDF-1.4"), "hdfc.pdf", nil)
		require.NoError(t, err)
		assert.True(t, res.NoAdapter())
		assert.ErrorIs(t, res.Err(), ErrNoAdapter)
		assert.Equal(t, statement.UnknownBank, res.Bank)
		assert.NotNil(t, res.Transactions)
		assert.Empty(t, res.Transactions)
		assert.Equal(t, []string{NoAdapterWarning}, res.Warnings)
	})

	t.Run("parsed result", func(t *testing.T) {
		m := metrics.New()
		adapter := &stubAdapter{bank: "ICICI", claims: true, result: &parser.Result{
			Bank:         "ICICI",
			Transactions: []statement.Transaction{txn("Shopping", 10, statement.TypeDebit, 1)},
			Warnings:     []string{"dropped"},
		}}
		var got []int
		res, err := newTestService(adapter).WithMetrics(m).
			Process(context.Background(), []byte("%PDF-1.4"), "icici.pdf", func(p int, _ string) { got = append(got, p) })
		require.NoError(t, err)

		assert.False(t, res.NoAdapter())
		assert.NoError(t, res.Err())
		assert.Equal(t, "ICICI", res.Bank)
		assert.Len(t, res.Transactions, 1)
		assert.Equal(t, []int{100}, got)
	})

	t.Run("parse error is wrapped", func(t *testing.T) {
		adapter := &stubAdapter{bank: "ICICI", claims: true, err: parser.ErrDecodeFailed}
		res, err := newTestService(adapter).Process(context.Background(), []byte("%PDF-1.4"), "icici.pdf", nil)
		assert.Nil(t, res)
		assert.ErrorIs(t, err, parser.ErrDecodeFailed)
	})

	t.Run("timeout cancels the parse", func(t *testing.T) {
		adapter := &stubAdapter{bank: "ICICI", claims: true, block: true}
		_, err := newTestService(adapter).WithTimeout(10*time.Millisecond).
			Process(context.Background(), []byte("%PDF-1.4"), "icici.pdf", nil)
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
	})
}

func TestStatementService_Banks(t *testing.T) {
	svc := newTestService(&stubAdapter{bank: "ICICI"}, &stubAdapter{bank: "HDFC"})
	assert.Equal(t, []string{"ICICI", "HDFC"}, svc.Banks())
}

func TestStatementService_Metrics(t *testing.T) {
	m := metrics.New()
	adapter := &stubAdapter{bank: "ICICI", claims: true, result: &parser.Result{
		Bank: "ICICI",
		Transactions: []statement.Transaction{
			txn("Shopping", 10, statement.TypeDebit, 1),
			txn("Salary", 1000, statement.TypeCredit, 2),
		},
	}}
	svc := newTestService(adapter).WithMetrics(m)

	_, err := svc.Process(context.Background(), []byte("%PDF-1.4"), "icici.pdf", nil)
	require.NoError(t, err)

	_, err = svc.Process(context.Background(), []byte("%PDF-1.4"), "icici.pdf", nil)
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(m.Registry(), "statements_transactions_total", "statements_enrichment_source_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
