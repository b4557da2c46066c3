// Package service orchestrates statement imports: adapter detection, parsing
// under a deadline, metrics and the per-import summary.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/FACorreiaa/echo-statements/internal/domain/import/parser"
	"github.com/FACorreiaa/echo-statements/internal/domain/import/sniffer"
	"github.com/FACorreiaa/echo-statements/internal/domain/statement"
	"github.com/FACorreiaa/echo-statements/pkg/metrics"
)

// ErrNoAdapter reports that no registered adapter recognised the document.
var ErrNoAdapter = errors.New("no adapter for this statement")

// NoAdapterWarning is the user-facing message for unrecognised documents.
const NoAdapterWarning = "This statement format is not supported yet. Only ICICI Bank PDF statements can be parsed."

// Result is the outcome of one import.
type Result struct {
	parser.Result
	Duration  time.Duration `json:"-"`
	noAdapter bool
}

// NoAdapter reports whether the document was not recognised by any adapter.
func (r *Result) NoAdapter() bool {
	return r != nil && r.noAdapter
}

// Err returns ErrNoAdapter for unrecognised documents and nil otherwise.
func (r *Result) Err() error {
	if r.NoAdapter() {
		return ErrNoAdapter
	}
	return nil
}

// StatementService detects the adapter for an upload and runs it.
type StatementService struct {
	registry *parser.Registry
	metrics  *metrics.Metrics
	timeout  time.Duration
	logger   *slog.Logger
}

// NewStatementService creates a service over the given adapters.
func NewStatementService(registry *parser.Registry, logger *slog.Logger) *StatementService {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatementService{
		registry: registry,
		logger:   logger,
	}
}

// WithMetrics records parse outcomes on m.
func (s *StatementService) WithMetrics(m *metrics.Metrics) *StatementService {
	s.metrics = m
	return s
}

// WithTimeout bounds each Process call. Zero disables the deadline.
func (s *StatementService) WithTimeout(d time.Duration) *StatementService {
	s.timeout = d
	return s
}

// Banks lists the supported banks.
func (s *StatementService) Banks() []string {
	return s.registry.Banks()
}

// Process parses one uploaded document. Unrecognised documents are not an
// error: the result carries the UNKNOWN bank, no transactions and a warning.
func (s *StatementService) Process(ctx context.Context, data []byte, fileName string, progress parser.ProgressFunc) (*Result, error) {
	start := time.Now()
	if len(data) == 0 {
		return nil, sniffer.ErrEmptyFile
	}

	adapter, ok := s.registry.Detect(data, fileName)
	if !ok {
		s.logger.Info("no adapter for statement", "file", fileName, "size", len(data))
		res := &Result{
			Result: parser.Result{
				Bank:         statement.UnknownBank,
				Transactions: []statement.Transaction{},
				Warnings:     []string{NoAdapterWarning},
			},
			noAdapter: true,
		}
		res.Duration = time.Since(start)
		s.metrics.ObserveParse(statement.UnknownBank, metrics.OutcomeNoAdapter, res.Duration, 0, 1)
		return res, nil
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	parsed, err := adapter.Parse(ctx, data, progress)
	elapsed := time.Since(start)
	if err != nil {
		outcome := metrics.OutcomeError
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			outcome = metrics.OutcomeCancelled
		}
		s.metrics.ObserveParse(adapter.Bank(), outcome, elapsed, 0, 0)
		s.logger.Warn("statement parse failed", "bank", adapter.Bank(), "file", fileName, "error", err)
		return nil, fmt.Errorf("failed to parse %s statement: %w", adapter.Bank(), err)
	}

	s.metrics.ObserveParse(parsed.Bank, metrics.OutcomeOK, elapsed, len(parsed.Transactions), len(parsed.Warnings))
	for _, txn := range parsed.Transactions {
		if txn.Confidence != nil {
			s.metrics.ObserveSource(string(txn.Confidence.Source))
		}
	}

	s.logger.Info("statement processed",
		"bank", parsed.Bank,
		"file", fileName,
		"transactions", len(parsed.Transactions),
		"warnings", len(parsed.Warnings),
		"duration", elapsed,
	)
	return &Result{Result: *parsed, Duration: elapsed}, nil
}
