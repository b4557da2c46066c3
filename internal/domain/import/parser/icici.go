package parser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/echo-statements/internal/domain/import/sniffer"
	"github.com/FACorreiaa/echo-statements/internal/domain/statement"
	"github.com/FACorreiaa/echo-statements/internal/domain/statement/layout"
	"github.com/FACorreiaa/echo-statements/internal/domain/statement/segmenter"
)

// transactionNamespace seeds the deterministic transaction IDs.
var transactionNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("echo-statements.transaction"))

// TransactionID derives a stable ID from the bank, account, date and the
// record's position in the parse run.
func TransactionID(bank, account string, date time.Time, index int) string {
	name := fmt.Sprintf("%s|%s|%s|%d", bank, account, date.Format("20060102"), index)
	return uuid.NewSHA1(transactionNamespace, []byte(name)).String()
}

// ICICIAdapter parses the reference ICICI statement layout.
type ICICIAdapter struct {
	decoder   Decoder
	cleaner   segmenter.TextCleaner
	enricher  Enricher
	signature sniffer.BankSignature
	workers   int
	logger    *slog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewICICIAdapter creates the adapter. A nil logger uses slog.Default.
func NewICICIAdapter(decoder Decoder, cleaner segmenter.TextCleaner, enricher Enricher, logger *slog.Logger) *ICICIAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ICICIAdapter{
		decoder:   decoder,
		cleaner:   cleaner,
		enricher:  enricher,
		signature: sniffer.ICICISignature,
		workers:   runtime.GOMAXPROCS(0),
		logger:    logger,
		tracer:    otel.Tracer("echo-statements/parser"),
		now:       time.Now,
	}
}

// WithWorkers bounds the per-page enrichment pool. Values below 1 mean one.
func (a *ICICIAdapter) WithWorkers(n int) *ICICIAdapter {
	a.workers = max(n, 1)
	return a
}

// WithClock overrides the timestamp source for CreatedAt/UpdatedAt.
func (a *ICICIAdapter) WithClock(now func() time.Time) *ICICIAdapter {
	a.now = now
	return a
}

// Bank returns the bank identifier.
func (a *ICICIAdapter) Bank() string {
	return a.signature.Bank
}

// CanParse claims PDFs whose name carries the bank hint or whose first page
// mentions the bank.
func (a *ICICIAdapter) CanParse(data []byte, fileName string) bool {
	if !sniffer.IsPDF(data) {
		return false
	}
	if a.signature.MatchesFileName(fileName) {
		return true
	}

	doc, err := a.decoder.Open(data)
	if err != nil || doc.NumPages() == 0 {
		return false
	}
	fragments, err := doc.Fragments(1)
	if err != nil {
		return false
	}
	return a.signature.MatchesText(pageText(fragments))
}

func pageText(fragments []layout.Fragment) string {
	rows := layout.GroupRows(fragments)
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, r.Text())
	}
	return strings.Join(lines, "\n")
}

// Parse decodes the document and returns its transactions in statement order.
// Unreadable pages and malformed records become warnings. Cancellation is
// checked between pages and discards all output.
func (a *ICICIAdapter) Parse(ctx context.Context, data []byte, progress ProgressFunc) (*Result, error) {
	ctx, span := a.tracer.Start(ctx, "ICICIAdapter.Parse")
	defer span.End()

	report := MonotonicProgress(progress)

	doc, err := a.decoder.Open(data)
	if err != nil {
		if !errors.Is(err, ErrDecodeFailed) {
			err = fmt.Errorf("%w: %v", ErrDecodeFailed, err)
		}
		span.RecordError(err)
		return nil, fmt.Errorf("%s statement: %w", a.Bank(), err)
	}

	result := &Result{Bank: a.Bank(), Transactions: []statement.Transaction{}}
	total := doc.NumPages()
	span.SetAttributes(attribute.Int("statement.pages", total))

	seg := segmenter.New(a.cleaner)
	index := 0
	for page := 1; page <= total; page++ {
		if err := ctx.Err(); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("parse cancelled before page %d: %w", page, err)
		}

		fragments, err := doc.Fragments(page)
		if err != nil {
			a.logger.Warn("failed to read page", "page", page, "error", err)
			result.warn(fmt.Sprintf("page %d: text could not be read: %v", page, err))
			report(page*100/total, pageMessage(page, total))
			continue
		}

		rows := layout.GroupRows(fragments)
		if page == 1 {
			result.Account = segmenter.ExtractAccountNumber(rows)
			if !sniffer.LooksLikeStatement(pageText(fragments)) {
				a.logger.Debug("first page has no statement keywords")
			}
		}

		txns, err := a.convert(ctx, seg.Segment(rows), result, &index)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("parse cancelled on page %d: %w", page, err)
		}
		result.Transactions = append(result.Transactions, txns...)
		report(page*100/total, pageMessage(page, total))
	}
	report(100, "done")

	span.SetAttributes(
		attribute.Int("statement.transactions", len(result.Transactions)),
		attribute.Int("statement.warnings", len(result.Warnings)),
	)
	a.logger.Info("statement parsed",
		"bank", result.Bank,
		"pages", total,
		"transactions", len(result.Transactions),
		"warnings", len(result.Warnings),
	)
	return result, nil
}

type pendingRecord struct {
	raw   segmenter.RawTransaction
	date  time.Time
	index int
}

func pageMessage(page, total int) string {
	return fmt.Sprintf("page %d of %d", page, total)
}

// convert validates one page of records and enriches them on a bounded pool.
// Output order matches input order. The only error is ctx cancellation.
func (a *ICICIAdapter) convert(ctx context.Context, raws []segmenter.RawTransaction, result *Result, index *int) ([]statement.Transaction, error) {
	pending := make([]pendingRecord, 0, len(raws))
	for _, raw := range raws {
		date, err := segmenter.ParseDate(raw.Date)
		if err != nil {
			a.logger.Warn("dropping record with invalid date", "date", raw.Date, "error", err)
			result.warn(fmt.Sprintf("dropped %q: %v", raw.Description, err))
			continue
		}
		pending = append(pending, pendingRecord{raw: raw, date: date, index: *index})
		*index++
	}

	out := make([]statement.Transaction, len(pending))
	now := a.now().UTC()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, p := range pending {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			e := a.enricher.Enrich(gctx, p.raw.Description, p.raw.Amount, string(p.raw.Type))
			out[i] = a.transaction(p, result.Account, e, now)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *ICICIAdapter) transaction(p pendingRecord, account string, e statement.Enrichment, now time.Time) statement.Transaction {
	typ := statement.TypeDebit
	if p.raw.Type == segmenter.Credit {
		typ = statement.TypeCredit
	}
	category := e.Category
	if category == "" {
		category = statement.FallbackCategory
	}
	tags := e.Tags
	if tags == nil {
		tags = []string{}
	}

	return statement.Transaction{
		ID:            TransactionID(a.Bank(), account, p.date, p.index),
		Date:          p.date,
		Amount:        p.raw.Amount,
		Description:   p.raw.Description,
		Type:          typ,
		Category:      category,
		Subcategory:   e.Subcategory,
		Merchant:      e.Merchant,
		Account:       account,
		PaymentMethod: e.PaymentMethod,
		IsRecurring:   e.IsRecurring,
		Tags:          tags,
		Notes:         e.Notes,
		IsVerified:    false,
		CreatedAt:     now,
		UpdatedAt:     now,
		Confidence:    e.Confidence,
	}
}
