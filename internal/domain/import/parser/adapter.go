package parser

import (
	"context"
	"sync"

	"github.com/FACorreiaa/echo-statements/internal/domain/statement"
)

// ProgressFunc receives parse progress as a percentage in [0, 100] and an
// optional short message such as "page 2 of 5". The last call carries 100.
type ProgressFunc func(percent int, message string)

// Progress is one progress update.
type Progress struct {
	Percent int
	Message string
}

// Result is the outcome of parsing one statement document.
type Result struct {
	Bank         string                  `json:"bank"`
	Account      string                  `json:"account,omitempty"`
	Transactions []statement.Transaction `json:"transactions"`
	Warnings     []string                `json:"warnings,omitempty"`
}

func (r *Result) warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// Adapter parses the statements of one bank layout.
type Adapter interface {
	Bank() string
	CanParse(data []byte, fileName string) bool
	Parse(ctx context.Context, data []byte, progress ProgressFunc) (*Result, error)
}

// Enricher derives merchant, category and the other enrichment fields for a
// raw record. Implementations must not fail; they degrade instead.
type Enricher interface {
	Enrich(ctx context.Context, description string, amount float64, txnType string) statement.Enrichment
}

// EnricherFunc adapts a function to the Enricher interface.
type EnricherFunc func(ctx context.Context, description string, amount float64, txnType string) statement.Enrichment

// Enrich calls f.
func (f EnricherFunc) Enrich(ctx context.Context, description string, amount float64, txnType string) statement.Enrichment {
	return f(ctx, description, amount, txnType)
}

// ChannelProgress forwards progress to ch without blocking. Intermediate
// updates are dropped while the channel is full; the final 100 replaces the
// oldest buffered update instead, so a buffered ch always ends with it.
func ChannelProgress(ch chan Progress) ProgressFunc {
	return func(percent int, message string) {
		p := Progress{Percent: percent, Message: message}
		if percent < 100 || cap(ch) == 0 {
			select {
			case ch <- p:
			default:
			}
			return
		}
		for {
			select {
			case ch <- p:
				return
			default:
			}
			select {
			case <-ch:
			default:
			}
		}
	}
}

// MonotonicProgress clamps values to [0, 100] and forwards only increases.
// A nil fn yields a no-op.
func MonotonicProgress(fn ProgressFunc) ProgressFunc {
	if fn == nil {
		return func(int, string) {}
	}
	var (
		mu   sync.Mutex
		last = -1
	)
	return func(percent int, message string) {
		percent = max(0, min(percent, 100))
		mu.Lock()
		if percent <= last {
			mu.Unlock()
			return
		}
		last = percent
		mu.Unlock()
		fn(percent, message)
	}
}

// Registry holds the known adapters in detection order.
type Registry struct {
	mu       sync.RWMutex
	adapters []Adapter
}

// NewRegistry creates a registry with the given adapters.
func NewRegistry(adapters ...Adapter) *Registry {
	return &Registry{adapters: adapters}
}

// Register appends an adapter.
func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters = append(r.adapters, a)
}

// Detect returns the first adapter that claims the document.
func (r *Registry) Detect(data []byte, fileName string) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.adapters {
		if a.CanParse(data, fileName) {
			return a, true
		}
	}
	return nil, false
}

// Banks lists the registered bank names.
func (r *Registry) Banks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.adapters))
	for _, a := range r.adapters {
		out = append(out, a.Bank())
	}
	return out
}
