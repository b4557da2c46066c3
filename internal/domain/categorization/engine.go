package categorization

import (
	"sort"
	"strings"
	"sync"

	"github.com/cloudflare/ahocorasick"

	"github.com/FACorreiaa/echo-statements/internal/domain/import/normalizer"
)

// Keyword is one pattern fed to the engine together with what it resolves to.
type Keyword struct {
	Pattern  string // The original pattern
	Value    string // The value this pattern resolves to (category, payment method, ...)
	Index    int    // Position of the owning entry in its ordered table
	Priority int    // Higher priority matches take precedence
}

// Engine is a multi-pattern matching engine using the Aho-Corasick algorithm.
// It matches every keyword simultaneously in a single pass through the text.
// Time complexity: O(n + m) where n = text length, m = total matches
type Engine struct {
	matcher  *ahocorasick.Matcher
	patterns []string    // Unique patterns in same order as matcher
	metadata [][]Keyword // Metadata for each pattern (may have multiple entries for same pattern)
	mu       sync.Mutex  // The matcher mutates internal counters on every Match
	wordMax  int         // Patterns up to this length must match whole words
}

// NewEngine creates a new engine from the given keywords.
func NewEngine(keywords []Keyword) *Engine {
	e := &Engine{}
	e.Build(keywords)
	return e
}

// WithWordBoundary makes patterns of at most maxLen bytes match only as whole
// words, so "OLA" no longer hits "COLAB".
func (e *Engine) WithWordBoundary(maxLen int) *Engine {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.wordMax = maxLen
	return e
}

// Build constructs the Aho-Corasick matcher from keywords.
// Handles duplicate patterns by grouping all metadata for the same pattern together.
// Patterns are upper-cased but not trimmed: "POS " must not match "DEPOSIT".
func (e *Engine) Build(keywords []Keyword) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(keywords) == 0 {
		e.matcher = nil
		e.patterns = nil
		e.metadata = nil
		return
	}

	patternToIndex := make(map[string]int)
	patterns := make([]string, 0, len(keywords))
	metadata := make([][]Keyword, 0, len(keywords))

	for _, kw := range keywords {
		if strings.TrimSpace(kw.Pattern) == "" {
			continue
		}
		cleanPattern := strings.ToUpper(kw.Pattern)
		if idx, exists := patternToIndex[cleanPattern]; exists {
			metadata[idx] = append(metadata[idx], kw)
			continue
		}
		patternToIndex[cleanPattern] = len(patterns)
		patterns = append(patterns, cleanPattern)
		metadata = append(metadata, []Keyword{kw})
	}

	e.patterns = patterns
	e.metadata = metadata

	if len(patterns) == 0 {
		e.matcher = nil
		return
	}

	bytePatterns := make([][]byte, len(patterns))
	for i, p := range patterns {
		bytePatterns[i] = []byte(p)
	}
	e.matcher = ahocorasick.NewMatcher(bytePatterns)
}

// Match finds all keywords in text and returns the best one: the highest
// priority, then the lowest table index. Returns nil if nothing matches.
func (e *Engine) Match(text string) *Keyword {
	all := e.MatchAll(text)
	if len(all) == 0 {
		return nil
	}
	best := all[0]
	return &best
}

// MatchAll finds all keywords in text, sorted by priority (highest first)
// and then by table index.
func (e *Engine) MatchAll(text string) []Keyword {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.matcher == nil || len(e.patterns) == 0 {
		return nil
	}
	upper := strings.ToUpper(text)
	hits := e.matcher.Match([]byte(upper))

	if len(hits) == 0 {
		return nil
	}

	results := make([]Keyword, 0, len(hits))
	for _, idx := range hits {
		if idx < 0 || idx >= len(e.metadata) {
			continue
		}
		if p := e.patterns[idx]; len(p) <= e.wordMax && !normalizer.ContainsWord(upper, p) {
			continue
		}
		results = append(results, e.metadata[idx]...)
	}
	if len(results) == 0 {
		return nil
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Priority != results[j].Priority {
			return results[i].Priority > results[j].Priority
		}
		return results[i].Index < results[j].Index
	})
	return results
}

// MatchedIndexes returns the distinct table indexes with at least one hit in text.
func (e *Engine) MatchedIndexes(text string) map[int]bool {
	hits := e.MatchAll(text)
	if len(hits) == 0 {
		return nil
	}
	out := make(map[int]bool, len(hits))
	for _, h := range hits {
		out[h.Index] = true
	}
	return out
}

// PatternCount returns the number of patterns loaded in the engine.
func (e *Engine) PatternCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.patterns)
}

// IsEmpty returns true if the engine has no patterns loaded.
func (e *Engine) IsEmpty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.matcher == nil || len(e.patterns) == 0
}
