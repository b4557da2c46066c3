package classification

import (
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// brandDocument is one searchable brand.
type brandDocument struct {
	Name string `json:"name"`
}

// BrandMatch is a known-brand hit for a candidate merchant string.
type BrandMatch struct {
	Brand string
	Score int // similarity 0-100
}

// BrandIndex recognizes known brands in entity candidates. A Bleve in-memory
// index retrieves brands with typo tolerance; fuzzy scoring ranks the hits.
type BrandIndex struct {
	index  bleve.Index
	brands []string
	mu     sync.RWMutex
}

// NewBrandIndex indexes the given brand display names.
func NewBrandIndex(brands []string) (*BrandIndex, error) {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = simple.Name

	index, err := bleve.NewMemOnly(indexMapping)
	if err != nil {
		return nil, fmt.Errorf("failed to create brand index: %w", err)
	}

	batch := index.NewBatch()
	for _, b := range brands {
		if strings.TrimSpace(b) == "" {
			continue
		}
		if err := batch.Index(b, brandDocument{Name: b}); err != nil {
			return nil, fmt.Errorf("failed to index brand %s: %w", b, err)
		}
	}
	if err := index.Batch(batch); err != nil {
		return nil, fmt.Errorf("failed to execute brand batch: %w", err)
	}

	return &BrandIndex{index: index, brands: brands}, nil
}

// Ready reports whether the index is open.
func (bi *BrandIndex) Ready() error {
	if bi == nil || bi.index == nil {
		return ErrNotReady
	}
	return nil
}

// Match returns the best brand whose similarity to candidate is at least threshold.
func (bi *BrandIndex) Match(candidate string, threshold int) (BrandMatch, bool) {
	if bi.Ready() != nil || strings.TrimSpace(candidate) == "" {
		return BrandMatch{}, false
	}

	hits, err := bi.search(candidate, 5)
	if err != nil || len(hits) == 0 {
		hits = bi.brands
	}

	upper := strings.ToUpper(candidate)
	best := BrandMatch{Score: threshold - 1}
	for _, brand := range hits {
		score := similarity(upper, strings.ToUpper(brand))
		if score > best.Score {
			best = BrandMatch{Brand: brand, Score: score}
		}
	}
	if best.Brand == "" {
		return BrandMatch{}, false
	}
	return best, true
}

func (bi *BrandIndex) search(query string, limit int) ([]string, error) {
	bi.mu.RLock()
	defer bi.mu.RUnlock()

	matchQuery := bleve.NewMatchQuery(query)
	matchQuery.SetFuzziness(1) // Allow 1 edit distance for typo tolerance

	searchRequest := bleve.NewSearchRequest(matchQuery)
	searchRequest.Size = limit

	result, err := bi.index.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("brand search failed: %w", err)
	}
	out := make([]string, 0, len(result.Hits))
	for _, hit := range result.Hits {
		out = append(out, hit.ID)
	}
	return out, nil
}

// Close releases the index.
func (bi *BrandIndex) Close() error {
	bi.mu.Lock()
	defer bi.mu.Unlock()

	if bi.index != nil {
		err := bi.index.Close()
		bi.index = nil
		return err
	}
	return nil
}

// similarity calculates a score between two strings (0-100) from containment,
// Levenshtein distance and subsequence ranking.
func similarity(s1, s2 string) int {
	if s1 == s2 {
		return 100
	}
	if s1 == "" || s2 == "" {
		return 0
	}

	if strings.Contains(s1, s2) {
		return 75 + (25 * len(s2) / len(s1))
	}
	if strings.Contains(s2, s1) {
		return 75 + (25 * len(s1) / len(s2))
	}

	distance := fuzzy.LevenshteinDistance(s1, s2)
	maxLen := max(len(s1), len(s2))
	levenshteinScore := 100 * (maxLen - distance) / maxLen

	// RankMatch is the edit distance of a subsequence match, -1 if none
	rankScore := 0
	if rank := fuzzy.RankMatch(s2, s1); rank >= 0 && rank < len(s1) {
		rankScore = 60 - (rank * 40 / len(s1))
	}

	if levenshteinScore > rankScore {
		return levenshteinScore
	}
	return rankScore
}
