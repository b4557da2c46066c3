package classification

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/FACorreiaa/echo-statements/internal/domain/categorization"
	"github.com/FACorreiaa/echo-statements/internal/domain/import/normalizer"
	"github.com/FACorreiaa/echo-statements/internal/domain/statement"
)

// Merchant extraction methods.
const (
	MethodPattern = "pattern"
	MethodEntity  = "entity"
	MethodNone    = "none"
)

const (
	patternBase       = 0.7
	patternAccept     = 0.7
	unknownConfidence = 0.1
	brandThreshold    = 85
)

// MerchantPrediction is the merchant extractor output.
type MerchantPrediction struct {
	Name       string
	Confidence float64
	Method     string
}

// MerchantExtractor finds a merchant via extended patterns, then entity scoring.
type MerchantExtractor struct {
	patterns   []categorization.MerchantPattern
	normalizer *normalizer.MerchantNormalizer
	brands     *BrandIndex
	threshold  float64
}

// ExtendedMerchantPatterns adds card, online payment and transfer phrasings to
// the rule patterns.
func ExtendedMerchantPatterns() []categorization.MerchantPattern {
	patterns := categorization.DefaultMerchantPatterns()
	return append(patterns,
		categorization.MerchantPattern{Name: "pos", Regex: regexp.MustCompile(`(?i)\bPOS[/ ]+(?:\d+[/ ]+)?([A-Za-z][^/]*)`), ExtractGroup: 1},
		categorization.MerchantPattern{Name: "card-at", Regex: regexp.MustCompile(`(?i)\bCARD\b.*?\bAT\s+([^/]+)`), ExtractGroup: 1},
		categorization.MerchantPattern{Name: "online-payment", Regex: regexp.MustCompile(`(?i)\bONLINE\s+PAYMENT\s+TO\s+([^/]+)`), ExtractGroup: 1},
		categorization.MerchantPattern{Name: "transfer-to", Regex: regexp.MustCompile(`(?i)\bTRANSFER\s+TO\s+([^/]+)`), ExtractGroup: 1},
	)
}

// NewMerchantExtractor creates an extractor. threshold gates the entity path.
func NewMerchantExtractor(norm *normalizer.MerchantNormalizer, brands *BrandIndex, threshold float64) *MerchantExtractor {
	return &MerchantExtractor{
		patterns:   ExtendedMerchantPatterns(),
		normalizer: norm,
		brands:     brands,
		threshold:  threshold,
	}
}

// Ready reports whether the normalizer and brand index are available.
func (m *MerchantExtractor) Ready() error {
	if m == nil || m.normalizer == nil {
		return ErrNotReady
	}
	return m.brands.Ready()
}

// Extract returns the merchant for a preprocessed record.
func (m *MerchantExtractor) Extract(ctx context.Context, p *Preprocessed) (*MerchantPrediction, error) {
	if err := m.Ready(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrEmptyDescription
	}

	if pred, ok := m.fromPatterns(p.OriginalDescription); ok && pred.Confidence > patternAccept {
		return pred, nil
	}
	if pred, ok := m.fromEntities(p.OriginalDescription); ok && pred.Confidence >= m.threshold {
		return pred, nil
	}
	return &MerchantPrediction{Name: statement.UnknownMerchant, Confidence: unknownConfidence, Method: MethodNone}, nil
}

var merchantSuffix = regexp.MustCompile(`(?i)\b(?:pvt|private|ltd|limited|llp|inc|corp|store|stores|mart|services|enterprises|traders|foods|technologies|solutions|retail)\b`)

func (m *MerchantExtractor) fromPatterns(description string) (*MerchantPrediction, bool) {
	for _, pattern := range m.patterns {
		raw, ok := pattern.Extract(description)
		if !ok {
			continue
		}
		cleaned := normalizer.CleanMerchantName(raw)
		if len(cleaned) < 2 {
			continue
		}
		name := m.normalizer.Normalize(cleaned)
		return &MerchantPrediction{
			Name:       name,
			Confidence: patternConfidence(raw, cleaned, name),
			Method:     MethodPattern,
		}, true
	}
	return nil, false
}

// patternConfidence adjusts the base confidence for shape and normalization.
func patternConfidence(raw, cleaned, name string) float64 {
	conf := patternBase
	switch n := len(name); {
	case n >= 3 && n <= 25:
		conf += 0.1
	case n < 3:
		conf -= 0.2
	}
	if name != strings.ToUpper(name) {
		conf += 0.05
	}
	if strings.Contains(strings.TrimSpace(name), " ") {
		conf += 0.05
	}
	if merchantSuffix.MatchString(raw) {
		conf += 0.1
	}
	if name != cleaned {
		conf += 0.1
	}
	return clamp(conf)
}

// Entity kinds and their weights.
const (
	entityOrganization = 0.5
	entityCapsRun      = 0.4
	entityCapitalized  = 0.3
)

var (
	idShapedPattern = regexp.MustCompile(`^[A-Z0-9]*\d[A-Z0-9]*$`)
	hasLetter       = regexp.MustCompile(`[A-Za-z]`)
	segmentSplit    = regexp.MustCompile(`[/:|,;]+|\s-\s`)
	orgMarkers      = []string{"PVT", "LTD", "LIMITED", "LLP", "INC", "CORP", "TECHNOLOGIES", "SOLUTIONS", "ENTERPRISES", "INDUSTRIES"}
	businessWords   = []string{"STORE", "MART", "SHOP", "SERVICES", "FOODS", "HOTEL", "RESTAURANT", "PHARMACY", "MEDICAL", "TRADERS", "CAFE", "AGENCY", "RETAIL"}
)

type entityCandidate struct {
	name  string
	score float64
}

// entityRuns splits a narration into runs of capitalized or upper-case words,
// breaking at separators and banking filler words.
func entityRuns(description string) []string {
	var runs []string
	for _, segment := range segmentSplit.Split(description, -1) {
		var run []string
		flush := func() {
			if len(run) > 0 {
				runs = append(runs, strings.Join(run, " "))
				run = nil
			}
		}
		for _, word := range strings.Fields(segment) {
			upper := strings.ToUpper(word)
			if jargon[upper] || fillers[upper] || !hasLetter.MatchString(word) || !isCapitalized(word) {
				flush()
				continue
			}
			run = append(run, word)
		}
		flush()
	}
	return runs
}

func isCapitalized(word string) bool {
	c := word[0]
	return c >= 'A' && c <= 'Z'
}

func (m *MerchantExtractor) fromEntities(description string) (*MerchantPrediction, bool) {
	var candidates []entityCandidate
	seen := make(map[string]bool)

	for _, run := range entityRuns(description) {
		upper := strings.ToUpper(run)
		if seen[upper] {
			continue
		}
		seen[upper] = true

		weight := entityCapitalized
		switch {
		case containsWord(upper, orgMarkers):
			weight = entityOrganization
		case run == upper:
			weight = entityCapsRun
		}
		if name, score := m.scoreEntity(run, weight); name != "" {
			candidates = append(candidates, entityCandidate{name: name, score: score})
		}
	}

	if len(candidates) == 0 {
		return nil, false
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	best := candidates[0]
	return &MerchantPrediction{Name: best.name, Confidence: clamp(best.score), Method: MethodEntity}, true
}

func (m *MerchantExtractor) scoreEntity(text string, weight float64) (string, float64) {
	upper := strings.ToUpper(text)
	score := weight

	switch n := len(text); {
	case n >= 3 && n <= 25:
		score += 0.1
	case n > 40:
		score -= 0.2
	}
	if containsWord(upper, businessWords) {
		score += 0.15
	}
	if merchantSuffix.MatchString(text) {
		score += 0.1
	}

	name := normalizer.CleanMerchantName(text)
	if len(name) < 2 {
		return "", 0
	}
	if match, ok := m.brands.Match(name, brandThreshold); ok {
		score += 0.3
		name = match.Brand
	} else {
		name = m.normalizer.Normalize(name)
	}

	for _, word := range strings.Fields(upper) {
		if idShapedPattern.MatchString(word) {
			score -= 0.4
			break
		}
	}
	return name, score
}

// jargon are channel and banking words that are never merchants.
var jargon = map[string]bool{
	"UPI": true, "IMPS": true, "NEFT": true, "RTGS": true, "BIL": true, "ONL": true, "INFT": true,
	"BPAY": true, "POS": true, "ATM": true, "ACH": true, "NACH": true, "CARD": true, "PAYMENT": true,
	"TRANSFER": true, "REF": true, "TXN": true, "BANK": true, "YES BANK": true, "HDFC": true,
	"ICICI": true, "SBI": true, "AXIS": true, "KOTAK": true, "ONLINE": true, "DEBIT": true,
	"CREDIT": true, "VISA": true, "RUPAY": true, "MASTERCARD": true, "SELF": true,
}

// fillers are narration words that separate entity runs.
var fillers = map[string]bool{
	"RECEIVED": true, "FROM": true, "TO": true, "BY": true, "FOR": true, "THE": true,
	"AND": true, "OF": true, "NO": true, "AT": true, "IN": true, "ON": true, "VIA": true,
	"PAID": true, "SENT": true, "DR": true, "CR": true, "TRF": true, "PURCHASE": true,
}

func containsWord(upper string, words []string) bool {
	for _, w := range strings.Fields(upper) {
		for _, want := range words {
			if w == want {
				return true
			}
		}
	}
	return false
}
