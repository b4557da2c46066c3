package categorization

import (
	"regexp"
	"strings"

	"github.com/FACorreiaa/echo-statements/internal/domain/import/normalizer"
	"github.com/FACorreiaa/echo-statements/internal/domain/statement"
)

// Personal transfer classification.
const (
	TransferCategory    = "Transfer"
	PersonalSubcategory = "Personal"
)

// CategoryMatch is the outcome of rule categorization.
type CategoryMatch struct {
	Category    string
	Subcategory string
	IsRecurring bool
	// Matched is false when the fallback category was used.
	Matched bool
}

// Enrichment is the deterministic enrichment of one raw record.
type Enrichment struct {
	Merchant      string
	MerchantFound bool
	CategoryMatch
	PaymentMethod string
	Tags          []string
	Notes         string
}

// RuleEnricher applies ordered merchant patterns and category rules to narrations.
// It holds only read-only tables after construction and is safe for concurrent use.
type RuleEnricher struct {
	rules      []CategoryRule
	patterns   []MerchantPattern
	normalizer *normalizer.MerchantNormalizer
	overrides  *normalizer.OverrideStore

	keywordEngine  *Engine
	merchantEngine *Engine
	paymentEngine  *Engine

	tagPolicy        TagPolicy
	personalTransfer bool
}

// merchantWordMax is the longest merchant keyword matched only as a whole word.
const merchantWordMax = 4

// NewRuleEnricher builds the keyword engines for rules. A nil normalizer uses
// the lenient default table.
func NewRuleEnricher(rules []CategoryRule, norm *normalizer.MerchantNormalizer) *RuleEnricher {
	if norm == nil {
		norm = normalizer.NewMerchantNormalizer(normalizer.PolicyLenient)
	}

	var keywords, merchantKeywords []Keyword
	for i, r := range rules {
		for _, kw := range r.Keywords {
			keywords = append(keywords, Keyword{Pattern: kw, Value: r.Category, Index: i})
		}
		for _, kw := range r.MerchantKeywords {
			merchantKeywords = append(merchantKeywords, Keyword{Pattern: kw, Value: r.Category, Index: i})
		}
	}

	return &RuleEnricher{
		rules:          rules,
		patterns:       DefaultMerchantPatterns(),
		normalizer:     norm,
		keywordEngine:  NewEngine(keywords),
		merchantEngine: NewEngine(merchantKeywords).WithWordBoundary(merchantWordMax),
		paymentEngine:  newPaymentEngine(),
		tagPolicy:      TagsInferred,
	}
}

// WithOverrides consults the store before pattern extraction.
func (e *RuleEnricher) WithOverrides(store *normalizer.OverrideStore) *RuleEnricher {
	e.overrides = store
	return e
}

// WithTagPolicy sets the tag policy.
func (e *RuleEnricher) WithTagPolicy(policy TagPolicy) *RuleEnricher {
	e.tagPolicy = policy
	return e
}

// WithPersonalTransfer enables the Transfer/Personal fallback heuristic.
func (e *RuleEnricher) WithPersonalTransfer(enabled bool) *RuleEnricher {
	e.personalTransfer = enabled
	return e
}

// WithMerchantPatterns replaces the ordered merchant patterns.
func (e *RuleEnricher) WithMerchantPatterns(patterns []MerchantPattern) *RuleEnricher {
	e.patterns = patterns
	return e
}

// Normalizer exposes the merchant normalizer shared with other stages.
func (e *RuleEnricher) Normalizer() *normalizer.MerchantNormalizer {
	return e.normalizer
}

// Rules returns the ordered rule table.
func (e *RuleEnricher) Rules() []CategoryRule {
	return e.rules
}

// ExtractMerchant returns the normalized merchant or "Unknown".
func (e *RuleEnricher) ExtractMerchant(description string) string {
	name, _ := e.extractMerchant(description)
	return name
}

func (e *RuleEnricher) extractMerchant(description string) (string, bool) {
	if o := e.overrides.Match(description); o != nil && o.MerchantName != "" {
		return o.MerchantName, true
	}
	cleaned, ok := extractMerchant(e.patterns, description)
	if !ok {
		return statement.UnknownMerchant, false
	}
	name := e.normalizer.Normalize(cleaned)
	if name == "" {
		return statement.UnknownMerchant, false
	}
	return name, true
}

// Categorize returns the first rule that matches, the personal transfer
// heuristic when enabled, or the fallback category.
func (e *RuleEnricher) Categorize(description, merchant string, amount float64) CategoryMatch {
	if o := e.overrides.Match(description); o != nil && o.Category != "" {
		return CategoryMatch{Category: o.Category, Subcategory: o.Subcategory, Matched: true}
	}

	if merchant == statement.UnknownMerchant {
		merchant = ""
	}
	hits := e.keywordEngine.MatchedIndexes(description + " " + merchant)
	var merchantHits map[int]bool
	if merchant != "" {
		merchantHits = e.merchantEngine.MatchedIndexes(merchant)
	}

	for i, r := range e.rules {
		if !hits[i] && !merchantHits[i] {
			continue
		}
		if !r.AmountThreshold.Contains(amount) {
			continue
		}
		return CategoryMatch{
			Category:    r.Category,
			Subcategory: r.Subcategory,
			IsRecurring: r.IsRecurring,
			Matched:     true,
		}
	}

	if e.personalTransfer && e.looksLikePerson(merchant) {
		return CategoryMatch{Category: TransferCategory, Subcategory: PersonalSubcategory, Matched: true}
	}
	return CategoryMatch{Category: statement.FallbackCategory}
}

var (
	businessIndicators = []string{
		"STORE", "STORES", "MART", "SHOP", "SERVICES", "SERVICE", "ENTERPRISES", "TRADERS",
		"MEDICAL", "HOTEL", "RESTAURANT", "FOODS", "AGENCY", "SOLUTIONS", "TECH", "RETAIL",
		"INDIA", "BANK", "PAY", "CENTRE", "CENTER", "CAFE", "BAZAAR",
	}
	personNamePattern = regexp.MustCompile(`^[A-Za-z]+(?: [A-Za-z]+){0,2}$`)
	digitRunPattern   = regexp.MustCompile(`\d{4,}`)
)

// looksLikePerson reports whether a merchant reads like an individual's name:
// one to three alphabetic words, no web or VPA markers, no long digit runs,
// no business words and no brand table hit.
func (e *RuleEnricher) looksLikePerson(merchant string) bool {
	m := strings.TrimSpace(merchant)
	if len(m) < 3 || len(m) > 40 {
		return false
	}
	lower := strings.ToLower(m)
	if strings.Contains(lower, "@") || strings.Contains(lower, "www") || digitRunPattern.MatchString(m) {
		return false
	}
	if !personNamePattern.MatchString(m) {
		return false
	}
	for _, w := range strings.Fields(strings.ToUpper(m)) {
		for _, b := range businessIndicators {
			if w == b {
				return false
			}
		}
	}
	if _, ok := e.normalizer.Lookup(m); ok {
		return false
	}
	return true
}

// PaymentMethod returns the highest priority payment marker in the description.
func (e *RuleEnricher) PaymentMethod(description string) string {
	if kw := e.paymentEngine.Match(description); kw != nil {
		return kw.Value
	}
	return DefaultPaymentMethod
}

// Tags builds the sorted tag set for a categorized record.
func (e *RuleEnricher) Tags(description, merchant string, match CategoryMatch, amount float64) []string {
	return generateTags(e.tagPolicy, tagInput{
		description: description,
		merchant:    merchant,
		category:    match.Category,
		subcategory: match.Subcategory,
		amount:      amount,
		recurring:   match.IsRecurring,
	})
}

// Notes extracts a reference note from the description.
func (e *RuleEnricher) Notes(description string) string {
	return extractNotes(description)
}

// Enrich runs merchant extraction, categorization, payment method, tags and notes.
// The transaction type does not influence rule matching.
func (e *RuleEnricher) Enrich(description string, amount float64, txnType string) Enrichment {
	merchant, found := e.extractMerchant(description)
	match := e.Categorize(description, merchant, amount)
	return Enrichment{
		Merchant:      merchant,
		MerchantFound: found,
		CategoryMatch: match,
		PaymentMethod: e.PaymentMethod(description),
		Tags:          e.Tags(description, merchant, match, amount),
		Notes:         e.Notes(description),
	}
}
