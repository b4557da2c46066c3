package categorization

import (
	"regexp"
	"strings"

	"github.com/FACorreiaa/echo-statements/internal/domain/import/normalizer"
)

// MerchantPattern extracts a merchant name from a narration.
type MerchantPattern struct {
	Name         string
	Regex        *regexp.Regexp
	ExtractGroup int
	Cleanup      func(string) string
}

// Extract applies the pattern and its cleanup, returning the raw name.
func (p MerchantPattern) Extract(description string) (string, bool) {
	m := p.Regex.FindStringSubmatch(description)
	if m == nil || p.ExtractGroup >= len(m) {
		return "", false
	}
	name := strings.TrimSpace(m[p.ExtractGroup])
	if p.Cleanup != nil {
		name = p.Cleanup(name)
	}
	return name, name != ""
}

// stripVPA keeps the handle in front of a UPI address ("swiggy@icici" -> "swiggy").
func stripVPA(s string) string {
	if i := strings.Index(s, "@"); i > 0 {
		return s[:i]
	}
	return s
}

// DefaultMerchantPatterns returns the ordered narration patterns used by the
// reference statement layout.
func DefaultMerchantPatterns() []MerchantPattern {
	return []MerchantPattern{
		{Name: "upi-numeric", Regex: regexp.MustCompile(`(?i)\bUPI/\d+/([^/]+)`), ExtractGroup: 1, Cleanup: stripVPA},
		{Name: "upi", Regex: regexp.MustCompile(`(?i)\bUPI/([^/]+)`), ExtractGroup: 1, Cleanup: stripVPA},
		{Name: "imps", Regex: regexp.MustCompile(`(?i)\bIMPS/([^/]+)/([^/]+)`), ExtractGroup: 2},
		{Name: "bill-channel", Regex: regexp.MustCompile(`(?i)\bBIL/(?:ONL|INFT|BPAY)/[^/]*/([^/]+)`), ExtractGroup: 1},
		{Name: "bill", Regex: regexp.MustCompile(`(?i)\bBIL/([^/]+)`), ExtractGroup: 1},
		{Name: "neft", Regex: regexp.MustCompile(`(?i)\b(?:NEFT|RTGS)[/-][^/-]*[/-]([^/-]+)`), ExtractGroup: 1},
	}
}

// minMerchantLen is the shortest cleaned name accepted as a merchant.
const minMerchantLen = 2

// extractMerchant tries patterns in order; the first that yields a non-trivial
// name after cleanup wins. It returns the cleaned name before brand normalization.
func extractMerchant(patterns []MerchantPattern, description string) (string, bool) {
	for _, p := range patterns {
		raw, ok := p.Extract(description)
		if !ok {
			continue
		}
		cleaned := normalizer.CleanMerchantName(raw)
		if len(cleaned) < minMerchantLen {
			continue
		}
		return cleaned, true
	}
	return "", false
}
