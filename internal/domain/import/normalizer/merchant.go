// Package normalizer provides statement text cleanup and merchant name normalization.
// merchant.go maps raw merchant names extracted from narrations to display brands.
package normalizer

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// NormalizationPolicy selects how unknown merchant names are treated.
type NormalizationPolicy string

const (
	// PolicyStrict returns the input unchanged unless the brand table has an exact hit.
	PolicyStrict NormalizationPolicy = "strict"
	// PolicyLenient also tries containment against brand keys, longest first,
	// and title-cases anything left over.
	PolicyLenient NormalizationPolicy = "lenient"
)

// ParsePolicy converts a config value into a NormalizationPolicy.
func ParsePolicy(s string) (NormalizationPolicy, error) {
	switch p := NormalizationPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyStrict, PolicyLenient:
		return p, nil
	case "":
		return PolicyLenient, nil
	default:
		return "", fmt.Errorf("unknown merchant normalization policy %q", s)
	}
}

// MerchantNormalizer resolves raw merchant names against a brand table.
type MerchantNormalizer struct {
	policy NormalizationPolicy
	brands map[string]string // keys of shortKeyLen or fewer bytes only match whole words
	keys   []string // brand keys sorted longest first
}

// NewMerchantNormalizer creates a normalizer with the default brand table.
func NewMerchantNormalizer(policy NormalizationPolicy) *MerchantNormalizer {
	n := &MerchantNormalizer{
		policy: policy,
		brands: make(map[string]string, len(defaultBrands)),
	}
	for k, v := range defaultBrands {
		n.brands[k] = v
	}
	n.reindex()
	return n
}

// shortKeyLen is the longest brand key that lenient containment matches as a
// substring only on word boundaries.
const shortKeyLen = 4

// Policy returns the configured policy.
func (n *MerchantNormalizer) Policy() NormalizationPolicy {
	return n.policy
}

// AddBrand registers or replaces a brand table entry.
func (n *MerchantNormalizer) AddBrand(key, display string) {
	key = strings.ToUpper(strings.TrimSpace(key))
	if key == "" || display == "" {
		return
	}
	n.brands[key] = display
	n.reindex()
}

// Brands returns the distinct display names in the table.
func (n *MerchantNormalizer) Brands() []string {
	seen := make(map[string]bool, len(n.brands))
	out := make([]string, 0, len(n.brands))
	for _, v := range n.brands {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

// Lookup returns the display name for an exact key hit.
func (n *MerchantNormalizer) Lookup(name string) (string, bool) {
	v, ok := n.brands[strings.ToUpper(strings.TrimSpace(name))]
	return v, ok
}

// Normalize maps a cleaned merchant name to its display form.
func (n *MerchantNormalizer) Normalize(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ""
	}
	if v, ok := n.Lookup(trimmed); ok {
		return v
	}
	if n.policy != PolicyLenient {
		return trimmed
	}

	upper := strings.ToUpper(trimmed)
	for _, key := range n.keys {
		if len(key) <= shortKeyLen {
			if ContainsWord(upper, key) {
				return n.brands[key]
			}
			continue
		}
		if strings.Contains(upper, key) {
			return n.brands[key]
		}
	}
	return titleCase(trimmed)
}

func (n *MerchantNormalizer) reindex() {
	n.keys = n.keys[:0]
	for k := range n.brands {
		n.keys = append(n.keys, k)
	}
	sort.Slice(n.keys, func(i, j int) bool {
		if len(n.keys[i]) != len(n.keys[j]) {
			return len(n.keys[i]) > len(n.keys[j])
		}
		return n.keys[i] < n.keys[j]
	})
}

var (
	salutationPattern = regexp.MustCompile(`(?i)^(?:mr|mrs|ms|miss|shri|smt|sri|dr)\.?\s+`)
	suffixPattern     = regexp.MustCompile(`(?i)\b(?:pvt|private|ltd|limited|llp|inc|corp|corporation|co)\b\.?`)
	longDigitsPattern = regexp.MustCompile(`\d{5,}`)
	noisePattern      = regexp.MustCompile(`[^A-Za-z0-9&'. ]+`)
	trailingLetter    = regexp.MustCompile(`(?:\s+[A-Za-z])+$`)
)

// CleanMerchantName removes entity suffixes, salutations, long numeric IDs and
// punctuation noise from a raw merchant name.
func CleanMerchantName(raw string) string {
	result := strings.TrimSpace(raw)
	result = noisePattern.ReplaceAllString(result, " ")
	result = longDigitsPattern.ReplaceAllString(result, " ")
	result = whitespace.ReplaceAllString(result, " ")
	result = strings.TrimSpace(result)
	result = salutationPattern.ReplaceAllString(result, "")
	result = suffixPattern.ReplaceAllString(result, " ")
	result = whitespace.ReplaceAllString(result, " ")
	result = strings.Trim(result, " .'&")
	result = trailingLetter.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}

// titleCase converts a string to title case
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		if len(word) > 0 {
			words[i] = strings.ToUpper(string(word[0])) + strings.ToLower(word[1:])
		}
	}
	return strings.Join(words, " ")
}

// defaultBrands maps upper-cased raw names seen in Indian retail narrations to brands.
var defaultBrands = map[string]string{
	// Food delivery and restaurants
	"SWIGGY":           "Swiggy",
	"SWIGGY INSTAMART": "Swiggy Instamart",
	"ZOMATO":           "Zomato",
	"DOMINOS":          "Domino's",
	"DOMINO":           "Domino's",
	"MCDONALDS":        "McDonald's",
	"STARBUCKS":        "Starbucks",
	"KFC":              "KFC",

	// Streaming and entertainment
	"NETFLIX":     "Netflix",
	"SPOTIFY":     "Spotify",
	"HOTSTAR":     "Disney+ Hotstar",
	"PRIME VIDEO": "Prime Video",
	"YOUTUBE":     "YouTube",
	"BOOKMYSHOW":  "BookMyShow",

	// Shopping
	"AMAZON":   "Amazon",
	"AMZN":     "Amazon",
	"FLIPKART": "Flipkart",
	"MYNTRA":   "Myntra",
	"AJIO":     "Ajio",
	"NYKAA":    "Nykaa",
	"MEESHO":   "Meesho",

	// Groceries
	"BIGBASKET":      "BigBasket",
	"BLINKIT":        "Blinkit",
	"ZEPTO":          "Zepto",
	"DMART":          "DMart",
	"RELIANCE FRESH": "Reliance Fresh",

	// Transport and travel
	"UBER":       "Uber",
	"OLA":        "Ola",
	"RAPIDO":     "Rapido",
	"IRCTC":      "IRCTC",
	"MAKEMYTRIP": "MakeMyTrip",
	"INDIGO":     "IndiGo",

	// Utilities and telecom
	"AIRTEL":       "Airtel",
	"JIO":          "Jio",
	"VODAFONE":     "Vodafone Idea",
	"BESCOM":       "BESCOM",
	"TATA POWER":   "Tata Power",
	"ACT FIBERNET": "ACT Fibernet",

	// Payments and finance
	"PAYTM":      "Paytm",
	"PHONEPE":    "PhonePe",
	"GOOGLE PAY": "Google Pay",
	"CRED":       "CRED",
	"LIC":        "LIC",
	"ZERODHA":    "Zerodha",
	"GROWW":      "Groww",

	// Health
	"APOLLO":    "Apollo Pharmacy",
	"PHARMEASY": "PharmEasy",
	"NETMEDS":   "Netmeds",
	"PRACTO":    "Practo",
}
