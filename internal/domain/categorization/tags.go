package categorization

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
)

// TagPolicy selects which tag sources are used.
type TagPolicy string

const (
	// TagsInferred adds service hints and amount bands on top of observed tags.
	TagsInferred TagPolicy = "inferred"
	// TagsObserved limits tags to substrings present in the narration plus the category.
	TagsObserved TagPolicy = "observed"
)

// ParseTagPolicy converts a config value into a TagPolicy.
func ParseTagPolicy(s string) (TagPolicy, error) {
	switch p := TagPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case TagsInferred, TagsObserved:
		return p, nil
	case "":
		return TagsInferred, nil
	default:
		return "", fmt.Errorf("unknown tag policy %q", s)
	}
}

// Amount bands used for tags.
const (
	HighValueAmount = 10000.0
	SmallAmount     = 100.0
)

var channelTags = []struct{ marker, tag string }{
	{"UPI", "upi"}, {"IMPS", "imps"}, {"NEFT", "neft"}, {"RTGS", "rtgs"},
	{"POS/", "card"}, {"POS ", "card"}, {"CARD", "card"}, {"ATM", "atm"}, {"NACH", "nach"}, {"BIL/", "bill-payment"},
}

var bankTags = []struct{ marker, tag string }{
	{"HDFC", "hdfc"}, {"ICICI", "icici"}, {"SBI", "sbi"}, {"AXIS", "axis"},
	{"KOTAK", "kotak"}, {"YES BANK", "yes-bank"}, {"YESB", "yes-bank"}, {"IDFC", "idfc"},
	{"PAYTM", "paytm"}, {"INDUSIND", "indusind"}, {"FEDERAL", "federal"},
}

var (
	slugPattern = regexp.MustCompile(`[^a-z0-9]+`)
	emiPattern  = regexp.MustCompile(`\bemi\b`)
)

// Slug converts a label into a lower-case hyphenated tag.
func Slug(s string) string {
	return strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

type tagInput struct {
	description string
	merchant    string
	category    string
	subcategory string
	amount      float64
	recurring   bool
}

func generateTags(policy TagPolicy, in tagInput) []string {
	set := make(map[string]struct{})
	add := func(tag string) {
		if tag = strings.TrimSpace(tag); tag != "" {
			set[tag] = struct{}{}
		}
	}

	upper := strings.ToUpper(in.description)
	add(Slug(in.category))

	for _, c := range channelTags {
		if strings.Contains(upper, c.marker) {
			add(c.tag)
		}
	}
	for _, b := range bankTags {
		if strings.Contains(upper, b.marker) {
			add(b.tag)
		}
	}
	if in.merchant != "" && in.merchant != "Unknown" {
		add(Slug(in.merchant))
	}

	if policy != TagsObserved {
		sub := strings.ToLower(in.subcategory)
		lower := strings.ToLower(in.description)
		switch {
		case sub == "food delivery":
			add("food-delivery")
		case sub == "streaming services" || strings.Contains(lower, "subscription"):
			add("subscription")
		case in.category == "Utilities" || strings.Contains(lower, "monthly"):
			add("monthly-bill")
		case sub == "loan emi" || emiPattern.MatchString(lower) || strings.Contains(lower, "loan"):
			add("loan")
			add("recurring")
		}
		if in.recurring {
			add("recurring")
		}

		switch {
		case in.amount >= HighValueAmount:
			add("high-value")
		case in.amount > 0 && in.amount < SmallAmount:
			add("small")
		}
		if in.amount >= SmallAmount && math.Mod(in.amount, 100) == 0 {
			add("round-amount")
		}
	}

	tags := make([]string, 0, len(set))
	for t := range set {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

var (
	bankRefPattern    = regexp.MustCompile(`\bICI[A-Za-z0-9]{8,}\b`)
	genericRefPattern = regexp.MustCompile(`\b[A-Z0-9]{12,}\b`)
	digitPattern      = regexp.MustCompile(`\d`)
)

// extractNotes returns a reference note for a transaction-ID shaped token.
func extractNotes(description string) string {
	if m := bankRefPattern.FindString(description); m != "" {
		return "Ref: " + m
	}
	for _, m := range genericRefPattern.FindAllString(description, -1) {
		if digitPattern.MatchString(m) {
			return "Ref: " + m
		}
	}
	return ""
}
