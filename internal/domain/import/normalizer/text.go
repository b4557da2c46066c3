package normalizer

import (
	"regexp"
	"strings"
)

// TextNormalizer strips statement boilerplate from descriptions and detects
// header/footer lines that must never reach the segmenter.
type TextNormalizer struct {
	boilerplate []*regexp.Regexp
	system      []*regexp.Regexp
}

var whitespace = regexp.MustCompile(`\s+`)

// defaultBoilerplate lists phrases printed inside the transaction area of the
// reference statement layout.
var defaultBoilerplate = []string{
	`(?i)this is a (?:system|computer)[- ]generated statement[^.]*\.?`,
	`(?i)does not require (?:any )?signature\.?`,
	`(?i)\bpage\s+\d+(?:\s+of\s+\d+)?\b`,
	`(?i)\bcontinued\s+on\s+next\s+page\b`,
	`/{2,}\s*$`,
	`/+\s*$`,
}

// defaultSystemText lists header, banner and label signatures.
var defaultSystemText = []string{
	`(?i)^(?:s\.?\s*no\.?|date|value\s+date|transaction\s+date|mode\**|particulars|remarks|description|cheque\s+no\.?|chq\.?/ref\.?\s*no\.?|deposits?|withdrawals?|balance|amount\s*\(inr\)|amount|dr/cr|cr/dr)$`,
	`(?i)^(?:withdrawal|deposit)\s+amount(?:\s*\(inr\))?$`,
	`(?i)^balance\s*\(inr\)$`,
	`(?i)\b(?:account\s*(?:number|no\.?)|a/c\s*no\.?)\s*[:\-]`,
	`(?i)^(?:account\s*(?:number|no\.?|type|holder|name)|a/c\s*no\.?|customer\s*id|ifsc(?:\s*code)?|branch|currency)\s*:?$`,
	`(?i)statement\s+of\s+(?:transactions|account)`,
	`(?i)\b(?:from|period)\s*:?\s*\d{2}[-/]\d{2}[-/]\d{4}\s*(?:to|-)\s*\d{2}[-/]\d{2}[-/]\d{4}`,
	`(?i)^(?:opening|closing)\s+balance\b`,
	`(?i)^page\s+\d+(?:\s+of\s+\d+)?$`,
	`(?i)this is a (?:system|computer)[- ]generated statement`,
	`(?i)^(?:b/f|c/f|total)$`,
}

// NewTextNormalizer compiles the given boilerplate and system-text patterns.
func NewTextNormalizer(boilerplate, system []string) (*TextNormalizer, error) {
	n := &TextNormalizer{}
	for _, p := range boilerplate {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		n.boilerplate = append(n.boilerplate, re)
	}
	for _, p := range system {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		n.system = append(n.system, re)
	}
	return n, nil
}

// DefaultTextNormalizer returns the normalizer for the reference statement layout.
func DefaultTextNormalizer() *TextNormalizer {
	n, err := NewTextNormalizer(defaultBoilerplate, defaultSystemText)
	if err != nil {
		panic(err)
	}
	return n
}

// CleanDescription strips boilerplate phrases and collapses whitespace.
func (n *TextNormalizer) CleanDescription(s string) string {
	for _, re := range n.boilerplate {
		s = re.ReplaceAllString(s, " ")
	}
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// IsSystemText reports whether a line is a header, label or banner.
func (n *TextNormalizer) IsSystemText(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	for _, re := range n.system {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// ContainsWord reports whether word occurs in s with no letter or digit
// directly before or after it. Matching is case-sensitive.
func ContainsWord(s, word string) bool {
	if word == "" {
		return false
	}
	for offset := 0; ; {
		i := strings.Index(s[offset:], word)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(word)
		if (start == 0 || !isWordByte(s[start-1])) && (end == len(s) || !isWordByte(s[end])) {
			return true
		}
		offset = start + 1
	}
}

func isWordByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
