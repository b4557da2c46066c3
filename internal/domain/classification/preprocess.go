// Package classification implements the feature-scoring enrichment path:
// preprocessing, category scoring, merchant extraction and fusion with the
// deterministic rule path.
package classification

import (
	"errors"
	"math"
	"regexp"
	"strings"

	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
)

var (
	// ErrNotReady is returned by Ready when a stage cannot serve requests.
	ErrNotReady = errors.New("classification stage not ready")
	// ErrEmptyDescription is returned when nothing is left after cleaning.
	ErrEmptyDescription = errors.New("empty description")
)

// Cleaner strips statement boilerplate from a description.
type Cleaner interface {
	CleanDescription(s string) string
}

// Preprocessed is the tokenized, featurized form of one raw record.
type Preprocessed struct {
	OriginalDescription string
	CleanedDescription  string
	Tokens              []string
	Features            map[string]float64
	Amount              float64
	Type                string
}

// Feature returns a feature value, zero when absent.
func (p *Preprocessed) Feature(name string) float64 {
	if p == nil {
		return 0
	}
	return p.Features[name]
}

// Has reports whether a feature is set to a positive value.
func (p *Preprocessed) Has(name string) bool {
	return p.Feature(name) > 0
}

// stopWords are bank and transfer jargon that carry no category signal.
var stopWords = map[string]bool{
	"upi": true, "imps": true, "neft": true, "rtgs": true, "bil": true, "onl": true,
	"inft": true, "bpay": true, "pos": true, "ach": true, "nach": true, "atm": true,
	"transfer": true, "trf": true, "payment": true, "paid": true, "pay": true,
	"txn": true, "ref": true, "refno": true, "no": true, "to": true, "from": true,
	"by": true, "via": true, "the": true, "and": true, "of": true, "for": true,
	"in": true, "at": true, "on": true, "ac": true, "acct": true, "account": true,
	"bank": true, "ltd": true, "pvt": true, "dr": true, "cr": true, "mr": true,
	"mrs": true, "ms": true, "india": true, "ind": true, "inr": true, "rs": true,
}

var channelPrefixes = []string{"upi", "imps", "neft", "rtgs", "bil", "pos", "atm", "ach", "nach"}

// Amount bands.
const (
	mediumAmount    = 500.0
	largeAmount     = 5000.0
	veryLargeAmount = 50000.0
)

// categoryKeywords drive the kw_* presence features.
var categoryKeywords = map[string][]string{
	"food":          {"swiggy", "zomato", "restaurant", "cafe", "pizza", "dominos", "mcdonald", "kfc", "starbucks", "food", "eatsure", "biryani", "bakery"},
	"shopping":      {"amazon", "amzn", "flipkart", "myntra", "ajio", "nykaa", "meesho", "store", "retail", "mall", "shop"},
	"transport":     {"uber", "ola", "rapido", "metro", "petrol", "fuel", "hpcl", "bpcl", "iocl", "fastag", "parking"},
	"entertainment": {"netflix", "spotify", "hotstar", "prime", "bookmyshow", "pvr", "inox", "sonyliv", "zee5", "youtube", "gaming"},
	"utilities":     {"airtel", "jio", "vodafone", "bsnl", "electricity", "bescom", "broadband", "recharge", "water", "gas", "dth", "power"},
	"finance":       {"emi", "loan", "insurance", "lic", "mutual", "sip", "zerodha", "groww", "cred", "premium", "policy", "finance"},
	"health":        {"apollo", "pharmacy", "pharmeasy", "netmeds", "hospital", "clinic", "medical", "diagnostic", "practo", "chemist"},
	"education":     {"school", "college", "university", "tuition", "fees", "udemy", "coursera", "byju", "unacademy", "academy"},
	"groceries":     {"bigbasket", "blinkit", "zepto", "instamart", "grocery", "dmart", "kirana", "supermarket", "fresh", "mart"},
	"travel":        {"irctc", "makemytrip", "goibibo", "cleartrip", "indigo", "airline", "hotel", "oyo", "redbus", "yatra", "travel"},
	"salary":        {"salary", "sal", "payroll", "stipend", "bonus", "reimbursement"},
}

var businessMarkers = []string{
	"pvt", "ltd", "limited", "llp", "inc", "corp", "store", "stores", "mart", "services",
	"enterprises", "traders", "solutions", "technologies", "retail", "foods", "hotel",
	"restaurant", "pharmacy", "agency", "industries", "online", ".com", "www",
}

var (
	capsTokenPattern = regexp.MustCompile(`\b[A-Z]{3,}\b`)
	numericPattern   = regexp.MustCompile(`\b\d{3,}\b`)
	digitsPattern    = regexp.MustCompile(`\d`)
	specialPattern   = regexp.MustCompile(`[^a-z0-9\s]`)
	salutation       = regexp.MustCompile(`\b(?:mr|mrs|ms|shri|smt|sri)\b`)
	multiSpace       = regexp.MustCompile(`\s+`)
)

// Preprocessor turns a description into tokens and a fixed-schema feature map.
type Preprocessor struct {
	cleaner   Cleaner
	tokenizer *unicode.UnicodeTokenizer
}

// NewPreprocessor creates a preprocessor. A nil cleaner only collapses whitespace.
func NewPreprocessor(cleaner Cleaner) *Preprocessor {
	return &Preprocessor{
		cleaner:   cleaner,
		tokenizer: unicode.NewUnicodeTokenizer(),
	}
}

// Ready reports whether the tokenizer is available.
func (p *Preprocessor) Ready() error {
	if p == nil || p.tokenizer == nil {
		return ErrNotReady
	}
	return nil
}

// Process lower-cases, cleans, tokenizes and featurizes a description.
func (p *Preprocessor) Process(description string, amount float64, txnType string) (*Preprocessed, error) {
	if err := p.Ready(); err != nil {
		return nil, err
	}

	cleaned := description
	if p.cleaner != nil {
		cleaned = p.cleaner.CleanDescription(cleaned)
	}
	cleaned = strings.TrimSpace(multiSpace.ReplaceAllString(strings.ToLower(cleaned), " "))
	if cleaned == "" {
		return nil, ErrEmptyDescription
	}

	out := &Preprocessed{
		OriginalDescription: description,
		CleanedDescription:  cleaned,
		Amount:              amount,
		Type:                txnType,
	}
	out.Tokens = p.tokens(description, cleaned)
	out.Features = features(out)
	return out, nil
}

func (p *Preprocessor) tokens(original, cleaned string) []string {
	seen := make(map[string]bool)
	var tokens []string
	add := func(t string) {
		if t == "" || seen[t] {
			return
		}
		seen[t] = true
		tokens = append(tokens, t)
	}

	for _, tok := range p.tokenizer.Tokenize([]byte(cleaned)) {
		term := string(tok.Term)
		if len(term) < 2 || stopWords[term] || !strings.ContainsAny(term, "abcdefghijklmnopqrstuvwxyz") {
			continue
		}
		add(term)
	}
	for _, caps := range capsTokenPattern.FindAllString(original, -1) {
		if lower := strings.ToLower(caps); !stopWords[lower] {
			add(lower)
		}
	}
	for _, prefix := range channelPrefixes {
		if strings.HasPrefix(cleaned, prefix+"/") || strings.Contains(cleaned, "/"+prefix+"/") ||
			strings.HasPrefix(cleaned, prefix+"-") || strings.HasPrefix(cleaned, prefix+" ") {
			add(prefix)
		}
	}
	for _, num := range numericPattern.FindAllString(cleaned, -1) {
		add(num)
	}
	return tokens
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func hasToken(tokens []string, want string) bool {
	for _, t := range tokens {
		if t == want {
			return true
		}
	}
	return false
}

func boolFeature(v bool) float64 {
	if v {
		return 1
	}
	return 0
}

func features(p *Preprocessed) map[string]float64 {
	text := p.CleanedDescription
	f := make(map[string]float64, 40)

	amount := math.Abs(p.Amount)
	f["amount"] = amount
	f["amount_log"] = math.Log1p(amount)
	f["amount_small"] = boolFeature(amount < mediumAmount)
	f["amount_medium"] = boolFeature(amount >= mediumAmount && amount < largeAmount)
	f["amount_large"] = boolFeature(amount >= largeAmount && amount < veryLargeAmount)
	f["amount_very_large"] = boolFeature(amount >= veryLargeAmount)

	f["channel_upi"] = boolFeature(strings.Contains(text, "upi"))
	f["channel_imps"] = boolFeature(strings.Contains(text, "imps"))
	f["channel_neft"] = boolFeature(strings.Contains(text, "neft"))
	f["channel_rtgs"] = boolFeature(strings.Contains(text, "rtgs"))
	f["channel_card"] = boolFeature(containsAny(text, "pos/", "pos ", "card", "visa", "rupay", "mastercard"))
	f["channel_bill"] = boolFeature(containsAny(text, "bil/", "billpay", "bpay"))
	f["channel_atm"] = boolFeature(containsAny(text, "atm", "nwd", "cash wdl"))

	anyKeyword := false
	for group, words := range categoryKeywords {
		hit := false
		for _, w := range words {
			if hasToken(p.Tokens, w) || (len(w) > 3 && strings.Contains(text, w)) {
				hit = true
				break
			}
		}
		anyKeyword = anyKeyword || hit
		f["kw_"+group] = boolFeature(hit)
	}

	business := containsAny(text, businessMarkers...)
	f["is_business"] = boolFeature(business)
	person := salutation.MatchString(text) ||
		(!business && !anyKeyword && (f["channel_imps"] > 0 || f["channel_neft"] > 0 || f["channel_upi"] > 0) && len(p.Tokens) <= 4)
	f["is_person"] = boolFeature(person)

	f["token_count"] = float64(len(p.Tokens))
	f["text_length"] = float64(len(text))
	if len(p.Tokens) > 0 {
		total := 0
		for _, t := range p.Tokens {
			total += len(t)
		}
		f["avg_token_length"] = float64(total) / float64(len(p.Tokens))
	} else {
		f["avg_token_length"] = 0
	}
	f["has_digits"] = boolFeature(digitsPattern.MatchString(text))
	f["has_special"] = boolFeature(specialPattern.MatchString(text))
	f["is_credit"] = boolFeature(strings.EqualFold(p.Type, "CR") || strings.EqualFold(p.Type, "credit"))
	f["round_amount"] = boolFeature(amount >= 100 && math.Mod(amount, 100) == 0)
	return f
}
