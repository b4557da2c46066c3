package categorization

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AmountThreshold bounds the amount a rule applies to. Nil bounds are open.
type AmountThreshold struct {
	Min *float64 `yaml:"min,omitempty" json:"min,omitempty"`
	Max *float64 `yaml:"max,omitempty" json:"max,omitempty"`
}

// Contains reports whether amount satisfies both bounds (inclusive).
func (t *AmountThreshold) Contains(amount float64) bool {
	if t == nil {
		return true
	}
	if t.Min != nil && amount < *t.Min {
		return false
	}
	if t.Max != nil && amount > *t.Max {
		return false
	}
	return true
}

// CategoryRule assigns a category when one of its keywords appears in the
// description or merchant, or one of its merchant keywords appears in the
// merchant, and the amount satisfies the threshold. Rules are ordered and the
// first match wins.
type CategoryRule struct {
	Keywords         []string         `yaml:"keywords" json:"keywords"`
	MerchantKeywords []string         `yaml:"merchant_keywords,omitempty" json:"merchant_keywords,omitempty"`
	Category         string           `yaml:"category" json:"category"`
	Subcategory      string           `yaml:"subcategory,omitempty" json:"subcategory,omitempty"`
	IsRecurring      bool             `yaml:"is_recurring,omitempty" json:"is_recurring,omitempty"`
	AmountThreshold  *AmountThreshold `yaml:"amount_threshold,omitempty" json:"amount_threshold,omitempty"`
}

type rulesFile struct {
	Rules []CategoryRule `yaml:"rules"`
}

// LoadRules reads an ordered rule table from a YAML file.
// An empty path returns DefaultRules.
func LoadRules(path string) ([]CategoryRule, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	return ParseRules(data)
}

// ParseRules decodes and validates a YAML rule table.
func ParseRules(data []byte) ([]CategoryRule, error) {
	var file rulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}
	for i, r := range file.Rules {
		if r.Category == "" {
			return nil, fmt.Errorf("rule %d has no category", i)
		}
		if len(r.Keywords) == 0 && len(r.MerchantKeywords) == 0 {
			return nil, fmt.Errorf("rule %d (%s) has no keywords", i, r.Category)
		}
	}
	return file.Rules, nil
}

func floatPtr(v float64) *float64 { return &v }

// DefaultRules returns the built-in rule table for Indian retail statements.
// More specific rules come first.
func DefaultRules() []CategoryRule {
	return []CategoryRule{
		// Groceries first so "SWIGGY INSTAMART" is not taken by food delivery
		{Keywords: []string{"instamart", "bigbasket", "blinkit", "zepto", "grofers", "dmart", "reliance fresh", "more retail", "kirana"},
			Category: "Groceries", Subcategory: "Online Grocery"},
		{Keywords: []string{"swiggy", "zomato", "eatsure", "dunzo"},
			Category: "Food & Dining", Subcategory: "Food Delivery"},
		{Keywords: []string{"dominos", "domino's", "mcdonald", "kfc", "starbucks", "pizza", "burger", "restaurant", "cafe", "chaayos", "haldiram"},
			Category: "Food & Dining", Subcategory: "Restaurants"},
		{Keywords: []string{"netflix", "spotify", "hotstar", "prime video", "primevideo", "youtube premium", "sonyliv", "zee5", "jiocinema", "apple.com/bill"},
			Category: "Entertainment", Subcategory: "Streaming Services", IsRecurring: true},
		{Keywords: []string{"bookmyshow", "pvr", "inox", "cinepolis"},
			Category: "Entertainment", Subcategory: "Movies & Events"},
		{Keywords: []string{"amazon", "amzn", "flipkart", "myntra", "ajio", "nykaa", "meesho", "tata cliq", "snapdeal"},
			Category: "Shopping", Subcategory: "Online Shopping"},
		{Keywords: []string{"uber", "olacabs", "ola cabs", "ani technologies", "rapido", "blusmart", "namma yatri"},
			MerchantKeywords: []string{"ola"},
			Category:         "Transportation", Subcategory: "Ride Hailing"},
		{Keywords: []string{"petrol", "fuel", "hpcl", "bpcl", "iocl", "indian oil", "bharat petroleum", "shell"},
			Category: "Transportation", Subcategory: "Fuel"},
		{Keywords: []string{"irctc", "makemytrip", "goibibo", "cleartrip", "yatra", "indigo", "air india", "vistara", "redbus", "oyo rooms"},
			Category: "Travel", Subcategory: "Travel Booking"},
		{Keywords: []string{"airtel", "jio", "vodafone", "bsnl", "act fibernet", "broadband", "recharge", "hathway", "tata play"},
			Category: "Utilities", Subcategory: "Mobile & Internet", IsRecurring: true},
		{Keywords: []string{"electricity", "bescom", "tata power", "msedcl", "adani electricity", "tneb", "water bill", "gas bill", "indane", "mahanagar gas"},
			Category: "Utilities", Subcategory: "Electricity & Gas", IsRecurring: true},
		{Keywords: []string{"loan", "emi payment", "emi/", "nach/", "nach dr", "ach/d", "bajaj finance", "home credit"},
			Category: "Finance", Subcategory: "Loan EMI", IsRecurring: true},
		{Keywords: []string{"insurance", "lic of india", "policy", "hdfc life", "icici pru", "star health", "acko"},
			MerchantKeywords: []string{"lic"},
			Category:         "Finance", Subcategory: "Insurance", IsRecurring: true},
		{Keywords: []string{"zerodha", "groww", "upstox", "mutual fund", "kuvera", "coin by", "indmoney"},
			Category: "Finance", Subcategory: "Investments", IsRecurring: true},
		{Keywords: []string{"cred club", "credit card", "cc payment", "ccpay", "card payment"},
			MerchantKeywords: []string{"cred"},
			Category:         "Finance", Subcategory: "Credit Card Payment"},
		{Keywords: []string{"apollo", "pharmeasy", "netmeds", "1mg", "pharmacy", "medical", "chemist"},
			Category: "Health", Subcategory: "Pharmacy"},
		{Keywords: []string{"hospital", "clinic", "practo", "diagnostic", "pathlab", "healthcare"},
			Category: "Health", Subcategory: "Healthcare"},
		{Keywords: []string{"school", "college", "university", "tuition", "fees", "udemy", "coursera", "byju", "unacademy"},
			Category: "Education", Subcategory: "Fees & Courses"},
		{Keywords: []string{"salary", "sal cr", "payroll", "stipend"},
			Category: "Income", Subcategory: "Salary"},
		{Keywords: []string{"int.pd", "int pd", "interest paid", "interest credit", "sb interest"},
			Category: "Income", Subcategory: "Interest"},
		{Keywords: []string{"atm/", "atm wdl", "atm cash", "cash wdl", "nwd-", "cash withdrawal", "atw/"},
			Category: "Cash", Subcategory: "ATM Withdrawal"},
		{Keywords: []string{"house rent", "rent payment", "/rent", "maintenance", "housing society"},
			Category: "Housing", Subcategory: "Rent & Maintenance", IsRecurring: true},
		{Keywords: []string{"neft", "rtgs", "imps"},
			Category: "Transfer", Subcategory: "Large Transfer",
			AmountThreshold: &AmountThreshold{Min: floatPtr(50000)}},
	}
}
