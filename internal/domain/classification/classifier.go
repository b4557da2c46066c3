package classification

import (
	"context"
	"errors"
	"sort"
	"strings"
)

// ErrNoPrediction is returned when no category clears the discard threshold.
var ErrNoPrediction = errors.New("no category prediction")

// Scoring constants.
const (
	keywordHitWeight  = 0.15
	amountRangeWeight = 0.1
	ruleAgreement     = 0.2
	discardScore      = 0.2
	alternativeScore  = 0.3
	maxAlternatives   = 3
)

// CategoryWeights is the explicit weight table for one candidate category.
type CategoryWeights struct {
	Category    string
	Subcategory string
	Base        float64
	Keywords    []string
	Bonus       map[string]float64
	Penalty     map[string]float64
	// MinAmount and MaxAmount bound the typical amount; MaxAmount zero is open.
	MinAmount float64
	MaxAmount float64
}

// Alternative is a runner-up category.
type Alternative struct {
	Category string  `json:"category"`
	Score    float64 `json:"score"`
}

// CategoryPrediction is the classifier output.
type CategoryPrediction struct {
	Category     string
	Subcategory  string
	Confidence   float64
	Alternatives []Alternative
}

// Classifier scores a fixed set of categories from features and keywords.
type Classifier struct {
	weights []CategoryWeights
}

// NewClassifier creates a classifier over the given weight table.
func NewClassifier(weights []CategoryWeights) *Classifier {
	return &Classifier{weights: weights}
}

// Ready reports whether the weight table is loaded.
func (c *Classifier) Ready() error {
	if c == nil || len(c.weights) == 0 {
		return ErrNotReady
	}
	return nil
}

type scored struct {
	weights *CategoryWeights
	score   float64
}

// Score computes the clamped score for one category.
func (c *Classifier) Score(w CategoryWeights, p *Preprocessed, ruleCategory string) float64 {
	score := w.Base

	hits := 0
	for _, kw := range w.Keywords {
		if strings.Contains(p.CleanedDescription, kw) || hasToken(p.Tokens, kw) {
			hits++
		}
	}
	score += float64(hits) * keywordHitWeight

	for feature, weight := range w.Bonus {
		if p.Has(feature) {
			score += weight
		}
	}
	for feature, weight := range w.Penalty {
		if p.Has(feature) {
			score -= weight
		}
	}

	amount := p.Feature("amount")
	if amount >= w.MinAmount && (w.MaxAmount == 0 || amount <= w.MaxAmount) {
		score += amountRangeWeight
	} else {
		score -= amountRangeWeight
	}

	if ruleCategory != "" && strings.EqualFold(ruleCategory, w.Category) {
		score += ruleAgreement
	}
	return clamp(score)
}

// Classify ranks candidate categories and returns the top one with alternatives.
func (c *Classifier) Classify(ctx context.Context, p *Preprocessed, ruleCategory string) (*CategoryPrediction, error) {
	if err := c.Ready(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrEmptyDescription
	}

	candidates := make([]scored, 0, len(c.weights))
	for i := range c.weights {
		s := c.Score(c.weights[i], p, ruleCategory)
		if s <= discardScore {
			continue
		}
		candidates = append(candidates, scored{weights: &c.weights[i], score: s})
	}
	if len(candidates) == 0 {
		return nil, ErrNoPrediction
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	top := candidates[0]
	pred := &CategoryPrediction{
		Category:    top.weights.Category,
		Subcategory: top.weights.Subcategory,
		Confidence:  top.score,
	}
	for _, alt := range candidates[1:] {
		if len(pred.Alternatives) == maxAlternatives {
			break
		}
		if alt.score > alternativeScore {
			pred.Alternatives = append(pred.Alternatives, Alternative{Category: alt.weights.Category, Score: alt.score})
		}
	}
	return pred, nil
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// DefaultWeights returns the hand-tuned weight table.
func DefaultWeights() []CategoryWeights {
	return []CategoryWeights{
		{
			Category: "Food & Dining", Subcategory: "Food Delivery", Base: 0.1,
			Keywords:  []string{"swiggy", "zomato", "restaurant", "cafe", "pizza", "food", "dominos", "kfc", "mcdonald", "starbucks", "eatsure"},
			Bonus:     map[string]float64{"kw_food": 0.3, "channel_upi": 0.05},
			Penalty:   map[string]float64{"kw_groceries": 0.2, "is_credit": 0.3, "amount_very_large": 0.2},
			MaxAmount: 5000,
		},
		{
			Category: "Groceries", Subcategory: "Online Grocery", Base: 0.1,
			Keywords:  []string{"bigbasket", "blinkit", "zepto", "instamart", "grocery", "dmart", "kirana", "supermarket"},
			Bonus:     map[string]float64{"kw_groceries": 0.35},
			Penalty:   map[string]float64{"is_credit": 0.3},
			MaxAmount: 15000,
		},
		{
			Category: "Shopping", Subcategory: "Online Shopping", Base: 0.1,
			Keywords:  []string{"amazon", "amzn", "flipkart", "myntra", "ajio", "nykaa", "meesho", "store", "mall"},
			Bonus:     map[string]float64{"kw_shopping": 0.3, "is_business": 0.05, "channel_card": 0.05},
			Penalty:   map[string]float64{"is_credit": 0.2, "kw_entertainment": 0.15},
			MaxAmount: 100000,
		},
		{
			Category: "Transportation", Subcategory: "Ride Hailing", Base: 0.1,
			Keywords:  []string{"uber", "ola", "rapido", "metro", "petrol", "fuel", "fastag", "parking"},
			Bonus:     map[string]float64{"kw_transport": 0.3},
			Penalty:   map[string]float64{"is_credit": 0.3},
			MaxAmount: 10000,
		},
		{
			Category: "Entertainment", Subcategory: "Streaming Services", Base: 0.1,
			Keywords:  []string{"netflix", "spotify", "hotstar", "prime", "bookmyshow", "pvr", "inox", "sonyliv", "youtube"},
			Bonus:     map[string]float64{"kw_entertainment": 0.3, "round_amount": 0.05},
			Penalty:   map[string]float64{"is_credit": 0.3, "amount_very_large": 0.2},
			MaxAmount: 3000,
		},
		{
			Category: "Utilities", Subcategory: "Mobile & Internet", Base: 0.1,
			Keywords:  []string{"airtel", "jio", "vodafone", "bsnl", "electricity", "broadband", "recharge", "bescom", "dth"},
			Bonus:     map[string]float64{"kw_utilities": 0.3, "channel_bill": 0.15},
			Penalty:   map[string]float64{"is_credit": 0.3},
			MaxAmount: 20000,
		},
		{
			Category: "Finance", Subcategory: "Loan EMI", Base: 0.1,
			Keywords:  []string{"emi", "loan", "insurance", "lic", "mutual", "sip", "zerodha", "groww", "cred", "policy"},
			Bonus:     map[string]float64{"kw_finance": 0.3, "round_amount": 0.05},
			Penalty:   map[string]float64{"kw_food": 0.2},
			MinAmount: 100,
		},
		{
			Category: "Health", Subcategory: "Pharmacy", Base: 0.1,
			Keywords:  []string{"apollo", "pharmacy", "pharmeasy", "netmeds", "hospital", "clinic", "medical", "chemist"},
			Bonus:     map[string]float64{"kw_health": 0.3},
			Penalty:   map[string]float64{"is_credit": 0.3},
			MaxAmount: 200000,
		},
		{
			Category: "Education", Subcategory: "Fees & Courses", Base: 0.1,
			Keywords:  []string{"school", "college", "university", "tuition", "fees", "udemy", "coursera", "byju"},
			Bonus:     map[string]float64{"kw_education": 0.3},
			Penalty:   map[string]float64{"is_credit": 0.3},
			MinAmount: 100,
		},
		{
			Category: "Travel", Subcategory: "Travel Booking", Base: 0.1,
			Keywords:  []string{"irctc", "makemytrip", "goibibo", "cleartrip", "indigo", "hotel", "oyo", "redbus", "yatra"},
			Bonus:     map[string]float64{"kw_travel": 0.3},
			Penalty:   map[string]float64{"is_credit": 0.3},
			MinAmount: 100,
		},
		{
			Category: "Income", Subcategory: "Salary", Base: 0.05,
			Keywords:  []string{"salary", "payroll", "stipend", "bonus", "interest"},
			Bonus:     map[string]float64{"kw_salary": 0.3, "is_credit": 0.2, "amount_large": 0.05},
			Penalty:   map[string]float64{"channel_card": 0.3},
			MinAmount: 1000,
		},
		{
			Category: "Transfer", Subcategory: "Personal", Base: 0.05,
			Keywords:  []string{"transfer", "trf", "self"},
			Bonus:     map[string]float64{"is_person": 0.25, "channel_imps": 0.1, "channel_neft": 0.1},
			Penalty:   map[string]float64{"is_business": 0.2},
			MinAmount: 1,
		},
		{
			Category: "Cash", Subcategory: "ATM Withdrawal", Base: 0.05,
			Keywords:  []string{"atm", "cash wdl", "nwd", "cash withdrawal"},
			Bonus:     map[string]float64{"channel_atm": 0.35, "round_amount": 0.1},
			Penalty:   map[string]float64{"is_credit": 0.3},
			MinAmount: 100,
			MaxAmount: 50000,
		},
	}
}
