package categorization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/echo-statements/internal/domain/import/normalizer"
	"github.com/FACorreiaa/echo-statements/internal/domain/statement/statementtest"
)

func newTestEnricher() *RuleEnricher {
	return NewRuleEnricher(DefaultRules(), normalizer.NewMerchantNormalizer(normalizer.PolicyLenient))
}

func TestRuleEnricher_ExtractMerchant(t *testing.T) {
	e := newTestEnricher()

	tests := []struct {
		name        string
		description string
		want        string
	}{
		{"upi brand", "UPI/SWIGGY/paytm.s123/YES BANK", "Swiggy"},
		{"upi numeric prefix", "UPI/412345678901/ZOMATO LTD/zomato@hdfcbank", "Zomato"},
		{"upi vpa", "UPI/netflix@icici/123", "Netflix"},
		{"imps receiver", "IMPS/HDFC0001234/RAHUL SHARMA/REF", "Rahul Sharma"},
		{"bill channel", "BIL/ONL/000123/AIRTEL PAYMENTS/X", "Airtel"},
		{"neft dash form", "NEFT-N1234567-ACME TRADERS PVT LTD", "Acme Traders"},
		{"nothing", "CASH DEPOSIT BRANCH", "Unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.ExtractMerchant(tt.description))
		})
	}
}

func TestRuleEnricher_ExtractMerchantStrict(t *testing.T) {
	e := NewRuleEnricher(DefaultRules(), normalizer.NewMerchantNormalizer(normalizer.PolicyStrict))

	assert.Equal(t, "Swiggy", e.ExtractMerchant("UPI/SWIGGY/paytm.s123/YES BANK"))
	assert.Equal(t, "RAHUL SHARMA", e.ExtractMerchant("UPI/RAHUL SHARMA/rahul@okaxis"))
}

func TestRuleEnricher_Categorize(t *testing.T) {
	e := newTestEnricher()

	tests := []struct {
		name        string
		description string
		merchant    string
		amount      float64
		want        CategoryMatch
	}{
		{
			name:        "swiggy food delivery",
			description: "UPI/SWIGGY/paytm.s123/YES BANK",
			merchant:    "Swiggy",
			amount:      450,
			want:        CategoryMatch{Category: "Food & Dining", Subcategory: "Food Delivery", Matched: true},
		},
		{
			name:        "instamart before food delivery",
			description: "UPI/SWIGGY INSTAMART/123",
			merchant:    "Swiggy Instamart",
			amount:      820,
			want:        CategoryMatch{Category: "Groceries", Subcategory: "Online Grocery", Matched: true},
		},
		{
			name:        "netflix recurring",
			description: "UPI/NETFLIX/123",
			merchant:    "Netflix",
			amount:      199,
			want:        CategoryMatch{Category: "Entertainment", Subcategory: "Streaming Services", IsRecurring: true, Matched: true},
		},
		{
			name:        "merchant keyword only on merchant",
			description: "UPI/OLA/ride",
			merchant:    "Ola",
			amount:      240,
			want:        CategoryMatch{Category: "Transportation", Subcategory: "Ride Hailing", Matched: true},
		},
		{
			name:        "merchant keyword ignored in description",
			description: "UPI/COLAB STUDIO/123",
			merchant:    "Unknown",
			amount:      240,
			want:        CategoryMatch{Category: "Others"},
		},
		{
			name:        "short merchant keyword needs a whole word",
			description: "UPI/COLAB STUDIO/123",
			merchant:    "Colab Studio",
			amount:      240,
			want:        CategoryMatch{Category: "Others"},
		},
		{
			name:        "large transfer above threshold",
			description: "NEFT-N1234-ACME",
			merchant:    "Acme",
			amount:      75000,
			want:        CategoryMatch{Category: "Transfer", Subcategory: "Large Transfer", Matched: true},
		},
		{
			name:        "small neft below threshold",
			description: "NEFT-N1234-ACME",
			merchant:    "Acme",
			amount:      500,
			want:        CategoryMatch{Category: "Others"},
		},
		{
			name:        "no rule",
			description: "UPI/ZXQ WIDGETS/123",
			merchant:    "Zxq Widgets",
			amount:      10,
			want:        CategoryMatch{Category: "Others"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Categorize(tt.description, tt.merchant, tt.amount))
		})
	}
}

func TestRuleEnricher_PersonalTransfer(t *testing.T) {
	e := newTestEnricher().WithPersonalTransfer(true)

	match := e.Categorize("UPI/RAHUL SHARMA/rahul@okaxis", "Rahul Sharma", 1500)
	assert.Equal(t, CategoryMatch{Category: "Transfer", Subcategory: "Personal", Matched: true}, match)

	t.Run("business words are not people", func(t *testing.T) {
		match := e.Categorize("UPI/GANESH STORES/123", "Ganesh Stores", 300)
		assert.Equal(t, "Others", match.Category)
	})

	t.Run("unknown merchant is not a person", func(t *testing.T) {
		match := e.Categorize("CASH DEPOSIT", "Unknown", 300)
		assert.Equal(t, "Others", match.Category)
	})

	t.Run("disabled by default", func(t *testing.T) {
		match := newTestEnricher().Categorize("UPI/RAHUL SHARMA/x", "Rahul Sharma", 1500)
		assert.Equal(t, "Others", match.Category)
	})
}

func TestRuleEnricher_Overrides(t *testing.T) {
	store := normalizer.NewOverrideStore()
	require.NoError(t, store.SaveOverride(normalizer.MerchantOverride{
		MatchPattern: "RAHUL SHARMA",
		MatchType:    normalizer.MatchContains,
		MerchantName: "Landlord",
		Category:     "Housing",
		Subcategory:  "Rent & Maintenance",
	}))
	e := newTestEnricher().WithOverrides(store)

	got := e.Enrich("UPI/RAHUL SHARMA/rahul@okaxis", 25000, "DR")
	assert.Equal(t, "Landlord", got.Merchant)
	assert.Equal(t, "Housing", got.Category)
	assert.Equal(t, "Rent & Maintenance", got.Subcategory)
}

func TestRuleEnricher_PaymentMethod(t *testing.T) {
	e := newTestEnricher()

	tests := []struct {
		description string
		want        string
	}{
		{"UPI/SWIGGY/swiggy@ybl", "PhonePe"},
		{"UPI/RAHUL/rahul@okaxis GPAY", "Google Pay"},
		{"UPI/QR/NETFLIX UPI QR", "UPI QR"},
		{"UPI/PAYTM/123", "Paytm"},
		{"UPI/NETFLIX/123", "UPI"},
		{"POS/AMAZON/BLR", "Card"},
		{"NEFT-N123-ACME", "NEFT"},
		{"RTGS/R123/ACME", "RTGS"},
		{"BIL/ONL/123/AIRTEL", "Bill Payment"},
		{"IMPS/HDFC/RAHUL", "IMPS"},
		{"CASH DEPOSIT", "UPI"},
		{"NEFT DEPOSIT FROM ACME", "NEFT"},
		{"IMPS/PURPOSE/RAHUL", "IMPS"},
		{"POS 4111XXXX AMAZON", "Card"},
	}
	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			assert.Equal(t, tt.want, e.PaymentMethod(tt.description))
		})
	}
}

func TestRuleEnricher_Tags(t *testing.T) {
	e := newTestEnricher()

	t.Run("inferred", func(t *testing.T) {
		got := e.Enrich("UPI/SWIGGY/paytm.s123/YES BANK", 450, "DR")
		assert.Equal(t, []string{"food-delivery", "food-dining", "paytm", "swiggy", "upi", "yes-bank"}, got.Tags)
	})

	t.Run("observed", func(t *testing.T) {
		got := newTestEnricher().WithTagPolicy(TagsObserved).Enrich("UPI/NETFLIX/123", 500, "DR")
		assert.Equal(t, []string{"entertainment", "netflix", "upi"}, got.Tags)
	})

	t.Run("deposit is not a card channel", func(t *testing.T) {
		for _, d := range []string{"CASH DEPOSIT BRANCH", "NEFT DEPOSIT FROM ACME", "IMPS/PURPOSE/RAHUL"} {
			got := e.Enrich(d, 500, "CR")
			assert.NotContains(t, got.Tags, "card", d)
			assert.NotEqual(t, "Card", got.PaymentMethod, d)
		}
		assert.Contains(t, e.Enrich("POS/AMAZON/BLR", 500, "DR").Tags, "card")
	})

	t.Run("amount bands", func(t *testing.T) {
		assert.Contains(t, e.Enrich("NEFT-N1-ACME", 60000, "DR").Tags, "high-value")
		assert.Contains(t, e.Enrich("NEFT-N1-ACME", 60000, "DR").Tags, "round-amount")
		assert.Contains(t, e.Enrich("UPI/CHAI POINT/1", 40, "DR").Tags, "small")
	})

	t.Run("unique and non-empty for generated input", func(t *testing.T) {
		gen := statementtest.New(7)
		for i := 0; i < 200; i++ {
			_, line := gen.Line(0)
			tags := e.Enrich(line.Description, line.Amount, "DR").Tags
			seen := make(map[string]bool, len(tags))
			for _, tag := range tags {
				assert.NotEmpty(t, tag)
				assert.False(t, seen[tag], "duplicate tag %q in %v", tag, tags)
				seen[tag] = true
			}
			assert.True(t, seen[Slug(e.Categorize(line.Description, e.ExtractMerchant(line.Description), line.Amount).Category)])
		}
	})
}

func TestRuleEnricher_Notes(t *testing.T) {
	e := newTestEnricher()

	tests := []struct {
		name        string
		description string
		want        string
	}{
		{"bank reference", "UPI/SWIGGY/ICIab12cd34ef/YES", "Ref: ICIab12cd34ef"},
		{"generic reference", "NEFT-N412345678901-ACME", "Ref: N412345678901"},
		{"letters only run is ignored", "UPI/ABCDEFGHIJKLMNOP/X", ""},
		{"no reference", "UPI/SWIGGY/123", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Notes(tt.description))
		})
	}
}

func TestRuleEnricher_Enrich(t *testing.T) {
	got := newTestEnricher().Enrich("UPI/NETFLIX/123", 199, "DR")

	assert.Equal(t, "Netflix", got.Merchant)
	assert.True(t, got.MerchantFound)
	assert.Equal(t, "Entertainment", got.Category)
	assert.Equal(t, "Streaming Services", got.Subcategory)
	assert.True(t, got.IsRecurring)
	assert.Equal(t, "UPI", got.PaymentMethod)
	assert.Contains(t, got.Tags, "subscription")
	assert.Contains(t, got.Tags, "recurring")
	assert.Empty(t, got.Notes)
}
