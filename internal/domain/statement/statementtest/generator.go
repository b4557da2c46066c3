// Package statementtest generates realistic statement pages for tests using gofakeit.
package statementtest

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/FACorreiaa/echo-statements/internal/domain/statement/layout"
)

// Column offsets of the reference statement layout.
const (
	DateX        = 0.0
	DescriptionX = 40.0
	AmountX      = 200.0
	TypeX        = 260.0
	BalanceX     = 330.0
	LineHeight   = 20.0
	TopY         = 700.0
)

var merchants = []string{
	"SWIGGY", "ZOMATO", "NETFLIX", "AMAZON", "FLIPKART", "UBER", "OLA",
	"BIGBASKET", "AIRTEL", "JIO", "MYNTRA", "SPOTIFY", "IRCTC", "APOLLO PHARMACY",
}

// Line describes one generated statement line and the values it encodes.
type Line struct {
	Date        time.Time
	DateText    string
	Merchant    string
	Description string
	Amount      float64
	AmountText  string
	Type        string
	Y           float64
}

// Generator produces statement fragments.
type Generator struct {
	faker *gofakeit.Faker
}

// New creates a generator with a fixed seed for reproducible fixtures.
func New(seed int64) *Generator {
	return &Generator{faker: gofakeit.New(seed)}
}

// Merchant returns one of the brands known to the reference rule set.
func (g *Generator) Merchant() string {
	return g.faker.RandomString(merchants)
}

// Amount returns a two-decimal amount between 10 and 25000.
func (g *Generator) Amount() float64 {
	return math.Round(g.faker.Price(10, 25000)*100) / 100
}

// Date returns a date within 2024.
func (g *Generator) Date() time.Time {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	d := g.faker.DateRange(start, end)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

// Line generates a single-row transaction at the given y.
func (g *Generator) Line(y float64) ([]layout.Fragment, Line) {
	date := g.Date()
	merchant := g.Merchant()
	amount := g.Amount()
	txType := "DR"
	if g.faker.Number(0, 4) == 0 {
		txType = "CR"
	}
	ref := fmt.Sprintf("%d", g.faker.Number(100000, 999999))

	line := Line{
		Date:        date,
		DateText:    date.Format("02-01-2006"),
		Merchant:    merchant,
		Description: "UPI/" + merchant + "/" + ref,
		Amount:      amount,
		AmountText:  FormatAmount(amount),
		Type:        txType,
		Y:           y,
	}

	// Sub-pixel jitter mirrors what real renderers emit on one visual line.
	jitter := func() float64 { return g.faker.Float64Range(-1.5, 1.5) }
	fragments := []layout.Fragment{
		{Text: line.DateText, X: DateX, Y: y + jitter()},
		{Text: line.Description, X: DescriptionX, Y: y + jitter()},
		{Text: line.AmountText, X: AmountX, Y: y + jitter()},
		{Text: line.Type, X: TypeX, Y: y + jitter()},
	}
	return fragments, line
}

// Page generates n transaction lines spaced LineHeight apart from TopY down.
func (g *Generator) Page(n int) ([]layout.Fragment, []Line) {
	var fragments []layout.Fragment
	lines := make([]Line, 0, n)
	for i := 0; i < n; i++ {
		f, l := g.Line(TopY - float64(i)*LineHeight)
		fragments = append(fragments, f...)
		lines = append(lines, l)
	}
	return fragments, lines
}

// Shuffle returns a shuffled copy of fragments.
func (g *Generator) Shuffle(fragments []layout.Fragment) []layout.Fragment {
	out := make([]layout.Fragment, len(fragments))
	copy(out, fragments)
	g.faker.ShuffleAnySlice(out)
	return out
}

// FormatAmount renders an amount with comma thousands grouping and two decimals.
func FormatAmount(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String() + "." + frac
}
