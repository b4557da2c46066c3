package categorization

// DefaultPaymentMethod is assumed when no marker is present; statements are UPI dominated.
const DefaultPaymentMethod = "UPI"

// paymentMarkers is the priority-ordered list of payment-method markers.
var paymentMarkers = []struct {
	method   string
	patterns []string
}{
	{"UPI QR", []string{"UPI QR", "UPIQR", "QR CODE", "BHARATQR", "BHARAT QR", "/QR/"}},
	{"Google Pay", []string{"GOOGLE PAY", "GOOGLEPAY", "GPAY", "@OKAXIS", "@OKHDFC", "@OKSBI", "@OKICICI"}},
	{"Paytm", []string{"PAYTM"}},
	{"PhonePe", []string{"PHONEPE", "@YBL", "@IBL", "@AXL"}},
	{"UPI", []string{"UPI"}},
	{"Card", []string{"CARD", "POS/", "POS ", "VISA", "MASTERCARD", "RUPAY"}},
	{"NEFT", []string{"NEFT"}},
	{"RTGS", []string{"RTGS"}},
	{"Bill Payment", []string{"BIL/", "BILLPAY", "BPAY"}},
	{"IMPS", []string{"IMPS"}},
}

func newPaymentEngine() *Engine {
	var keywords []Keyword
	for i, m := range paymentMarkers {
		for _, p := range m.patterns {
			keywords = append(keywords, Keyword{
				Pattern:  p,
				Value:    m.method,
				Index:    i,
				Priority: len(paymentMarkers) - i,
			})
		}
	}
	return NewEngine(keywords)
}
