package dynamo

import "github.com/shopspring/decimal"

// Money travels as a fixed two-decimal string attribute, same convention as
// the document store.
func moneyOut(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func moneyIn(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
