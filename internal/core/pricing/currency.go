package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// BaseCurrency is the currency revenue is reported in.
const BaseCurrency = "PKR"

// fallbackRate applies to currencies missing from exchangeRates (USD rate).
var fallbackRate = decimal.RequireFromString("278.50")

// exchangeRates holds units of BaseCurrency per unit of the source currency.
var exchangeRates = map[string]decimal.Decimal{
	"PKR": decimal.NewFromInt(1),
	"USD": decimal.RequireFromString("278.50"),
	"EUR": decimal.RequireFromString("295.00"),
	"GBP": decimal.RequireFromString("345.00"),
	"AED": decimal.RequireFromString("76.00"),
	"SAR": decimal.RequireFromString("74.00"),
}

// ToBaseCurrency converts amount from the given currency into BaseCurrency,
// rounded to two decimals.
func ToBaseCurrency(amount float64, from string) float64 {
	rate, ok := exchangeRates[strings.ToUpper(strings.TrimSpace(from))]
	if !ok {
		rate = fallbackRate
	}
	return decimal.NewFromFloat(amount).Mul(rate).Round(2).InexactFloat64()
}
