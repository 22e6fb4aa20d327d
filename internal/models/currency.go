package models

import (
	"fmt"
	"math/big"
	"strings"
)

// Currency describes a currency the wallet can display: its code, display
// sign, and how many fraction digits a minor-unit amount carries.
type Currency struct {
	Code           string `json:"code"`
	Sign           string `json:"sign"`
	FractionDigits int    `json:"fraction_digits"`
	Fiat           bool   `json:"fiat"`
}

// RateScale is the fixed-point scale factor for exchange-rate prices.
// A rate of 1.00 is stored as 1_000_000.
const RateScale = 1_000_000

// Ledger and fiat currencies known to the wallet. Ledger amounts and fiat
// amounts are both carried at 6 fraction digits on the wire.
var currencies = map[string]Currency{
	"XUS": {Code: "XUS", Sign: "≋XUS", FractionDigits: 6},
	"XDX": {Code: "XDX", Sign: "≋XDX", FractionDigits: 6},
	"USD": {Code: "USD", Sign: "$", FractionDigits: 6, Fiat: true},
	"EUR": {Code: "EUR", Sign: "€", FractionDigits: 6, Fiat: true},
	"GBP": {Code: "GBP", Sign: "£", FractionDigits: 6, Fiat: true},
	"CHF": {Code: "CHF", Sign: "Fr", FractionDigits: 6, Fiat: true},
	"CAD": {Code: "CAD", Sign: "$", FractionDigits: 6, Fiat: true},
	"AUD": {Code: "AUD", Sign: "$", FractionDigits: 6, Fiat: true},
	"NGN": {Code: "NGN", Sign: "₦", FractionDigits: 6, Fiat: true},
	"JPY": {Code: "JPY", Sign: "¥", FractionDigits: 6, Fiat: true},
}

// LookupCurrency returns the metadata for a currency code.
func LookupCurrency(code string) (Currency, bool) {
	c, ok := currencies[strings.ToUpper(code)]
	return c, ok
}

// Balance is one (currency, minor-unit amount) entry of an account.
type Balance struct {
	Currency string `json:"currency"`
	Amount   int64  `json:"balance"`
}

// Account holds the balances fetched for the signed-in user, in backend order.
type Account struct {
	Balances []Balance `json:"balances"`
}

// Rate is one exchange rate quote. Pair has the form "BASE_QUOTE"; Price is
// fixed point at RateScale.
type Rate struct {
	Pair  string `json:"currency_pair"`
	Price int64  `json:"price"`
}

// Rates indexes exchange rates by currency pair.
type Rates map[string]int64

// RatesFromList builds a Rates index from backend rate entries.
func RatesFromList(list []Rate) Rates {
	r := make(Rates, len(list))
	for _, q := range list {
		r[q.Pair] = q.Price
	}
	return r
}

// pow10 for fraction-digit scaling; currencies top out at 6 digits.
func pow10(n int) int64 {
	p := int64(1)
	for i := 0; i < n; i++ {
		p *= 10
	}
	return p
}

// FiatAmount is a fiat value in minor units of the target fiat currency.
type FiatAmount struct {
	Currency string
	Amount   int64
}

// String formats the amount with the currency's declared precision, e.g. "0.50".
func (a FiatAmount) String() string {
	digits := 6
	if c, ok := LookupCurrency(a.Currency); ok {
		digits = c.FractionDigits
	}
	scale := pow10(digits)
	whole := a.Amount / scale
	frac := a.Amount % scale
	if frac < 0 {
		frac = -frac
	}
	// Trim to two display decimals, rounding down
	cents := frac * 100 / scale
	return fmt.Sprintf("%d.%02d", whole, cents)
}

// Convert converts a minor-unit balance in one currency to minor units of the
// target fiat currency using the given rates. Returns an error when either
// currency is unknown or no rate is published for the pair.
func Convert(b Balance, fiat string, rates Rates) (FiatAmount, error) {
	from, ok := LookupCurrency(b.Currency)
	if !ok {
		return FiatAmount{}, fmt.Errorf("unknown currency '%s'", b.Currency)
	}
	to, ok := LookupCurrency(fiat)
	if !ok {
		return FiatAmount{}, fmt.Errorf("unknown fiat currency '%s'", fiat)
	}

	if from.Code == to.Code {
		return FiatAmount{Currency: to.Code, Amount: b.Amount}, nil
	}

	pair := from.Code + "_" + to.Code
	price, ok := rates[pair]
	if !ok {
		return FiatAmount{}, fmt.Errorf("no rate for pair '%s'", pair)
	}

	// amount/10^from.digits * price/RateScale, carried in minor units of the
	// target currency. Multiply before dividing to keep integer precision;
	// the intermediate product overflows int64 for large balances, so it is
	// carried in a big.Int.
	v := new(big.Int).Mul(big.NewInt(b.Amount), big.NewInt(price))
	v.Quo(v, big.NewInt(RateScale))
	if from.FractionDigits != to.FractionDigits {
		v.Mul(v, big.NewInt(pow10(to.FractionDigits)))
		v.Quo(v, big.NewInt(pow10(from.FractionDigits)))
	}
	return FiatAmount{Currency: to.Code, Amount: v.Int64()}, nil
}

// TotalFiatBalance sums all balances converted to the target fiat currency.
// Balances with no published rate are skipped rather than failing the total.
func TotalFiatBalance(balances []Balance, fiat string, rates Rates) FiatAmount {
	total := FiatAmount{Currency: strings.ToUpper(fiat)}
	for _, b := range balances {
		fa, err := Convert(b, fiat, rates)
		if err != nil {
			continue
		}
		total.Amount += fa.Amount
	}
	return total
}
