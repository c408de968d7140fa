package currency

import (
	"math"
	"strings"

	"github.com/Rhymond/go-money"
)

// fraction returns the number of minor-unit digits for a currency code,
// falling back to 2 for codes the ISO registry does not know.
func fraction(code string) int {
	if c := money.GetCurrency(strings.ToUpper(code)); c != nil {
		return c.Fraction
	}
	return 2
}

// Epsilon is the tolerance used when comparing amounts in the given
// currency: one minor unit (0.01 for USD, 1 for JPY). Floating-point
// rounding inside the pipeline never exceeds it.
func Epsilon(code string) float64 {
	return math.Pow(10, -float64(fraction(code)))
}

// Known reports whether the code is a recognized ISO 4217 currency.
func Known(code string) bool {
	return money.GetCurrency(strings.ToUpper(code)) != nil
}
