package models

// Record is an Expense after normalization: amounts rescaled into the base
// currency, the timestamp in UTC, and the settlement flag resolved from the
// source payment flag or the degenerate-shares heuristic.
//
// A Record whose source currency had no exchange rate is passed through
// unconverted (Converted == false, CurrencyCode left as the source code); the
// verifier surfaces that gap as a warning.
type Record struct {
	Expense

	// SourceCurrency is the currency code the expense arrived in.
	SourceCurrency string `json:"source_currency"`

	// Converted reports whether amounts were rescaled into the base
	// currency. False means no rate was available for SourceCurrency.
	Converted bool `json:"converted"`

	// IsSettlement is true for settlement transfers: the source payment
	// flag was set, or the shares were degenerate (exactly one payer and
	// one ower with equal opposite amounts).
	IsSettlement bool `json:"is_settlement"`
}
