// Package currency provides exchange-rate lookup and minor-unit arithmetic
// for the normalization pipeline.
//
// Rates are static spot rates, not historical rates: the table answers "what
// is one unit of X worth in Y today", regardless of transaction date. That is
// a deliberate simplification; records whose currency is missing from the
// table pass through unconverted and get flagged at verification time.
package currency

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"
)

// RateProvider resolves the multiplier converting one unit of the from
// currency into the to currency. The boolean is false when no rate is known
// for the pair.
//
// It is an explicit dependency of the Normalizer rather than ambient global
// state, so tests can inject deterministic fixed rates.
type RateProvider interface {
	Rate(from, to string) (decimal.Decimal, bool)
}

// StaticTable is a RateProvider backed by a fixed map of per-currency values
// expressed in a single pivot currency. Cross rates are derived through the
// pivot: rate(A->B) = value(A) / value(B).
type StaticTable struct {
	values map[string]decimal.Decimal
}

// defaultSpotValues is the built-in table, valued in USD.
var defaultSpotValues = map[string]float64{
	"USD": 1.0,
	"EUR": 1.10,
	"GBP": 1.27,
	"INR": 0.012,
	"CAD": 0.74,
	"AUD": 0.65,
}

// NewStaticTable builds a table from per-currency pivot values. Codes are
// upper-cased; zero or negative values are rejected.
func NewStaticTable(values map[string]float64) (*StaticTable, error) {
	t := &StaticTable{values: make(map[string]decimal.Decimal, len(values))}
	for code, v := range values {
		if v <= 0 {
			return nil, fmt.Errorf("rate for %s must be positive, got %v", code, v)
		}
		t.values[strings.ToUpper(code)] = decimal.NewFromFloat(v)
	}
	return t, nil
}

// DefaultTable returns the built-in spot-rate table.
func DefaultTable() *StaticTable {
	t, err := NewStaticTable(defaultSpotValues)
	if err != nil {
		panic(err) // built-in values are constants
	}
	return t
}

// rateFile is the YAML schema for LoadTable.
type rateFile struct {
	Rates map[string]float64 `yaml:"rates"`
}

// LoadTable reads a rate table from a YAML file of the form:
//
//	rates:
//	  USD: 1.0
//	  EUR: 1.10
func LoadTable(path string) (*StaticTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rate table: %w", err)
	}
	var f rateFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse rate table %s: %w", path, err)
	}
	if len(f.Rates) == 0 {
		return nil, fmt.Errorf("rate table %s contains no rates", path)
	}
	return NewStaticTable(f.Rates)
}

// Rate implements RateProvider.
func (t *StaticTable) Rate(from, to string) (decimal.Decimal, bool) {
	from = strings.ToUpper(from)
	to = strings.ToUpper(to)
	if from == to {
		return decimal.NewFromInt(1), true
	}
	fv, ok := t.values[from]
	if !ok {
		return decimal.Decimal{}, false
	}
	tv, ok := t.values[to]
	if !ok {
		return decimal.Decimal{}, false
	}
	return fv.Div(tv), true
}

// Convert rescales amount by rate and rounds half-up to the minor unit of
// the target currency.
func Convert(amount float64, rate decimal.Decimal, to string) float64 {
	d := decimal.NewFromFloat(amount).Mul(rate)
	return d.Round(int32(fraction(to))).InexactFloat64()
}
