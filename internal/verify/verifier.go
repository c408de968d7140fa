// Package verify cross-checks a normalized record set for arithmetic
// integrity before analytics run over it.
//
// Verification is non-blocking: a failed check never stops the pipeline, it
// only marks the result so callers know the analytics ran on questionable
// data. Error-class checks flip IsValid to false; warning-class checks are
// purely informational.
package verify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dhruvsaxena/splitsight/internal/currency"
	"github.com/dhruvsaxena/splitsight/internal/models"
)

// Verifier runs the fixed battery of consistency checks.
type Verifier struct {
	currentUserID int64
	baseCurrency  string
}

// New builds a Verifier for the given analytics subject and base currency.
func New(currentUserID int64, baseCurrency string) *Verifier {
	return &Verifier{currentUserID: currentUserID, baseCurrency: strings.ToUpper(baseCurrency)}
}

// Verify runs all five checks over the normalized set. Empty input trivially
// validates with zero messages.
func (v *Verifier) Verify(records []models.Record, groups []models.Group) models.ValidationResult {
	res := models.ValidationResult{
		Errors:   []string{},
		Warnings: []string{},
	}

	v.checkExpenseBalance(records, &res)
	v.checkGroupZeroSum(records, groups, &res)
	v.checkNetBalanceConsistency(records, &res)
	v.checkSettlementZeroSum(records, &res)
	v.checkCurrencyConsistency(records, groups, &res)

	res.IsValid = len(res.Errors) == 0
	return res
}

// checkExpenseBalance: for every non-settlement record the paid shares must
// sum to the owed shares. A violation indicates a corrupt source record.
func (v *Verifier) checkExpenseBalance(records []models.Record, res *models.ValidationResult) {
	for i := range records {
		rec := &records[i]
		if rec.IsSettlement {
			continue
		}
		var paid, owed float64
		for _, s := range rec.Shares {
			paid += s.PaidShare
			owed += s.OwedShare
		}
		eps := currency.Epsilon(rec.CurrencyCode)
		if diff := paid - owed; diff > eps || diff < -eps {
			res.Errors = append(res.Errors, fmt.Sprintf(
				"expense %d (%s): paid total %.2f != owed total %.2f",
				rec.ID, rec.Description, paid, owed))
		}
	}
}

// checkGroupZeroSum: within each group the members' net positions must sum
// to zero; money cannot appear or vanish inside a well-formed ledger.
func (v *Verifier) checkGroupZeroSum(records []models.Record, groups []models.Group, res *models.ValidationResult) {
	totals := map[int64]float64{}
	for i := range records {
		rec := &records[i]
		if rec.IsSettlement {
			continue
		}
		for _, s := range rec.Shares {
			totals[rec.GroupID] += s.Net()
		}
	}

	ids := make([]int64, 0, len(totals))
	for id := range totals {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	eps := currency.Epsilon(v.baseCurrency)
	for _, id := range ids {
		total := totals[id]
		if total > eps || total < -eps {
			res.Errors = append(res.Errors, fmt.Sprintf(
				"%s: member net positions sum to %.2f, want 0", groupLabel(id, groups), total))
		}
	}
}

// checkNetBalanceConsistency: the current user's global net balance must
// equal the sum of their per-group net balances.
func (v *Verifier) checkNetBalanceConsistency(records []models.Record, res *models.ValidationResult) {
	var global float64
	perGroup := map[int64]float64{}
	for i := range records {
		rec := &records[i]
		if rec.IsSettlement {
			continue
		}
		if s, ok := rec.ShareOf(v.currentUserID); ok {
			global += s.Net()
			perGroup[rec.GroupID] += s.Net()
		}
	}
	var groupSum float64
	for _, n := range perGroup {
		groupSum += n
	}
	eps := currency.Epsilon(v.baseCurrency)
	if diff := global - groupSum; diff > eps || diff < -eps {
		res.Errors = append(res.Errors, fmt.Sprintf(
			"net balance mismatch: global %.2f != per-group sum %.2f", global, groupSum))
	}
}

// checkSettlementZeroSum: settlements shift money between users, so their
// net positions should cancel out. Asymmetric partial payments can
// legitimately break this, hence warning, not error.
func (v *Verifier) checkSettlementZeroSum(records []models.Record, res *models.ValidationResult) {
	var total float64
	var any bool
	for i := range records {
		rec := &records[i]
		if !rec.IsSettlement {
			continue
		}
		any = true
		for _, s := range rec.Shares {
			total += s.Net()
		}
	}
	eps := currency.Epsilon(v.baseCurrency)
	if any && (total > eps || total < -eps) {
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"settlement net positions sum to %.2f, want 0 (partial payments?)", total))
	}
}

// checkCurrencyConsistency: after normalization every expense in a group
// should carry the base currency. A stray code means the conversion table
// had a gap.
func (v *Verifier) checkCurrencyConsistency(records []models.Record, groups []models.Group, res *models.ValidationResult) {
	byGroup := map[int64]map[string]bool{}
	for i := range records {
		rec := &records[i]
		set, ok := byGroup[rec.GroupID]
		if !ok {
			set = map[string]bool{}
			byGroup[rec.GroupID] = set
		}
		set[rec.CurrencyCode] = true
	}

	ids := make([]int64, 0, len(byGroup))
	for id := range byGroup {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		set := byGroup[id]
		if len(set) <= 1 {
			continue
		}
		codes := make([]string, 0, len(set))
		for c := range set {
			codes = append(codes, c)
		}
		sort.Strings(codes)
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"%s: multiple currencies after normalization: %s (conversion table gap?)",
			groupLabel(id, groups), strings.Join(codes, ", ")))
	}
}

func groupLabel(id int64, groups []models.Group) string {
	if id == 0 {
		return "non-group expenses"
	}
	for i := range groups {
		if groups[i].ID == id {
			return fmt.Sprintf("group %q", groups[i].Name)
		}
	}
	return fmt.Sprintf("group %d", id)
}
