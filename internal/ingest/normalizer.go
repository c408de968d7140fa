package ingest

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dhruvsaxena/splitsight/internal/currency"
	"github.com/dhruvsaxena/splitsight/internal/models"
)

// MalformedRecordError describes a raw record that could not be parsed.
// In strict mode the first one aborts normalization; in lenient mode the
// record is dropped and the failure is reported in Result.Skipped. The
// exception is share-amount failures, which are always fatal because they
// would make share-sum arithmetic undefined downstream.
type MalformedRecordError struct {
	ExpenseID int64
	Field     string
	Reason    string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("expense %d: malformed %s: %s", e.ExpenseID, e.Field, e.Reason)
}

// Normalizer converts raw heterogeneous records into a canonical record set:
// one base currency, UTC timestamps, settlement flags resolved, deterministic
// ordering.
type Normalizer struct {
	rates  currency.RateProvider
	base   string
	strict bool
}

// NewNormalizer builds a Normalizer converting into the given base currency.
// strict controls how malformed records are handled (abort vs skip).
func NewNormalizer(rates currency.RateProvider, baseCurrency string, strict bool) *Normalizer {
	return &Normalizer{
		rates:  rates,
		base:   strings.ToUpper(baseCurrency),
		strict: strict,
	}
}

// Result is the output of one normalization pass.
type Result struct {
	Records []models.Record
	Groups  []models.Group

	// Skipped lists records dropped in lenient mode, one message each.
	Skipped []string

	// SourceCurrencies are the distinct codes observed before conversion.
	SourceCurrencies []string
}

// timestamp layouts accepted from the wire, most specific first.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func parseAmount(s string) (float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable amount %q", s)
	}
	return v, nil
}

// Normalize converts raw expenses and groups into the canonical record set.
// Records are returned ascending by timestamp, ties broken by id. Deleted
// records are dropped without being reported as skipped.
func (n *Normalizer) Normalize(raws []RawExpense, rawGroups []RawGroup) (*Result, error) {
	res := &Result{}
	seen := map[string]bool{}

	for i := range raws {
		raw := &raws[i]
		if raw.DeletedAt != "" {
			continue
		}
		code := strings.ToUpper(raw.CurrencyCode)
		if code == "" {
			code = n.base
		}
		if !seen[code] {
			seen[code] = true
			res.SourceCurrencies = append(res.SourceCurrencies, code)
		}

		rec, err := n.normalizeExpense(raw, code)
		if err != nil {
			if n.strict {
				return nil, err
			}
			// Share-sum arithmetic must stay defined even in lenient
			// mode, so share-amount failures abort the whole pass.
			var merr *MalformedRecordError
			if errors.As(err, &merr) && merr.Field == "share" {
				return nil, err
			}
			res.Skipped = append(res.Skipped, err.Error())
			continue
		}
		res.Records = append(res.Records, rec)
	}

	sort.Slice(res.Records, func(i, j int) bool {
		a, b := res.Records[i], res.Records[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.ID < b.ID
	})
	sort.Strings(res.SourceCurrencies)

	groups, err := n.normalizeGroups(rawGroups)
	if err != nil {
		return nil, err
	}
	res.Groups = groups
	return res, nil
}

func (n *Normalizer) normalizeExpense(raw *RawExpense, code string) (models.Record, error) {
	date, err := parseTimestamp(raw.Date)
	if err != nil {
		return models.Record{}, &MalformedRecordError{ExpenseID: raw.ID, Field: "date", Reason: err.Error()}
	}

	cost, err := parseAmount(raw.Cost)
	if err != nil {
		return models.Record{}, &MalformedRecordError{ExpenseID: raw.ID, Field: "cost", Reason: err.Error()}
	}

	shares := make([]models.Share, 0, len(raw.Users))
	for _, u := range raw.Users {
		paid, err := parseAmount(u.PaidShare)
		if err != nil {
			return models.Record{}, &MalformedRecordError{ExpenseID: raw.ID, Field: "share", Reason: err.Error()}
		}
		owed, err := parseAmount(u.OwedShare)
		if err != nil {
			return models.Record{}, &MalformedRecordError{ExpenseID: raw.ID, Field: "share", Reason: err.Error()}
		}
		shares = append(shares, models.Share{UserID: u.User.ID, PaidShare: paid, OwedShare: owed})
	}

	repayments := make([]models.Repayment, 0, len(raw.Repayments))
	for _, r := range raw.Repayments {
		amt, err := parseAmount(r.Amount)
		if err != nil {
			return models.Record{}, &MalformedRecordError{ExpenseID: raw.ID, Field: "repayment", Reason: err.Error()}
		}
		repayments = append(repayments, models.Repayment{
			FromUserID:   r.FromUserID,
			ToUserID:     r.ToUserID,
			Amount:       amt,
			CurrencyCode: code,
		})
	}

	rec := models.Record{
		Expense: models.Expense{
			ID:           raw.ID,
			GroupID:      raw.GroupID,
			Description:  raw.Description,
			Amount:       cost,
			CurrencyCode: code,
			Date:         date,
			IsPayment:    raw.Payment,
			Category:     strings.TrimSpace(raw.Category.Name),
			CreatedByID:  raw.CreatedBy.ID,
			Shares:       shares,
			Repayments:   repayments,
		},
		SourceCurrency: code,
		Converted:      true,
	}

	n.convert(&rec)
	rec.IsSettlement = raw.Payment || degenerateTransfer(rec.Shares, currency.Epsilon(rec.CurrencyCode))
	return rec, nil
}

// convert rescales all amounts into the base currency. A record whose
// currency has no known rate is passed through untouched with
// Converted=false; the verifier turns that into a warning.
func (n *Normalizer) convert(rec *models.Record) {
	if rec.SourceCurrency == n.base {
		rec.CurrencyCode = n.base
		return
	}
	rate, ok := n.rates.Rate(rec.SourceCurrency, n.base)
	if !ok {
		rec.Converted = false
		return
	}
	rec.Amount = currency.Convert(rec.Amount, rate, n.base)
	for i := range rec.Shares {
		rec.Shares[i].PaidShare = currency.Convert(rec.Shares[i].PaidShare, rate, n.base)
		rec.Shares[i].OwedShare = currency.Convert(rec.Shares[i].OwedShare, rate, n.base)
	}
	for i := range rec.Repayments {
		rec.Repayments[i].Amount = currency.Convert(rec.Repayments[i].Amount, rate, n.base)
		rec.Repayments[i].CurrencyCode = n.base
	}
	rec.CurrencyCode = n.base
}

// degenerateTransfer reports whether the shares describe a plain transfer:
// exactly one payer, exactly one ower, equal and opposite amounts. Used as a
// best-effort fallback when the source payment flag is missing; anything
// ambiguous stays an ordinary expense.
func degenerateTransfer(shares []models.Share, eps float64) bool {
	var payers, owers int
	var paid, owed float64
	for _, s := range shares {
		switch {
		case s.PaidShare > eps && s.OwedShare <= eps:
			payers++
			paid = s.PaidShare
		case s.OwedShare > eps && s.PaidShare <= eps:
			owers++
			owed = s.OwedShare
		case s.PaidShare > eps && s.OwedShare > eps:
			// Participant both paid and owes: not a plain transfer.
			return false
		}
	}
	if payers != 1 || owers != 1 {
		return false
	}
	return abs(paid-owed) <= eps
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func (n *Normalizer) normalizeGroups(raws []RawGroup) ([]models.Group, error) {
	groups := make([]models.Group, 0, len(raws))
	for _, rg := range raws {
		updated, err := parseTimestamp(rg.UpdatedAt)
		if err != nil {
			if n.strict {
				return nil, fmt.Errorf("group %d: malformed updated_at: %w", rg.ID, err)
			}
			updated = time.Time{}
		}
		members := make([]models.User, 0, len(rg.Members))
		for _, m := range rg.Members {
			members = append(members, models.User{ID: m.ID, Name: displayName(m), Email: m.Email})
		}
		groups = append(groups, models.Group{
			ID:        rg.ID,
			Name:      rg.Name,
			GroupType: rg.GroupType,
			UpdatedAt: updated,
			Members:   members,
		})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].ID < groups[j].ID })
	return groups, nil
}

func displayName(u RawUser) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return fmt.Sprintf("user %d", u.ID)
	}
	return name
}
