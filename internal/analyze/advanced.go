package analyze

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dhruvsaxena/splitsight/internal/currency"
	"github.com/dhruvsaxena/splitsight/internal/models"
)

const (
	// DefaultAnomalyMultiplier is k in the mean + k*stddev threshold.
	DefaultAnomalyMultiplier = 3.0

	// anomalyMinSamples guards the detector against near-zero stddev:
	// below this count it returns no anomalies rather than dividing noise.
	anomalyMinSamples = 5

	// subscriptionMinOccurrences is how many times a description pattern
	// must repeat before it can qualify as recurring.
	subscriptionMinOccurrences = 3

	// descriptionKeyTokens is how many leading tokens of a description
	// form the recurrence grouping key.
	descriptionKeyTokens = 3

	// weeksPerMonth converts a weekly cadence to a monthly equivalent.
	weeksPerMonth = 4.33

	// predictionDeadZone is the slope band (base units per month) treated
	// as a stable trend.
	predictionDeadZone = 0.5

	// Friction weighting. Tunable, not load-bearing: any choice keeping
	// the score bounded and monotonic in both inputs would do.
	frictionUnpaidWeight = 0.6
	frictionDelayWeight  = 0.4
	frictionUnpaidScale  = 100.0 // base units at which unpaid contributes half its weight
	frictionDelayScale   = 30.0  // days at which delay contributes half its weight
)

// Advanced bundles the second-stage analyzers: anomaly detection,
// subscription detection, settlement efficiency, balance prediction,
// friction ranking, and cash flow. It runs after the spending and balance
// analyzers because prediction consumes the balance time series.
type Advanced struct {
	currentUserID int64
	baseCurrency  string
}

// NewAdvanced builds the advanced analyzer family for the given subject.
func NewAdvanced(currentUserID int64, baseCurrency string) *Advanced {
	return &Advanced{currentUserID: currentUserID, baseCurrency: baseCurrency}
}

// --- anomaly detection ---

// DetectAnomalies flags expenses whose owed share exceeds mean + k*stddev
// over the full set, with severity tiers keyed off the same k. Re-running on
// identical input yields the identical flags.
func (a *Advanced) DetectAnomalies(records []models.Record, multiplier float64) models.AnomalyInsight {
	type sample struct {
		rec    *models.Record
		amount float64
	}
	var samples []sample
	var amounts []float64
	for i := range records {
		rec := &records[i]
		if rec.IsSettlement {
			continue
		}
		share, ok := rec.ShareOf(a.currentUserID)
		if !ok || share.OwedShare <= 0 {
			continue
		}
		samples = append(samples, sample{rec: rec, amount: share.OwedShare})
		amounts = append(amounts, share.OwedShare)
	}

	insight := models.AnomalyInsight{
		Anomalies:    []models.Anomaly{},
		Multiplier:   multiplier,
		CurrencyCode: a.baseCurrency,
	}
	if len(amounts) < anomalyMinSamples {
		insight.Explanation = fmt.Sprintf(
			"Insufficient data for anomaly detection (%d of %d required samples).",
			len(amounts), anomalyMinSamples)
		return insight
	}

	m := mean(amounts)
	sd := popStdDev(amounts)
	insight.Mean = m
	insight.StdDev = sd
	if sd < 1e-9 {
		insight.Explanation = "All amounts are identical; no anomalies."
		return insight
	}

	threshold := m + multiplier*sd
	for _, s := range samples {
		if s.amount <= threshold {
			continue
		}
		z := (s.amount - m) / sd
		severity := models.SeverityLow
		switch {
		case z >= multiplier+2:
			severity = models.SeverityHigh
		case z >= multiplier+1:
			severity = models.SeverityMedium
		}
		insight.Anomalies = append(insight.Anomalies, models.Anomaly{
			ExpenseID:   s.rec.ID,
			Date:        s.rec.Date,
			Description: s.rec.Description,
			Amount:      s.amount,
			Threshold:   threshold,
			Severity:    severity,
		})
	}

	insight.Explanation = fmt.Sprintf(
		"%d anomaly(ies) above %.2f (mean %.2f + %.1fx stddev %.2f).",
		len(insight.Anomalies), threshold, m, multiplier, sd)
	return insight
}

// --- subscription detection ---

// cadence describes one canonical recurrence period, with the band of
// median gaps that maps onto it.
type cadence struct {
	name       string
	periodDays float64
	lo, hi     float64
}

var cadences = []cadence{
	{models.FrequencyWeekly, 7, 4, 11},
	{models.FrequencyMonthly, 30.44, 20, 45},
	{models.FrequencyYearly, 365.25, 300, 430},
}

// descriptionKey normalizes a description for recurrence grouping:
// lower-cased, whitespace-collapsed, first few tokens only.
func descriptionKey(desc string) string {
	fields := strings.Fields(strings.ToLower(desc))
	if len(fields) > descriptionKeyTokens {
		fields = fields[:descriptionKeyTokens]
	}
	return strings.Join(fields, " ")
}

// classifyCadence maps inter-occurrence gaps to a canonical frequency. The
// median gap picks the band; every individual gap must then sit within half
// to one-and-a-half periods, otherwise the pattern is too irregular.
func classifyCadence(gaps []float64) (string, float64, bool) {
	med := median(gaps)
	for _, c := range cadences {
		if med < c.lo || med > c.hi {
			continue
		}
		for _, g := range gaps {
			if g < c.periodDays*0.5 || g > c.periodDays*1.5 {
				return "", 0, false
			}
		}
		return c.name, c.periodDays, true
	}
	return "", 0, false
}

// monthlyFactor converts a per-occurrence amount at the given cadence to a
// monthly equivalent.
func monthlyFactor(frequency string) float64 {
	switch frequency {
	case models.FrequencyWeekly:
		return weeksPerMonth
	case models.FrequencyYearly:
		return 1.0 / 12
	default:
		return 1
	}
}

// DetectSubscriptions finds recurring charges: at least three occurrences
// of the same description pattern with gaps clustering around a weekly,
// monthly, or yearly period.
func (a *Advanced) DetectSubscriptions(records []models.Record) models.SubscriptionInsight {
	type occurrence struct {
		rec    *models.Record
		amount float64
	}
	groups := map[string][]occurrence{}
	for i := range records {
		rec := &records[i]
		if rec.IsSettlement {
			continue
		}
		share, ok := rec.ShareOf(a.currentUserID)
		if !ok || share.OwedShare <= 0 {
			continue
		}
		key := descriptionKey(rec.Description)
		if key == "" {
			continue
		}
		groups[key] = append(groups[key], occurrence{rec: rec, amount: share.OwedShare})
	}

	var subs []models.RecurringExpense
	for _, occs := range groups {
		if len(occs) < subscriptionMinOccurrences {
			continue
		}
		// Records arrive date-sorted, but grouping must not depend on it.
		sort.Slice(occs, func(i, j int) bool {
			ri, rj := occs[i].rec, occs[j].rec
			if !ri.Date.Equal(rj.Date) {
				return ri.Date.Before(rj.Date)
			}
			return ri.ID < rj.ID
		})

		gaps := make([]float64, 0, len(occs)-1)
		for i := 1; i < len(occs); i++ {
			gaps = append(gaps, occs[i].rec.Date.Sub(occs[i-1].rec.Date).Hours()/24)
		}
		frequency, _, ok := classifyCadence(gaps)
		if !ok {
			continue
		}

		amounts := make([]float64, len(occs))
		for i, o := range occs {
			amounts[i] = o.amount
		}
		amount := median(amounts)
		subs = append(subs, models.RecurringExpense{
			Description:       occs[0].rec.Description,
			Category:          occs[0].rec.Category,
			Amount:            amount,
			Frequency:         frequency,
			Occurrences:       len(occs),
			MonthlyEquivalent: amount * monthlyFactor(frequency),
			LastOccurrence:    occs[len(occs)-1].rec.Date,
			CurrencyCode:      a.baseCurrency,
		})
	}

	sort.Slice(subs, func(i, j int) bool {
		if subs[i].MonthlyEquivalent != subs[j].MonthlyEquivalent {
			return subs[i].MonthlyEquivalent > subs[j].MonthlyEquivalent
		}
		return subs[i].Description < subs[j].Description
	})

	var totalMonthly float64
	for _, s := range subs {
		totalMonthly += s.MonthlyEquivalent
	}

	explanation := "No recurring charges detected."
	if len(subs) > 0 {
		explanation = fmt.Sprintf(
			"%d recurring charge(s) costing ~%.2f %s per month.",
			len(subs), totalMonthly, a.baseCurrency)
	}
	return models.SubscriptionInsight{
		Subscriptions: subs,
		TotalMonthly:  totalMonthly,
		CurrencyCode:  a.baseCurrency,
		Explanation:   explanation,
	}
}

// --- settlement efficiency & friction ---

// receivable is one slice of money owed to the current user from a single
// expense, tracked until settlements cover it.
type receivable struct {
	person    int64
	date      time.Time
	remaining float64
	settledAt time.Time
	settled   bool
}

// settleCredit is an incoming settlement payment from one counterparty.
type settleCredit struct {
	person    int64
	date      time.Time
	remaining float64
}

// ledgerStats is the shared intermediate for settlement efficiency and
// friction scoring.
type ledgerStats struct {
	receivables []receivable
	delays      []float64 // days, one per settled receivable
	perDelay    map[int64][]float64
	perUnpaid   map[int64]float64
	perAge      map[int64][]float64 // days outstanding for unsettled receivables
	unpaidCount int
	unpaidTotal float64
}

// matchSettlements walks receivables and settlement credits in date order,
// first-fit. This is a deliberate approximation of ledger reconciliation,
// not exact bipartite matching: a receivable counts as settled when
// same-counterparty credits dated on or after it cover its full amount, and
// the delay is measured to the credit that completed coverage. Ages of
// unpaid receivables are measured against the newest record, never the wall
// clock, so results are reproducible.
func (a *Advanced) matchSettlements(records []models.Record) *ledgerStats {
	eps := currency.Epsilon(a.baseCurrency)
	stats := &ledgerStats{
		perDelay:  map[int64][]float64{},
		perUnpaid: map[int64]float64{},
		perAge:    map[int64][]float64{},
	}

	var credits []settleCredit
	var asOf time.Time
	for i := range records {
		rec := &records[i]
		if rec.Date.After(asOf) {
			asOf = rec.Date
		}
		share, ok := rec.ShareOf(a.currentUserID)
		if !ok {
			continue
		}
		u := share.Net()

		if rec.IsSettlement {
			// The user receiving money shows up as a negative net
			// (their owed share is the transfer); the payer carries
			// the matching positive net.
			if u >= -eps {
				continue
			}
			for _, s := range rec.Shares {
				if s.UserID == a.currentUserID {
					continue
				}
				if n := s.Net(); n > eps {
					credits = append(credits, settleCredit{person: s.UserID, date: rec.Date, remaining: n})
				}
			}
			continue
		}

		if u <= eps {
			continue
		}
		var surplus float64
		for _, s := range rec.Shares {
			if n := s.Net(); n > 0 {
				surplus += n
			}
		}
		for _, s := range rec.Shares {
			if s.UserID == a.currentUserID {
				continue
			}
			if n := s.Net(); n < -eps {
				stats.receivables = append(stats.receivables, receivable{
					person:    s.UserID,
					date:      rec.Date,
					remaining: -n * (u / surplus),
				})
			}
		}
	}

	// First-fit: oldest receivable takes the oldest compatible credit.
	for i := range stats.receivables {
		r := &stats.receivables[i]
		for j := range credits {
			c := &credits[j]
			if c.person != r.person || c.remaining <= eps || c.date.Before(r.date) {
				continue
			}
			take := min(c.remaining, r.remaining)
			c.remaining -= take
			r.remaining -= take
			if r.remaining <= eps {
				r.settled = true
				r.settledAt = c.date
				break
			}
		}
	}

	for i := range stats.receivables {
		r := &stats.receivables[i]
		if r.settled {
			days := r.settledAt.Sub(r.date).Hours() / 24
			stats.delays = append(stats.delays, days)
			stats.perDelay[r.person] = append(stats.perDelay[r.person], days)
			continue
		}
		stats.unpaidCount++
		stats.unpaidTotal += r.remaining
		stats.perUnpaid[r.person] += r.remaining
		stats.perAge[r.person] = append(stats.perAge[r.person], asOf.Sub(r.date).Hours()/24)
	}
	return stats
}

// SettlementEfficiency reports how quickly the user's receivables get
// covered by settlements, and how much remains unpaid.
func (a *Advanced) SettlementEfficiency(records []models.Record) models.SettlementEfficiency {
	stats := a.matchSettlements(records)

	byPerson := map[int64]float64{}
	for person, delays := range stats.perDelay {
		byPerson[person] = mean(delays)
	}

	explanation := "No receivables to analyze."
	if len(stats.receivables) > 0 {
		explanation = fmt.Sprintf(
			"%d of %d receivables settled, averaging %.1f day(s); %d unpaid totaling %.2f %s.",
			len(stats.delays), len(stats.receivables), mean(stats.delays),
			stats.unpaidCount, stats.unpaidTotal, a.baseCurrency)
	}

	return models.SettlementEfficiency{
		AverageDays:  mean(stats.delays),
		MedianDays:   median(stats.delays),
		MatchedCount: len(stats.delays),
		UnpaidCount:  stats.unpaidCount,
		UnpaidTotal:  stats.unpaidTotal,
		ByPerson:     byPerson,
		CurrencyCode: a.baseCurrency,
		Explanation:  explanation,
	}
}

// frictionScore combines unpaid balance and settlement delay into a single
// bounded score. Both terms saturate toward their weight, so the score stays
// in [0,1) and grows monotonically with either input.
func frictionScore(unpaid, delayDays float64) float64 {
	return frictionUnpaidWeight*(unpaid/(unpaid+frictionUnpaidScale)) +
		frictionDelayWeight*(delayDays/(delayDays+frictionDelayScale))
}

// RankFriction scores counterparties by how problematic their unpaid
// balance and settlement-delay pattern is, highest first.
func (a *Advanced) RankFriction(records []models.Record) models.FrictionInsight {
	stats := a.matchSettlements(records)

	people := map[int64]bool{}
	for p := range stats.perUnpaid {
		people[p] = true
	}
	for p := range stats.perDelay {
		people[p] = true
	}

	entries := make([]models.FrictionEntry, 0, len(people))
	for person := range people {
		unpaid := stats.perUnpaid[person]
		var delay float64
		if d := stats.perDelay[person]; len(d) > 0 {
			delay = mean(d)
		} else {
			// Never settled anything: use how long their debts have
			// been outstanding.
			delay = mean(stats.perAge[person])
		}
		entries = append(entries, models.FrictionEntry{
			UserID:           person,
			UnpaidBalance:    unpaid,
			AverageDelayDays: delay,
			Score:            frictionScore(unpaid, delay),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].UserID < entries[j].UserID
	})

	explanation := "No counterparties to rank."
	if len(entries) > 0 {
		explanation = fmt.Sprintf(
			"Ranked %d counterpart(ies) by unpaid balance and settlement delay.", len(entries))
	}
	return models.FrictionInsight{ByPerson: entries, Explanation: explanation}
}

// --- cash flow ---

// CashFlow measures directionality: what the user fronts versus consumes
// across non-settlement expenses.
func (a *Advanced) CashFlow(records []models.Record) models.CashFlowInsight {
	var paid, owed float64
	var paidCount, frontPayCount int
	for i := range records {
		rec := &records[i]
		if rec.IsSettlement {
			continue
		}
		share, ok := rec.ShareOf(a.currentUserID)
		if !ok {
			continue
		}
		paid += share.PaidShare
		owed += share.OwedShare
		if share.PaidShare > 0 {
			paidCount++
			if share.PaidShare > share.OwedShare {
				frontPayCount++
			}
		}
	}

	frontPct := 0.0
	if paidCount > 0 {
		frontPct = float64(frontPayCount) / float64(paidCount) * 100
	}

	role := "net receiver"
	if paid >= owed {
		role = "net payer"
	}
	return models.CashFlowInsight{
		TotalPaid:       paid,
		TotalReceived:   owed,
		NetCashFlow:     paid - owed,
		FrontPayPercent: frontPct,
		CurrencyCode:    a.baseCurrency,
		Explanation: fmt.Sprintf(
			"Paid %.2f %s against %.2f %s consumed (%s); front-paid %.1f%% of expenses.",
			paid, a.baseCurrency, owed, a.baseCurrency, role, frontPct),
	}
}

// --- balance prediction ---

// PredictBalance fits an ordinary-least-squares line to the cumulative
// balance series and extrapolates one month past the last observed point.
// Confidence is qualitative by point count, not a statistical interval.
func (a *Advanced) PredictBalance(balance models.BalanceInsight) models.BalancePrediction {
	months := sortedKeys(balance.TrendOverTime)
	n := len(months)

	pred := models.BalancePrediction{
		CurrencyCode:  a.baseCurrency,
		BasedOnMonths: n,
		Trend:         models.TrendStable,
		Confidence:    models.ConfidenceLow,
	}
	if n == 0 {
		pred.Explanation = "Insufficient data for prediction (no monthly history)."
		return pred
	}

	ys := make([]float64, n)
	for i, m := range months {
		ys[i] = balance.TrendOverTime[m]
	}
	if n == 1 {
		pred.PredictedBalance = ys[0]
		pred.Explanation = "Only one month of history; projecting the current balance forward."
		return pred
	}

	// OLS over x = 0..n-1; extrapolate to x = n (+30 days).
	xbar := float64(n-1) / 2
	ybar := mean(ys)
	var num, den float64
	for i, y := range ys {
		dx := float64(i) - xbar
		num += dx * (y - ybar)
		den += dx * dx
	}
	slope := num / den
	intercept := ybar - slope*xbar
	pred.PredictedBalance = intercept + slope*float64(n)

	switch {
	case slope > predictionDeadZone:
		pred.Trend = models.TrendIncreasing
	case slope < -predictionDeadZone:
		pred.Trend = models.TrendDecreasing
	}
	switch {
	case n >= 6:
		pred.Confidence = models.ConfidenceHigh
	case n >= 3:
		pred.Confidence = models.ConfidenceMedium
	}

	pred.Explanation = fmt.Sprintf(
		"Predicted balance %.2f %s in 30 days (slope %.2f/month over %d months, %s confidence).",
		pred.PredictedBalance, a.baseCurrency, slope, n, pred.Confidence)
	return pred
}
