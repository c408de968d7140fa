package analyze

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dhruvsaxena/splitsight/internal/models"
)

// Input carries everything the engine needs for one run: normalized
// records, group metadata, the verifier's report, and ingest bookkeeping
// for the data summary.
type Input struct {
	Records    []models.Record
	Groups     []models.Group
	Validation models.ValidationResult

	// Skipped is how many raw records lenient normalization dropped.
	Skipped int

	// Currencies are the distinct source codes seen before conversion.
	Currencies []string
}

// Engine fans the normalized records out to every analyzer and assembles
// the aggregate report. The first-stage analyzers are independent and run
// concurrently; the advanced stage follows because prediction consumes the
// balance time series.
type Engine struct {
	currentUserID     int64
	baseCurrency      string
	anomalyMultiplier float64
}

// NewEngine builds an engine for the given subject user and base currency,
// with the default anomaly threshold.
func NewEngine(currentUserID int64, baseCurrency string) *Engine {
	return &Engine{
		currentUserID:     currentUserID,
		baseCurrency:      baseCurrency,
		anomalyMultiplier: DefaultAnomalyMultiplier,
	}
}

// WithAnomalyMultiplier overrides k in the mean + k*stddev anomaly
// threshold and returns the engine for chaining.
func (e *Engine) WithAnomalyMultiplier(k float64) *Engine {
	e.anomalyMultiplier = k
	return e
}

// Run executes the full analyzer suite over already-normalized,
// already-verified records. It never mutates its input, and identical input
// yields identical insights apart from ReportID and GeneratedAt. Empty
// input produces a complete report with zeroed totals, not an error.
func (e *Engine) Run(in Input) models.Insights {
	out := models.Insights{
		ReportID:    uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Validation:  in.Validation,
		Summary:     e.summarize(in),
	}

	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		out.Spending = NewSpending(e.currentUserID, e.baseCurrency).Analyze(in.Records)
	}()
	go func() {
		defer wg.Done()
		out.Balance = NewBalance(e.currentUserID, e.baseCurrency).Analyze(in.Records)
	}()
	go func() {
		defer wg.Done()
		out.Categories = NewCategory(e.currentUserID, e.baseCurrency).Analyze(in.Records)
	}()
	go func() {
		defer wg.Done()
		out.Groups = NewGroup(e.currentUserID, e.baseCurrency).Analyze(in.Records, in.Groups)
	}()
	wg.Wait()

	adv := NewAdvanced(e.currentUserID, e.baseCurrency)
	out.Subscriptions = adv.DetectSubscriptions(in.Records)
	out.Anomalies = adv.DetectAnomalies(in.Records, e.anomalyMultiplier)
	out.SettlementEfficiency = adv.SettlementEfficiency(in.Records)
	out.CashFlow = adv.CashFlow(in.Records)
	out.Friction = adv.RankFriction(in.Records)
	out.Prediction = adv.PredictBalance(out.Balance)
	return out
}

func (e *Engine) summarize(in Input) models.DataSummary {
	summary := models.DataSummary{
		SkippedRecords: in.Skipped,
		TotalGroups:    len(in.Groups),
		BaseCurrency:   e.baseCurrency,
		Currencies:     append([]string(nil), in.Currencies...),
	}
	sort.Strings(summary.Currencies)

	var earliest, latest time.Time
	for i := range in.Records {
		rec := &in.Records[i]
		if !rec.IsSettlement {
			summary.TotalExpenses++
		}
		if earliest.IsZero() || rec.Date.Before(earliest) {
			earliest = rec.Date
		}
		if rec.Date.After(latest) {
			latest = rec.Date
		}
	}
	if !earliest.IsZero() {
		summary.EarliestDate = &earliest
		summary.LatestDate = &latest
	}
	return summary
}
