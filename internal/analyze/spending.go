package analyze

import (
	"fmt"

	"github.com/dhruvsaxena/splitsight/internal/models"
)

// trendRatio is the threshold separating "stable" from a real move when the
// recent third of months is compared against the earliest third.
const trendRatio = 1.1

// SpendingAnalyzer computes the current user's spending breakdown over time.
// Spend means owed share: a user's cost is their portion of each expense,
// not the full purchase price, and settlements are excluded entirely.
type SpendingAnalyzer struct {
	currentUserID int64
	baseCurrency  string
}

// NewSpending builds a SpendingAnalyzer for the given analytics subject.
func NewSpending(currentUserID int64, baseCurrency string) *SpendingAnalyzer {
	return &SpendingAnalyzer{currentUserID: currentUserID, baseCurrency: baseCurrency}
}

// Analyze computes the spending insight. Month grouping uses UTC calendar
// months and is stable regardless of input order.
func (a *SpendingAnalyzer) Analyze(records []models.Record) models.SpendingInsight {
	monthly := map[string]float64{}
	var total float64

	for i := range records {
		rec := &records[i]
		if rec.IsSettlement {
			continue
		}
		share, ok := rec.ShareOf(a.currentUserID)
		if !ok {
			continue
		}
		total += share.OwedShare
		monthly[monthKey(rec.Date)] += share.OwedShare
	}

	months := sortedKeys(monthly)
	divisor := len(months)
	if divisor == 0 {
		divisor = 1
	}

	peakMonth, peakAmount := "", 0.0
	for _, m := range months {
		if monthly[m] > peakAmount {
			peakMonth, peakAmount = m, monthly[m]
		}
	}

	insight := models.SpendingInsight{
		TotalSpending:    total,
		CurrencyCode:     a.baseCurrency,
		MonthlyBreakdown: monthly,
		MonthlyAverage:   total / float64(divisor),
		Trend:            spendingTrend(monthly, months),
		PeakMonth:        peakMonth,
		PeakAmount:       peakAmount,
	}

	if len(months) == 0 {
		insight.Explanation = "No spending data available."
	} else {
		insight.Explanation = fmt.Sprintf(
			"Total spending %.2f %s across %d month(s), averaging %.2f/month. Trend: %s.",
			total, a.baseCurrency, len(months), insight.MonthlyAverage, insight.Trend)
	}
	return insight
}

// spendingTrend compares the arithmetic mean of the most recent third of
// months against the earliest third. Fewer than three distinct months is
// always stable.
func spendingTrend(monthly map[string]float64, months []string) string {
	n := len(months)
	if n < 3 {
		return models.TrendStable
	}
	third := (n + 2) / 3

	var early, recent float64
	for _, m := range months[:third] {
		early += monthly[m]
	}
	for _, m := range months[n-third:] {
		recent += monthly[m]
	}
	early /= float64(third)
	recent /= float64(third)

	switch {
	case early == 0 && recent == 0:
		return models.TrendStable
	case early == 0:
		return models.TrendIncreasing
	case recent > early*trendRatio:
		return models.TrendIncreasing
	case recent < early/trendRatio:
		return models.TrendDecreasing
	default:
		return models.TrendStable
	}
}
