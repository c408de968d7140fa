package analyze

import (
	"fmt"
	"sort"

	"github.com/dhruvsaxena/splitsight/internal/models"
)

// otherCategory is the bucket for records with no category label.
const otherCategory = "Other"

// topN caps the ranked lists of categories and groups.
const topN = 10

// CategoryAnalyzer breaks the current user's spending down by category
// label. Settlements are excluded.
type CategoryAnalyzer struct {
	currentUserID int64
	baseCurrency  string
}

// NewCategory builds a CategoryAnalyzer for the given analytics subject.
func NewCategory(currentUserID int64, baseCurrency string) *CategoryAnalyzer {
	return &CategoryAnalyzer{currentUserID: currentUserID, baseCurrency: baseCurrency}
}

// Analyze computes per-category totals, the top-N ranking, and the
// month-by-category matrix for trend charts. Equal amounts rank by category
// name so output is identical across runs.
func (a *CategoryAnalyzer) Analyze(records []models.Record) models.CategoryInsight {
	byCategory := map[string]float64{}
	counts := map[string]int{}
	monthly := map[string]map[string]float64{}

	for i := range records {
		rec := &records[i]
		if rec.IsSettlement {
			continue
		}
		share, ok := rec.ShareOf(a.currentUserID)
		if !ok {
			continue
		}
		cat := rec.Category
		if cat == "" {
			cat = otherCategory
		}
		byCategory[cat] += share.OwedShare
		counts[cat]++

		mk := monthKey(rec.Date)
		if monthly[mk] == nil {
			monthly[mk] = map[string]float64{}
		}
		monthly[mk][cat] += share.OwedShare
	}

	var total float64
	for _, v := range byCategory {
		total += v
	}

	ranked := make([]models.CategoryTotal, 0, len(byCategory))
	for cat, amount := range byCategory {
		pct := 0.0
		if total > 0 {
			pct = amount / total * 100
		}
		ranked = append(ranked, models.CategoryTotal{
			Category:   cat,
			Amount:     amount,
			Percentage: pct,
			Count:      counts[cat],
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Amount != ranked[j].Amount {
			return ranked[i].Amount > ranked[j].Amount
		}
		return ranked[i].Category < ranked[j].Category
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}

	explanation := "No category data available."
	if len(ranked) > 0 {
		explanation = fmt.Sprintf(
			"Spending of %.2f %s across %d categories; top: %s (%.1f%%).",
			total, a.baseCurrency, len(byCategory), ranked[0].Category, ranked[0].Percentage)
	}

	return models.CategoryInsight{
		ByCategory:        byCategory,
		CurrencyCode:      a.baseCurrency,
		TopCategories:     ranked,
		MonthlyByCategory: monthly,
		Explanation:       explanation,
	}
}
