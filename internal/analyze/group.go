package analyze

import (
	"fmt"
	"sort"

	"github.com/dhruvsaxena/splitsight/internal/models"
)

// GroupAnalyzer breaks spending down by group. Settlements are excluded;
// totals are the current user's owed shares, consistent with the spending
// analyzer.
type GroupAnalyzer struct {
	currentUserID int64
	baseCurrency  string
}

// NewGroup builds a GroupAnalyzer for the given analytics subject.
func NewGroup(currentUserID int64, baseCurrency string) *GroupAnalyzer {
	return &GroupAnalyzer{currentUserID: currentUserID, baseCurrency: baseCurrency}
}

// Analyze computes the top-N groups by the user's spending. Groups with no
// expenses in the record set do not appear. Equal totals rank by group name
// for deterministic output.
func (a *GroupAnalyzer) Analyze(records []models.Record, groups []models.Group) models.GroupInsight {
	type bucket struct {
		total float64
		count int
	}
	buckets := map[int64]*bucket{}

	for i := range records {
		rec := &records[i]
		if rec.IsSettlement {
			continue
		}
		b, ok := buckets[rec.GroupID]
		if !ok {
			b = &bucket{}
			buckets[rec.GroupID] = b
		}
		b.count++
		if share, ok := rec.ShareOf(a.currentUserID); ok {
			b.total += share.OwedShare
		}
	}

	lookup := map[int64]*models.Group{}
	for i := range groups {
		lookup[groups[i].ID] = &groups[i]
	}

	ranked := make([]models.GroupTotal, 0, len(buckets))
	for id, b := range buckets {
		name := "No Group"
		memberCount := 0
		if g, ok := lookup[id]; ok {
			name = g.Name
			memberCount = len(g.Members)
		} else if id != 0 {
			name = fmt.Sprintf("Group %d", id)
		}
		ranked = append(ranked, models.GroupTotal{
			GroupID:       id,
			Name:          name,
			TotalSpending: b.total,
			ExpenseCount:  b.count,
			MemberCount:   memberCount,
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].TotalSpending != ranked[j].TotalSpending {
			return ranked[i].TotalSpending > ranked[j].TotalSpending
		}
		return ranked[i].Name < ranked[j].Name
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}

	explanation := "No group data available."
	if len(ranked) > 0 {
		explanation = fmt.Sprintf(
			"Spending across %d group(s); top: %s (%.2f %s over %d expenses).",
			len(buckets), ranked[0].Name, ranked[0].TotalSpending, a.baseCurrency, ranked[0].ExpenseCount)
	}

	return models.GroupInsight{
		TopGroups:    ranked,
		CurrencyCode: a.baseCurrency,
		Explanation:  explanation,
	}
}
