package analyze

import (
	"math"
	"testing"

	"github.com/dhruvsaxena/splitsight/internal/models"
)

func TestSpendingAnalyzer(t *testing.T) {
	tests := []struct {
		name         string
		records      func(t *testing.T) []models.Record
		validateFunc func(t *testing.T, got models.SpendingInsight)
	}{
		{
			name: "two expenses in one month",
			records: func(t *testing.T) []models.Record {
				return []models.Record{
					expense(t, 1, "2024-01-05", "Groceries", "Food", 100,
						share(me, 100, 50), share(bob, 0, 50)),
					expense(t, 2, "2024-01-20", "Dinner", "Food", 200,
						share(me, 0, 100), share(bob, 200, 100)),
				}
			},
			validateFunc: func(t *testing.T, got models.SpendingInsight) {
				if math.Abs(got.TotalSpending-150.0) > 0.01 {
					t.Errorf("TotalSpending = %v, want 150.0", got.TotalSpending)
				}
				if math.Abs(got.MonthlyBreakdown["2024-01"]-150.0) > 0.01 {
					t.Errorf("January total = %v, want 150.0", got.MonthlyBreakdown["2024-01"])
				}
				if math.Abs(got.MonthlyAverage-150.0) > 0.01 {
					t.Errorf("MonthlyAverage = %v, want 150.0", got.MonthlyAverage)
				}
				if got.PeakMonth != "2024-01" {
					t.Errorf("PeakMonth = %q, want 2024-01", got.PeakMonth)
				}
			},
		},
		{
			name: "settlements are excluded",
			records: func(t *testing.T) []models.Record {
				return []models.Record{
					expense(t, 1, "2024-01-05", "Groceries", "Food", 100,
						share(me, 100, 50), share(bob, 0, 50)),
					settlement(t, 2, "2024-01-10", bob, me, 50),
				}
			},
			validateFunc: func(t *testing.T, got models.SpendingInsight) {
				if math.Abs(got.TotalSpending-50.0) > 0.01 {
					t.Errorf("TotalSpending = %v, want 50.0", got.TotalSpending)
				}
			},
		},
		{
			name: "increasing trend over six months",
			records: func(t *testing.T) []models.Record {
				dates := []string{"2024-01-15", "2024-02-15", "2024-03-15", "2024-04-15", "2024-05-15", "2024-06-15"}
				amounts := []float64{10, 10, 20, 30, 50, 60}
				var recs []models.Record
				for i, d := range dates {
					recs = append(recs, expense(t, int64(i+1), d, "Stuff", "", amounts[i]*2,
						share(me, amounts[i]*2, amounts[i]), share(bob, 0, amounts[i])))
				}
				return recs
			},
			validateFunc: func(t *testing.T, got models.SpendingInsight) {
				if got.Trend != models.TrendIncreasing {
					t.Errorf("Trend = %q, want increasing", got.Trend)
				}
				if got.PeakMonth != "2024-06" {
					t.Errorf("PeakMonth = %q, want 2024-06", got.PeakMonth)
				}
			},
		},
		{
			name: "fewer than three months is stable",
			records: func(t *testing.T) []models.Record {
				return []models.Record{
					expense(t, 1, "2024-01-05", "A", "", 10, share(me, 10, 10)),
					expense(t, 2, "2024-02-05", "B", "", 90, share(me, 90, 90)),
				}
			},
			validateFunc: func(t *testing.T, got models.SpendingInsight) {
				if got.Trend != models.TrendStable {
					t.Errorf("Trend = %q, want stable", got.Trend)
				}
			},
		},
		{
			name:    "empty input yields neutral result",
			records: func(t *testing.T) []models.Record { return nil },
			validateFunc: func(t *testing.T, got models.SpendingInsight) {
				if got.TotalSpending != 0 {
					t.Errorf("TotalSpending = %v, want 0", got.TotalSpending)
				}
				if got.MonthlyAverage != 0 {
					t.Errorf("MonthlyAverage = %v, want 0", got.MonthlyAverage)
				}
				if got.PeakMonth != "" {
					t.Errorf("PeakMonth = %q, want empty", got.PeakMonth)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewSpending(me, "USD").Analyze(tt.records(t))
			tt.validateFunc(t, got)
		})
	}
}

func TestSpendingPeakTieGoesToEarliestMonth(t *testing.T) {
	records := []models.Record{
		expense(t, 1, "2024-01-05", "A", "", 50, share(me, 50, 50)),
		expense(t, 2, "2024-02-05", "B", "", 50, share(me, 50, 50)),
	}
	got := NewSpending(me, "USD").Analyze(records)
	if got.PeakMonth != "2024-01" {
		t.Errorf("PeakMonth = %q, want 2024-01 (earliest wins ties)", got.PeakMonth)
	}
}
