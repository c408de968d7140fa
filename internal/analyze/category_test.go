package analyze

import (
	"math"
	"testing"

	"github.com/dhruvsaxena/splitsight/internal/models"
)

func TestCategoryAnalyzer(t *testing.T) {
	records := []models.Record{
		expense(t, 1, "2024-01-05", "Groceries", "Food", 100,
			share(me, 100, 60), share(bob, 0, 40)),
		expense(t, 2, "2024-01-10", "Train", "Travel", 40,
			share(me, 40, 30), share(bob, 0, 10)),
		expense(t, 3, "2024-02-01", "Snacks", "", 10,
			share(me, 10, 10)),
	}

	got := NewCategory(me, "USD").Analyze(records)

	if math.Abs(got.ByCategory["Food"]-60.0) > 0.01 {
		t.Errorf("ByCategory[Food] = %v, want 60.0", got.ByCategory["Food"])
	}
	if math.Abs(got.ByCategory["Travel"]-30.0) > 0.01 {
		t.Errorf("ByCategory[Travel] = %v, want 30.0", got.ByCategory["Travel"])
	}
	if math.Abs(got.ByCategory["Other"]-10.0) > 0.01 {
		t.Errorf("uncategorized spend = %v, want 10.0 under Other", got.ByCategory["Other"])
	}

	if len(got.TopCategories) != 3 {
		t.Fatalf("len(TopCategories) = %d, want 3", len(got.TopCategories))
	}
	if got.TopCategories[0].Category != "Food" {
		t.Errorf("top category = %q, want Food", got.TopCategories[0].Category)
	}
	if math.Abs(got.TopCategories[0].Percentage-60.0) > 0.01 {
		t.Errorf("Food percentage = %v, want 60.0", got.TopCategories[0].Percentage)
	}
	if got.TopCategories[0].Count != 1 {
		t.Errorf("Food count = %d, want 1", got.TopCategories[0].Count)
	}

	if math.Abs(got.MonthlyByCategory["2024-01"]["Food"]-60.0) > 0.01 {
		t.Errorf("MonthlyByCategory[2024-01][Food] = %v, want 60.0",
			got.MonthlyByCategory["2024-01"]["Food"])
	}
}

func TestCategoryEqualAmountsRankByName(t *testing.T) {
	records := []models.Record{
		expense(t, 1, "2024-01-05", "A", "Zoo", 20, share(me, 20, 20)),
		expense(t, 2, "2024-01-06", "B", "Art", 20, share(me, 20, 20)),
	}
	got := NewCategory(me, "USD").Analyze(records)
	if got.TopCategories[0].Category != "Art" || got.TopCategories[1].Category != "Zoo" {
		t.Errorf("tie order = [%s, %s], want [Art, Zoo]",
			got.TopCategories[0].Category, got.TopCategories[1].Category)
	}
}

func TestCategoryEmptyInput(t *testing.T) {
	got := NewCategory(me, "USD").Analyze(nil)
	if len(got.TopCategories) != 0 {
		t.Errorf("TopCategories has %d entries, want none", len(got.TopCategories))
	}
}
