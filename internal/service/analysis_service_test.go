package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dhruvsaxena/splitsight/internal/currency"
	"github.com/dhruvsaxena/splitsight/internal/ingest"
	"github.com/dhruvsaxena/splitsight/internal/storage/sqlite"
)

func sampleSnapshot() *ingest.Snapshot {
	return &ingest.Snapshot{
		CurrentUser: ingest.RawUser{ID: 1, FirstName: "Dhruv"},
		Expenses: []ingest.RawExpense{
			{
				ID: 10, Cost: "100.00", CurrencyCode: "USD", Date: "2024-01-05",
				Description: "Dinner",
				Users: []ingest.RawShare{
					{User: ingest.RawUser{ID: 1}, PaidShare: "100.00", OwedShare: "50.00"},
					{User: ingest.RawUser{ID: 2}, PaidShare: "0", OwedShare: "50.00"},
				},
			},
		},
	}
}

func TestAnalyzeArchivesRun(t *testing.T) {
	store, err := sqlite.New(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("store setup failed: %v", err)
	}
	defer store.Close()

	svc := NewAnalysisService(currency.DefaultTable(), "USD", false, 3, store)
	ctx := context.Background()

	insights, err := svc.Analyze(ctx, sampleSnapshot(), "json")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if insights.Spending.TotalSpending != 50 {
		t.Errorf("TotalSpending = %v, want 50", insights.Spending.TotalSpending)
	}

	run, err := svc.GetRun(ctx, insights.ReportID)
	if err != nil {
		t.Fatalf("run was not archived: %v", err)
	}
	if run.Source != "json" || run.ExpenseCount != 1 || !run.IsValid {
		t.Errorf("archived metadata mismatch: %+v", run)
	}

	runs, err := svc.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != insights.ReportID {
		t.Errorf("ListRuns = %+v, want the archived run", runs)
	}
}

func TestAnalyzeWithoutStore(t *testing.T) {
	svc := NewAnalysisService(currency.DefaultTable(), "USD", false, 3, nil)
	insights, err := svc.Analyze(context.Background(), sampleSnapshot(), "json")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if insights.ReportID == "" {
		t.Error("ReportID missing")
	}
	if runs, _ := svc.ListRuns(context.Background(), 10); len(runs) != 0 {
		t.Errorf("store-less service listed %d runs, want 0", len(runs))
	}
}

func TestAnalyzeNilSnapshot(t *testing.T) {
	svc := NewAnalysisService(currency.DefaultTable(), "USD", false, 3, nil)
	if _, err := svc.Analyze(context.Background(), nil, "json"); err == nil {
		t.Fatal("want error for nil snapshot, got nil")
	}
}
