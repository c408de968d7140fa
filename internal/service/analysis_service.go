// Package service orchestrates the analysis pipeline: normalization,
// verification, analytics, and archiving of the resulting report.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/dhruvsaxena/splitsight/internal/analyze"
	"github.com/dhruvsaxena/splitsight/internal/currency"
	"github.com/dhruvsaxena/splitsight/internal/ingest"
	"github.com/dhruvsaxena/splitsight/internal/models"
	"github.com/dhruvsaxena/splitsight/internal/storage"
	"github.com/dhruvsaxena/splitsight/internal/verify"
)

// AnalysisService runs the full pipeline over a raw snapshot. Verification
// failures never stop the pipeline: the validation result rides along in
// the report so callers can judge how much to trust the numbers.
type AnalysisService struct {
	rates             currency.RateProvider
	baseCurrency      string
	strict            bool
	anomalyMultiplier float64

	// store is optional; nil disables the run archive.
	store storage.Store
}

// NewAnalysisService wires the pipeline. Pass a nil store to skip
// archiving.
func NewAnalysisService(rates currency.RateProvider, baseCurrency string, strict bool, anomalyMultiplier float64, store storage.Store) *AnalysisService {
	return &AnalysisService{
		rates:             rates,
		baseCurrency:      baseCurrency,
		strict:            strict,
		anomalyMultiplier: anomalyMultiplier,
		store:             store,
	}
}

// Analyze runs normalize, verify, and the analyzer suite over one snapshot
// and archives the report. source labels where the snapshot came from
// ("api", "json", "csv") for metrics and the run archive.
func (s *AnalysisService) Analyze(ctx context.Context, snap *ingest.Snapshot, source string) (*models.Insights, error) {
	if snap == nil {
		return nil, fmt.Errorf("snapshot is required")
	}
	start := time.Now()

	norm := ingest.NewNormalizer(s.rates, s.baseCurrency, s.strict)
	result, err := norm.Normalize(snap.Expenses, snap.Groups)
	if err != nil {
		return nil, fmt.Errorf("normalization failed: %w", err)
	}
	recordsNormalized.Add(float64(len(result.Records)))
	recordsSkipped.Add(float64(len(result.Skipped)))
	slog.Info("snapshot normalized",
		"source", source,
		"records", len(result.Records),
		"skipped", len(result.Skipped),
		"groups", len(result.Groups),
	)

	userID := snap.CurrentUser.ID
	validation := verify.New(userID, s.baseCurrency).Verify(result.Records, result.Groups)
	if !validation.IsValid {
		slog.Warn("verification found integrity errors",
			"errors", len(validation.Errors),
			"warnings", len(validation.Warnings),
		)
	}

	engine := analyze.NewEngine(userID, s.baseCurrency).
		WithAnomalyMultiplier(s.anomalyMultiplier)
	insights := engine.Run(analyze.Input{
		Records:    result.Records,
		Groups:     result.Groups,
		Validation: validation,
		Skipped:    len(result.Skipped),
		Currencies: result.SourceCurrencies,
	})

	if s.store != nil {
		run := &storage.Run{
			ID:           insights.ReportID,
			CreatedAt:    insights.GeneratedAt,
			Source:       source,
			ExpenseCount: insights.Summary.TotalExpenses,
			GroupCount:   insights.Summary.TotalGroups,
			IsValid:      validation.IsValid,
			BaseCurrency: s.baseCurrency,
			Insights:     &insights,
		}
		if err := s.store.SaveRun(ctx, run); err != nil {
			// Archiving is best effort; the report is still good.
			slog.Error("failed to archive run", "report_id", insights.ReportID, "error", err)
		}
	}

	pipelineDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
	runsCompleted.WithLabelValues(strconv.FormatBool(validation.IsValid)).Inc()
	slog.Info("analysis complete",
		"report_id", insights.ReportID,
		"source", source,
		"valid", validation.IsValid,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &insights, nil
}

// GetRun returns an archived report by ID.
func (s *AnalysisService) GetRun(ctx context.Context, id string) (*storage.Run, error) {
	if s.store == nil {
		return nil, storage.ErrRunNotFound
	}
	return s.store.GetRun(ctx, id)
}

// ListRuns returns archive metadata, newest first.
func (s *AnalysisService) ListRuns(ctx context.Context, limit int) ([]storage.Run, error) {
	if s.store == nil {
		return []storage.Run{}, nil
	}
	return s.store.ListRuns(ctx, limit)
}
