// Package storage provides abstractions for the analysis run archive.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/dhruvsaxena/splitsight/internal/models"
)

// ErrRunNotFound is returned when a run ID has no archived report.
var ErrRunNotFound = errors.New("run not found")

// Run is one archived analysis: the full insights report plus the metadata
// needed to list runs without decoding the report body.
type Run struct {
	// ID is the report ID, assigned by the analysis engine.
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	// Source records where the data came from: "api", "json", or "csv".
	Source string `json:"source"`

	ExpenseCount int    `json:"expense_count"`
	GroupCount   int    `json:"group_count"`
	IsValid      bool   `json:"is_valid"`
	BaseCurrency string `json:"base_currency"`

	// Insights is the full report. Nil on list responses.
	Insights *models.Insights `json:"insights,omitempty"`
}

// Store defines the interface for run archive operations. The abstraction
// allows swapping storage backends without changing the service layer.
type Store interface {
	// SaveRun persists a completed analysis run.
	SaveRun(ctx context.Context, run *Run) error

	// GetRun retrieves a run with its full insights report.
	// Returns ErrRunNotFound if the ID is unknown.
	GetRun(ctx context.Context, id string) (*Run, error)

	// ListRuns returns up to limit runs, newest first, without insight
	// bodies.
	ListRuns(ctx context.Context, limit int) ([]Run, error)

	// Close releases any resources held by the store.
	Close() error
}
