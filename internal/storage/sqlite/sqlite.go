// Package sqlite provides a SQLite-backed implementation of the
// storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/dhruvsaxena/splitsight/internal/models"
	"github.com/dhruvsaxena/splitsight/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRun persists a completed analysis run. The full insights report is
// stored as a JSON blob; listable metadata gets its own columns.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *storage.Run) error {
	if run.ID == "" {
		return fmt.Errorf("run ID is required")
	}
	if run.Insights == nil {
		return fmt.Errorf("run insights are required")
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	body, err := json.Marshal(run.Insights)
	if err != nil {
		return fmt.Errorf("failed to encode insights: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, source, expense_count, group_count, is_valid, base_currency, insights)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt.Unix(), run.Source,
		run.ExpenseCount, run.GroupCount, run.IsValid, run.BaseCurrency, body,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID, including the full insights report.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*storage.Run, error) {
	run := &storage.Run{}
	var createdAt int64
	var body []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, source, expense_count, group_count, is_valid, base_currency, insights
		 FROM runs WHERE id = ?`, id,
	).Scan(&run.ID, &createdAt, &run.Source,
		&run.ExpenseCount, &run.GroupCount, &run.IsValid, &run.BaseCurrency, &body)
	if err == sql.ErrNoRows {
		return nil, storage.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	run.CreatedAt = time.Unix(createdAt, 0).UTC()
	run.Insights = &models.Insights{}
	if err := json.Unmarshal(body, run.Insights); err != nil {
		return nil, fmt.Errorf("failed to decode insights: %w", err)
	}
	return run, nil
}

// ListRuns returns up to limit runs, newest first, without insight bodies.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]storage.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, source, expense_count, group_count, is_valid, base_currency
		 FROM runs ORDER BY created_at DESC, id LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := []storage.Run{}
	for rows.Next() {
		var run storage.Run
		var createdAt int64
		if err := rows.Scan(&run.ID, &createdAt, &run.Source,
			&run.ExpenseCount, &run.GroupCount, &run.IsValid, &run.BaseCurrency); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.CreatedAt = time.Unix(createdAt, 0).UTC()
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}
