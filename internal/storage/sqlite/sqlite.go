package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	_ "modernc.org/sqlite"
	"os"
	"path/filepath"
	"shopfloor-kpi/internal/storage"
)

type Storage struct {
	db *sql.DB
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS monthly_history (
		month TEXT PRIMARY KEY,
		total_boxes INTEGER NOT NULL,
		efficiency_avg REAL,
		performance_avg REAL,
		repair_avg REAL,
		scheduled_stop_minutes INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS top_stops (
		position INTEGER PRIMARY KEY,
		line INTEGER NOT NULL,
		reason TEXT NOT NULL,
		problem TEXT NOT NULL,
		minutes INTEGER NOT NULL,
		occurrences INTEGER NOT NULL
	)`,
}

// New opens the history file, creating it and its tables when missing.
func New(ctx context.Context, path string) (*Storage, error) {
	const op = "storage.sqlite.New"

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open db: %w", op, err)
	}
	// one writer at a time
	db.SetMaxOpenConns(1)

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: migrate: %w", op, err)
		}
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func floatPtr(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}

// HasMonth reports whether the month already has a snapshot.
func (s *Storage) HasMonth(ctx context.Context, month string) (bool, error) {
	const op = "storage.sqlite.HasMonth"

	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM monthly_history WHERE month = ?`, month).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return n > 0, nil
}

// SaveMonthly appends a snapshot. A month is written once; later writes are ignored.
func (s *Storage) SaveMonthly(ctx context.Context, h storage.MonthlyHistory) error {
	const op = "storage.sqlite.SaveMonthly"

	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO monthly_history
			(month, total_boxes, efficiency_avg, performance_avg, repair_avg, scheduled_stop_minutes)
		VALUES (?, ?, ?, ?, ?, ?)`,
		h.Month, h.TotalBoxes, nullFloat(h.EfficiencyAvg), nullFloat(h.PerformanceAvg),
		nullFloat(h.RepairAvg), h.ScheduledStopMinutes,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) GetHistory(ctx context.Context) ([]storage.MonthlyHistory, error) {
	const op = "storage.sqlite.GetHistory"

	rows, err := s.db.QueryContext(ctx, `
		SELECT month, total_boxes, efficiency_avg, performance_avg, repair_avg, scheduled_stop_minutes
		FROM monthly_history
		ORDER BY month`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out := []storage.MonthlyHistory{}
	for rows.Next() {
		var (
			h               storage.MonthlyHistory
			eff, perf, repr sql.NullFloat64
		)
		if err := rows.Scan(&h.Month, &h.TotalBoxes, &eff, &perf, &repr, &h.ScheduledStopMinutes); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		h.EfficiencyAvg = floatPtr(eff)
		h.PerformanceAvg = floatPtr(perf)
		h.RepairAvg = floatPtr(repr)
		out = append(out, h)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}

	return out, nil
}

// ReplaceTopStops swaps the whole ranking in one transaction.
func (s *Storage) ReplaceTopStops(ctx context.Context, stops []storage.TopStop) (err error) {
	const op = "storage.sqlite.ReplaceTopStops"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", op, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM top_stops`); err != nil {
		return fmt.Errorf("%s: delete: %w", op, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO top_stops (position, line, reason, problem, minutes, occurrences)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("%s: prepare: %w", op, err)
	}
	defer stmt.Close()

	for i, ts := range stops {
		if _, err = stmt.ExecContext(ctx, i, ts.Line, ts.Reason, ts.Problem, ts.Minutes, ts.Count); err != nil {
			return fmt.Errorf("%s: insert: %w", op, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}

	return nil
}

func (s *Storage) GetTopStops(ctx context.Context) ([]storage.TopStop, error) {
	const op = "storage.sqlite.GetTopStops"

	rows, err := s.db.QueryContext(ctx, `
		SELECT line, reason, problem, minutes, occurrences
		FROM top_stops
		ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out := []storage.TopStop{}
	for rows.Next() {
		var ts storage.TopStop
		if err := rows.Scan(&ts.Line, &ts.Reason, &ts.Problem, &ts.Minutes, &ts.Count); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		out = append(out, ts)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}

	return out, nil
}
