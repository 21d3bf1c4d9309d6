package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/equitydb/internal/interfaces"
	"github.com/ternarybob/equitydb/internal/models"
	"github.com/ternarybob/equitydb/internal/validation"
)

// RunStorage implements interfaces.RunStorage
type RunStorage struct {
	db     *DB
	logger arbor.ILogger
}

// NewRunStorage creates a new RunStorage instance
func NewRunStorage(db *DB, logger arbor.ILogger) interfaces.RunStorage {
	return &RunStorage{db: db, logger: logger}
}

type runRow struct {
	ID         string         `db:"run_id"`
	StartedAt  string         `db:"started_at"`
	FinishedAt sql.NullString `db:"finished_at"`
	Mode       string         `db:"mode"`
	Processed  int            `db:"processed"`
	Failed     int            `db:"failed"`
}

func (r *runRow) toModel() *models.EtlRun {
	run := &models.EtlRun{
		ID:        r.ID,
		StartedAt: parseTimestamp(r.StartedAt),
		Mode:      r.Mode,
		Processed: r.Processed,
		Failed:    r.Failed,
	}
	if r.FinishedAt.Valid {
		t := parseTimestamp(r.FinishedAt.String)
		run.FinishedAt = &t
	}
	return run
}

func (s *RunStorage) StartRun(ctx context.Context, run *models.EtlRun) error {
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	query := s.db.DB().Rebind(`INSERT INTO etl_runs (run_id, started_at, mode) VALUES (?, ?, ?)`)
	if _, err := s.db.DB().ExecContext(ctx, query, run.ID, timestampValue(run.StartedAt), run.Mode); err != nil {
		return fmt.Errorf("failed to start run %s: %w", run.ID, err)
	}
	return nil
}

// FinishRun stamps the finish time and the per-company counts
func (s *RunStorage) FinishRun(ctx context.Context, runID string, processed, failed int) error {
	query := s.db.DB().Rebind(`UPDATE etl_runs SET finished_at = ?, processed = ?, failed = ? WHERE run_id = ?`)
	result, err := s.db.DB().ExecContext(ctx, query, timestampValue(time.Now()), processed, failed, runID)
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", runID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return validation.NotFound("run", runID)
	}
	return nil
}

func (s *RunStorage) GetRun(ctx context.Context, runID string) (*models.EtlRun, error) {
	var row runRow
	query := s.db.DB().Rebind(`SELECT run_id, started_at, finished_at, mode, processed, failed FROM etl_runs WHERE run_id = ?`)
	err := s.db.DB().GetContext(ctx, &row, query, runID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, validation.NotFound("run", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", runID, err)
	}
	return row.toModel(), nil
}

// ListRuns returns the most recent runs first
func (s *RunStorage) ListRuns(ctx context.Context, limit int) ([]*models.EtlRun, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows []runRow
	query := s.db.DB().Rebind(`
		SELECT run_id, started_at, finished_at, mode, processed, failed
		FROM etl_runs
		ORDER BY started_at DESC
		LIMIT ?`)
	if err := s.db.DB().SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	runs := make([]*models.EtlRun, 0, len(rows))
	for i := range rows {
		runs = append(runs, rows[i].toModel())
	}
	return runs, nil
}
