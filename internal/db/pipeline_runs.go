package db

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ajitpratap0/cryptofunk/internal/pipeline"
)

// InsertPipelineRun creates a new run row with status=running.
func (db *DB) InsertPipelineRun(ctx context.Context, run *pipeline.PipelineRun) error {
	query := `
		INSERT INTO pipeline_runs (id, account_id, symbol, timeframe, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := db.pool.Exec(ctx, query,
		run.ID, run.AccountID, run.Symbol, run.Timeframe, run.Status, run.CreatedAt,
	)
	if err != nil {
		log.Error().Err(err).Str("run_id", run.ID).Msg("failed to insert pipeline run")
		return fmt.Errorf("failed to insert pipeline run %s: %w", run.ID, err)
	}
	return nil
}

// FinishPipelineRun transitions a run from running to a terminal status,
// recording the finish time. It is an error to call this on a run that is
// not currently running.
func (db *DB) FinishPipelineRun(ctx context.Context, runID string, status pipeline.RunStatus, finishedAt time.Time) error {
	query := `
		UPDATE pipeline_runs
		SET status = $2, finished_at = $3
		WHERE id = $1 AND status = $4
	`
	tag, err := db.pool.Exec(ctx, query, runID, status, finishedAt, pipeline.RunStatusRunning)
	if err != nil {
		return fmt.Errorf("failed to finish pipeline run %s: %w", runID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("pipeline run %s was not in running state", runID)
	}

	log.Debug().Str("run_id", runID).Str("status", string(status)).Msg("pipeline run finished")
	return nil
}

// GetPipelineRun loads a run by id.
func (db *DB) GetPipelineRun(ctx context.Context, runID string) (*pipeline.PipelineRun, error) {
	query := `
		SELECT id, account_id, symbol, timeframe, status, created_at, finished_at
		FROM pipeline_runs
		WHERE id = $1
	`
	var run pipeline.PipelineRun
	err := db.pool.QueryRow(ctx, query, runID).Scan(
		&run.ID, &run.AccountID, &run.Symbol, &run.Timeframe, &run.Status, &run.CreatedAt, &run.FinishedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load pipeline run %s: %w", runID, err)
	}
	return &run, nil
}

// ListPipelineRuns returns the most recent runs, newest first, bounded by limit.
func (db *DB) ListPipelineRuns(ctx context.Context, limit int) ([]pipeline.PipelineRun, error) {
	query := `
		SELECT id, account_id, symbol, timeframe, status, created_at, finished_at
		FROM pipeline_runs
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := db.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pipeline runs: %w", err)
	}
	defer rows.Close()

	var runs []pipeline.PipelineRun
	for rows.Next() {
		var run pipeline.PipelineRun
		if err := rows.Scan(&run.ID, &run.AccountID, &run.Symbol, &run.Timeframe, &run.Status, &run.CreatedAt, &run.FinishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pipeline run row: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
