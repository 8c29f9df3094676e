package db

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/ajitpratap0/cryptofunk/internal/pipeline"
)

// InsertPipelineStep records one (run, agent) step, whether the agent
// succeeded or failed. Payload carries an "error" key on failure.
func (db *DB) InsertPipelineStep(ctx context.Context, step *pipeline.PipelineStep) error {
	query := `
		INSERT INTO pipeline_steps (
			run_id, agent_name, started_at, finished_at, score, confidence, payload
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := db.pool.Exec(ctx, query,
		step.RunID, step.AgentName, step.StartedAt, step.FinishedAt,
		step.Score, step.Confidence, step.Payload,
	)
	if err != nil {
		log.Error().
			Err(err).
			Str("run_id", step.RunID).
			Str("agent", step.AgentName).
			Msg("failed to insert pipeline step")
		return fmt.Errorf("failed to insert pipeline step for run %s agent %s: %w", step.RunID, step.AgentName, err)
	}
	return nil
}

// ListPipelineSteps returns every step recorded for a run, in the order
// agents were evaluated.
func (db *DB) ListPipelineSteps(ctx context.Context, runID string) ([]pipeline.PipelineStep, error) {
	query := `
		SELECT run_id, agent_name, started_at, finished_at, score, confidence, payload
		FROM pipeline_steps
		WHERE run_id = $1
		ORDER BY started_at ASC
	`
	rows, err := db.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pipeline steps for run %s: %w", runID, err)
	}
	defer rows.Close()

	var steps []pipeline.PipelineStep
	for rows.Next() {
		var step pipeline.PipelineStep
		if err := rows.Scan(
			&step.RunID, &step.AgentName, &step.StartedAt, &step.FinishedAt,
			&step.Score, &step.Confidence, &step.Payload,
		); err != nil {
			return nil, fmt.Errorf("failed to scan pipeline step row: %w", err)
		}
		steps = append(steps, step)
	}
	return steps, rows.Err()
}
