package db

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ajitpratap0/cryptofunk/internal/pipeline"
)

// AgentSignal is the durable, cross-run record of what one agent said about
// one symbol at one point in time. Unlike pipeline_steps (which is scoped
// to a single run and carries timing detail), agent_signals is an
// append-only log meant for querying an agent's output history
// independently of any particular run.
type AgentSignal struct {
	RunID      string
	AgentName  string
	Symbol     string
	Score      float64
	Confidence float64
	Payload    map[string]any
	CreatedAt  time.Time
}

// InsertAgentSignal appends one agent signal row.
func (db *DB) InsertAgentSignal(ctx context.Context, sig *AgentSignal) error {
	query := `
		INSERT INTO agent_signals (run_id, agent_name, symbol, score, confidence, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := db.pool.Exec(ctx, query,
		sig.RunID, sig.AgentName, sig.Symbol, sig.Score, sig.Confidence, sig.Payload, sig.CreatedAt,
	)
	if err != nil {
		log.Error().Err(err).Str("agent", sig.AgentName).Str("symbol", sig.Symbol).Msg("failed to insert agent signal")
		return fmt.Errorf("failed to insert agent signal for %s/%s: %w", sig.AgentName, sig.Symbol, err)
	}
	return nil
}

// RecordAgentResult is a convenience wrapper that converts a pipeline
// AgentResult into an AgentSignal row for the given run/symbol.
func (db *DB) RecordAgentResult(ctx context.Context, runID, agentName, symbol string, result pipeline.AgentResult, at time.Time) error {
	return db.InsertAgentSignal(ctx, &AgentSignal{
		RunID:      runID,
		AgentName:  agentName,
		Symbol:     symbol,
		Score:      result.Score,
		Confidence: result.Confidence,
		Payload:    result.Payload,
		CreatedAt:  at,
	})
}

// ListRecentAgentSignals returns the most recent signals for one agent on
// one symbol, newest first.
func (db *DB) ListRecentAgentSignals(ctx context.Context, agentName, symbol string, limit int) ([]AgentSignal, error) {
	query := `
		SELECT run_id, agent_name, symbol, score, confidence, payload, created_at
		FROM agent_signals
		WHERE agent_name = $1 AND symbol = $2
		ORDER BY created_at DESC
		LIMIT $3
	`
	rows, err := db.pool.Query(ctx, query, agentName, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list agent signals for %s/%s: %w", agentName, symbol, err)
	}
	defer rows.Close()

	var signals []AgentSignal
	for rows.Next() {
		var sig AgentSignal
		if err := rows.Scan(&sig.RunID, &sig.AgentName, &sig.Symbol, &sig.Score, &sig.Confidence, &sig.Payload, &sig.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan agent signal row: %w", err)
		}
		signals = append(signals, sig)
	}
	return signals, rows.Err()
}
