package db

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// BrainDecision is the append-only log of every final decision the engine
// makes, including "wait" — unlike TradeSignal, a decision row is written
// regardless of direction.
type BrainDecision struct {
	ID                    string
	AccountID             string
	Symbol                string
	Action                string
	Reasoning             string
	Metadata              map[string]any
	ProfessionalReasoning map[string]any
	DailyPnL              float64
	CreatedAt             time.Time
}

// InsertBrainDecision appends one decision record.
func (db *DB) InsertBrainDecision(ctx context.Context, d *BrainDecision) error {
	query := `
		INSERT INTO brain_decisions (
			id, account_id, symbol, action, reasoning, metadata,
			professional_reasoning, daily_pnl, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := db.pool.Exec(ctx, query,
		d.ID, d.AccountID, d.Symbol, d.Action, d.Reasoning, d.Metadata,
		d.ProfessionalReasoning, d.DailyPnL, d.CreatedAt,
	)
	if err != nil {
		log.Error().Err(err).Str("decision_id", d.ID).Str("action", d.Action).Msg("failed to insert brain decision")
		return fmt.Errorf("failed to insert brain decision %s: %w", d.ID, err)
	}
	return nil
}

// ListBrainDecisions returns the most recent decisions for an account/symbol.
func (db *DB) ListBrainDecisions(ctx context.Context, accountID, symbol string, limit int) ([]BrainDecision, error) {
	query := `
		SELECT id, account_id, symbol, action, reasoning, metadata,
			professional_reasoning, daily_pnl, created_at
		FROM brain_decisions
		WHERE account_id = $1 AND symbol = $2
		ORDER BY created_at DESC
		LIMIT $3
	`
	rows, err := db.pool.Query(ctx, query, accountID, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list brain decisions for %s/%s: %w", accountID, symbol, err)
	}
	defer rows.Close()

	var decisions []BrainDecision
	for rows.Next() {
		var d BrainDecision
		if err := rows.Scan(
			&d.ID, &d.AccountID, &d.Symbol, &d.Action, &d.Reasoning, &d.Metadata,
			&d.ProfessionalReasoning, &d.DailyPnL, &d.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan brain decision row: %w", err)
		}
		decisions = append(decisions, d)
	}
	return decisions, rows.Err()
}
