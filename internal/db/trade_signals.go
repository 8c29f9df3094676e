package db

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// TradeDirection is the decision engine's output direction.
type TradeDirection string

const (
	TradeDirectionBuy  TradeDirection = "buy"
	TradeDirectionSell TradeDirection = "sell"
	TradeDirectionHold TradeDirection = "hold"
)

// TradeSignalStatus is the execution lifecycle of a created trade signal.
type TradeSignalStatus string

const (
	TradeSignalStatusPending  TradeSignalStatus = "pending"
	TradeSignalStatusExecuted TradeSignalStatus = "executed"
	TradeSignalStatusRejected TradeSignalStatus = "rejected"
)

// TradeSignal is created with status=pending only when Direction != hold. A
// hold decision never produces a row. Once executed or rejected, a row is
// immutable.
type TradeSignal struct {
	ID              string
	AccountID       string
	Symbol          string
	Timeframe       string
	Direction       TradeDirection
	Confidence      float64
	Leverage        float64
	EntryPrice      *float64
	StopLoss        *float64
	TakeProfit      *float64
	PositionSizeUSD *float64
	Status          TradeSignalStatus
	CreatedByAgent  string
	AIReasoning     map[string]any
	CreatedAt       time.Time
}

// InsertTradeSignal creates a new pending trade signal.
func (db *DB) InsertTradeSignal(ctx context.Context, sig *TradeSignal) error {
	query := `
		INSERT INTO trade_signals (
			id, account_id, symbol, timeframe, direction, confidence, leverage,
			entry_price, stop_loss, take_profit, position_size_usd, status,
			created_by_agent, ai_reasoning, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := db.pool.Exec(ctx, query,
		sig.ID, sig.AccountID, sig.Symbol, sig.Timeframe, sig.Direction, sig.Confidence, sig.Leverage,
		sig.EntryPrice, sig.StopLoss, sig.TakeProfit, sig.PositionSizeUSD, sig.Status,
		sig.CreatedByAgent, sig.AIReasoning, sig.CreatedAt,
	)
	if err != nil {
		log.Error().Err(err).Str("signal_id", sig.ID).Msg("failed to insert trade signal")
		return fmt.Errorf("failed to insert trade signal %s: %w", sig.ID, err)
	}
	return nil
}

// GetTradeSignal loads one trade signal by id.
func (db *DB) GetTradeSignal(ctx context.Context, id string) (*TradeSignal, error) {
	query := `
		SELECT id, account_id, symbol, timeframe, direction, confidence, leverage,
			entry_price, stop_loss, take_profit, position_size_usd, status,
			created_by_agent, ai_reasoning, created_at
		FROM trade_signals
		WHERE id = $1
	`
	var sig TradeSignal
	err := db.pool.QueryRow(ctx, query, id).Scan(
		&sig.ID, &sig.AccountID, &sig.Symbol, &sig.Timeframe, &sig.Direction, &sig.Confidence, &sig.Leverage,
		&sig.EntryPrice, &sig.StopLoss, &sig.TakeProfit, &sig.PositionSizeUSD, &sig.Status,
		&sig.CreatedByAgent, &sig.AIReasoning, &sig.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load trade signal %s: %w", id, err)
	}
	return &sig, nil
}

// ListTradeSignals returns recent trade signals for an account, newest first.
func (db *DB) ListTradeSignals(ctx context.Context, accountID string, limit int) ([]TradeSignal, error) {
	query := `
		SELECT id, account_id, symbol, timeframe, direction, confidence, leverage,
			entry_price, stop_loss, take_profit, position_size_usd, status,
			created_by_agent, ai_reasoning, created_at
		FROM trade_signals
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := db.pool.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list trade signals for %s: %w", accountID, err)
	}
	defer rows.Close()

	var signals []TradeSignal
	for rows.Next() {
		var sig TradeSignal
		if err := rows.Scan(
			&sig.ID, &sig.AccountID, &sig.Symbol, &sig.Timeframe, &sig.Direction, &sig.Confidence, &sig.Leverage,
			&sig.EntryPrice, &sig.StopLoss, &sig.TakeProfit, &sig.PositionSizeUSD, &sig.Status,
			&sig.CreatedByAgent, &sig.AIReasoning, &sig.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan trade signal row: %w", err)
		}
		signals = append(signals, sig)
	}
	return signals, rows.Err()
}

// UpdateTradeSignalStatus performs the one-way pending->{executed,rejected}
// transition. It fails if the row is not currently pending, enforcing the
// "immutable once settled" invariant at the database layer too.
func (db *DB) UpdateTradeSignalStatus(ctx context.Context, id string, status TradeSignalStatus) error {
	query := `
		UPDATE trade_signals
		SET status = $2
		WHERE id = $1 AND status = $3
	`
	tag, err := db.pool.Exec(ctx, query, id, status, TradeSignalStatusPending)
	if err != nil {
		return fmt.Errorf("failed to update trade signal %s status: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("trade signal %s was not pending", id)
	}
	return nil
}
