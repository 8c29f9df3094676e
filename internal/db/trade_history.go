package db

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// TradeHistory is one executed-order record: the venue's fill, recorded
// against the trade signal that produced it.
type TradeHistory struct {
	ID            string
	TradeSignalID string
	AccountID     string
	Symbol        string
	Venue         string
	Side          string
	Quantity      float64
	FillPrice     float64
	VenueOrderID  string
	ExecutedAt    time.Time
}

// InsertTradeHistory appends one executed-trade record.
func (db *DB) InsertTradeHistory(ctx context.Context, t *TradeHistory) error {
	query := `
		INSERT INTO trade_history (
			id, trade_signal_id, account_id, symbol, venue, side,
			quantity, fill_price, venue_order_id, executed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := db.pool.Exec(ctx, query,
		t.ID, t.TradeSignalID, t.AccountID, t.Symbol, t.Venue, t.Side,
		t.Quantity, t.FillPrice, t.VenueOrderID, t.ExecutedAt,
	)
	if err != nil {
		log.Error().Err(err).Str("trade_signal_id", t.TradeSignalID).Msg("failed to insert trade history")
		return fmt.Errorf("failed to insert trade history for signal %s: %w", t.TradeSignalID, err)
	}
	return nil
}

// ListTradeHistory returns recent executed trades for an account, newest first.
func (db *DB) ListTradeHistory(ctx context.Context, accountID string, limit int) ([]TradeHistory, error) {
	query := `
		SELECT id, trade_signal_id, account_id, symbol, venue, side,
			quantity, fill_price, venue_order_id, executed_at
		FROM trade_history
		WHERE account_id = $1
		ORDER BY executed_at DESC
		LIMIT $2
	`
	rows, err := db.pool.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list trade history for %s: %w", accountID, err)
	}
	defer rows.Close()

	var history []TradeHistory
	for rows.Next() {
		var t TradeHistory
		if err := rows.Scan(
			&t.ID, &t.TradeSignalID, &t.AccountID, &t.Symbol, &t.Venue, &t.Side,
			&t.Quantity, &t.FillPrice, &t.VenueOrderID, &t.ExecutedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan trade history row: %w", err)
		}
		history = append(history, t)
	}
	return history, rows.Err()
}
