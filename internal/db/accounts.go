package db

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/ajitpratap0/cryptofunk/internal/pipeline"
)

// GetAccount loads one account's trading envelope by id.
func (db *DB) GetAccount(ctx context.Context, accountID string) (*pipeline.Account, error) {
	query := `
		SELECT id, starting_balance, current_balance, max_leverage, max_risk_per_trade_pct
		FROM trading_accounts
		WHERE id = $1
	`

	var acc pipeline.Account
	err := db.pool.QueryRow(ctx, query, accountID).Scan(
		&acc.ID,
		&acc.StartingBalance,
		&acc.CurrentBalance,
		&acc.MaxLeverage,
		&acc.MaxRiskPerTradePct,
	)
	if err != nil {
		log.Error().Err(err).Str("account_id", accountID).Msg("failed to load trading account")
		return nil, fmt.Errorf("failed to load account %s: %w", accountID, err)
	}

	return &acc, nil
}

// UpdateAccountBalance persists a new current_balance for an account,
// e.g. after a fill is recorded.
func (db *DB) UpdateAccountBalance(ctx context.Context, accountID string, newBalance float64) error {
	query := `UPDATE trading_accounts SET current_balance = $2, updated_at = NOW() WHERE id = $1`

	tag, err := db.pool.Exec(ctx, query, accountID, newBalance)
	if err != nil {
		return fmt.Errorf("failed to update account balance for %s: %w", accountID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account %s not found", accountID)
	}

	log.Debug().Str("account_id", accountID).Float64("balance", newBalance).Msg("account balance updated")
	return nil
}
