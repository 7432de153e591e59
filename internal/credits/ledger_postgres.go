package credits

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresLedger keeps balances in profiles.credits_remaining and logs
// every deduction to credit_transactions.
type PostgresLedger struct {
	pool  *pgxpool.Pool
	start int
}

// NewPostgresLedger creates a ledger; profiles are created on first
// deduction with start credits.
func NewPostgresLedger(pool *pgxpool.Pool, start int) (*PostgresLedger, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresLedger{pool: pool, start: start}, nil
}

func (l *PostgresLedger) Balance(ctx context.Context, userID string) (int, error) {
	var balance int
	err := l.pool.QueryRow(ctx,
		`SELECT credits_remaining FROM profiles WHERE id = $1`,
		userID,
	).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return l.start, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query balance: %w", err)
	}
	return balance, nil
}

func (l *PostgresLedger) Deduct(ctx context.Context, userID string, amount int, details Details) (int, error) {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	remaining, err := l.DeductTx(ctx, tx, userID, amount, details)
	if err != nil {
		return remaining, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit deduction: %w", err)
	}
	return remaining, nil
}

// DeductTx performs a deduction inside tx so callers can combine it with
// other writes. The profile row stays locked until tx ends.
func (l *PostgresLedger) DeductTx(ctx context.Context, tx pgx.Tx, userID string, amount int, details Details) (int, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w, got %d", ErrInvalidAmount, amount)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO profiles (id, credits_remaining) VALUES ($1, $2)
		 ON CONFLICT (id) DO NOTHING`,
		userID, l.start,
	); err != nil {
		return 0, fmt.Errorf("ensure profile: %w", err)
	}

	var balance int
	if err := tx.QueryRow(ctx,
		`SELECT credits_remaining FROM profiles WHERE id = $1 FOR UPDATE`,
		userID,
	).Scan(&balance); err != nil {
		return 0, fmt.Errorf("lock profile: %w", err)
	}
	if balance < amount {
		return balance, &InsufficientCreditsError{Required: amount, Available: balance}
	}
	remaining := balance - amount

	if _, err := tx.Exec(ctx,
		`UPDATE profiles SET credits_remaining = $2, updated_at = now() WHERE id = $1`,
		userID, remaining,
	); err != nil {
		return 0, fmt.Errorf("update balance: %w", err)
	}

	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return 0, fmt.Errorf("marshal details: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO credit_transactions (user_id, credits_used, credits_remaining, action_type, action_details)
		 VALUES ($1, $2, $3, $4, $5::jsonb)`,
		userID, amount, remaining, ActionGeneration, string(detailsJSON),
	); err != nil {
		return 0, fmt.Errorf("record transaction: %w", err)
	}
	return remaining, nil
}
