package supabase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"layertext-backend/internal/models"
)

func (d *DatabaseClient) GetCreditBalance(ctx context.Context, userID string) (*models.CreditBalance, error) {
	var balance models.CreditBalance
	err := d.executor(ctx).QueryRowContext(ctx, `
		SELECT user_id, credits, created_at, updated_at
		FROM credit_balances
		WHERE user_id = $1
	`, userID).Scan(&balance.UserID, &balance.Credits, &balance.CreatedAt, &balance.UpdatedAt)
	if err != nil {
		return nil, notFound(err, "credit balance")
	}
	return &balance, nil
}

// EnsureCreditBalance provisions the account with startingCredits unless a row
// already exists. Concurrent first requests race on the primary key; the loser
// reads the winner's row.
func (d *DatabaseClient) EnsureCreditBalance(ctx context.Context, userID string, startingCredits int) (*models.CreditBalance, error) {
	var balance models.CreditBalance
	err := d.executor(ctx).QueryRowContext(ctx, `
		WITH inserted AS (
			INSERT INTO credit_balances (user_id, credits)
			VALUES ($1, $2::int)
			ON CONFLICT (user_id) DO NOTHING
			RETURNING user_id, credits, created_at, updated_at
		), audit AS (
			INSERT INTO credit_transactions (user_id, amount, balance_after, reason, reference_id)
			SELECT user_id, credits, credits, $3, '' FROM inserted
		)
		SELECT user_id, credits, created_at, updated_at FROM inserted
	`, userID, startingCredits, models.CreditReasonProvision).Scan(
		&balance.UserID, &balance.Credits, &balance.CreatedAt, &balance.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return d.GetCreditBalance(ctx, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to provision credit balance: %w", err)
	}
	return &balance, nil
}

// DecrementCredits subtracts amount only while the balance covers it. The check and
// the write are one statement, so concurrent debits can neither overdraw nor lose an
// update. Returns models.ErrConditionFailed when the balance is short or missing.
func (d *DatabaseClient) DecrementCredits(ctx context.Context, userID string, amount int, reason, referenceID string) (int, error) {
	var credits int
	err := d.executor(ctx).QueryRowContext(ctx, `
		WITH updated AS (
			UPDATE credit_balances
			SET credits = credits - $2::int, updated_at = NOW()
			WHERE user_id = $1 AND credits >= $2::int
			RETURNING user_id, credits
		), audit AS (
			INSERT INTO credit_transactions (user_id, amount, balance_after, reason, reference_id)
			SELECT user_id, -$2::int, credits, $3, $4 FROM updated
		)
		SELECT credits FROM updated
	`, userID, amount, reason, referenceID).Scan(&credits)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("debit %d credits: %w", amount, models.ErrConditionFailed)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to decrement credits: %w", err)
	}
	return credits, nil
}

func (d *DatabaseClient) IncrementCredits(ctx context.Context, userID string, amount int, reason, referenceID string) (int, error) {
	var credits int
	err := d.executor(ctx).QueryRowContext(ctx, `
		WITH updated AS (
			UPDATE credit_balances
			SET credits = credits + $2::int, updated_at = NOW()
			WHERE user_id = $1
			RETURNING user_id, credits
		), audit AS (
			INSERT INTO credit_transactions (user_id, amount, balance_after, reason, reference_id)
			SELECT user_id, $2::int, credits, $3, $4 FROM updated
		)
		SELECT credits FROM updated
	`, userID, amount, reason, referenceID).Scan(&credits)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("credit balance: %w", models.ErrRecordNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to increment credits: %w", err)
	}
	return credits, nil
}

func (d *DatabaseClient) ListCreditTransactions(ctx context.Context, userID string, limit, offset int) ([]models.CreditTransaction, error) {
	query, args, err := d.builder.
		Select("id", "user_id", "amount", "balance_after", "reason", "reference_id", "created_at").
		From("credit_transactions").
		Where("user_id = ?", userID).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := d.executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list credit transactions: %w", err)
	}
	defer rows.Close()

	var txns []models.CreditTransaction
	for rows.Next() {
		var t models.CreditTransaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Amount, &t.BalanceAfter, &t.Reason, &t.ReferenceID, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan credit transaction: %w", err)
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}
