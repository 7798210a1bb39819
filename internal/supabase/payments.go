package supabase

import (
	"context"
	"fmt"

	"layertext-backend/internal/models"
)

// InsertPayment records a processor event. The unique idempotency_key makes a
// redelivered event fail with models.ErrDuplicateKey.
func (d *DatabaseClient) InsertPayment(ctx context.Context, payment *models.PaymentRecord) error {
	err := d.executor(ctx).QueryRowContext(ctx, `
		INSERT INTO payments (id, user_id, external_payment_id, amount_minor_units, credits_granted, status, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, payment.ID, payment.UserID, payment.ExternalPaymentID, payment.AmountMinorUnits,
		payment.CreditsGranted, payment.Status, payment.IdempotencyKey).Scan(&payment.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("payment %s: %w", payment.IdempotencyKey, models.ErrDuplicateKey)
	}
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

func (d *DatabaseClient) GetPaymentByIdempotencyKey(ctx context.Context, key string) (*models.PaymentRecord, error) {
	var p models.PaymentRecord
	err := d.executor(ctx).QueryRowContext(ctx, `
		SELECT id, user_id, external_payment_id, amount_minor_units, credits_granted, status, idempotency_key, created_at
		FROM payments
		WHERE idempotency_key = $1
	`, key).Scan(&p.ID, &p.UserID, &p.ExternalPaymentID, &p.AmountMinorUnits, &p.CreditsGranted,
		&p.Status, &p.IdempotencyKey, &p.CreatedAt)
	if err != nil {
		return nil, notFound(err, "payment")
	}
	return &p, nil
}

func (d *DatabaseClient) ListPayments(ctx context.Context, userID string, limit, offset int) ([]models.PaymentRecord, error) {
	query, args, err := d.builder.
		Select("id", "user_id", "external_payment_id", "amount_minor_units", "credits_granted", "status", "idempotency_key", "created_at").
		From("payments").
		Where("user_id = ?", userID).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := d.executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []models.PaymentRecord
	for rows.Next() {
		var p models.PaymentRecord
		if err := rows.Scan(&p.ID, &p.UserID, &p.ExternalPaymentID, &p.AmountMinorUnits, &p.CreditsGranted,
			&p.Status, &p.IdempotencyKey, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
