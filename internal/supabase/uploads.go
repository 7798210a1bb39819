package supabase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"layertext-backend/internal/models"
)

const uploadColumns = `id, user_id, source_image_url, storage_path, processed_image_url, status,
	credit_consumed, attempt_id, lease_expires_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUpload(row rowScanner) (*models.Upload, error) {
	var u models.Upload
	err := row.Scan(
		&u.ID, &u.UserID, &u.SourceImageURL, &u.StoragePath, &u.ProcessedImageURL, &u.Status,
		&u.CreditConsumed, &u.AttemptID, &u.LeaseExpiresAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (d *DatabaseClient) CreateUpload(ctx context.Context, upload *models.Upload) error {
	err := d.executor(ctx).QueryRowContext(ctx, `
		INSERT INTO uploads (id, user_id, source_image_url, storage_path, status, credit_consumed)
		VALUES ($1, $2, $3, $4, $5, FALSE)
		RETURNING created_at, updated_at
	`, upload.ID, upload.UserID, upload.SourceImageURL, upload.StoragePath, models.UploadStatusPending).Scan(
		&upload.CreatedAt, &upload.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create upload: %w", err)
	}
	upload.Status = models.UploadStatusPending
	upload.CreditConsumed = false
	return nil
}

// GetUpload is owner-scoped: another user's upload reads as not found.
func (d *DatabaseClient) GetUpload(ctx context.Context, uploadID uuid.UUID, userID string) (*models.Upload, error) {
	row := d.executor(ctx).QueryRowContext(ctx, `
		SELECT `+uploadColumns+`
		FROM uploads
		WHERE id = $1 AND user_id = $2
	`, uploadID, userID)
	upload, err := scanUpload(row)
	if err != nil {
		return nil, notFound(err, "upload")
	}
	return upload, nil
}

func (d *DatabaseClient) ListUploads(ctx context.Context, userID string, limit, offset int) ([]models.Upload, error) {
	query, args, err := d.builder.
		Select(uploadColumns).
		From("uploads").
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
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}
	defer rows.Close()

	var uploads []models.Upload
	for rows.Next() {
		upload, err := scanUpload(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan upload: %w", err)
		}
		uploads = append(uploads, *upload)
	}
	return uploads, rows.Err()
}

// AcquireUpload is the pending -> processing compare-and-swap. It also reclaims an
// upload whose previous attempt let its lease lapse. Returns models.ErrConditionFailed
// when no row matched.
func (d *DatabaseClient) AcquireUpload(ctx context.Context, uploadID uuid.UUID, userID string, attemptID uuid.UUID, lease time.Duration) (*models.Upload, error) {
	row := d.executor(ctx).QueryRowContext(ctx, `
		UPDATE uploads
		SET status = 'processing',
		    attempt_id = $3,
		    lease_expires_at = NOW() + ($4::bigint * INTERVAL '1 millisecond'),
		    updated_at = NOW()
		WHERE id = $1
		  AND user_id = $2
		  AND (status = 'pending' OR (status = 'processing' AND lease_expires_at < NOW()))
		RETURNING `+uploadColumns,
		uploadID, userID, attemptID, lease.Milliseconds())
	upload, err := scanUpload(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("acquire upload %s: %w", uploadID, models.ErrConditionFailed)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to acquire upload: %w", err)
	}
	return upload, nil
}

// CompleteUpload moves processing -> complete for the attempt that holds the lease.
func (d *DatabaseClient) CompleteUpload(ctx context.Context, uploadID, attemptID uuid.UUID, processedImageURL string) (*models.Upload, error) {
	row := d.executor(ctx).QueryRowContext(ctx, `
		UPDATE uploads
		SET status = 'complete',
		    processed_image_url = $3,
		    credit_consumed = TRUE,
		    attempt_id = NULL,
		    lease_expires_at = NULL,
		    updated_at = NOW()
		WHERE id = $1 AND status = 'processing' AND attempt_id = $2
		RETURNING `+uploadColumns,
		uploadID, attemptID, processedImageURL)
	upload, err := scanUpload(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("complete upload %s: %w", uploadID, models.ErrConditionFailed)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to complete upload: %w", err)
	}
	return upload, nil
}

// ReleaseUpload returns processing -> pending for the given attempt. A release by an
// attempt that no longer holds the upload changes nothing and reports false.
func (d *DatabaseClient) ReleaseUpload(ctx context.Context, uploadID, attemptID uuid.UUID) (bool, error) {
	res, err := d.executor(ctx).ExecContext(ctx, `
		UPDATE uploads
		SET status = 'pending', attempt_id = NULL, lease_expires_at = NULL, updated_at = NOW()
		WHERE id = $1 AND status = 'processing' AND attempt_id = $2
	`, uploadID, attemptID)
	if err != nil {
		return false, fmt.Errorf("failed to release upload: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}

// CountConsumedCredits counts uploads that were paid for.
func (d *DatabaseClient) CountConsumedCredits(ctx context.Context, userID string) (int, error) {
	var n int
	err := d.executor(ctx).QueryRowContext(ctx, `
		SELECT COUNT(*) FROM uploads WHERE user_id = $1 AND credit_consumed
	`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count consumed credits: %w", err)
	}
	return n, nil
}
