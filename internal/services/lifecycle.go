package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"layertext-backend/internal/models"
)

// Lease is the right to finish or abandon one processing attempt. Only the holder's
// AttemptID can move the upload out of processing.
type Lease struct {
	UploadID  uuid.UUID
	AttemptID uuid.UUID
	ExpiresAt time.Time
}

// Lifecycle owns the upload state machine:
//
//	pending -> processing -> complete
//	processing -> pending (release, or lease expiry followed by re-acquire)
type Lifecycle struct {
	store    UploadStore
	duration time.Duration
	logger   *zap.Logger
}

func NewLifecycle(store UploadStore, leaseDuration time.Duration, logger *zap.Logger) *Lifecycle {
	return &Lifecycle{
		store:    store,
		duration: leaseDuration,
		logger:   logger.Named("lifecycle"),
	}
}

func (l *Lifecycle) Create(ctx context.Context, userID, sourceImageURL, storagePath string) (*models.Upload, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	if sourceImageURL == "" {
		return nil, invalidArgument("source image url is required")
	}

	upload := &models.Upload{
		ID:             uuid.New(),
		UserID:         userID,
		SourceImageURL: sourceImageURL,
	}
	if storagePath != "" {
		upload.StoragePath.String = storagePath
		upload.StoragePath.Valid = true
	}
	if err := l.store.CreateUpload(ctx, upload); err != nil {
		return nil, persistence("create upload", err)
	}
	return upload, nil
}

// Get is owner-scoped; another user's upload is ErrNotFound.
func (l *Lifecycle) Get(ctx context.Context, uploadID uuid.UUID, userID string) (*models.Upload, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	upload, err := l.store.GetUpload(ctx, uploadID, userID)
	if errors.Is(err, models.ErrRecordNotFound) {
		return nil, fmt.Errorf("upload %s: %w", uploadID, ErrNotFound)
	}
	if err != nil {
		return nil, persistence("get upload", err)
	}
	return upload, nil
}

func (l *Lifecycle) List(ctx context.Context, userID string, limit, offset int) ([]models.Upload, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	uploads, err := l.store.ListUploads(ctx, userID, clampLimit(limit), max(offset, 0))
	if err != nil {
		return nil, persistence("list uploads", err)
	}
	return uploads, nil
}

// TryAcquire moves pending -> processing with a compare-and-swap in the store. At
// most one caller wins per pending period; the rest get ErrAlreadyLocked. An
// attempt whose lease has lapsed no longer counts, so its upload can be taken.
func (l *Lifecycle) TryAcquire(ctx context.Context, uploadID uuid.UUID, userID string) (*Lease, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	attemptID := uuid.New()
	upload, err := l.store.AcquireUpload(ctx, uploadID, userID, attemptID, l.duration)
	if errors.Is(err, models.ErrConditionFailed) {
		// Zero rows: either the row is not ours to see, or someone else holds it.
		if _, getErr := l.Get(ctx, uploadID, userID); getErr != nil {
			return nil, getErr
		}
		return nil, fmt.Errorf("upload %s: %w", uploadID, ErrAlreadyLocked)
	}
	if err != nil {
		return nil, persistence("acquire upload", err)
	}

	lease := &Lease{UploadID: upload.ID, AttemptID: attemptID}
	if upload.LeaseExpiresAt.Valid {
		lease.ExpiresAt = upload.LeaseExpiresAt.Time
	}

	l.logger.Debug("upload acquired",
		zap.String("upload_id", uploadID.String()),
		zap.String("attempt_id", attemptID.String()),
		zap.Time("lease_expires_at", lease.ExpiresAt))
	return lease, nil
}

// MarkComplete finishes the attempt holding lease. If the lease was lost to another
// attempt it returns ErrAlreadyLocked and changes nothing.
func (l *Lifecycle) MarkComplete(ctx context.Context, lease *Lease, processedImageURL string) (*models.Upload, error) {
	if processedImageURL == "" {
		return nil, invalidArgument("processed image url is required")
	}
	upload, err := l.store.CompleteUpload(ctx, lease.UploadID, lease.AttemptID, processedImageURL)
	if errors.Is(err, models.ErrConditionFailed) {
		return nil, fmt.Errorf("upload %s lease lost: %w", lease.UploadID, ErrAlreadyLocked)
	}
	if err != nil {
		return nil, persistence("complete upload", err)
	}
	return upload, nil
}

// Release returns the upload to pending. Releasing an upload the attempt no longer
// holds is a no-op.
func (l *Lifecycle) Release(ctx context.Context, lease *Lease) error {
	released, err := l.store.ReleaseUpload(ctx, lease.UploadID, lease.AttemptID)
	if err != nil {
		return persistence("release upload", err)
	}
	if !released {
		l.logger.Debug("release was a no-op",
			zap.String("upload_id", lease.UploadID.String()),
			zap.String("attempt_id", lease.AttemptID.String()))
	}
	return nil
}

func (l *Lifecycle) CreditsUsed(ctx context.Context, userID string) (int, error) {
	n, err := l.store.CountConsumedCredits(ctx, userID)
	if err != nil {
		return 0, persistence("count consumed credits", err)
	}
	return n, nil
}
