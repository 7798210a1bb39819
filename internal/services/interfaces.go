package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"layertext-backend/internal/models"
)

// Transactor joins every store call made with the ctx passed to fn into one
// transaction, committed only when fn returns nil.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type CreditStore interface {
	GetCreditBalance(ctx context.Context, userID string) (*models.CreditBalance, error)
	EnsureCreditBalance(ctx context.Context, userID string, startingCredits int) (*models.CreditBalance, error)
	DecrementCredits(ctx context.Context, userID string, amount int, reason, referenceID string) (int, error)
	IncrementCredits(ctx context.Context, userID string, amount int, reason, referenceID string) (int, error)
	ListCreditTransactions(ctx context.Context, userID string, limit, offset int) ([]models.CreditTransaction, error)
}

type UploadStore interface {
	CreateUpload(ctx context.Context, upload *models.Upload) error
	GetUpload(ctx context.Context, uploadID uuid.UUID, userID string) (*models.Upload, error)
	ListUploads(ctx context.Context, userID string, limit, offset int) ([]models.Upload, error)
	AcquireUpload(ctx context.Context, uploadID uuid.UUID, userID string, attemptID uuid.UUID, lease time.Duration) (*models.Upload, error)
	CompleteUpload(ctx context.Context, uploadID, attemptID uuid.UUID, processedImageURL string) (*models.Upload, error)
	ReleaseUpload(ctx context.Context, uploadID, attemptID uuid.UUID) (bool, error)
	CountConsumedCredits(ctx context.Context, userID string) (int, error)
}

type PaymentStore interface {
	InsertPayment(ctx context.Context, payment *models.PaymentRecord) error
	ListPayments(ctx context.Context, userID string, limit, offset int) ([]models.PaymentRecord, error)
}

type ExportStore interface {
	CreateExport(ctx context.Context, export *models.Export) error
	ListExports(ctx context.Context, userID string, limit, offset int) ([]models.Export, error)
	CountExports(ctx context.Context, userID string, since time.Time) (int, error)
	DailyExportCounts(ctx context.Context, userID string, since time.Time) ([]models.DailyExportCount, error)
}

// ObjectStorage holds uploaded and exported images. UploadFile returns the public URL.
type ObjectStorage interface {
	UploadFile(storagePath string, data []byte, contentType string) (string, error)
	DeleteFile(storagePath string) error
}

// BackgroundRemover is the external AI call: source image URL in, result URL out.
type BackgroundRemover interface {
	RemoveBackground(ctx context.Context, sourceImageURL string) (string, error)
}

// EventPublisher fans processing progress out to subscribed clients. Delivery is
// best-effort; callers log and continue on error.
type EventPublisher interface {
	PublishUploadEvent(ctx context.Context, userID string, uploadID uuid.UUID, event string, payload map[string]interface{}) error
}

type CheckoutCreator interface {
	CreateCheckoutSession(ctx context.Context, userID, customerEmail string) (sessionID, url string, err error)
}
