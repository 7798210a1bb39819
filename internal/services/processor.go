package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"layertext-backend/internal/models"
)

const (
	creditsPerProcess = 1

	EventProcessingStarted   = "processing_started"
	EventProcessingCompleted = "processing_completed"
	EventProcessingFailed    = "processing_failed"

	// Bounds cleanup that must run even after the caller's ctx is gone.
	releaseTimeout = 10 * time.Second
)

var allowedImageExtensions = []string{".jpg", ".jpeg", ".png", ".webp"}

type ProcessResult struct {
	Upload            *models.Upload
	ProcessedImageURL string
	RemainingCredits  int
	AlreadyProcessed  bool
}

// Processor runs one paid background removal around the ledger and the upload
// state machine.
type Processor struct {
	tx        Transactor
	ledger    *Ledger
	lifecycle *Lifecycle
	remover   BackgroundRemover
	events    EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewProcessor(
	tx Transactor,
	ledger *Ledger,
	lifecycle *Lifecycle,
	remover BackgroundRemover,
	events EventPublisher,
	logger *zap.Logger,
) *Processor {
	return &Processor{
		tx:        tx,
		ledger:    ledger,
		lifecycle: lifecycle,
		remover:   remover,
		events:    events,
		logger:    logger.Named("processor"),
		now:       time.Now,
	}
}

// ProcessUpload removes the background of an upload and charges one credit for it.
//
// A finished upload is returned as-is without a second charge or external call.
// The credit debit and the transition to complete commit together; if either
// fails the upload goes back to pending and nothing is charged.
func (p *Processor) ProcessUpload(ctx context.Context, uploadID uuid.UUID, userID string) (*ProcessResult, error) {
	upload, err := p.lifecycle.Get(ctx, uploadID, userID)
	if err != nil {
		return nil, err
	}

	if upload.Status == models.UploadStatusComplete && upload.ProcessedImageURL.Valid {
		credits, err := p.ledger.GetBalance(ctx, userID)
		if err != nil {
			return nil, err
		}
		return &ProcessResult{
			Upload:            upload,
			ProcessedImageURL: upload.ProcessedImageURL.String,
			RemainingCredits:  credits,
			AlreadyProcessed:  true,
		}, nil
	}

	if upload.LeaseActive(p.now()) {
		return nil, fmt.Errorf("upload %s: %w", uploadID, ErrConflict)
	}

	if !p.ledger.HasSufficientCredits(ctx, userID, creditsPerProcess) {
		return nil, ErrInsufficientCredits
	}

	if err := ValidateImageURL(upload.SourceImageURL); err != nil {
		return nil, err
	}

	lease, err := p.lifecycle.TryAcquire(ctx, uploadID, userID)
	if errors.Is(err, ErrAlreadyLocked) {
		return nil, fmt.Errorf("upload %s: %w", uploadID, ErrConflict)
	}
	if err != nil {
		return nil, err
	}

	log := p.logger.With(
		zap.String("upload_id", uploadID.String()),
		zap.String("user_id", userID),
		zap.String("attempt_id", lease.AttemptID.String()))
	log.Info("processing started")
	p.publish(ctx, userID, uploadID, EventProcessingStarted, map[string]interface{}{
		"status": string(models.UploadStatusProcessing),
	})

	resultURL, err := p.remover.RemoveBackground(ctx, upload.SourceImageURL)
	if err != nil {
		log.Warn("background removal failed", zap.Error(err))
		p.release(ctx, lease, log)
		p.publish(ctx, userID, uploadID, EventProcessingFailed, map[string]interface{}{
			"status": string(models.UploadStatusPending),
			"error":  err.Error(),
		})
		return nil, &ProcessingFailedError{Reason: err.Error()}
	}

	var (
		completed *models.Upload
		remaining int
	)
	err = p.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		remaining, err = p.ledger.Debit(ctx, userID, creditsPerProcess, Entry{
			Reason:      models.CreditReasonProcessing,
			ReferenceID: uploadID.String(),
		})
		if err != nil {
			return err
		}
		completed, err = p.lifecycle.MarkComplete(ctx, lease, resultURL)
		return err
	})
	if err != nil {
		p.release(ctx, lease, log)
		switch {
		case errors.Is(err, ErrInsufficientCredits):
			// The external call already ran; its cost is absorbed rather than charged.
			log.Warn("credits ran out during processing, result discarded")
			return nil, err
		case errors.Is(err, ErrAlreadyLocked):
			log.Warn("lease lost before completion, debit rolled back")
			return nil, fmt.Errorf("upload %s: %w", uploadID, ErrConflict)
		case isDomainError(err):
			log.Error("failed to commit processing result", zap.Error(err))
			return nil, err
		default:
			log.Error("failed to commit processing result", zap.Error(err))
			return nil, persistence("commit processing result", err)
		}
	}

	log.Info("processing completed", zap.Int("credits_remaining", remaining))
	p.publish(ctx, userID, uploadID, EventProcessingCompleted, map[string]interface{}{
		"status":              string(models.UploadStatusComplete),
		"processed_image_url": resultURL,
	})

	return &ProcessResult{
		Upload:            completed,
		ProcessedImageURL: resultURL,
		RemainingCredits:  remaining,
	}, nil
}

// release runs detached from ctx so a caller that gave up still frees the upload.
// If this fails too, lease expiry frees it.
func (p *Processor) release(ctx context.Context, lease *Lease, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()
	if err := p.lifecycle.Release(ctx, lease); err != nil {
		log.Error("failed to release upload, waiting for lease expiry",
			zap.Time("lease_expires_at", lease.ExpiresAt), zap.Error(err))
	}
}

func (p *Processor) publish(ctx context.Context, userID string, uploadID uuid.UUID, event string, payload map[string]interface{}) {
	if p.events == nil {
		return
	}
	payload["upload_id"] = uploadID.String()
	if err := p.events.PublishUploadEvent(ctx, userID, uploadID, event, payload); err != nil {
		p.logger.Warn("failed to publish upload event",
			zap.String("upload_id", uploadID.String()),
			zap.String("event", event),
			zap.Error(err))
	}
}

// ValidateImageURL accepts absolute http(s) URLs whose path ends in a supported
// image extension.
func ValidateImageURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return invalidArgument("source image url %q is not a valid url", raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return invalidArgument("source image url must use http or https")
	}
	ext := strings.ToLower(path.Ext(u.Path))
	for _, allowed := range allowedImageExtensions {
		if ext == allowed {
			return nil
		}
	}
	return invalidArgument("source image must be one of %s", strings.Join(allowedImageExtensions, ", "))
}
