package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"layertext-backend/internal/models"
	"layertext-backend/internal/services"
	"layertext-backend/internal/test/fakes"
)

const (
	testUser        = "user-123"
	otherUser       = "user-456"
	startingCredits = 10
	sourceImageURL  = "https://storage.test/object/public/images/uploads/user-123/photo.jpg"
)

type harness struct {
	store     *fakes.Store
	remover   *fakes.Remover
	events    *fakes.Publisher
	objects   *fakes.ObjectStorage
	ledger    *services.Ledger
	lifecycle *services.Lifecycle
	processor *services.Processor
}

func newHarness(t *testing.T) *harness {
	return newHarnessWithLease(t, time.Minute)
}

func newHarnessWithLease(t *testing.T, lease time.Duration) *harness {
	t.Helper()
	logger := zaptest.NewLogger(t)
	h := &harness{
		store:   fakes.NewStore(),
		remover: &fakes.Remover{},
		events:  &fakes.Publisher{},
		objects: fakes.NewObjectStorage(),
	}
	h.ledger = services.NewLedger(h.store, startingCredits, logger)
	h.lifecycle = services.NewLifecycle(h.store, lease, logger)
	h.processor = services.NewProcessor(h.store, h.ledger, h.lifecycle, h.remover, h.events, logger)
	return h
}

func (h *harness) createUpload(t *testing.T, userID string) *models.Upload {
	t.Helper()
	upload, err := h.lifecycle.Create(context.Background(), userID, sourceImageURL, "uploads/"+userID+"/photo.jpg")
	require.NoError(t, err)
	return upload
}

func (h *harness) uploadStatus(t *testing.T, id uuid.UUID) models.UploadStatus {
	t.Helper()
	u, ok := h.store.Upload(id)
	require.True(t, ok)
	return u.Status
}
