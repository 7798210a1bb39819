package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"layertext-backend/internal/models"
)

const (
	MaxUploadBytes = 10 << 20

	activityDays = 7
)

var allowedUploadTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// NewUpload is an image file received from a client.
type NewUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// NewExport is a rendered composite plus the text settings used to make it.
type NewExport struct {
	CanvasDataURL string
	UploadID      uuid.NullUUID
	Text          string
	FontSize      int
	FontColor     string
	Shadow        string
	PositionX     float64
	PositionY     float64
}

// StorageService moves image bytes into object storage and records them. Object
// and row are kept in step: a row is never written for an object that failed to
// upload, and an object whose row failed is removed.
type StorageService struct {
	storage   ObjectStorage
	lifecycle *Lifecycle
	exports   ExportStore
	logger    *zap.Logger
	now       func() time.Time
}

func NewStorageService(storage ObjectStorage, lifecycle *Lifecycle, exports ExportStore, logger *zap.Logger) *StorageService {
	return &StorageService{
		storage:   storage,
		lifecycle: lifecycle,
		exports:   exports,
		logger:    logger.Named("storage"),
		now:       time.Now,
	}
}

// StoreUpload saves the image under uploads/<user>/ and creates a pending upload.
func (s *StorageService) StoreUpload(ctx context.Context, userID string, file NewUpload) (*models.Upload, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	ext, ok := allowedUploadTypes[file.ContentType]
	if !ok {
		return nil, invalidArgument("unsupported image type %q, use jpeg, png or webp", file.ContentType)
	}
	if len(file.Data) == 0 {
		return nil, invalidArgument("image is empty")
	}
	if len(file.Data) > MaxUploadBytes {
		return nil, invalidArgument("image exceeds %d bytes", MaxUploadBytes)
	}

	// The random segment keeps two uploads in the same millisecond apart; the bucket refuses overwrites.
	storagePath := fmt.Sprintf("uploads/%s/%d-%s-%s", safeSegment(userID), s.now().UnixMilli(),
		uuid.NewString()[:8], uploadFilename(file.Filename, ext))
	publicURL, err := s.storage.UploadFile(storagePath, file.Data, file.ContentType)
	if err != nil {
		return nil, persistence("store upload image", err)
	}

	upload, err := s.lifecycle.Create(ctx, userID, publicURL, storagePath)
	if err != nil {
		s.removeObject(storagePath)
		return nil, err
	}

	s.logger.Info("upload stored",
		zap.String("user_id", userID),
		zap.String("upload_id", upload.ID.String()),
		zap.String("storage_path", storagePath),
		zap.Int("bytes", len(file.Data)))
	return upload, nil
}

// SaveExport decodes the PNG data URL, stores it under exports/<user>/ and records it.
func (s *StorageService) SaveExport(ctx context.Context, userID string, export NewExport) (*models.Export, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	data, err := decodePNGDataURL(export.CanvasDataURL)
	if err != nil {
		return nil, err
	}
	if export.UploadID.Valid {
		if _, err := s.lifecycle.Get(ctx, export.UploadID.UUID, userID); err != nil {
			return nil, err
		}
	}

	id := uuid.New()
	storagePath := fmt.Sprintf("exports/%s/%s.png", safeSegment(userID), id)
	publicURL, err := s.storage.UploadFile(storagePath, data, "image/png")
	if err != nil {
		return nil, persistence("store export image", err)
	}

	record := &models.Export{
		ID:          id,
		UserID:      userID,
		UploadID:    export.UploadID,
		ExportURL:   publicURL,
		StoragePath: storagePath,
		TextContent: export.Text,
		FontSize:    export.FontSize,
		FontColor:   export.FontColor,
		Shadow:      export.Shadow,
		PositionX:   export.PositionX,
		PositionY:   export.PositionY,
	}
	if err := s.exports.CreateExport(ctx, record); err != nil {
		s.removeObject(storagePath)
		return nil, persistence("create export", err)
	}
	return record, nil
}

func (s *StorageService) ListExports(ctx context.Context, userID string, limit, offset int) ([]models.Export, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	exports, err := s.exports.ListExports(ctx, userID, clampLimit(limit), max(offset, 0))
	if err != nil {
		return nil, persistence("list exports", err)
	}
	return exports, nil
}

// ExportStats summarizes the user's exports, with one activity entry per day for
// the last week including days without exports.
func (s *StorageService) ExportStats(ctx context.Context, userID string) (*models.ExportStats, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	weekStart := today.AddDate(0, 0, -(activityDays - 1))

	total, err := s.exports.CountExports(ctx, userID, time.Time{})
	if err != nil {
		return nil, persistence("count exports", err)
	}
	thisMonth, err := s.exports.CountExports(ctx, userID, startOfMonth)
	if err != nil {
		return nil, persistence("count exports this month", err)
	}
	creditsUsed, err := s.lifecycle.CreditsUsed(ctx, userID)
	if err != nil {
		return nil, err
	}
	daily, err := s.exports.DailyExportCounts(ctx, userID, weekStart)
	if err != nil {
		return nil, persistence("count daily exports", err)
	}

	byDay := make(map[string]int, len(daily))
	for _, d := range daily {
		byDay[d.Day.UTC().Format(time.DateOnly)] = d.Exports
	}
	activity := make([]models.DailyExportCount, 0, activityDays)
	for i := 0; i < activityDays; i++ {
		day := weekStart.AddDate(0, 0, i)
		activity = append(activity, models.DailyExportCount{Day: day, Exports: byDay[day.Format(time.DateOnly)]})
	}

	return &models.ExportStats{
		TotalExports:     total,
		ExportsThisMonth: thisMonth,
		CreditsUsed:      creditsUsed,
		Activity:         activity,
	}, nil
}

func (s *StorageService) removeObject(storagePath string) {
	if err := s.storage.DeleteFile(storagePath); err != nil {
		s.logger.Error("failed to remove orphaned object",
			zap.String("storage_path", storagePath), zap.Error(err))
	}
}

func decodePNGDataURL(dataURL string) ([]byte, error) {
	const prefix = "data:image/png;base64,"
	if !strings.HasPrefix(dataURL, prefix) {
		return nil, invalidArgument("canvas data must be a base64 PNG data url")
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURL, prefix))
	if err != nil {
		return nil, invalidArgument("canvas data is not valid base64")
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")) {
		return nil, invalidArgument("canvas data is not a png image")
	}
	if len(data) > MaxUploadBytes {
		return nil, invalidArgument("export exceeds %d bytes", MaxUploadBytes)
	}
	return data, nil
}

func uploadFilename(name, ext string) string {
	base := strings.TrimSuffix(path.Base(name), path.Ext(name))
	base = unsafeFilenameChars.ReplaceAllString(base, "_")
	if base == "" || base == "." || base == "_" {
		base = "image"
	}
	return base + ext
}

func safeSegment(s string) string {
	return unsafeFilenameChars.ReplaceAllString(s, "_")
}
