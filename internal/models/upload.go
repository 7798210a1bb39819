package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type UploadStatus string

const (
	UploadStatusPending    UploadStatus = "pending"
	UploadStatusProcessing UploadStatus = "processing"
	UploadStatusComplete   UploadStatus = "complete"
)

type Upload struct {
	ID                uuid.UUID
	UserID            string
	SourceImageURL    string
	StoragePath       sql.NullString
	ProcessedImageURL sql.NullString
	Status            UploadStatus
	CreditConsumed    bool
	AttemptID         uuid.NullUUID
	LeaseExpiresAt    sql.NullTime
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// LeaseActive reports whether a processing attempt still holds the upload at now.
func (u *Upload) LeaseActive(now time.Time) bool {
	if u.Status != UploadStatusProcessing {
		return false
	}
	if !u.LeaseExpiresAt.Valid {
		return true
	}
	return now.Before(u.LeaseExpiresAt.Time)
}
