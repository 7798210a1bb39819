package models

import (
	"time"

	"github.com/google/uuid"
)

type Export struct {
	ID          uuid.UUID
	UserID      string
	UploadID    uuid.NullUUID
	ExportURL   string
	StoragePath string
	TextContent string
	FontSize    int
	FontColor   string
	Shadow      string
	PositionX   float64
	PositionY   float64
	CreatedAt   time.Time
}

type DailyExportCount struct {
	Day     time.Time
	Exports int
}

type ExportStats struct {
	TotalExports     int
	ExportsThisMonth int
	CreditsUsed      int
	Activity         []DailyExportCount
}
