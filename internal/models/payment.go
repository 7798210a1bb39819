package models

import (
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"
)

type PaymentRecord struct {
	ID                uuid.UUID
	UserID            string
	ExternalPaymentID string
	AmountMinorUnits  int64
	CreditsGranted    int
	Status            PaymentStatus
	IdempotencyKey    string
	CreatedAt         time.Time
}
