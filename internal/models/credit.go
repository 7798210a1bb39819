package models

import (
	"time"

	"github.com/google/uuid"
)

type CreditBalance struct {
	UserID    string
	Credits   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreditTransaction is the audit row written alongside every balance mutation.
type CreditTransaction struct {
	ID           uuid.UUID
	UserID       string
	Amount       int
	BalanceAfter int
	Reason       string
	ReferenceID  string
	CreatedAt    time.Time
}

const (
	CreditReasonProvision  = "provision"
	CreditReasonProcessing = "processing"
	CreditReasonPurchase   = "purchase"
	CreditReasonTopUp      = "topup"
)
