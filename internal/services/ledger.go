package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"layertext-backend/internal/models"
)

// Entry labels a balance mutation in the audit trail.
type Entry struct {
	Reason      string
	ReferenceID string
}

// Ledger owns credit balances. Every change is a single conditional statement in
// the store, never a read-modify-write from here.
type Ledger struct {
	store           CreditStore
	startingCredits int
	logger          *zap.Logger
}

func NewLedger(store CreditStore, startingCredits int, logger *zap.Logger) *Ledger {
	return &Ledger{
		store:           store,
		startingCredits: startingCredits,
		logger:          logger.Named("ledger"),
	}
}

// GetBalance returns the user's credits, provisioning the starting grant on first use.
func (l *Ledger) GetBalance(ctx context.Context, userID string) (int, error) {
	if err := validateUserID(userID); err != nil {
		return 0, err
	}
	balance, err := l.provision(ctx, userID)
	if err != nil {
		return 0, err
	}
	return balance.Credits, nil
}

// HasSufficientCredits is advisory. Any failure reads as "not enough", which denies
// the paid operation.
func (l *Ledger) HasSufficientCredits(ctx context.Context, userID string, required int) bool {
	if required < 1 {
		return false
	}
	credits, err := l.GetBalance(ctx, userID)
	if err != nil {
		l.logger.Warn("balance check failed, treating as insufficient",
			zap.String("user_id", userID), zap.Error(err))
		return false
	}
	return credits >= required
}

// Debit takes amount credits or fails with ErrInsufficientCredits. It never leaves
// the balance negative, however many debits race.
func (l *Ledger) Debit(ctx context.Context, userID string, amount int, entry Entry) (int, error) {
	if err := validateUserID(userID); err != nil {
		return 0, err
	}
	if amount < 1 {
		return 0, invalidArgument("debit amount must be at least 1, got %d", amount)
	}
	if _, err := l.provision(ctx, userID); err != nil {
		return 0, err
	}

	credits, err := l.store.DecrementCredits(ctx, userID, amount, entry.Reason, entry.ReferenceID)
	if errors.Is(err, models.ErrConditionFailed) {
		return 0, ErrInsufficientCredits
	}
	if err != nil {
		return 0, persistence("debit credits", err)
	}

	l.logger.Debug("credits debited",
		zap.String("user_id", userID),
		zap.Int("amount", amount),
		zap.Int("balance", credits),
		zap.String("reason", entry.Reason))
	return credits, nil
}

// Credit adds amount credits. Zero is allowed and returns the current balance.
func (l *Ledger) Credit(ctx context.Context, userID string, amount int, entry Entry) (int, error) {
	if err := validateUserID(userID); err != nil {
		return 0, err
	}
	if amount < 0 {
		return 0, invalidArgument("credit amount must not be negative, got %d", amount)
	}
	balance, err := l.provision(ctx, userID)
	if err != nil {
		return 0, err
	}
	if amount == 0 {
		return balance.Credits, nil
	}

	credits, err := l.store.IncrementCredits(ctx, userID, amount, entry.Reason, entry.ReferenceID)
	if err != nil {
		return 0, persistence("credit credits", err)
	}

	l.logger.Info("credits granted",
		zap.String("user_id", userID),
		zap.Int("amount", amount),
		zap.Int("balance", credits),
		zap.String("reason", entry.Reason),
		zap.String("reference_id", entry.ReferenceID))
	return credits, nil
}

func (l *Ledger) Transactions(ctx context.Context, userID string, limit, offset int) ([]models.CreditTransaction, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	txns, err := l.store.ListCreditTransactions(ctx, userID, clampLimit(limit), max(offset, 0))
	if err != nil {
		return nil, persistence("list credit transactions", err)
	}
	return txns, nil
}

func (l *Ledger) provision(ctx context.Context, userID string) (*models.CreditBalance, error) {
	balance, err := l.store.EnsureCreditBalance(ctx, userID, l.startingCredits)
	if err != nil {
		return nil, persistence("provision credit balance", err)
	}
	return balance, nil
}

func validateUserID(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return invalidArgument("user id is required")
	}
	return nil
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultPageSize
	}
	return min(limit, maxPageSize)
}
