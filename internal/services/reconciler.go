package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"layertext-backend/internal/models"
)

const (
	checkoutKeyPrefix      = "stripe_"
	failedPaymentKeyPrefix = "failed_"
	unknownUserID          = "unknown"
)

// CheckoutCompleted is a verified "checkout session completed" notification.
type CheckoutCompleted struct {
	SessionID       string
	UserID          string
	PaymentIntentID string
	AmountTotal     int64
}

// PaymentFailed is a verified "payment failed" notification.
type PaymentFailed struct {
	PaymentIntentID string
	UserID          string
	Amount          int64
	Reason          string
}

type ReconcileResult struct {
	AlreadyHandled bool
	CreditsGranted int
	Balance        int
}

// Reconciler turns at-least-once payment notifications into exactly-once credit
// grants. The payment row's unique idempotency key is the guard; the row and the
// grant commit together or not at all.
type Reconciler struct {
	tx                Transactor
	payments          PaymentStore
	ledger            *Ledger
	creditsPerPackage int
	logger            *zap.Logger
}

func NewReconciler(tx Transactor, payments PaymentStore, ledger *Ledger, creditsPerPackage int, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		tx:                tx,
		payments:          payments,
		ledger:            ledger,
		creditsPerPackage: creditsPerPackage,
		logger:            logger.Named("reconciler"),
	}
}

// HandleCheckoutCompleted records the payment and grants one credit package. A
// redelivered event reports AlreadyHandled and grants nothing. If the grant fails
// the payment row is rolled back too, so the processor's redelivery retries both.
func (r *Reconciler) HandleCheckoutCompleted(ctx context.Context, evt CheckoutCompleted) (*ReconcileResult, error) {
	if evt.SessionID == "" {
		return nil, invalidArgument("checkout session id is required")
	}
	if strings.TrimSpace(evt.UserID) == "" {
		return nil, invalidArgument("checkout session %s has no user id", evt.SessionID)
	}

	externalID := evt.PaymentIntentID
	if externalID == "" {
		externalID = evt.SessionID
	}
	record := &models.PaymentRecord{
		ID:                uuid.New(),
		UserID:            evt.UserID,
		ExternalPaymentID: externalID,
		AmountMinorUnits:  evt.AmountTotal,
		CreditsGranted:    r.creditsPerPackage,
		Status:            models.PaymentStatusSuccess,
		IdempotencyKey:    checkoutKeyPrefix + evt.SessionID,
	}

	log := r.logger.With(
		zap.String("user_id", evt.UserID),
		zap.String("session_id", evt.SessionID),
		zap.String("idempotency_key", record.IdempotencyKey))

	var balance int
	err := r.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := r.payments.InsertPayment(ctx, record); err != nil {
			return err
		}
		var err error
		balance, err = r.ledger.Credit(ctx, evt.UserID, r.creditsPerPackage, Entry{
			Reason:      models.CreditReasonPurchase,
			ReferenceID: record.IdempotencyKey,
		})
		if err != nil {
			log.Error("credit grant failed for recorded payment, rolling back for redelivery",
				zap.Int("credits", r.creditsPerPackage), zap.Error(err))
		}
		return err
	})
	if errors.Is(err, models.ErrDuplicateKey) {
		log.Info("payment already handled")
		return &ReconcileResult{AlreadyHandled: true}, nil
	}
	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		return nil, persistence("record payment", err)
	}

	log.Info("payment reconciled", zap.Int("credits", r.creditsPerPackage), zap.Int("balance", balance))
	return &ReconcileResult{CreditsGranted: r.creditsPerPackage, Balance: balance}, nil
}

// HandlePaymentFailed records the failure for history. It never touches the ledger.
func (r *Reconciler) HandlePaymentFailed(ctx context.Context, evt PaymentFailed) (*ReconcileResult, error) {
	if evt.PaymentIntentID == "" {
		return nil, invalidArgument("payment intent id is required")
	}
	userID := evt.UserID
	if strings.TrimSpace(userID) == "" {
		userID = unknownUserID
	}

	record := &models.PaymentRecord{
		ID:                uuid.New(),
		UserID:            userID,
		ExternalPaymentID: evt.PaymentIntentID,
		AmountMinorUnits:  evt.Amount,
		CreditsGranted:    0,
		Status:            models.PaymentStatusFailed,
		IdempotencyKey:    failedPaymentKeyPrefix + evt.PaymentIntentID,
	}

	err := r.payments.InsertPayment(ctx, record)
	if errors.Is(err, models.ErrDuplicateKey) {
		return &ReconcileResult{AlreadyHandled: true}, nil
	}
	if err != nil {
		return nil, persistence("record failed payment", err)
	}

	r.logger.Info("payment failure recorded",
		zap.String("user_id", userID),
		zap.String("payment_intent_id", evt.PaymentIntentID),
		zap.String("reason", evt.Reason))
	return &ReconcileResult{}, nil
}
