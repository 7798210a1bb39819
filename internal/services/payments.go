package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"layertext-backend/internal/models"
)

// PaymentService starts checkouts and reads payment history. Crediting happens only
// in Reconciler, from verified notifications.
type PaymentService struct {
	checkout CheckoutCreator
	payments PaymentStore
	logger   *zap.Logger
}

type CheckoutSession struct {
	ID  string
	URL string
}

func NewPaymentService(checkout CheckoutCreator, payments PaymentStore, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		checkout: checkout,
		payments: payments,
		logger:   logger.Named("payments"),
	}
}

func (s *PaymentService) CreateCheckout(ctx context.Context, userID, customerEmail string) (*CheckoutSession, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	id, url, err := s.checkout.CreateCheckoutSession(ctx, userID, customerEmail)
	if err != nil {
		s.logger.Error("failed to create checkout session", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	s.logger.Info("checkout session created", zap.String("user_id", userID), zap.String("session_id", id))
	return &CheckoutSession{ID: id, URL: url}, nil
}

func (s *PaymentService) History(ctx context.Context, userID string, limit, offset int) ([]models.PaymentRecord, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	payments, err := s.payments.ListPayments(ctx, userID, clampLimit(limit), max(offset, 0))
	if err != nil {
		return nil, persistence("list payments", err)
	}
	return payments, nil
}
