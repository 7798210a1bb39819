package services_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/sync/errgroup"
	"layertext-backend/internal/models"
	"layertext-backend/internal/services"
)

const creditsPerPackage = 400

func newReconciler(t *testing.T, h *harness) *services.Reconciler {
	return services.NewReconciler(h.store, h.store, h.ledger, creditsPerPackage, zaptest.NewLogger(t))
}

func checkoutEvent() services.CheckoutCompleted {
	return services.CheckoutCompleted{
		SessionID:       "cs_test_abc",
		UserID:          testUser,
		PaymentIntentID: "pi_123",
		AmountTotal:     800,
	}
}

func TestReconciler_CheckoutCompletedGrantsPackage(t *testing.T) {
	h := newHarness(t)
	r := newReconciler(t, h)
	h.store.SetCredits(testUser, 2)

	result, err := r.HandleCheckoutCompleted(context.Background(), checkoutEvent())
	require.NoError(t, err)

	assert.False(t, result.AlreadyHandled)
	assert.Equal(t, creditsPerPackage, result.CreditsGranted)
	assert.Equal(t, 402, result.Balance)

	payments := h.store.Payments()
	require.Len(t, payments, 1)
	assert.Equal(t, "stripe_cs_test_abc", payments[0].IdempotencyKey)
	assert.Equal(t, "pi_123", payments[0].ExternalPaymentID)
	assert.Equal(t, models.PaymentStatusSuccess, payments[0].Status)
	assert.Equal(t, int64(800), payments[0].AmountMinorUnits)

	txns := h.store.Transactions(testUser)
	require.Len(t, txns, 1)
	assert.Equal(t, models.CreditReasonPurchase, txns[0].Reason)
	assert.Equal(t, "stripe_cs_test_abc", txns[0].ReferenceID)
}

func TestReconciler_NewUserGetsStartingCreditsPlusPackage(t *testing.T) {
	h := newHarness(t)
	r := newReconciler(t, h)

	result, err := r.HandleCheckoutCompleted(context.Background(), checkoutEvent())
	require.NoError(t, err)
	assert.Equal(t, startingCredits+creditsPerPackage, result.Balance)
}

func TestReconciler_RedeliveryIsAlreadyHandled(t *testing.T) {
	h := newHarness(t)
	r := newReconciler(t, h)
	ctx := context.Background()
	h.store.SetCredits(testUser, 0)

	_, err := r.HandleCheckoutCompleted(ctx, checkoutEvent())
	require.NoError(t, err)

	result, err := r.HandleCheckoutCompleted(ctx, checkoutEvent())
	require.NoError(t, err)
	assert.True(t, result.AlreadyHandled)
	assert.Zero(t, result.CreditsGranted)

	credits, _ := h.store.Credits(testUser)
	assert.Equal(t, creditsPerPackage, credits)
	assert.Len(t, h.store.Payments(), 1)
}

func TestReconciler_ConcurrentRedeliveryGrantsOnce(t *testing.T) {
	h := newHarness(t)
	r := newReconciler(t, h)
	ctx := context.Background()
	h.store.SetCredits(testUser, 0)

	var granted, handled atomic.Int32
	var g errgroup.Group
	for i := 0; i < 10; i++ {
		g.Go(func() error {
			result, err := r.HandleCheckoutCompleted(ctx, checkoutEvent())
			if err != nil {
				return err
			}
			if result.AlreadyHandled {
				handled.Add(1)
			} else {
				granted.Add(1)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(1), granted.Load())
	assert.Equal(t, int32(9), handled.Load())
	credits, _ := h.store.Credits(testUser)
	assert.Equal(t, creditsPerPackage, credits)
}

func TestReconciler_CreditFailureRollsBackPayment(t *testing.T) {
	h := newHarness(t)
	r := newReconciler(t, h)
	ctx := context.Background()
	h.store.SetCredits(testUser, 1)
	h.store.FailIncrement = errors.New("connection reset")

	_, err := r.HandleCheckoutCompleted(ctx, checkoutEvent())
	assert.ErrorIs(t, err, services.ErrPersistence)
	assert.Empty(t, h.store.Payments())

	// Redelivery after recovery grants the package exactly once.
	h.store.FailIncrement = nil
	result, err := r.HandleCheckoutCompleted(ctx, checkoutEvent())
	require.NoError(t, err)
	assert.False(t, result.AlreadyHandled)
	assert.Equal(t, 1+creditsPerPackage, result.Balance)
}

func TestReconciler_CheckoutCompletedValidates(t *testing.T) {
	h := newHarness(t)
	r := newReconciler(t, h)
	ctx := context.Background()

	evt := checkoutEvent()
	evt.UserID = ""
	_, err := r.HandleCheckoutCompleted(ctx, evt)
	assert.ErrorIs(t, err, services.ErrInvalidArgument)

	evt = checkoutEvent()
	evt.SessionID = ""
	_, err = r.HandleCheckoutCompleted(ctx, evt)
	assert.ErrorIs(t, err, services.ErrInvalidArgument)

	assert.Empty(t, h.store.Payments())
}

func TestReconciler_MissingPaymentIntentFallsBackToSession(t *testing.T) {
	h := newHarness(t)
	r := newReconciler(t, h)
	evt := checkoutEvent()
	evt.PaymentIntentID = ""

	_, err := r.HandleCheckoutCompleted(context.Background(), evt)
	require.NoError(t, err)

	payments := h.store.Payments()
	require.Len(t, payments, 1)
	assert.Equal(t, "cs_test_abc", payments[0].ExternalPaymentID)
}

func TestReconciler_PaymentFailedRecordsWithoutCredit(t *testing.T) {
	h := newHarness(t)
	r := newReconciler(t, h)
	ctx := context.Background()
	evt := services.PaymentFailed{PaymentIntentID: "pi_failed", UserID: testUser, Amount: 800, Reason: "card declined"}

	result, err := r.HandlePaymentFailed(ctx, evt)
	require.NoError(t, err)
	assert.False(t, result.AlreadyHandled)

	payments := h.store.Payments()
	require.Len(t, payments, 1)
	assert.Equal(t, "failed_pi_failed", payments[0].IdempotencyKey)
	assert.Equal(t, models.PaymentStatusFailed, payments[0].Status)
	assert.Zero(t, payments[0].CreditsGranted)

	_, exists := h.store.Credits(testUser)
	assert.False(t, exists, "a failed payment must not touch the ledger")

	again, err := r.HandlePaymentFailed(ctx, evt)
	require.NoError(t, err)
	assert.True(t, again.AlreadyHandled)
}

func TestReconciler_PaymentFailedWithoutUser(t *testing.T) {
	h := newHarness(t)
	r := newReconciler(t, h)

	_, err := r.HandlePaymentFailed(context.Background(), services.PaymentFailed{PaymentIntentID: "pi_anon"})
	require.NoError(t, err)

	payments := h.store.Payments()
	require.Len(t, payments, 1)
	assert.Equal(t, "unknown", payments[0].UserID)
}
