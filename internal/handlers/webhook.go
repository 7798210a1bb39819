package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	stripego "github.com/stripe/stripe-go/v81"
	"go.uber.org/zap"
	"layertext-backend/internal/models"
	"layertext-backend/internal/services"
	stripeclient "layertext-backend/internal/stripe"
)

const maxWebhookBodyBytes = 65536

type WebhookVerifier interface {
	VerifyWebhook(payload []byte, signature string) (*stripego.Event, error)
}

type WebhookHandler struct {
	verifier   WebhookVerifier
	reconciler *services.Reconciler
	logger     *zap.Logger
}

func NewWebhookHandler(verifier WebhookVerifier, reconciler *services.Reconciler, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		verifier:   verifier,
		reconciler: reconciler,
		logger:     logger.Named("webhook"),
	}
}

// HandleStripe godoc
// @Summary     Stripe webhook endpoint
// @Description Receives signed Stripe events. checkout.session.completed grants one credit package exactly once per session; payment_intent.payment_failed is recorded without credit. A 5xx asks Stripe to redeliver.
// @Tags        webhooks
// @Accept      json
// @Produce     json
// @Param       Stripe-Signature header string true "Stripe signature header"
// @Success     200 {object} models.WebhookResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /webhooks/stripe [post]
func (h *WebhookHandler) HandleStripe(c *gin.Context) {
	signature := c.GetHeader("Stripe-Signature")
	if signature == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "missing signature", Code: CodeInvalidArgument})
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "failed to read request body",
			Code:    CodeInvalidArgument,
			Message: err.Error(),
		})
		return
	}

	event, err := h.verifier.VerifyWebhook(body, signature)
	if err != nil {
		h.logger.Warn("webhook signature verification failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid signature", Code: CodeInvalidArgument})
		return
	}

	log := h.logger.With(zap.String("event_id", event.ID), zap.String("event_type", string(event.Type)))
	ctx := c.Request.Context()

	var result *services.ReconcileResult
	switch event.Type {
	case stripego.EventTypeCheckoutSessionCompleted:
		evt, err := stripeclient.CheckoutCompletedFromEvent(event)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "malformed checkout session", Code: CodeInvalidArgument})
			return
		}
		result, err = h.reconciler.HandleCheckoutCompleted(ctx, evt)
		if err != nil {
			respondError(c, err)
			return
		}

	case stripego.EventTypePaymentIntentPaymentFailed:
		evt, err := stripeclient.PaymentFailedFromEvent(event)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "malformed payment intent", Code: CodeInvalidArgument})
			return
		}
		result, err = h.reconciler.HandlePaymentFailed(ctx, evt)
		if err != nil {
			respondError(c, err)
			return
		}

	case stripego.EventTypeCheckoutSessionExpired:
		log.Info("checkout session expired")

	default:
		log.Debug("ignoring unhandled event type")
	}

	resp := models.WebhookResponse{Received: true}
	if result != nil {
		resp.AlreadyHandled = result.AlreadyHandled
	}
	c.JSON(http.StatusOK, resp)
}
