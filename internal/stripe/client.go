package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"github.com/stripe/stripe-go/v81/webhook"
	"layertext-backend/internal/services"
)

const checkoutExpiry = 30 * time.Minute

// Config is the single credit package sold through Checkout.
type Config struct {
	SecretKey         string
	WebhookSecret     string
	PriceID           string
	AppURL            string
	CreditsPerPackage int
}

// Client wraps a per-instance Stripe API client; it never touches the stripe.Key global.
type Client struct {
	api *client.API
	cfg Config
}

func NewClient(cfg Config) *Client {
	return &Client{
		api: client.New(cfg.SecretKey, nil),
		cfg: cfg,
	}
}

// CreateCheckoutSession starts a one-off payment for one credit package. The user
// id travels as client_reference_id and metadata so the webhook can find it.
func (c *Client) CreateCheckoutSession(ctx context.Context, userID, customerEmail string) (string, string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(c.cfg.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:        stripe.String(c.cfg.AppURL + "/dashboard?payment=success&session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:         stripe.String(c.cfg.AppURL + "/dashboard?payment=cancelled"),
		ClientReferenceID: stripe.String(userID),
		ExpiresAt:         stripe.Int64(time.Now().Add(checkoutExpiry).Unix()),
		Metadata: map[string]string{
			"userId":  userID,
			"credits": strconv.Itoa(c.cfg.CreditsPerPackage),
		},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: map[string]string{
				"userId": userID,
			},
		},
	}
	if customerEmail != "" {
		params.CustomerEmail = stripe.String(customerEmail)
	}
	params.Context = ctx

	sess, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return "", "", fmt.Errorf("failed to create checkout session: %w", err)
	}
	return sess.ID, sess.URL, nil
}

// VerifyWebhook checks the Stripe-Signature header against the endpoint secret.
func (c *Client) VerifyWebhook(payload []byte, signature string) (*stripe.Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, c.cfg.WebhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to verify webhook: %w", err)
	}
	return &event, nil
}

// CheckoutCompletedFromEvent extracts the reconciler input from a
// checkout.session.completed event. The user id comes from client_reference_id,
// falling back to metadata.
func CheckoutCompletedFromEvent(event *stripe.Event) (services.CheckoutCompleted, error) {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return services.CheckoutCompleted{}, fmt.Errorf("failed to decode checkout session: %w", err)
	}

	userID := sess.ClientReferenceID
	if userID == "" && sess.Metadata != nil {
		userID = sess.Metadata["userId"]
	}
	evt := services.CheckoutCompleted{
		SessionID:   sess.ID,
		UserID:      userID,
		AmountTotal: sess.AmountTotal,
	}
	if sess.PaymentIntent != nil {
		evt.PaymentIntentID = sess.PaymentIntent.ID
	}
	return evt, nil
}

func PaymentFailedFromEvent(event *stripe.Event) (services.PaymentFailed, error) {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return services.PaymentFailed{}, fmt.Errorf("failed to decode payment intent: %w", err)
	}

	evt := services.PaymentFailed{
		PaymentIntentID: pi.ID,
		Amount:          pi.Amount,
	}
	if pi.Metadata != nil {
		evt.UserID = pi.Metadata["userId"]
	}
	if pi.LastPaymentError != nil {
		evt.Reason = pi.LastPaymentError.Msg
	}
	return evt, nil
}
