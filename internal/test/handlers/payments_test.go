package handlers_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"layertext-backend/internal/handlers"
	"layertext-backend/internal/models"
)

func TestPayments_CreateCheckout(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/v1/payments/checkout", testUser, models.CheckoutRequest{CustomerEmail: "user@example.com"})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[models.CheckoutResponse](t, w)
	assert.Equal(t, "cs_test_123", resp.SessionID)
	assert.NotEmpty(t, resp.URL)
	assert.Equal(t, []string{testUser}, s.checkout.Users)
}

func TestPayments_CreateCheckoutWithoutBody(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/v1/payments/checkout", testUser, nil)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPayments_CreateCheckoutFailure(t *testing.T) {
	s := newTestServer(t)
	s.checkout.Err = errors.New("stripe: invalid api key")

	w := s.do(t, http.MethodPost, "/api/v1/payments/checkout", testUser, nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decode[models.ErrorResponse](t, w)
	assert.Equal(t, handlers.CodeInternal, resp.Code)
	assert.NotContains(t, w.Body.String(), "api key")
}

func TestPayments_ListEmpty(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/v1/payments", testUser, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"payments":[]}`, w.Body.String())
}
