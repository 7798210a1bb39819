package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"layertext-backend/internal/models"
	"layertext-backend/internal/services"
)

type PaymentsHandler struct {
	payments *services.PaymentService
}

func NewPaymentsHandler(payments *services.PaymentService) *PaymentsHandler {
	return &PaymentsHandler{
		payments: payments,
	}
}

// CreateCheckout godoc
// @Summary     Start a credit purchase
// @Description Creates a Stripe Checkout session for one credit package. Credits are granted when Stripe confirms the payment.
// @Tags        payments
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.CheckoutRequest false "Optional customer email"
// @Success     200 {object} models.CheckoutResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /payments/checkout [post]
func (h *PaymentsHandler) CreateCheckout(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.CheckoutRequest
	// Body is optional.
	_ = c.ShouldBindJSON(&req)

	session, err := h.payments.CreateCheckout(c.Request.Context(), userID, req.CustomerEmail)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.CheckoutResponse{SessionID: session.ID, URL: session.URL})
}

// ListPayments godoc
// @Summary     Payment history
// @Description Lists the caller's recorded payments, newest first.
// @Tags        payments
// @Produce     json
// @Security    Bearer
// @Param       limit  query int false "Page size (default 20, max 100)"
// @Param       offset query int false "Offset"
// @Success     200 {object} models.PaymentListResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /payments [get]
func (h *PaymentsHandler) ListPayments(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	limit, offset := pagination(c)
	payments, err := h.payments.History(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := models.PaymentListResponse{Payments: make([]models.PaymentResponse, 0, len(payments))}
	for i := range payments {
		resp.Payments = append(resp.Payments, toPaymentResponse(&payments[i]))
	}
	c.JSON(http.StatusOK, resp)
}
