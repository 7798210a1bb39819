package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"layertext-backend/internal/models"
	"layertext-backend/internal/services"
)

type CreditsHandler struct {
	ledger     *services.Ledger
	allowTopUp bool
}

func NewCreditsHandler(ledger *services.Ledger, allowTopUp bool) *CreditsHandler {
	return &CreditsHandler{
		ledger:     ledger,
		allowTopUp: allowTopUp,
	}
}

// GetCredits godoc
// @Summary     Get credit balance
// @Description Returns the caller's credit balance. First-time users are provisioned with the starting grant.
// @Tags        credits
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.CreditsResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /credits [get]
func (h *CreditsHandler) GetCredits(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	credits, err := h.ledger.GetBalance(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.CreditsResponse{UserID: userID, Credits: credits})
}

// AddCredits godoc
// @Summary     Add credits (test/admin)
// @Description Grants credits without payment verification. Disabled unless ALLOW_CREDIT_TOPUP is set.
// @Tags        credits
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.AddCreditsRequest true "Credits to add"
// @Success     200 {object} models.CreditsResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     403 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /credits [post]
func (h *CreditsHandler) AddCredits(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if !h.allowTopUp {
		c.JSON(http.StatusForbidden, models.ErrorResponse{
			Error: "credit top-up is disabled",
			Code:  CodeForbidden,
		})
		return
	}

	var req models.AddCreditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Code:    CodeInvalidArgument,
			Message: err.Error(),
		})
		return
	}
	if req.Amount <= 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "invalid amount, must be a positive number",
			Code:  CodeInvalidArgument,
		})
		return
	}

	credits, err := h.ledger.Credit(c.Request.Context(), userID, req.Amount, services.Entry{
		Reason: models.CreditReasonTopUp,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.CreditsResponse{UserID: userID, Credits: credits, Added: req.Amount})
}

// ListTransactions godoc
// @Summary     Credit history
// @Description Lists the caller's credit ledger entries, newest first.
// @Tags        credits
// @Produce     json
// @Security    Bearer
// @Param       limit  query int false "Page size (default 20, max 100)"
// @Param       offset query int false "Offset"
// @Success     200 {object} models.CreditTransactionListResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /credits/transactions [get]
func (h *CreditsHandler) ListTransactions(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	limit, offset := pagination(c)
	txns, err := h.ledger.Transactions(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := models.CreditTransactionListResponse{Transactions: make([]models.CreditTransactionResponse, 0, len(txns))}
	for i := range txns {
		resp.Transactions = append(resp.Transactions, toCreditTransactionResponse(&txns[i]))
	}
	c.JSON(http.StatusOK, resp)
}
