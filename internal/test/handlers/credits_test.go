package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"layertext-backend/internal/handlers"
	"layertext-backend/internal/models"
)

func TestCredits_RequiresAuth(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/v1/credits", "", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCredits_GetProvisionsStartingBalance(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/v1/credits", testUser, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode[models.CreditsResponse](t, w)
	assert.Equal(t, testUser, resp.UserID)
	assert.Equal(t, startingCredits, resp.Credits)
}

func TestCredits_TopUp(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/v1/credits", testUser, models.AddCreditsRequest{Amount: 5})

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode[models.CreditsResponse](t, w)
	assert.Equal(t, startingCredits+5, resp.Credits)
	assert.Equal(t, 5, resp.Added)
}

func TestCredits_TopUpRejectsNonPositive(t *testing.T) {
	s := newTestServer(t)

	for _, amount := range []int{0, -3} {
		w := s.do(t, http.MethodPost, "/api/v1/credits", testUser, models.AddCreditsRequest{Amount: amount})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, handlers.CodeInvalidArgument, decode[models.ErrorResponse](t, w).Code)
	}
	_, exists := s.store.Credits(testUser)
	assert.False(t, exists)
}

func TestCredits_TopUpDisabled(t *testing.T) {
	s := newTestServer(t, withTopUpDisabled())

	w := s.do(t, http.MethodPost, "/api/v1/credits", testUser, models.AddCreditsRequest{Amount: 5})

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, handlers.CodeForbidden, decode[models.ErrorResponse](t, w).Code)
}

func TestCredits_Transactions(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/api/v1/credits", testUser, models.AddCreditsRequest{Amount: 5})

	w := s.do(t, http.MethodGet, "/api/v1/credits/transactions?limit=10", testUser, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode[models.CreditTransactionListResponse](t, w)
	if assert.Len(t, resp.Transactions, 2) {
		assert.Equal(t, models.CreditReasonTopUp, resp.Transactions[0].Reason)
		assert.Equal(t, startingCredits+5, resp.Transactions[0].BalanceAfter)
		assert.Equal(t, models.CreditReasonProvision, resp.Transactions[1].Reason)
	}
}
