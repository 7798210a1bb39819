package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"layertext-backend/internal/middleware"
	"layertext-backend/internal/models"
	"layertext-backend/internal/services"
)

const (
	CodeInvalidArgument     = "invalid_argument"
	CodeNotFound            = "not_found"
	CodeConflict            = "conflict"
	CodeInsufficientCredits = "insufficient_credits"
	CodeProcessingFailed    = "processing_failed"
	CodeForbidden           = "forbidden"
	CodeInternal            = "internal_error"
)

// respondError maps the service error taxonomy onto HTTP. Expected outcomes
// (conflict, insufficient credits) keep their message; server-side failures are
// recorded on the gin context for the request logger and never echoed.
func respondError(c *gin.Context, err error) {
	var failed *services.ProcessingFailedError
	switch {
	case errors.Is(err, services.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Code: CodeInvalidArgument, Message: err.Error()})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "not found", Code: CodeNotFound, Message: err.Error()})
	case errors.Is(err, services.ErrConflict), errors.Is(err, services.ErrAlreadyLocked):
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Error:   "image is already being processed",
			Code:    CodeConflict,
			Message: "retry after the current attempt finishes",
		})
	case errors.Is(err, services.ErrInsufficientCredits):
		c.JSON(http.StatusPaymentRequired, models.ErrorResponse{
			Error:   "insufficient credits",
			Code:    CodeInsufficientCredits,
			Message: "purchase more credits to continue",
		})
	case errors.As(err, &failed):
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, models.ErrorResponse{Error: "background removal failed", Code: CodeProcessingFailed, Message: failed.Reason})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "internal server error", Code: CodeInternal})
	}
}

func currentUser(c *gin.Context) (string, bool) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "user id not found", Code: "unauthorized"})
		return "", false
	}
	return userID, true
}

// pagination reads ?limit= and ?offset=. Bad values fall back to the service defaults.
func pagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.Query("limit"))
	offset, _ = strconv.Atoi(c.Query("offset"))
	return limit, offset
}
