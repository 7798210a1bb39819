package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"layertext-backend/internal/models"
	"layertext-backend/internal/services"
)

type ProcessHandler struct {
	processor *services.Processor
}

func NewProcessHandler(processor *services.Processor) *ProcessHandler {
	return &ProcessHandler{
		processor: processor,
	}
}

// Process godoc
// @Summary     Remove the background of an upload
// @Description Spends one credit to run background removal on a pending upload.
// @Description
// @Description - A completed upload returns its existing result without charging again.
// @Description - 409 means another attempt is in flight; poll GET /uploads/{upload_id} and retry.
// @Description - 402 means the caller has no credits left.
// @Description - 502 means the AI service failed; the upload is pending again and can be retried.
// @Tags        processing
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       upload_id path string true "Upload ID (UUID)"
// @Success     200 {object} models.ProcessResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     402 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Failure     502 {object} models.ErrorResponse
// @Router      /uploads/{upload_id}/process [post]
func (h *ProcessHandler) Process(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	rawID := c.Param("upload_id")
	if rawID == "" {
		var req models.ProcessRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.UploadID == "" {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "upload id is required", Code: CodeInvalidArgument})
			return
		}
		rawID = req.UploadID
	}
	uploadID, err := uuid.Parse(rawID)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid upload id", Code: CodeInvalidArgument})
		return
	}

	result, err := h.processor.ProcessUpload(c.Request.Context(), uploadID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ProcessResponse{
		Upload:            toUploadResponse(result.Upload),
		ProcessedImageURL: result.ProcessedImageURL,
		CreditsRemaining:  result.RemainingCredits,
		AlreadyProcessed:  result.AlreadyProcessed,
	})
}
