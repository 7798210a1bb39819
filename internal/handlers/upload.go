package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"layertext-backend/internal/models"
	"layertext-backend/internal/services"
)

type UploadHandler struct {
	storage   *services.StorageService
	lifecycle *services.Lifecycle
}

func NewUploadHandler(storage *services.StorageService, lifecycle *services.Lifecycle) *UploadHandler {
	return &UploadHandler{
		storage:   storage,
		lifecycle: lifecycle,
	}
}

// Upload godoc
// @Summary     Upload an image
// @Description Stores a JPEG, PNG or WebP image (max 10MB) and creates a pending upload ready for background removal.
// @Tags        uploads
// @Accept      multipart/form-data
// @Produce     json
// @Security    Bearer
// @Param       file formData file true "Image file"
// @Success     201 {object} models.UploadResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /uploads [post]
func (h *UploadHandler) Upload(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, services.MaxUploadBytes+1<<20)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "no file uploaded",
			Code:    CodeInvalidArgument,
			Message: "provide the image in the \"file\" form field",
		})
		return
	}
	if fileHeader.Size > services.MaxUploadBytes {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "file too large, maximum size is 10MB",
			Code:  CodeInvalidArgument,
		})
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "failed to open file", Code: CodeInvalidArgument})
		return
	}
	data, err := io.ReadAll(src)
	src.Close()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "failed to read file", Code: CodeInvalidArgument})
		return
	}

	// Trust the bytes, not the client's header.
	contentType := http.DetectContentType(data)
	upload, err := h.storage.StoreUpload(c.Request.Context(), userID, services.NewUpload{
		Filename:    fileHeader.Filename,
		ContentType: contentType,
		Data:        data,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toUploadResponse(upload))
}

// ListUploads godoc
// @Summary     List uploads
// @Description Lists the caller's uploads, newest first.
// @Tags        uploads
// @Produce     json
// @Security    Bearer
// @Param       limit  query int false "Page size (default 20, max 100)"
// @Param       offset query int false "Offset"
// @Success     200 {object} models.UploadListResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /uploads [get]
func (h *UploadHandler) ListUploads(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	limit, offset := pagination(c)
	uploads, err := h.lifecycle.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := models.UploadListResponse{Uploads: make([]models.UploadResponse, 0, len(uploads))}
	for i := range uploads {
		resp.Uploads = append(resp.Uploads, toUploadResponse(&uploads[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// GetUpload godoc
// @Summary     Get an upload
// @Description Returns one of the caller's uploads with its processing status.
// @Tags        uploads
// @Produce     json
// @Security    Bearer
// @Param       upload_id path string true "Upload ID (UUID)"
// @Success     200 {object} models.UploadResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /uploads/{upload_id} [get]
func (h *UploadHandler) GetUpload(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	uploadID, err := uuid.Parse(c.Param("upload_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid upload id", Code: CodeInvalidArgument})
		return
	}

	upload, err := h.lifecycle.Get(c.Request.Context(), uploadID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toUploadResponse(upload))
}
