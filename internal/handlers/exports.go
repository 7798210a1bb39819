package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"layertext-backend/internal/models"
	"layertext-backend/internal/services"
)

const (
	defaultFontSize  = 80
	defaultFontColor = "#ffffff"
	defaultPosition  = 50
)

type ExportsHandler struct {
	storage *services.StorageService
}

func NewExportsHandler(storage *services.StorageService) *ExportsHandler {
	return &ExportsHandler{
		storage: storage,
	}
}

// CreateExport godoc
// @Summary     Save an export
// @Description Stores a rendered composite (PNG data URL) and the text layers used to make it.
// @Tags        exports
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.CreateExportRequest true "Rendered canvas and text layers"
// @Success     201 {object} models.ExportResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /exports [post]
func (h *ExportsHandler) CreateExport(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.CreateExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "canvas data is required",
			Code:    CodeInvalidArgument,
			Message: err.Error(),
		})
		return
	}

	export := services.NewExport{
		CanvasDataURL: req.CanvasDataURL,
		FontSize:      defaultFontSize,
		FontColor:     defaultFontColor,
		PositionX:     defaultPosition,
		PositionY:     defaultPosition,
	}
	if req.UploadID != "" {
		id, err := uuid.Parse(req.UploadID)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid upload id", Code: CodeInvalidArgument})
			return
		}
		export.UploadID = uuid.NullUUID{UUID: id, Valid: true}
	}

	// The first layer's styling is what gets recorded.
	if len(req.TextLayers) > 0 {
		texts := make([]string, 0, len(req.TextLayers))
		for _, layer := range req.TextLayers {
			texts = append(texts, layer.Text)
		}
		first := req.TextLayers[0]
		export.Text = strings.Join(texts, " | ")
		if first.FontSize > 0 {
			export.FontSize = first.FontSize
		}
		if first.Color != "" {
			export.FontColor = first.Color
		}
		if first.ShadowBlur > 0 {
			export.Shadow = fmt.Sprintf("blur:%d", first.ShadowBlur)
		}
		export.PositionX = first.X
		export.PositionY = first.Y
	}

	saved, err := h.storage.SaveExport(c.Request.Context(), userID, export)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toExportResponse(saved))
}

// ListExports godoc
// @Summary     Export history
// @Description Lists the caller's exports, newest first.
// @Tags        exports
// @Produce     json
// @Security    Bearer
// @Param       limit  query int false "Page size (default 20, max 100)"
// @Param       offset query int false "Offset"
// @Success     200 {object} models.ExportListResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /exports [get]
func (h *ExportsHandler) ListExports(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	limit, offset := pagination(c)
	exports, err := h.storage.ListExports(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := models.ExportListResponse{Exports: make([]models.ExportResponse, 0, len(exports))}
	for i := range exports {
		resp.Exports = append(resp.Exports, toExportResponse(&exports[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// GetStats godoc
// @Summary     Export statistics
// @Description Totals, this month's exports, credits spent and the last 7 days of export activity.
// @Tags        exports
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.ExportStatsResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /exports/stats [get]
func (h *ExportsHandler) GetStats(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	stats, err := h.storage.ExportStats(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toExportStatsResponse(stats))
}
