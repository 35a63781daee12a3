package handler

import (
	"github.com/gin-gonic/gin"

	"arkival/internal/service"
)

// MediaHandler handles media file endpoints.
type MediaHandler struct {
	mediaService service.MediaService
}

// NewMediaHandler creates a new MediaHandler.
func NewMediaHandler(mediaService service.MediaService) *MediaHandler {
	return &MediaHandler{mediaService: mediaService}
}

// GetByID handles GET /api/v1/media/:id
func (h *MediaHandler) GetByID(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	mf, err := h.mediaService.GetMediaFile(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, mf)
}
