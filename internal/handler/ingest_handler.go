package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"arkival/internal/domain"
	"arkival/internal/service"
)

// IngestHandler handles bulk ingest session endpoints.
type IngestHandler struct {
	ingestService service.IngestService
}

// NewIngestHandler creates a new IngestHandler.
func NewIngestHandler(ingestService service.IngestService) *IngestHandler {
	return &IngestHandler{ingestService: ingestService}
}

// Start handles POST /api/v1/ingest
func (h *IngestHandler) Start(c *gin.Context) {
	var req struct {
		BasePath           string    `json:"base_path" binding:"required"`
		TargetCollectionID uuid.UUID `json:"target_collection_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "base_path and target_collection_id are required")
		return
	}

	session, err := h.ingestService.Start(c.Request.Context(), req.BasePath, req.TargetCollectionID)
	if err != nil {
		HandleError(c, err)
		return
	}
	// The scan keeps running after this response; poll the session for
	// phase transitions.
	RespondAccepted(c, session)
}

// List handles GET /api/v1/ingest
func (h *IngestHandler) List(c *gin.Context) {
	offset, limit := parsePagination(c)

	sessions, total, err := h.ingestService.List(c.Request.Context(), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, sessions, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// GetByID handles GET /api/v1/ingest/:id
func (h *IngestHandler) GetByID(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	session, err := h.ingestService.Get(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, session)
}

// ListAssets handles GET /api/v1/ingest/:id/assets
func (h *IngestHandler) ListAssets(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	offset, limit := parsePagination(c)

	imports, total, err := h.ingestService.ListAssets(c.Request.Context(), id, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, imports, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// UpdateMetadata handles PUT /api/v1/ingest/:id/assets/:importId
func (h *IngestHandler) UpdateMetadata(c *gin.Context) {
	sessionID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	importID, ok := parseUUIDParam(c, "importId")
	if !ok {
		return
	}

	var req struct {
		Metadata      domain.Metadata      `json:"metadata" binding:"required"`
		AccessControl domain.AccessControl `json:"access_control" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "metadata and access_control are required")
		return
	}

	imp, err := h.ingestService.UpdateMetadata(c.Request.Context(), sessionID, importID, req.Metadata, req.AccessControl)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, imp)
}

// Commit handles POST /api/v1/ingest/:id/commit
func (h *IngestHandler) Commit(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.ingestService.Commit(c.Request.Context(), id); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"committed": id})
}

// Cancel handles POST /api/v1/ingest/:id/cancel
func (h *IngestHandler) Cancel(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.ingestService.Cancel(c.Request.Context(), id); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"cancelled": id})
}
