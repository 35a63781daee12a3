package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"arkival/internal/domain"
	"arkival/internal/service"
)

// CollectionHandler handles collection management endpoints.
type CollectionHandler struct {
	collectionService service.CollectionService
}

// NewCollectionHandler creates a new CollectionHandler.
func NewCollectionHandler(collectionService service.CollectionService) *CollectionHandler {
	return &CollectionHandler{collectionService: collectionService}
}

// Create handles POST /api/v1/collections
func (h *CollectionHandler) Create(c *gin.Context) {
	var req struct {
		Title  string                `json:"title" binding:"required"`
		Type   domain.CollectionType `json:"type" binding:"required"`
		Schema domain.Schema         `json:"schema"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "title and type are required")
		return
	}

	collection, err := h.collectionService.CreateCollection(c.Request.Context(), req.Title, req.Type, req.Schema)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, collection)
}

// List handles GET /api/v1/collections
func (h *CollectionHandler) List(c *gin.Context) {
	offset, limit := parsePagination(c)

	collections, total, err := h.collectionService.ListCollections(c.Request.Context(), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, collections, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// GetByID handles GET /api/v1/collections/:id
func (h *CollectionHandler) GetByID(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	collection, err := h.collectionService.GetCollection(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, collection)
}

// UpdateSchema handles PUT /api/v1/collections/:id/schema
func (h *CollectionHandler) UpdateSchema(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Schema domain.Schema `json:"schema" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "schema is required")
		return
	}

	collection, err := h.collectionService.UpdateCollectionSchema(c.Request.Context(), id, req.Schema)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, collection)
}

// Delete handles DELETE /api/v1/collections/:id
func (h *CollectionHandler) Delete(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.collectionService.DeleteCollection(c.Request.Context(), id); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": id})
}

func parsePagination(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return offset, limit
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid "+name+" parameter")
		return uuid.Nil, false
	}
	return id, true
}
