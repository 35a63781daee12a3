package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"arkival/internal/domain"
	"arkival/internal/service"
)

// AssetHandler handles canonical asset endpoints.
type AssetHandler struct {
	assetService service.AssetService
}

// NewAssetHandler creates a new AssetHandler.
func NewAssetHandler(assetService service.AssetService) *AssetHandler {
	return &AssetHandler{assetService: assetService}
}

// ListByCollection handles GET /api/v1/collections/:id/assets
func (h *AssetHandler) ListByCollection(c *gin.Context) {
	collectionID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	offset, limit := parsePagination(c)

	assets, total, err := h.assetService.ListAssets(c.Request.Context(), collectionID, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, assets, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// GetByID handles GET /api/v1/assets/:id
func (h *AssetHandler) GetByID(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	asset, err := h.assetService.GetAsset(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, asset)
}

// UpdateMetadata handles PUT /api/v1/assets/:id/metadata
func (h *AssetHandler) UpdateMetadata(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
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

	asset, err := h.assetService.UpdateAssetMetadata(c.Request.Context(), id, req.Metadata, req.AccessControl)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, asset)
}

type assetBatchRequest struct {
	AssetIDs []uuid.UUID `json:"asset_ids" binding:"required,min=1"`
}

// Delete handles POST /api/v1/assets/delete
func (h *AssetHandler) Delete(c *gin.Context) {
	var req assetBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "asset_ids is required")
		return
	}

	if err := h.assetService.DeleteAssets(c.Request.Context(), req.AssetIDs); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": req.AssetIDs})
}

type assetMoveRequest struct {
	AssetIDs           []uuid.UUID `json:"asset_ids" binding:"required,min=1"`
	TargetCollectionID uuid.UUID   `json:"target_collection_id" binding:"required"`
}

// Move handles POST /api/v1/assets/move
func (h *AssetHandler) Move(c *gin.Context) {
	var req assetMoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "asset_ids and target_collection_id are required")
		return
	}

	if err := h.assetService.MoveAssets(c.Request.Context(), req.AssetIDs, req.TargetCollectionID); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"moved": req.AssetIDs, "target_collection_id": req.TargetCollectionID})
}

// ValidateMove handles POST /api/v1/assets/validate-move
func (h *AssetHandler) ValidateMove(c *gin.Context) {
	var req assetMoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "asset_ids and target_collection_id are required")
		return
	}

	if err := h.assetService.ValidateMoveAssets(c.Request.Context(), req.AssetIDs, req.TargetCollectionID); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"valid": true})
}
