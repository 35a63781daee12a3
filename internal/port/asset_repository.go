package port

import (
	"context"

	"github.com/google/uuid"

	"arkival/internal/domain"
)

// AssetRepository defines the contract for canonical asset persistence.
type AssetRepository interface {
	Create(ctx context.Context, asset *domain.Asset) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Asset, error)
	// GetInCollection resolves an asset only if it currently belongs to the
	// given collection. Used by controlled-database reference resolution.
	GetInCollection(ctx context.Context, collectionID, assetID uuid.UUID) (*domain.Asset, error)
	ListByCollection(ctx context.Context, collectionID uuid.UUID, offset, limit int) ([]domain.Asset, int, error)
	UpdateMetadata(ctx context.Context, asset *domain.Asset) error
	Move(ctx context.Context, assetIDs []uuid.UUID, targetCollectionID uuid.UUID) error
	Delete(ctx context.Context, assetIDs []uuid.UUID) error
}

// MediaFileRepository defines the contract for media file persistence.
// Deleting an asset must detach (not delete) its media rows.
type MediaFileRepository interface {
	Create(ctx context.Context, media *domain.MediaFile) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.MediaFile, error)
	ListByAsset(ctx context.Context, assetID uuid.UUID) ([]domain.MediaFile, error)
}
