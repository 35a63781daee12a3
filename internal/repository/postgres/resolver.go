package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"arkival/internal/domain"
	"arkival/internal/port"
)

type referenceResolver struct {
	assets port.AssetRepository
}

// NewReferenceResolver creates the database-backed ReferenceResolver:
// controlled-database records are assets of the referenced collection.
func NewReferenceResolver(assets port.AssetRepository) port.ReferenceResolver {
	return &referenceResolver{assets: assets}
}

func (r *referenceResolver) GetRecord(ctx context.Context, collectionID uuid.UUID, itemID string) (*domain.Asset, error) {
	id, err := uuid.Parse(itemID)
	if err != nil {
		// Not an id at all; the reference cannot resolve.
		return nil, nil
	}

	asset, err := r.assets.GetInCollection(ctx, collectionID, id)
	if err != nil {
		if errors.Is(err, domain.ErrAssetNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return asset, nil
}
