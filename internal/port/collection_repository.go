package port

import (
	"context"

	"github.com/google/uuid"

	"arkival/internal/domain"
)

// CollectionRepository defines the contract for collection persistence.
type CollectionRepository interface {
	Create(ctx context.Context, collection *domain.Collection) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Collection, error)
	List(ctx context.Context, offset, limit int) ([]domain.Collection, int, error)
	// ListAll returns every collection; used by referential-integrity scans,
	// which must inspect all controlled-database properties.
	ListAll(ctx context.Context) ([]domain.Collection, error)
	UpdateSchema(ctx context.Context, id uuid.UUID, schema domain.Schema) error
	Delete(ctx context.Context, id uuid.UUID) error
}
