package port

import (
	"context"

	"github.com/google/uuid"

	"arkival/internal/domain"
)

// ReferenceResolver looks up a record of a controlled database by id. A
// missing record is (nil, nil), not an error: only infrastructure failures
// return a non-nil error. Implementations must be side-effect free.
type ReferenceResolver interface {
	GetRecord(ctx context.Context, collectionID uuid.UUID, itemID string) (*domain.Asset, error)
}
