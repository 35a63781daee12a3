package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"arkival/internal/domain"
)

// MockReferenceResolver is a mock implementation of port.ReferenceResolver.
type MockReferenceResolver struct {
	mock.Mock
}

func (m *MockReferenceResolver) GetRecord(ctx context.Context, collectionID uuid.UUID, itemID string) (*domain.Asset, error) {
	args := m.Called(ctx, collectionID, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Asset), args.Error(1)
}
