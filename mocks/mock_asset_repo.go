package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"arkival/internal/domain"
)

// MockAssetRepo is a mock implementation of port.AssetRepository.
type MockAssetRepo struct {
	mock.Mock
}

func (m *MockAssetRepo) Create(ctx context.Context, asset *domain.Asset) error {
	args := m.Called(ctx, asset)
	return args.Error(0)
}

func (m *MockAssetRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Asset, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Asset), args.Error(1)
}

func (m *MockAssetRepo) GetInCollection(ctx context.Context, collectionID, assetID uuid.UUID) (*domain.Asset, error) {
	args := m.Called(ctx, collectionID, assetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Asset), args.Error(1)
}

func (m *MockAssetRepo) ListByCollection(ctx context.Context, collectionID uuid.UUID, offset, limit int) ([]domain.Asset, int, error) {
	args := m.Called(ctx, collectionID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Asset), args.Int(1), args.Error(2)
}

func (m *MockAssetRepo) UpdateMetadata(ctx context.Context, asset *domain.Asset) error {
	args := m.Called(ctx, asset)
	return args.Error(0)
}

func (m *MockAssetRepo) Move(ctx context.Context, assetIDs []uuid.UUID, targetCollectionID uuid.UUID) error {
	args := m.Called(ctx, assetIDs, targetCollectionID)
	return args.Error(0)
}

func (m *MockAssetRepo) Delete(ctx context.Context, assetIDs []uuid.UUID) error {
	args := m.Called(ctx, assetIDs)
	return args.Error(0)
}

// MockMediaFileRepo is a mock implementation of port.MediaFileRepository.
type MockMediaFileRepo struct {
	mock.Mock
}

func (m *MockMediaFileRepo) Create(ctx context.Context, media *domain.MediaFile) error {
	args := m.Called(ctx, media)
	return args.Error(0)
}

func (m *MockMediaFileRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.MediaFile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MediaFile), args.Error(1)
}

func (m *MockMediaFileRepo) ListByAsset(ctx context.Context, assetID uuid.UUID) ([]domain.MediaFile, error) {
	args := m.Called(ctx, assetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.MediaFile), args.Error(1)
}
