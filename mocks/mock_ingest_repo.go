package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"arkival/internal/domain"
)

// MockIngestRepo is a mock implementation of port.IngestRepository.
type MockIngestRepo struct {
	mock.Mock
}

func (m *MockIngestRepo) CreateSession(ctx context.Context, session *domain.IngestSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockIngestRepo) GetSession(ctx context.Context, id uuid.UUID) (*domain.IngestSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.IngestSession), args.Error(1)
}

func (m *MockIngestRepo) ListSessions(ctx context.Context, offset, limit int) ([]domain.IngestSession, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.IngestSession), args.Int(1), args.Error(2)
}

func (m *MockIngestRepo) UpdateSessionPhase(ctx context.Context, id uuid.UUID, phase domain.SessionPhase) error {
	args := m.Called(ctx, id, phase)
	return args.Error(0)
}

func (m *MockIngestRepo) CreateAssetImport(ctx context.Context, imp *domain.AssetImport) error {
	args := m.Called(ctx, imp)
	return args.Error(0)
}

func (m *MockIngestRepo) GetAssetImport(ctx context.Context, sessionID, importID uuid.UUID) (*domain.AssetImport, error) {
	args := m.Called(ctx, sessionID, importID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AssetImport), args.Error(1)
}

func (m *MockIngestRepo) ListAssetImports(ctx context.Context, sessionID uuid.UUID, offset, limit int) ([]domain.AssetImport, int, error) {
	args := m.Called(ctx, sessionID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.AssetImport), args.Int(1), args.Error(2)
}

func (m *MockIngestRepo) ListAllAssetImports(ctx context.Context, sessionID uuid.UUID) ([]domain.AssetImport, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AssetImport), args.Error(1)
}

func (m *MockIngestRepo) UpdateAssetImport(ctx context.Context, imp *domain.AssetImport) error {
	args := m.Called(ctx, imp)
	return args.Error(0)
}

func (m *MockIngestRepo) CountPending(ctx context.Context, sessionID uuid.UUID) (int, error) {
	args := m.Called(ctx, sessionID)
	return args.Int(0), args.Error(1)
}

func (m *MockIngestRepo) DeleteAssetImports(ctx context.Context, sessionID uuid.UUID) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *MockIngestRepo) CreateFileImport(ctx context.Context, fi *domain.FileImport) error {
	args := m.Called(ctx, fi)
	return args.Error(0)
}

func (m *MockIngestRepo) ListFileImports(ctx context.Context, assetImportID uuid.UUID) ([]domain.FileImport, error) {
	args := m.Called(ctx, assetImportID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FileImport), args.Error(1)
}

func (m *MockIngestRepo) CountFileErrors(ctx context.Context, assetImportID uuid.UUID) (int, error) {
	args := m.Called(ctx, assetImportID)
	return args.Int(0), args.Error(1)
}
