package port

import (
	"context"

	"github.com/google/uuid"

	"arkival/internal/domain"
)

// IngestRepository defines the contract for ingest session persistence:
// sessions and their owned asset and file import records.
type IngestRepository interface {
	CreateSession(ctx context.Context, session *domain.IngestSession) error
	GetSession(ctx context.Context, id uuid.UUID) (*domain.IngestSession, error)
	ListSessions(ctx context.Context, offset, limit int) ([]domain.IngestSession, int, error)
	UpdateSessionPhase(ctx context.Context, id uuid.UUID, phase domain.SessionPhase) error

	CreateAssetImport(ctx context.Context, imp *domain.AssetImport) error
	GetAssetImport(ctx context.Context, sessionID, importID uuid.UUID) (*domain.AssetImport, error)
	ListAssetImports(ctx context.Context, sessionID uuid.UUID, offset, limit int) ([]domain.AssetImport, int, error)
	// ListAllAssetImports returns every import of a session; commit promotes
	// them all inside one transaction.
	ListAllAssetImports(ctx context.Context, sessionID uuid.UUID) ([]domain.AssetImport, error)
	UpdateAssetImport(ctx context.Context, imp *domain.AssetImport) error
	// CountPending returns how many asset imports are not yet in the
	// completed phase.
	CountPending(ctx context.Context, sessionID uuid.UUID) (int, error)
	// DeleteAssetImports removes a session's import tree (file imports
	// cascade) while leaving the session row in place.
	DeleteAssetImports(ctx context.Context, sessionID uuid.UUID) error

	CreateFileImport(ctx context.Context, fi *domain.FileImport) error
	ListFileImports(ctx context.Context, assetImportID uuid.UUID) ([]domain.FileImport, error)
	// CountFileErrors returns how many of an asset import's files failed.
	CountFileErrors(ctx context.Context, assetImportID uuid.UUID) (int, error)
}
