package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"arkival/internal/domain"
	"arkival/internal/port"
)

type ingestRepo struct {
	db *sqlx.DB
}

// NewIngestRepo creates a new PostgreSQL-backed IngestRepository.
func NewIngestRepo(db *sqlx.DB) port.IngestRepository {
	return &ingestRepo{db: db}
}

func (r *ingestRepo) CreateSession(ctx context.Context, s *domain.IngestSession) error {
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now

	query := `INSERT INTO import_sessions (id, base_path, target_collection_id, phase, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := q(ctx, r.db).ExecContext(ctx, query,
		s.ID, s.BasePath, s.TargetCollectionID, s.Phase, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("ingestRepo.CreateSession: %w", err)
	}
	return nil
}

func (r *ingestRepo) GetSession(ctx context.Context, id uuid.UUID) (*domain.IngestSession, error) {
	var s domain.IngestSession
	err := q(ctx, r.db).GetContext(ctx, &s,
		"SELECT * FROM import_sessions WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("ingestRepo.GetSession: %w", err)
	}
	return &s, nil
}

func (r *ingestRepo) ListSessions(ctx context.Context, offset, limit int) ([]domain.IngestSession, int, error) {
	var total int
	err := q(ctx, r.db).GetContext(ctx, &total, "SELECT COUNT(*) FROM import_sessions")
	if err != nil {
		return nil, 0, fmt.Errorf("ingestRepo.ListSessions count: %w", err)
	}

	var sessions []domain.IngestSession
	err = q(ctx, r.db).SelectContext(ctx, &sessions,
		"SELECT * FROM import_sessions ORDER BY created_at DESC LIMIT $1 OFFSET $2",
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("ingestRepo.ListSessions: %w", err)
	}
	return sessions, total, nil
}

func (r *ingestRepo) UpdateSessionPhase(ctx context.Context, id uuid.UUID, phase domain.SessionPhase) error {
	result, err := q(ctx, r.db).ExecContext(ctx,
		"UPDATE import_sessions SET phase = $1, updated_at = $2 WHERE id = $3",
		phase, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("ingestRepo.UpdateSessionPhase: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (r *ingestRepo) CreateAssetImport(ctx context.Context, imp *domain.AssetImport) error {
	now := time.Now().UTC()
	imp.CreatedAt = now
	imp.UpdatedAt = now

	query := `INSERT INTO asset_imports (id, session_id, path, metadata, access_control, phase, validation_errors, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := q(ctx, r.db).ExecContext(ctx, query,
		imp.ID, imp.SessionID, imp.Path, imp.Metadata, imp.AccessControl,
		imp.Phase, imp.ValidationErrors, imp.CreatedAt, imp.UpdatedAt)
	if err != nil {
		return fmt.Errorf("ingestRepo.CreateAssetImport: %w", err)
	}
	return nil
}

func (r *ingestRepo) GetAssetImport(ctx context.Context, sessionID, importID uuid.UUID) (*domain.AssetImport, error) {
	var imp domain.AssetImport
	err := q(ctx, r.db).GetContext(ctx, &imp,
		"SELECT * FROM asset_imports WHERE id = $1 AND session_id = $2", importID, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrImportNotFound
		}
		return nil, fmt.Errorf("ingestRepo.GetAssetImport: %w", err)
	}
	return &imp, nil
}

func (r *ingestRepo) ListAssetImports(ctx context.Context, sessionID uuid.UUID, offset, limit int) ([]domain.AssetImport, int, error) {
	var total int
	err := q(ctx, r.db).GetContext(ctx, &total,
		"SELECT COUNT(*) FROM asset_imports WHERE session_id = $1", sessionID)
	if err != nil {
		return nil, 0, fmt.Errorf("ingestRepo.ListAssetImports count: %w", err)
	}

	var imports []domain.AssetImport
	err = q(ctx, r.db).SelectContext(ctx, &imports,
		`SELECT * FROM asset_imports WHERE session_id = $1
		 ORDER BY path, id LIMIT $2 OFFSET $3`,
		sessionID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("ingestRepo.ListAssetImports: %w", err)
	}
	return imports, total, nil
}

func (r *ingestRepo) ListAllAssetImports(ctx context.Context, sessionID uuid.UUID) ([]domain.AssetImport, error) {
	var imports []domain.AssetImport
	err := q(ctx, r.db).SelectContext(ctx, &imports,
		"SELECT * FROM asset_imports WHERE session_id = $1 ORDER BY path, id", sessionID)
	if err != nil {
		return nil, fmt.Errorf("ingestRepo.ListAllAssetImports: %w", err)
	}
	return imports, nil
}

func (r *ingestRepo) UpdateAssetImport(ctx context.Context, imp *domain.AssetImport) error {
	imp.UpdatedAt = time.Now().UTC()
	result, err := q(ctx, r.db).ExecContext(ctx,
		`UPDATE asset_imports SET metadata = $1, access_control = $2, phase = $3, validation_errors = $4, updated_at = $5
		 WHERE id = $6`,
		imp.Metadata, imp.AccessControl, imp.Phase, imp.ValidationErrors, imp.UpdatedAt, imp.ID)
	if err != nil {
		return fmt.Errorf("ingestRepo.UpdateAssetImport: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrImportNotFound
	}
	return nil
}

func (r *ingestRepo) CountPending(ctx context.Context, sessionID uuid.UUID) (int, error) {
	var pending int
	err := q(ctx, r.db).GetContext(ctx, &pending,
		"SELECT COUNT(*) FROM asset_imports WHERE session_id = $1 AND phase <> $2",
		sessionID, domain.ImportPhaseCompleted)
	if err != nil {
		return 0, fmt.Errorf("ingestRepo.CountPending: %w", err)
	}
	return pending, nil
}

func (r *ingestRepo) DeleteAssetImports(ctx context.Context, sessionID uuid.UUID) error {
	_, err := q(ctx, r.db).ExecContext(ctx,
		"DELETE FROM asset_imports WHERE session_id = $1", sessionID)
	if err != nil {
		return fmt.Errorf("ingestRepo.DeleteAssetImports: %w", err)
	}
	return nil
}

func (r *ingestRepo) CreateFileImport(ctx context.Context, fi *domain.FileImport) error {
	fi.CreatedAt = time.Now().UTC()

	query := `INSERT INTO file_imports (id, asset_import_id, path, staging_path, sha256, mime_type, file_size, media_id, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := q(ctx, r.db).ExecContext(ctx, query,
		fi.ID, fi.AssetImportID, fi.Path, fi.StagingPath, fi.SHA256,
		fi.MimeType, fi.FileSize, fi.MediaID, fi.Error, fi.CreatedAt)
	if err != nil {
		return fmt.Errorf("ingestRepo.CreateFileImport: %w", err)
	}
	return nil
}

func (r *ingestRepo) ListFileImports(ctx context.Context, assetImportID uuid.UUID) ([]domain.FileImport, error) {
	var files []domain.FileImport
	err := q(ctx, r.db).SelectContext(ctx, &files,
		"SELECT * FROM file_imports WHERE asset_import_id = $1 ORDER BY path", assetImportID)
	if err != nil {
		return nil, fmt.Errorf("ingestRepo.ListFileImports: %w", err)
	}
	return files, nil
}

func (r *ingestRepo) CountFileErrors(ctx context.Context, assetImportID uuid.UUID) (int, error) {
	var count int
	err := q(ctx, r.db).GetContext(ctx, &count,
		"SELECT COUNT(*) FROM file_imports WHERE asset_import_id = $1 AND error IS NOT NULL",
		assetImportID)
	if err != nil {
		return 0, fmt.Errorf("ingestRepo.CountFileErrors: %w", err)
	}
	return count, nil
}
