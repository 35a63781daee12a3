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

type mediaFileRepo struct {
	db *sqlx.DB
}

// NewMediaFileRepo creates a new PostgreSQL-backed MediaFileRepository.
func NewMediaFileRepo(db *sqlx.DB) port.MediaFileRepository {
	return &mediaFileRepo{db: db}
}

func (r *mediaFileRepo) Create(ctx context.Context, m *domain.MediaFile) error {
	m.CreatedAt = time.Now().UTC()

	query := `INSERT INTO media_files (id, sha256, mime_type, file_size, asset_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := q(ctx, r.db).ExecContext(ctx, query,
		m.ID, m.SHA256, m.MimeType, m.FileSize, m.AssetID, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("mediaFileRepo.Create: %w", err)
	}
	return nil
}

func (r *mediaFileRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.MediaFile, error) {
	var m domain.MediaFile
	err := q(ctx, r.db).GetContext(ctx, &m,
		"SELECT * FROM media_files WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMediaNotFound
		}
		return nil, fmt.Errorf("mediaFileRepo.GetByID: %w", err)
	}
	return &m, nil
}

func (r *mediaFileRepo) ListByAsset(ctx context.Context, assetID uuid.UUID) ([]domain.MediaFile, error) {
	var media []domain.MediaFile
	err := q(ctx, r.db).SelectContext(ctx, &media,
		"SELECT * FROM media_files WHERE asset_id = $1 ORDER BY created_at", assetID)
	if err != nil {
		return nil, fmt.Errorf("mediaFileRepo.ListByAsset: %w", err)
	}
	return media, nil
}
