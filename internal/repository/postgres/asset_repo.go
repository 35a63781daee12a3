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

type assetRepo struct {
	db *sqlx.DB
}

// NewAssetRepo creates a new PostgreSQL-backed AssetRepository.
func NewAssetRepo(db *sqlx.DB) port.AssetRepository {
	return &assetRepo{db: db}
}

func (r *assetRepo) Create(ctx context.Context, a *domain.Asset) error {
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	query := `INSERT INTO assets (id, collection_id, title, metadata, access_control, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := q(ctx, r.db).ExecContext(ctx, query,
		a.ID, a.CollectionID, a.Title, a.Metadata, a.AccessControl, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("assetRepo.Create: %w", err)
	}
	return nil
}

func (r *assetRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Asset, error) {
	var a domain.Asset
	err := q(ctx, r.db).GetContext(ctx, &a,
		"SELECT * FROM assets WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAssetNotFound
		}
		return nil, fmt.Errorf("assetRepo.GetByID: %w", err)
	}
	return &a, nil
}

func (r *assetRepo) GetInCollection(ctx context.Context, collectionID, assetID uuid.UUID) (*domain.Asset, error) {
	var a domain.Asset
	err := q(ctx, r.db).GetContext(ctx, &a,
		"SELECT * FROM assets WHERE id = $1 AND collection_id = $2", assetID, collectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAssetNotFound
		}
		return nil, fmt.Errorf("assetRepo.GetInCollection: %w", err)
	}
	return &a, nil
}

func (r *assetRepo) ListByCollection(ctx context.Context, collectionID uuid.UUID, offset, limit int) ([]domain.Asset, int, error) {
	var total int
	err := q(ctx, r.db).GetContext(ctx, &total,
		"SELECT COUNT(*) FROM assets WHERE collection_id = $1", collectionID)
	if err != nil {
		return nil, 0, fmt.Errorf("assetRepo.ListByCollection count: %w", err)
	}

	var assets []domain.Asset
	err = q(ctx, r.db).SelectContext(ctx, &assets,
		`SELECT * FROM assets WHERE collection_id = $1
		 ORDER BY created_at, id LIMIT $2 OFFSET $3`,
		collectionID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("assetRepo.ListByCollection: %w", err)
	}
	return assets, total, nil
}

func (r *assetRepo) UpdateMetadata(ctx context.Context, a *domain.Asset) error {
	a.UpdatedAt = time.Now().UTC()
	result, err := q(ctx, r.db).ExecContext(ctx,
		`UPDATE assets SET title = $1, metadata = $2, access_control = $3, updated_at = $4
		 WHERE id = $5`,
		a.Title, a.Metadata, a.AccessControl, a.UpdatedAt, a.ID)
	if err != nil {
		return fmt.Errorf("assetRepo.UpdateMetadata: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrAssetNotFound
	}
	return nil
}

func (r *assetRepo) Move(ctx context.Context, assetIDs []uuid.UUID, targetCollectionID uuid.UUID) error {
	if len(assetIDs) == 0 {
		return nil
	}
	query, args, err := sqlx.In(
		"UPDATE assets SET collection_id = ?, updated_at = ? WHERE id IN (?)",
		targetCollectionID, time.Now().UTC(), assetIDs)
	if err != nil {
		return fmt.Errorf("assetRepo.Move: %w", err)
	}

	run := q(ctx, r.db)
	result, err := run.ExecContext(ctx, run.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("assetRepo.Move: %w", err)
	}
	rows, _ := result.RowsAffected()
	if int(rows) != len(assetIDs) {
		return domain.ErrAssetNotFound
	}
	return nil
}

func (r *assetRepo) Delete(ctx context.Context, assetIDs []uuid.UUID) error {
	if len(assetIDs) == 0 {
		return nil
	}
	query, args, err := sqlx.In("DELETE FROM assets WHERE id IN (?)", assetIDs)
	if err != nil {
		return fmt.Errorf("assetRepo.Delete: %w", err)
	}

	run := q(ctx, r.db)
	result, err := run.ExecContext(ctx, run.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("assetRepo.Delete: %w", err)
	}
	rows, _ := result.RowsAffected()
	if int(rows) != len(assetIDs) {
		return domain.ErrAssetNotFound
	}
	return nil
}
