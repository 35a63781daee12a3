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

type collectionRepo struct {
	db *sqlx.DB
}

// NewCollectionRepo creates a new PostgreSQL-backed CollectionRepository.
func NewCollectionRepo(db *sqlx.DB) port.CollectionRepository {
	return &collectionRepo{db: db}
}

func (r *collectionRepo) Create(ctx context.Context, c *domain.Collection) error {
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	query := `INSERT INTO collections (id, title, type, schema, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := q(ctx, r.db).ExecContext(ctx, query,
		c.ID, c.Title, c.Type, c.Schema, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("collectionRepo.Create: %w", err)
	}
	return nil
}

func (r *collectionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Collection, error) {
	var c domain.Collection
	err := q(ctx, r.db).GetContext(ctx, &c,
		"SELECT * FROM collections WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCollectionNotFound
		}
		return nil, fmt.Errorf("collectionRepo.GetByID: %w", err)
	}
	return &c, nil
}

func (r *collectionRepo) List(ctx context.Context, offset, limit int) ([]domain.Collection, int, error) {
	var total int
	err := q(ctx, r.db).GetContext(ctx, &total, "SELECT COUNT(*) FROM collections")
	if err != nil {
		return nil, 0, fmt.Errorf("collectionRepo.List count: %w", err)
	}

	var collections []domain.Collection
	err = q(ctx, r.db).SelectContext(ctx, &collections,
		"SELECT * FROM collections ORDER BY created_at DESC LIMIT $1 OFFSET $2",
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("collectionRepo.List: %w", err)
	}
	return collections, total, nil
}

func (r *collectionRepo) ListAll(ctx context.Context) ([]domain.Collection, error) {
	var collections []domain.Collection
	err := q(ctx, r.db).SelectContext(ctx, &collections,
		"SELECT * FROM collections ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("collectionRepo.ListAll: %w", err)
	}
	return collections, nil
}

func (r *collectionRepo) UpdateSchema(ctx context.Context, id uuid.UUID, schema domain.Schema) error {
	result, err := q(ctx, r.db).ExecContext(ctx,
		"UPDATE collections SET schema = $1, updated_at = $2 WHERE id = $3",
		schema, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("collectionRepo.UpdateSchema: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrCollectionNotFound
	}
	return nil
}

func (r *collectionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := q(ctx, r.db).ExecContext(ctx,
		"DELETE FROM collections WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("collectionRepo.Delete: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrCollectionNotFound
	}
	return nil
}
