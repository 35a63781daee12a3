package service

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"arkival/internal/config"
	"arkival/internal/domain"
	"arkival/internal/port"
	"arkival/internal/schema"
)

// AssetService manages canonical assets after ingest.
type AssetService interface {
	GetAsset(ctx context.Context, id uuid.UUID) (*domain.Asset, error)
	ListAssets(ctx context.Context, collectionID uuid.UUID, offset, limit int) ([]domain.Asset, int, error)
	UpdateAssetMetadata(ctx context.Context, id uuid.UUID, md domain.Metadata, access domain.AccessControl) (*domain.Asset, error)
	DeleteAssets(ctx context.Context, ids []uuid.UUID) error
	MoveAssets(ctx context.Context, ids []uuid.UUID, targetCollectionID uuid.UUID) error
	// ValidateMoveAssets is the dry run of MoveAssets: it reports every
	// problem a move would hit without changing anything.
	ValidateMoveAssets(ctx context.Context, ids []uuid.UUID, targetCollectionID uuid.UUID) error
}

type assetService struct {
	collections port.CollectionRepository
	assets      port.AssetRepository
	media       port.MediaFileRepository
	resolver    port.ReferenceResolver
	tx          port.Transactor
	cfg         config.GuardConfig
	resolverPar int64
}

// NewAssetService creates a new AssetService implementation.
func NewAssetService(
	collections port.CollectionRepository,
	assets port.AssetRepository,
	media port.MediaFileRepository,
	resolver port.ReferenceResolver,
	tx port.Transactor,
	cfg config.GuardConfig,
	resolverParallelism int64,
) AssetService {
	return &assetService{
		collections: collections,
		assets:      assets,
		media:       media,
		resolver:    resolver,
		tx:          tx,
		cfg:         cfg,
		resolverPar: resolverParallelism,
	}
}

func (s *assetService) GetAsset(ctx context.Context, id uuid.UUID) (*domain.Asset, error) {
	asset, err := s.assets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	asset.Media, err = s.media.ListByAsset(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("assetService.GetAsset: %w", err)
	}
	return asset, nil
}

func (s *assetService) ListAssets(ctx context.Context, collectionID uuid.UUID, offset, limit int) ([]domain.Asset, int, error) {
	if _, err := s.collections.GetByID(ctx, collectionID); err != nil {
		return nil, 0, err
	}
	return s.assets.ListByCollection(ctx, collectionID, offset, limit)
}

// UpdateAssetMetadata replaces an asset's metadata and access control. The
// new metadata must validate against the owning collection's schema; the
// stored title and presentation labels are re-derived from the new values.
func (s *assetService) UpdateAssetMetadata(ctx context.Context, id uuid.UUID, md domain.Metadata, access domain.AccessControl) (*domain.Asset, error) {
	switch access {
	case domain.AccessControlPublic, domain.AccessControlRestricted:
	default:
		return nil, domain.ErrInvalidAccessControl
	}

	asset, err := s.assets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	col, err := s.collections.GetByID(ctx, asset.CollectionID)
	if err != nil {
		return nil, err
	}

	resolver := schema.NewBatchResolver(s.resolver, s.resolverPar)
	validator, err := schema.Compile(col.Schema, resolver)
	if err != nil {
		return nil, err
	}
	fields, err := validator.Validate(ctx, md)
	if err != nil {
		return nil, fmt.Errorf("assetService.UpdateAssetMetadata: %w", err)
	}
	if fields != nil {
		return nil, &domain.ValidationError{Fields: fields}
	}

	asset.Metadata, err = schema.BuildPresentation(ctx, col.Schema, md, resolver)
	if err != nil {
		return nil, fmt.Errorf("assetService.UpdateAssetMetadata: %w", err)
	}
	asset.Title = schema.DisplayTitle(col.Schema, asset.Metadata)
	asset.AccessControl = access

	if err := s.assets.UpdateMetadata(ctx, asset); err != nil {
		return nil, fmt.Errorf("assetService.UpdateAssetMetadata: %w", err)
	}
	return asset, nil
}

// DeleteAssets removes a batch of assets, detaching their media. The whole
// batch is rejected if any asset outside the batch still references one of
// its members.
func (s *assetService) DeleteAssets(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	candidates, err := s.resolveCandidates(ctx, ids)
	if err != nil {
		return err
	}

	exclude := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		exclude[id] = true
	}
	blocking, err := referentialScan(ctx, s.collections, s.assets, s.cfg, candidates, exclude)
	if err != nil {
		return err
	}
	if len(blocking) > 0 {
		return &domain.ReferentialIntegrityError{Blocking: blocking}
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		return s.assets.Delete(ctx, ids)
	})
	if err != nil {
		return fmt.Errorf("assetService.DeleteAssets: %w", err)
	}
	log.Printf("assetService: deleted %d asset(s)", len(ids))
	return nil
}

func (s *assetService) MoveAssets(ctx context.Context, ids []uuid.UUID, targetCollectionID uuid.UUID) error {
	if err := s.ValidateMoveAssets(ctx, ids, targetCollectionID); err != nil {
		return err
	}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		return s.assets.Move(ctx, ids, targetCollectionID)
	})
	if err != nil {
		return fmt.Errorf("assetService.MoveAssets: %w", err)
	}
	log.Printf("assetService: moved %d asset(s) to collection %s", len(ids), targetCollectionID)
	return nil
}

// ValidateMoveAssets checks a move on two fronts: every asset must validate
// against the target collection's schema, and no asset left behind may still
// reference a moved one through its old collection.
func (s *assetService) ValidateMoveAssets(ctx context.Context, ids []uuid.UUID, targetCollectionID uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	target, err := s.collections.GetByID(ctx, targetCollectionID)
	if err != nil {
		return err
	}

	candidates, err := s.resolveCandidates(ctx, ids)
	if err != nil {
		return err
	}
	moving := make([]*domain.Asset, 0, len(ids))
	for _, id := range ids {
		asset, err := s.assets.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if asset.CollectionID == targetCollectionID {
			return domain.NewFetchError("asset %s is already in collection %s", id, targetCollectionID)
		}
		moving = append(moving, asset)
	}

	validator, err := schema.Compile(target.Schema, schema.NewBatchResolver(s.resolver, s.resolverPar))
	if err != nil {
		return err
	}
	tally := map[string]map[string]int{}
	for _, asset := range moving {
		fields, err := validator.Validate(ctx, asset.Metadata)
		if err != nil {
			return fmt.Errorf("assetService.ValidateMoveAssets: %w", err)
		}
		for prop, msgs := range fields {
			if tally[prop] == nil {
				tally[prop] = map[string]int{}
			}
			for _, msg := range msgs {
				tally[prop][msg]++
			}
		}
	}
	if len(tally) > 0 {
		agg := &domain.AggregatedValidationError{Fields: map[string][]domain.AggregatedFailure{}}
		for prop, msgs := range tally {
			for msg, count := range msgs {
				agg.Fields[prop] = append(agg.Fields[prop], domain.AggregatedFailure{Message: msg, Count: count})
			}
		}
		return agg
	}

	// A reference bound to the source collection breaks the moment its
	// record leaves, no matter who holds it.
	blocking, err := referentialScan(ctx, s.collections, s.assets, s.cfg, candidates, nil)
	if err != nil {
		return err
	}
	if len(blocking) > 0 {
		return &domain.ReferentialIntegrityError{Blocking: blocking}
	}
	return nil
}

// resolveCandidates maps each asset ID to its current collection, failing on
// the first unknown asset.
func (s *assetService) resolveCandidates(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]uuid.UUID, error) {
	candidates := make(map[uuid.UUID]uuid.UUID, len(ids))
	for _, id := range ids {
		asset, err := s.assets.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		candidates[asset.ID] = asset.CollectionID
	}
	return candidates, nil
}
