package service

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"arkival/internal/config"
	"arkival/internal/domain"
	"arkival/internal/port"
	"arkival/internal/schema"
)

// CollectionService manages collections and their schemas.
type CollectionService interface {
	CreateCollection(ctx context.Context, title string, colType domain.CollectionType, s domain.Schema) (*domain.Collection, error)
	GetCollection(ctx context.Context, id uuid.UUID) (*domain.Collection, error)
	ListCollections(ctx context.Context, offset, limit int) ([]domain.Collection, int, error)
	UpdateCollectionSchema(ctx context.Context, id uuid.UUID, s domain.Schema) (*domain.Collection, error)
	DeleteCollection(ctx context.Context, id uuid.UUID) error
}

type collectionService struct {
	collections port.CollectionRepository
	assets      port.AssetRepository
	resolver    port.ReferenceResolver
	cfg         config.GuardConfig
	resolverPar int64
}

// NewCollectionService creates a new CollectionService implementation.
func NewCollectionService(
	collections port.CollectionRepository,
	assets port.AssetRepository,
	resolver port.ReferenceResolver,
	cfg config.GuardConfig,
	resolverParallelism int64,
) CollectionService {
	return &collectionService{
		collections: collections,
		assets:      assets,
		resolver:    resolver,
		cfg:         cfg,
		resolverPar: resolverParallelism,
	}
}

func (s *collectionService) CreateCollection(ctx context.Context, title string, colType domain.CollectionType, sch domain.Schema) (*domain.Collection, error) {
	if title == "" {
		return nil, domain.NewFetchError("collection title must not be empty")
	}
	switch colType {
	case domain.CollectionTypeAssets, domain.CollectionTypeControlledDatabase:
	default:
		return nil, domain.NewFetchError("unknown collection type %q", colType)
	}
	if err := validateSchemaShape(ctx, s.collections, sch); err != nil {
		return nil, err
	}

	col := &domain.Collection{
		ID:     uuid.New(),
		Title:  title,
		Type:   colType,
		Schema: sch,
	}
	if err := s.collections.Create(ctx, col); err != nil {
		return nil, fmt.Errorf("collectionService.CreateCollection: %w", err)
	}
	log.Printf("collectionService: created %s collection %s (%q)", col.Type, col.ID, col.Title)
	return col, nil
}

func (s *collectionService) GetCollection(ctx context.Context, id uuid.UUID) (*domain.Collection, error) {
	return s.collections.GetByID(ctx, id)
}

func (s *collectionService) ListCollections(ctx context.Context, offset, limit int) ([]domain.Collection, int, error) {
	return s.collections.List(ctx, offset, limit)
}

// UpdateCollectionSchema replaces a collection's schema, but only if every
// existing asset in the collection still validates against the new schema.
// Failures come back aggregated per property so the caller sees the full
// damage report, and nothing is persisted unless the collection is clean.
func (s *collectionService) UpdateCollectionSchema(ctx context.Context, id uuid.UUID, sch domain.Schema) (*domain.Collection, error) {
	col, err := s.collections.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validateSchemaShape(ctx, s.collections, sch); err != nil {
		return nil, err
	}

	validator, err := schema.Compile(sch, schema.NewBatchResolver(s.resolver, s.resolverPar))
	if err != nil {
		return nil, err
	}

	if err := s.revalidateCollection(ctx, id, validator); err != nil {
		return nil, err
	}

	if err := s.collections.UpdateSchema(ctx, id, sch); err != nil {
		return nil, fmt.Errorf("collectionService.UpdateCollectionSchema: %w", err)
	}
	col.Schema = sch
	log.Printf("collectionService: updated schema of collection %s (%d properties)", id, len(sch))
	return col, nil
}

// revalidateCollection streams every asset in the collection through the
// validator with bounded fan-out, tallying failures per property.
func (s *collectionService) revalidateCollection(ctx context.Context, id uuid.UUID, validator *schema.Validator) error {
	pageSize := s.cfg.PageSize
	if pageSize < 1 {
		pageSize = 200
	}
	concurrency := int64(s.cfg.Concurrency)
	if concurrency < 1 {
		concurrency = 1
	}

	var (
		mu     sync.Mutex
		tally  = map[string]map[string]int{} // property id -> message -> count
		failed bool
	)

	g, gctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(concurrency)

	for offset := 0; ; offset += pageSize {
		page, total, err := s.assets.ListByCollection(ctx, id, offset, pageSize)
		if err != nil {
			return fmt.Errorf("collectionService.revalidateCollection: %w", err)
		}
		for i := range page {
			md := page[i].Metadata
			if err := sem.Acquire(gctx, 1); err != nil {
				break
			}
			g.Go(func() error {
				defer sem.Release(1)
				fields, err := validator.Validate(gctx, md)
				if err != nil {
					return err
				}
				if fields == nil {
					return nil
				}
				mu.Lock()
				defer mu.Unlock()
				failed = true
				for prop, msgs := range fields {
					if tally[prop] == nil {
						tally[prop] = map[string]int{}
					}
					for _, msg := range msgs {
						tally[prop][msg]++
					}
				}
				return nil
			})
		}
		if offset+len(page) >= total || len(page) == 0 {
			break
		}
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("collectionService.revalidateCollection: %w", err)
	}

	if !failed {
		return nil
	}
	agg := &domain.AggregatedValidationError{Fields: map[string][]domain.AggregatedFailure{}}
	for prop, msgs := range tally {
		for msg, count := range msgs {
			agg.Fields[prop] = append(agg.Fields[prop], domain.AggregatedFailure{Message: msg, Count: count})
		}
	}
	return agg
}

// DeleteCollection removes a collection and everything in it. It is blocked
// while any other collection's schema points at it as a controlled database,
// or while any outside asset references one of its records.
func (s *collectionService) DeleteCollection(ctx context.Context, id uuid.UUID) error {
	col, err := s.collections.GetByID(ctx, id)
	if err != nil {
		return err
	}

	all, err := s.collections.ListAll(ctx)
	for i := 0; err == nil && i < len(all); i++ {
		if all[i].ID == id {
			continue
		}
		for _, p := range all[i].Schema {
			if p.Type == domain.PropertyTypeControlledDatabase && p.DatabaseID != nil && *p.DatabaseID == id {
				return domain.NewFetchError("collection %q is referenced as a controlled database by collection %q", col.Title, all[i].Title)
			}
		}
	}
	if err != nil {
		return fmt.Errorf("collectionService.DeleteCollection: %w", err)
	}

	// References between the collection's own assets die with it; only
	// outside referencers block.
	candidates := map[uuid.UUID]uuid.UUID{}
	exclude := map[uuid.UUID]bool{}
	pageSize := s.cfg.PageSize
	if pageSize < 1 {
		pageSize = 200
	}
	for offset := 0; ; offset += pageSize {
		page, total, err := s.assets.ListByCollection(ctx, id, offset, pageSize)
		if err != nil {
			return fmt.Errorf("collectionService.DeleteCollection: %w", err)
		}
		for i := range page {
			candidates[page[i].ID] = id
			exclude[page[i].ID] = true
		}
		if offset+len(page) >= total || len(page) == 0 {
			break
		}
	}
	blocking, err := referentialScan(ctx, s.collections, s.assets, s.cfg, candidates, exclude)
	if err != nil {
		return err
	}
	if len(blocking) > 0 {
		return &domain.ReferentialIntegrityError{Blocking: blocking}
	}

	if err := s.collections.Delete(ctx, id); err != nil {
		return fmt.Errorf("collectionService.DeleteCollection: %w", err)
	}
	log.Printf("collectionService: deleted collection %s (%q)", id, col.Title)
	return nil
}
