package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"arkival/internal/config"
	"arkival/internal/domain"
	"arkival/internal/port"
	"arkival/internal/schema"
)

// referentialScan finds every metadata value anywhere in the catalog that
// references one of the candidate assets through a controlled-database
// property bound to that asset's current collection. candidates maps asset ID
// to the collection it currently lives in. Referencing assets listed in
// excludeReferencers are skipped (a batch delete must not block on references
// between its own members).
func referentialScan(
	ctx context.Context,
	collections port.CollectionRepository,
	assets port.AssetRepository,
	cfg config.GuardConfig,
	candidates map[uuid.UUID]uuid.UUID,
	excludeReferencers map[uuid.UUID]bool,
) ([]domain.BlockingReference, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	// Only collections that are a reference target of some candidate matter.
	targets := make(map[uuid.UUID]bool, len(candidates))
	for _, colID := range candidates {
		targets[colID] = true
	}

	all, err := collections.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("referentialScan: %w", err)
	}

	pageSize := cfg.PageSize
	if pageSize < 1 {
		pageSize = 200
	}

	var blocking []domain.BlockingReference
	for i := range all {
		col := all[i]

		// Properties in this collection's schema that point at a target.
		var props []domain.SchemaProperty
		for _, p := range col.Schema {
			if p.Type == domain.PropertyTypeControlledDatabase && p.DatabaseID != nil && targets[*p.DatabaseID] {
				props = append(props, p)
			}
		}
		if len(props) == 0 {
			continue
		}

		for offset := 0; ; offset += pageSize {
			page, total, err := assets.ListByCollection(ctx, col.ID, offset, pageSize)
			if err != nil {
				return nil, fmt.Errorf("referentialScan: collection %s: %w", col.ID, err)
			}
			for j := range page {
				a := page[j]
				if excludeReferencers[a.ID] {
					continue
				}
				for _, p := range props {
					item, ok := a.Metadata[p.ID]
					if !ok {
						continue
					}
					for _, v := range item.RawValue {
						str, ok := v.(string)
						if !ok {
							continue
						}
						refID, err := uuid.Parse(str)
						if err != nil {
							continue
						}
						colID, isCandidate := candidates[refID]
						if isCandidate && colID == *p.DatabaseID {
							blocking = append(blocking, domain.BlockingReference{
								AssetID:          a.ID,
								AssetTitle:       a.Title,
								CollectionID:     col.ID,
								CollectionTitle:  col.Title,
								PropertyID:       p.ID,
								PropertyLabel:    p.Label,
								ReferencedItemID: refID,
							})
						}
					}
				}
			}
			if offset+len(page) >= total || len(page) == 0 {
				break
			}
		}
	}
	return blocking, nil
}

// validateSchemaShape checks a schema's structural rules before any record
// revalidation happens: unique property IDs, known types, and every
// controlled-database property bound to an existing controlled database.
func validateSchemaShape(ctx context.Context, collections port.CollectionRepository, s domain.Schema) error {
	if _, err := schema.Compile(s, nil); err != nil {
		return err
	}
	for _, p := range s {
		if p.Type != domain.PropertyTypeControlledDatabase {
			continue
		}
		ref, err := collections.GetByID(ctx, *p.DatabaseID)
		if err != nil {
			if errors.Is(err, domain.ErrCollectionNotFound) {
				return domain.ErrNotControlledDatabase
			}
			return fmt.Errorf("validateSchemaShape: %w", err)
		}
		if ref.Type != domain.CollectionTypeControlledDatabase {
			return domain.ErrNotControlledDatabase
		}
	}
	return nil
}
