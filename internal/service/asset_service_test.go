package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"arkival/internal/domain"
	"arkival/internal/service"
	"arkival/mocks"
)

func newAssetService(collections *mocks.MockCollectionRepo, assets *mocks.MockAssetRepo, resolver *mocks.MockReferenceResolver) service.AssetService {
	return service.NewAssetService(collections, assets, new(mocks.MockMediaFileRepo), resolver, new(mocks.MockTransactor), guardCfg, 2)
}

func TestUpdateAssetMetadata_RederivesTitleAndPresentation(t *testing.T) {
	colID, assetID := uuid.New(), uuid.New()

	collections := new(mocks.MockCollectionRepo)
	collections.On("GetByID", mock.Anything, colID).Return(freeTextCollection(colID), nil)

	assets := new(mocks.MockAssetRepo)
	assets.On("GetByID", mock.Anything, assetID).Return(&domain.Asset{
		ID: assetID, CollectionID: colID, Title: "Old Title",
	}, nil)
	assets.On("UpdateMetadata", mock.Anything, mock.Anything).Return(nil)

	svc := newAssetService(collections, assets, new(mocks.MockReferenceResolver))

	asset, err := svc.UpdateAssetMetadata(context.Background(), assetID, domain.Metadata{
		"title": {RawValue: []interface{}{"New Title"}},
	}, domain.AccessControlRestricted)

	assert.NoError(t, err)
	assert.Equal(t, "New Title", asset.Title)
	assert.Equal(t, domain.AccessControlRestricted, asset.AccessControl)
	assert.Equal(t, "New Title", asset.Metadata["title"].Presentation[0].Label)
}

func TestUpdateAssetMetadata_InvalidIsRejected(t *testing.T) {
	colID, assetID := uuid.New(), uuid.New()

	collections := new(mocks.MockCollectionRepo)
	collections.On("GetByID", mock.Anything, colID).Return(freeTextCollection(colID), nil)

	assets := new(mocks.MockAssetRepo)
	assets.On("GetByID", mock.Anything, assetID).Return(&domain.Asset{
		ID: assetID, CollectionID: colID,
	}, nil)

	svc := newAssetService(collections, assets, new(mocks.MockReferenceResolver))

	_, err := svc.UpdateAssetMetadata(context.Background(), assetID, domain.Metadata{}, domain.AccessControlPublic)

	var ve *domain.ValidationError
	assert.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"required"}, ve.Fields["title"])
	assets.AssertNotCalled(t, "UpdateMetadata", mock.Anything, mock.Anything)
}

func TestUpdateAssetMetadata_UnknownAccessControl(t *testing.T) {
	svc := newAssetService(new(mocks.MockCollectionRepo), new(mocks.MockAssetRepo), new(mocks.MockReferenceResolver))

	_, err := svc.UpdateAssetMetadata(context.Background(), uuid.New(), domain.Metadata{}, "internal")

	assert.ErrorIs(t, err, domain.ErrInvalidAccessControl)
}

// referenceFixture builds a controlled database holding one record and an
// asset collection holding one asset that references it.
type referenceFixture struct {
	dbID, photoColID    uuid.UUID
	recordID, refererID uuid.UUID
	collections         *mocks.MockCollectionRepo
	assets              *mocks.MockAssetRepo
}

func newReferenceFixture() *referenceFixture {
	f := &referenceFixture{
		dbID:       uuid.New(),
		photoColID: uuid.New(),
		recordID:   uuid.New(),
		refererID:  uuid.New(),
	}

	creatorsDB := &domain.Collection{
		ID: f.dbID, Title: "Creators", Type: domain.CollectionTypeControlledDatabase,
		Schema: domain.Schema{{ID: "name", Label: "Name", Type: domain.PropertyTypeFreeText, Required: true}},
	}
	photos := &domain.Collection{
		ID: f.photoColID, Title: "Photographs", Type: domain.CollectionTypeAssets,
		Schema: domain.Schema{
			{ID: "title", Label: "Title", Type: domain.PropertyTypeFreeText, Required: true},
			{ID: "creator", Label: "Creator", Type: domain.PropertyTypeControlledDatabase, DatabaseID: &f.dbID},
		},
	}

	record := &domain.Asset{
		ID: f.recordID, CollectionID: f.dbID, Title: "Ansel Adams",
		Metadata: domain.Metadata{"name": {RawValue: []interface{}{"Ansel Adams"}}},
	}
	referer := domain.Asset{
		ID: f.refererID, CollectionID: f.photoColID, Title: "Moonrise",
		Metadata: domain.Metadata{
			"title":   {RawValue: []interface{}{"Moonrise"}},
			"creator": {RawValue: []interface{}{f.recordID.String()}},
		},
	}

	f.collections = new(mocks.MockCollectionRepo)
	f.collections.On("GetByID", mock.Anything, f.dbID).Return(creatorsDB, nil)
	f.collections.On("GetByID", mock.Anything, f.photoColID).Return(photos, nil)
	f.collections.On("ListAll", mock.Anything).Return([]domain.Collection{*creatorsDB, *photos}, nil)

	f.assets = new(mocks.MockAssetRepo)
	f.assets.On("GetByID", mock.Anything, f.recordID).Return(record, nil)
	f.assets.On("GetByID", mock.Anything, f.refererID).Return(&referer, nil)
	f.assets.On("ListByCollection", mock.Anything, f.dbID, 0, 50).Return([]domain.Asset{*record}, 1, nil)
	f.assets.On("ListByCollection", mock.Anything, f.photoColID, 0, 50).Return([]domain.Asset{referer}, 1, nil)
	return f
}

func TestDeleteAssets_BlockedByOutsideReference(t *testing.T) {
	f := newReferenceFixture()
	svc := newAssetService(f.collections, f.assets, new(mocks.MockReferenceResolver))

	err := svc.DeleteAssets(context.Background(), []uuid.UUID{f.recordID})

	var rie *domain.ReferentialIntegrityError
	assert.ErrorAs(t, err, &rie)
	assert.Len(t, rie.Blocking, 1)
	b := rie.Blocking[0]
	assert.Equal(t, f.refererID, b.AssetID)
	assert.Equal(t, "creator", b.PropertyID)
	assert.Equal(t, f.recordID, b.ReferencedItemID)
	f.assets.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDeleteAssets_ReferencesInsideBatchDoNotBlock(t *testing.T) {
	f := newReferenceFixture()
	f.assets.On("Delete", mock.Anything, mock.Anything).Return(nil)
	svc := newAssetService(f.collections, f.assets, new(mocks.MockReferenceResolver))

	// Deleting record and referer together leaves nothing broken behind.
	err := svc.DeleteAssets(context.Background(), []uuid.UUID{f.recordID, f.refererID})

	assert.NoError(t, err)
	f.assets.AssertCalled(t, "Delete", mock.Anything, []uuid.UUID{f.recordID, f.refererID})
}

func TestDeleteAssets_UnreferencedIsDeleted(t *testing.T) {
	f := newReferenceFixture()
	f.assets.On("Delete", mock.Anything, mock.Anything).Return(nil)
	svc := newAssetService(f.collections, f.assets, new(mocks.MockReferenceResolver))

	err := svc.DeleteAssets(context.Background(), []uuid.UUID{f.refererID})

	assert.NoError(t, err)
	f.assets.AssertCalled(t, "Delete", mock.Anything, []uuid.UUID{f.refererID})
}

func TestValidateMoveAssets_TargetSchemaFailuresAggregate(t *testing.T) {
	f := newReferenceFixture()
	svc := newAssetService(f.collections, f.assets, new(mocks.MockReferenceResolver))

	// The record only has a "name"; the photo collection requires "title".
	err := svc.ValidateMoveAssets(context.Background(), []uuid.UUID{f.recordID}, f.photoColID)

	var agg *domain.AggregatedValidationError
	assert.ErrorAs(t, err, &agg)
	assert.Equal(t, []domain.AggregatedFailure{{Message: "required", Count: 1}}, agg.Fields["title"])
}

func TestMoveAssets_BlockedByReference(t *testing.T) {
	f := newReferenceFixture()
	// Moving the record out of the controlled database breaks the photo's
	// reference even though the record itself fits the target schema.
	target := &domain.Collection{
		ID: uuid.New(), Title: "Retired Creators", Type: domain.CollectionTypeControlledDatabase,
		Schema: domain.Schema{{ID: "name", Type: domain.PropertyTypeFreeText, Required: true}},
	}
	f.collections.On("GetByID", mock.Anything, target.ID).Return(target, nil)

	svc := newAssetService(f.collections, f.assets, new(mocks.MockReferenceResolver))

	err := svc.MoveAssets(context.Background(), []uuid.UUID{f.recordID}, target.ID)

	var rie *domain.ReferentialIntegrityError
	assert.ErrorAs(t, err, &rie)
	f.assets.AssertNotCalled(t, "Move", mock.Anything, mock.Anything, mock.Anything)
}

func TestMoveAssets_CleanMoveSucceeds(t *testing.T) {
	f := newReferenceFixture()
	target := &domain.Collection{
		ID: uuid.New(), Title: "Archive", Type: domain.CollectionTypeAssets,
		Schema: domain.Schema{
			{ID: "title", Type: domain.PropertyTypeFreeText, Required: true},
			{ID: "creator", Type: domain.PropertyTypeControlledDatabase, DatabaseID: &f.dbID},
		},
	}
	f.collections.On("GetByID", mock.Anything, target.ID).Return(target, nil)
	f.assets.On("Move", mock.Anything, mock.Anything, target.ID).Return(nil)

	resolver := new(mocks.MockReferenceResolver)
	resolver.On("GetRecord", mock.Anything, f.dbID, f.recordID.String()).Return(&domain.Asset{Title: "Ansel Adams"}, nil)

	svc := newAssetService(f.collections, f.assets, resolver)

	err := svc.MoveAssets(context.Background(), []uuid.UUID{f.refererID}, target.ID)

	assert.NoError(t, err)
	f.assets.AssertCalled(t, "Move", mock.Anything, []uuid.UUID{f.refererID}, target.ID)
}
