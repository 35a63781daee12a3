package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"arkival/internal/config"
	"arkival/internal/domain"
	"arkival/internal/port"
	"arkival/internal/service"
	"arkival/mocks"
)

func ingestConfig(t *testing.T) config.IngestConfig {
	t.Helper()
	return config.IngestConfig{
		StagingDir:          t.TempDir(),
		ScanConcurrency:     2,
		ResolverParallelism: 2,
		MaxFileSizeMB:       64,
	}
}

func freeTextCollection(id uuid.UUID) *domain.Collection {
	return &domain.Collection{
		ID:    id,
		Title: "Photographs",
		Type:  domain.CollectionTypeAssets,
		Schema: domain.Schema{
			{ID: "title", Label: "Title", Type: domain.PropertyTypeFreeText, Required: true},
		},
	}
}

func newIngestService(
	ingestRepo *mocks.MockIngestRepo,
	collections *mocks.MockCollectionRepo,
	assets *mocks.MockAssetRepo,
	media *mocks.MockMediaFileRepo,
	storage *mocks.MockObjectStorage,
	cfg config.IngestConfig,
) service.IngestService {
	return service.NewIngestService(
		ingestRepo, collections, assets, media, storage,
		new(mocks.MockReferenceResolver), new(mocks.MockTransactor),
		cfg, "arkival-media",
	)
}

func TestStart_RejectsMissingBasePath(t *testing.T) {
	svc := newIngestService(
		new(mocks.MockIngestRepo), new(mocks.MockCollectionRepo),
		new(mocks.MockAssetRepo), new(mocks.MockMediaFileRepo),
		new(mocks.MockObjectStorage), ingestConfig(t),
	)

	_, err := svc.Start(context.Background(), "/does/not/exist", uuid.New())

	var fe *domain.FetchError
	assert.ErrorAs(t, err, &fe)
}

func TestStart_UncompilableSchemaMarksSessionError(t *testing.T) {
	base := t.TempDir()

	colID := uuid.New()
	col := &domain.Collection{
		ID:    colID,
		Title: "Broken",
		Type:  domain.CollectionTypeAssets,
		Schema: domain.Schema{
			{ID: "title", Label: "Title", Type: domain.PropertyTypeFreeText},
			{ID: "title", Label: "Title Again", Type: domain.PropertyTypeFreeText},
		},
	}
	collections := new(mocks.MockCollectionRepo)
	collections.On("GetByID", mock.Anything, colID).Return(col, nil)

	ingestRepo := new(mocks.MockIngestRepo)
	ingestRepo.On("CreateSession", mock.Anything, mock.Anything).Return(nil)
	ingestRepo.On("UpdateSessionPhase", mock.Anything, mock.Anything, domain.SessionPhaseError).Return(nil)

	svc := newIngestService(ingestRepo, collections, new(mocks.MockAssetRepo), new(mocks.MockMediaFileRepo), new(mocks.MockObjectStorage), ingestConfig(t))

	sess, err := svc.Start(context.Background(), base, colID)
	assert.NoError(t, err)

	svc.WaitForScan(sess.ID)

	// The session must not sit in scanning forever when the validator
	// cannot even be built.
	ingestRepo.AssertCalled(t, "UpdateSessionPhase", mock.Anything, sess.ID, domain.SessionPhaseError)
	ingestRepo.AssertNotCalled(t, "UpdateSessionPhase", mock.Anything, mock.Anything, domain.SessionPhaseValidating)
}

func TestStart_ScanStagesValidatesAndAdvancesSession(t *testing.T) {
	base := t.TempDir()
	assetDir := filepath.Join(base, "harbor-series")
	assert.NoError(t, os.MkdirAll(assetDir, 0o755))
	// Real magic bytes so content sniffing agrees with the extension.
	assert.NoError(t, os.WriteFile(filepath.Join(assetDir, "photo.jpg"), []byte("\xFF\xD8\xFF\xE0 jpeg body"), 0o644))
	assert.NoError(t, os.WriteFile(filepath.Join(assetDir, "metadata.json"), []byte(`{"title": "Sunrise Over Harbor"}`), 0o644))
	assert.NoError(t, os.WriteFile(filepath.Join(base, "loose.png"), []byte("\x89PNG\r\n\x1a\n png body"), 0o644))

	colID := uuid.New()
	collections := new(mocks.MockCollectionRepo)
	collections.On("GetByID", mock.Anything, colID).Return(freeTextCollection(colID), nil)

	ingestRepo := new(mocks.MockIngestRepo)
	ingestRepo.On("CreateSession", mock.Anything, mock.Anything).Return(nil)
	ingestRepo.On("CreateAssetImport", mock.Anything, mock.Anything).Return(nil)
	ingestRepo.On("CreateFileImport", mock.Anything, mock.Anything).Return(nil)
	ingestRepo.On("UpdateSessionPhase", mock.Anything, mock.Anything, domain.SessionPhaseValidating).Return(nil)

	var mu sync.Mutex
	final := map[string]domain.AssetImportPhase{}
	ingestRepo.On("UpdateAssetImport", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		imp := args.Get(1).(*domain.AssetImport)
		mu.Lock()
		final[imp.Path] = imp.Phase
		mu.Unlock()
	}).Return(nil)

	cfg := ingestConfig(t)
	svc := newIngestService(ingestRepo, collections, new(mocks.MockAssetRepo), new(mocks.MockMediaFileRepo), new(mocks.MockObjectStorage), cfg)

	sess, err := svc.Start(context.Background(), base, colID)
	assert.NoError(t, err)
	assert.Equal(t, domain.SessionPhaseScanning, sess.Phase)

	svc.WaitForScan(sess.ID)

	// The sidecar made the directory asset valid; the loose file has no
	// metadata at all, so its required title is missing.
	assert.Equal(t, domain.ImportPhaseCompleted, final["harbor-series"])
	assert.Equal(t, domain.ImportPhaseError, final["loose.png"])
	ingestRepo.AssertCalled(t, "UpdateSessionPhase", mock.Anything, sess.ID, domain.SessionPhaseValidating)

	// Staged copies live under the session's staging dir.
	entries, err := os.ReadDir(filepath.Join(cfg.StagingDir, sess.ID.String()))
	assert.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestStart_UnsupportedExtensionMarksFileError(t *testing.T) {
	base := t.TempDir()
	assetDir := filepath.Join(base, "mixed")
	assert.NoError(t, os.MkdirAll(assetDir, 0o755))
	assert.NoError(t, os.WriteFile(filepath.Join(assetDir, "notes.docx"), []byte("word doc"), 0o644))
	assert.NoError(t, os.WriteFile(filepath.Join(assetDir, "metadata.json"), []byte(`{"title": "Mixed"}`), 0o644))

	colID := uuid.New()
	collections := new(mocks.MockCollectionRepo)
	collections.On("GetByID", mock.Anything, colID).Return(freeTextCollection(colID), nil)

	var fileErr *domain.FileImportError
	ingestRepo := new(mocks.MockIngestRepo)
	ingestRepo.On("CreateSession", mock.Anything, mock.Anything).Return(nil)
	ingestRepo.On("CreateAssetImport", mock.Anything, mock.Anything).Return(nil)
	ingestRepo.On("CreateFileImport", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		fileErr = args.Get(1).(*domain.FileImport).Error
	}).Return(nil)
	ingestRepo.On("UpdateAssetImport", mock.Anything, mock.Anything).Return(nil)
	ingestRepo.On("UpdateSessionPhase", mock.Anything, mock.Anything, domain.SessionPhaseValidating).Return(nil)

	svc := newIngestService(ingestRepo, collections, new(mocks.MockAssetRepo), new(mocks.MockMediaFileRepo), new(mocks.MockObjectStorage), ingestConfig(t))

	sess, err := svc.Start(context.Background(), base, colID)
	assert.NoError(t, err)
	svc.WaitForScan(sess.ID)

	assert.NotNil(t, fileErr)
	assert.Equal(t, domain.FileErrorUnsupportedMediaType, *fileErr)
}

func TestUpdateMetadata_RequiresValidatingPhase(t *testing.T) {
	sessID := uuid.New()
	ingestRepo := new(mocks.MockIngestRepo)
	ingestRepo.On("GetSession", mock.Anything, sessID).Return(&domain.IngestSession{
		ID: sessID, Phase: domain.SessionPhaseScanning,
	}, nil)

	svc := newIngestService(ingestRepo, new(mocks.MockCollectionRepo), new(mocks.MockAssetRepo), new(mocks.MockMediaFileRepo), new(mocks.MockObjectStorage), ingestConfig(t))

	_, err := svc.UpdateMetadata(context.Background(), sessID, uuid.New(), domain.Metadata{}, domain.AccessControlPublic)

	var fe *domain.FetchError
	assert.ErrorAs(t, err, &fe)
}

func TestUpdateMetadata_RevalidatesAndCompletes(t *testing.T) {
	sessID, impID, colID := uuid.New(), uuid.New(), uuid.New()

	ingestRepo := new(mocks.MockIngestRepo)
	ingestRepo.On("GetSession", mock.Anything, sessID).Return(&domain.IngestSession{
		ID: sessID, TargetCollectionID: colID, Phase: domain.SessionPhaseValidating,
	}, nil)
	ingestRepo.On("GetAssetImport", mock.Anything, sessID, impID).Return(&domain.AssetImport{
		ID: impID, SessionID: sessID, Phase: domain.ImportPhaseError,
		ValidationErrors: domain.FieldErrors{"title": {"required"}},
	}, nil)
	ingestRepo.On("CountFileErrors", mock.Anything, impID).Return(0, nil)
	ingestRepo.On("UpdateAssetImport", mock.Anything, mock.Anything).Return(nil)

	collections := new(mocks.MockCollectionRepo)
	collections.On("GetByID", mock.Anything, colID).Return(freeTextCollection(colID), nil)

	svc := newIngestService(ingestRepo, collections, new(mocks.MockAssetRepo), new(mocks.MockMediaFileRepo), new(mocks.MockObjectStorage), ingestConfig(t))

	imp, err := svc.UpdateMetadata(context.Background(), sessID, impID, domain.Metadata{
		"title": {RawValue: []interface{}{"Corrected Title"}},
	}, domain.AccessControlRestricted)

	assert.NoError(t, err)
	assert.Equal(t, domain.ImportPhaseCompleted, imp.Phase)
	assert.Nil(t, imp.ValidationErrors)
	assert.Equal(t, domain.AccessControlRestricted, imp.AccessControl)
}

func TestUpdateMetadata_InvalidEditKeepsErrorPhase(t *testing.T) {
	sessID, impID, colID := uuid.New(), uuid.New(), uuid.New()

	ingestRepo := new(mocks.MockIngestRepo)
	ingestRepo.On("GetSession", mock.Anything, sessID).Return(&domain.IngestSession{
		ID: sessID, TargetCollectionID: colID, Phase: domain.SessionPhaseValidating,
	}, nil)
	ingestRepo.On("GetAssetImport", mock.Anything, sessID, impID).Return(&domain.AssetImport{
		ID: impID, SessionID: sessID, Phase: domain.ImportPhaseCompleted,
	}, nil)
	ingestRepo.On("CountFileErrors", mock.Anything, impID).Return(0, nil)
	ingestRepo.On("UpdateAssetImport", mock.Anything, mock.Anything).Return(nil)

	collections := new(mocks.MockCollectionRepo)
	collections.On("GetByID", mock.Anything, colID).Return(freeTextCollection(colID), nil)

	svc := newIngestService(ingestRepo, collections, new(mocks.MockAssetRepo), new(mocks.MockMediaFileRepo), new(mocks.MockObjectStorage), ingestConfig(t))

	imp, err := svc.UpdateMetadata(context.Background(), sessID, impID, domain.Metadata{}, domain.AccessControlPublic)

	assert.NoError(t, err)
	assert.Equal(t, domain.ImportPhaseError, imp.Phase)
	assert.Equal(t, []string{"required"}, imp.ValidationErrors["title"])
}

func TestCommit_RejectsPendingImports(t *testing.T) {
	sessID := uuid.New()
	ingestRepo := new(mocks.MockIngestRepo)
	ingestRepo.On("GetSession", mock.Anything, sessID).Return(&domain.IngestSession{
		ID: sessID, Phase: domain.SessionPhaseValidating,
	}, nil)
	ingestRepo.On("CountPending", mock.Anything, sessID).Return(3, nil)

	svc := newIngestService(ingestRepo, new(mocks.MockCollectionRepo), new(mocks.MockAssetRepo), new(mocks.MockMediaFileRepo), new(mocks.MockObjectStorage), ingestConfig(t))

	err := svc.Commit(context.Background(), sessID)

	var fe *domain.FetchError
	assert.ErrorAs(t, err, &fe)
	ingestRepo.AssertNotCalled(t, "UpdateSessionPhase", mock.Anything, mock.Anything, mock.Anything)
}

func TestCommit_RejectsNonValidatingPhase(t *testing.T) {
	sessID := uuid.New()
	ingestRepo := new(mocks.MockIngestRepo)
	ingestRepo.On("GetSession", mock.Anything, sessID).Return(&domain.IngestSession{
		ID: sessID, Phase: domain.SessionPhaseCompleted,
	}, nil)

	svc := newIngestService(ingestRepo, new(mocks.MockCollectionRepo), new(mocks.MockAssetRepo), new(mocks.MockMediaFileRepo), new(mocks.MockObjectStorage), ingestConfig(t))

	err := svc.Commit(context.Background(), sessID)

	var fe *domain.FetchError
	assert.ErrorAs(t, err, &fe)
}

func TestCommit_PromotesImportsToAssets(t *testing.T) {
	sessID, colID, impID := uuid.New(), uuid.New(), uuid.New()
	cfg := ingestConfig(t)

	staged := filepath.Join(cfg.StagingDir, "staged-blob")
	assert.NoError(t, os.WriteFile(staged, []byte("jpeg body"), 0o644))

	sess := &domain.IngestSession{ID: sessID, TargetCollectionID: colID, Phase: domain.SessionPhaseValidating}

	ingestRepo := new(mocks.MockIngestRepo)
	ingestRepo.On("GetSession", mock.Anything, sessID).Return(sess, nil)
	ingestRepo.On("CountPending", mock.Anything, sessID).Return(0, nil)
	ingestRepo.On("UpdateSessionPhase", mock.Anything, sessID, domain.SessionPhaseCommitting).Return(nil)
	ingestRepo.On("ListAllAssetImports", mock.Anything, sessID).Return([]domain.AssetImport{{
		ID: impID, SessionID: sessID, Phase: domain.ImportPhaseCompleted,
		AccessControl: domain.AccessControlPublic,
		Metadata:      domain.Metadata{"title": {RawValue: []interface{}{"Sunrise Over Harbor"}}},
	}}, nil)
	ingestRepo.On("ListFileImports", mock.Anything, impID).Return([]domain.FileImport{{
		ID: uuid.New(), AssetImportID: impID, Path: "photo.jpg",
		StagingPath: staged, SHA256: "abc123", MimeType: "image/jpeg", FileSize: 9,
	}}, nil)
	ingestRepo.On("DeleteAssetImports", mock.Anything, sessID).Return(nil)
	ingestRepo.On("UpdateSessionPhase", mock.Anything, sessID, domain.SessionPhaseCompleted).Return(nil)

	collections := new(mocks.MockCollectionRepo)
	collections.On("GetByID", mock.Anything, colID).Return(freeTextCollection(colID), nil)

	var created *domain.Asset
	assets := new(mocks.MockAssetRepo)
	assets.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		created = args.Get(1).(*domain.Asset)
	}).Return(nil)

	var mediaCreated *domain.MediaFile
	media := new(mocks.MockMediaFileRepo)
	media.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		mediaCreated = args.Get(1).(*domain.MediaFile)
	}).Return(nil)

	storage := new(mocks.MockObjectStorage)
	storage.On("Upload", mock.Anything, mock.MatchedBy(func(in port.UploadInput) bool {
		return in.Key == "media/abc123" && in.ContentType == "image/jpeg"
	})).Return(&port.UploadOutput{}, nil)

	svc := newIngestService(ingestRepo, collections, assets, media, storage, cfg)

	err := svc.Commit(context.Background(), sessID)

	assert.NoError(t, err)
	assert.NotNil(t, created)
	assert.Equal(t, "Sunrise Over Harbor", created.Title)
	assert.Equal(t, colID, created.CollectionID)
	assert.NotNil(t, mediaCreated)
	assert.Equal(t, "abc123", mediaCreated.SHA256)
	assert.Equal(t, &created.ID, mediaCreated.AssetID)
	ingestRepo.AssertCalled(t, "DeleteAssetImports", mock.Anything, sessID)
	ingestRepo.AssertCalled(t, "UpdateSessionPhase", mock.Anything, sessID, domain.SessionPhaseCompleted)
}

func TestCommit_FailureRecordsErrorPhase(t *testing.T) {
	sessID, colID, impID := uuid.New(), uuid.New(), uuid.New()

	ingestRepo := new(mocks.MockIngestRepo)
	ingestRepo.On("GetSession", mock.Anything, sessID).Return(&domain.IngestSession{
		ID: sessID, TargetCollectionID: colID, Phase: domain.SessionPhaseValidating,
	}, nil)
	ingestRepo.On("CountPending", mock.Anything, sessID).Return(0, nil)
	ingestRepo.On("UpdateSessionPhase", mock.Anything, sessID, domain.SessionPhaseCommitting).Return(nil)
	ingestRepo.On("ListAllAssetImports", mock.Anything, sessID).Return([]domain.AssetImport{{
		ID: impID, SessionID: sessID, Phase: domain.ImportPhaseCompleted,
		Metadata: domain.Metadata{"title": {RawValue: []interface{}{"Doomed"}}},
	}}, nil)
	ingestRepo.On("ListFileImports", mock.Anything, impID).Return([]domain.FileImport{}, nil)
	ingestRepo.On("UpdateSessionPhase", mock.Anything, sessID, domain.SessionPhaseError).Return(nil)

	collections := new(mocks.MockCollectionRepo)
	collections.On("GetByID", mock.Anything, colID).Return(freeTextCollection(colID), nil)

	assets := new(mocks.MockAssetRepo)
	assets.On("Create", mock.Anything, mock.Anything).Return(errors.New("constraint violation"))

	svc := newIngestService(ingestRepo, collections, assets, new(mocks.MockMediaFileRepo), new(mocks.MockObjectStorage), ingestConfig(t))

	err := svc.Commit(context.Background(), sessID)

	assert.Error(t, err)
	ingestRepo.AssertCalled(t, "UpdateSessionPhase", mock.Anything, sessID, domain.SessionPhaseError)
	ingestRepo.AssertNotCalled(t, "DeleteAssetImports", mock.Anything, sessID)
}

func TestCancel_TerminalSessionIsRejected(t *testing.T) {
	sessID := uuid.New()
	ingestRepo := new(mocks.MockIngestRepo)
	ingestRepo.On("GetSession", mock.Anything, sessID).Return(&domain.IngestSession{
		ID: sessID, Phase: domain.SessionPhaseCancelled,
	}, nil)

	svc := newIngestService(ingestRepo, new(mocks.MockCollectionRepo), new(mocks.MockAssetRepo), new(mocks.MockMediaFileRepo), new(mocks.MockObjectStorage), ingestConfig(t))

	err := svc.Cancel(context.Background(), sessID)

	var fe *domain.FetchError
	assert.ErrorAs(t, err, &fe)
}

func TestCancel_DeletesImportTreeAndMarksCancelled(t *testing.T) {
	sessID := uuid.New()
	cfg := ingestConfig(t)
	stagingDir := filepath.Join(cfg.StagingDir, sessID.String())
	assert.NoError(t, os.MkdirAll(stagingDir, 0o755))
	assert.NoError(t, os.WriteFile(filepath.Join(stagingDir, "blob"), []byte("staged"), 0o644))

	ingestRepo := new(mocks.MockIngestRepo)
	ingestRepo.On("GetSession", mock.Anything, sessID).Return(&domain.IngestSession{
		ID: sessID, Phase: domain.SessionPhaseValidating,
	}, nil)
	ingestRepo.On("DeleteAssetImports", mock.Anything, sessID).Return(nil)
	ingestRepo.On("UpdateSessionPhase", mock.Anything, sessID, domain.SessionPhaseCancelled).Return(nil)

	svc := newIngestService(ingestRepo, new(mocks.MockCollectionRepo), new(mocks.MockAssetRepo), new(mocks.MockMediaFileRepo), new(mocks.MockObjectStorage), cfg)

	err := svc.Cancel(context.Background(), sessID)

	assert.NoError(t, err)
	ingestRepo.AssertCalled(t, "DeleteAssetImports", mock.Anything, sessID)
	ingestRepo.AssertCalled(t, "UpdateSessionPhase", mock.Anything, sessID, domain.SessionPhaseCancelled)
	_, statErr := os.Stat(stagingDir)
	assert.True(t, os.IsNotExist(statErr))
}
