package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"arkival/internal/config"
	"arkival/internal/domain"
	"arkival/internal/port"
	"arkival/internal/schema"
)

// IngestService orchestrates bulk imports: scan, validate, edit, commit or
// cancel.
type IngestService interface {
	Start(ctx context.Context, basePath string, targetCollectionID uuid.UUID) (*domain.IngestSession, error)
	Get(ctx context.Context, sessionID uuid.UUID) (*domain.IngestSession, error)
	List(ctx context.Context, offset, limit int) ([]domain.IngestSession, int, error)
	ListAssets(ctx context.Context, sessionID uuid.UUID, offset, limit int) ([]domain.AssetImport, int, error)
	UpdateMetadata(ctx context.Context, sessionID, importID uuid.UUID, metadata domain.Metadata, access domain.AccessControl) (*domain.AssetImport, error)
	Commit(ctx context.Context, sessionID uuid.UUID) error
	Cancel(ctx context.Context, sessionID uuid.UUID) error
	// WaitForScan blocks until the session's scan pipeline has finished.
	WaitForScan(sessionID uuid.UUID)
	// Shutdown waits for every in-flight scan to finish.
	Shutdown()
}

type ingestService struct {
	ingestRepo  port.IngestRepository
	collections port.CollectionRepository
	assets      port.AssetRepository
	media       port.MediaFileRepository
	storage     port.ObjectStorage
	resolver    port.ReferenceResolver
	tx          port.Transactor
	cfg         config.IngestConfig
	bucket      string

	sessions *sessionRegistry
	wg       sync.WaitGroup
}

// NewIngestService creates a new IngestService implementation.
func NewIngestService(
	ingestRepo port.IngestRepository,
	collections port.CollectionRepository,
	assets port.AssetRepository,
	media port.MediaFileRepository,
	storage port.ObjectStorage,
	resolver port.ReferenceResolver,
	tx port.Transactor,
	cfg config.IngestConfig,
	bucket string,
) IngestService {
	return &ingestService{
		ingestRepo:  ingestRepo,
		collections: collections,
		assets:      assets,
		media:       media,
		storage:     storage,
		resolver:    resolver,
		tx:          tx,
		cfg:         cfg,
		bucket:      bucket,
		sessions:    newSessionRegistry(),
	}
}

func (s *ingestService) Start(ctx context.Context, basePath string, targetCollectionID uuid.UUID) (*domain.IngestSession, error) {
	info, err := os.Stat(basePath)
	if err != nil || !info.IsDir() {
		return nil, domain.NewFetchError("base path %q is not a readable directory", basePath)
	}

	col, err := s.collections.GetByID(ctx, targetCollectionID)
	if err != nil {
		return nil, err
	}

	sess := &domain.IngestSession{
		ID:                 uuid.New(),
		BasePath:           basePath,
		TargetCollectionID: targetCollectionID,
		Phase:              domain.SessionPhaseScanning,
	}
	if err := s.ingestRepo.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("creating ingest session: %w", err)
	}

	st := s.sessions.get(sess.ID)
	// The scan runs on a fresh context: it outlives the request, and only
	// Cancel (or shutdown) interrupts it.
	scanCtx, cancel := context.WithCancel(context.Background())
	st.arm(cancel)
	st.mu.Lock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer st.mu.Unlock()
		defer st.arm(nil)
		defer cancel()
		s.runScan(scanCtx, sess, col)
	}()

	log.Printf("ingestService: session %s started for %q into collection %s", sess.ID, basePath, targetCollectionID)
	return sess, nil
}

func (s *ingestService) Get(ctx context.Context, sessionID uuid.UUID) (*domain.IngestSession, error) {
	return s.ingestRepo.GetSession(ctx, sessionID)
}

func (s *ingestService) List(ctx context.Context, offset, limit int) ([]domain.IngestSession, int, error) {
	return s.ingestRepo.ListSessions(ctx, offset, limit)
}

func (s *ingestService) ListAssets(ctx context.Context, sessionID uuid.UUID, offset, limit int) ([]domain.AssetImport, int, error) {
	if _, err := s.ingestRepo.GetSession(ctx, sessionID); err != nil {
		return nil, 0, err
	}
	imports, total, err := s.ingestRepo.ListAssetImports(ctx, sessionID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	for i := range imports {
		files, err := s.ingestRepo.ListFileImports(ctx, imports[i].ID)
		if err != nil {
			return nil, 0, err
		}
		imports[i].Files = files
	}
	return imports, total, nil
}

func (s *ingestService) UpdateMetadata(ctx context.Context, sessionID, importID uuid.UUID, metadata domain.Metadata, access domain.AccessControl) (*domain.AssetImport, error) {
	if access != domain.AccessControlPublic && access != domain.AccessControlRestricted {
		return nil, domain.ErrInvalidAccessControl
	}

	st := s.sessions.get(sessionID)
	st.mu.Lock()
	defer st.mu.Unlock()

	sess, err := s.ingestRepo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Phase != domain.SessionPhaseValidating {
		return nil, domain.NewFetchError("session %s does not accept edits (phase %s)", sessionID, sess.Phase)
	}

	imp, err := s.ingestRepo.GetAssetImport(ctx, sessionID, importID)
	if err != nil {
		return nil, err
	}

	col, err := s.collections.GetByID(ctx, sess.TargetCollectionID)
	if err != nil {
		return nil, err
	}
	validator, err := schema.Compile(col.Schema, schema.NewBatchResolver(s.resolver, s.cfg.ResolverParallelism))
	if err != nil {
		return nil, fmt.Errorf("compiling schema for collection %s: %w", col.ID, err)
	}

	fields, err := validator.Validate(ctx, metadata)
	if err != nil {
		return nil, fmt.Errorf("validating edited metadata: %w", err)
	}

	fileErrors, err := s.ingestRepo.CountFileErrors(ctx, imp.ID)
	if err != nil {
		return nil, err
	}

	imp.Metadata = metadata
	imp.AccessControl = access
	imp.ValidationErrors = fields
	if fields == nil && fileErrors == 0 {
		imp.Phase = domain.ImportPhaseCompleted
	} else {
		imp.Phase = domain.ImportPhaseError
	}
	if err := s.ingestRepo.UpdateAssetImport(ctx, imp); err != nil {
		return nil, err
	}
	return imp, nil
}

// preparedAsset holds everything needed to promote one import record, built
// before the commit transaction so no resolver I/O happens inside it.
type preparedAsset struct {
	asset *domain.Asset
	files []domain.FileImport
}

func (s *ingestService) Commit(ctx context.Context, sessionID uuid.UUID) error {
	st := s.sessions.get(sessionID)
	st.mu.Lock()
	defer st.mu.Unlock()

	sess, err := s.ingestRepo.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess.Phase != domain.SessionPhaseValidating {
		return domain.NewFetchError("session %s is not ready to commit (phase %s)", sessionID, sess.Phase)
	}
	pending, err := s.ingestRepo.CountPending(ctx, sessionID)
	if err != nil {
		return err
	}
	if pending > 0 {
		return domain.NewFetchError("session %s is not ready to commit: %d asset import(s) need review", sessionID, pending)
	}

	if err := s.ingestRepo.UpdateSessionPhase(ctx, sessionID, domain.SessionPhaseCommitting); err != nil {
		return err
	}

	if err := s.commitPromote(ctx, sess); err != nil {
		if phaseErr := s.ingestRepo.UpdateSessionPhase(ctx, sessionID, domain.SessionPhaseError); phaseErr != nil {
			log.Printf("ingestService: session %s: recording error phase failed: %v", sessionID, phaseErr)
		}
		return fmt.Errorf("committing ingest session %s: %w", sessionID, err)
	}

	s.removeStaging(sessionID)
	s.sessions.drop(sessionID)
	log.Printf("ingestService: session %s committed", sessionID)
	return nil
}

// commitPromote builds and uploads everything outside the transaction, then
// promotes all import records atomically. On any error the transaction rolls
// back, leaving the import tree intact for diagnosis.
func (s *ingestService) commitPromote(ctx context.Context, sess *domain.IngestSession) error {
	col, err := s.collections.GetByID(ctx, sess.TargetCollectionID)
	if err != nil {
		return err
	}

	imports, err := s.ingestRepo.ListAllAssetImports(ctx, sess.ID)
	if err != nil {
		return err
	}

	batch := schema.NewBatchResolver(s.resolver, s.cfg.ResolverParallelism)
	prepared := make([]preparedAsset, 0, len(imports))
	for i := range imports {
		imp := &imports[i]
		md, err := schema.BuildPresentation(ctx, col.Schema, imp.Metadata, batch)
		if err != nil {
			return err
		}
		files, err := s.ingestRepo.ListFileImports(ctx, imp.ID)
		if err != nil {
			return err
		}
		prepared = append(prepared, preparedAsset{
			asset: &domain.Asset{
				ID:            uuid.New(),
				CollectionID:  sess.TargetCollectionID,
				Title:         schema.DisplayTitle(col.Schema, imp.Metadata),
				Metadata:      md,
				AccessControl: imp.AccessControl,
			},
			files: files,
		})
	}

	// Blobs are content-addressed, so uploads before the transaction are
	// safe: a rolled-back commit leaves no dangling references and a retry
	// re-uses the objects.
	for _, p := range prepared {
		for _, fi := range p.files {
			if fi.Error != nil {
				continue
			}
			if err := s.uploadStaged(ctx, &fi); err != nil {
				return err
			}
		}
	}

	return s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		for _, p := range prepared {
			if err := s.assets.Create(txCtx, p.asset); err != nil {
				return err
			}
			for _, fi := range p.files {
				if fi.Error != nil {
					continue
				}
				m := &domain.MediaFile{
					ID:       uuid.New(),
					SHA256:   fi.SHA256,
					MimeType: fi.MimeType,
					FileSize: fi.FileSize,
					AssetID:  &p.asset.ID,
				}
				if err := s.media.Create(txCtx, m); err != nil {
					return err
				}
			}
		}
		if err := s.ingestRepo.DeleteAssetImports(txCtx, sess.ID); err != nil {
			return err
		}
		return s.ingestRepo.UpdateSessionPhase(txCtx, sess.ID, domain.SessionPhaseCompleted)
	})
}

func (s *ingestService) uploadStaged(ctx context.Context, fi *domain.FileImport) error {
	f, err := os.Open(fi.StagingPath)
	if err != nil {
		return fmt.Errorf("opening staged copy of %s: %w", fi.Path, err)
	}
	defer f.Close()

	_, err = s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.bucket,
		Key:         "media/" + fi.SHA256,
		Body:        f,
		ContentType: fi.MimeType,
		Size:        fi.FileSize,
	})
	if err != nil {
		return fmt.Errorf("uploading media for %s: %w", fi.Path, err)
	}
	return nil
}

func (s *ingestService) Cancel(ctx context.Context, sessionID uuid.UUID) error {
	st := s.sessions.get(sessionID)
	// Interrupt any in-flight scan before waiting on the session lock.
	st.interrupt()
	st.mu.Lock()
	defer st.mu.Unlock()

	sess, err := s.ingestRepo.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess.Phase.Terminal() {
		return domain.NewFetchError("session %s is already %s", sessionID, sess.Phase)
	}

	if err := s.ingestRepo.DeleteAssetImports(ctx, sessionID); err != nil {
		return err
	}
	if err := s.ingestRepo.UpdateSessionPhase(ctx, sessionID, domain.SessionPhaseCancelled); err != nil {
		return err
	}
	s.removeStaging(sessionID)
	s.sessions.drop(sessionID)
	log.Printf("ingestService: session %s cancelled", sessionID)
	return nil
}

// removeStaging deletes the session's temporary copies.
func (s *ingestService) removeStaging(sessionID uuid.UUID) {
	dir := filepath.Join(s.cfg.StagingDir, sessionID.String())
	if err := os.RemoveAll(dir); err != nil {
		log.Printf("ingestService: removing staging dir %s: %v", dir, err)
	}
}

func (s *ingestService) WaitForScan(sessionID uuid.UUID) {
	// The scan holds the session lock for its whole run; acquiring it is
	// exactly "wait until the scan is done".
	st := s.sessions.get(sessionID)
	st.mu.Lock()
	st.mu.Unlock()
}

func (s *ingestService) Shutdown() {
	s.wg.Wait()
}
