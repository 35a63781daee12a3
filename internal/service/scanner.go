package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"arkival/internal/domain"
	"arkival/internal/schema"
	"arkival/internal/sidecar"
)

// assetGroup is one logical asset discovered under the base path: a
// directory's media files plus an optional sidecar, or a single loose file.
type assetGroup struct {
	path    string // relative to the base path
	files   []string
	sidecar string
}

// discoverAssets maps the base path onto logical assets. Each immediate
// subdirectory that directly contains files becomes one asset; loose files
// at the top level become single-file assets.
func discoverAssets(basePath string) ([]assetGroup, error) {
	entries, err := os.ReadDir(basePath)
	if err != nil {
		return nil, fmt.Errorf("reading base path: %w", err)
	}

	var groups []assetGroup
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		full := filepath.Join(basePath, name)

		if !e.IsDir() {
			if sidecar.IsSidecar(name) {
				continue
			}
			groups = append(groups, assetGroup{path: name, files: []string{full}})
			continue
		}

		sub, err := os.ReadDir(full)
		if err != nil {
			// Surfaced later as a per-file error on the group.
			groups = append(groups, assetGroup{path: name, files: []string{full}})
			continue
		}
		g := assetGroup{path: name, sidecar: sidecar.Find(full)}
		for _, f := range sub {
			if f.IsDir() || strings.HasPrefix(f.Name(), ".") || sidecar.IsSidecar(f.Name()) {
				continue
			}
			g.files = append(g.files, filepath.Join(full, f.Name()))
		}
		sort.Strings(g.files)
		if len(g.files) > 0 || g.sidecar != "" {
			groups = append(groups, g)
		}
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].path < groups[j].path })
	return groups, nil
}

// runScan is the session's scan pipeline: discover logical assets, stage
// their files, parse sidecar metadata, and validate each record. File-level
// failures never abort the scan; they mark the owning import for review.
func (s *ingestService) runScan(ctx context.Context, sess *domain.IngestSession, col *domain.Collection) {
	validator, err := schema.Compile(col.Schema, schema.NewBatchResolver(s.resolver, s.cfg.ResolverParallelism))
	if err != nil {
		s.failScan(ctx, sess.ID, fmt.Errorf("compiling schema: %w", err))
		return
	}

	groups, err := discoverAssets(sess.BasePath)
	if err != nil {
		s.failScan(ctx, sess.ID, err)
		return
	}

	concurrency := s.cfg.ScanConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i := range groups {
		if ctx.Err() != nil {
			break
		}
		g := groups[i]
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			s.importAsset(ctx, sess, validator, g)
		}()
	}
	wg.Wait()

	if ctx.Err() != nil {
		// Cancel owns the session from here; it deletes the import tree
		// and the staged copies.
		return
	}

	if err := s.ingestRepo.UpdateSessionPhase(ctx, sess.ID, domain.SessionPhaseValidating); err != nil {
		s.failScan(ctx, sess.ID, fmt.Errorf("advancing to validating: %w", err))
		return
	}
	log.Printf("ingestService: session %s scanned %d asset(s), now validating", sess.ID, len(groups))
}

// failScan marks a session that cannot make progress as errored so it does
// not sit in scanning forever; the import tree stays inspectable.
func (s *ingestService) failScan(ctx context.Context, sessionID uuid.UUID, err error) {
	log.Printf("ingestService: session %s: scan failed: %v", sessionID, err)
	if phaseErr := s.ingestRepo.UpdateSessionPhase(ctx, sessionID, domain.SessionPhaseError); phaseErr != nil {
		log.Printf("ingestService: session %s: recording error phase failed: %v", sessionID, phaseErr)
	}
}

// importAsset runs one logical asset through read_files → read_metadata →
// completed/error.
func (s *ingestService) importAsset(ctx context.Context, sess *domain.IngestSession, validator *schema.Validator, g assetGroup) {
	imp := &domain.AssetImport{
		ID:            uuid.New(),
		SessionID:     sess.ID,
		Path:          g.path,
		Metadata:      domain.Metadata{},
		AccessControl: domain.AccessControlPublic,
		Phase:         domain.ImportPhaseReadFiles,
	}
	if err := s.ingestRepo.CreateAssetImport(ctx, imp); err != nil {
		log.Printf("ingestService: session %s: creating asset import %q: %v", sess.ID, g.path, err)
		return
	}

	fileErrors := 0
	for _, path := range g.files {
		if ctx.Err() != nil {
			return
		}
		fi := s.stageFile(ctx, sess.ID, imp.ID, path)
		if err := s.ingestRepo.CreateFileImport(ctx, fi); err != nil {
			log.Printf("ingestService: session %s: recording file import %q: %v", sess.ID, path, err)
			return
		}
		if fi.Error != nil {
			fileErrors++
		}
	}

	if g.sidecar != "" {
		md, err := sidecar.Read(g.sidecar)
		if err != nil {
			log.Printf("ingestService: session %s: sidecar %q: %v", sess.ID, g.sidecar, err)
			sidecarErr := domain.FileErrorIO
			fi := &domain.FileImport{
				ID:            uuid.New(),
				AssetImportID: imp.ID,
				Path:          g.sidecar,
				Error:         &sidecarErr,
			}
			if err := s.ingestRepo.CreateFileImport(ctx, fi); err != nil {
				log.Printf("ingestService: session %s: recording sidecar failure: %v", sess.ID, err)
				return
			}
			fileErrors++
		} else {
			imp.Metadata = md
		}
	}

	imp.Phase = domain.ImportPhaseReadMetadata
	if err := s.ingestRepo.UpdateAssetImport(ctx, imp); err != nil {
		log.Printf("ingestService: session %s: advancing import %q: %v", sess.ID, g.path, err)
		return
	}

	fields, err := validator.Validate(ctx, imp.Metadata)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		// Resolver infrastructure failure: not a validation verdict, but
		// the record still needs review before commit.
		log.Printf("ingestService: session %s: validating import %q: %v", sess.ID, g.path, err)
		imp.Phase = domain.ImportPhaseError
	} else {
		imp.ValidationErrors = fields
		if fields == nil && fileErrors == 0 {
			imp.Phase = domain.ImportPhaseCompleted
		} else {
			imp.Phase = domain.ImportPhaseError
		}
	}
	if err := s.ingestRepo.UpdateAssetImport(ctx, imp); err != nil {
		log.Printf("ingestService: session %s: finishing import %q: %v", sess.ID, g.path, err)
	}
}

// stageFile copies one source file into the session's staging area, hashing
// and sniffing it on the way. Failures are classified onto the returned
// record, never propagated.
func (s *ingestService) stageFile(ctx context.Context, sessionID, importID uuid.UUID, path string) *domain.FileImport {
	fi := &domain.FileImport{
		ID:            uuid.New(),
		AssetImportID: importID,
		Path:          path,
	}

	fail := func(class domain.FileImportError, err error) *domain.FileImport {
		if err != nil {
			log.Printf("ingestService: session %s: file %q: %v", sessionID, path, err)
		}
		fi.Error = &class
		return fi
	}

	// A group path that is not a regular file (an unreadable directory, a
	// file that vanished mid-scan) is a read failure, not a media verdict.
	info, err := os.Stat(path)
	if err != nil {
		return fail(domain.FileErrorIO, err)
	}
	if info.IsDir() {
		return fail(domain.FileErrorIO, fmt.Errorf("not a regular file"))
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	mimeType, ok := domain.AllowedMediaTypes[ext]
	if !ok {
		return fail(domain.FileErrorUnsupportedMediaType, nil)
	}
	fi.MimeType = mimeType

	if s.cfg.MaxFileSizeMB > 0 && info.Size() > s.cfg.MaxFileSizeMB*1024*1024 {
		return fail(domain.FileErrorIO, fmt.Errorf("file exceeds %d MB limit", s.cfg.MaxFileSizeMB))
	}

	src, err := os.Open(path)
	if err != nil {
		return fail(domain.FileErrorIO, err)
	}
	defer src.Close()

	// Magic-byte check: an extension alone does not make a media file.
	head := make([]byte, 512)
	n, err := src.Read(head)
	if err != nil && err != io.EOF {
		return fail(domain.FileErrorIO, err)
	}
	detected := http.DetectContentType(head[:n])
	if !mediaTypeAllowed(detected) {
		return fail(domain.FileErrorUnsupportedMediaType, nil)
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return fail(domain.FileErrorIO, err)
	}

	stagingDir := filepath.Join(s.cfg.StagingDir, sessionID.String())
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return fail(domain.FileErrorUnexpected, err)
	}
	stagingPath := filepath.Join(stagingDir, fi.ID.String())

	dst, err := os.Create(stagingPath)
	if err != nil {
		return fail(domain.FileErrorUnexpected, err)
	}
	defer dst.Close()

	h := sha256.New()
	written, err := io.Copy(io.MultiWriter(dst, h), src)
	if err != nil {
		_ = os.Remove(stagingPath)
		if ctx.Err() != nil {
			return fail(domain.FileErrorUnexpected, ctx.Err())
		}
		return fail(domain.FileErrorIO, err)
	}

	fi.StagingPath = stagingPath
	fi.SHA256 = hex.EncodeToString(h.Sum(nil))
	fi.FileSize = written
	return fi
}

// mediaTypeAllowed reports whether a sniffed content type is one we accept.
// Sniffing is coarser than the extension map (e.g. wav detects as a generic
// stream), so unknown sniffs pass and the extension verdict stands.
func mediaTypeAllowed(detected string) bool {
	if detected == "application/octet-stream" {
		return true
	}
	base := detected
	if i := strings.Index(base, ";"); i >= 0 {
		base = strings.TrimSpace(base[:i])
	}
	for _, mt := range domain.AllowedMediaTypes {
		if base == mt {
			return true
		}
	}
	// Sniffed prefixes like audio/wave vs audio/wav.
	return strings.HasPrefix(base, "audio/") || strings.HasPrefix(base, "video/")
}
