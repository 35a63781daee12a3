package domain

// CollectionType distinguishes asset collections from controlled databases.
type CollectionType string

const (
	CollectionTypeAssets             CollectionType = "asset_collection"
	CollectionTypeControlledDatabase CollectionType = "controlled_database"
)

// PropertyType discriminates the schema property union.
type PropertyType string

const (
	PropertyTypeFreeText           PropertyType = "free_text"
	PropertyTypeControlledDatabase PropertyType = "controlled_database"
)

// AccessControl restricts who may view an asset.
type AccessControl string

const (
	AccessControlPublic     AccessControl = "public"
	AccessControlRestricted AccessControl = "restricted"
)

// SessionPhase is the lifecycle of an ingest session. Session phase and
// asset-import phase are deliberately separate types: during a scan an
// individual import legitimately trails the session.
type SessionPhase string

const (
	SessionPhaseScanning   SessionPhase = "scanning"
	SessionPhaseValidating SessionPhase = "validating"
	SessionPhaseCommitting SessionPhase = "committing"
	SessionPhaseCompleted  SessionPhase = "completed"
	SessionPhaseError      SessionPhase = "error"
	SessionPhaseCancelled  SessionPhase = "cancelled"
)

// Terminal reports whether no further mutation of the session is permitted.
func (p SessionPhase) Terminal() bool {
	return p == SessionPhaseCompleted || p == SessionPhaseError || p == SessionPhaseCancelled
}

// AssetImportPhase is the lifecycle of a single asset import within a session.
type AssetImportPhase string

const (
	ImportPhaseReadFiles    AssetImportPhase = "read_files"
	ImportPhaseReadMetadata AssetImportPhase = "read_metadata"
	ImportPhaseCompleted    AssetImportPhase = "completed"
	ImportPhaseError        AssetImportPhase = "error"
)

// FileImportError classifies a per-file failure during a scan.
type FileImportError string

const (
	FileErrorUnsupportedMediaType FileImportError = "unsupported_media_type"
	FileErrorIO                   FileImportError = "io_error"
	FileErrorUnexpected           FileImportError = "unexpected_error"
)

// AllowedMediaTypes maps recognized media file extensions (without dot) to
// their MIME content types.
var AllowedMediaTypes = map[string]string{
	"pdf":  "application/pdf",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"tif":  "image/tiff",
	"tiff": "image/tiff",
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"mp4":  "video/mp4",
}
