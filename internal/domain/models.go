package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SchemaProperty is one typed, named slot in a collection's metadata
// contract. The Type field discriminates the union; DatabaseID is only
// meaningful for controlled-database properties and must reference an
// existing collection of type controlled_database.
type SchemaProperty struct {
	ID         string       `json:"id"`
	Label      string       `json:"label"`
	Type       PropertyType `json:"type"`
	Required   bool         `json:"required"`
	Repeated   bool         `json:"repeated"`
	Visible    bool         `json:"visible"`
	DatabaseID *uuid.UUID   `json:"database_id,omitempty"`
}

// Schema is an ordered list of schema properties. Order is significant: the
// first property is conventionally used as an asset's display title.
type Schema []SchemaProperty

// Value implements driver.Valuer so a Schema persists as a JSONB column.
func (s Schema) Value() (driver.Value, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s)
}

// Scan implements sql.Scanner for reading a Schema from a JSONB column.
func (s *Schema) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*s = nil
		return nil
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("schema: cannot scan %T", src)
	}
}

// Property returns the property with the given id, or nil.
func (s Schema) Property(id string) *SchemaProperty {
	for i := range s {
		if s[i].ID == id {
			return &s[i]
		}
	}
	return nil
}

// Collection groups assets (or controlled-vocabulary records) under a
// user-defined metadata schema.
type Collection struct {
	ID        uuid.UUID      `db:"id" json:"id"`
	Title     string         `db:"title" json:"title"`
	Type      CollectionType `db:"type" json:"type"`
	Schema    Schema         `db:"schema" json:"schema"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// PresentationValue pairs a raw metadata value with a display label. It is
// derived, never authoritative.
type PresentationValue struct {
	RawValue interface{} `json:"raw_value"`
	Label    string      `json:"label"`
}

// MetadataItem holds the values of one property on one asset. The canonical
// representation is always a list: a non-repeated property holds 0 or 1
// elements. Presentation, when present, parallels RawValue element for
// element.
type MetadataItem struct {
	RawValue     []interface{}       `json:"raw_value"`
	Presentation []PresentationValue `json:"presentation,omitempty"`
}

// Metadata maps property id to the asset's values for that property.
type Metadata map[string]MetadataItem

// Value implements driver.Valuer so Metadata persists as a JSONB column.
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner for reading Metadata from a JSONB column.
func (m *Metadata) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*m = nil
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("metadata: cannot scan %T", src)
	}
}

// FieldErrors maps property id to validation messages for one record.
type FieldErrors map[string][]string

// Value implements driver.Valuer; a nil map persists as SQL NULL.
func (f FieldErrors) Value() (driver.Value, error) {
	if f == nil {
		return nil, nil
	}
	return json.Marshal(f)
}

// Scan implements sql.Scanner for reading FieldErrors from a JSONB column.
func (f *FieldErrors) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*f = nil
		return nil
	case []byte:
		return json.Unmarshal(v, f)
	case string:
		return json.Unmarshal([]byte(v), f)
	default:
		return fmt.Errorf("field errors: cannot scan %T", src)
	}
}

// Asset is a canonical catalog record within a collection.
type Asset struct {
	ID            uuid.UUID     `db:"id" json:"id"`
	CollectionID  uuid.UUID     `db:"collection_id" json:"collection_id"`
	Title         string        `db:"title" json:"title"`
	Metadata      Metadata      `db:"metadata" json:"metadata"`
	AccessControl AccessControl `db:"access_control" json:"access_control"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`

	// Media is loaded separately; it is not a column.
	Media []MediaFile `db:"-" json:"media,omitempty"`
}

// MediaFile is a stored media blob, content-addressed by sha256. Deleting an
// asset detaches its media rather than deleting it.
type MediaFile struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	SHA256    string     `db:"sha256" json:"sha256"`
	MimeType  string     `db:"mime_type" json:"mime_type"`
	FileSize  int64      `db:"file_size" json:"file_size"`
	AssetID   *uuid.UUID `db:"asset_id" json:"asset_id"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// StorageKey returns the object-storage key for the blob.
func (m *MediaFile) StorageKey() string {
	return "media/" + m.SHA256
}

// IngestSession is one bounded unit of bulk import into a target collection.
type IngestSession struct {
	ID                 uuid.UUID    `db:"id" json:"id"`
	BasePath           string       `db:"base_path" json:"base_path"`
	TargetCollectionID uuid.UUID    `db:"target_collection_id" json:"target_collection_id"`
	Phase              SessionPhase `db:"phase" json:"phase"`
	CreatedAt          time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time    `db:"updated_at" json:"updated_at"`
}

// AssetImport is the transient per-asset state tracked during an ingest
// session prior to commit.
type AssetImport struct {
	ID               uuid.UUID        `db:"id" json:"id"`
	SessionID        uuid.UUID        `db:"session_id" json:"session_id"`
	Path             string           `db:"path" json:"path"`
	Metadata         Metadata         `db:"metadata" json:"metadata"`
	AccessControl    AccessControl    `db:"access_control" json:"access_control"`
	Phase            AssetImportPhase `db:"phase" json:"phase"`
	ValidationErrors FieldErrors      `db:"validation_errors" json:"validation_errors,omitempty"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updated_at"`

	// Files is loaded separately; it is not a column.
	Files []FileImport `db:"-" json:"files,omitempty"`
}

// FileImport is the transient per-file state tracked during an ingest
// session. StagingPath points at the temporary copy made during the scan.
type FileImport struct {
	ID            uuid.UUID        `db:"id" json:"id"`
	AssetImportID uuid.UUID        `db:"asset_import_id" json:"asset_import_id"`
	Path          string           `db:"path" json:"path"`
	StagingPath   string           `db:"staging_path" json:"-"`
	SHA256        string           `db:"sha256" json:"sha256"`
	MimeType      string           `db:"mime_type" json:"mime_type"`
	FileSize      int64            `db:"file_size" json:"file_size"`
	MediaID       *uuid.UUID       `db:"media_id" json:"media_id"`
	Error         *FileImportError `db:"error" json:"error,omitempty"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
}
