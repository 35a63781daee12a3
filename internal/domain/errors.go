package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrCollectionNotFound    = errors.New("collection not found")
	ErrAssetNotFound         = errors.New("asset not found")
	ErrMediaNotFound         = errors.New("media file not found")
	ErrSessionNotFound       = errors.New("ingest session not found")
	ErrImportNotFound        = errors.New("asset import not found")
	ErrNotControlledDatabase = errors.New("referenced collection is not a controlled database")
	ErrInvalidSchema         = errors.New("invalid schema definition")
	ErrInvalidAccessControl  = errors.New("invalid access control value")
)

// FetchError is a precondition-not-met failure: the operation named a
// resource that exists but is not in a state that permits the request.
type FetchError struct {
	Message string
}

func (e *FetchError) Error() string { return e.Message }

// NewFetchError builds a FetchError with a formatted message.
func NewFetchError(format string, args ...interface{}) *FetchError {
	return &FetchError{Message: fmt.Sprintf(format, args...)}
}

// ValidationError carries per-field messages for a single record.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %d field(s)", len(e.Fields))
}

// AggregatedFailure is one failure message with the number of records it
// affected.
type AggregatedFailure struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// AggregatedValidationError carries per-field failure counts across many
// records. Failures are aggregated per property, not per record, so the
// error stays bounded for large collections.
type AggregatedValidationError struct {
	Fields map[string][]AggregatedFailure
}

func (e *AggregatedValidationError) Error() string {
	return fmt.Sprintf("validation failed for %d propert(ies) across the collection", len(e.Fields))
}

// BlockingReference identifies one asset whose metadata would be broken by a
// delete or move.
type BlockingReference struct {
	AssetID          uuid.UUID `json:"asset_id"`
	AssetTitle       string    `json:"asset_title"`
	CollectionID     uuid.UUID `json:"collection_id"`
	CollectionTitle  string    `json:"collection_title"`
	PropertyID       string    `json:"property_id"`
	PropertyLabel    string    `json:"property_label"`
	ReferencedItemID uuid.UUID `json:"referenced_item_id"`
}

// ReferentialIntegrityError enumerates every reference that blocks a delete
// or move.
type ReferentialIntegrityError struct {
	Blocking []BlockingReference
}

func (e *ReferentialIntegrityError) Error() string {
	return fmt.Sprintf("%d blocking reference(s) prevent this operation", len(e.Blocking))
}
