package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"arkival/internal/domain"
	"arkival/internal/middleware"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *PagMeta    `json:"meta,omitempty"`
}

// APIError holds error details in the response. Details carries structured
// payloads for validation and integrity failures.
type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// PagMeta holds pagination metadata.
type PagMeta struct {
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondCreated sends a 201 success response.
func RespondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// RespondAccepted sends a 202 success response.
func RespondAccepted(c *gin.Context, data interface{}) {
	c.JSON(http.StatusAccepted, APIResponse{Success: true, Data: data})
}

// RespondPaginated sends a 200 success response with pagination metadata.
func RespondPaginated(c *gin.Context, data interface{}, meta PagMeta) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data, Meta: &meta})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// HandleError maps a domain error and sends the appropriate error response.
// Typed errors carry their structured payload into the details field.
func HandleError(c *gin.Context, err error) {
	var (
		validation *domain.ValidationError
		aggregated *domain.AggregatedValidationError
		integrity  *domain.ReferentialIntegrityError
		fetch      *domain.FetchError
	)
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusUnprocessableEntity, APIResponse{
			Success: false,
			Error:   &APIError{Code: "VALIDATION_FAILED", Message: validation.Error(), Details: validation.Fields},
		})
		return
	case errors.As(err, &aggregated):
		c.JSON(http.StatusUnprocessableEntity, APIResponse{
			Success: false,
			Error:   &APIError{Code: "COLLECTION_VALIDATION_FAILED", Message: aggregated.Error(), Details: aggregated.Fields},
		})
		return
	case errors.As(err, &integrity):
		c.JSON(http.StatusConflict, APIResponse{
			Success: false,
			Error:   &APIError{Code: "BLOCKING_REFERENCES", Message: integrity.Error(), Details: integrity.Blocking},
		})
		return
	case errors.As(err, &fetch):
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", fetch.Message)
		return
	}

	status, code, msg := MapDomainError(err)
	if status >= 500 {
		log.Printf("http: internal error rid=%s: %v", c.GetString(middleware.RequestIDKey), err)
	}
	RespondError(c, status, code, msg)
}

// MapDomainError translates domain sentinel errors to HTTP status codes and
// error codes.
func MapDomainError(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, domain.ErrCollectionNotFound):
		return http.StatusNotFound, "COLLECTION_NOT_FOUND", "collection not found"
	case errors.Is(err, domain.ErrAssetNotFound):
		return http.StatusNotFound, "ASSET_NOT_FOUND", "asset not found"
	case errors.Is(err, domain.ErrMediaNotFound):
		return http.StatusNotFound, "MEDIA_NOT_FOUND", "media file not found"
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound, "SESSION_NOT_FOUND", "ingest session not found"
	case errors.Is(err, domain.ErrImportNotFound):
		return http.StatusNotFound, "IMPORT_NOT_FOUND", "asset import not found"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "resource not found"
	case errors.Is(err, domain.ErrInvalidSchema):
		return http.StatusBadRequest, "INVALID_SCHEMA", err.Error()
	case errors.Is(err, domain.ErrNotControlledDatabase):
		return http.StatusBadRequest, "NOT_CONTROLLED_DATABASE", "referenced collection is not a controlled database"
	case errors.Is(err, domain.ErrInvalidAccessControl):
		return http.StatusBadRequest, "INVALID_ACCESS_CONTROL", "access control must be public or restricted"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid credentials"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}
