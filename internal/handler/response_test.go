package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"arkival/internal/domain"
	"arkival/internal/handler"
)

func recordError(t *testing.T, err error) (*httptest.ResponseRecorder, handler.APIResponse) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	handler.HandleError(c, err)

	var resp handler.APIResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func TestHandleError_SentinelMapping(t *testing.T) {
	w, resp := recordError(t, domain.ErrAssetNotFound)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, "ASSET_NOT_FOUND", resp.Error.Code)
}

func TestHandleError_ValidationErrorCarriesFields(t *testing.T) {
	w, resp := recordError(t, &domain.ValidationError{
		Fields: domain.FieldErrors{"title": {"required"}},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "VALIDATION_FAILED", resp.Error.Code)
	assert.NotNil(t, resp.Error.Details)
}

func TestHandleError_AggregatedValidationError(t *testing.T) {
	w, resp := recordError(t, &domain.AggregatedValidationError{
		Fields: map[string][]domain.AggregatedFailure{
			"creator": {{Message: "Record does not exist in referenced database", Count: 12}},
		},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "COLLECTION_VALIDATION_FAILED", resp.Error.Code)
}

func TestHandleError_ReferentialIntegrityConflict(t *testing.T) {
	w, resp := recordError(t, &domain.ReferentialIntegrityError{
		Blocking: []domain.BlockingReference{{AssetID: uuid.New(), PropertyID: "creator"}},
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "BLOCKING_REFERENCES", resp.Error.Code)
}

func TestHandleError_FetchErrorIsBadRequest(t *testing.T) {
	w, resp := recordError(t, domain.NewFetchError("session %s is already cancelled", uuid.New()))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", resp.Error.Code)
}

func TestHandleError_UnknownErrorIsInternal(t *testing.T) {
	w, resp := recordError(t, assert.AnError)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", resp.Error.Code)
}
