package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()

	err := WriteJSON(w, http.StatusTeapot, map[string]string{"hello": "world"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "world", body["hello"])
}

func TestWriteJSONNilBody(t *testing.T) {
	w := httptest.NewRecorder()

	require.NoError(t, WriteJSON(w, http.StatusOK, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestWriteOK(t *testing.T) {
	w := httptest.NewRecorder()

	require.NoError(t, WriteOK(w, map[string]int{"count": 3}))
	assert.Equal(t, http.StatusOK, w.Code)

	var resp SuccessResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.NotNil(t, resp.Data)
}

func TestWriteBadRequest(t *testing.T) {
	w := httptest.NewRecorder()

	details := map[string]interface{}{"field": "timeout"}
	require.NoError(t, WriteBadRequest(w, "invalid request", details))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "bad_request", resp.Error)
	assert.Equal(t, "invalid request", resp.Message)
	assert.Contains(t, resp.Details, "field")
}

func TestWriteUnauthorizedDefaultMessage(t *testing.T) {
	w := httptest.NewRecorder()

	require.NoError(t, WriteUnauthorized(w, ""))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "unauthorized", resp.Error)
	assert.Equal(t, "Authentication required", resp.Message)
}

func TestWriteNotFound(t *testing.T) {
	w := httptest.NewRecorder()

	require.NoError(t, WriteNotFound(w, "no such request"))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decodeError(t, w).Error)
}

func TestWriteInternalServerError(t *testing.T) {
	w := httptest.NewRecorder()

	require.NoError(t, WriteInternalServerError(w, ""))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "internal_error", resp.Error)
	assert.Equal(t, "Internal server error", resp.Message)
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()

	require.NoError(t, WriteError(w, http.StatusBadGateway, "all_candidates_failed", "every backend failed", nil))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "all_candidates_failed", resp.Error)
	assert.Equal(t, "every backend failed", resp.Message)
}
