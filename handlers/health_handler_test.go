package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub014/services/routing"
)

func TestHandleHealth(t *testing.T) {
	handler := NewHealthHandler(nil, nil, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	handler.HandleHealth(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestHandleReadinessAllHealthy(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer mockDB.Close()

	mock.ExpectPing()
	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	availability := routing.NewAvailabilityRegistry(map[string]bool{"openai": true})
	handler := NewHealthHandler(mockDB, availability, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	w := httptest.NewRecorder()
	handler.HandleReadiness(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data HealthResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "healthy", resp.Data.Status)
	assert.Equal(t, "healthy", resp.Data.Checks["database"])
	assert.Equal(t, "healthy", resp.Data.Checks["providers"])
}

func TestHandleReadinessDatabaseDown(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer mockDB.Close()

	mock.ExpectPing().WillReturnError(assert.AnError)

	availability := routing.NewAvailabilityRegistry(map[string]bool{"openai": true})
	handler := NewHealthHandler(mockDB, availability, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	w := httptest.NewRecorder()
	handler.HandleReadiness(w, req)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp struct {
		Data HealthResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "unhealthy", resp.Data.Status)
	assert.Equal(t, "unhealthy", resp.Data.Checks["database"])
}

func TestHandleReadinessNoProviders(t *testing.T) {
	availability := routing.NewAvailabilityRegistry(map[string]bool{
		"openai":     false,
		"openrouter": false,
	})
	handler := NewHealthHandler(nil, availability, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	w := httptest.NewRecorder()
	handler.HandleReadiness(w, req)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp struct {
		Data HealthResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "healthy", resp.Data.Checks["database"])
	assert.Equal(t, "unhealthy", resp.Data.Checks["providers"])
}
