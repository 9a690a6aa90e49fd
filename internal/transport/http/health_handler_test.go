package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waterq/internal/pipeline"
	"waterq/internal/services"
	"waterq/internal/shared/testutil"
	"waterq/pkg/contracts"
)

func newHealthFixture(t *testing.T) (http.Handler, *services.DatasetService, string) {
	t.Helper()

	fixtures := testutil.NewDatasetFixtures(t.TempDir())
	path := testutil.WriteSourceCSV(t, fixtures.ValidSourceCSV())

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ds := services.NewDatasetService(path, pipeline.New(nil, nil), logger, nil)
	handler := NewHealthHandler(services.NewHealthService(ds, nil, logger), logger)

	r := chi.NewRouter()
	r.Get("/api/health", handler.HealthCheck)
	r.Get("/api/version", handler.Version)
	return r, ds, path
}

func TestHealthCheck(t *testing.T) {
	t.Run("healthy before first build", func(t *testing.T) {
		router, _, _ := newHealthFixture(t)

		rec := doGet(t, router, "/api/health")

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeJSON(t, rec)
		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, contracts.Version, body["version"])

		svcs := body["services"].(map[string]interface{})
		assert.Equal(t, "ok", svcs["source_file"])
		assert.Equal(t, "pending", svcs["dataset"])

		rt := body["runtime"].(map[string]interface{})
		assert.NotEmpty(t, rt["go_version"])
	})

	t.Run("reports builds once the dataset is served", func(t *testing.T) {
		router, ds, _ := newHealthFixture(t)
		_, err := ds.Snapshot(context.Background())
		require.NoError(t, err)

		rec := doGet(t, router, "/api/health")

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeJSON(t, rec)
		svcs := body["services"].(map[string]interface{})
		assert.Equal(t, "ready (1 builds)", svcs["dataset"])
	})

	t.Run("degraded when the source file disappears", func(t *testing.T) {
		router, _, path := newHealthFixture(t)
		require.NoError(t, os.Remove(path))

		rec := doGet(t, router, "/api/health")

		// Degradation shows in the body, never in the status code.
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeJSON(t, rec)
		assert.Equal(t, "degraded", body["status"])

		svcs := body["services"].(map[string]interface{})
		assert.Contains(t, svcs["source_file"], "unavailable")
	})
}

func TestVersion(t *testing.T) {
	router, _, _ := newHealthFixture(t)

	rec := doGet(t, router, "/api/version")

	require.Equal(t, http.StatusOK, rec.Code)

	var info contracts.VersionInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, contracts.Version, info.Version)
	assert.Equal(t, contracts.APIVersion, info.APIVersion)
	assert.NotEmpty(t, info.GoVersion)
}

func TestVersionRecorder(t *testing.T) {
	// Version must not require any service state.
	handler := NewHealthHandler(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	rec := httptest.NewRecorder()
	handler.Version(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), contracts.Version)
}
