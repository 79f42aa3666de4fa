package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/applytrack/internal/config"
	"github.com/timmy/applytrack/internal/logger"
	"github.com/timmy/applytrack/internal/repository"
	"github.com/timmy/applytrack/internal/service"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	db, err := repository.InitDB(&config.DatabaseConfig{
		Driver:      "sqlite",
		Path:        filepath.Join(t.TempDir(), "api.db"),
		AutoMigrate: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	log := logger.New(&logger.Config{Level: "debug", Format: "json", Output: &bytes.Buffer{}})
	apps := repository.NewApplicationRepository(db)
	settings := repository.NewSettingsRepository(db)
	jobs := repository.NewImportJobRepository(db)

	svc := &Services{
		Applications: service.NewApplicationService(apps, log),
		Analytics:    service.NewAnalyticsService(apps, log, nil),
		Imports:      service.NewImportService(apps, jobs, log, nil),
		Catalog:      service.NewStatusCatalogService(settings, apps, log),
		Ping:         sqlDB.PingContext,
	}
	return SetupRouter(svc, log, RouterConfig{
		Mode: "test",
		CORS: config.CORSConfig{AllowAllOrigins: true},
	})
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
}

func TestRequestIDIsEchoed(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
}

func TestApplicationLifecycle(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/v1/applications", map[string]any{
		"company":      "Acme",
		"title":        "Backend Engineer",
		"date_applied": "2024-01-10",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	assert.Equal(t, "Applied", created["status"])
	id := int64(created["id"].(float64))
	path := fmt.Sprintf("/api/v1/applications/%d", id)

	w = do(t, r, http.MethodPatch, path, map[string]any{"status": "Interview"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Interview", decode(t, w)["status"])

	w = do(t, r, http.MethodGet, path+"/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	history := decode(t, w)["history"].([]any)
	require.Len(t, history, 2)
	assert.Equal(t, "Interview", history[0].(map[string]any)["status"], "newest first")
	assert.Equal(t, "Applied", history[1].(map[string]any)["status"])

	w = do(t, r, http.MethodGet, "/api/v1/applications", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["total"])

	w = do(t, r, http.MethodGet, "/api/v1/history?limit=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["activity"], 2)

	w = do(t, r, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, r, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateApplication_Errors(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		name      string
		body      map[string]any
		wantField string
	}{
		{
			name:      "missing company",
			body:      map[string]any{"title": "Engineer"},
			wantField: "company",
		},
		{
			name:      "blank title",
			body:      map[string]any{"company": "Acme", "title": "   "},
			wantField: "title",
		},
		{
			name:      "bad date",
			body:      map[string]any{"company": "Acme", "title": "Engineer", "date_applied": "someday"},
			wantField: "date_applied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, http.MethodPost, "/api/v1/applications", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.wantField, decode(t, w)["field"])
		})
	}

	w := do(t, r, http.MethodGet, "/api/v1/applications", nil)
	assert.EqualValues(t, 0, decode(t, w)["total"])
}

func TestApplicationByID_BadAndMissing(t *testing.T) {
	r := newTestRouter(t)

	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodGet, "/api/v1/applications/abc", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/api/v1/applications/99", nil).Code)
	assert.Equal(t, http.StatusNotFound,
		do(t, r, http.MethodPatch, "/api/v1/applications/99", map[string]any{"status": "Offer"}).Code)
}

func TestStats(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	empty := decode(t, w)
	assert.EqualValues(t, 0, empty["total"])
	assert.Nil(t, empty["avg_response_days"])

	do(t, r, http.MethodPost, "/api/v1/applications", map[string]any{
		"company": "Acme", "title": "Data Engineer", "status": "Interview",
	})

	w = do(t, r, http.MethodGet, "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode(t, w)
	assert.EqualValues(t, 1, stats["total"])
	assert.EqualValues(t, 100, stats["interview_rate"])

	w = do(t, r, http.MethodGet, "/api/v1/analytics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestImportRecords(t *testing.T) {
	r := newTestRouter(t)
	rows := []map[string]any{
		{"Company": "Acme", "Job Title": "Engineer", "Stage": "Applied", "Date Applied": "2024-01-10"},
		{"Company": "Globex", "Job Title": "Analyst", "Stage": "Interview", "Date Applied": 45306},
		{"Company": "", "Job Title": "Nobody"},
	}

	w := do(t, r, http.MethodPost, "/api/v1/import?source=tracker", rows)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	first := decode(t, w)
	assert.EqualValues(t, 2, first["added"])
	assert.EqualValues(t, 0, first["updated"])
	assert.EqualValues(t, 1, first["skipped"])

	w = do(t, r, http.MethodPost, "/api/v1/import?source=tracker", rows)
	require.Equal(t, http.StatusOK, w.Code)
	second := decode(t, w)
	assert.EqualValues(t, 0, second["added"])
	assert.EqualValues(t, 2, second["updated"])

	w = do(t, r, http.MethodGet, "/api/v1/applications", nil)
	assert.EqualValues(t, 2, decode(t, w)["total"])

	w = do(t, r, http.MethodGet, "/api/v1/imports", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["jobs"], 2)
}

func TestImportSheet(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/v1/import/sheet", map[string]any{
		"headers": []string{"Employer", "Position", "Status"},
		"rows":    [][]any{{"Acme", "Engineer", "Offer"}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 1, decode(t, w)["added"])

	w = do(t, r, http.MethodPost, "/api/v1/import/sheet", map[string]any{"rows": [][]any{{"x"}}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/import", map[string]any{"not": "an array"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatusCatalog(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/api/v1/statuses", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["statuses"], 8)

	w = do(t, r, http.MethodPost, "/api/v1/statuses", map[string]any{"label": "Ghosted"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode(t, w)["statuses"], "Ghosted")

	w = do(t, r, http.MethodPost, "/api/v1/statuses", map[string]any{"label": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	do(t, r, http.MethodPost, "/api/v1/applications", map[string]any{
		"company": "Acme", "title": "Engineer", "status": "Ghosted",
	})

	w = do(t, r, http.MethodDelete, "/api/v1/statuses/Ghosted?migrate_to=Rejected", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	retired := decode(t, w)
	assert.NotContains(t, retired["statuses"], "Ghosted")
	assert.EqualValues(t, 1, retired["migrated"])

	w = do(t, r, http.MethodPost, "/api/v1/statuses/migrate", map[string]any{"from": "Rejected", "to": "Withdrawn"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["migrated"])

	w = do(t, r, http.MethodGet, "/api/v1/statuses/usage", nil)
	require.Equal(t, http.StatusOK, w.Code)
	usage := decode(t, w)["usage"].([]any)
	counts := map[string]float64{}
	for _, u := range usage {
		m := u.(map[string]any)
		counts[m["status"].(string)] = m["count"].(float64)
	}
	assert.EqualValues(t, 1, counts["Withdrawn"])

	w = do(t, r, http.MethodPost, "/api/v1/statuses/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["statuses"], 8)
}

func TestCORSPreflight(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/applications", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
