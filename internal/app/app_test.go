package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-gradebook/pkg/config"
	"github.com/noah-isme/sma-gradebook/pkg/logger"
)

func testConfig(t *testing.T, backendURL string) *config.Config {
	t.Helper()
	return &config.Config{
		Env:       config.EnvDevelopment,
		APIPrefix: "/api/v1",
		Backend:   config.BackendConfig{BaseURL: backendURL, Timeout: 2 * time.Second},
		Fallback:  config.FallbackConfig{Enabled: true, WritePolicy: config.FallbackWriteAcknowledge},
		JWT:       config.JWTConfig{Secret: "test-secret", Issuer: "test", Expiration: time.Hour},
		Uploads: config.UploadsConfig{
			StorageDir:       t.TempDir(),
			SignedURLSecret:  "upload-secret",
			SignedURLTTL:     time.Hour,
			MaxFileSizeBytes: 1024,
		},
	}
}

type envelope struct {
	Data  json.RawMessage        `json:"data"`
	Error map[string]interface{} `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func doJSON(t *testing.T, h http.Handler, method, path, token, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func login(t *testing.T, h http.Handler, username string) string {
	t.Helper()
	rec, env := doJSON(t, h, http.MethodPost, "/api/v1/auth/login", "", `{"username":"`+username+`","password":"pw"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	require.NotEmpty(t, res.AccessToken)
	return res.AccessToken
}

func TestGatewayServesFallbackWhileBackendIsDown(t *testing.T) {
	var calls atomic.Int32
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer backend.Close()

	a, err := New(context.Background(), testConfig(t, backend.URL), nil, Options{})
	require.NoError(t, err)
	defer a.Close() //nolint:errcheck
	router := a.Router()

	token := login(t, router, "student42")

	rec, env := doJSON(t, router, http.MethodGet, "/api/v1/student/assignments", token, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var book struct {
		StudentID int64 `json:"student_id"`
		Items     []struct {
			Status string `json:"status"`
		} `json:"items"`
		WeightedPercentage *float64 `json:"weighted_percentage"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &book))
	assert.Equal(t, int64(101), book.StudentID)
	assert.Len(t, book.Items, 3)
	require.NotNil(t, book.WeightedPercentage)
	assert.NotContains(t, env.Meta, "degraded")

	rec, env = doJSON(t, router, http.MethodPut, "/api/v1/student/submissions/1/note", token, `{"student_note":"late"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, env.Meta["degraded"])
	assert.Equal(t, "true", rec.Header().Get(logger.FallbackHeader))

	rec, _ = doJSON(t, router, http.MethodGet, "/api/v1/student/export/pdf", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))

	rec, _ = doJSON(t, router, http.MethodGet, "/api/v1/teacher/students", token, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	assert.Positive(t, calls.Load())
}

func TestGatewayPassesBackendRejections(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/auth/login":
			_, _ = w.Write([]byte(`{"id":1,"username":"profA","role":"teacher"}`))
		case "/teacher/students/101/submissions":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail":"Student not found"}`))
		default:
			_, _ = w.Write([]byte(`[]`))
		}
	}))
	defer backend.Close()

	a, err := New(context.Background(), testConfig(t, backend.URL), nil, Options{})
	require.NoError(t, err)
	router := a.Router()

	token := login(t, router, "profA")

	rec, env := doJSON(t, router, http.MethodGet, "/api/v1/teacher/students/101/submissions", token, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Student not found", env.Error["message"])

	rec, _ = doJSON(t, router, http.MethodGet, "/api/v1/teacher/students", token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = doJSON(t, router, http.MethodPost, "/api/v1/auth/logout", token, "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec, _ = doJSON(t, router, http.MethodGet, "/api/v1/teacher/students", token, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGatewayRejectPolicySurfacesUnavailable(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer backend.Close()

	cfg := testConfig(t, backend.URL)
	cfg.Fallback.WritePolicy = config.FallbackWriteReject
	a, err := New(context.Background(), cfg, nil, Options{})
	require.NoError(t, err)
	router := a.Router()

	token := login(t, router, "mock_teacher")

	rec, env := doJSON(t, router, http.MethodPut, "/api/v1/teacher/submissions/3/grade", token, `{"student_id":101,"score":15}`)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code, rec.Body.String())
	assert.Equal(t, "UPSTREAM_UNAVAILABLE", env.Error["code"])
}

func TestOpsEndpoints(t *testing.T) {
	a, err := New(context.Background(), testConfig(t, "http://127.0.0.1:1"), nil, Options{})
	require.NoError(t, err)
	router := a.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}
