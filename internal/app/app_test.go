package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MMucahit/borsa/internal/config"
	"github.com/MMucahit/borsa/internal/infrastructure"
	"github.com/MMucahit/borsa/internal/shared/testutil"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = freePort(t)
	cfg.Server.WorkspaceDir = t.TempDir()
	cfg.Server.ShutdownTimeout = 5 * time.Second
	cfg.Security.RateLimit.Enabled = false
	return cfg
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func newTestApp(t *testing.T, cfg *config.Config) *Application {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	a, err := New(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = a.OTelProviders.Shutdown(context.Background())
	})
	return a
}

func serve(a *Application, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestNew(t *testing.T) {
	cfg := testConfig(t)
	a := newTestApp(t, cfg)

	require.NotNil(t, a.Router)
	require.NotNil(t, a.Server)
	assert.Equal(t, cfg.Server.Address(), a.Server.Addr)
	assert.Equal(t, cfg.Server.WriteTimeout, a.Server.WriteTimeout)
	assert.NotNil(t, a.Engine)
	assert.NotNil(t, a.RunService)
	assert.NotNil(t, a.HealthService)
	assert.NotNil(t, a.Metrics)
}

func TestNewRejectsUnknownExporter(t *testing.T) {
	cfg := testConfig(t)
	cfg.Telemetry.TraceExporter = "jaeger"

	logger, _ := testutil.NewTestLogger(t)
	_, err := New(cfg, logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported trace exporter")
}

func TestRouter(t *testing.T) {
	a := newTestApp(t, testConfig(t))

	tests := []struct {
		name        string
		method      string
		path        string
		wantStatus  int
		wantContent string
	}{
		{"health", http.MethodGet, "/api/health", http.StatusOK, `"status":"ok"`},
		{"version", http.MethodGet, "/api/version", http.StatusOK, `"api_version":"v1"`},
		{"unknown route", http.MethodGet, "/nope", http.StatusNotFound, "Not Found"},
		{"unknown run", http.MethodGet, "/api/runs/missing", http.StatusNotFound, "RUN_NOT_FOUND"},
		{"wrong method", http.MethodPost, "/api/runs/abc/summary", http.StatusMethodNotAllowed, "Method Not Allowed"},
		{"metrics", http.MethodGet, "/metrics", http.StatusOK, "go_goroutines"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(a, tt.method, tt.path)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), tt.wantContent)
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
			assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		})
	}
}

func TestMetricsDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Telemetry.MetricExporter = "none"
	a := newTestApp(t, cfg)

	rec := serve(a, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Security.RateLimit = config.RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 1}
	a := newTestApp(t, cfg)

	assert.Equal(t, http.StatusOK, serve(a, http.MethodGet, "/api/health").Code)

	rec := serve(a, http.MethodGet, "/api/health")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestReconcileThroughRouter(t *testing.T) {
	a := newTestApp(t, testConfig(t))

	takas, akd := testutil.ReconcileArchives(t)
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for field, payload := range map[string][]byte{"takas": takas, "akd": akd} {
		fw, err := mw.CreateFormFile(field, field+".zip")
		require.NoError(t, err)
		_, err = fw.Write(payload)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/reconcile", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var run struct {
		RunID string `json:"run_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	require.NotEmpty(t, run.RunID)
	assert.Equal(t, 1, a.RunService.CachedRuns())

	summary := serve(a, http.MethodGet, "/api/runs/"+run.RunID+"/summary")
	assert.Equal(t, http.StatusOK, summary.Code)

	metrics := serve(a, http.MethodGet, "/metrics")
	assert.Contains(t, metrics.Body.String(), "reconcile_runs_total")
}

func TestRunGracefulShutdown(t *testing.T) {
	cfg := testConfig(t)
	a := newTestApp(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	url := fmt.Sprintf("http://%s/api/health", cfg.Server.Address())
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	_, err := http.Get(url)
	assert.Error(t, err)
}

func TestStopClosesLogFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.Logging.Output = "file"
	cfg.Logging.FilePath = filepath.Join(t.TempDir(), "logs", "borsa.log")

	logger, err := infrastructure.NewLogger(cfg.Logging, io.Discard)
	require.NoError(t, err)
	t.Cleanup(func() { _ = infrastructure.CloseLogFile() })

	a, err := New(cfg, logger)
	require.NoError(t, err)
	require.NoError(t, a.Stop(context.Background()))

	logger.Info("written after stop")

	data, err := os.ReadFile(cfg.Logging.FilePath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Application shutdown complete")
	assert.NotContains(t, string(data), "written after stop")
}
