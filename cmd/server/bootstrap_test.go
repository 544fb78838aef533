package main

import (
	"context"
	"flag"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/charlesng35/huddle/internal/app"
)

func testConfig(t *testing.T) *app.Config {
	t.Helper()
	return &app.Config{
		Server: app.ServerConfig{
			CORS: app.CORSConfig{AllowedOrigins: []string{"https://huddle.example.com"}},
		},
		Database: app.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "huddle.sqlite")},
		Auth: app.AuthConfig{
			JWT: app.JWTSettings{Secret: "bootstrap-secret", TTL: time.Hour},
		},
		Monitoring: app.MonitoringConfig{Health: app.HealthConfig{Enabled: true}},
		Features:   app.FeatureConfig{Realtime: app.RealtimeFeatureConfig{Enabled: true}},
		Maintenance: app.MaintenanceConfig{
			Enabled:               true,
			AuditRetentionDays:    30,
			AuditSchedule:         "@daily",
			PendingReportSchedule: "@hourly",
			PendingStaleAfter:     time.Hour,
		},
	}
}

func TestBootstrapRuntimeServesHealth(t *testing.T) {
	log := zaptest.NewLogger(t)
	stack, err := bootstrapRuntime(testConfig(t), log)
	require.NoError(t, err)
	t.Cleanup(func() { stack.Shutdown(context.Background(), log) })

	require.NotNil(t, stack.Hub)
	require.NotNil(t, stack.Cleaner)

	w := httptest.NewRecorder()
	stack.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	report := stack.Health.EvaluateReadiness(context.Background())
	require.Len(t, report.Checks, 3)

	// a closed hub takes the instance out of rotation
	stack.Hub.Close()
	w = httptest.NewRecorder()
	stack.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, w.Code, w.Body.String())
}

func TestBootstrapRuntimeCORS(t *testing.T) {
	log := zaptest.NewLogger(t)
	stack, err := bootstrapRuntime(testConfig(t), log)
	require.NoError(t, err)
	t.Cleanup(func() { stack.Shutdown(context.Background(), log) })

	req := httptest.NewRequest(http.MethodOptions, "/api/sections", nil)
	req.Header.Set("Origin", "https://huddle.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	stack.Handler.ServeHTTP(w, req)
	require.Equal(t, "https://huddle.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	stack.Handler.ServeHTTP(w, req)
	require.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestBootstrapRuntimeRejectsBadSchedule(t *testing.T) {
	cfg := testConfig(t)
	cfg.Maintenance.AuditSchedule = "whenever"

	_, err := bootstrapRuntime(cfg, zaptest.NewLogger(t))
	require.Error(t, err)
}

func TestShutdownIsSafeOnPartialStack(t *testing.T) {
	var nilStack *runtimeStack
	nilStack.Shutdown(context.Background(), zaptest.NewLogger(t))
	(&runtimeStack{}).Shutdown(context.Background(), zaptest.NewLogger(t))
}

func TestLoadApplicationConfigMissingPath(t *testing.T) {
	_, err := loadApplicationConfig(filepath.Join(t.TempDir(), "nope"))
	require.ErrorContains(t, err, "does not exist")
}

func TestRunHelpFlag(t *testing.T) {
	err := run(context.Background(), []string{"-h"})
	require.ErrorIs(t, err, flag.ErrHelp)
}

func TestLoadEnvFileKeepsRealEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "huddle.env")
	require.NoError(t, os.WriteFile(path, []byte("HUDDLE_ENVFILE_PORT=9090\nHUDDLE_ENVFILE_LEVEL=debug\n"), 0o600))
	t.Setenv("HUDDLE_ENVFILE_LEVEL", "warn")
	t.Cleanup(func() { _ = os.Unsetenv("HUDDLE_ENVFILE_PORT") })

	require.NoError(t, loadEnvFile(path))
	require.Equal(t, "9090", os.Getenv("HUDDLE_ENVFILE_PORT"))
	require.Equal(t, "warn", os.Getenv("HUDDLE_ENVFILE_LEVEL"))

	require.NoError(t, loadEnvFile(filepath.Join(t.TempDir(), "missing.env")))
	require.NoError(t, loadEnvFile("  "))
}
