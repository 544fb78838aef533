package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/huddle/internal/app"
	iauth "github.com/charlesng35/huddle/internal/auth"
	"github.com/charlesng35/huddle/internal/database/testutil"
	"github.com/charlesng35/huddle/internal/monitoring"
	"github.com/charlesng35/huddle/internal/realtime"
)

func newTestRouter(t *testing.T, mutate func(*app.Config), hub *realtime.Hub) *gin.Engine {
	t.Helper()
	return newTestRouterWithHealth(t, mutate, hub, nil)
}

func newTestRouterWithHealth(t *testing.T, mutate func(*app.Config), hub *realtime.Hub, health *monitoring.HealthManager) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{Secret: "router-secret", Issuer: "test", AccessTokenTTL: time.Hour})
	require.NoError(t, err)

	cfg := &app.Config{
		Monitoring: app.MonitoringConfig{
			Prometheus: app.PrometheusConfig{Enabled: true, Endpoint: "/metrics"},
			Health:     app.HealthConfig{Enabled: true},
		},
		Features: app.FeatureConfig{Realtime: app.RealtimeFeatureConfig{Enabled: true}},
	}
	if mutate != nil {
		mutate(cfg)
	}

	router, err := NewRouter(Dependencies{DB: db, JWT: jwtSvc, Config: cfg, Hub: hub, Health: health})
	require.NoError(t, err)
	return router
}

func serve(router http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestNewRouterRequiresDependencies(t *testing.T) {
	_, err := NewRouter(Dependencies{})
	require.Error(t, err)
}

func TestRouterPublicAndProtectedRoutes(t *testing.T) {
	router := newTestRouter(t, nil, nil)

	require.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/health").Code)
	require.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/health/live").Code)
	require.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/api/sections").Code)
	require.Equal(t, http.StatusUnauthorized, serve(router, http.MethodGet, "/api/me/sections").Code)
	require.Equal(t, http.StatusUnauthorized, serve(router, http.MethodPost, "/api/events").Code)
	require.Equal(t, http.StatusNotFound, serve(router, http.MethodGet, "/api/nope").Code)

	// no hub configured
	require.Equal(t, http.StatusNotFound, serve(router, http.MethodGet, "/ws").Code)
}

func TestRouterMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, nil, nil)

	require.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/health").Code)

	w := serve(router, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "huddle_api_latency_seconds")

	disabled := newTestRouter(t, func(cfg *app.Config) {
		cfg.Monitoring.Prometheus.Enabled = false
		cfg.Monitoring.Health.Enabled = false
	}, nil)
	require.Equal(t, http.StatusNotFound, serve(disabled, http.MethodGet, "/metrics").Code)
	require.Equal(t, http.StatusNotFound, serve(disabled, http.MethodGet, "/health").Code)
}

func TestRouterRealtimeRequiresToken(t *testing.T) {
	hub := realtime.NewHub()
	t.Cleanup(hub.Close)

	router := newTestRouter(t, nil, hub)
	require.Equal(t, http.StatusUnauthorized, serve(router, http.MethodGet, "/ws").Code)
	require.Equal(t, http.StatusUnauthorized, serve(router, http.MethodGet, "/ws?token=garbage").Code)
}

func TestRouterRateLimit(t *testing.T) {
	router := newTestRouter(t, func(cfg *app.Config) {
		cfg.Server.RateLimit = app.RateLimitConfig{Enabled: true, RPS: 1, Burst: 1}
	}, nil)

	require.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/api/sections").Code)
	require.Equal(t, http.StatusTooManyRequests, serve(router, http.MethodGet, "/api/sections").Code)
}

func TestRouterReadinessReportsChecks(t *testing.T) {
	router := newTestRouter(t, nil, nil)

	w := serve(router, http.MethodGet, "/health/ready")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success bool                     `json:"success"`
		Checks  []monitoring.ProbeResult `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.True(t, body.Success)
	require.Len(t, body.Checks, 1)
	require.Equal(t, "database", body.Checks[0].Component)

	manager := monitoring.NewHealthManager(0)
	manager.RegisterReadiness(monitoring.NewCheck("realtime", func(context.Context) monitoring.ProbeResult {
		return monitoring.ProbeResult{Status: monitoring.StatusDown, Details: "hub closed"}
	}))
	manager.RegisterReadiness(monitoring.NewCheck("maintenance", func(context.Context) monitoring.ProbeResult {
		return monitoring.ProbeResult{Status: monitoring.StatusDegraded}
	}))
	down := newTestRouterWithHealth(t, nil, nil, manager)
	require.Equal(t, http.StatusServiceUnavailable, serve(down, http.MethodGet, "/health/ready").Code)
	require.Equal(t, http.StatusServiceUnavailable, serve(down, http.MethodGet, "/health").Code)
	require.Equal(t, http.StatusOK, serve(down, http.MethodGet, "/health/live").Code)
}
