package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/huddle/pkg/metrics"
)

func TestMetricsMiddlewareLabelsRouteTemplates(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Metrics())
	r.GET("/api/sections/:id", func(c *gin.Context) {
		require.Equal(t, 1.0, testutil.ToFloat64(metrics.HTTPInFlight))
		c.Status(http.StatusNoContent)
	})

	before := testutil.CollectAndCount(metrics.APILatency)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/sections/abc", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/sections/def", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/random/probe", nil))

	// one series for the template, one for everything unmatched
	require.LessOrEqual(t, testutil.CollectAndCount(metrics.APILatency), before+2)
	require.Equal(t, 0.0, testutil.ToFloat64(metrics.HTTPInFlight))
}
