package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestSecurityHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/api/sections", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	cases := []struct {
		name string
		prep func(*http.Request)
		hsts bool
	}{
		{name: "plain http", prep: func(*http.Request) {}},
		{name: "tls", prep: func(r *http.Request) { r.TLS = &tls.ConnectionState{} }, hsts: true},
		{name: "proxied https", prep: func(r *http.Request) { r.Header.Set("X-Forwarded-Proto", "HTTPS") }, hsts: true},
		{name: "proxied http", prep: func(r *http.Request) { r.Header.Set("X-Forwarded-Proto", "http") }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/sections", nil)
			tc.prep(req)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			require.Equal(t, http.StatusOK, w.Code)
			for _, kv := range apiHeaders {
				require.Equal(t, kv[1], w.Header().Get(kv[0]), kv[0])
			}
			if tc.hsts {
				require.Equal(t, hstsValue, w.Header().Get("Strict-Transport-Security"))
			} else {
				require.Empty(t, w.Header().Get("Strict-Transport-Security"))
			}
		})
	}
}
