package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestStreamToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name   string
		target string
		header string
		want   string
	}{
		{name: "query token", target: "/ws?token=abc", want: "abc"},
		{name: "access_token alias", target: "/ws?access_token=%20def%20", want: "def"},
		{name: "query wins over header", target: "/ws?token=abc", header: "Bearer hdr", want: "abc"},
		{name: "bearer header", target: "/ws", header: "bearer hdr", want: "hdr"},
		{name: "other scheme", target: "/ws", header: "Basic dXNlcg==", want: ""},
		{name: "missing", target: "/ws", want: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, tc.target, nil)
			if tc.header != "" {
				c.Request.Header.Set("Authorization", tc.header)
			}
			require.Equal(t, tc.want, streamToken(c))
		})
	}
}
