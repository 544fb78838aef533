package handlers

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/huddle/internal/middleware"
	"github.com/charlesng35/huddle/pkg/errors"
	"github.com/charlesng35/huddle/pkg/logger"
	"github.com/charlesng35/huddle/pkg/response"
)

// requestContext safely returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}

// viewerID returns the authenticated caller, or "" for anonymous requests.
func viewerID(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(middleware.CtxUserIDKey))
}

// requireUser returns the authenticated caller, writing a 401 when there is none.
func requireUser(c *gin.Context) (string, bool) {
	userID := viewerID(c)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return "", false
	}
	return userID, true
}

// respondError renders err and logs anything that maps to a server error.
func respondError(c *gin.Context, err error) {
	appErr := errors.FromError(err)
	if appErr.StatusCode >= 500 {
		logger.WithModule("http").Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		_ = c.Error(err)
	}
	response.Error(c, err)
}
