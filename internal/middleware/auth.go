package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/huddle/internal/auditctx"
	iauth "github.com/charlesng35/huddle/internal/auth"
	"github.com/charlesng35/huddle/pkg/errors"
	"github.com/charlesng35/huddle/pkg/response"
)

const (
	CtxClaimsKey = "authClaims"
	CtxUserIDKey = "userID"
)

// Auth enforces JWT authentication using the supplied JWT service.
func Auth(jwt *iauth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := bearerClaims(c, jwt)
		if !ok {
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}
		setIdentity(c, claims)
		c.Next()
	}
}

// OptionalAuth attaches the caller's identity when a valid bearer token is present and lets
// anonymous requests through otherwise. An invalid token is still rejected.
func OptionalAuth(jwt *iauth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		claims, ok := bearerClaims(c, jwt)
		if !ok {
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}
		setIdentity(c, claims)
		c.Next()
	}
}

func bearerClaims(c *gin.Context, jwt *iauth.JWTService) (*iauth.Claims, bool) {
	authz := c.GetHeader("Authorization")
	if len(authz) < 8 || !strings.EqualFold(authz[:7], "Bearer ") {
		return nil, false
	}
	claims, err := jwt.ValidateAccessToken(strings.TrimSpace(authz[7:]))
	if err != nil {
		return nil, false
	}
	return claims, true
}

func setIdentity(c *gin.Context, claims *iauth.Claims) {
	c.Set(CtxClaimsKey, claims)
	c.Set(CtxUserIDKey, claims.UserID)
	if c.Request != nil {
		c.Request = c.Request.WithContext(auditctx.WithActor(c.Request.Context(), auditctx.Actor{
			UserID:    claims.UserID,
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		}))
	}
}
