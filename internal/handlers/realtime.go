package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/charlesng35/huddle/internal/auth"
	"github.com/charlesng35/huddle/internal/realtime"
	"github.com/charlesng35/huddle/pkg/errors"
	"github.com/charlesng35/huddle/pkg/response"
)

// RealtimeHandler upgrades authenticated requests into row-change feeds.
type RealtimeHandler struct {
	hub *realtime.Hub
	jwt *iauth.JWTService
}

func NewRealtimeHandler(hub *realtime.Hub, jwt *iauth.JWTService) *RealtimeHandler {
	return &RealtimeHandler{hub: hub, jwt: jwt}
}

// GET /ws?token=&stream=rows.sections&streams=rows.events,rows.event_rsvps
func (h *RealtimeHandler) Stream(c *gin.Context) {
	if h.jwt == nil || h.hub == nil {
		response.Error(c, errors.ErrNotFound)
		return
	}

	token := streamToken(c)
	if token == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}
	claims, err := h.jwt.ValidateAccessToken(token)
	if err != nil {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	// Unknown and duplicate stream names are dropped by the hub.
	streams := c.QueryArray("stream")
	if raw := c.Query("streams"); raw != "" {
		streams = append(streams, strings.Split(raw, ",")...)
	}
	h.hub.Serve(claims.UserID, streams, c.Writer, c.Request)
}

// streamToken prefers the query string because browsers cannot set headers on WebSocket
// handshakes; the Authorization header still works for other clients.
func streamToken(c *gin.Context) string {
	for _, key := range []string{"token", "access_token"} {
		if token := strings.TrimSpace(c.Query(key)); token != "" {
			return token
		}
	}
	scheme, token, ok := strings.Cut(c.GetHeader("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
