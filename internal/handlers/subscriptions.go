package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/huddle/internal/models"
	"github.com/charlesng35/huddle/internal/services"
	"github.com/charlesng35/huddle/pkg/response"
)

// SubscriptionHandler exposes follow relationships on creator event groups.
type SubscriptionHandler struct {
	subs *services.SubscriptionService
}

// NewSubscriptionHandler constructs a SubscriptionHandler.
func NewSubscriptionHandler(subs *services.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subs: subs}
}

// PUT /api/creators/:creatorID/groups/:group/subscription
func (h *SubscriptionHandler) Subscribe(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	sub, err := h.subs.Subscribe(requestContext(c), userID, c.Param("creatorID"), c.Param("group"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, sub)
}

// DELETE /api/creators/:creatorID/groups/:group/subscription
func (h *SubscriptionHandler) Unsubscribe(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	if err := h.subs.Unsubscribe(requestContext(c), userID, c.Param("creatorID"), c.Param("group")); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"unsubscribed": true})
}

// GET /api/creators/:creatorID/groups/:group/subscription
func (h *SubscriptionHandler) Status(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	ctx := requestContext(c)
	subscribed, err := h.subs.IsSubscribed(ctx, userID, c.Param("creatorID"), c.Param("group"))
	if err != nil {
		respondError(c, err)
		return
	}
	count, err := h.subs.SubscriberCount(ctx, c.Param("creatorID"), c.Param("group"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"subscribed": subscribed, "subscriber_count": count})
}

// GET /api/creators/:creatorID/groups/:group/upcoming
func (h *SubscriptionHandler) Upcoming(c *gin.Context) {
	events, err := h.subs.UpcomingEvents(requestContext(c), models.EventGroupSubscription{
		CreatorID: c.Param("creatorID"),
		GroupName: c.Param("group"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, events)
}

// GET /api/me/subscriptions
func (h *SubscriptionHandler) ListMine(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	subs, err := h.subs.ListSubscriptions(requestContext(c), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, subs)
}
