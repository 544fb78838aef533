package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/huddle/internal/models"
	"github.com/charlesng35/huddle/internal/services"
	"github.com/charlesng35/huddle/pkg/errors"
	"github.com/charlesng35/huddle/pkg/response"
)

// RSVPHandler exposes the per-event attendance ledger.
type RSVPHandler struct {
	rsvps *services.RSVPService
}

type setRSVPRequest struct {
	Status string `json:"status" validate:"required,oneof=going maybe not_going"`
}

// NewRSVPHandler constructs an RSVPHandler.
func NewRSVPHandler(rsvps *services.RSVPService) *RSVPHandler {
	return &RSVPHandler{rsvps: rsvps}
}

// PUT /api/events/:id/rsvp
func (h *RSVPHandler) Set(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var body setRSVPRequest
	if !bindAndValidate(c, &body) {
		return
	}

	rsvp, err := h.rsvps.SetRSVP(requestContext(c), c.Param("id"), userID, models.RSVPStatus(body.Status))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, rsvp)
}

// GET /api/events/:id/rsvp
func (h *RSVPHandler) Get(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	rsvp, err := h.rsvps.GetRSVP(requestContext(c), c.Param("id"), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, rsvp)
}

// DELETE /api/events/:id/rsvp
func (h *RSVPHandler) Clear(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	if err := h.rsvps.ClearRSVP(requestContext(c), c.Param("id"), userID); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"cleared": true})
}

// GET /api/events/:id/counts
func (h *RSVPHandler) Counts(c *gin.Context) {
	counts, err := h.rsvps.Counts(requestContext(c), c.Param("id"), viewerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, counts)
}

// GET /api/events/:id/spots
func (h *RSVPHandler) Spots(c *gin.Context) {
	spots, err := h.rsvps.SpotsRemaining(requestContext(c), c.Param("id"), viewerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"unlimited": spots == nil, "remaining": spots})
}

// GET /api/events/:id/access
func (h *RSVPHandler) Access(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	ctx := requestContext(c)
	access, err := h.rsvps.HasAccess(ctx, c.Param("id"), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	guestList, err := h.rsvps.CanSeeGuestList(ctx, c.Param("id"), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"has_access": access, "can_see_guest_list": guestList})
}

// GET /api/events/:id/guests?status=
func (h *RSVPHandler) Guests(c *gin.Context) {
	status := models.RSVPStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		response.Error(c, errors.NewBadRequest("status must be one of: going maybe not_going"))
		return
	}
	guests, err := h.rsvps.ListGuests(requestContext(c), c.Param("id"), viewerID(c), status)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, guests)
}
