package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/huddle/internal/services"
	"github.com/charlesng35/huddle/pkg/response"
)

// ProfileHandler exposes the public profile attributes used to enrich guest lists.
type ProfileHandler struct {
	profiles *services.ProfileService
}

type upsertProfileRequest struct {
	FullName  string `json:"full_name" validate:"omitempty,max=255"`
	AvatarURL string `json:"avatar_url" validate:"omitempty,url"`
	IsPrivate bool   `json:"is_private"`
}

// NewProfileHandler constructs a ProfileHandler.
func NewProfileHandler(profiles *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// GET /api/me/profile
func (h *ProfileHandler) Me(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	profile, err := h.profiles.Get(requestContext(c), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, profile)
}

// PUT /api/me/profile
func (h *ProfileHandler) Update(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var body upsertProfileRequest
	if !bindAndValidate(c, &body) {
		return
	}

	profile, err := h.profiles.Upsert(requestContext(c), userID, services.UpsertProfileInput{
		FullName:  body.FullName,
		AvatarURL: body.AvatarURL,
		IsPrivate: body.IsPrivate,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, profile)
}

// GET /api/users/:userID/profile
//
// Private profiles only reveal their owner id to other viewers.
func (h *ProfileHandler) Get(c *gin.Context) {
	owner := c.Param("userID")
	profile, err := h.profiles.Get(requestContext(c), owner)
	if err != nil {
		respondError(c, err)
		return
	}
	if profile.IsPrivate && viewerID(c) != profile.UserID {
		response.Success(c, http.StatusOK, gin.H{"user_id": profile.UserID, "is_private": true})
		return
	}
	response.Success(c, http.StatusOK, profile)
}
