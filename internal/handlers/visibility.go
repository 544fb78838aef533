package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/huddle/internal/services"
	"github.com/charlesng35/huddle/pkg/errors"
	"github.com/charlesng35/huddle/pkg/response"
)

// VisibilityHandler exposes the membership cards shown on member profiles.
type VisibilityHandler struct {
	visibility *services.VisibilityService
}

type setVisibilityRequest struct {
	ShowMembership *bool `json:"show_membership" validate:"required"`
}

// NewVisibilityHandler constructs a VisibilityHandler.
func NewVisibilityHandler(visibility *services.VisibilityService) *VisibilityHandler {
	return &VisibilityHandler{visibility: visibility}
}

// GET /api/users/:userID/sections?mode=&preview_section=
//
// Only the profile owner may choose a mode; everyone else gets the public view.
func (h *VisibilityHandler) Sections(c *gin.Context) {
	owner := strings.TrimSpace(c.Param("userID"))
	viewer := services.PublicView()

	if viewerID(c) == owner {
		switch services.ViewerMode(strings.TrimSpace(c.Query("mode"))) {
		case "", services.ViewerSelfEdit:
			viewer = services.SelfEditView()
		case services.ViewerPublic:
		case services.ViewerPreview:
			viewer = services.PreviewAs(c.Query("preview_section"))
		default:
			response.Error(c, errors.NewBadRequest("mode must be one of: public self_edit preview"))
			return
		}
	}

	cards, err := h.visibility.VisibleSections(requestContext(c), owner, viewer)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, cards)
}

// PUT /api/me/sections/:id/visibility
func (h *VisibilityHandler) Set(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var body setVisibilityRequest
	if !bindAndValidate(c, &body) {
		return
	}

	flag, err := h.visibility.SetVisibility(requestContext(c), userID, c.Param("id"), *body.ShowMembership)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, flag)
}
