package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/huddle/internal/models"
	"github.com/charlesng35/huddle/internal/services"
	"github.com/charlesng35/huddle/pkg/errors"
	"github.com/charlesng35/huddle/pkg/response"
)

// SectionHandler exposes the section registry and membership workflow.
type SectionHandler struct {
	sections *services.SectionService
}

type createSectionRequest struct {
	Name             string `json:"name" validate:"required,notblank,max=128"`
	Description      string `json:"description" validate:"omitempty,max=2000"`
	ImageURL         string `json:"image_url" validate:"omitempty,url"`
	IsPublic         bool   `json:"is_public"`
	RequiresApproval bool   `json:"requires_approval"`
}

type updateSectionRequest struct {
	Name             *string `json:"name" validate:"omitempty,max=128"`
	Description      *string `json:"description" validate:"omitempty,max=2000"`
	ImageURL         *string `json:"image_url" validate:"omitempty"`
	IsPublic         *bool   `json:"is_public"`
	RequiresApproval *bool   `json:"requires_approval"`
}

type decideJoinRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject"`
}

type setAdminRequest struct {
	IsAdmin *bool `json:"is_admin" validate:"required"`
}

// NewSectionHandler constructs a SectionHandler.
func NewSectionHandler(sections *services.SectionService) *SectionHandler {
	return &SectionHandler{sections: sections}
}

// GET /api/sections
func (h *SectionHandler) List(c *gin.Context) {
	sections, err := h.sections.List(requestContext(c), viewerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, sections)
}

// GET /api/sections/:id
func (h *SectionHandler) Get(c *gin.Context) {
	section, err := h.sections.Get(requestContext(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	count, err := h.sections.MemberCount(requestContext(c), section.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"section": section, "member_count": count})
}

// POST /api/sections
func (h *SectionHandler) Create(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var body createSectionRequest
	if !bindAndValidate(c, &body) {
		return
	}

	section, err := h.sections.Create(requestContext(c), userID, services.CreateSectionInput{
		Name:             body.Name,
		Description:      body.Description,
		ImageURL:         body.ImageURL,
		IsPublic:         body.IsPublic,
		RequiresApproval: body.RequiresApproval,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, section)
}

// PATCH /api/sections/:id
func (h *SectionHandler) Update(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var body updateSectionRequest
	if !bindAndValidate(c, &body) {
		return
	}
	if body.Name == nil && body.Description == nil && body.ImageURL == nil && body.IsPublic == nil && body.RequiresApproval == nil {
		response.Error(c, errors.NewBadRequest("no fields provided for update"))
		return
	}

	section, err := h.sections.Update(requestContext(c), c.Param("id"), userID, services.UpdateSectionInput{
		Name:             body.Name,
		Description:      body.Description,
		ImageURL:         body.ImageURL,
		IsPublic:         body.IsPublic,
		RequiresApproval: body.RequiresApproval,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, section)
}

// GET /api/me/sections
func (h *SectionHandler) ListMine(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	sections, err := h.sections.ListForUser(requestContext(c), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, sections)
}

// POST /api/sections/:id/join
func (h *SectionHandler) Join(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	member, err := h.sections.RequestJoin(requestContext(c), c.Param("id"), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusCreated
	if member.Status == models.MemberStatusPending {
		status = http.StatusAccepted
	}
	response.Success(c, status, member)
}

// POST /api/sections/:id/leave
func (h *SectionHandler) Leave(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	if err := h.sections.Leave(requestContext(c), c.Param("id"), userID); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"left": true})
}

// GET /api/sections/:id/membership
func (h *SectionHandler) Membership(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	member, err := h.sections.Membership(requestContext(c), c.Param("id"), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, member)
}

// POST /api/sections/:id/requests/:userID
func (h *SectionHandler) Decide(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var body decideJoinRequest
	if !bindAndValidate(c, &body) {
		return
	}

	member, err := h.sections.DecideJoin(requestContext(c), c.Param("id"), c.Param("userID"), userID, services.JoinDecision(body.Decision))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, member)
}

// GET /api/sections/:id/members?status=
func (h *SectionHandler) Members(c *gin.Context) {
	status := models.MemberStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		response.Error(c, errors.NewBadRequest("status must be one of: pending approved rejected"))
		return
	}
	members, err := h.sections.ListMembers(requestContext(c), c.Param("id"), viewerID(c), status)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, members)
}

// DELETE /api/sections/:id/members/:userID
func (h *SectionHandler) RemoveMember(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	if err := h.sections.RemoveMember(requestContext(c), c.Param("id"), c.Param("userID"), userID); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"removed": true})
}

// PUT /api/sections/:id/members/:userID/admin
func (h *SectionHandler) SetAdmin(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var body setAdminRequest
	if !bindAndValidate(c, &body) {
		return
	}

	member, err := h.sections.SetAdmin(requestContext(c), c.Param("id"), c.Param("userID"), userID, *body.IsAdmin)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, member)
}
