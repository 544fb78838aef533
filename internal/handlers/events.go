package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/huddle/internal/models"
	"github.com/charlesng35/huddle/internal/services"
	"github.com/charlesng35/huddle/pkg/errors"
	"github.com/charlesng35/huddle/pkg/response"
)

// EventHandler exposes event definitions and creator groups.
type EventHandler struct {
	events *services.EventService
}

type createEventRequest struct {
	Title               string     `json:"title" validate:"required,notblank,max=255"`
	Description         string     `json:"description" validate:"omitempty,max=10000"`
	StartsAt            time.Time  `json:"starts_at" validate:"required"`
	EndsAt              *time.Time `json:"ends_at"`
	Location            string     `json:"location" validate:"omitempty,max=255"`
	ImageURL            string     `json:"image_url" validate:"omitempty,url"`
	Tags                []string   `json:"tags" validate:"omitempty,max=32,dive,max=64"`
	Published           bool       `json:"published"`
	IsPrivate           bool       `json:"is_private"`
	GroupName           *string    `json:"group_name" validate:"omitempty,max=128"`
	MaxCapacity         *int       `json:"max_capacity" validate:"omitempty,gte=1"`
	GuestListVisibility string     `json:"guest_list_visibility" validate:"omitempty,oneof=public rsvp_only hidden"`
}

type updateEventRequest struct {
	Title               *string    `json:"title" validate:"omitempty,max=255"`
	Description         *string    `json:"description" validate:"omitempty,max=10000"`
	StartsAt            *time.Time `json:"starts_at"`
	EndsAt              *time.Time `json:"ends_at"`
	Location            *string    `json:"location" validate:"omitempty,max=255"`
	ImageURL            *string    `json:"image_url"`
	Tags                []string   `json:"tags" validate:"omitempty,max=32,dive,max=64"`
	Published           *bool      `json:"published"`
	IsPrivate           *bool      `json:"is_private"`
	GroupName           *string    `json:"group_name" validate:"omitempty,max=128"`
	MaxCapacity         *int       `json:"max_capacity" validate:"omitempty,gte=0"`
	GuestListVisibility *string    `json:"guest_list_visibility" validate:"omitempty,oneof=public rsvp_only hidden"`
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(events *services.EventService) *EventHandler {
	return &EventHandler{events: events}
}

// POST /api/events
func (h *EventHandler) Create(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var body createEventRequest
	if !bindAndValidate(c, &body) {
		return
	}

	event, err := h.events.Create(requestContext(c), userID, services.CreateEventInput{
		Title:               body.Title,
		Description:         body.Description,
		StartsAt:            body.StartsAt,
		EndsAt:              body.EndsAt,
		Location:            body.Location,
		ImageURL:            body.ImageURL,
		Tags:                body.Tags,
		Published:           body.Published,
		IsPrivate:           body.IsPrivate,
		GroupName:           body.GroupName,
		MaxCapacity:         body.MaxCapacity,
		GuestListVisibility: models.GuestListVisibility(body.GuestListVisibility),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, event)
}

// PATCH /api/events/:id
func (h *EventHandler) Update(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var body updateEventRequest
	if !bindAndValidate(c, &body) {
		return
	}

	input := services.UpdateEventInput{
		Title:       body.Title,
		Description: body.Description,
		StartsAt:    body.StartsAt,
		EndsAt:      body.EndsAt,
		Location:    body.Location,
		ImageURL:    body.ImageURL,
		Tags:        body.Tags,
		Published:   body.Published,
		IsPrivate:   body.IsPrivate,
		GroupName:   body.GroupName,
		MaxCapacity: body.MaxCapacity,
	}
	if body.GuestListVisibility != nil {
		visibility := models.GuestListVisibility(*body.GuestListVisibility)
		input.GuestListVisibility = &visibility
	}

	event, err := h.events.Update(requestContext(c), c.Param("id"), userID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, event)
}

// GET /api/events/:id
func (h *EventHandler) Get(c *gin.Context) {
	event, err := h.events.Get(requestContext(c), c.Param("id"), viewerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, event)
}

// GET /api/creators/:creatorID/events?group=
func (h *EventHandler) ListByCreator(c *gin.Context) {
	var group *string
	if raw, ok := c.GetQuery("group"); ok {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			response.Error(c, errors.NewBadRequest("group must not be blank"))
			return
		}
		group = &trimmed
	}

	events, err := h.events.ListByCreator(requestContext(c), c.Param("creatorID"), viewerID(c), group)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, events)
}

// GET /api/creators/:creatorID/groups
func (h *EventHandler) ListGroups(c *gin.Context) {
	groups, err := h.events.ListGroups(requestContext(c), c.Param("creatorID"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, groups)
}
