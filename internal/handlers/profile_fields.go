package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/huddle/internal/models"
	"github.com/charlesng35/huddle/internal/services"
	"github.com/charlesng35/huddle/pkg/response"
)

// ProfileFieldHandler exposes section profile schemas and member answers.
type ProfileFieldHandler struct {
	fields *services.ProfileFieldService
}

type fieldOptionRequest struct {
	Value string `json:"value" validate:"required,max=128"`
	Label string `json:"label" validate:"max=255"`
}

type defineFieldRequest struct {
	FieldName    string               `json:"field_name" validate:"required,max=64,field_name"`
	FieldLabel   string               `json:"field_label" validate:"required,notblank,max=255"`
	FieldType    string               `json:"field_type" validate:"required,oneof=text textarea select multiselect checkbox number date url email phone"`
	FieldOptions []fieldOptionRequest `json:"field_options" validate:"omitempty,dive"`
	Placeholder  string               `json:"placeholder" validate:"omitempty,max=255"`
	HelpText     string               `json:"help_text" validate:"omitempty,max=2000"`
	IsRequired   bool                 `json:"is_required"`
	MaxLength    *int                 `json:"max_length" validate:"omitempty,gte=1"`
}

type updateFieldRequest struct {
	FieldLabel   *string              `json:"field_label" validate:"omitempty,max=255"`
	FieldOptions []fieldOptionRequest `json:"field_options" validate:"omitempty,dive"`
	Placeholder  *string              `json:"placeholder" validate:"omitempty,max=255"`
	HelpText     *string              `json:"help_text" validate:"omitempty,max=2000"`
	IsRequired   *bool                `json:"is_required"`
	MaxLength    *int                 `json:"max_length" validate:"omitempty,gte=0"`
	IsActive     *bool                `json:"is_active"`
}

type reorderFieldsRequest struct {
	FieldIDs []string `json:"field_ids" validate:"required,min=1,dive,required"`
}

type saveProfileDataRequest struct {
	Answers map[string]string `json:"answers" validate:"required"`
}

// NewProfileFieldHandler constructs a ProfileFieldHandler.
func NewProfileFieldHandler(fields *services.ProfileFieldService) *ProfileFieldHandler {
	return &ProfileFieldHandler{fields: fields}
}

func toFieldOptions(in []fieldOptionRequest) []models.FieldOption {
	if in == nil {
		return nil
	}
	out := make([]models.FieldOption, 0, len(in))
	for _, opt := range in {
		out = append(out, models.FieldOption{Value: opt.Value, Label: opt.Label})
	}
	return out
}

// GET /api/sections/:id/fields?include_inactive=
func (h *ProfileFieldHandler) List(c *gin.Context) {
	fields, err := h.fields.ListFields(requestContext(c), c.Param("id"), parseBoolQuery(c, "include_inactive"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, fields)
}

// POST /api/sections/:id/fields
func (h *ProfileFieldHandler) Define(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var body defineFieldRequest
	if !bindAndValidate(c, &body) {
		return
	}

	field, err := h.fields.DefineField(requestContext(c), c.Param("id"), userID, services.DefineFieldInput{
		FieldName:    body.FieldName,
		FieldLabel:   body.FieldLabel,
		FieldType:    models.FieldType(body.FieldType),
		FieldOptions: toFieldOptions(body.FieldOptions),
		Placeholder:  body.Placeholder,
		HelpText:     body.HelpText,
		IsRequired:   body.IsRequired,
		MaxLength:    body.MaxLength,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, field)
}

// PATCH /api/fields/:fieldID
func (h *ProfileFieldHandler) Update(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var body updateFieldRequest
	if !bindAndValidate(c, &body) {
		return
	}

	field, err := h.fields.UpdateField(requestContext(c), c.Param("fieldID"), userID, services.UpdateFieldInput{
		FieldLabel:   body.FieldLabel,
		FieldOptions: toFieldOptions(body.FieldOptions),
		Placeholder:  body.Placeholder,
		HelpText:     body.HelpText,
		IsRequired:   body.IsRequired,
		MaxLength:    body.MaxLength,
		IsActive:     body.IsActive,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, field)
}

// DELETE /api/fields/:fieldID
func (h *ProfileFieldHandler) Deactivate(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	field, err := h.fields.DeactivateField(requestContext(c), c.Param("fieldID"), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, field)
}

// PUT /api/sections/:id/fields/order
func (h *ProfileFieldHandler) Reorder(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var body reorderFieldsRequest
	if !bindAndValidate(c, &body) {
		return
	}

	fields, err := h.fields.ReorderFields(requestContext(c), c.Param("id"), userID, body.FieldIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, fields)
}

// PUT /api/sections/:id/profile
func (h *ProfileFieldHandler) SaveAnswers(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var body saveProfileDataRequest
	if !bindAndValidate(c, &body) {
		return
	}

	answers, err := h.fields.SaveProfileData(requestContext(c), userID, c.Param("id"), body.Answers)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, answers)
}

// GET /api/sections/:id/profile/:userID
func (h *ProfileFieldHandler) Answers(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	answers, err := h.fields.GetProfileData(requestContext(c), c.Param("id"), c.Param("userID"), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, answers)
}

// GET /api/sections/:id/completion
func (h *ProfileFieldHandler) Completion(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	percent, err := h.fields.CompletionPercent(requestContext(c), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"percent": percent})
}
