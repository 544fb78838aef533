package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/charlesng35/huddle/internal/fields"
	"github.com/charlesng35/huddle/internal/models"
	apperrors "github.com/charlesng35/huddle/pkg/errors"
	"github.com/charlesng35/huddle/pkg/metrics"
)

// DefineFieldInput describes a new section profile question.
type DefineFieldInput struct {
	FieldName    string
	FieldLabel   string
	FieldType    models.FieldType
	FieldOptions []models.FieldOption
	Placeholder  string
	HelpText     string
	IsRequired   bool
	MaxLength    *int
}

// UpdateFieldInput describes mutable field attributes. A MaxLength of zero clears the limit.
type UpdateFieldInput struct {
	FieldLabel   *string
	FieldOptions []models.FieldOption
	Placeholder  *string
	HelpText     *string
	IsRequired   *bool
	MaxLength    *int
	IsActive     *bool
}

// ProfileFieldService defines section profile schemas and stores member answers.
type ProfileFieldService struct {
	db           *gorm.DB
	auditService *AuditService
	notifier     RowsNotifier
}

// NewProfileFieldService constructs a ProfileFieldService instance.
func NewProfileFieldService(db *gorm.DB, auditService *AuditService, notifier RowsNotifier) (*ProfileFieldService, error) {
	if db == nil {
		return nil, errors.New("profile field service: db is required")
	}
	return &ProfileFieldService{
		db:           db,
		auditService: auditService,
		notifier:     notifier,
	}, nil
}

// DefineField appends a field to the section schema. Only admins may define fields.
func (s *ProfileFieldService) DefineField(ctx context.Context, sectionID, by string, input DefineFieldInput) (*models.SectionProfileField, error) {
	ctx = ensureContext(ctx)

	sectionID = strings.TrimSpace(sectionID)
	if err := s.requireSectionAdmin(ctx, sectionID, by, "field.define"); err != nil {
		return nil, err
	}

	field := &models.SectionProfileField{
		SectionID:    sectionID,
		FieldName:    strings.TrimSpace(input.FieldName),
		FieldLabel:   strings.TrimSpace(input.FieldLabel),
		FieldType:    input.FieldType,
		FieldOptions: trimOptions(input.FieldOptions),
		Placeholder:  strings.TrimSpace(input.Placeholder),
		HelpText:     strings.TrimSpace(input.HelpText),
		IsRequired:   input.IsRequired,
		MaxLength:    input.MaxLength,
		IsActive:     true,
	}
	if err := fields.ValidateDefinition(*field); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var next struct{ Max *int }
		if err := tx.Model(&models.SectionProfileField{}).
			Select("MAX(display_order) AS max").
			Where("section_id = ?", sectionID).
			Scan(&next).Error; err != nil {
			return fmt.Errorf("profile field service: next display order: %w", err)
		}
		if next.Max != nil {
			field.DisplayOrder = *next.Max + 1
		}

		if err := tx.Create(field).Error; err != nil {
			if isUniqueConstraintError(err) {
				return ErrDuplicateFieldName
			}
			return fmt.Errorf("profile field service: create field: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		ActorID:  by,
		Action:   "field.define",
		Resource: field.ID,
		Result:   auditResultSuccess,
		Metadata: map[string]any{"section_id": sectionID, "field_name": field.FieldName, "field_type": field.FieldType},
	})
	notifyRows(s.notifier, TableSectionProfileFields, field.ID)

	return field, nil
}

// ListFields returns the section schema ordered by display order.
func (s *ProfileFieldService) ListFields(ctx context.Context, sectionID string, includeInactive bool) ([]models.SectionProfileField, error) {
	ctx = ensureContext(ctx)
	return listSectionFields(s.db.WithContext(ctx), strings.TrimSpace(sectionID), includeInactive)
}

// UpdateField modifies a field definition. Only admins may update.
func (s *ProfileFieldService) UpdateField(ctx context.Context, fieldID, by string, input UpdateFieldInput) (*models.SectionProfileField, error) {
	ctx = ensureContext(ctx)

	field, err := s.loadField(ctx, fieldID)
	if err != nil {
		return nil, err
	}
	if err := s.requireSectionAdmin(ctx, field.SectionID, by, "field.update"); err != nil {
		return nil, err
	}

	candidate := *field
	updates := map[string]any{}
	if input.FieldLabel != nil {
		candidate.FieldLabel = strings.TrimSpace(*input.FieldLabel)
		updates["field_label"] = candidate.FieldLabel
	}
	if input.FieldOptions != nil {
		candidate.FieldOptions = trimOptions(input.FieldOptions)
		updates["field_options"] = candidate.FieldOptions
	}
	if input.Placeholder != nil {
		candidate.Placeholder = strings.TrimSpace(*input.Placeholder)
		updates["placeholder"] = candidate.Placeholder
	}
	if input.HelpText != nil {
		candidate.HelpText = strings.TrimSpace(*input.HelpText)
		updates["help_text"] = candidate.HelpText
	}
	if input.IsRequired != nil {
		candidate.IsRequired = *input.IsRequired
		updates["is_required"] = candidate.IsRequired
	}
	if input.MaxLength != nil {
		if *input.MaxLength == 0 {
			candidate.MaxLength = nil
			updates["max_length"] = nil
		} else {
			length := *input.MaxLength
			candidate.MaxLength = &length
			updates["max_length"] = length
		}
	}
	if input.IsActive != nil {
		candidate.IsActive = *input.IsActive
		updates["is_active"] = candidate.IsActive
	}

	if len(updates) == 0 {
		return field, nil
	}
	if err := fields.ValidateDefinition(candidate); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(field).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("profile field service: update field: %w", err)
	}

	reloaded, err := s.loadField(ctx, field.ID)
	if err != nil {
		return nil, err
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		ActorID:  by,
		Action:   "field.update",
		Resource: field.ID,
		Result:   auditResultSuccess,
		Metadata: map[string]any{"section_id": field.SectionID},
	})
	notifyRows(s.notifier, TableSectionProfileFields, field.ID)

	return reloaded, nil
}

// DeactivateField hides a field from the schema while keeping stored answers.
func (s *ProfileFieldService) DeactivateField(ctx context.Context, fieldID, by string) (*models.SectionProfileField, error) {
	inactive := false
	return s.UpdateField(ctx, fieldID, by, UpdateFieldInput{IsActive: &inactive})
}

// ReorderFields rewrites display order to follow orderedIDs, which must list every field of the
// section exactly once.
func (s *ProfileFieldService) ReorderFields(ctx context.Context, sectionID, by string, orderedIDs []string) ([]models.SectionProfileField, error) {
	ctx = ensureContext(ctx)

	sectionID = strings.TrimSpace(sectionID)
	if err := s.requireSectionAdmin(ctx, sectionID, by, "field.reorder"); err != nil {
		return nil, err
	}

	ids := normaliseIDs(orderedIDs)
	if len(ids) != len(orderedIDs) {
		return nil, apperrors.NewBadRequest("field ids must be unique and non-empty")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := listSectionFields(tx, sectionID, true)
		if err != nil {
			return err
		}
		if len(current) != len(ids) {
			return apperrors.NewBadRequest("field ids must include every field of the section")
		}
		known := make(map[string]struct{}, len(current))
		for _, f := range current {
			known[f.ID] = struct{}{}
		}
		for _, id := range ids {
			if _, ok := known[id]; !ok {
				return ErrFieldNotFound.WithMessage(fmt.Sprintf("field %s does not belong to this section", id))
			}
		}

		for order, id := range ids {
			if err := tx.Model(&models.SectionProfileField{}).
				Where("id = ? AND section_id = ?", id, sectionID).
				UpdateColumn("display_order", order).Error; err != nil {
				return fmt.Errorf("profile field service: reorder: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		ActorID:  by,
		Action:   "field.reorder",
		Resource: sectionID,
		Result:   auditResultSuccess,
	})
	notifyRows(s.notifier, TableSectionProfileFields, sectionID)

	return s.ListFields(ctx, sectionID, true)
}

// SaveProfileData validates every provided answer against the active schema and stores the
// batch atomically. The first failing answer, in display order, rejects the whole batch.
func (s *ProfileFieldService) SaveProfileData(ctx context.Context, userID, sectionID string, answers map[string]string) (map[string]string, error) {
	ctx = ensureContext(ctx)

	userID = strings.TrimSpace(userID)
	sectionID = strings.TrimSpace(sectionID)

	member, err := isApprovedMember(s.db.WithContext(ctx), sectionID, userID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrNotAMember
	}

	defs, err := listSectionFields(s.db.WithContext(ctx), sectionID, false)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.SectionProfileField, len(defs))
	for _, def := range defs {
		byID[def.ID] = def
	}

	unknown := make([]string, 0)
	for id := range answers {
		if _, ok := byID[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, ErrFieldNotFound.WithMessage(fmt.Sprintf("unknown or inactive field %s", unknown[0]))
	}

	normalised := make(map[string]string, len(answers))
	for _, def := range defs {
		raw, ok := answers[def.ID]
		if !ok {
			continue
		}
		f, err := fields.FromModel(def)
		if err != nil {
			return nil, err
		}
		if res := f.Check(raw); !res.Valid {
			metrics.ProfileFieldRejections.WithLabelValues(res.Err.Kind.Code).Inc()
			return nil, res.Err
		}
		normalised[def.ID] = f.Normalize(raw)
	}

	if len(normalised) == 0 {
		return s.GetProfileData(ctx, sectionID, userID, userID)
	}

	rows := make([]models.SectionProfileData, 0, len(normalised))
	for _, def := range defs {
		value, ok := normalised[def.ID]
		if !ok {
			continue
		}
		rows = append(rows, models.SectionProfileData{
			UserID:    userID,
			SectionID: sectionID,
			FieldID:   def.ID,
			Value:     value,
		})
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range rows {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "section_id"}, {Name: "field_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
			}).Create(&rows[i]).Error; err != nil {
				return fmt.Errorf("profile field service: save answer: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		ActorID:  userID,
		Action:   "profile_data.save",
		Resource: sectionID,
		Result:   auditResultSuccess,
		Metadata: map[string]any{"fields": len(rows)},
	})
	notifyRows(s.notifier, TableSectionProfileData, sectionID)

	return s.GetProfileData(ctx, sectionID, userID, userID)
}

// GetProfileData returns the user's stored answers keyed by field id. Users always see their
// own answers; other viewers must be approved members of the section.
func (s *ProfileFieldService) GetProfileData(ctx context.Context, sectionID, userID, viewerID string) (map[string]string, error) {
	ctx = ensureContext(ctx)

	sectionID = strings.TrimSpace(sectionID)
	userID = strings.TrimSpace(userID)
	if viewerID = strings.TrimSpace(viewerID); viewerID != userID {
		ok, err := isApprovedMember(s.db.WithContext(ctx), sectionID, viewerID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrNotAuthorized
		}
	}

	var rows []models.SectionProfileData
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND section_id = ?", userID, sectionID).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("profile field service: load answers: %w", err)
	}

	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.FieldID] = row.Value
	}
	return out, nil
}

// CompletionPercent is the share of active required fields the user has answered, floored to
// a whole percent. A section without required fields is always complete.
func (s *ProfileFieldService) CompletionPercent(ctx context.Context, userID, sectionID string) (int, error) {
	ctx = ensureContext(ctx)

	sectionID = strings.TrimSpace(sectionID)
	userID = strings.TrimSpace(userID)

	var required int64
	if err := s.db.WithContext(ctx).Model(&models.SectionProfileField{}).
		Where("section_id = ? AND is_required = ? AND is_active = ?", sectionID, true, true).
		Count(&required).Error; err != nil {
		return 0, fmt.Errorf("profile field service: count required fields: %w", err)
	}
	if required == 0 {
		return 100, nil
	}

	var answered int64
	if err := s.db.WithContext(ctx).Model(&models.SectionProfileData{}).
		Joins("JOIN section_profile_fields f ON f.id = section_profile_data.field_id").
		Where("section_profile_data.user_id = ? AND section_profile_data.section_id = ?", userID, sectionID).
		Where("f.is_required = ? AND f.is_active = ?", true, true).
		Where("TRIM(section_profile_data.value) <> ''").
		Count(&answered).Error; err != nil {
		return 0, fmt.Errorf("profile field service: count answers: %w", err)
	}

	return int(answered * 100 / required), nil
}

func (s *ProfileFieldService) loadField(ctx context.Context, fieldID string) (*models.SectionProfileField, error) {
	var field models.SectionProfileField
	err := s.db.WithContext(ctx).First(&field, "id = ?", strings.TrimSpace(fieldID)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrFieldNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("profile field service: load field: %w", err)
	}
	return &field, nil
}

func (s *ProfileFieldService) requireSectionAdmin(ctx context.Context, sectionID, userID, action string) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Section{}).Where("id = ?", sectionID).Count(&count).Error; err != nil {
		return fmt.Errorf("profile field service: load section: %w", err)
	}
	if count == 0 {
		return ErrSectionNotFound
	}

	ok, err := isSectionAdmin(s.db.WithContext(ctx), sectionID, userID)
	if err != nil {
		return err
	}
	if !ok {
		recordAudit(s.auditService, ctx, AuditEntry{
			ActorID:  userID,
			Action:   action,
			Resource: sectionID,
			Result:   auditResultDenied,
		})
		return ErrNotAuthorized
	}
	return nil
}

func listSectionFields(db *gorm.DB, sectionID string, includeInactive bool) ([]models.SectionProfileField, error) {
	query := db.Where("section_id = ?", sectionID)
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}

	var defs []models.SectionProfileField
	if err := query.Order("display_order ASC").Order("created_at ASC").Find(&defs).Error; err != nil {
		return nil, fmt.Errorf("profile field service: list fields: %w", err)
	}
	return defs, nil
}

func trimOptions(options []models.FieldOption) []models.FieldOption {
	if options == nil {
		return nil
	}
	out := make([]models.FieldOption, 0, len(options))
	for _, opt := range options {
		value := strings.TrimSpace(opt.Value)
		label := strings.TrimSpace(opt.Label)
		if label == "" {
			label = value
		}
		out = append(out, models.FieldOption{Value: value, Label: label})
	}
	return out
}
