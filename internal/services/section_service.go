package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/huddle/internal/models"
	apperrors "github.com/charlesng35/huddle/pkg/errors"
	"github.com/charlesng35/huddle/pkg/metrics"
)

// JoinDecision is an admin's verdict on a pending join request.
type JoinDecision string

const (
	JoinApprove JoinDecision = "approve"
	JoinReject  JoinDecision = "reject"
)

// CreateSectionInput captures new section metadata.
type CreateSectionInput struct {
	Name             string
	Description      string
	ImageURL         string
	IsPublic         bool
	RequiresApproval bool
}

// UpdateSectionInput describes mutable section fields.
type UpdateSectionInput struct {
	Name             *string
	Description      *string
	ImageURL         *string
	IsPublic         *bool
	RequiresApproval *bool
}

// SectionService owns sections and the join/leave/approve workflow.
type SectionService struct {
	db           *gorm.DB
	auditService *AuditService
	notifier     RowsNotifier
}

// NewSectionService constructs a SectionService instance.
func NewSectionService(db *gorm.DB, auditService *AuditService, notifier RowsNotifier) (*SectionService, error) {
	if db == nil {
		return nil, errors.New("section service: db is required")
	}
	return &SectionService{
		db:           db,
		auditService: auditService,
		notifier:     notifier,
	}, nil
}

// Create registers a new section and enrols its creator as an approved admin.
func (s *SectionService) Create(ctx context.Context, creatorID string, input CreateSectionInput) (*models.Section, error) {
	ctx = ensureContext(ctx)

	creatorID = strings.TrimSpace(creatorID)
	if creatorID == "" {
		return nil, apperrors.ErrUnauthorized
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewBadRequest("section name is required")
	}

	section := &models.Section{
		CreatorID:        creatorID,
		Name:             name,
		Description:      strings.TrimSpace(input.Description),
		ImageURL:         strings.TrimSpace(input.ImageURL),
		IsPublic:         input.IsPublic,
		RequiresApproval: input.RequiresApproval,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(section).Error; err != nil {
			if isUniqueConstraintError(err) {
				return ErrDuplicateSectionName
			}
			return fmt.Errorf("section service: create section: %w", err)
		}

		now := time.Now().UTC()
		owner := &models.SectionMember{
			SectionID:  section.ID,
			UserID:     creatorID,
			IsAdmin:    true,
			Status:     models.MemberStatusApproved,
			JoinedAt:   now,
			ApprovedAt: &now,
		}
		if err := tx.Create(owner).Error; err != nil {
			return fmt.Errorf("section service: enrol creator: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		ActorID:  creatorID,
		Action:   "section.create",
		Resource: section.ID,
		Result:   auditResultSuccess,
		Metadata: map[string]any{"name": section.Name},
	})
	notifyRows(s.notifier, TableSections, section.ID)
	notifyRows(s.notifier, TableSectionMembers, section.ID)

	return section, nil
}

// Get returns a section by id.
func (s *SectionService) Get(ctx context.Context, sectionID string) (*models.Section, error) {
	ctx = ensureContext(ctx)
	return s.loadSection(s.db.WithContext(ctx), sectionID)
}

// List returns public sections plus any the viewer holds a non-rejected membership in.
func (s *SectionService) List(ctx context.Context, viewerID string) ([]models.Section, error) {
	ctx = ensureContext(ctx)

	query := s.db.WithContext(ctx).Model(&models.Section{})
	if viewerID = strings.TrimSpace(viewerID); viewerID != "" {
		member := s.db.Model(&models.SectionMember{}).
			Select("section_id").
			Where("user_id = ? AND status <> ?", viewerID, models.MemberStatusRejected)
		query = query.Where("is_public = ? OR id IN (?)", true, member)
	} else {
		query = query.Where("is_public = ?", true)
	}

	var sections []models.Section
	if err := query.Order("name ASC").Order("id ASC").Find(&sections).Error; err != nil {
		return nil, fmt.Errorf("section service: list sections: %w", err)
	}
	return sections, nil
}

// ListForUser returns the sections the user is an approved member of.
func (s *SectionService) ListForUser(ctx context.Context, userID string) ([]models.Section, error) {
	ctx = ensureContext(ctx)

	var sections []models.Section
	err := s.db.WithContext(ctx).
		Model(&models.Section{}).
		Joins("JOIN section_members sm ON sm.section_id = sections.id").
		Where("sm.user_id = ? AND sm.status = ?", strings.TrimSpace(userID), models.MemberStatusApproved).
		Order("sections.name ASC").
		Find(&sections).Error
	if err != nil {
		return nil, fmt.Errorf("section service: list user sections: %w", err)
	}
	return sections, nil
}

// Update modifies section metadata. Only admins may update.
func (s *SectionService) Update(ctx context.Context, sectionID, by string, input UpdateSectionInput) (*models.Section, error) {
	ctx = ensureContext(ctx)

	section, err := s.loadSection(s.db.WithContext(ctx), sectionID)
	if err != nil {
		return nil, err
	}
	if err := s.requireAdmin(ctx, s.db.WithContext(ctx), section.ID, by, "section.update"); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.NewBadRequest("section name is required")
		}
		if name != section.Name {
			updates["name"] = name
		}
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if input.ImageURL != nil {
		updates["image_url"] = strings.TrimSpace(*input.ImageURL)
	}
	if input.IsPublic != nil {
		updates["is_public"] = *input.IsPublic
	}
	if input.RequiresApproval != nil {
		updates["requires_approval"] = *input.RequiresApproval
	}

	if len(updates) == 0 {
		return section, nil
	}

	if err := s.db.WithContext(ctx).Model(section).Updates(updates).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrDuplicateSectionName
		}
		return nil, fmt.Errorf("section service: update section: %w", err)
	}

	reloaded, err := s.loadSection(s.db.WithContext(ctx), section.ID)
	if err != nil {
		return nil, err
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		ActorID:  by,
		Action:   "section.update",
		Resource: section.ID,
		Result:   auditResultSuccess,
		Metadata: updates,
	})
	notifyRows(s.notifier, TableSections, section.ID)

	return reloaded, nil
}

// RequestJoin creates a membership for the user. Sections requiring approval start the
// membership as pending. Any existing row, rejected included, blocks the request.
func (s *SectionService) RequestJoin(ctx context.Context, sectionID, userID string) (*models.SectionMember, error) {
	ctx = ensureContext(ctx)

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperrors.ErrUnauthorized
	}

	section, err := s.loadSection(s.db.WithContext(ctx), sectionID)
	if err != nil {
		return nil, err
	}

	existing, err := s.findMember(s.db.WithContext(ctx), section.ID, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		metrics.MembershipTransitions.WithLabelValues("join", "duplicate").Inc()
		return nil, ErrAlreadyMember
	}

	now := time.Now().UTC()
	member := &models.SectionMember{
		SectionID: section.ID,
		UserID:    userID,
		Status:    models.MemberStatusApproved,
		JoinedAt:  now,
	}
	if section.RequiresApproval {
		member.Status = models.MemberStatusPending
	} else {
		member.ApprovedAt = &now
	}

	if err := s.db.WithContext(ctx).Create(member).Error; err != nil {
		if isUniqueConstraintError(err) {
			metrics.MembershipTransitions.WithLabelValues("join", "duplicate").Inc()
			return nil, ErrAlreadyMember
		}
		metrics.MembershipTransitions.WithLabelValues("join", "error").Inc()
		return nil, fmt.Errorf("section service: create membership: %w", err)
	}

	metrics.MembershipTransitions.WithLabelValues("join", string(member.Status)).Inc()
	recordAudit(s.auditService, ctx, AuditEntry{
		ActorID:  userID,
		Action:   "section.join",
		Resource: section.ID,
		Result:   auditResultSuccess,
		Metadata: map[string]any{"status": member.Status},
	})
	notifyRows(s.notifier, TableSectionMembers, member.ID)

	return member, nil
}

// DecideJoin approves or rejects a pending join request.
func (s *SectionService) DecideJoin(ctx context.Context, sectionID, targetUserID, decidedBy string, decision JoinDecision) (*models.SectionMember, error) {
	ctx = ensureContext(ctx)

	var next models.MemberStatus
	switch decision {
	case JoinApprove:
		next = models.MemberStatusApproved
	case JoinReject:
		next = models.MemberStatusRejected
	default:
		return nil, apperrors.NewBadRequest("decision must be approve or reject")
	}

	section, err := s.loadSection(s.db.WithContext(ctx), sectionID)
	if err != nil {
		return nil, err
	}
	if err := s.requireAdmin(ctx, s.db.WithContext(ctx), section.ID, decidedBy, "section.decide"); err != nil {
		return nil, err
	}

	member, err := s.findMember(s.db.WithContext(ctx), section.ID, targetUserID)
	if err != nil {
		return nil, err
	}
	if member == nil || member.Status != models.MemberStatusPending {
		return nil, ErrNoSuchRequest
	}

	updates := map[string]any{"status": next}
	var approvedAt *time.Time
	if next == models.MemberStatusApproved {
		now := time.Now().UTC()
		approvedAt = &now
		updates["approved_at"] = now
	}

	// Guarded on the pending status so a concurrent second decision affects nothing.
	result := s.db.WithContext(ctx).
		Model(member).
		Where("status = ?", models.MemberStatusPending).
		Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("section service: decide join: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNoSuchRequest
	}

	member.Status = next
	member.ApprovedAt = approvedAt

	metrics.MembershipTransitions.WithLabelValues(string(decision), auditResultSuccess).Inc()
	recordAudit(s.auditService, ctx, AuditEntry{
		ActorID:  decidedBy,
		Action:   "section." + string(decision),
		Resource: section.ID,
		Result:   auditResultSuccess,
		Metadata: map[string]any{"user_id": member.UserID},
	})
	notifyRows(s.notifier, TableSectionMembers, member.ID)

	return member, nil
}

// Leave removes the caller's approved or pending membership. A rejected request cannot be left
// and reports ErrNotAMember; it stays until an admin clears it with RemoveMember.
func (s *SectionService) Leave(ctx context.Context, sectionID, userID string) error {
	ctx = ensureContext(ctx)

	var removed *models.SectionMember
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		member, err := s.findMember(tx, strings.TrimSpace(sectionID), userID)
		if err != nil {
			return err
		}
		// a rejected row stays until an admin clears it, otherwise leaving would reopen re-join
		if member == nil || member.Status == models.MemberStatusRejected {
			return ErrNotAMember
		}
		if err := s.ensureNotSoleAdmin(tx, member); err != nil {
			return err
		}
		if err := tx.Delete(member).Error; err != nil {
			return fmt.Errorf("section service: leave: %w", err)
		}
		removed = member
		return nil
	})
	if err != nil {
		return err
	}

	metrics.MembershipTransitions.WithLabelValues("leave", auditResultSuccess).Inc()
	recordAudit(s.auditService, ctx, AuditEntry{
		ActorID:  userID,
		Action:   "section.leave",
		Resource: removed.SectionID,
		Result:   auditResultSuccess,
	})
	notifyRows(s.notifier, TableSectionMembers, removed.ID)

	return nil
}

// RemoveMember lets an admin delete another user's membership row. Removing a rejected row is
// how a blocked user becomes eligible to request again.
func (s *SectionService) RemoveMember(ctx context.Context, sectionID, targetUserID, by string) error {
	ctx = ensureContext(ctx)

	section, err := s.loadSection(s.db.WithContext(ctx), sectionID)
	if err != nil {
		return err
	}
	if err := s.requireAdmin(ctx, s.db.WithContext(ctx), section.ID, by, "section.remove_member"); err != nil {
		return err
	}

	var removed *models.SectionMember
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		member, err := s.findMember(tx, section.ID, targetUserID)
		if err != nil {
			return err
		}
		if member == nil {
			return ErrNotAMember
		}
		if err := s.ensureNotSoleAdmin(tx, member); err != nil {
			return err
		}
		if err := tx.Delete(member).Error; err != nil {
			return fmt.Errorf("section service: remove member: %w", err)
		}
		removed = member
		return nil
	})
	if err != nil {
		return err
	}

	metrics.MembershipTransitions.WithLabelValues("remove", auditResultSuccess).Inc()
	recordAudit(s.auditService, ctx, AuditEntry{
		ActorID:  by,
		Action:   "section.remove_member",
		Resource: section.ID,
		Result:   auditResultSuccess,
		Metadata: map[string]any{"user_id": removed.UserID, "status": removed.Status},
	})
	notifyRows(s.notifier, TableSectionMembers, removed.ID)

	return nil
}

// SetAdmin grants or revokes admin rights on an approved member.
func (s *SectionService) SetAdmin(ctx context.Context, sectionID, targetUserID, by string, isAdmin bool) (*models.SectionMember, error) {
	ctx = ensureContext(ctx)

	section, err := s.loadSection(s.db.WithContext(ctx), sectionID)
	if err != nil {
		return nil, err
	}
	if err := s.requireAdmin(ctx, s.db.WithContext(ctx), section.ID, by, "section.set_admin"); err != nil {
		return nil, err
	}

	var member *models.SectionMember
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := s.findMember(tx, section.ID, targetUserID)
		if err != nil {
			return err
		}
		if found == nil || found.Status != models.MemberStatusApproved {
			return ErrNotAMember
		}
		if found.IsAdmin == isAdmin {
			member = found
			return nil
		}
		if !isAdmin {
			if err := s.ensureNotSoleAdmin(tx, found); err != nil {
				return err
			}
		}
		if err := tx.Model(found).Update("is_admin", isAdmin).Error; err != nil {
			return fmt.Errorf("section service: set admin: %w", err)
		}
		found.IsAdmin = isAdmin
		member = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		ActorID:  by,
		Action:   "section.set_admin",
		Resource: section.ID,
		Result:   auditResultSuccess,
		Metadata: map[string]any{"user_id": member.UserID, "is_admin": isAdmin},
	})
	notifyRows(s.notifier, TableSectionMembers, member.ID)

	return member, nil
}

// ListMembers returns memberships ordered by join time. Only admins may list pending or
// rejected rows. Members of private sections are only listed to approved members.
func (s *SectionService) ListMembers(ctx context.Context, sectionID, viewerID string, status models.MemberStatus) ([]models.SectionMember, error) {
	ctx = ensureContext(ctx)

	if status != "" && !status.Valid() {
		return nil, apperrors.NewBadRequest(fmt.Sprintf("invalid status filter %q", status))
	}

	section, err := s.loadSection(s.db.WithContext(ctx), sectionID)
	if err != nil {
		return nil, err
	}

	viewer, err := s.findMember(s.db.WithContext(ctx), section.ID, viewerID)
	if err != nil {
		return nil, err
	}
	approvedViewer := viewer != nil && viewer.Status == models.MemberStatusApproved
	adminViewer := approvedViewer && viewer.IsAdmin

	if !section.IsPublic && !approvedViewer {
		return nil, ErrNotAuthorized
	}
	if !adminViewer {
		if status != "" && status != models.MemberStatusApproved {
			return nil, ErrNotAuthorized
		}
		status = models.MemberStatusApproved
	}

	query := s.db.WithContext(ctx).Where("section_id = ?", section.ID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var members []models.SectionMember
	if err := query.Order("joined_at ASC").Order("id ASC").Find(&members).Error; err != nil {
		return nil, fmt.Errorf("section service: list members: %w", err)
	}
	return members, nil
}

// Membership returns the user's membership row, or ErrNotAMember.
func (s *SectionService) Membership(ctx context.Context, sectionID, userID string) (*models.SectionMember, error) {
	ctx = ensureContext(ctx)

	member, err := s.findMember(s.db.WithContext(ctx), strings.TrimSpace(sectionID), userID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrNotAMember
	}
	return member, nil
}

// MemberCount counts approved members.
func (s *SectionService) MemberCount(ctx context.Context, sectionID string) (int64, error) {
	ctx = ensureContext(ctx)

	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.SectionMember{}).
		Where("section_id = ? AND status = ?", strings.TrimSpace(sectionID), models.MemberStatusApproved).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("section service: count members: %w", err)
	}
	return count, nil
}

// IsAdmin reports whether the user is an approved admin of the section.
func (s *SectionService) IsAdmin(ctx context.Context, sectionID, userID string) (bool, error) {
	ctx = ensureContext(ctx)
	return isSectionAdmin(s.db.WithContext(ctx), sectionID, userID)
}

func (s *SectionService) loadSection(db *gorm.DB, sectionID string) (*models.Section, error) {
	var section models.Section
	err := db.First(&section, "id = ?", strings.TrimSpace(sectionID)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSectionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("section service: load section: %w", err)
	}
	return &section, nil
}

func (s *SectionService) findMember(db *gorm.DB, sectionID, userID string) (*models.SectionMember, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, nil
	}

	var member models.SectionMember
	err := db.Where("section_id = ? AND user_id = ?", sectionID, userID).First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("section service: load membership: %w", err)
	}
	return &member, nil
}

func (s *SectionService) requireAdmin(ctx context.Context, db *gorm.DB, sectionID, userID, action string) error {
	ok, err := isSectionAdmin(db, sectionID, userID)
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

func (s *SectionService) ensureNotSoleAdmin(tx *gorm.DB, member *models.SectionMember) error {
	if !member.IsAdmin || member.Status != models.MemberStatusApproved {
		return nil
	}
	var admins int64
	err := tx.Model(&models.SectionMember{}).
		Where("section_id = ? AND is_admin = ? AND status = ?", member.SectionID, true, models.MemberStatusApproved).
		Count(&admins).Error
	if err != nil {
		return fmt.Errorf("section service: count admins: %w", err)
	}
	if admins <= 1 {
		return ErrSoleAdmin
	}
	return nil
}

// isSectionAdmin is shared by every service that gates on section admin rights.
func isSectionAdmin(db *gorm.DB, sectionID, userID string) (bool, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false, nil
	}
	var count int64
	err := db.Model(&models.SectionMember{}).
		Where("section_id = ? AND user_id = ? AND is_admin = ? AND status = ?",
			strings.TrimSpace(sectionID), userID, true, models.MemberStatusApproved).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check section admin: %w", err)
	}
	return count > 0, nil
}

// isApprovedMember reports whether the user holds an approved membership.
func isApprovedMember(db *gorm.DB, sectionID, userID string) (bool, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false, nil
	}
	var count int64
	err := db.Model(&models.SectionMember{}).
		Where("section_id = ? AND user_id = ? AND status = ?",
			strings.TrimSpace(sectionID), userID, models.MemberStatusApproved).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check section membership: %w", err)
	}
	return count > 0, nil
}
