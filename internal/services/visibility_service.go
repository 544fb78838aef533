package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/charlesng35/huddle/internal/models"
	apperrors "github.com/charlesng35/huddle/pkg/errors"
)

// ViewerMode selects how a member's section list is filtered.
type ViewerMode string

const (
	// ViewerPublic honours each membership's show_membership flag.
	ViewerPublic ViewerMode = "public"
	// ViewerSelfEdit shows every membership to the owner.
	ViewerSelfEdit ViewerMode = "self_edit"
	// ViewerPreview shows only the previewed section, whatever its flag.
	ViewerPreview ViewerMode = "preview"
)

// ViewerContext describes who is looking at a member's profile.
type ViewerContext struct {
	Mode             ViewerMode
	PreviewSectionID string
}

// PublicView is the context used for any viewer other than the owner.
func PublicView() ViewerContext { return ViewerContext{Mode: ViewerPublic} }

// SelfEditView is the owner's editing context.
func SelfEditView() ViewerContext { return ViewerContext{Mode: ViewerSelfEdit} }

// PreviewAs renders the profile as members of sectionID would see it.
func PreviewAs(sectionID string) ViewerContext {
	return ViewerContext{Mode: ViewerPreview, PreviewSectionID: strings.TrimSpace(sectionID)}
}

// VisibleSection is one membership card on a member's profile.
type VisibleSection struct {
	Section        models.Section `json:"section"`
	IsAdmin        bool           `json:"is_admin"`
	ShowMembership bool           `json:"show_membership"`
}

// VisibilityService resolves which memberships a viewer may see.
type VisibilityService struct {
	db           *gorm.DB
	auditService *AuditService
	notifier     RowsNotifier
}

// NewVisibilityService constructs a VisibilityService instance.
func NewVisibilityService(db *gorm.DB, auditService *AuditService, notifier RowsNotifier) (*VisibilityService, error) {
	if db == nil {
		return nil, errors.New("visibility service: db is required")
	}
	return &VisibilityService{
		db:           db,
		auditService: auditService,
		notifier:     notifier,
	}, nil
}

// SetVisibility stores whether the user's approved membership appears on their public profile.
func (s *VisibilityService) SetVisibility(ctx context.Context, userID, sectionID string, show bool) (*models.SectionVisibility, error) {
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

	row := &models.SectionVisibility{UserID: userID, SectionID: sectionID, ShowMembership: show}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "section_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"show_membership", "updated_at"}),
	}).Create(row).Error; err != nil {
		return nil, fmt.Errorf("visibility service: set visibility: %w", err)
	}

	var stored models.SectionVisibility
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND section_id = ?", userID, sectionID).
		First(&stored).Error; err != nil {
		return nil, fmt.Errorf("visibility service: reload visibility: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		ActorID:  userID,
		Action:   "section.visibility",
		Resource: sectionID,
		Result:   auditResultSuccess,
		Metadata: map[string]any{"show_membership": show},
	})
	notifyRows(s.notifier, TableSectionVisibility, stored.ID)

	return &stored, nil
}

// VisibleSections filters the user's approved memberships for the viewer context. It never
// writes; preview leaves the stored flags untouched.
func (s *VisibilityService) VisibleSections(ctx context.Context, userID string, viewer ViewerContext) ([]VisibleSection, error) {
	ctx = ensureContext(ctx)

	userID = strings.TrimSpace(userID)

	var memberships []models.SectionMember
	if err := s.db.WithContext(ctx).
		Preload("Section").
		Where("user_id = ? AND status = ?", userID, models.MemberStatusApproved).
		Find(&memberships).Error; err != nil {
		return nil, fmt.Errorf("visibility service: load memberships: %w", err)
	}

	var flags []models.SectionVisibility
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&flags).Error; err != nil {
		return nil, fmt.Errorf("visibility service: load visibility: %w", err)
	}
	shown := make(map[string]bool, len(flags))
	for _, flag := range flags {
		shown[flag.SectionID] = flag.ShowMembership
	}

	cards := make([]VisibleSection, 0, len(memberships))
	for _, m := range memberships {
		if m.Section == nil {
			continue
		}
		show, ok := shown[m.SectionID]
		cards = append(cards, VisibleSection{
			Section:        *m.Section,
			IsAdmin:        m.IsAdmin,
			ShowMembership: !ok || show,
		})
	}

	return filterVisible(cards, viewer)
}

// filterVisible applies the viewer context to the owner's membership cards.
func filterVisible(cards []VisibleSection, viewer ViewerContext) ([]VisibleSection, error) {
	keep := func(VisibleSection) bool { return true }
	switch viewer.Mode {
	case ViewerSelfEdit:
	case ViewerPreview:
		if viewer.PreviewSectionID == "" {
			return nil, apperrors.NewBadRequest("preview requires a section id")
		}
		keep = func(c VisibleSection) bool { return c.Section.ID == viewer.PreviewSectionID }
	case ViewerPublic, "":
		keep = func(c VisibleSection) bool { return c.ShowMembership }
	default:
		return nil, apperrors.NewBadRequest(fmt.Sprintf("unknown viewer mode %q", viewer.Mode))
	}

	out := make([]VisibleSection, 0, len(cards))
	for _, c := range cards {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Section.Name != out[j].Section.Name {
			return out[i].Section.Name < out[j].Section.Name
		}
		return out[i].Section.ID < out[j].Section.ID
	})
	return out, nil
}
