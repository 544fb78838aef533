package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/charlesng35/huddle/internal/models"
	apperrors "github.com/charlesng35/huddle/pkg/errors"
	"github.com/charlesng35/huddle/pkg/logger"
	"github.com/charlesng35/huddle/pkg/metrics"
)

// RSVPConfig tunes the capacity policy.
type RSVPConfig struct {
	// StrictCapacity serialises going transitions per event behind a row lock on the event.
	// When false the cap is a read-then-write check that concurrent writers can overshoot.
	StrictCapacity bool
}

// RSVPCounts is the ledger grouped by status.
type RSVPCounts struct {
	Going    int64 `json:"going"`
	Maybe    int64 `json:"maybe"`
	NotGoing int64 `json:"not_going"`
}

// Guest is one ledger row enriched with the attendee's public profile.
type Guest struct {
	UserID    string            `json:"user_id"`
	Status    models.RSVPStatus `json:"status"`
	UpdatedAt time.Time         `json:"updated_at"`
	FullName  string            `json:"full_name,omitempty"`
	AvatarURL string            `json:"avatar_url,omitempty"`
	IsPrivate bool              `json:"is_private"`
}

// RSVPService is the per-event attendance ledger.
type RSVPService struct {
	db           *gorm.DB
	auditService *AuditService
	notifier     RowsNotifier
	profiles     ProfileStore
	cfg          RSVPConfig
	log          *zap.Logger
}

// NewRSVPService constructs an RSVPService instance. profiles may be nil, in which case guest
// lists carry no profile attributes.
func NewRSVPService(db *gorm.DB, auditService *AuditService, notifier RowsNotifier, profiles ProfileStore, cfg RSVPConfig) (*RSVPService, error) {
	if db == nil {
		return nil, errors.New("rsvp service: db is required")
	}
	return &RSVPService{
		db:           db,
		auditService: auditService,
		notifier:     notifier,
		profiles:     profiles,
		cfg:          cfg,
		log:          logger.WithModule("rsvp"),
	}, nil
}

// SetRSVP upserts the user's status for the event, applying the capacity policy to transitions
// into going.
func (s *RSVPService) SetRSVP(ctx context.Context, eventID, userID string, status models.RSVPStatus) (*models.EventRSVP, error) {
	ctx = ensureContext(ctx)

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperrors.ErrUnauthorized
	}
	if !status.Valid() {
		return nil, apperrors.NewBadRequest(fmt.Sprintf("invalid rsvp status %q", status))
	}

	var (
		rsvp *models.EventRSVP
		err  error
	)
	if s.cfg.StrictCapacity {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			event, err := loadEventForUpdate(tx, eventID)
			if err != nil {
				return err
			}
			rsvp, err = s.applyRSVP(tx, event, userID, status)
			return err
		})
	} else {
		var event *models.Event
		event, err = loadEvent(s.db.WithContext(ctx), eventID)
		if err == nil {
			rsvp, err = s.applyRSVP(s.db.WithContext(ctx), event, userID, status)
		}
	}

	if err != nil {
		result := "error"
		if errors.Is(err, ErrCapacityExceeded) {
			result = "capacity"
			s.log.Debug("rsvp rejected at capacity",
				zap.String("event_id", eventID),
				zap.String("user_id", userID),
				zap.Bool("strict", s.cfg.StrictCapacity),
			)
		}
		metrics.RSVPWrites.WithLabelValues(string(status), result).Inc()
		return nil, err
	}

	metrics.RSVPWrites.WithLabelValues(string(status), "accepted").Inc()
	recordAudit(s.auditService, ctx, AuditEntry{
		ActorID:  userID,
		Action:   "rsvp.set",
		Resource: rsvp.EventID,
		Result:   auditResultSuccess,
		Metadata: map[string]any{"status": status},
	})
	notifyRows(s.notifier, TableEventRSVPs, rsvp.ID)

	return rsvp, nil
}

func (s *RSVPService) applyRSVP(db *gorm.DB, event *models.Event, userID string, status models.RSVPStatus) (*models.EventRSVP, error) {
	visible, err := canViewEvent(db, event, userID)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, ErrEventNotFound
	}

	existing, err := findRSVP(db, event.ID, userID)
	if err != nil {
		return nil, err
	}

	alreadyGoing := existing != nil && existing.Status == models.RSVPGoing
	if status == models.RSVPGoing && event.HasCapacity() && !alreadyGoing {
		going, err := countStatus(db, event.ID, models.RSVPGoing)
		if err != nil {
			return nil, err
		}
		if going >= int64(*event.MaxCapacity) {
			return nil, ErrCapacityExceeded
		}
	}

	if existing != nil {
		return updateRSVP(db, existing, status)
	}

	rsvp := &models.EventRSVP{EventID: event.ID, UserID: userID, Status: status}
	if err := db.Create(rsvp).Error; err != nil {
		if !isUniqueConstraintError(err) {
			return nil, fmt.Errorf("rsvp service: create rsvp: %w", err)
		}
		// lost an insert race against the same user; the row now exists, so overwrite it
		existing, err := findRSVP(db, event.ID, userID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, fmt.Errorf("rsvp service: rsvp vanished after conflict")
		}
		return updateRSVP(db, existing, status)
	}
	return rsvp, nil
}

// GetRSVP returns the user's ledger row for the event.
func (s *RSVPService) GetRSVP(ctx context.Context, eventID, userID string) (*models.EventRSVP, error) {
	ctx = ensureContext(ctx)

	rsvp, err := findRSVP(s.db.WithContext(ctx), strings.TrimSpace(eventID), strings.TrimSpace(userID))
	if err != nil {
		return nil, err
	}
	if rsvp == nil {
		return nil, apperrors.ErrNotFound.WithMessage("No RSVP for this event")
	}
	return rsvp, nil
}

// ClearRSVP removes the user's ledger row.
func (s *RSVPService) ClearRSVP(ctx context.Context, eventID, userID string) error {
	ctx = ensureContext(ctx)

	rsvp, err := s.GetRSVP(ctx, eventID, userID)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(rsvp).Error; err != nil {
		return fmt.Errorf("rsvp service: clear rsvp: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		ActorID:  rsvp.UserID,
		Action:   "rsvp.clear",
		Resource: rsvp.EventID,
		Result:   auditResultSuccess,
	})
	notifyRows(s.notifier, TableEventRSVPs, rsvp.ID)

	return nil
}

// Counts groups the ledger by status for an event the viewer may see.
func (s *RSVPService) Counts(ctx context.Context, eventID, viewerID string) (RSVPCounts, error) {
	ctx = ensureContext(ctx)

	event, err := loadVisibleEvent(s.db.WithContext(ctx), eventID, viewerID)
	if err != nil {
		return RSVPCounts{}, err
	}

	var rows []struct {
		Status models.RSVPStatus
		Total  int64
	}
	if err := s.db.WithContext(ctx).Model(&models.EventRSVP{}).
		Select("status, COUNT(*) AS total").
		Where("event_id = ?", event.ID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return RSVPCounts{}, fmt.Errorf("rsvp service: count rsvps: %w", err)
	}

	var counts RSVPCounts
	for _, row := range rows {
		switch row.Status {
		case models.RSVPGoing:
			counts.Going = row.Total
		case models.RSVPMaybe:
			counts.Maybe = row.Total
		case models.RSVPNotGoing:
			counts.NotGoing = row.Total
		}
	}
	return counts, nil
}

// SpotsRemaining returns nil for events without a capacity, otherwise the free going slots
// clamped at zero.
func (s *RSVPService) SpotsRemaining(ctx context.Context, eventID, viewerID string) (*int64, error) {
	ctx = ensureContext(ctx)

	event, err := loadVisibleEvent(s.db.WithContext(ctx), eventID, viewerID)
	if err != nil {
		return nil, err
	}
	return s.spotsRemaining(ctx, event)
}

func (s *RSVPService) spotsRemaining(ctx context.Context, event *models.Event) (*int64, error) {
	if !event.HasCapacity() {
		return nil, nil
	}
	going, err := countStatus(s.db.WithContext(ctx), event.ID, models.RSVPGoing)
	if err != nil {
		return nil, err
	}
	remaining := int64(*event.MaxCapacity) - going
	if remaining < 0 {
		remaining = 0
	}
	return &remaining, nil
}

// CanSeeGuestList applies the event's guest list visibility to the viewer.
func (s *RSVPService) CanSeeGuestList(ctx context.Context, eventID, viewerID string) (bool, error) {
	ctx = ensureContext(ctx)

	event, err := loadVisibleEvent(s.db.WithContext(ctx), eventID, viewerID)
	if err != nil {
		return false, err
	}
	return canSeeGuestList(s.db.WithContext(ctx), event, viewerID)
}

func canSeeGuestList(db *gorm.DB, event *models.Event, viewerID string) (bool, error) {
	viewerID = strings.TrimSpace(viewerID)
	if viewerID != "" && viewerID == event.CreatorID {
		return true, nil
	}
	switch event.GuestListVisibility {
	case models.GuestListPublic:
		return true, nil
	case models.GuestListRSVPOnly:
		if viewerID == "" {
			return false, nil
		}
		return hasLedgerRow(db, event.ID, viewerID)
	default:
		return false, nil
	}
}

// HasAccess gates the comments component: only going or maybe attendees have access.
func (s *RSVPService) HasAccess(ctx context.Context, eventID, userID string) (bool, error) {
	ctx = ensureContext(ctx)

	rsvp, err := findRSVP(s.db.WithContext(ctx), strings.TrimSpace(eventID), strings.TrimSpace(userID))
	if err != nil {
		return false, err
	}
	if rsvp == nil {
		return false, nil
	}
	return rsvp.Status == models.RSVPGoing || rsvp.Status == models.RSVPMaybe, nil
}

// ListGuests returns the ledger of a visible event for viewers allowed to see it, optionally filtered by status.
// Attendees with private profiles are listed without name or avatar.
func (s *RSVPService) ListGuests(ctx context.Context, eventID, viewerID string, status models.RSVPStatus) ([]Guest, error) {
	ctx = ensureContext(ctx)

	if status != "" && !status.Valid() {
		return nil, apperrors.NewBadRequest(fmt.Sprintf("invalid rsvp status %q", status))
	}

	event, err := loadVisibleEvent(s.db.WithContext(ctx), eventID, viewerID)
	if err != nil {
		return nil, err
	}
	allowed, err := canSeeGuestList(s.db.WithContext(ctx), event, viewerID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrNotAuthorized
	}

	query := s.db.WithContext(ctx).Where("event_id = ?", event.ID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var rows []models.EventRSVP
	if err := query.Order("updated_at ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("rsvp service: list guests: %w", err)
	}

	var profiles map[string]models.Profile
	if s.profiles != nil && len(rows) > 0 {
		ids := make([]string, 0, len(rows))
		for _, row := range rows {
			ids = append(ids, row.UserID)
		}
		if profiles, err = s.profiles.GetProfiles(ctx, ids); err != nil {
			return nil, fmt.Errorf("rsvp service: load profiles: %w", err)
		}
	}

	guests := make([]Guest, 0, len(rows))
	for _, row := range rows {
		guest := Guest{UserID: row.UserID, Status: row.Status, UpdatedAt: row.UpdatedAt}
		if profile, ok := profiles[row.UserID]; ok {
			guest.IsPrivate = profile.IsPrivate
			if !profile.IsPrivate {
				guest.FullName = profile.FullName
				guest.AvatarURL = profile.AvatarURL
			}
		}
		guests = append(guests, guest)
	}
	return guests, nil
}

func loadEventForUpdate(tx *gorm.DB, eventID string) (*models.Event, error) {
	var event models.Event
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&event, "id = ?", strings.TrimSpace(eventID)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("rsvp service: lock event: %w", err)
	}
	return &event, nil
}

func findRSVP(db *gorm.DB, eventID, userID string) (*models.EventRSVP, error) {
	if userID == "" {
		return nil, nil
	}
	var rsvp models.EventRSVP
	err := db.Where("event_id = ? AND user_id = ?", eventID, userID).First(&rsvp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("rsvp service: load rsvp: %w", err)
	}
	return &rsvp, nil
}

func updateRSVP(db *gorm.DB, rsvp *models.EventRSVP, status models.RSVPStatus) (*models.EventRSVP, error) {
	rsvp.Status = status
	if err := db.Model(rsvp).Updates(map[string]any{"status": status}).Error; err != nil {
		return nil, fmt.Errorf("rsvp service: update rsvp: %w", err)
	}
	return rsvp, nil
}

func countStatus(db *gorm.DB, eventID string, status models.RSVPStatus) (int64, error) {
	var count int64
	if err := db.Model(&models.EventRSVP{}).
		Where("event_id = ? AND status = ?", eventID, status).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("rsvp service: count %s: %w", status, err)
	}
	return count, nil
}

func hasLedgerRow(db *gorm.DB, eventID, userID string) (bool, error) {
	var count int64
	if err := db.Model(&models.EventRSVP{}).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("rsvp service: check ledger: %w", err)
	}
	return count > 0, nil
}
