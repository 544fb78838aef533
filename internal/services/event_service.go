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
)

// CreateEventInput captures new event metadata.
type CreateEventInput struct {
	Title               string
	Description         string
	StartsAt            time.Time
	EndsAt              *time.Time
	Location            string
	ImageURL            string
	Tags                []string
	Published           bool
	IsPrivate           bool
	GroupName           *string
	MaxCapacity         *int
	GuestListVisibility models.GuestListVisibility
}

// UpdateEventInput describes mutable event fields. An empty GroupName removes the grouping
// and a MaxCapacity of zero removes the limit.
type UpdateEventInput struct {
	Title               *string
	Description         *string
	StartsAt            *time.Time
	EndsAt              *time.Time
	Location            *string
	ImageURL            *string
	Tags                []string
	Published           *bool
	IsPrivate           *bool
	GroupName           *string
	MaxCapacity         *int
	GuestListVisibility *models.GuestListVisibility
}

// EventService owns event definitions.
type EventService struct {
	db           *gorm.DB
	auditService *AuditService
	notifier     RowsNotifier
}

// NewEventService constructs an EventService instance.
func NewEventService(db *gorm.DB, auditService *AuditService, notifier RowsNotifier) (*EventService, error) {
	if db == nil {
		return nil, errors.New("event service: db is required")
	}
	return &EventService{
		db:           db,
		auditService: auditService,
		notifier:     notifier,
	}, nil
}

// Create registers a new event owned by creatorID.
func (s *EventService) Create(ctx context.Context, creatorID string, input CreateEventInput) (*models.Event, error) {
	ctx = ensureContext(ctx)

	creatorID = strings.TrimSpace(creatorID)
	if creatorID == "" {
		return nil, apperrors.ErrUnauthorized
	}

	event := &models.Event{
		CreatorID:           creatorID,
		Title:               strings.TrimSpace(input.Title),
		Description:         strings.TrimSpace(input.Description),
		StartsAt:            input.StartsAt.UTC(),
		Location:            strings.TrimSpace(input.Location),
		ImageURL:            strings.TrimSpace(input.ImageURL),
		Tags:                normaliseTags(input.Tags),
		Published:           input.Published,
		IsPrivate:           input.IsPrivate,
		GroupName:           normaliseGroupName(input.GroupName),
		MaxCapacity:         input.MaxCapacity,
		GuestListVisibility: input.GuestListVisibility,
	}
	if input.EndsAt != nil {
		ends := input.EndsAt.UTC()
		event.EndsAt = &ends
	}
	if event.GuestListVisibility == "" {
		event.GuestListVisibility = models.GuestListPublic
	}

	if err := validateEvent(event); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		return nil, fmt.Errorf("event service: create event: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		ActorID:  creatorID,
		Action:   "event.create",
		Resource: event.ID,
		Result:   auditResultSuccess,
		Metadata: map[string]any{"title": event.Title, "group_name": event.GroupName},
	})
	notifyRows(s.notifier, TableEvents, event.ID)

	return event, nil
}

// Update modifies an event. Only the creator may update.
func (s *EventService) Update(ctx context.Context, eventID, by string, input UpdateEventInput) (*models.Event, error) {
	ctx = ensureContext(ctx)

	event, err := loadEvent(s.db.WithContext(ctx), eventID)
	if err != nil {
		return nil, err
	}
	if event.CreatorID != strings.TrimSpace(by) {
		recordAudit(s.auditService, ctx, AuditEntry{
			ActorID:  by,
			Action:   "event.update",
			Resource: event.ID,
			Result:   auditResultDenied,
		})
		return nil, ErrNotAuthorized
	}

	candidate := *event
	updates := map[string]any{}
	if input.Title != nil {
		candidate.Title = strings.TrimSpace(*input.Title)
		updates["title"] = candidate.Title
	}
	if input.Description != nil {
		candidate.Description = strings.TrimSpace(*input.Description)
		updates["description"] = candidate.Description
	}
	if input.StartsAt != nil {
		candidate.StartsAt = input.StartsAt.UTC()
		updates["starts_at"] = candidate.StartsAt
	}
	if input.EndsAt != nil {
		ends := input.EndsAt.UTC()
		candidate.EndsAt = &ends
		updates["ends_at"] = ends
	}
	if input.Location != nil {
		candidate.Location = strings.TrimSpace(*input.Location)
		updates["location"] = candidate.Location
	}
	if input.ImageURL != nil {
		candidate.ImageURL = strings.TrimSpace(*input.ImageURL)
		updates["image_url"] = candidate.ImageURL
	}
	if input.Tags != nil {
		candidate.Tags = normaliseTags(input.Tags)
		updates["tags"] = candidate.Tags
	}
	if input.Published != nil {
		candidate.Published = *input.Published
		updates["published"] = candidate.Published
	}
	if input.IsPrivate != nil {
		candidate.IsPrivate = *input.IsPrivate
		updates["is_private"] = candidate.IsPrivate
	}
	if input.GroupName != nil {
		candidate.GroupName = normaliseGroupName(input.GroupName)
		updates["group_name"] = candidate.GroupName
	}
	if input.MaxCapacity != nil {
		if *input.MaxCapacity == 0 {
			candidate.MaxCapacity = nil
			updates["max_capacity"] = nil
		} else {
			capacity := *input.MaxCapacity
			candidate.MaxCapacity = &capacity
			updates["max_capacity"] = capacity
		}
	}
	if input.GuestListVisibility != nil {
		candidate.GuestListVisibility = *input.GuestListVisibility
		updates["guest_list_visibility"] = candidate.GuestListVisibility
	}

	if len(updates) == 0 {
		return event, nil
	}
	if err := validateEvent(&candidate); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(event).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("event service: update event: %w", err)
	}

	reloaded, err := loadEvent(s.db.WithContext(ctx), event.ID)
	if err != nil {
		return nil, err
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		ActorID:  by,
		Action:   "event.update",
		Resource: event.ID,
		Result:   auditResultSuccess,
	})
	notifyRows(s.notifier, TableEvents, event.ID)

	return reloaded, nil
}

// Get returns an event the viewer may see. Private events are unlisted but reachable by id;
// unpublished drafts are visible only to their creator and to users already on the ledger.
func (s *EventService) Get(ctx context.Context, eventID, viewerID string) (*models.Event, error) {
	ctx = ensureContext(ctx)
	return loadVisibleEvent(s.db.WithContext(ctx), eventID, viewerID)
}

// ListByCreator lists a creator's events ordered by start time, optionally restricted to one
// group. Viewers other than the creator only see published public events.
func (s *EventService) ListByCreator(ctx context.Context, creatorID, viewerID string, groupName *string) ([]models.Event, error) {
	ctx = ensureContext(ctx)

	creatorID = strings.TrimSpace(creatorID)
	query := s.db.WithContext(ctx).Where("creator_id = ?", creatorID)
	if group := normaliseGroupName(groupName); group != nil {
		query = query.Where("group_name = ?", *group)
	}
	if strings.TrimSpace(viewerID) != creatorID {
		query = query.Where("published = ? AND is_private = ?", true, false)
	}

	var events []models.Event
	if err := query.Order("starts_at ASC").Order("id ASC").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("event service: list events: %w", err)
	}
	return events, nil
}

// ListGroups returns the distinct group names a creator has published events under.
func (s *EventService) ListGroups(ctx context.Context, creatorID string) ([]string, error) {
	ctx = ensureContext(ctx)

	var groups []string
	err := s.db.WithContext(ctx).Model(&models.Event{}).
		Distinct("group_name").
		Where("creator_id = ? AND group_name IS NOT NULL AND published = ? AND is_private = ?", strings.TrimSpace(creatorID), true, false).
		Order("group_name ASC").
		Pluck("group_name", &groups).Error
	if err != nil {
		return nil, fmt.Errorf("event service: list groups: %w", err)
	}
	return groups, nil
}

func loadEvent(db *gorm.DB, eventID string) (*models.Event, error) {
	var event models.Event
	err := db.First(&event, "id = ?", strings.TrimSpace(eventID)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("event service: load event: %w", err)
	}
	return &event, nil
}

// loadVisibleEvent loads the event and reports ErrEventNotFound to viewers who may not see it.
func loadVisibleEvent(db *gorm.DB, eventID, viewerID string) (*models.Event, error) {
	event, err := loadEvent(db, eventID)
	if err != nil {
		return nil, err
	}
	ok, err := canViewEvent(db, event, viewerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrEventNotFound
	}
	return event, nil
}

// canViewEvent gates direct access by id. is_private only removes an event from listings and
// subscriptions, so it is not checked here.
func canViewEvent(db *gorm.DB, event *models.Event, viewerID string) (bool, error) {
	if event.Published {
		return true, nil
	}
	viewerID = strings.TrimSpace(viewerID)
	if viewerID == "" {
		return false, nil
	}
	if viewerID == event.CreatorID {
		return true, nil
	}
	return hasLedgerRow(db, event.ID, viewerID)
}

func validateEvent(event *models.Event) error {
	if event.Title == "" {
		return apperrors.NewBadRequest("event title is required")
	}
	if event.StartsAt.IsZero() {
		return apperrors.NewBadRequest("event start time is required")
	}
	if event.EndsAt != nil && event.EndsAt.Before(event.StartsAt) {
		return apperrors.NewBadRequest("event cannot end before it starts")
	}
	if event.MaxCapacity != nil && *event.MaxCapacity < 1 {
		return apperrors.NewBadRequest("max_capacity must be at least 1")
	}
	if !event.GuestListVisibility.Valid() {
		return apperrors.NewBadRequest(fmt.Sprintf("invalid guest_list_visibility %q", event.GuestListVisibility))
	}
	return nil
}

func normaliseGroupName(name *string) *string {
	if name == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*name)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func normaliseTags(tags []string) []string {
	if tags == nil {
		return nil
	}
	out := normaliseIDs(tags)
	if out == nil {
		return []string{}
	}
	return out
}
