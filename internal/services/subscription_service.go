package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/charlesng35/huddle/internal/models"
	apperrors "github.com/charlesng35/huddle/pkg/errors"
	"github.com/charlesng35/huddle/pkg/metrics"
)

// SubscriptionService manages follows on a creator's event groups.
type SubscriptionService struct {
	db           *gorm.DB
	auditService *AuditService
	notifier     RowsNotifier
	clock        Clock
}

// NewSubscriptionService constructs a SubscriptionService instance. A nil clock uses wall time.
func NewSubscriptionService(db *gorm.DB, auditService *AuditService, notifier RowsNotifier, clock Clock) (*SubscriptionService, error) {
	if db == nil {
		return nil, errors.New("subscription service: db is required")
	}
	return &SubscriptionService{
		db:           db,
		auditService: auditService,
		notifier:     notifier,
		clock:        clock,
	}, nil
}

// Subscribe follows the creator's group.
func (s *SubscriptionService) Subscribe(ctx context.Context, subscriberID, creatorID, groupName string) (*models.EventGroupSubscription, error) {
	ctx = ensureContext(ctx)

	sub, err := newSubscription(subscriberID, creatorID, groupName)
	if err != nil {
		return nil, err
	}

	exists, err := s.exists(ctx, sub)
	if err != nil {
		return nil, err
	}
	if exists {
		metrics.SubscriptionChanges.WithLabelValues("subscribe", "duplicate").Inc()
		return nil, ErrAlreadySubscribed
	}

	if err := s.db.WithContext(ctx).Create(sub).Error; err != nil {
		if isUniqueConstraintError(err) {
			metrics.SubscriptionChanges.WithLabelValues("subscribe", "duplicate").Inc()
			return nil, ErrAlreadySubscribed
		}
		metrics.SubscriptionChanges.WithLabelValues("subscribe", "error").Inc()
		return nil, fmt.Errorf("subscription service: subscribe: %w", err)
	}

	metrics.SubscriptionChanges.WithLabelValues("subscribe", auditResultSuccess).Inc()
	recordAudit(s.auditService, ctx, AuditEntry{
		ActorID:  sub.SubscriberID,
		Action:   "group.subscribe",
		Resource: sub.CreatorID,
		Result:   auditResultSuccess,
		Metadata: map[string]any{"group_name": sub.GroupName},
	})
	notifyRows(s.notifier, TableEventGroupSubscribers, sub.ID)

	return sub, nil
}

// Unsubscribe removes the follow.
func (s *SubscriptionService) Unsubscribe(ctx context.Context, subscriberID, creatorID, groupName string) error {
	ctx = ensureContext(ctx)

	sub, err := newSubscription(subscriberID, creatorID, groupName)
	if err != nil {
		return err
	}

	result := s.db.WithContext(ctx).
		Where("subscriber_id = ? AND creator_id = ? AND group_name = ?", sub.SubscriberID, sub.CreatorID, sub.GroupName).
		Delete(&models.EventGroupSubscription{})
	if result.Error != nil {
		metrics.SubscriptionChanges.WithLabelValues("unsubscribe", "error").Inc()
		return fmt.Errorf("subscription service: unsubscribe: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		metrics.SubscriptionChanges.WithLabelValues("unsubscribe", "missing").Inc()
		return ErrNotSubscribed
	}

	metrics.SubscriptionChanges.WithLabelValues("unsubscribe", auditResultSuccess).Inc()
	recordAudit(s.auditService, ctx, AuditEntry{
		ActorID:  sub.SubscriberID,
		Action:   "group.unsubscribe",
		Resource: sub.CreatorID,
		Result:   auditResultSuccess,
		Metadata: map[string]any{"group_name": sub.GroupName},
	})
	notifyRows(s.notifier, TableEventGroupSubscribers, sub.CreatorID)

	return nil
}

// IsSubscribed reports whether the follow exists.
func (s *SubscriptionService) IsSubscribed(ctx context.Context, subscriberID, creatorID, groupName string) (bool, error) {
	ctx = ensureContext(ctx)

	sub, err := newSubscription(subscriberID, creatorID, groupName)
	if err != nil {
		return false, err
	}
	return s.exists(ctx, sub)
}

// SubscriberCount counts followers of the creator's group.
func (s *SubscriptionService) SubscriberCount(ctx context.Context, creatorID, groupName string) (int64, error) {
	ctx = ensureContext(ctx)

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.EventGroupSubscription{}).
		Where("creator_id = ? AND group_name = ?", strings.TrimSpace(creatorID), strings.TrimSpace(groupName)).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("subscription service: count subscribers: %w", err)
	}
	return count, nil
}

// ListSubscriptions returns the subscriber's follows, newest first.
func (s *SubscriptionService) ListSubscriptions(ctx context.Context, subscriberID string) ([]models.EventGroupSubscription, error) {
	ctx = ensureContext(ctx)

	var subs []models.EventGroupSubscription
	if err := s.db.WithContext(ctx).
		Where("subscriber_id = ?", strings.TrimSpace(subscriberID)).
		Order("created_at DESC").
		Order("id ASC").
		Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("subscription service: list subscriptions: %w", err)
	}
	return subs, nil
}

// UpcomingEvents lists the published public events in the subscribed group that start today
// or later, earliest first.
func (s *SubscriptionService) UpcomingEvents(ctx context.Context, sub models.EventGroupSubscription) ([]models.Event, error) {
	ctx = ensureContext(ctx)

	from := startOfDay(s.clock.now().UTC())

	var events []models.Event
	if err := s.db.WithContext(ctx).
		Where("creator_id = ? AND group_name = ?", sub.CreatorID, sub.GroupName).
		Where("published = ? AND is_private = ?", true, false).
		Where("starts_at >= ?", from).
		Order("starts_at ASC").
		Order("id ASC").
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("subscription service: upcoming events: %w", err)
	}
	return events, nil
}

func (s *SubscriptionService) exists(ctx context.Context, sub *models.EventGroupSubscription) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.EventGroupSubscription{}).
		Where("subscriber_id = ? AND creator_id = ? AND group_name = ?", sub.SubscriberID, sub.CreatorID, sub.GroupName).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("subscription service: check subscription: %w", err)
	}
	return count > 0, nil
}

func newSubscription(subscriberID, creatorID, groupName string) (*models.EventGroupSubscription, error) {
	sub := &models.EventGroupSubscription{
		SubscriberID: strings.TrimSpace(subscriberID),
		CreatorID:    strings.TrimSpace(creatorID),
		GroupName:    strings.TrimSpace(groupName),
	}
	if sub.SubscriberID == "" {
		return nil, apperrors.ErrUnauthorized
	}
	if sub.CreatorID == "" || sub.GroupName == "" {
		return nil, apperrors.NewBadRequest("creator_id and group_name are required")
	}
	return sub, nil
}
