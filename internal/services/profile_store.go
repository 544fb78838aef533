package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/charlesng35/huddle/internal/models"
	apperrors "github.com/charlesng35/huddle/pkg/errors"
)

// ProfileStore resolves public profile attributes for users. Unknown users are simply absent
// from the returned map.
type ProfileStore interface {
	GetProfiles(ctx context.Context, userIDs []string) (map[string]models.Profile, error)
}

// UpsertProfileInput carries the attributes a user may set on their own profile.
type UpsertProfileInput struct {
	FullName  string
	AvatarURL string
	IsPrivate bool
}

// ProfileService is the gorm-backed ProfileStore.
type ProfileService struct {
	db *gorm.DB
}

var _ ProfileStore = (*ProfileService)(nil)

// NewProfileService constructs a ProfileService.
func NewProfileService(db *gorm.DB) (*ProfileService, error) {
	if db == nil {
		return nil, errors.New("profile service: db is required")
	}
	return &ProfileService{db: db}, nil
}

// GetProfiles loads the profiles for the supplied user identifiers.
func (s *ProfileService) GetProfiles(ctx context.Context, userIDs []string) (map[string]models.Profile, error) {
	ctx = ensureContext(ctx)

	ids := normaliseIDs(userIDs)
	out := make(map[string]models.Profile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var profiles []models.Profile
	if err := s.db.WithContext(ctx).Where("user_id IN ?", ids).Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("profile service: load profiles: %w", err)
	}
	for _, p := range profiles {
		out[p.UserID] = p
	}
	return out, nil
}

// Get returns a single profile.
func (s *ProfileService) Get(ctx context.Context, userID string) (*models.Profile, error) {
	ctx = ensureContext(ctx)

	var profile models.Profile
	err := s.db.WithContext(ctx).First(&profile, "user_id = ?", strings.TrimSpace(userID)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("profile service: load profile: %w", err)
	}
	return &profile, nil
}

// Upsert creates or replaces the caller's profile.
func (s *ProfileService) Upsert(ctx context.Context, userID string, input UpsertProfileInput) (*models.Profile, error) {
	ctx = ensureContext(ctx)

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperrors.ErrUnauthorized
	}

	profile := models.Profile{
		UserID:    userID,
		FullName:  strings.TrimSpace(input.FullName),
		AvatarURL: strings.TrimSpace(input.AvatarURL),
		IsPrivate: input.IsPrivate,
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"full_name", "avatar_url", "is_private", "updated_at"}),
	}).Create(&profile).Error
	if err != nil {
		return nil, fmt.Errorf("profile service: upsert profile: %w", err)
	}

	return s.Get(ctx, userID)
}
