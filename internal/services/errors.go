package services

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/charlesng35/huddle/internal/fields"
	apperrors "github.com/charlesng35/huddle/pkg/errors"
)

var (
	// ErrDuplicateSectionName indicates the creator already owns a section with that name.
	ErrDuplicateSectionName = apperrors.New("DUPLICATE_SECTION_NAME", "You already have a section with this name", http.StatusConflict)
	// ErrAlreadyMember signals a membership row already exists for the user.
	ErrAlreadyMember = apperrors.New("ALREADY_MEMBER", "User already has a membership for this section", http.StatusConflict)
	// ErrNotAuthorized indicates the caller lacks the admin or ownership rights required.
	ErrNotAuthorized = apperrors.New("NOT_AUTHORIZED", "You are not allowed to perform this action", http.StatusForbidden)
	// ErrNoSuchRequest indicates there is no pending join request to decide.
	ErrNoSuchRequest = apperrors.New("NO_SUCH_REQUEST", "No pending join request found", http.StatusNotFound)
	// ErrNotAMember indicates the user has no membership in the section.
	ErrNotAMember = apperrors.New("NOT_A_MEMBER", "User is not a member of this section", http.StatusNotFound)
	// ErrSoleAdmin prevents a section from being left without an approved admin.
	ErrSoleAdmin = apperrors.New("SOLE_ADMIN", "The last admin of a section cannot leave or be demoted", http.StatusConflict)
	// ErrSectionNotFound indicates the requested section does not exist.
	ErrSectionNotFound = apperrors.New("SECTION_NOT_FOUND", "Section not found", http.StatusNotFound)
	// ErrFieldNotFound indicates the profile field does not exist or is inactive.
	ErrFieldNotFound = apperrors.New("FIELD_NOT_FOUND", "Profile field not found", http.StatusBadRequest)
	// ErrDuplicateFieldName indicates the section already defines a field with that name.
	ErrDuplicateFieldName = apperrors.New("DUPLICATE_FIELD_NAME", "A field with this name already exists", http.StatusConflict)
	// ErrEventNotFound indicates the requested event does not exist.
	ErrEventNotFound = apperrors.New("EVENT_NOT_FOUND", "Event not found", http.StatusNotFound)
	// ErrCapacityExceeded indicates a going RSVP would exceed the event's capacity.
	ErrCapacityExceeded = apperrors.New("CAPACITY_EXCEEDED", "This event is full", http.StatusConflict)
	// ErrAlreadySubscribed indicates the subscription already exists.
	ErrAlreadySubscribed = apperrors.New("ALREADY_SUBSCRIBED", "Already subscribed to this group", http.StatusConflict)
	// ErrNotSubscribed indicates there is no subscription to remove.
	ErrNotSubscribed = apperrors.New("NOT_SUBSCRIBED", "Not subscribed to this group", http.StatusNotFound)
)

// Answer validation kinds, re-exported for callers that only import services.
var (
	ErrRequiredFieldMissing = fields.ErrRequiredFieldMissing
	ErrInvalidNumber        = fields.ErrInvalidNumber
	ErrInvalidURL           = fields.ErrInvalidURL
	ErrInvalidEmail         = fields.ErrInvalidEmail
	ErrInvalidOption        = fields.ErrInvalidOption
	ErrTooLong              = fields.ErrTooLong
)

// isUniqueConstraintError detects database uniqueness constraint violations across vendors.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr != nil && pgErr.Code == "23505" {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr != nil && myErr.Number == 1062 {
		return true
	}

	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "unique constraint") ||
		strings.Contains(lower, "duplicate")
}
