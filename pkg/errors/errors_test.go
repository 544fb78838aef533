package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorString(t *testing.T) {
	require.Equal(t, "Resource not found", ErrNotFound.Error())
	require.Equal(t, "Internal server error: boom", ErrInternalServer.WithInternal(stdErrors.New("boom")).Error())
	require.Equal(t, "<nil>", (*AppError)(nil).Error())
}

func TestCopiesLeaveSentinelUntouched(t *testing.T) {
	base := New("SECTION_NOT_FOUND", "Section not found", http.StatusNotFound)
	cause := stdErrors.New("record not found")

	with := base.WithInternal(cause)
	require.NotSame(t, base, with)
	require.Nil(t, base.Internal)
	require.ErrorIs(t, with, cause)

	renamed := base.WithMessage("no section 42")
	require.Equal(t, "Section not found", base.Message)
	require.Equal(t, "no section 42", renamed.Message)
}

func TestCopiesMatchSentinelByCode(t *testing.T) {
	base := New("ALREADY_MEMBER", "already a member", http.StatusConflict)

	require.ErrorIs(t, base.WithInternal(stdErrors.New("unique")), base)
	require.ErrorIs(t, fmt.Errorf("section service: join: %w", base.WithMessage("custom")), base)
	require.NotErrorIs(t, base, ErrNotFound)
	require.NotErrorIs(t, New("", "a", 400), New("", "b", 400))
}

func TestStatus(t *testing.T) {
	require.Equal(t, http.StatusForbidden, ErrForbidden.Status())
	require.Equal(t, http.StatusInternalServerError, New("X", "x", 0).Status())
	require.Equal(t, http.StatusInternalServerError, (*AppError)(nil).Status())
}

func TestFromError(t *testing.T) {
	require.Nil(t, FromError(nil))
	require.Same(t, ErrNotFound, FromError(fmt.Errorf("wrapped: %w", ErrNotFound)))

	raw := stdErrors.New("raw")
	out := FromError(raw)
	require.Equal(t, ErrInternalServer.Code, out.Code)
	require.ErrorIs(t, out, raw)
}

func TestNewBadRequest(t *testing.T) {
	err := NewBadRequest("invalid payload")
	require.Equal(t, ErrBadRequest.Code, err.Code)
	require.Equal(t, "invalid payload", err.Message)
	require.Equal(t, http.StatusBadRequest, err.Status())
	require.Equal(t, "Invalid request", ErrBadRequest.Message)
}
