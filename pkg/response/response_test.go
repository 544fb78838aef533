package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	appErrors "github.com/charlesng35/huddle/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func render(t *testing.T, write func(*gin.Context)) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)
	write(ctx)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func TestSuccess(t *testing.T) {
	rec, resp := render(t, func(c *gin.Context) {
		Success(c, http.StatusCreated, gin.H{"name": "Climbers"})
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	require.True(t, resp.Success)
	require.Nil(t, resp.Error)
	require.Equal(t, map[string]any{"name": "Climbers"}, resp.Data)
}

func TestSuccessWithMeta(t *testing.T) {
	_, resp := render(t, func(c *gin.Context) {
		SuccessWithMeta(c, http.StatusOK, []string{"a", "b"}, NewMeta(2, 10, 21))
	})

	require.Equal(t, &Meta{Page: 2, PerPage: 10, Total: 21, TotalPages: 3}, resp.Meta)
}

func TestNewMetaWithoutPageSize(t *testing.T) {
	require.Equal(t, &Meta{Page: 1, Total: 5}, NewMeta(1, 0, 5))
	require.Equal(t, 0, NewMeta(1, 50, 0).TotalPages)
}

func TestErrorEnvelope(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"app error", appErrors.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{"wrapped app error", fmt.Errorf("section service: %w", appErrors.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
		{"nil error", nil, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, resp := render(t, func(c *gin.Context) { Error(c, tc.err) })

			require.Equal(t, tc.status, rec.Code)
			require.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			require.Equal(t, tc.code, resp.Error.Code)
			require.Empty(t, resp.Error.Field)
		})
	}
}

type fieldErr struct {
	kind  *appErrors.AppError
	field string
}

func (f fieldErr) Error() string     { return f.kind.Message }
func (f fieldErr) Unwrap() error     { return f.kind }
func (f fieldErr) FieldName() string { return f.field }

func TestErrorIncludesFieldName(t *testing.T) {
	rec, resp := render(t, func(c *gin.Context) {
		Error(c, fieldErr{kind: appErrors.NewBadRequest("website must be a url"), field: "website"})
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, &ErrorInfo{Code: "BAD_REQUEST", Message: "website must be a url", Field: "website"}, resp.Error)
}
