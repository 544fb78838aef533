// Package response writes the JSON envelope shared by every API endpoint.
package response

import (
	"errors"

	"github.com/gin-gonic/gin"

	appErrors "github.com/charlesng35/huddle/pkg/errors"
)

// Response is the envelope: {success, data?, error?, meta?}.
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
	Meta    *Meta      `json:"meta,omitempty"`
}

// ErrorInfo is the client-facing part of a failure. Field names the offending input when the
// error is scoped to one.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type fieldScoped interface {
	FieldName() string
}

// Meta describes a page of a listing.
type Meta struct {
	Page       int `json:"page,omitempty"`
	PerPage    int `json:"per_page,omitempty"`
	Total      int `json:"total,omitempty"`
	TotalPages int `json:"total_pages,omitempty"`
}

// NewMeta derives TotalPages from total rows and the page size.
func NewMeta(page, perPage int, total int64) *Meta {
	meta := &Meta{Page: page, PerPage: perPage, Total: int(total)}
	if perPage > 0 {
		meta.TotalPages = int((total + int64(perPage) - 1) / int64(perPage))
	}
	return meta
}

func Success(c *gin.Context, statusCode int, data any) {
	c.JSON(statusCode, Response{Success: true, Data: data})
}

func SuccessWithMeta(c *gin.Context, statusCode int, data any, meta *Meta) {
	c.JSON(statusCode, Response{Success: true, Data: data, Meta: meta})
}

// Error renders err as the failure envelope. Errors without an AppError in their chain are
// reported as INTERNAL_SERVER_ERROR.
func Error(c *gin.Context, err error) {
	if err == nil {
		err = appErrors.ErrInternalServer
	}
	appErr := appErrors.FromError(err)

	info := &ErrorInfo{Code: appErr.Code, Message: appErr.Message}
	var scoped fieldScoped
	if errors.As(err, &scoped) {
		info.Field = scoped.FieldName()
	}
	c.JSON(appErr.Status(), Response{Success: false, Error: info})
}
