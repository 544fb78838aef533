package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/charlesng35/huddle/pkg/errors"
	"github.com/charlesng35/huddle/pkg/response"
	appValidator "github.com/charlesng35/huddle/pkg/validator"
)

// bindAndValidate decodes the JSON body into dest and applies its validate tags. On failure the
// 400 response has already been written.
func bindAndValidate[T any](c *gin.Context, dest *T) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.NewBadRequest("invalid JSON payload"))
		return false
	}

	if err := appValidator.ValidateStruct(dest); err != nil {
		response.Error(c, appErrors.NewBadRequest(formatValidationError(err)))
		return false
	}

	return true
}

// validationMessages renders one failed rule; %[1]s is the field and %[2]s the rule parameter.
var validationMessages = map[string]string{
	"required":   "%[1]s is required",
	"notblank":   "%[1]s must not be blank",
	"email":      "%[1]s must be a valid email address",
	"min":        "%[1]s must contain at least %[2]s items or characters",
	"max":        "%[1]s must contain at most %[2]s items or characters",
	"uuid":       "%[1]s must be a valid UUID",
	"uuid4":      "%[1]s must be a valid UUID",
	"url":        "%[1]s must be an absolute URL",
	"oneof":      "%[1]s must be one of: %[2]s",
	"gte":        "%[1]s must be at least %[2]s",
	"field_name": "%[1]s must start with a lowercase letter and contain only lowercase letters, digits and underscores",
}

func formatValidationError(err error) string {
	var failures appValidator.ValidationErrors
	if !errors.As(err, &failures) || len(failures) == 0 {
		return "invalid request payload"
	}

	messages := make([]string, 0, len(failures))
	for _, failure := range failures {
		field := prettifyFieldName(failure.Field)
		if format, ok := validationMessages[failure.Tag]; ok {
			messages = append(messages, fmt.Sprintf(format, field, failure.Param))
			continue
		}
		rule := failure.Tag
		if failure.Param != "" {
			rule += "=" + failure.Param
		}
		messages = append(messages, fmt.Sprintf("%s failed validation: %s", field, rule))
	}
	return strings.Join(messages, "; ")
}

func prettifyFieldName(name string) string {
	if name == "" {
		return "field"
	}
	return strings.ToLower(strings.ReplaceAll(name, "_", " "))
}

func parseBoolQuery(c *gin.Context, key string) bool {
	parsed, err := strconv.ParseBool(strings.TrimSpace(c.Query(key)))
	return err == nil && parsed
}

func parseIntQuery(c *gin.Context, key string, fallback int) int {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
