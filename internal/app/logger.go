package app

import (
	"strings"

	"github.com/charlesng35/huddle/pkg/logger"
)

// ConfigureLogging installs the global logger for the configured level and format.
func ConfigureLogging(level, format string) error {
	if strings.TrimSpace(level) == "" {
		level = "info"
	}
	return logger.Init(level, format)
}
