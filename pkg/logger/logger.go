// Package logger holds the process-wide zap logger. It is a no-op until Init or Replace runs.
package logger

import (
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.RWMutex
	global = zap.NewNop()
)

// Init builds the global logger. format "console" selects zap's development encoder; any
// other value produces JSON. Unparseable levels fall back to info.
func Init(level, format string) error {
	cfg := zap.NewProductionConfig()
	if strings.EqualFold(strings.TrimSpace(format), "console") {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))

	built, err := cfg.Build()
	if err != nil {
		return err
	}
	Replace(built)
	return nil
}

func parseLevel(level string) zapcore.Level {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// Replace installs l as the global logger. nil installs a no-op logger.
func Replace(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	mu.Lock()
	global = l
	mu.Unlock()
}

func Logger() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

func Sync() error {
	return Logger().Sync()
}

// WithModule returns a child logger tagged with module, e.g. "sections" or "realtime".
func WithModule(module string) *zap.Logger {
	return Logger().With(zap.String("module", module))
}
