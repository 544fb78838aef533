package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func resetGlobal(t *testing.T) {
	t.Cleanup(func() { Replace(nil) })
}

func TestInitLevels(t *testing.T) {
	resetGlobal(t)

	cases := []struct {
		level, format string
		enabled       zapcore.Level
		disabled      zapcore.Level
	}{
		{"debug", "json", zap.DebugLevel, zap.DebugLevel - 1},
		{"warn", "console", zap.WarnLevel, zap.InfoLevel},
		{" ERROR ", "", zap.ErrorLevel, zap.WarnLevel},
		{"chatty", "json", zap.InfoLevel, zap.DebugLevel},
	}

	for _, tc := range cases {
		require.NoError(t, Init(tc.level, tc.format), tc.level)
		core := Logger().Core()
		require.True(t, core.Enabled(tc.enabled), tc.level)
		require.False(t, core.Enabled(tc.disabled), tc.level)
	}
}

func TestReplaceNilFallsBackToNop(t *testing.T) {
	resetGlobal(t)

	Replace(nil)
	require.NotNil(t, Logger())
	require.False(t, Logger().Core().Enabled(zap.ErrorLevel))
}

func TestWithModuleAttachesModuleField(t *testing.T) {
	resetGlobal(t)
	core, recorded := observer.New(zap.InfoLevel)
	Replace(zap.New(core))

	WithModule("sections").Info("join requested", zap.String("section_id", "s1"))

	entries := recorded.All()
	require.Len(t, entries, 1)
	require.Equal(t, "join requested", entries[0].Message)
	require.Equal(t, map[string]any{"module": "sections", "section_id": "s1"}, entries[0].ContextMap())
}

func TestSyncOnNop(t *testing.T) {
	resetGlobal(t)
	Replace(nil)
	require.NoError(t, Sync())
}
