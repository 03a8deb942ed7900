package obslog

import (
	"bytes"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelString(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(99), "UNKNOWN"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.level.String())
	}
}

func TestLevelToSlog(t *testing.T) {
	tests := []struct {
		level Level
		want  slog.Level
	}{
		{LevelDebug, slog.LevelDebug},
		{LevelInfo, slog.LevelInfo},
		{LevelWarn, slog.LevelWarn},
		{LevelError, slog.LevelError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.level.toSlog())
	}
}

func TestNewDefaultsToStderrText(t *testing.T) {
	l := New(Config{Level: LevelInfo})
	require.NotNil(t, l.slog)
	assert.Nil(t, l.file, "expected no log file when LogDir is unset")
}

func TestWithAttachesAttributes(t *testing.T) {
	var buf bytes.Buffer
	base := &Logger{slog: slog.New(slog.NewJSONHandler(&buf, nil))}
	child := base.With("request_id", "abc-123")
	child.Info("hello")

	assert.Contains(t, buf.String(), "abc-123")
}

func TestWithStageIsShorthandForWith(t *testing.T) {
	var buf bytes.Buffer
	base := &Logger{slog: slog.New(slog.NewJSONHandler(&buf, nil))}
	base.WithStage("worker").Info("dispatching")
	assert.Contains(t, buf.String(), `"stage":"worker"`)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory available in this environment")
	}
	assert.Equal(t, home+"/logs", expandHome("~/logs"))
	assert.Equal(t, "/var/log/chorus", expandHome("/var/log/chorus"))
}

func TestFanoutHandlerDeliversToAllHandlers(t *testing.T) {
	var a, b bytes.Buffer
	h := &fanoutHandler{handlers: []slog.Handler{
		slog.NewJSONHandler(&a, nil),
		slog.NewJSONHandler(&b, nil),
	}}
	logger := slog.New(h)
	logger.Info("fanned out")

	assert.NotZero(t, a.Len())
	assert.NotZero(t, b.Len())
}
