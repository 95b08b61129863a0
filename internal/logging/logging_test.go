package logging

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNew_Levels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		level     Level
		wantDebug bool
		wantInfo  bool
	}{
		{"quiet", LevelQuiet, false, false},
		{"normal", LevelNormal, false, true},
		{"verbose", LevelVerbose, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := New(&buf, Config{Level: tt.level})
			logger.Debug("debug line")
			logger.Info("info line", zap.String("entry", "index"))
			logger.Error("error line")
			_ = logger.Sync()

			out := buf.String()
			if got := strings.Contains(out, "debug line"); got != tt.wantDebug {
				t.Errorf("debug logged = %v, want %v\n%s", got, tt.wantDebug, out)
			}
			if got := strings.Contains(out, "info line"); got != tt.wantInfo {
				t.Errorf("info logged = %v, want %v\n%s", got, tt.wantInfo, out)
			}
			if !strings.Contains(out, "ERROR") {
				t.Errorf("errors should always be logged:\n%s", out)
			}
			if tt.wantInfo && !strings.Contains(out, `"entry": "index"`) {
				t.Errorf("fields should be encoded:\n%s", out)
			}
		})
	}
}

func TestNew_NilWriter(t *testing.T) {
	t.Parallel()

	logger := New(nil, Config{Level: LevelVerbose})
	logger.Info("dropped")
	if logger.Core().Enabled(zap.ErrorLevel) {
		t.Error("nil writer should yield a no-op logger")
	}
}

func TestLevelFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		quiet, verbose bool
		want           Level
	}{
		{false, false, LevelNormal},
		{true, false, LevelQuiet},
		{false, true, LevelVerbose},
		{true, true, LevelQuiet},
	}

	for _, tt := range tests {
		if got := LevelFor(tt.quiet, tt.verbose); got != tt.want {
			t.Errorf("LevelFor(%v, %v) = %v, want %v", tt.quiet, tt.verbose, got, tt.want)
		}
	}
}
