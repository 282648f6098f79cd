package logs

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("%s: got %v %v", in, got, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestNewFiltersByLevel(t *testing.T) {
	defer SetLevel(slog.LevelInfo)

	var buf bytes.Buffer
	logger := New(&buf, false)

	SetLevel(slog.LevelWarn)
	logger.Info("run started", "dt", 1e-4)
	logger.Warn("pressure_range", "source", "A")

	out := buf.String()
	if strings.Contains(out, "run started") {
		t.Error("info record passed warn level")
	}
	if !strings.Contains(out, "pressure_range") || !strings.Contains(out, "source=A") {
		t.Errorf("warn record missing: %q", out)
	}

	SetLevel(slog.LevelDebug)
	logger.Debug("step", "n", 3)
	if !strings.Contains(buf.String(), "n=3") {
		t.Error("debug record dropped after lowering level")
	}
}

func TestToJournalKey(t *testing.T) {
	if got := toJournalKey("warning.count-a"); got != "WARNING_COUNT_A" {
		t.Errorf("got %s", got)
	}
}
