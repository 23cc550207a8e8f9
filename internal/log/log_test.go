package log

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{" ERROR ", LevelError},
		{"info", LevelInfo},
		{"", LevelInfo},
		{"verbose", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestLevelFilteringAndFormat(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	defer SetLevel(LevelInfo)

	SetLevel(LevelInfo)
	Debug("hidden", "k", 1)
	Info("day selected", "day", "2026-10-19", "note", "two words")
	Error("scroll rejected", errors.New("out of range"), "index", -1)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line written at INFO level: %s", out)
	}
	if !strings.Contains(out, "[INFO] day selected day=2026-10-19 note=\"two words\"") {
		t.Errorf("info line missing or malformed: %s", out)
	}
	if !strings.Contains(out, "[ERROR] scroll rejected err=\"out of range\" index=-1") {
		t.Errorf("error line missing or malformed: %s", out)
	}
}
