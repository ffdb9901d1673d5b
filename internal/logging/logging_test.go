package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"warn":    LevelWarn,
		"warning": LevelWarn,
		" error ": LevelError,
		"":        LevelInfo,
		"verbose": LevelInfo,
	}
	for raw, want := range tests {
		if got := ParseLevel(raw); got != want {
			t.Errorf("ParseLevel(%q) = %d, want %d", raw, got, want)
		}
	}
}

func TestLevelGating(t *testing.T) {
	defer SetLevel(LevelInfo)

	SetLevel(LevelWarn)
	if Enabled(LevelInfo) {
		t.Error("info should be suppressed at warn level")
	}
	if !Enabled(LevelError) {
		t.Error("error should pass at warn level")
	}
}

func TestSetFileWritesLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "scanner.log")
	if err := SetFile(path); err != nil {
		t.Fatalf("SetFile: %v", err)
	}
	Infof("[scanner] pass %d done", 7)
	if err := Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(raw), "[scanner] pass 7 done") {
		t.Errorf("log file missing line, got %q", raw)
	}
}
