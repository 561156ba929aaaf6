package logging

import (
	"testing"

	"github.com/gridkeep/server/internal/config"
)

func TestNewBuildsConsoleLogger(t *testing.T) {
	log, err := New(config.LoggingConfig{Level: "debug", Format: "console"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer log.Sync()
	if log == nil {
		t.Fatalf("expected non-nil logger")
	}
}

func TestNewBuildsJSONLogger(t *testing.T) {
	log, err := New(config.LoggingConfig{Level: "info", Format: "json"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer log.Sync()
	if log == nil {
		t.Fatalf("expected non-nil logger")
	}
}

func TestNewFallsBackToInfoOnBadLevel(t *testing.T) {
	log, err := New(config.LoggingConfig{Level: "not-a-level", Format: "console"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer log.Sync()
	if !log.Core().Enabled(0) { // InfoLevel == 0
		t.Fatalf("expected fallback to info level to remain enabled")
	}
}
