package logging

import (
	"strings"
	"testing"
)

func TestLevelNames(t *testing.T) {
	names := LevelNames()
	if !strings.HasPrefix(names, "trace, debug, info") {
		t.Fatalf("unexpected level order: %s", names)
	}
	if !strings.HasSuffix(names, "panic") {
		t.Fatalf("expected panic to be the last level: %s", names)
	}
}

func TestSetupLoggingRejectsUnknownLevel(t *testing.T) {
	if err := SetupLogging("loud"); err == nil {
		t.Fatalf("expected an error for an unknown level")
	}
}

func TestSetupLogging(t *testing.T) {
	if err := SetupLogging("debug"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if GetLogger().Data["service"] != "PDFA" {
		t.Fatalf("expected the service field to be set: %v", GetLogger().Data)
	}
}
