package config

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfigValidates(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := DefaultConfig()
	cfg.General.Currency = " "
	cfg.Log.Level = "loud"
	cfg.Store.Indexes = []string{"expenses"}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"currency", "log.level", `"expenses"`} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if Exists() {
		t.Fatal("config should not exist yet")
	}
	cfg := DefaultConfig()
	cfg.General.Currency = "USD"
	cfg.Appearance.Theme = "tokyo-night"
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !Exists() {
		t.Fatal("config should exist after Save")
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.General.Currency != "USD" || got.Appearance.Theme != "tokyo-night" {
		t.Errorf("round trip lost values: %+v", got)
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("FINTRACK_DB_PATH", "/tmp/other.db")
	t.Setenv("FINTRACK_THEME", "terminal")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StorePath() != "/tmp/other.db" {
		t.Errorf("StorePath() = %q", cfg.StorePath())
	}
	if cfg.Appearance.Theme != "terminal" {
		t.Errorf("Theme = %q", cfg.Appearance.Theme)
	}
}

func TestDerivedPaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.General.DataDir = "/data"
	if got := cfg.StorePath(); got != filepath.Join("/data", "fintrack.db") {
		t.Errorf("StorePath() = %q", got)
	}
	if got := cfg.SessionPath(); got != filepath.Join("/data", "session.jwt") {
		t.Errorf("SessionPath() = %q", got)
	}
	if got := cfg.LogPath(); got != filepath.Join("/data", "fintrack.log") {
		t.Errorf("LogPath() = %q", got)
	}
}
