package config

import (
	"os"
	"path/filepath"
	"testing"
)

// TestLoadConfigMissingFile verifies that a missing file yields defaults.
func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Pyramid.Orientations != 4 || cfg.Pyramid.Edges != "reflect1" {
		t.Error("missing file should load defaults")
	}
}

// TestConfigRoundTrip verifies save and reload of a modified config.
func TestConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.Depth.Sigma = 0.25
	cfg.Pyramid.Orientations = 6
	cfg.Pyramid.Complex = true
	cfg.Output.BandsDir = "out"

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.Depth.Sigma != 0.25 || loaded.Pyramid.Orientations != 6 ||
		!loaded.Pyramid.Complex || loaded.Output.BandsDir != "out" {
		t.Error("round trip lost values")
	}
}

// TestLoadConfigRejectsGarbage verifies the parse error path.
func TestLoadConfigRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("øø: [not yaml"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}
