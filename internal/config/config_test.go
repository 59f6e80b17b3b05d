package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_EmptyPathGivesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != "8080" {
		t.Errorf("default port = %q, want 8080", cfg.Port)
	}
	if cfg.MapWidth != 16 || cfg.MapHeight != 16 {
		t.Errorf("default map = %dx%d, want 16x16", cfg.MapWidth, cfg.MapHeight)
	}
	if cfg.DBPath == "" {
		t.Error("default db path must not be empty")
	}
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := []byte("port: \"9090\"\ndb_path: custom.db\nseed: 1337\nmap_width: 8\n")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != "9090" {
		t.Errorf("port = %q, want 9090", cfg.Port)
	}
	if cfg.DBPath != "custom.db" {
		t.Errorf("db_path = %q, want custom.db", cfg.DBPath)
	}
	if cfg.Seed != 1337 {
		t.Errorf("seed = %d, want 1337", cfg.Seed)
	}
	// Незаданные поля остаются на дефолтах
	if cfg.MapWidth != 8 || cfg.MapHeight != 16 {
		t.Errorf("map = %dx%d, want 8x16", cfg.MapWidth, cfg.MapHeight)
	}
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("map_width: -5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil {
		t.Error("expected validation error for negative map width")
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
