package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.DefaultTechnique != "oversampling" || c.DefaultDiversity != "medium" {
		t.Fatalf("defaults = %+v", c)
	}
	if c.Ratio != 1 || c.HybridRatio != 0.5 || c.OutlierSigma != 3 || c.SampleSize != 100 {
		t.Fatalf("numeric defaults = %+v", c)
	}
	if want := filepath.Join(home, ".datasmith", "data"); c.DataDir != want {
		t.Fatalf("data_dir = %s, want %s", c.DataDir, want)
	}
}

func TestSaveThenLoadWithEnvOverride(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	c := &Global{
		DefaultTechnique: "hybrid",
		DefaultDiversity: "high",
		Ratio:            0.8,
		HybridRatio:      0.4,
		DataDir:          "~/datasets",
		LogLevel:         "debug",
		LogFormat:        "json",
		SampleSize:       50,
		OutlierSigma:     2.5,
	}
	if err := Save(c, ""); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(home, ".datasmith", "config.yaml")); err != nil {
		t.Fatalf("config file missing: %v", err)
	}

	t.Setenv("DATASMITH_LOG_LEVEL", "warn")
	got, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.DefaultTechnique != "hybrid" || got.HybridRatio != 0.4 || got.SampleSize != 50 {
		t.Fatalf("loaded = %+v", got)
	}
	if got.LogLevel != "warn" {
		t.Fatalf("log_level = %s, want env override warn", got.LogLevel)
	}
	if want := filepath.Join(home, "datasets"); got.DataDir != want {
		t.Fatalf("data_dir = %s, want %s", got.DataDir, want)
	}
}

func TestLoadExplicitFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte("default_technique: undersampling\npg_dsn: postgres://localhost/db\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.DefaultTechnique != "undersampling" || c.PGDSN != "postgres://localhost/db" {
		t.Fatalf("loaded = %+v", c)
	}
}
