package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigYAMLRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := DefaultConfig()
	cfg.API.LocalURL = "http://localhost:9000"
	cfg.Chat.Mode = "extended"
	cfg.Chat.Settings = map[string]string{"specialty": "cardiology"}

	if err := WriteConfig(tmpDir, cfg); err != nil {
		t.Fatalf("WriteConfig failed: %v", err)
	}

	loaded, err := ReadConfig(tmpDir)
	if err != nil {
		t.Fatalf("ReadConfig failed: %v", err)
	}

	if loaded.API.LocalURL != "http://localhost:9000" {
		t.Errorf("LocalURL: got %q", loaded.API.LocalURL)
	}
	if loaded.Chat.Mode != "extended" {
		t.Errorf("Chat.Mode: got %q, want extended", loaded.Chat.Mode)
	}
	if loaded.Chat.Settings["specialty"] != "cardiology" {
		t.Errorf("Chat.Settings: got %v", loaded.Chat.Settings)
	}
}

func TestDefaultConfigTimeout(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.API.TimeoutMS != 10000 {
		t.Errorf("default TimeoutMS: got %d, want 10000", cfg.API.TimeoutMS)
	}
}

func TestLoadFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.API.PrimaryURL != "https://api.medogram.ir" {
		t.Errorf("PrimaryURL: got %q", cfg.API.PrimaryURL)
	}
}

func TestLoadFailsOnMalformedFile(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "config.yaml"), []byte("api: ["), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(tmpDir); err == nil {
		t.Fatal("expected error for malformed config")
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv(EnvPrimaryURL, "https://staging.medogram.ir")
	t.Setenv(EnvLocalURL, "http://127.0.0.1:9999")
	t.Setenv(EnvTimeoutMS, "2500")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.API.PrimaryURL != "https://staging.medogram.ir" {
		t.Errorf("PrimaryURL override: got %q", cfg.API.PrimaryURL)
	}
	if cfg.API.LocalURL != "http://127.0.0.1:9999" {
		t.Errorf("LocalURL override: got %q", cfg.API.LocalURL)
	}
	if cfg.API.TimeoutMS != 2500 {
		t.Errorf("TimeoutMS override: got %d", cfg.API.TimeoutMS)
	}
}
