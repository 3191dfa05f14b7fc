package config

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	t.Setenv("UNLOCKCORE_CONTENT_DIR", "")
	t.Setenv("UNLOCKCORE_SAVE_DIR", "")
	t.Setenv("UNLOCKCORE_DB_PATH", "")
	t.Setenv("UNLOCKCORE_LOG_LEVEL", "")
	t.Setenv("UNLOCKCORE_LOG_FORMAT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SaveDir != filepath.Join("/home/tester", ".unlockcore", "saves") {
		t.Errorf("SaveDir = %q", cfg.SaveDir)
	}
	if cfg.LogLevel != "warn" || cfg.LogFormat != "text" {
		t.Errorf("log defaults = %q/%q", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.ContentDir != "" || cfg.DBPath != "" {
		t.Errorf("unexpected paths: %+v", cfg)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("UNLOCKCORE_CONTENT_DIR", "/srv/content")
	t.Setenv("UNLOCKCORE_SAVE_DIR", "/srv/saves")
	t.Setenv("UNLOCKCORE_DB_PATH", "/srv/ledger.db")
	t.Setenv("UNLOCKCORE_LOG_LEVEL", "debug")
	t.Setenv("UNLOCKCORE_LOG_FORMAT", "json")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Config{
		ContentDir: "/srv/content",
		SaveDir:    "/srv/saves",
		DBPath:     "/srv/ledger.db",
		LogLevel:   "debug",
		LogFormat:  "json",
	}
	if cfg != want {
		t.Errorf("cfg = %+v, want %+v", cfg, want)
	}
}

func TestLoad_BadFormat(t *testing.T) {
	t.Setenv("UNLOCKCORE_SAVE_DIR", "/tmp/saves")
	t.Setenv("UNLOCKCORE_LOG_FORMAT", "xml")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "UNLOCKCORE_LOG_FORMAT") {
		t.Errorf("err = %v", err)
	}
}
