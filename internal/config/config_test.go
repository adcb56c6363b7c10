package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
[danmaku]
base_url = "https://danmu.example.org/abc"
`)
	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("unexpected resolution: %q exists=%v", resolved, exists)
	}
	if cfg.Cache.DetailTTLHours != 24 {
		t.Errorf("DetailTTLHours = %d, want 24", cfg.Cache.DetailTTLHours)
	}
	if cfg.Matching.ShortTitleThreshold != 120 || cfg.Matching.Threshold != 80 {
		t.Errorf("thresholds = %d/%d", cfg.Matching.ShortTitleThreshold, cfg.Matching.Threshold)
	}
	if cfg.Sampling.WindowSeconds != 360 || cfg.Sampling.WindowCap != 1500 || cfg.Sampling.PerSecondCap != 15 {
		t.Errorf("sampling defaults wrong: %+v", cfg.Sampling)
	}
}

func TestLoadRequiresBaseURL(t *testing.T) {
	path := writeConfig(t, "[logging]\nlevel = \"debug\"\n")
	t.Setenv("DANMAKU_BASE_URL", "")
	_, _, _, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "danmaku.base_url") {
		t.Fatalf("expected base_url error, got %v", err)
	}
}

func TestLoadBaseURLFromEnv(t *testing.T) {
	path := writeConfig(t, "")
	t.Setenv("DANMAKU_BASE_URL", "https://danmu.example.org/token/")
	cfg, _, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Danmaku.BaseURL != "https://danmu.example.org/token" {
		t.Errorf("BaseURL = %q, want trailing slash trimmed", cfg.Danmaku.BaseURL)
	}
}

func TestLoadRejectsBadLogFormat(t *testing.T) {
	path := writeConfig(t, `
[danmaku]
base_url = "https://danmu.example.org/abc"

[logging]
format = "xml"
`)
	_, _, _, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "logging.format") {
		t.Fatalf("expected logging.format error, got %v", err)
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[danmaku]") {
		t.Error("sample missing danmaku section")
	}
}

func TestExpandPathHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir")
	}
	got, err := ExpandPath("~/x")
	if err != nil {
		t.Fatalf("ExpandPath failed: %v", err)
	}
	if got != filepath.Join(home, "x") {
		t.Errorf("ExpandPath = %q", got)
	}
}
