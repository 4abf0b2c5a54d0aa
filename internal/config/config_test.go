package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseDefaultConfig(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		t.Fatalf("failed to parse default config: %v", err)
	}

	if len(cfg.Sources.General) == 0 {
		t.Error("expected general sources to be populated")
	}
	if len(cfg.Sources.Tech) == 0 {
		t.Error("expected tech sources to be populated")
	}

	if cfg.Analysis.Provider != "openai" {
		t.Errorf("expected provider 'openai', got %q", cfg.Analysis.Provider)
	}
	if cfg.Analysis.Model != "gpt-4o" {
		t.Errorf("expected model 'gpt-4o', got %q", cfg.Analysis.Model)
	}
	if !cfg.Search.Enabled {
		t.Error("expected search to be enabled by default")
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("expected port 8000, got %d", cfg.Server.Port)
	}
}

func TestParseMinimalConfig(t *testing.T) {
	data := []byte(`
analysis:
  provider: ollama
server:
  port: 9000
`)
	cfg, err := parse(data)
	if err != nil {
		t.Fatalf("failed to parse minimal config: %v", err)
	}

	if cfg.Analysis.Provider != "ollama" {
		t.Errorf("expected provider 'ollama', got %q", cfg.Analysis.Provider)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	// Defaults should still be set for unspecified fields
	if cfg.Analysis.OllamaURL != "http://localhost:11434" {
		t.Errorf("expected default ollama_url, got %q", cfg.Analysis.OllamaURL)
	}
	if cfg.Scrape.TimeoutSeconds != 15 {
		t.Errorf("expected default scrape timeout 15, got %d", cfg.Scrape.TimeoutSeconds)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, DefaultConfigYAML, 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if len(cfg.Sources.General) == 0 {
		t.Error("expected sources to be populated from file")
	}
}

func TestFindFeed(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		t.Fatalf("failed to parse default config: %v", err)
	}

	feed, tech, ok := cfg.FindFeed("TechCrunch")
	if !ok {
		t.Fatal("expected TechCrunch to be found")
	}
	if !tech {
		t.Error("expected TechCrunch to be a tech source")
	}
	if feed.URL == "" {
		t.Error("expected feed URL to be set")
	}

	_, tech, ok = cfg.FindFeed("BBC News")
	if !ok || tech {
		t.Errorf("expected BBC News as general source, got ok=%v tech=%v", ok, tech)
	}

	if _, _, ok := cfg.FindFeed("Nonexistent"); ok {
		t.Error("expected unknown source to be absent")
	}
}

func TestGetDataDir(t *testing.T) {
	cfg := &Config{}
	if cfg.GetDataDir() == "" {
		t.Error("expected non-empty default data dir")
	}

	cfg.Output.DataDir = "/custom/path"
	if cfg.GetDataDir() != "/custom/path" {
		t.Errorf("expected '/custom/path', got %q", cfg.GetDataDir())
	}
}
