package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Sources  Sources  `yaml:"sources"`
	Search   Search   `yaml:"search"`
	Scrape   Scrape   `yaml:"scrape"`
	Analysis Analysis `yaml:"analysis"`
	Output   Output   `yaml:"output"`
	Server   Server   `yaml:"server"`
}

type Sources struct {
	General []Feed `yaml:"general"`
	Tech    []Feed `yaml:"tech"`
}

type Feed struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Search configures the query-based Google News source.
type Search struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
}

type Scrape struct {
	TimeoutSeconds    int     `yaml:"timeout_seconds"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	GeneralFeedCap    int     `yaml:"general_feed_cap"`
	TechFeedCap       int     `yaml:"tech_feed_cap"`
}

type Analysis struct {
	Provider          string  `yaml:"provider"`
	Model             string  `yaml:"model"`
	APIKeyEnv         string  `yaml:"api_key_env"`
	OllamaModel       string  `yaml:"ollama_model"`
	OllamaURL         string  `yaml:"ollama_url"`
	MaxTokens         int     `yaml:"max_tokens"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	MaxAttempts       int     `yaml:"max_attempts"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

// ConfigDir returns the XDG config directory for newslens.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "newslens")
}

// DataDir returns the XDG data directory for newslens.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "newslens")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/newslens/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'newslens init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Search: Search{
			Enabled: true,
			BaseURL: "https://news.google.com/rss/search",
		},
		Scrape: Scrape{
			TimeoutSeconds:    15,
			RequestsPerSecond: 1,
			GeneralFeedCap:    10,
			TechFeedCap:       15,
		},
		Analysis: Analysis{
			Provider:          "openai",
			Model:             "gpt-4o",
			APIKeyEnv:         "OPENAI_API_KEY",
			OllamaModel:       "qwen2.5:7b",
			OllamaURL:         "http://localhost:11434",
			MaxTokens:         512,
			RequestsPerSecond: 2,
			MaxAttempts:       2,
		},
		Server: Server{Port: 8000},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// FindFeed looks up a configured feed by source name. The second boolean
// reports whether the source comes from the tech registry.
func (c *Config) FindFeed(name string) (feed Feed, tech bool, ok bool) {
	for _, f := range c.Sources.General {
		if f.Name == name {
			return f, false, true
		}
	}
	for _, f := range c.Sources.Tech {
		if f.Name == name {
			return f, true, true
		}
	}
	return Feed{}, false, false
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
