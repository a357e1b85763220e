package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Database  Database  `yaml:"database"`
	Sweep     Sweep     `yaml:"sweep"`
	Keywords  []string  `yaml:"keywords"`
	Scrape    Scrape    `yaml:"scrape"`
	Channel   Channel   `yaml:"channel"`
	Transform Transform `yaml:"transform"`
	Image     Image     `yaml:"image"`
	Server    Server    `yaml:"server"`
}

type Database struct {
	Path string `yaml:"path"`
}

type Sweep struct {
	IntervalMinutes int `yaml:"interval_minutes"`
	RetentionDays   int `yaml:"retention_days"`
	RetentionHour   int `yaml:"retention_hour"`
}

type Scrape struct {
	UserAgent      string `yaml:"user_agent"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Render         Render `yaml:"render"`
	Sites          []Site `yaml:"sites"`
}

type Render struct {
	Enabled     bool `yaml:"enabled"`
	WaitSeconds int  `yaml:"wait_seconds"`
}

// Site is a per-host selector override for webpage sources with a known
// structured layout. Hosts without an override go through the rendered
// page-analysis path instead.
type Site struct {
	Host    string `yaml:"host"`
	Item    string `yaml:"item"`
	Title   string `yaml:"title"`
	Link    string `yaml:"link"`
	Summary string `yaml:"summary"`
}

type Channel struct {
	Enabled      bool `yaml:"enabled"`
	MessageLimit int  `yaml:"message_limit"`
}

type Transform struct {
	Endpoint       string `yaml:"endpoint"`
	Model          string `yaml:"model"`
	APIKeyEnv      string `yaml:"api_key_env"`
	MaxTokens      int    `yaml:"max_tokens"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Image holds image-generation options. Size and quality are opaque to the
// pipeline and passed through to the generation API as-is.
type Image struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	Model     string `yaml:"model"`
	Size      string `yaml:"size"`
	Quality   string `yaml:"quality"`
	Dir       string `yaml:"dir"`
	APIKeyEnv string `yaml:"api_key_env"`
}

type Server struct {
	Port       int    `yaml:"port"`
	AdminToken string `yaml:"admin_token"`
}

// ConfigDir returns the XDG config directory for newsdesk.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "newsdesk")
}

// DataDir returns the XDG data directory for newsdesk.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "newsdesk")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/newsdesk/config.yaml > ./config.yaml
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
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'newsdesk init' to create a default config",
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
		Sweep: Sweep{
			IntervalMinutes: 60,
			RetentionDays:   7,
			RetentionHour:   3,
		},
		Scrape: Scrape{
			UserAgent:      "Newsdesk/1.0 (news moderation pipeline)",
			TimeoutSeconds: 30,
			Render:         Render{WaitSeconds: 5},
		},
		Channel: Channel{MessageLimit: 20},
		Transform: Transform{
			Endpoint:       "https://api.mistral.ai/v1/chat/completions",
			Model:          "mistral-small-latest",
			APIKeyEnv:      "MISTRAL_API_KEY",
			MaxTokens:      1024,
			TimeoutSeconds: 60,
		},
		Image: Image{
			Endpoint:  "https://api.openai.com/v1/images/generations",
			Model:     "dall-e-3",
			Size:      "1024x1024",
			Quality:   "standard",
			APIKeyEnv: "OPENAI_API_KEY",
		},
		Server: Server{Port: 8000},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// DatabasePath returns the effective database file path.
func (c *Config) DatabasePath() string {
	if c.Database.Path != "" {
		return c.Database.Path
	}
	return filepath.Join(DataDir(), "newsdesk.db")
}

// ImagesDir returns the directory generated images are stored in.
func (c *Config) ImagesDir() string {
	if c.Image.Dir != "" {
		return c.Image.Dir
	}
	return filepath.Join(DataDir(), "images")
}

// SweepInterval returns the sweep interval as a duration.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Sweep.IntervalMinutes) * time.Minute
}

// SiteFor returns the selector override for a host, or nil.
func (c *Config) SiteFor(host string) *Site {
	for i := range c.Scrape.Sites {
		if c.Scrape.Sites[i].Host == host {
			return &c.Scrape.Sites[i]
		}
	}
	return nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
