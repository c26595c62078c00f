package config

import (
	"embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

const (
	ProviderRSS     = "rss"
	ProviderNewsAPI = "newsapi"
)

var ErrInvalid = errors.New("invalid config")

type Source struct {
	Name    string `yaml:"name"`
	URL     string `yaml:"url"`
	Enabled bool   `yaml:"enabled"`
}

type NewsAPIConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`
	Country  string `yaml:"country"`
	Category string `yaml:"category"`
}

type Config struct {
	Provider      string        `yaml:"provider"`
	PageSize      int           `yaml:"page_size"`
	Retention     string        `yaml:"retention"`
	PruneSchedule string        `yaml:"prune_schedule"`
	LogLevel      string        `yaml:"log_level"`
	EndThreshold  float64       `yaml:"end_threshold"`
	NewsAPI       NewsAPIConfig `yaml:"newsapi"`
	Sources       []Source      `yaml:"sources"`
}

// envOverrides are read from NEWSREEL_* variables and win over the file.
type envOverrides struct {
	Provider string `env:"PROVIDER"`
	APIKey   string `env:"API_KEY"`
	LogLevel string `env:"LOG_LEVEL"`
	PageSize int    `env:"PAGE_SIZE"`
}

func (c *Config) RetentionDuration() time.Duration {
	d, err := ParseDays(c.Retention)
	if err != nil || d <= 0 {
		return 7 * 24 * time.Hour
	}
	return d
}

// GetPageSize returns the page size, defaulting to 20.
func (c *Config) GetPageSize() int {
	if c.PageSize <= 0 {
		return 20
	}
	return c.PageSize
}

// GetEndThreshold returns the load-more threshold as a fraction of the
// visible rows, defaulting to 0.5 when unset. Load rejects an explicit 0.
func (c *Config) GetEndThreshold() float64 {
	if c.EndThreshold <= 0 {
		return 0.5
	}
	return c.EndThreshold
}

func (c *Config) EnabledSources() []Source {
	var out []Source
	for _, s := range c.Sources {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

// ParseDays accepts time.ParseDuration syntax plus an "Nd" day suffix.
func ParseDays(s string) (time.Duration, error) {
	if len(s) > 1 && s[len(s)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(s, "%dd", &days); err == nil {
			return time.Duration(days) * 24 * time.Hour, nil
		}
	}
	return time.ParseDuration(s)
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "newsreel", "config.yaml")
}

func CachePath() string {
	return filepath.Join(xdg.CacheHome, "newsreel", "newsreel.db")
}

func LogPath() string {
	return filepath.Join(xdg.StateHome, "newsreel", "newsreel.log")
}

func loadDefaults() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

// Load reads the config at path (or the XDG default), falling back to the
// embedded defaults on first run, then applies NEWSREEL_* overrides.
func Load(path string) (*Config, error) {
	cfg, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// First run: best effort, embedded defaults are used either way.
		_ = writeDefaults(path)
	case err != nil:
		return nil, fmt.Errorf("reading config: %w", err)
	default:
		// Unmarshal over the defaults so omitted keys keep their default value.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	var o envOverrides
	if err := env.ParseWithOptions(&o, env.Options{Prefix: "NEWSREEL_"}); err != nil {
		return fmt.Errorf("reading environment: %w", err)
	}
	if o.Provider != "" {
		cfg.Provider = o.Provider
	}
	if o.APIKey != "" {
		cfg.NewsAPI.APIKey = o.APIKey
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
	if o.PageSize > 0 {
		cfg.PageSize = o.PageSize
	}
	return nil
}

func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, _ := defaultConfigFS.ReadFile("default_config.yaml")
	return os.WriteFile(path, data, 0o644)
}

func validate(cfg *Config) error {
	cfg.Provider = strings.ToLower(cfg.Provider)
	switch cfg.Provider {
	case ProviderRSS:
		if len(cfg.EnabledSources()) == 0 {
			return fmt.Errorf("%w: provider rss needs at least one enabled source", ErrInvalid)
		}
	case ProviderNewsAPI:
		if cfg.NewsAPI.APIKey == "" {
			return fmt.Errorf("%w: provider newsapi needs an api key (newsapi.api_key or NEWSREEL_API_KEY)", ErrInvalid)
		}
		if err := checkURL(cfg.NewsAPI.Endpoint); err != nil {
			return fmt.Errorf("%w: newsapi endpoint: %w", ErrInvalid, err)
		}
	default:
		return fmt.Errorf("%w: unknown provider %q (valid: rss, newsapi)", ErrInvalid, cfg.Provider)
	}

	for i, s := range cfg.Sources {
		if s.Name == "" {
			return fmt.Errorf("%w: source %d: name is required", ErrInvalid, i)
		}
		if err := checkURL(s.URL); err != nil {
			return fmt.Errorf("%w: source %q: %w", ErrInvalid, s.Name, err)
		}
	}

	// Zero would never trigger load-more.
	if cfg.EndThreshold <= 0 || cfg.EndThreshold > 1 {
		return fmt.Errorf("%w: end_threshold must be within (0, 1], got %v", ErrInvalid, cfg.EndThreshold)
	}
	return nil
}

func checkURL(raw string) error {
	if raw == "" {
		return errors.New("url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}
	return nil
}
