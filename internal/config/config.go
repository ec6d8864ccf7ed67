package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the client settings read from config.toml.
type Config struct {
	APIBase   string
	TokenEnv  string
	TokenFile string

	JobPollSeconds     int
	DisplayPollSeconds int

	FeedPageSize      int
	PrefetchTarget    int
	PrefetchThreshold int
	MaxEmptyPages     int

	SearchEndpoint string
	SearchAPIKey   string
	SearchPageSize int

	CacheDir string
	RedisURL string

	LogLevel  string
	LogFormat string
}

const (
	defaultConfigPath         = "~/.config/yum/config.toml"
	defaultAPIBase            = "http://127.0.0.1:8000"
	defaultTokenEnv           = "YUM_TOKEN"
	defaultCacheDir           = "~/.local/share/yum"
	defaultJobPollSeconds     = 2
	defaultDisplayPollSeconds = 5
	defaultFeedPageSize       = 10
	defaultPrefetchTarget     = 10
	defaultPrefetchThreshold  = 3
	defaultMaxEmptyPages      = 3
	defaultSearchPageSize     = 50
	defaultLogLevel           = "info"
	defaultLogFormat          = "console"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIBase:            defaultAPIBase,
		TokenEnv:           defaultTokenEnv,
		JobPollSeconds:     defaultJobPollSeconds,
		DisplayPollSeconds: defaultDisplayPollSeconds,
		FeedPageSize:       defaultFeedPageSize,
		PrefetchTarget:     defaultPrefetchTarget,
		PrefetchThreshold:  defaultPrefetchThreshold,
		MaxEmptyPages:      defaultMaxEmptyPages,
		SearchPageSize:     defaultSearchPageSize,
		CacheDir:           mustExpand(defaultCacheDir),
		LogLevel:           defaultLogLevel,
		LogFormat:          defaultLogFormat,
	}
}

type rawConfig struct {
	APIBase            string `toml:"api_base"`
	TokenEnv           string `toml:"token_env"`
	TokenFile          string `toml:"token_file"`
	JobPollSeconds     *int   `toml:"job_poll_seconds"`
	DisplayPollSeconds *int   `toml:"display_poll_seconds"`
	FeedPageSize       *int   `toml:"feed_page_size"`
	PrefetchTarget     *int   `toml:"prefetch_target"`
	PrefetchThreshold  *int   `toml:"prefetch_threshold"`
	MaxEmptyPages      *int   `toml:"max_empty_pages"`
	SearchEndpoint     string `toml:"search_endpoint"`
	SearchAPIKey       string `toml:"search_api_key"`
	SearchPageSize     *int   `toml:"search_page_size"`
	CacheDir           string `toml:"cache_dir"`
	RedisURL           string `toml:"redis_url"`
	LogLevel           string `toml:"log_level"`
	LogFormat          string `toml:"log_format"`
}

// Load locates and parses the config, falling back to defaults when missing.
// The result is validated.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	setString(&cfg.APIBase, raw.APIBase)
	setString(&cfg.TokenEnv, raw.TokenEnv)
	setString(&cfg.SearchEndpoint, raw.SearchEndpoint)
	setString(&cfg.SearchAPIKey, raw.SearchAPIKey)
	setString(&cfg.RedisURL, raw.RedisURL)
	setString(&cfg.LogLevel, raw.LogLevel)
	setString(&cfg.LogFormat, raw.LogFormat)
	if v := strings.TrimSpace(raw.TokenFile); v != "" {
		cfg.TokenFile = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.CacheDir); v != "" {
		cfg.CacheDir = mustExpand(v)
	}

	setInt(&cfg.JobPollSeconds, raw.JobPollSeconds)
	setInt(&cfg.DisplayPollSeconds, raw.DisplayPollSeconds)
	setInt(&cfg.FeedPageSize, raw.FeedPageSize)
	setInt(&cfg.PrefetchTarget, raw.PrefetchTarget)
	setInt(&cfg.PrefetchThreshold, raw.PrefetchThreshold)
	setInt(&cfg.MaxEmptyPages, raw.MaxEmptyPages)
	setInt(&cfg.SearchPageSize, raw.SearchPageSize)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.APIBase) == "" {
		return errors.New("config: api_base is required")
	}
	positive := []struct {
		key   string
		value int
	}{
		{"job_poll_seconds", c.JobPollSeconds},
		{"display_poll_seconds", c.DisplayPollSeconds},
		{"feed_page_size", c.FeedPageSize},
		{"prefetch_target", c.PrefetchTarget},
		{"max_empty_pages", c.MaxEmptyPages},
		{"search_page_size", c.SearchPageSize},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return fmt.Errorf("config: %s must be positive, got %d", p.key, p.value)
		}
	}
	if c.PrefetchThreshold < 0 {
		return fmt.Errorf("config: prefetch_threshold must not be negative, got %d", c.PrefetchThreshold)
	}
	if c.SearchPageSize > 50 {
		return fmt.Errorf("config: search_page_size must be at most 50, got %d", c.SearchPageSize)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "console", "json":
	default:
		return fmt.Errorf("config: unknown log_format %q", c.LogFormat)
	}
	return nil
}

// JobPollInterval is the tracker poll period.
func (c Config) JobPollInterval() time.Duration {
	return time.Duration(c.JobPollSeconds) * time.Second
}

// DisplayPollInterval is the snapshot refresh period.
func (c Config) DisplayPollInterval() time.Duration {
	return time.Duration(c.DisplayPollSeconds) * time.Second
}

// LogPath returns the path to the client log file.
func (c Config) LogPath() string {
	if strings.TrimSpace(c.CacheDir) == "" {
		return mustExpand(defaultCacheDir + "/yum.log")
	}
	return filepath.Join(c.CacheDir, "yum.log")
}

// DefaultPath returns the default config file location, unexpanded.
func DefaultPath() string {
	return defaultConfigPath
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
