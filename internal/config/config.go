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

// Config captures everything the CadSocial client and webhook server need.
type Config struct {
	APIURL        string
	APIKey        string
	SessionPath   string
	DataDir       string
	Storage       string
	RedisURL      string
	DatabaseURL   string
	ProbeInterval time.Duration
	LogLevel      string
	LogFormat     string
	JWTSecret     string
	EmailAPIURL   string
	EmailAPIKey   string
	EmailFrom     string
	PortalURL     string
	WebhookBind   string
	WebhookSecret string
}

const (
	defaultConfigPath    = "~/.config/cadsocial/config.toml"
	defaultSessionPath   = "~/.config/cadsocial/session.toml"
	defaultDataDir       = "~/.local/share/cadsocial"
	defaultStorage       = "file"
	defaultProbeSeconds  = 5
	defaultLogLevel      = "info"
	defaultLogFormat     = "console"
	defaultEmailAPIURL   = "https://api.resend.com/emails"
	defaultEmailFrom     = "CadSocial <nao-responda@cadsocial.com.br>"
	defaultPortalURL     = "https://cadsocial.com.br/dashboard"
	defaultWebhookBind   = "127.0.0.1:8787"
	envAPIKey            = "CADSOCIAL_API_KEY"
	envEmailAPIKey       = "CADSOCIAL_EMAIL_API_KEY"
	envDatabaseURL       = "CADSOCIAL_DATABASE_URL"
	envWebhookSecret     = "CADSOCIAL_WEBHOOK_SECRET"
	logFileName          = "cadsocial.log"
	maxProbeIntervalSecs = 3600
)

var validStorage = map[string]bool{"file": true, "sqlite": true, "redis": true, "memory": true}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		SessionPath:   mustExpand(defaultSessionPath),
		DataDir:       mustExpand(defaultDataDir),
		Storage:       defaultStorage,
		ProbeInterval: defaultProbeSeconds * time.Second,
		LogLevel:      defaultLogLevel,
		LogFormat:     defaultLogFormat,
		EmailAPIURL:   defaultEmailAPIURL,
		EmailFrom:     defaultEmailFrom,
		PortalURL:     defaultPortalURL,
		WebhookBind:   defaultWebhookBind,
	}
}

// Load locates and parses the config file, falling back to defaults when it
// is missing. Secrets set in the environment override the file.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			applyEnv(&cfg)
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIURL        string `toml:"api_url"`
		APIKey        string `toml:"api_key"`
		SessionPath   string `toml:"session_path"`
		DataDir       string `toml:"data_dir"`
		Storage       string `toml:"storage"`
		RedisURL      string `toml:"redis_url"`
		DatabaseURL   string `toml:"database_url"`
		ProbeInterval int    `toml:"probe_interval_seconds"`
		LogLevel      string `toml:"log_level"`
		LogFormat     string `toml:"log_format"`
		JWTSecret     string `toml:"jwt_secret"`
		EmailAPIURL   string `toml:"email_api_url"`
		EmailAPIKey   string `toml:"email_api_key"`
		EmailFrom     string `toml:"email_from"`
		PortalURL     string `toml:"portal_url"`
		WebhookBind   string `toml:"webhook_bind"`
		WebhookSecret string `toml:"webhook_secret"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.APIURL = strings.TrimSpace(raw.APIURL)
	cfg.APIKey = strings.TrimSpace(raw.APIKey)
	cfg.RedisURL = strings.TrimSpace(raw.RedisURL)
	cfg.DatabaseURL = strings.TrimSpace(raw.DatabaseURL)
	cfg.JWTSecret = strings.TrimSpace(raw.JWTSecret)
	cfg.EmailAPIKey = strings.TrimSpace(raw.EmailAPIKey)
	cfg.WebhookSecret = strings.TrimSpace(raw.WebhookSecret)

	if v := strings.TrimSpace(raw.SessionPath); v != "" {
		cfg.SessionPath = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.DataDir); v != "" {
		cfg.DataDir = mustExpand(v)
	}
	if v := strings.ToLower(strings.TrimSpace(raw.Storage)); v != "" {
		cfg.Storage = v
	}
	if raw.ProbeInterval > 0 {
		cfg.ProbeInterval = time.Duration(raw.ProbeInterval) * time.Second
	}
	if v := strings.ToLower(strings.TrimSpace(raw.LogLevel)); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.ToLower(strings.TrimSpace(raw.LogFormat)); v != "" {
		cfg.LogFormat = v
	}
	if v := strings.TrimSpace(raw.EmailAPIURL); v != "" {
		cfg.EmailAPIURL = v
	}
	if v := strings.TrimSpace(raw.EmailFrom); v != "" {
		cfg.EmailFrom = v
	}
	if v := strings.TrimSpace(raw.PortalURL); v != "" {
		cfg.PortalURL = v
	}
	if v := strings.TrimSpace(raw.WebhookBind); v != "" {
		cfg.WebhookBind = v
	}

	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values no component can run with.
func (c Config) Validate() error {
	if !validStorage[c.Storage] {
		return fmt.Errorf("invalid storage %q: want file, sqlite, redis or memory", c.Storage)
	}
	if c.Storage == "redis" && c.RedisURL == "" {
		return fmt.Errorf("storage %q requires redis_url", c.Storage)
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		return fmt.Errorf("invalid log_format %q: want console or json", c.LogFormat)
	}
	if c.ProbeInterval > maxProbeIntervalSecs*time.Second {
		return fmt.Errorf("probe_interval_seconds %d exceeds %d", int(c.ProbeInterval/time.Second), maxProbeIntervalSecs)
	}
	return nil
}

// RequireRemote reports whether the remote store is configured.
func (c Config) RequireRemote() error {
	if c.APIURL == "" && c.DatabaseURL == "" {
		return errors.New("api_url or database_url must be set in the config file")
	}
	return nil
}

// LogDir is where log files are written.
func (c Config) LogDir() string {
	if strings.TrimSpace(c.DataDir) == "" {
		return mustExpand(defaultDataDir + "/logs")
	}
	return filepath.Join(c.DataDir, "logs")
}

// LogPath returns the path to the primary log file.
func (c Config) LogPath() string {
	return filepath.Join(c.LogDir(), logFileName)
}

// DefaultPath returns the expanded default config location.
func DefaultPath() string {
	return mustExpand(defaultConfigPath)
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(envAPIKey)); v != "" {
		cfg.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv(envEmailAPIKey)); v != "" {
		cfg.EmailAPIKey = v
	}
	if v := strings.TrimSpace(os.Getenv(envDatabaseURL)); v != "" {
		cfg.DatabaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(envWebhookSecret)); v != "" {
		cfg.WebhookSecret = v
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
