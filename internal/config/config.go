package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig
	Backend BackendConfig
	Session SessionConfig
	Storage StorageConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port int
}

type BackendConfig struct {
	BaseURL string
	// Token is a service token used by the MCP tools. Env only.
	Token string
}

type SessionConfig struct {
	CookieMaxAge int // seconds
	Secure       bool
	SameSite     string // lax, strict or none
	Role         string
	Storage      string // sqlite or memory
}

type StorageConfig struct {
	DataDir string
}

type LogConfig struct {
	Level string
}

const (
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 3000,
		},
		Backend: BackendConfig{
			BaseURL: "https://discovery-call-backend-latest-1.onrender.com/api",
		},
		Session: SessionConfig{
			CookieMaxAge: 86400,
			Secure:       true,
			SameSite:     "lax",
			Role:         "Admin",
			Storage:      StorageSQLite,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration in layers: built-in defaults, the JSON file at
// $XDG_CONFIG_HOME/calldash/config.json, a .env file in the working
// directory (if any), then CALLDASH_* environment variables.
//
// Variables already present in the environment win over the .env file.
func Load() (Config, error) {
	return loadWith(newFileBackend(configFilePath()), ".env")
}

func loadWith(b ConfigBackend, envFile string) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("could not read env file", "path", envFile, "error", err)
		}
	}
	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the server cannot run with.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if strings.TrimSpace(c.Backend.BaseURL) == "" {
		return fmt.Errorf("backend.base_url must not be empty")
	}
	if c.Session.CookieMaxAge <= 0 {
		return fmt.Errorf("session.cookie_max_age must be positive, got %d", c.Session.CookieMaxAge)
	}
	mode, err := parseSameSite(c.Session.SameSite)
	if err != nil {
		return err
	}
	if mode == http.SameSiteNoneMode && !c.Session.Secure {
		return fmt.Errorf("session.same_site=none requires session.secure=true")
	}
	switch c.Session.Storage {
	case StorageSQLite, StorageMemory:
	default:
		return fmt.Errorf("session.storage must be %q or %q, got %q", StorageSQLite, StorageMemory, c.Session.Storage)
	}
	return nil
}

// SameSiteMode returns the cookie SameSite mode for session.same_site.
func (c SessionConfig) SameSiteMode() http.SameSite {
	mode, err := parseSameSite(c.SameSite)
	if err != nil {
		return http.SameSiteLaxMode
	}
	return mode
}

// MaxAge returns the session cookie lifetime.
func (c SessionConfig) MaxAge() time.Duration {
	return time.Duration(c.CookieMaxAge) * time.Second
}

func parseSameSite(s string) (http.SameSite, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lax", "":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	}
	return 0, fmt.Errorf("session.same_site must be lax, strict or none, got %q", s)
}

// SlogLevel maps log.level to a slog level. Unknown values mean info.
func (c LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
