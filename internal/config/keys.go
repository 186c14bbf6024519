package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kBool
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "CALLDASH_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "backend.base_url", typ: kString, env: "CALLDASH_BACKEND_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Backend.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Backend.BaseURL },
	},
	{
		key: "backend.token", typ: kString, env: "CALLDASH_BACKEND_TOKEN",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Backend.Token = v.(string) },
		extract: func(cfg Config) any { return cfg.Backend.Token },
	},
	{
		key: "session.cookie_max_age", typ: kInt, env: "CALLDASH_SESSION_COOKIE_MAX_AGE",
		apply:   func(cfg *Config, v any) { cfg.Session.CookieMaxAge = v.(int) },
		extract: func(cfg Config) any { return cfg.Session.CookieMaxAge },
	},
	{
		key: "session.secure", typ: kBool, env: "CALLDASH_SESSION_SECURE",
		apply:   func(cfg *Config, v any) { cfg.Session.Secure = v.(bool) },
		extract: func(cfg Config) any { return cfg.Session.Secure },
	},
	{
		key: "session.same_site", typ: kString, env: "CALLDASH_SESSION_SAME_SITE",
		apply:   func(cfg *Config, v any) { cfg.Session.SameSite = v.(string) },
		extract: func(cfg Config) any { return cfg.Session.SameSite },
	},
	{
		key: "session.role", typ: kString, env: "CALLDASH_SESSION_ROLE",
		apply:   func(cfg *Config, v any) { cfg.Session.Role = v.(string) },
		extract: func(cfg Config) any { return cfg.Session.Role },
	},
	{
		key: "session.storage", typ: kString, env: "CALLDASH_SESSION_STORAGE",
		apply:   func(cfg *Config, v any) { cfg.Session.Storage = v.(string) },
		extract: func(cfg Config) any { return cfg.Session.Storage },
	},
	{
		key: "storage.data_dir", typ: kString, env: "CALLDASH_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "log.level", typ: kString, env: "CALLDASH_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kBool:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok && v != "" {
				if bv, err := strconv.ParseBool(v); err == nil {
					s.apply(cfg, bv)
				} else {
					fmt.Fprintf(os.Stderr, "[WARN] could not parse bool from config key %s=%q: %v. Using default value.\n", s.key, v, err)
				}
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		case kBool:
			if b, err := strconv.ParseBool(raw); err == nil {
				s.apply(cfg, b)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse bool from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
