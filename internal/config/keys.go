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
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "MEDASSIST_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "server.allowed_origins", typ: kString, env: "MEDASSIST_SERVER_ALLOWED_ORIGINS",
		apply:   func(cfg *Config, v any) { cfg.Server.AllowedOrigins = v.(string) },
		extract: func(cfg Config) any { return cfg.Server.AllowedOrigins },
	},
	{
		key: "services.medications_url", typ: kString, env: "MEDASSIST_MEDICATIONS_URL",
		apply:   func(cfg *Config, v any) { cfg.Services.MedicationsURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Services.MedicationsURL },
	},
	{
		key: "services.notifications_url", typ: kString, env: "MEDASSIST_NOTIFICATIONS_URL",
		apply:   func(cfg *Config, v any) { cfg.Services.NotificationsURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Services.NotificationsURL },
	},
	{
		key: "services.adherence_url", typ: kString, env: "MEDASSIST_ADHERENCE_URL",
		apply:   func(cfg *Config, v any) { cfg.Services.AdherenceURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Services.AdherenceURL },
	},
	{
		key: "services.timeout", typ: kString, env: "MEDASSIST_SERVICES_TIMEOUT",
		apply:   func(cfg *Config, v any) { cfg.Services.Timeout = v.(string) },
		extract: func(cfg Config) any { return cfg.Services.Timeout },
	},
	{
		key: "faq.path", typ: kString, env: "MEDASSIST_FAQ_PATH",
		apply:   func(cfg *Config, v any) { cfg.FAQ.Path = v.(string) },
		extract: func(cfg Config) any { return cfg.FAQ.Path },
	},
	{
		key: "log.level", typ: kString, env: "MEDASSIST_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
	{
		key: "log.format", typ: kString, env: "MEDASSIST_LOG_FORMAT",
		apply:   func(cfg *Config, v any) { cfg.Log.Format = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Format },
	},
	{
		key: "log.file", typ: kString, env: "MEDASSIST_LOG_FILE",
		apply:   func(cfg *Config, v any) { cfg.Log.File = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.File },
	},
	{
		key: "storage.data_dir", typ: kString, env: "MEDASSIST_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "devstack.port", typ: kInt, env: "MEDASSIST_DEVSTACK_PORT",
		apply:   func(cfg *Config, v any) { cfg.DevStack.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.DevStack.Port },
	},
	{
		key: "scheduler.enabled", typ: kBool, env: "MEDASSIST_SCHEDULER_ENABLED",
		apply:   func(cfg *Config, v any) { cfg.Scheduler.Enabled = v.(bool) },
		extract: func(cfg Config) any { return cfg.Scheduler.Enabled },
	},
	{
		key: "metrics.namespace", typ: kString, env: "MEDASSIST_METRICS_NAMESPACE",
		apply:   func(cfg *Config, v any) { cfg.Metrics.Namespace = v.(string) },
		extract: func(cfg Config) any { return cfg.Metrics.Namespace },
	},
}

func lookupSpec(key string) (keySpec, bool) {
	for _, s := range specs {
		if s.key == key {
			return s, true
		}
	}
	return keySpec{}, false
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
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
