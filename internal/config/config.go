package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Server    ServerConfig
	Services  ServicesConfig
	FAQ       FAQConfig
	Log       LogConfig
	Storage   StorageConfig
	DevStack  DevStackConfig
	Scheduler SchedulerConfig
	Metrics   MetricsConfig
}

type ServerConfig struct {
	Port int `validate:"min=1,max=65535"`
	// AllowedOrigins is a comma separated list of browser origins; "*" allows any.
	AllowedOrigins string
}

type ServicesConfig struct {
	MedicationsURL   string `validate:"required,url"`
	NotificationsURL string `validate:"required,url"`
	AdherenceURL     string `validate:"required,url"`
	Timeout          string `validate:"required"`
}

type FAQConfig struct {
	// Path of a YAML knowledge base replacing the built-in one. Empty keeps
	// the default.
	Path string
}

type LogConfig struct {
	Level  string `validate:"oneof=debug info warn error"`
	Format string `validate:"oneof=console text json"`
	// File additionally receives every record as JSON when set.
	File string
}

type StorageConfig struct {
	DataDir string `validate:"required"`
}

type DevStackConfig struct {
	Port int `validate:"min=1,max=65535"`
}

type SchedulerConfig struct {
	Enabled bool
}

type MetricsConfig struct {
	Namespace string `validate:"required"`
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:           5005,
			AllowedOrigins: "http://localhost:5173",
		},
		Services: ServicesConfig{
			MedicationsURL:   "http://localhost:5002/api/medications",
			NotificationsURL: "http://localhost:5003/api/notifications",
			AdherenceURL:     "http://localhost:5004/api/adherence",
			Timeout:          "5s",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		DevStack: DevStackConfig{
			Port: 5010,
		},
		Scheduler: SchedulerConfig{
			Enabled: true,
		},
		Metrics: MetricsConfig{
			Namespace: "medassist",
		},
	}
}

// Load reads configuration from the JSON file at
// $XDG_CONFIG_HOME/medassist/config.json and applies MEDASSIST_* environment
// overrides on top. The result is validated.
func Load() (Config, error) {
	return loadWith(newFileBackend(configFilePath()))
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	d, err := time.ParseDuration(c.Services.Timeout)
	if err != nil {
		return fmt.Errorf("invalid config: services.timeout: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("invalid config: services.timeout must be positive, got %s", d)
	}
	return nil
}

// TimeoutDuration is the per-call deadline for collaborator requests.
func (s ServicesConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(s.Timeout)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

// Origins splits AllowedOrigins.
func (s ServerConfig) Origins() []string {
	var out []string
	for _, o := range strings.Split(s.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
