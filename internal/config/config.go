// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/chr126/nagios-puppet/internal/dashboard"
)

type Config struct {
	Dashboard  DashboardConfig  `yaml:"dashboard"`
	Thresholds ThresholdsConfig `yaml:"thresholds"`
	Logging    LoggingConfig    `yaml:"logging"`
	Prometheus PrometheusConfig `yaml:"prometheus"`
}

type DashboardConfig struct {
	Host string `yaml:"host"`
	// Port stays a raw token so a non-numeric value is reported like any
	// other malformed argument.
	Port     string `yaml:"port"`
	SSL      bool   `yaml:"ssl"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Realm    string `yaml:"realm"`
}

// ThresholdsConfig holds the comma separated lists in category order:
// unresponsive,failed,pending,changed,unchanged,unreported.
type ThresholdsConfig struct {
	Warning  string `yaml:"warning"`
	Critical string `yaml:"critical"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type PrometheusConfig struct {
	Textfile string `yaml:"textfile"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

// Load reads a config file and fills in defaults. Validation is left to
// Validate so command line overrides can be applied first.
func Load(filename string) (*Config, error) {
	config, err := loadConfigFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	setDefaults(config)

	return config, nil
}

func loadConfigFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return &config, nil
}

func setDefaults(cfg *Config) {
	if cfg.Dashboard.Port == "" {
		cfg.Dashboard.Port = strconv.Itoa(dashboard.DefaultPort)
	}
	if cfg.Dashboard.Realm == "" {
		cfg.Dashboard.Realm = dashboard.DefaultRealm
	}

	// stdout belongs to the plugin output, so stay quiet unless asked
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "warn"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}

// Validate checks that everything required for a run is present. Threshold
// and port contents are checked by the thresholds package.
func (cfg *Config) Validate() error {
	if cfg.Dashboard.Host == "" {
		return fmt.Errorf("host is required (-H/--host)")
	}
	if cfg.Thresholds.Warning == "" {
		return fmt.Errorf("warning thresholds are required (-w/--warning)")
	}
	if cfg.Thresholds.Critical == "" {
		return fmt.Errorf("critical thresholds are required (-c/--critical)")
	}
	if cfg.Dashboard.Password != "" && cfg.Dashboard.User == "" {
		return fmt.Errorf("password given without user (-U/--httpuser)")
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be text or json, got %q", cfg.Logging.Format)
	}
	return nil
}

// Credentials returns basic auth credentials, or nil when no user is set.
func (cfg *Config) Credentials() *dashboard.Credentials {
	if cfg.Dashboard.User == "" {
		return nil
	}
	return &dashboard.Credentials{
		User:     cfg.Dashboard.User,
		Password: cfg.Dashboard.Password,
		Realm:    cfg.Dashboard.Realm,
	}
}
