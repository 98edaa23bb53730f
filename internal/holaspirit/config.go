package holaspirit

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL = "https://app.holaspirit.com"

	EnvToken          = "HOLASPIRIT_API_TOKEN"
	EnvOrganizationID = "HOLASPIRIT_ORGANIZATION_ID"
	EnvBaseURL        = "HOLASPIRIT_API_BASE_URL"
	EnvTimeout        = "HOLASPIRIT_MCP_TIMEOUT"
	EnvMaxRetries     = "HOLASPIRIT_MCP_MAX_RETRIES"
	EnvRetryBaseDelay = "HOLASPIRIT_MCP_RETRY_BASE_DELAY"
	EnvRetryMaxDelay  = "HOLASPIRIT_MCP_RETRY_MAX_DELAY"
	EnvRateLimitRPS   = "HOLASPIRIT_MCP_RPS"
	EnvRateLimitBurst = "HOLASPIRIT_MCP_BURST"

	defaultTimeout        = 30 * time.Second
	defaultMaxRetries     = 3
	defaultRateLimitRPS   = 5.0
	defaultRateLimitBurst = 10
)

// Config holds everything needed to reach one Holaspirit organization.
type Config struct {
	BaseURL        string        `yaml:"base_url"`
	Token          string        `yaml:"token"`
	OrganizationID string        `yaml:"organization_id"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxRetries     int           `yaml:"max_retries"`
	RetryBaseDelay time.Duration `yaml:"retry_base_delay"`
	RetryMaxDelay  time.Duration `yaml:"retry_max_delay"`
	RateLimitRPS   float64       `yaml:"rate_limit_rps"`
	RateLimitBurst int           `yaml:"rate_limit_burst"`
}

// ConfigError reports missing or malformed startup configuration. It is fatal.
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s %s", e.Key, e.Reason)
}

// DefaultConfig returns a config with every optional knob set.
func DefaultConfig() Config {
	return Config{
		BaseURL:        DefaultBaseURL,
		Timeout:        defaultTimeout,
		MaxRetries:     defaultMaxRetries,
		RetryBaseDelay: defaultRetryBaseDelay,
		RetryMaxDelay:  defaultRetryMaxDelay,
		RateLimitRPS:   defaultRateLimitRPS,
		RateLimitBurst: defaultRateLimitBurst,
	}
}

// LoadConfig reads the optional YAML file at path, applies environment
// overrides and checks that the token and organization are present.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		val, ok := lookup(key)
		val = strings.TrimSpace(val)
		return val, ok && val != ""
	}
	if v, ok := get(EnvToken); ok {
		cfg.Token = v
	}
	if v, ok := get(EnvOrganizationID); ok {
		cfg.OrganizationID = v
	}
	if v, ok := get(EnvBaseURL); ok {
		cfg.BaseURL = v
	}
	for key, dst := range map[string]*time.Duration{
		EnvTimeout:        &cfg.Timeout,
		EnvRetryBaseDelay: &cfg.RetryBaseDelay,
		EnvRetryMaxDelay:  &cfg.RetryMaxDelay,
	} {
		if v, ok := get(key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return &ConfigError{Key: key, Reason: "must be a duration such as 30s"}
			}
			*dst = d
		}
	}
	if v, ok := get(EnvMaxRetries); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return &ConfigError{Key: EnvMaxRetries, Reason: "must be an integer"}
		}
		cfg.MaxRetries = n
	}
	if v, ok := get(EnvRateLimitRPS); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return &ConfigError{Key: EnvRateLimitRPS, Reason: "must be a number"}
		}
		cfg.RateLimitRPS = f
	}
	if v, ok := get(EnvRateLimitBurst); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return &ConfigError{Key: EnvRateLimitBurst, Reason: "must be an integer"}
		}
		cfg.RateLimitBurst = n
	}
	return nil
}

// Validate reports every missing required value.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Token) == "" {
		errs = append(errs, &ConfigError{Key: EnvToken, Reason: "environment variable is required"})
	}
	if strings.TrimSpace(c.OrganizationID) == "" {
		errs = append(errs, &ConfigError{Key: EnvOrganizationID, Reason: "environment variable is required"})
	}
	if strings.TrimSpace(c.BaseURL) == "" {
		errs = append(errs, &ConfigError{Key: EnvBaseURL, Reason: "must not be empty"})
	}
	return errors.Join(errs...)
}
