package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"
)

const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"

	DefaultMaxSetlistSlots = 3
	DefaultServiceRRule    = "FREQ=WEEKLY;BYDAY=SU"
	DefaultTimezone        = "Australia/Sydney"
)

// SessionConfig describes how callers are identified
type SessionConfig struct {
	CookieName      string `yaml:"cookieName" validate:"required"`
	DevBypassCookie string `yaml:"devBypassCookie" validate:"required"`
	// Secret enables HMAC verification of the session credential when set
	Secret string `yaml:"secret,omitempty"`
}

// GmailConfig holds the OAuth client and refresh token used to email availability links
type GmailConfig struct {
	ClientID     string `yaml:"clientID" validate:"required"`
	ClientSecret string `yaml:"clientSecret" validate:"required"`
	RefreshToken string `yaml:"refreshToken" validate:"required"`
	Sender       string `yaml:"sender" validate:"required,email"`
}

// Config represents the application configuration
type Config struct {
	Environment     string        `yaml:"environment" validate:"required,oneof=development test production"`
	ListenAddr      string        `yaml:"listenAddr" validate:"required"`
	DatabaseURL     string        `yaml:"databaseURL,omitempty"`
	Timezone        string        `yaml:"timezone" validate:"required,timezone"`
	MaxSetlistSlots int           `yaml:"maxSetlistSlots" validate:"min=1,max=10"`
	ServiceRRule    string        `yaml:"serviceRRule" validate:"required"`
	Session         SessionConfig `yaml:"session"`
	AllowedOrigins  []string      `yaml:"allowedOrigins,omitempty"`
	PublicBaseURL   string        `yaml:"publicBaseURL,omitempty" validate:"omitempty,url"`
	Gmail           *GmailConfig  `yaml:"gmail,omitempty"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Default returns a configuration with every optional field defaulted
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// LoadWithEnv loads .env files and rota_config.<env>.yaml (current directory,
// then home directory), applies environment overrides and validates.
// A missing YAML file is not an error: defaults plus environment are used.
func LoadWithEnv(env string) (*Config, error) {
	loadDotEnv(env)

	cfg := &Config{}
	path, found := findConfigFile(fmt.Sprintf("rota_config.%s.yaml", env))
	if found {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	if cfg.Environment == "" {
		cfg.Environment = env
	}

	return finish(cfg)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	applyEnvOverrides(cfg)
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate validates the configuration struct and checks rrule syntax
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if _, err := rrule.StrToRRule(cfg.ServiceRRule); err != nil {
		return fmt.Errorf("invalid rrule in serviceRRule: %w", err)
	}

	return nil
}

// IsDevelopment reports whether the development bypass may be honoured
func (c *Config) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

// HasDatabase reports whether datastore connection parameters are present
func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}

// Location returns the reference timezone
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		// Validate has already rejected unknown zones
		return time.UTC
	}
	return loc
}

func applyDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = EnvDevelopment
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = DefaultTimezone
	}
	if cfg.MaxSetlistSlots == 0 {
		cfg.MaxSetlistSlots = DefaultMaxSetlistSlots
	}
	if cfg.ServiceRRule == "" {
		cfg.ServiceRRule = DefaultServiceRRule
	}
	if cfg.Session.CookieName == "" {
		cfg.Session.CookieName = "session"
	}
	if cfg.Session.DevBypassCookie == "" {
		cfg.Session.DevBypassCookie = "dev_bypass"
	}
}

func applyEnvOverrides(cfg *Config) {
	overrides := map[string]*string{
		"DATABASE_URL":   &cfg.DatabaseURL,
		"SESSION_SECRET": &cfg.Session.Secret,
		"LISTEN_ADDR":    &cfg.ListenAddr,
		"ROTA_TIMEZONE":  &cfg.Timezone,
	}
	for key, field := range overrides {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*field = v
		}
	}
	if v := os.Getenv("GMAIL_REFRESH_TOKEN"); v != "" && cfg.Gmail != nil {
		cfg.Gmail.RefreshToken = v
	}
}

// loadDotEnv loads .env and .env.<env> when present. Variables already set win.
func loadDotEnv(env string) {
	for _, name := range []string{".env." + env, ".env"} {
		if _, err := os.Stat(name); err == nil {
			_ = godotenv.Load(name)
		}
	}
}

// findConfigFile searches for name in the current directory and home directory
func findConfigFile(name string) (string, bool) {
	if _, err := os.Stat(name); err == nil {
		return name, true
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", false
	}

	homeConfigPath := filepath.Join(homeDir, name)
	if _, err := os.Stat(homeConfigPath); err == nil {
		return homeConfigPath, true
	}

	return "", false
}
