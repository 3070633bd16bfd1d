// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultJWTSecret is used when JWT_SECRET is unset. It is only fit for
// local development; main logs a warning when it is in effect.
const DefaultJWTSecret = "secret"

// Config holds all application configuration.
type Config struct {
	Port         string
	MetricsPort  string
	DatabasePath string

	JWTSecret string
	JWTTTL    time.Duration

	PasswordHasher string // "bcrypt" or "argon2"
	BcryptCost     int

	LogLevel  string
	LogFormat string // "text" or "json"

	LoginRate  float64 // tokens per second per client
	LoginBurst int
}

// Load reads the given dotenv files (".env" when none are named) and then
// the environment. Variables already set in the environment win over the
// files, and a missing file is not an error.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := &Config{
		Port:           envOrDefault("PORT", "3000"),
		MetricsPort:    envOrDefault("METRICS_PORT", "9100"),
		DatabasePath:   envOrDefault("DATABASE_PATH", "db.sqlite"),
		JWTSecret:      envOrDefault("JWT_SECRET", DefaultJWTSecret),
		PasswordHasher: strings.ToLower(envOrDefault("PASSWORD_HASHER", "bcrypt")),
		LogLevel:       strings.ToLower(envOrDefault("LOG_LEVEL", "info")),
		LogFormat:      strings.ToLower(envOrDefault("LOG_FORMAT", "text")),
	}

	var err error
	if cfg.JWTTTL, err = envDuration("JWT_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.BcryptCost, err = envInt("BCRYPT_COST", 10); err != nil {
		return nil, err
	}
	if cfg.LoginBurst, err = envInt("LOGIN_BURST", 10); err != nil {
		return nil, err
	}
	if cfg.LoginRate, err = envFloat("LOGIN_RATE", 1); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("PORT must be numeric, got %q", c.Port)
	}
	if _, err := strconv.Atoi(c.MetricsPort); err != nil {
		return fmt.Errorf("METRICS_PORT must be numeric, got %q", c.MetricsPort)
	}
	if c.MetricsPort == c.Port {
		return fmt.Errorf("METRICS_PORT must differ from PORT")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive, got %s", c.JWTTTL)
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost)
	}
	switch c.PasswordHasher {
	case "bcrypt", "argon2":
	default:
		return fmt.Errorf("PASSWORD_HASHER must be bcrypt or argon2, got %q", c.PasswordHasher)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	if c.LoginRate <= 0 || c.LoginBurst < 1 {
		return fmt.Errorf("LOGIN_RATE and LOGIN_BURST must be positive")
	}
	return nil
}

// UsesDefaultSecret reports whether the built-in development secret is in effect.
func (c *Config) UsesDefaultSecret() bool {
	return c.JWTSecret == DefaultJWTSecret
}

// String renders the configuration with the secret masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"port=%s metrics_port=%s database=%s jwt_secret=%s jwt_ttl=%s hasher=%s bcrypt_cost=%d log_level=%s log_format=%s login_rate=%g login_burst=%d",
		c.Port, c.MetricsPort, c.DatabasePath, "****", c.JWTTTL, c.PasswordHasher, c.BcryptCost,
		c.LogLevel, c.LogFormat, c.LoginRate, c.LoginBurst,
	)
}

func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func envInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func envFloat(key string, defaultVal float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return f, nil
}

func envDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}
