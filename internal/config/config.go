// Package config loads and validates configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // HEARTSCORE_TIMEZONE must resolve on minimal images.
)

// Store backends.
const (
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreMemory   = "memory"
)

// Health data sources.
const (
	SourceNone = "none"
	SourceStub = "stub"
	SourceLive = "live"
)

// Config holds all application configuration.
type Config struct {
	// Server settings.
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	WebDir       string // Optional static PWA build served at /.

	// Storage.
	Store       string
	DatabaseURL string
	SQLitePath  string

	// Timezone names the IANA zone that defines calendar days.
	Timezone string

	// Health data connector.
	HealthSource     string
	ConnectorURL     string
	ConnectorTimeout time.Duration

	// JWT settings for scheduler tokens.
	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiration     time.Duration

	// SSO settings. SSO is enabled when OIDCIssuer is set.
	OIDCIssuer       string
	OIDCClientID     string
	OIDCClientSecret string
	OIDCRedirectURL  string

	// OTEL settings.
	OTELEndpoint string
	OTELInsecure bool
	ServiceName  string

	// Operational settings.
	LogLevel        string
	JobConcurrency  int
	MaxRequestBytes int64
}

// Load reads configuration from the environment and validates it.
// Malformed numbers, booleans and durations are reported, not defaulted.
func Load() (Config, error) {
	var errs []error
	num := func(key string, def int) int {
		v, err := envInt(key, def)
		errs = append(errs, err)
		return v
	}
	dur := func(key string, def time.Duration) time.Duration {
		v, err := envDuration(key, def)
		errs = append(errs, err)
		return v
	}
	flag := func(key string, def bool) bool {
		v, err := envBool(key, def)
		errs = append(errs, err)
		return v
	}

	cfg := Config{
		Addr:              envStr("HEARTSCORE_ADDR", ":8080"),
		ReadTimeout:       dur("HEARTSCORE_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      dur("HEARTSCORE_WRITE_TIMEOUT", 30*time.Second),
		WebDir:            envStr("WEB_DIR", ""),
		Store:             envStr("HEARTSCORE_STORE", StoreSQLite),
		DatabaseURL:       envStr("DATABASE_URL", ""),
		SQLitePath:        envStr("HEARTSCORE_SQLITE_PATH", "data/heartscore.db"),
		Timezone:          envStr("HEARTSCORE_TIMEZONE", "UTC"),
		HealthSource:      envStr("HEARTSCORE_HEALTH_SOURCE", SourceNone),
		ConnectorURL:      envStr("HEARTSCORE_CONNECTOR_URL", ""),
		ConnectorTimeout:  dur("HEARTSCORE_CONNECTOR_TIMEOUT", 5*time.Second),
		JWTPrivateKeyPath: envStr("HEARTSCORE_JWT_PRIVATE_KEY", ""),
		JWTPublicKeyPath:  envStr("HEARTSCORE_JWT_PUBLIC_KEY", ""),
		JWTExpiration:     dur("HEARTSCORE_JWT_EXPIRATION", 24*time.Hour),
		OIDCIssuer:        envStr("OIDC_ISSUER", ""),
		OIDCClientID:      envStr("OIDC_CLIENT_ID", ""),
		OIDCClientSecret:  envStr("OIDC_CLIENT_SECRET", ""),
		OIDCRedirectURL:   envStr("OIDC_REDIRECT_URL", ""),
		OTELEndpoint:      envStr("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTELInsecure:      flag("OTEL_EXPORTER_OTLP_INSECURE", false),
		ServiceName:       envStr("OTEL_SERVICE_NAME", "heartscore"),
		LogLevel:          envStr("HEARTSCORE_LOG_LEVEL", "info"),
		JobConcurrency:    num("HEARTSCORE_JOB_CONCURRENCY", 4),
		MaxRequestBytes:   int64(num("HEARTSCORE_MAX_REQUEST_BYTES", 1<<20)),
	}
	if err := errors.Join(errs...); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the settings are consistent.
func (c Config) Validate() error {
	var errs []error
	switch c.Store {
	case StorePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("config: DATABASE_URL is required for the postgres store"))
		}
	case StoreSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("config: HEARTSCORE_SQLITE_PATH is required for the sqlite store"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("config: unknown HEARTSCORE_STORE %q", c.Store))
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("config: HEARTSCORE_TIMEZONE: %w", err))
	}

	switch c.HealthSource {
	case SourceNone, SourceStub:
	case SourceLive:
		if c.ConnectorURL == "" {
			errs = append(errs, errors.New("config: HEARTSCORE_CONNECTOR_URL is required for the live health source"))
		}
	default:
		errs = append(errs, fmt.Errorf("config: unknown HEARTSCORE_HEALTH_SOURCE %q", c.HealthSource))
	}

	if c.OIDCIssuer != "" && (c.OIDCClientID == "" || c.OIDCRedirectURL == "") {
		errs = append(errs, errors.New("config: OIDC_CLIENT_ID and OIDC_REDIRECT_URL are required when OIDC_ISSUER is set"))
	}
	if c.JobConcurrency <= 0 {
		errs = append(errs, errors.New("config: HEARTSCORE_JOB_CONCURRENCY must be positive"))
	}
	if c.MaxRequestBytes <= 0 {
		errs = append(errs, errors.New("config: HEARTSCORE_MAX_REQUEST_BYTES must be positive"))
	}
	return errors.Join(errs...)
}

// Location returns the configured timezone. Call it only on a validated Config.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SSOEnabled reports whether OIDC login is configured.
func (c Config) SSOEnabled() bool { return c.OIDCIssuer != "" }

func envStr(key, defaultVal string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal, fmt.Errorf("%s=%q is not a valid integer", key, v)
	}
	return n, nil
}

func envBool(key string, defaultVal bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal, fmt.Errorf("%s=%q is not a valid boolean", key, v)
	}
	return b, nil
}

func envDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal, fmt.Errorf("%s=%q is not a valid duration", key, v)
	}
	return d, nil
}
