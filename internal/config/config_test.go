package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, StoreSQLite, cfg.Store)
	assert.Equal(t, SourceNone, cfg.HealthSource)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiration)
	assert.Equal(t, 4, cfg.JobConcurrency)
	assert.Equal(t, time.UTC, cfg.Location())
	assert.False(t, cfg.SSOEnabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HEARTSCORE_STORE", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/heartscore")
	t.Setenv("HEARTSCORE_TIMEZONE", "America/New_York")
	t.Setenv("HEARTSCORE_HEALTH_SOURCE", "live")
	t.Setenv("HEARTSCORE_CONNECTOR_URL", "http://connector:9000")
	t.Setenv("HEARTSCORE_CONNECTOR_TIMEOUT", "750ms")
	t.Setenv("HEARTSCORE_JOB_CONCURRENCY", "16")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorePostgres, cfg.Store)
	assert.Equal(t, SourceLive, cfg.HealthSource)
	assert.Equal(t, 750*time.Millisecond, cfg.ConnectorTimeout)
	assert.Equal(t, 16, cfg.JobConcurrency)
	assert.True(t, cfg.OTELInsecure)
	assert.Equal(t, "America/New_York", cfg.Location().String())
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	t.Setenv("HEARTSCORE_JOB_CONCURRENCY", "lots")
	t.Setenv("HEARTSCORE_JWT_EXPIRATION", "a day")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `HEARTSCORE_JOB_CONCURRENCY="lots" is not a valid integer`)
	assert.Contains(t, err.Error(), `HEARTSCORE_JWT_EXPIRATION="a day" is not a valid duration`)
}

func TestValidate(t *testing.T) {
	base := Config{
		Store:           StoreMemory,
		Timezone:        "UTC",
		HealthSource:    SourceNone,
		JobConcurrency:  1,
		MaxRequestBytes: 1024,
	}
	require.NoError(t, base.Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"postgres without url", func(c *Config) { c.Store = StorePostgres }, "DATABASE_URL"},
		{"unknown store", func(c *Config) { c.Store = "redis" }, "HEARTSCORE_STORE"},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }, "HEARTSCORE_TIMEZONE"},
		{"live without url", func(c *Config) { c.HealthSource = SourceLive }, "HEARTSCORE_CONNECTOR_URL"},
		{"unknown source", func(c *Config) { c.HealthSource = "fitbit" }, "HEARTSCORE_HEALTH_SOURCE"},
		{"oidc without client", func(c *Config) { c.OIDCIssuer = "https://id.example.com" }, "OIDC_CLIENT_ID"},
		{"zero concurrency", func(c *Config) { c.JobConcurrency = 0 }, "HEARTSCORE_JOB_CONCURRENCY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("TEST_INT", " 42 ")
	n, err := envInt("TEST_INT", 0)
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	n, err = envInt("TEST_INT_MISSING", 99)
	require.NoError(t, err)
	assert.Equal(t, 99, n)

	t.Setenv("TEST_BOOL_BAD", "maybe")
	_, err = envBool("TEST_BOOL_BAD", false)
	assert.EqualError(t, err, `TEST_BOOL_BAD="maybe" is not a valid boolean`)
}
