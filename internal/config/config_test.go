package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080"},
		Database: DatabaseConfig{
			Host:   "localhost",
			Port:   3306,
			User:   "digest",
			DBName: "substack_digest",
		},
		Redis: RedisConfig{Addr: "localhost:6379"},
		Gmail: GmailConfig{
			ClientID:         "client-id",
			ClientSecret:     "client-secret",
			RefreshToken:     "refresh-token",
			NewsletterDomain: "substack.com",
		},
		Ingest: IngestConfig{
			DaysBack:          30,
			Concurrency:       5,
			PageSize:          100,
			MaxFetchesPerHour: 5,
			BurstWindow:       time.Hour,
		},
		Scheduler: SchedulerConfig{IntervalMinutes: 1440},
	}
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			name:   "missing server port",
			mutate: func(c *Config) { c.Server.Port = "" },
			want:   "server port",
		},
		{
			name:   "missing database host",
			mutate: func(c *Config) { c.Database.Host = "" },
			want:   "database",
		},
		{
			name:   "missing gmail credentials",
			mutate: func(c *Config) { c.Gmail.RefreshToken = "" },
			want:   "Gmail OAuth2",
		},
		{
			name:   "missing newsletter domain",
			mutate: func(c *Config) { c.Gmail.NewsletterDomain = "" },
			want:   "newsletter domain",
		},
		{
			name:   "negative days back",
			mutate: func(c *Config) { c.Ingest.DaysBack = -1 },
			want:   "days_back",
		},
		{
			name:   "zero concurrency",
			mutate: func(c *Config) { c.Ingest.Concurrency = 0 },
			want:   "concurrency",
		},
		{
			name:   "zero burst ceiling",
			mutate: func(c *Config) { c.Ingest.MaxFetchesPerHour = 0 },
			want:   "burst limit",
		},
		{
			name:   "zero burst window",
			mutate: func(c *Config) { c.Ingest.BurstWindow = 0 },
			want:   "burst limit",
		},
		{
			name:   "zero scheduler interval",
			mutate: func(c *Config) { c.Scheduler.IntervalMinutes = 0 },
			want:   "scheduler interval",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestGetDSN(t *testing.T) {
	db := &DatabaseConfig{
		Host:     "db.internal",
		Port:     3307,
		User:     "digest",
		Password: "pw",
		DBName:   "substack_digest",
	}

	assert.Equal(t,
		"digest:pw@tcp(db.internal:3307)/substack_digest?charset=utf8mb4&parseTime=True&loc=Local",
		db.GetDSN())
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "substack.com", cfg.Gmail.NewsletterDomain)
	assert.Equal(t, 30, cfg.Ingest.DaysBack)
	assert.Equal(t, 5, cfg.Ingest.Concurrency)
	assert.Equal(t, int64(100), cfg.Ingest.PageSize)
	assert.Equal(t, 5, cfg.Ingest.MaxFetchesPerHour)
	assert.Equal(t, time.Hour, cfg.Ingest.BurstWindow)
	assert.Equal(t, 1440, cfg.Scheduler.IntervalMinutes)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("INGEST_MAX_FETCHES_PER_HOUR", "9")
	t.Setenv("GMAIL_NEWSLETTER_DOMAIN", "beehiiv.com")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9, cfg.Ingest.MaxFetchesPerHour)
	assert.Equal(t, "beehiiv.com", cfg.Gmail.NewsletterDomain)
}
