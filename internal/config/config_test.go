package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:              "development",
		Port:             "3333",
		DBDriver:         "postgres",
		DBPassword:       "secure-password",
		DBSSLMode:        "require",
		AccessSecret:     "access-secret-at-least-32-characters",
		AccessExpires:    15 * time.Minute,
		RefreshSecret:    "refresh-secret-at-least-32-characters",
		RefreshExpires:   7 * 24 * time.Hour,
		AIServiceBaseURL: "http://ai:8000",
		BaseAppURL:       "https://murmur.example",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"valid development config", func(_ *Config) {}, false},
		{"missing port", func(c *Config) { c.Port = "" }, true},
		{"missing refresh secret", func(c *Config) { c.RefreshSecret = "" }, true},
		{"access ttl not shorter than refresh ttl", func(c *Config) { c.AccessExpires = c.RefreshExpires }, true},
		{"zero access ttl", func(c *Config) { c.AccessExpires = 0 }, true},
		{"unknown driver", func(c *Config) { c.DBDriver = "mysql" }, true},
		{"sqlite driver", func(c *Config) { c.DBDriver = "sqlite" }, false},
		{"missing ai service url", func(c *Config) { c.AIServiceBaseURL = "" }, true},
		{"negative retries", func(c *Config) { c.AIServiceRetries = -1 }, true},
		{"production with valid secrets", func(c *Config) { c.Env = "production" }, false},
		{"production with default access secret", func(c *Config) {
			c.Env = "production"
			c.AccessSecret = defaultAccessSecret
		}, true},
		{"production with short secret", func(c *Config) {
			c.Env = "prod"
			c.RefreshSecret = "short"
		}, true},
		{"production with identical secrets", func(c *Config) {
			c.Env = "production"
			c.RefreshSecret = c.AccessSecret
		}, true},
		{"development with identical secrets", func(c *Config) { c.RefreshSecret = c.AccessSecret }, true},
		{"production with default db password", func(c *Config) {
			c.Env = "production"
			c.DBPassword = "password"
		}, true},
		{"production sqlite ignores db password", func(c *Config) {
			c.Env = "production"
			c.DBDriver = "sqlite"
			c.DBPassword = ""
		}, false},
		{"production with wildcard origin", func(c *Config) {
			c.Env = "production"
			c.BaseAppURL = "*"
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	defer viper.Reset()

	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_DRIVER", "  SQLITE ")
	t.Setenv("AT_EXPIRES", "30m")
	t.Setenv("RT_EXPIRES", "72h")
	t.Setenv("AI_SERVICE_BASE_URL", "http://ai.internal:9000/")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Env)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 30*time.Minute, cfg.AccessExpires)
	assert.Equal(t, 72*time.Hour, cfg.RefreshExpires)
	assert.Equal(t, "http://ai.internal:9000", cfg.AIServiceBaseURL)
	assert.Equal(t, "3333", cfg.Port)
	assert.Equal(t, 3*time.Second, cfg.AIServiceTimeout)
	assert.False(t, cfg.IsProduction())
	assert.True(t, cfg.AutoMigrate)
	assert.False(t, cfg.SeedDemo)
}
