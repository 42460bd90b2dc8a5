package config

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:           "production",
		Port:          "8080",
		JWTSecret:     "secure-secret-at-least-32-chars-long",
		DBDriver:      "postgres",
		DBPassword:    "secure-password",
		DBSSLMode:     "require",
		MailTransport: "redis",
		PostsPerPage:  25,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"valid production", func(*Config) {}, false},
		{"missing port", func(c *Config) { c.Port = "" }, true},
		{"missing secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"default secret in production", func(c *Config) { c.JWTSecret = defaultJWTSecret }, true},
		{"short secret in production", func(c *Config) { c.JWTSecret = "short" }, true},
		{"short secret in development", func(c *Config) { c.Env = "development"; c.JWTSecret = "short" }, false},
		{"weak db password in production", func(c *Config) { c.DBPassword = "password" }, true},
		{"ssl disabled in production", func(c *Config) { c.DBSSLMode = "disable" }, true},
		{"sqlite ignores db password rules", func(c *Config) { c.DBDriver = "sqlite"; c.DBPassword = "" }, false},
		{"unknown driver", func(c *Config) { c.DBDriver = "oracle" }, true},
		{"unknown mail transport", func(c *Config) { c.MailTransport = "pigeon" }, true},
		{"log mail transport in production", func(c *Config) { c.MailTransport = "log" }, true},
		{"default mail transport in production", func(c *Config) { c.MailTransport = "" }, true},
		{"log mail transport in development", func(c *Config) { c.Env = "development"; c.MailTransport = "log" }, false},
		{"negative page size", func(c *Config) { c.PostsPerPage = -1 }, true},
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

func TestConfig_Durations(t *testing.T) {
	c := &Config{}
	assert.Equal(t, 10*time.Minute, c.ResetTokenTTL())
	assert.Equal(t, 7*24*time.Hour, c.SessionTTL())

	c.ResetTokenTTLSeconds = 30
	c.SessionTTLHours = 2
	assert.Equal(t, 30*time.Second, c.ResetTokenTTL())
	assert.Equal(t, 2*time.Hour, c.SessionTTL())
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	defer viper.Reset()
	defer os.Unsetenv("APP_ENV")
	defer os.Unsetenv("DB_DRIVER")
	defer os.Unsetenv("MAIL_TRANSPORT")

	os.Setenv("APP_ENV", "test")
	os.Setenv("DB_DRIVER", "  SQLite ")
	os.Setenv("MAIL_TRANSPORT", "LOG")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "test", c.Env)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, "log", c.MailTransport)
	assert.Equal(t, 25, c.PostsPerPage)
	assert.False(t, c.IsProduction())
}
