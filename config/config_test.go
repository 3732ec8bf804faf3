package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
database:
  host: localhost
  user: healthmarket
  dbname: healthmarket
authentication:
  token:
    jwt_secret: "0123456789abcdef0123456789abcdef"
booking:
  time_zone: Asia/Kolkata
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigName+"."+ConfigFormat), []byte(body), 0o600))
	return dir
}

func TestReadConfigAppliesDefaults(t *testing.T) {
	cfg, err := ReadConfig(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, TokenFormatJWT, cfg.Authentication.Token.Format)
	assert.Equal(t, 15, cfg.Authentication.Token.AccessTTLMinutes)
	assert.Equal(t, 30*24*time.Hour, cfg.Authentication.Token.RefreshTTL())
	assert.Equal(t, 5, cfg.RateLimit.OTPMax)
	assert.Equal(t, 30, cfg.Booking.MaxDaysAhead)
	assert.Equal(t, "doctors", cfg.Search.Collection)
}

func TestReadConfigEnvOverride(t *testing.T) {
	t.Setenv("HEALTHMARKET_DATABASE_HOST", "db.internal")

	cfg, err := ReadConfig(writeConfig(t, minimalYAML))
	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.Database.Host)
}

func TestReadConfigRejectsShortSecret(t *testing.T) {
	body := `
database:
  host: localhost
authentication:
  token:
    jwt_secret: short
`
	_, err := ReadConfig(writeConfig(t, body))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt_secret")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		var c Config
		c.Server.Port = 8080
		c.Database.Host = "localhost"
		c.Authentication.Token = TokenConfig{
			Format:           TokenFormatJWT,
			JWTSecret:        "0123456789abcdef0123456789abcdef",
			AccessTTLMinutes: 15,
			RefreshTTLDays:   30,
		}
		return c
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"missing db host", func(c *Config) { c.Database.Host = "" }, "database.host"},
		{"unknown token format", func(c *Config) { c.Authentication.Token.Format = "saml" }, "must be jwt or paseto"},
		{"bad paseto mode", func(c *Config) {
			c.Authentication.Token.Format = TokenFormatPaseto
			c.Authentication.Token.Paseto.Mode = "shared"
		}, "paseto.mode"},
		{"sms without template", func(c *Config) { c.SMS.Enabled = true }, "templates.otp"},
		{"search without url", func(c *Config) { c.Search.Enabled = true }, "search.url"},
		{"negative booking window", func(c *Config) { c.Booking.MinLeadMinutes = -1 }, "booking windows"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBookingLocation(t *testing.T) {
	assert.Equal(t, time.UTC, BookingConfig{}.Location())
	assert.Equal(t, time.UTC, BookingConfig{TimeZone: "Not/AZone"}.Location())

	loc := BookingConfig{TimeZone: "Asia/Kolkata"}.Location()
	assert.Equal(t, "Asia/Kolkata", loc.String())
}
