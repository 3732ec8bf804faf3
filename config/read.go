package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

func ReadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(ConfigName)
	v.SetConfigType(ConfigFormat)
	v.AddConfigPath(configPath)

	setDefaults(v)

	// Allow env vars to override config values.
	// e.g. HEALTHMARKET_DATABASE_HOST overrides database.host
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The config file is optional in container deployments.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %v", err)
		}
		if os.Getenv(EnvPrefix+"_DATABASE_HOST") == "" {
			return nil, fmt.Errorf("config file not found in %q and %s_DATABASE_HOST is not set", configPath, EnvPrefix)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %v", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.timeout_seconds", 30)
	v.SetDefault("server.environment", "development")

	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("redis.addr", "localhost:6379")

	v.SetDefault("authentication.token.format", TokenFormatJWT)
	v.SetDefault("authentication.token.issuer", "healthmarket")
	v.SetDefault("authentication.token.audience", "healthmarket-api")
	v.SetDefault("authentication.token.access_ttl_minutes", 15)
	v.SetDefault("authentication.token.refresh_ttl_days", 30)
	v.SetDefault("authentication.token.paseto.mode", "local")
	v.SetDefault("authentication.otp_ttl_minutes", 5)
	v.SetDefault("authentication.otp_resend_cooldown_seconds", 60)
	v.SetDefault("authentication.default_phone_region", "IN")

	v.SetDefault("otp.length", 6)

	v.SetDefault("booking.time_zone", "UTC")
	v.SetDefault("booking.max_days_ahead", 30)
	v.SetDefault("booking.min_lead_minutes", 15)

	v.SetDefault("rate_limit.max", 20)
	v.SetDefault("rate_limit.window_seconds", 30)
	v.SetDefault("rate_limit.otp_max", 5)
	v.SetDefault("rate_limit.otp_window_seconds", 60)

	v.SetDefault("authorization.casbin_model_path", "casbin_model.conf")
	v.SetDefault("authorization.superadmin_bypass", true)
	v.SetDefault("observability.service_name", "healthmarket")
	v.SetDefault("observability.metrics.path", "/metrics")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.output.stdout", true)

	v.SetDefault("search.collection", "doctors")
}
