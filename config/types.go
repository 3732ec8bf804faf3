package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	TokenFormatJWT    = "jwt"
	TokenFormatPaseto = "paseto"
)

type Config struct {
	Database       DatabaseConfig       `mapstructure:"database"`
	CasbinDatabase DatabaseConfig       `mapstructure:"casbin_database"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Server         ServerConfig         `mapstructure:"server"`
	RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`
	Authentication AuthenticationConfig `mapstructure:"authentication"`
	Authorization  AuthorizationConfig  `mapstructure:"authorization"`
	Email          EmailConfig          `mapstructure:"email"`
	SMS            SMSConfig            `mapstructure:"sms"`
	Password       PasswordConfig       `mapstructure:"password"`
	OTP            OTPConfig            `mapstructure:"otp"`
	Booking        BookingConfig        `mapstructure:"booking"`
	Search         SearchConfig         `mapstructure:"search"`
	Observability  ObservabilityConfig  `mapstructure:"observability"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	Nats           NatsConfig           `mapstructure:"nats"`
}

type NatsConfig struct {
	// URL is optional. Without it events are delivered in-process.
	URL  string `mapstructure:"url" yaml:"url"`
	Name string `mapstructure:"name" yaml:"name"`
}

type DatabaseConfig struct {
	Host       string                  `mapstructure:"host"`
	Port       int                     `mapstructure:"port"`
	User       string                  `mapstructure:"user"`
	Password   string                  `mapstructure:"password"`
	DBName     string                  `mapstructure:"dbname"`
	SSLMode    string                  `mapstructure:"sslmode"`
	Pool       DatabasePoolConfig      `mapstructure:"pool"`
	Migrations DatabaseMigrationConfig `mapstructure:"migrations"`
}

type DatabasePoolConfig struct {
	MaxOpenConns       int `mapstructure:"max_open_conns"`
	MaxIdleConns       int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeMin int `mapstructure:"conn_max_lifetime_minutes"`
}

type DatabaseMigrationConfig struct {
	AutoMigrate bool `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Addr                string `mapstructure:"addr"`
	DB                  int    `mapstructure:"db"`
	Username            string `mapstructure:"username"`
	Password            string `mapstructure:"password"`
	PoolSize            int    `mapstructure:"pool_size"`
	MinIdleConns        int    `mapstructure:"min_idle_conns"`
	DialTimeoutSeconds  int    `mapstructure:"dial_timeout_seconds"`
	ReadTimeoutSeconds  int    `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `mapstructure:"write_timeout_seconds"`
}

type RateLimitConfig struct {
	Max              int `mapstructure:"max"`
	WindowSeconds    int `mapstructure:"window_seconds"`
	OTPMax           int `mapstructure:"otp_max"`
	OTPWindowSeconds int `mapstructure:"otp_window_seconds"`
}

type ServerConfig struct {
	Port           int        `mapstructure:"port"`
	TimeoutSeconds int        `mapstructure:"timeout_seconds"`
	Environment    string     `mapstructure:"environment"`
	Domain         string     `mapstructure:"domain"`
	Databases      []string   `mapstructure:"databases"`
	CORS           CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowOrigins     []string `mapstructure:"allow_origins"`
	AllowMethods     []string `mapstructure:"allow_methods"`
	AllowHeaders     []string `mapstructure:"allow_headers"`
	ExposeHeaders    []string `mapstructure:"expose_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAgeSeconds    int      `mapstructure:"max_age_seconds"`
}

type AuthenticationConfig struct {
	Token                    TokenConfig `mapstructure:"token"`
	OTPTTLMinutes            int         `mapstructure:"otp_ttl_minutes"`
	OTPResendCooldownSeconds int         `mapstructure:"otp_resend_cooldown_seconds"`
	// DefaultPhoneRegion is the ISO 3166 region used when a phone number
	// arrives without a country code.
	DefaultPhoneRegion string `mapstructure:"default_phone_region"`
}

type TokenConfig struct {
	Format           string       `mapstructure:"format"` // jwt | paseto
	Issuer           string       `mapstructure:"issuer"`
	Audience         string       `mapstructure:"audience"`
	AccessTTLMinutes int          `mapstructure:"access_ttl_minutes"`
	RefreshTTLDays   int          `mapstructure:"refresh_ttl_days"`
	JWTSecret        string       `mapstructure:"jwt_secret"`
	Paseto           PasetoConfig `mapstructure:"paseto"`
}

type PasetoConfig struct {
	Mode         string `mapstructure:"mode"`
	LocalKeyHex  string `mapstructure:"local_key_hex"`
	SecretKeyHex string `mapstructure:"secret_key_hex"`
	PublicKeyHex string `mapstructure:"public_key_hex"`
}

func (t TokenConfig) AccessTTL() time.Duration {
	return time.Duration(t.AccessTTLMinutes) * time.Minute
}

func (t TokenConfig) RefreshTTL() time.Duration {
	return time.Duration(t.RefreshTTLDays) * 24 * time.Hour
}

type AuthorizationConfig struct {
	CasbinModelPath    string `mapstructure:"casbin_model_path"`
	EnableAudit        bool   `mapstructure:"enable_audit"`
	SuperadminBypass   bool   `mapstructure:"superadmin_bypass"`
	PolicySyncEnabled  bool   `mapstructure:"policy_sync_enabled"`
	HealthCheckEnabled bool   `mapstructure:"health_check_enabled"`
}

type EmailConfig struct {
	Enabled bool       `mapstructure:"enabled"`
	From    string     `mapstructure:"from"`
	SMTP    SMTPConfig `mapstructure:"smtp"`
	// AdminAlerts receives plain-text alerts such as new profiles awaiting verification.
	AdminAlerts []string `mapstructure:"admin_alerts"`
}

type SMTPConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Username       string `mapstructure:"username"`
	Password       string `mapstructure:"password"`
	UseTLS         bool   `mapstructure:"use_tls"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type SMSConfig struct {
	Enabled bool        `mapstructure:"enabled"`
	SMSIR   SMSIRConfig `mapstructure:"smsir"`
}

type SMSIRConfig struct {
	APIKey    string            `mapstructure:"api_key"`
	SecretKey string            `mapstructure:"secret_key"`
	Templates SMSTemplateConfig `mapstructure:"templates"`
}

// SMSTemplateConfig holds provider-side template IDs.
type SMSTemplateConfig struct {
	OTP                  string `mapstructure:"otp"`
	AppointmentBooked    string `mapstructure:"appointment_booked"`
	AppointmentCancelled string `mapstructure:"appointment_cancelled"`
}

type PasswordConfig struct {
	MemoryKiB     uint32 `mapstructure:"memory_kib"`
	Iterations    uint32 `mapstructure:"iterations"`
	Parallelism   uint8  `mapstructure:"parallelism"`
	SaltLength    uint32 `mapstructure:"salt_length"`
	KeyLength     uint32 `mapstructure:"key_length"`
	LowMemoryMode bool   `mapstructure:"low_memory_mode"`
}

type OTPConfig struct {
	Length int `mapstructure:"length"`
}

type BookingConfig struct {
	TimeZone       string `mapstructure:"time_zone"`
	MaxDaysAhead   int    `mapstructure:"max_days_ahead"`
	MinLeadMinutes int    `mapstructure:"min_lead_minutes"`
}

// Location resolves TimeZone, falling back to UTC.
func (b BookingConfig) Location() *time.Location {
	if b.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(b.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type SearchConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	URL        string `mapstructure:"url"`
	APIKey     string `mapstructure:"api_key"`
	Collection string `mapstructure:"collection"`
}

type ObservabilityConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	ServiceName    string        `mapstructure:"service_name"`
	ServiceVersion string        `mapstructure:"service_version"`
	Tracing        TracingConfig `mapstructure:"tracing"`
	Metrics        MetricsConfig `mapstructure:"metrics"`
}

type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	SamplingRate float64 `mapstructure:"sampling_rate"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type LoggingConfig struct {
	Level  string       `mapstructure:"level"`  // debug, info, warn, error
	Format string       `mapstructure:"format"` // text, json
	Output OutputConfig `mapstructure:"output"`
}

type OutputConfig struct {
	Stdout bool          `mapstructure:"stdout"`
	File   FileLogConfig `mapstructure:"file"`
	Loki   LokiConfig    `mapstructure:"loki"`
}

type FileLogConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`        // e.g. "logs/app.log"
	MaxSizeMB  int    `mapstructure:"max_size_mb"` // rotate after N MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type LokiConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"` // e.g. "http://localhost:3100"
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	TenantID string `mapstructure:"tenant_id"`
}

func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Database.Host == "" {
		errs = append(errs, errors.New("database.host is required"))
	}

	t := c.Authentication.Token
	switch strings.ToLower(t.Format) {
	case TokenFormatJWT:
		if len(t.JWTSecret) < 32 {
			errs = append(errs, errors.New("authentication.token.jwt_secret must be at least 32 characters"))
		}
	case TokenFormatPaseto:
		if t.Paseto.Mode != "local" && t.Paseto.Mode != "public" {
			errs = append(errs, fmt.Errorf("authentication.token.paseto.mode %q must be local or public", t.Paseto.Mode))
		}
	default:
		errs = append(errs, fmt.Errorf("authentication.token.format %q must be jwt or paseto", t.Format))
	}
	if t.AccessTTLMinutes <= 0 || t.RefreshTTLDays <= 0 {
		errs = append(errs, errors.New("authentication.token ttl values must be positive"))
	}

	if c.SMS.Enabled && c.SMS.SMSIR.Templates.OTP == "" {
		errs = append(errs, errors.New("sms.smsir.templates.otp is required when sms is enabled"))
	}
	if c.Search.Enabled && (c.Search.URL == "" || c.Search.APIKey == "") {
		errs = append(errs, errors.New("search.url and search.api_key are required when search is enabled"))
	}
	if c.Booking.MaxDaysAhead < 0 || c.Booking.MinLeadMinutes < 0 {
		errs = append(errs, errors.New("booking windows must not be negative"))
	}

	return errors.Join(errs...)
}
