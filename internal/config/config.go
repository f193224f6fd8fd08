// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP API listens on (e.g. :5000).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// HealthGRPCAddr is the address of the gRPC health service; empty disables it.
	HealthGRPCAddr string `mapstructure:"HEALTH_GRPC_ADDR"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`

	// JWTSecret is the HMAC secret for HS256 session tokens. Ignored when JWTPrivateKey is set.
	JWTSecret string `mapstructure:"JWT_SECRET"`
	// JWTPrivateKey is the PEM-encoded private key (RSA or ECDSA) or path to file; used with JWT_PUBLIC_KEY for RS256/ES256.
	JWTPrivateKey string `mapstructure:"JWT_PRIVATE_KEY"`
	// JWTPublicKey is the PEM-encoded public key or path to file. Optional; derived from JWT_PRIVATE_KEY when empty.
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	// JWTIssuer is the iss claim.
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAudience is the aud claim.
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`
	// SessionTTLRaw is the session lifetime (e.g. "168h"). One value for every flow that mints a session.
	SessionTTLRaw string `mapstructure:"SESSION_TTL"`
	// OTPTTLRaw is the one-time code lifetime (e.g. "300s").
	OTPTTLRaw string `mapstructure:"OTP_TTL"`
	// OTPSweepIntervalRaw is how often the worker deletes expired codes (e.g. "1m").
	OTPSweepIntervalRaw string `mapstructure:"OTP_SWEEP_INTERVAL"`

	// CookieName is the session cookie name.
	CookieName string `mapstructure:"COOKIE_NAME"`
	// CookieDomain is the optional session cookie domain.
	CookieDomain string `mapstructure:"COOKIE_DOMAIN"`
	// CORSAllowedOrigins is a comma-separated allow-list of browser origins.
	CORSAllowedOrigins string `mapstructure:"CORS_ALLOWED_ORIGINS"`

	// MailProvider selects delivery: "smtp", "http" or "dev".
	MailProvider string `mapstructure:"MAIL_PROVIDER"`
	MailHost     string `mapstructure:"MAIL_HOST"`
	MailPort     int    `mapstructure:"MAIL_PORT"`
	MailUser     string `mapstructure:"MAIL_USER"`
	MailPass     string `mapstructure:"MAIL_PASS"`
	// MailFrom is the sender address; defaults to MailUser when empty.
	MailFrom     string `mapstructure:"MAIL_FROM"`
	MailFromName string `mapstructure:"MAIL_FROM_NAME"`
	// MailAPIURL and MailAPIKey configure the HTTP mail API provider.
	MailAPIURL string `mapstructure:"MAIL_API_URL"`
	MailAPIKey string `mapstructure:"MAIL_API_KEY"`

	// DevOTPEnabled exposes GET /dev/otp backed by the dev mail sender. Must not be true in production.
	DevOTPEnabled bool `mapstructure:"DEV_OTP_ENABLED"`

	// OTLPEndpoint is the OTLP collector (host:port or URL); empty disables export.
	OTLPEndpoint string `mapstructure:"OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTLP_INSECURE"`
	// ServiceName is the OTel service.name resource attribute.
	ServiceName string `mapstructure:"OTEL_SERVICE_NAME"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"LOG_LEVEL"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Checks shared by every command run
// here; the server additionally calls ValidateServer.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":5000")
	v.SetDefault("HEALTH_GRPC_ADDR", ":5001")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_PRIVATE_KEY", "")
	v.SetDefault("JWT_PUBLIC_KEY", "")
	v.SetDefault("JWT_ISSUER", "notesmk-auth")
	v.SetDefault("JWT_AUDIENCE", "notesmk-api")
	v.SetDefault("SESSION_TTL", "168h") // 7d
	v.SetDefault("OTP_TTL", "300s")
	v.SetDefault("OTP_SWEEP_INTERVAL", "1m")
	v.SetDefault("COOKIE_NAME", "token")
	v.SetDefault("COOKIE_DOMAIN", "")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("MAIL_PROVIDER", "smtp")
	v.SetDefault("MAIL_HOST", "")
	v.SetDefault("MAIL_PORT", 587)
	v.SetDefault("MAIL_USER", "")
	v.SetDefault("MAIL_PASS", "")
	v.SetDefault("MAIL_FROM", "")
	v.SetDefault("MAIL_FROM_NAME", "NotesMk")
	v.SetDefault("MAIL_API_URL", "")
	v.SetDefault("MAIL_API_KEY", "")
	v.SetDefault("DEV_OTP_ENABLED", false)
	v.SetDefault("OTLP_ENDPOINT", "")
	v.SetDefault("OTLP_INSECURE", false)
	v.SetDefault("OTEL_SERVICE_NAME", "notesmk-backend")
	v.SetDefault("LOG_LEVEL", "info")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	switch cfg.MailProvider {
	case "smtp", "http", "dev":
	default:
		return nil, errors.New("config: MAIL_PROVIDER must be smtp, http or dev")
	}
	if cfg.IsProduction() {
		if cfg.DevOTPEnabled {
			return nil, errors.New("config: DEV_OTP_ENABLED must not be true when APP_ENV=production")
		}
		if cfg.MailProvider == "dev" {
			return nil, errors.New("config: MAIL_PROVIDER=dev is not allowed when APP_ENV=production")
		}
	}
	if cfg.MailPort <= 0 || cfg.MailPort > 65535 {
		return nil, errors.New("config: MAIL_PORT must be between 1 and 65535")
	}

	return &cfg, nil
}

// ValidateServer checks the settings only the API server needs: a listen address, session signing
// material and, in production, a CORS allow-list. The worker and seed commands skip it.
func (c *Config) ValidateServer() error {
	if c.HTTPAddr == "" {
		return errors.New("config: HTTP_ADDR must be set")
	}
	if c.JWTSecret == "" && c.JWTPrivateKey == "" {
		return errors.New("config: JWT_SECRET or JWT_PRIVATE_KEY must be set")
	}
	if c.IsProduction() && len(c.AllowedOrigins()) == 0 {
		return errors.New("config: CORS_ALLOWED_ORIGINS must be set when APP_ENV=production")
	}
	return nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), "production")
}

// SessionTTL parses SessionTTLRaw as a time.Duration. Returns 168h if unset or invalid.
func (c *Config) SessionTTL() time.Duration {
	d, err := time.ParseDuration(c.SessionTTLRaw)
	if err != nil || d <= 0 {
		return 168 * time.Hour
	}
	return d
}

// OTPTTL parses OTPTTLRaw as a time.Duration. Returns 300s if unset or invalid.
func (c *Config) OTPTTL() time.Duration {
	d, err := time.ParseDuration(c.OTPTTLRaw)
	if err != nil || d <= 0 {
		return 300 * time.Second
	}
	return d
}

// OTPSweepInterval parses OTPSweepIntervalRaw. Returns 1m if unset or invalid.
func (c *Config) OTPSweepInterval() time.Duration {
	d, err := time.ParseDuration(c.OTPSweepIntervalRaw)
	if err != nil || d <= 0 {
		return time.Minute
	}
	return d
}

// AllowedOrigins returns the CORS allow-list from the comma-separated config.
func (c *Config) AllowedOrigins() []string {
	if c == nil || c.CORSAllowedOrigins == "" {
		return nil
	}
	parts := strings.Split(c.CORSAllowedOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// SenderAddress returns MailFrom, falling back to MailUser.
func (c *Config) SenderAddress() string {
	if c.MailFrom != "" {
		return c.MailFrom
	}
	return c.MailUser
}
