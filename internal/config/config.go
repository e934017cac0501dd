package config

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const EnvProduction = "production"

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string `env:"APP_PORT" envDefault:"3000"`
	AppEnv  string `env:"APP_ENV" envDefault:"development"`

	// OTPDebugBypass accepts any well-formed OTP. It is honoured only outside
	// production and Validate refuses it in production.
	OTPDebugBypass bool `env:"OTP_DEBUG_BYPASS" envDefault:"false"`

	JWTSecret string        `env:"JWT_SECRET"`
	JWTIssuer string        `env:"JWT_ISSUER" envDefault:"lms-api"`
	JWTExpiry time.Duration `env:"JWT_EXPIRY" envDefault:"72h"`

	OTPTTL   time.Duration `env:"OTP_TTL" envDefault:"10m"`
	OTPStore string        `env:"OTP_STORE" envDefault:"memory"` // memory | redis | dynamo

	RedisURL    string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	RedisPrefix string `env:"REDIS_PREFIX" envDefault:"otp"`

	AWSRegion      string `env:"AWS_REGION" envDefault:"us-east-1"`
	AWSEndpointURL string `env:"AWS_ENDPOINT_URL"` // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretKey   string `env:"AWS_SECRET_ACCESS_KEY"`
	DynamoTables   DynamoTables

	SMTPHost     string `env:"SMTP_HOST" envDefault:"localhost"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"1025"`
	SMTPFrom     string `env:"SMTP_FROM" envDefault:"noreply@example.com"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"*" envSeparator:","` // CORS allowed origins
	RateLimitRPS   float64  `env:"RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst int      `env:"RATE_LIMIT_BURST" envDefault:"10"`
	// TrustedProxies lists proxy IPs or CIDRs whose X-Forwarded-For is honoured
	// by the rate limiter. Empty means clients are keyed by their TCP peer.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users    string `env:"DYNAMO_TABLE_USERS" envDefault:"users"`
	OTPCodes string `env:"DYNAMO_TABLE_OTP_CODES" envDefault:"otp_codes"`
}

// Load reads all configuration from environment variables.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	cfg.AppEnv = strings.ToLower(strings.TrimSpace(cfg.AppEnv))
	cfg.OTPStore = strings.ToLower(strings.TrimSpace(cfg.OTPStore))
	cfg.TrustedProxies = compact(cfg.TrustedProxies)
	for i, o := range cfg.AllowedOrigins {
		cfg.AllowedOrigins[i] = strings.TrimSpace(o)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsProduction reports whether the process runs in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == EnvProduction
}

// OTPBypassEnabled reports whether OTP verification accepts any well-formed code.
func (c *Config) OTPBypassEnabled() bool {
	return c.OTPDebugBypass && !c.IsProduction()
}

// Validate rejects configurations that are unsafe or cannot work.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	} else if c.IsProduction() && len(c.JWTSecret) < 32 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 32 bytes in production"))
	}
	if c.JWTExpiry <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRY must be positive"))
	}
	if c.OTPTTL <= 0 {
		errs = append(errs, errors.New("OTP_TTL must be positive"))
	}
	if c.IsProduction() && c.OTPDebugBypass {
		errs = append(errs, errors.New("OTP_DEBUG_BYPASS must not be set in production"))
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive"))
	}
	if _, err := c.TrustedProxyPrefixes(); err != nil {
		errs = append(errs, err)
	}
	switch c.OTPStore {
	case "memory", "redis", "dynamo":
	default:
		errs = append(errs, fmt.Errorf("OTP_STORE %q is not one of memory, redis, dynamo", c.OTPStore))
	}
	return errors.Join(errs...)
}

// TrustedProxyPrefixes parses TrustedProxies. A bare address is treated as a
// single-host prefix.
func (c *Config) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(c.TrustedProxies))
	for _, p := range c.TrustedProxies {
		if strings.Contains(p, "/") {
			pfx, err := netip.ParsePrefix(p)
			if err != nil {
				return nil, fmt.Errorf("TRUSTED_PROXIES entry %q: %w", p, err)
			}
			prefixes = append(prefixes, pfx.Masked())
			continue
		}
		addr, err := netip.ParseAddr(p)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES entry %q: %w", p, err)
		}
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

func compact(list []string) []string {
	out := list[:0]
	for _, v := range list {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
