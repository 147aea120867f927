package config

import (
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultClinicAPIURL = "https://clinic-backend-zeta.vercel.app"

type Config struct {
	Addr                   string        `yaml:"addr"`
	Environment            string        `yaml:"environment"`
	ClinicAPIURL           string        `yaml:"clinic_api_url"`
	UpstreamTimeout        time.Duration `yaml:"-"`
	JWTSecret              string        `yaml:"jwt_secret"`
	SessionTTL             time.Duration `yaml:"-"`
	SessionEncryptionKey   string        `yaml:"session_encryption_key"`
	SessionCleanupInterval time.Duration `yaml:"-"`
	DatabaseURL            string        `yaml:"database_url"`
	RunMigrations          bool          `yaml:"run_migrations"`
	FrontendDir            string        `yaml:"frontend_dir"`
	Timezone               string        `yaml:"timezone"`
	MaxBodyBytes           int64         `yaml:"max_body_bytes"`
	RateLimitPerMinute     int           `yaml:"rate_limit_per_minute"`
	MetricsEnabled         bool          `yaml:"metrics_enabled"`
	TrustedProxies         []string      `yaml:"trusted_proxies"`

	UpstreamTimeoutRaw        string `yaml:"upstream_timeout"`
	SessionTTLRaw             string `yaml:"session_ttl"`
	SessionCleanupIntervalRaw string `yaml:"session_cleanup_interval"`
}

func defaults() Config {
	return Config{
		Addr:                   ":8080",
		Environment:            "development",
		ClinicAPIURL:           DefaultClinicAPIURL,
		UpstreamTimeout:        15 * time.Second,
		SessionTTL:             8 * time.Hour,
		SessionCleanupInterval: time.Hour,
		RunMigrations:          true,
		FrontendDir:            "frontend/dist",
		Timezone:               "Asia/Tashkent",
		MaxBodyBytes:           1048576,
		RateLimitPerMinute:     60,
		MetricsEnabled:         true,
	}
}

// Load reads .env (if present), then an optional YAML file named by CONFIG_FILE,
// and finally lets environment variables override both.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		fileCfg, err := LoadFile(path)
		if err != nil {
			return Config{}, err
		}
		cfg = fileCfg
	}
	cfg.applyEnv()
	return cfg, nil
}

func LoadFile(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read file %s: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse yaml: %w", err)
	}

	if cfg.UpstreamTimeout, err = parseDurationOr(cfg.UpstreamTimeoutRaw, cfg.UpstreamTimeout); err != nil {
		return Config{}, fmt.Errorf("config: upstream_timeout: %w", err)
	}
	if cfg.SessionTTL, err = parseDurationOr(cfg.SessionTTLRaw, cfg.SessionTTL); err != nil {
		return Config{}, fmt.Errorf("config: session_ttl: %w", err)
	}
	if cfg.SessionCleanupInterval, err = parseDurationOr(cfg.SessionCleanupIntervalRaw, cfg.SessionCleanupInterval); err != nil {
		return Config{}, fmt.Errorf("config: session_cleanup_interval: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Addr = getEnv("APP_ADDR", c.Addr)
	c.Environment = getEnv("APP_ENV", c.Environment)
	c.ClinicAPIURL = strings.TrimRight(getEnv("CLINIC_API_URL", c.ClinicAPIURL), "/")
	c.UpstreamTimeout = getEnvDuration("UPSTREAM_TIMEOUT", c.UpstreamTimeout)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.SessionTTL = getEnvDuration("SESSION_TTL", c.SessionTTL)
	c.SessionEncryptionKey = getEnv("SESSION_ENCRYPTION_KEY", c.SessionEncryptionKey)
	c.SessionCleanupInterval = getEnvDuration("SESSION_CLEANUP_INTERVAL", c.SessionCleanupInterval)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.RunMigrations = getEnvBool("RUN_MIGRATIONS", c.RunMigrations)
	c.FrontendDir = getEnv("FRONTEND_DIR", c.FrontendDir)
	c.Timezone = getEnv("APP_TIMEZONE", c.Timezone)
	c.MaxBodyBytes = int64(getEnvInt("MAX_BODY_BYTES", int(c.MaxBodyBytes)))
	c.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", c.RateLimitPerMinute)
	c.MetricsEnabled = getEnvBool("METRICS_ENABLED", c.MetricsEnabled)
	c.TrustedProxies = getEnvList("TRUSTED_PROXIES", c.TrustedProxies)
}

// Location resolves Timezone, falling back to UTC when it is empty.
func (c Config) Location() (*time.Location, error) {
	if strings.TrimSpace(c.Timezone) == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: APP_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// TrustedProxyPrefixes parses TrustedProxies. Bare addresses become single-host prefixes.
func (c Config) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(c.TrustedProxies))
	for _, raw := range c.TrustedProxies {
		value := strings.TrimSpace(raw)
		if value == "" {
			continue
		}
		if strings.Contains(value, "/") {
			prefix, err := netip.ParsePrefix(value)
			if err != nil {
				return nil, fmt.Errorf("config: TRUSTED_PROXIES %q: %w", value, err)
			}
			out = append(out, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(value)
		if err != nil {
			return nil, fmt.Errorf("config: TRUSTED_PROXIES %q: %w", value, err)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseDurationOr(raw string, fallback time.Duration) (time.Duration, error) {
	if strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	return time.ParseDuration(raw)
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ClinicAPIURL) == "" {
		return fmt.Errorf("CLINIC_API_URL is required")
	}
	if !strings.HasPrefix(c.ClinicAPIURL, "http://") && !strings.HasPrefix(c.ClinicAPIURL, "https://") {
		return fmt.Errorf("CLINIC_API_URL must be an http(s) URL")
	}
	if c.Environment == "production" {
		if strings.TrimSpace(c.JWTSecret) == "" {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL must be set in production so sessions survive restarts")
		}
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.UpstreamTimeout <= 0 {
		return fmt.Errorf("UPSTREAM_TIMEOUT must be positive")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.TrustedProxyPrefixes(); err != nil {
		return err
	}
	return nil
}
