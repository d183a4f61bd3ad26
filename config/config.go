package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the service configuration, read from the environment (and an optional .env file).
type Config struct {
	Port           string
	AppEnv         string
	LogLevel       string
	AllowedOrigins string
	GatewayToken   string
	CronSecret     string

	Database   DatabaseConfig
	Tiendanube TiendanubeConfig
	Sync       SyncConfig
	R2         R2Config
}

type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
}

type TiendanubeConfig struct {
	BaseURL       string
	StoreID       string
	AccessToken   string
	UserAgent     string
	PerPage       int
	RatePerSecond float64
	MaxRetries    int
	Timeout       time.Duration
}

type SyncConfig struct {
	Interval time.Duration // 0 disables the periodic job
	Timeout  time.Duration
	RedisURL string // empty: in-process lock only
	LockTTL  time.Duration
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
}

// Enabled reports whether snapshot archiving is fully configured.
func (c R2Config) Enabled() bool {
	return c.AccountID != "" && c.AccessKeyID != "" && c.AccessKeySecret != "" && c.Bucket != ""
}

// IsDevelopment: console logging and verbose defaults
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "" || c.AppEnv == "development"
}

// Origins splits ALLOWED_ORIGINS on commas.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "5200")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")

	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("TIENDANUBE_BASE_URL", "https://api.tiendanube.com/v1")
	v.SetDefault("TIENDANUBE_USER_AGENT", "Nadin Revendedoras (soporte@nadinlenceria.com.ar)")
	v.SetDefault("TIENDANUBE_PER_PAGE", 200)
	v.SetDefault("TIENDANUBE_RATE_PER_SECOND", 2.0)
	v.SetDefault("TIENDANUBE_MAX_RETRIES", 3)
	v.SetDefault("TIENDANUBE_TIMEOUT", "30s")

	v.SetDefault("CATALOG_SYNC_INTERVAL", "6h")
	v.SetDefault("CATALOG_SYNC_TIMEOUT", "10m")
	v.SetDefault("CATALOG_SYNC_LOCK_TTL", "15m")
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)
	return FromViper(v)
}

// FromViper builds the typed config and validates required values.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:           v.GetString("PORT"),
		AppEnv:         strings.ToLower(v.GetString("APP_ENV")),
		LogLevel:       v.GetString("LOG_LEVEL"),
		AllowedOrigins: v.GetString("ALLOWED_ORIGINS"),
		GatewayToken:   v.GetString("GATEWAY_TOKEN"),
		CronSecret:     v.GetString("CRON_SECRET"),
		Database: DatabaseConfig{
			URL:          v.GetString("DATABASE_URL"),
			MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		},
		Tiendanube: TiendanubeConfig{
			BaseURL:       v.GetString("TIENDANUBE_BASE_URL"),
			StoreID:       v.GetString("TIENDANUBE_STORE_ID"),
			AccessToken:   v.GetString("TIENDANUBE_ACCESS_TOKEN"),
			UserAgent:     v.GetString("TIENDANUBE_USER_AGENT"),
			PerPage:       v.GetInt("TIENDANUBE_PER_PAGE"),
			RatePerSecond: v.GetFloat64("TIENDANUBE_RATE_PER_SECOND"),
			MaxRetries:    v.GetInt("TIENDANUBE_MAX_RETRIES"),
			Timeout:       v.GetDuration("TIENDANUBE_TIMEOUT"),
		},
		Sync: SyncConfig{
			Interval: v.GetDuration("CATALOG_SYNC_INTERVAL"),
			Timeout:  v.GetDuration("CATALOG_SYNC_TIMEOUT"),
			RedisURL: v.GetString("REDIS_URL"),
			LockTTL:  v.GetDuration("CATALOG_SYNC_LOCK_TTL"),
		},
		R2: R2Config{
			AccountID:       v.GetString("CLOUDFLARE_ACCOUNT_ID"),
			AccessKeyID:     v.GetString("R2_ACCESS_KEY_ID"),
			AccessKeySecret: v.GetString("R2_ACCESS_KEY_SECRET"),
			Bucket:          v.GetString("R2_BUCKET_NAME"),
		},
	}

	if cfg.Database.URL == "" {
		return nil, errors.New("DATABASE_URL environment variable not set")
	}
	if cfg.Sync.Interval < 0 {
		return nil, errors.New("CATALOG_SYNC_INTERVAL must not be negative")
	}
	return cfg, nil
}
