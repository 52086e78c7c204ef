package config

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env           string
	Server        ServerConfig
	Store         StoreConfig
	JWT           JWTConfig
	Notifications NotificationConfig
	RateLimit     RateLimitConfig
	Catalog       *Catalog
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type StoreConfig struct {
	Driver     string // postgres or memory
	MaxRetries int
	RetryBase  time.Duration
}

type JWTConfig struct {
	SecretKey string
}

type NotificationConfig struct {
	OutboxSize    int
	RetryInterval time.Duration
	InboxCap      int64
	DedupeTTL     time.Duration
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

var envBindings = map[string]string{
	"env":                          "ENV",
	"server.port":                  "PORT",
	"database.host":                "DATABASE_HOST",
	"database.port":                "DATABASE_PORT",
	"database.user":                "DATABASE_USER",
	"database.password":            "DATABASE_PASSWORD",
	"database.name":                "DATABASE_NAME",
	"database.ssl_mode":            "DATABASE_SSL_MODE",
	"redis.host":                   "REDIS_HOST",
	"redis.port":                   "REDIS_PORT",
	"redis.password":               "REDIS_PASSWORD",
	"redis.db":                     "REDIS_DB",
	"jwt.secret_key":               "JWT_SECRET_KEY",
	"store.driver":                 "STORE_DRIVER",
	"store.max_retries":            "STORE_MAX_RETRIES",
	"store.retry_base":             "STORE_RETRY_BASE",
	"notifications.outbox_size":    "NOTIFICATIONS_OUTBOX_SIZE",
	"notifications.retry_interval": "NOTIFICATIONS_RETRY_INTERVAL",
	"notifications.inbox_cap":      "NOTIFICATIONS_INBOX_CAP",
	"notifications.dedupe_ttl":     "NOTIFICATIONS_DEDUPE_TTL",
	"ratelimit.rps":                "RATELIMIT_RPS",
	"ratelimit.burst":              "RATELIMIT_BURST",
	"catalog.file":                 "CATALOG_FILE",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.max_retries", 5)
	v.SetDefault("store.retry_base", 10*time.Millisecond)
	v.SetDefault("notifications.outbox_size", 1024)
	v.SetDefault("notifications.retry_interval", 30*time.Second)
	v.SetDefault("notifications.inbox_cap", 500)
	v.SetDefault("notifications.dedupe_ttl", 7*24*time.Hour)
	v.SetDefault("ratelimit.rps", 5)
	v.SetDefault("ratelimit.burst", 10)
}

// New returns a viper instance reading .env and the process environment.
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	for key, env := range envBindings {
		v.BindEnv(key, env)
	}
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using environment and defaults: %v", err)
	}
	return v
}

// Load builds the application config from v.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Env: v.GetString("env"),
		Server: ServerConfig{
			Port:         v.GetString("server.port"),
			ReadTimeout:  v.GetDuration("server.read_timeout"),
			WriteTimeout: v.GetDuration("server.write_timeout"),
			IdleTimeout:  v.GetDuration("server.idle_timeout"),
		},
		Store: StoreConfig{
			Driver:     v.GetString("store.driver"),
			MaxRetries: v.GetInt("store.max_retries"),
			RetryBase:  v.GetDuration("store.retry_base"),
		},
		JWT: JWTConfig{
			SecretKey: v.GetString("jwt.secret_key"),
		},
		Notifications: NotificationConfig{
			OutboxSize:    v.GetInt("notifications.outbox_size"),
			RetryInterval: v.GetDuration("notifications.retry_interval"),
			InboxCap:      v.GetInt64("notifications.inbox_cap"),
			DedupeTTL:     v.GetDuration("notifications.dedupe_ttl"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: v.GetFloat64("ratelimit.rps"),
			Burst:             v.GetInt("ratelimit.burst"),
		},
	}

	switch cfg.Store.Driver {
	case "postgres", "memory":
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if cfg.Store.MaxRetries < 0 {
		return nil, fmt.Errorf("store.max_retries must not be negative")
	}
	if cfg.JWT.SecretKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY is required but not set")
	}

	catalog, err := LoadCatalog(v)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	cfg.Catalog = catalog

	return cfg, nil
}
