package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
// If FOO_FILE is set, reads the file content and sets FOO.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	fileKey := envKey + "_FILE"
	filePath := os.Getenv(fileKey)
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	val := strings.TrimSpace(string(data))
	os.Setenv(envKey, val)
}

// Store drivers
const (
	StoreDriverMemory   = "memory"
	StoreDriverRedis    = "redis"
	StoreDriverPostgres = "postgres"
)

type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	Store     StoreConfig
	Postgres  PostgresConfig
	R2        R2Config
	Queue     QueueConfig
	Client    ClientConfig
	Gateway   GatewayConfig
}

type ServerConfig struct {
	Port     string
	Env      string
	LogLevel string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration int // hours
}

type RateLimitConfig struct {
	ScrapePerHour int
}

type StoreConfig struct {
	Driver    string
	Retention time.Duration // 0 keeps records forever
}

type PostgresConfig struct {
	URL      string
	MaxConns int32
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string
}

// Configured reports whether the result archive can be enabled
func (c R2Config) Configured() bool {
	return c.AccountID != "" && c.AccessKeyID != "" && c.SecretAccessKey != ""
}

type QueueConfig struct {
	Enabled     bool
	Concurrency int
}

// ClientConfig configures the orchestrator's connection to the job runner
type ClientConfig struct {
	BaseURL  string
	APIToken string
	Timeout  int // seconds
}

type GatewayConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	// Read Docker Swarm secrets from _FILE env vars before Viper binds
	readSecret("REDIS_PASSWORD")
	readSecret("JWT_SECRET")
	readSecret("DATABASE_URL")
	readSecret("R2_ACCOUNT_ID")
	readSecret("R2_ACCESS_KEY_ID")
	readSecret("R2_SECRET_ACCESS_KEY")
	readSecret("SCRAPE_API_TOKEN")

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variables
	v.AutomaticEnv()

	// Bind environment variables with underscores to nested config keys
	_ = v.BindEnv("server.port", "SERVER_PORT")
	_ = v.BindEnv("server.env", "SERVER_ENV")
	_ = v.BindEnv("server.log_level", "LOG_LEVEL")
	_ = v.BindEnv("redis.addr", "REDIS_ADDR")
	_ = v.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("redis.db", "REDIS_DB")
	_ = v.BindEnv("jwt.secret", "JWT_SECRET")
	_ = v.BindEnv("jwt.expiration", "JWT_EXPIRATION")
	_ = v.BindEnv("ratelimit.scrape_per_hour", "RATELIMIT_SCRAPE_PER_HOUR")
	_ = v.BindEnv("store.driver", "STORE_DRIVER")
	_ = v.BindEnv("store.retention", "STORE_RETENTION")
	_ = v.BindEnv("postgres.url", "DATABASE_URL")
	_ = v.BindEnv("postgres.max_conns", "DATABASE_MAX_CONNS")
	_ = v.BindEnv("r2.account_id", "R2_ACCOUNT_ID")
	_ = v.BindEnv("r2.access_key_id", "R2_ACCESS_KEY_ID")
	_ = v.BindEnv("r2.secret_access_key", "R2_SECRET_ACCESS_KEY")
	_ = v.BindEnv("r2.bucket_name", "R2_BUCKET_NAME")
	_ = v.BindEnv("r2.public_url", "R2_PUBLIC_URL")
	_ = v.BindEnv("queue.enabled", "QUEUE_ENABLED")
	_ = v.BindEnv("queue.concurrency", "QUEUE_CONCURRENCY")
	_ = v.BindEnv("client.base_url", "SCRAPE_API_URL")
	_ = v.BindEnv("client.api_token", "SCRAPE_API_TOKEN")
	_ = v.BindEnv("client.timeout", "SCRAPE_API_TIMEOUT")
	_ = v.BindEnv("gateway.enabled", "GATEWAY_ENABLED")

	// Defaults
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.expiration", 24)
	v.SetDefault("ratelimit.scrape_per_hour", 30)

	// Store defaults
	v.SetDefault("store.driver", StoreDriverRedis)
	v.SetDefault("store.retention", "0s")
	v.SetDefault("postgres.max_conns", 10)

	// Queue defaults
	v.SetDefault("queue.enabled", true)
	v.SetDefault("queue.concurrency", 10)

	// Client defaults
	v.SetDefault("client.base_url", "http://localhost:8000")
	v.SetDefault("client.timeout", 120)

	// Gateway defaults
	v.SetDefault("gateway.enabled", false)

	// Try to read config file (optional)
	_ = v.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:     v.GetString("server.port"),
			Env:      v.GetString("server.env"),
			LogLevel: v.GetString("server.log_level"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:     v.GetString("jwt.secret"),
			Expiration: v.GetInt("jwt.expiration"),
		},
		RateLimit: RateLimitConfig{
			ScrapePerHour: v.GetInt("ratelimit.scrape_per_hour"),
		},
		Store: StoreConfig{
			Driver:    strings.ToLower(v.GetString("store.driver")),
			Retention: v.GetDuration("store.retention"),
		},
		Postgres: PostgresConfig{
			URL:      v.GetString("postgres.url"),
			MaxConns: v.GetInt32("postgres.max_conns"),
		},
		R2: R2Config{
			AccountID:       v.GetString("r2.account_id"),
			AccessKeyID:     v.GetString("r2.access_key_id"),
			SecretAccessKey: v.GetString("r2.secret_access_key"),
			BucketName:      v.GetString("r2.bucket_name"),
			PublicURL:       v.GetString("r2.public_url"),
		},
		Queue: QueueConfig{
			Enabled:     v.GetBool("queue.enabled"),
			Concurrency: v.GetInt("queue.concurrency"),
		},
		Client: ClientConfig{
			BaseURL:  v.GetString("client.base_url"),
			APIToken: v.GetString("client.api_token"),
			Timeout:  v.GetInt("client.timeout"),
		},
		Gateway: GatewayConfig{
			Enabled: v.GetBool("gateway.enabled"),
		},
	}

	return cfg, nil
}
