package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	App     AppConfig
	Server  ServerConfig
	Store   StoreConfig
	DB      PostgresConfig
	Redis   RedisConfig
	Kafka   KafkaConfig
	Order   OrderConfig
	Catalog CatalogFeedConfig
}

type AppConfig struct {
	Name     string
	Env      string
	LogLevel string
}

type ServerConfig struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
}

type StoreConfig struct {
	Driver string
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
	Migrate  bool
}

// RedisConfig enables the Redis order sequence when URL is set.
type RedisConfig struct {
	URL         string
	SequenceKey string
}

type KafkaConfig struct {
	Enabled       bool
	Brokers       []string
	EventsTopic   string
	ConsumerGroup string
}

type OrderConfig struct {
	NumberPrefix      string
	StoreTimeout      time.Duration
	LowStockThreshold int
}

type CatalogFeedConfig struct {
	FeedURL          string
	APIKey           string
	PageSize         int
	SleepMS          int
	RetryMaxAttempts int
	RetryBackoffMS   int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		App: AppConfig{
			Name:     getEnv("APP_NAME", "storefront"),
			Env:      getEnv("APP_ENV", "local"),
			LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "")),
		},
		Server: ServerConfig{
			Host:            getEnv("HTTP_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("HTTP_PORT", 3001),
			ShutdownTimeout: getEnvAsMillis("HTTP_SHUTDOWN_TIMEOUT_MS", 10000),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
		},
		DB: PostgresConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvAsInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			DBName:   getEnv("POSTGRES_DB", "postgres"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvAsInt("DB_MAX_CONNS", 10),
			Migrate:  getEnvAsBool("DB_MIGRATE", true),
		},
		Redis: RedisConfig{
			URL:         getEnv("REDIS_URL", ""),
			SequenceKey: getEnv("REDIS_SEQUENCE_KEY", "storefront:order:seq"),
		},
		Kafka: KafkaConfig{
			Enabled:       getEnvAsBool("KAFKA_ENABLED", false),
			Brokers:       splitAndTrim(getEnv("KAFKA_BOOTSTRAP_SERVERS", "localhost:9092")),
			EventsTopic:   getEnv("KAFKA_ORDER_EVENTS_TOPIC", "storefront.order-events"),
			ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "storefront-history"),
		},
		Order: OrderConfig{
			NumberPrefix:      getEnv("ORDER_NUMBER_PREFIX", "BAR"),
			StoreTimeout:      getEnvAsMillis("ORDER_STORE_TIMEOUT_MS", 5000),
			LowStockThreshold: getEnvAsInt("LOW_STOCK_THRESHOLD", 10),
		},
		Catalog: CatalogFeedConfig{
			FeedURL:          getEnv("CATALOG_FEED_URL", ""),
			APIKey:           getEnv("CATALOG_FEED_API_KEY", ""),
			PageSize:         getEnvAsInt("CATALOG_FEED_PAGE_SIZE", 100),
			SleepMS:          getEnvAsInt("CATALOG_FEED_SLEEP_MS", 500),
			RetryMaxAttempts: getEnvAsInt("CATALOG_FEED_RETRY_MAX", 3),
			RetryBackoffMS:   getEnvAsInt("CATALOG_FEED_RETRY_BACKOFF_MS", 1000),
		},
	}

	return cfg, cfg.validate()
}

func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User,
		p.Password,
		p.Host,
		p.Port,
		p.DBName,
		p.SSLMode,
	)
}

/* ================= helpers ================= */

func (c *Config) validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("HTTP_PORT is invalid")
	}
	switch c.Store.Driver {
	case StoreDriverPostgres:
		if c.DB.Host == "" || c.DB.User == "" || c.DB.DBName == "" {
			return fmt.Errorf("database config is incomplete")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER %q is not supported", c.Store.Driver)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka brokers is empty")
	}
	if c.Order.NumberPrefix == "" {
		return fmt.Errorf("ORDER_NUMBER_PREFIX is empty")
	}
	if c.Order.StoreTimeout <= 0 {
		return fmt.Errorf("ORDER_STORE_TIMEOUT_MS must be positive")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvAsMillis(key string, defaultMS int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultMS)) * time.Millisecond
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if val := strings.TrimSpace(p); val != "" {
			out = append(out, val)
		}
	}
	return out
}
