package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	Port       string `mapstructure:"PORT"`
	Env        string `mapstructure:"APP_ENV"`
	AppVersion string `mapstructure:"APP_VERSION"`
	LogLevel   string `mapstructure:"LOG_LEVEL"`

	StorageBackend string `mapstructure:"STORAGE_BACKEND"`
	DatabaseURL    string `mapstructure:"DATABASE_URL"`
	DBHost         string `mapstructure:"DB_HOST"`
	DBPort         string `mapstructure:"DB_PORT"`
	DBUser         string `mapstructure:"DB_USER"`
	DBPassword     string `mapstructure:"DB_PASSWORD"`
	DBName         string `mapstructure:"DB_NAME"`

	// Пустой адрес отключает соответствующий сервис
	RedisHost        string `mapstructure:"REDIS_HOST"`
	RedisPassword    string `mapstructure:"REDIS_PASSWORD"`
	KafkaBroker      string `mapstructure:"KAFKA_BROKER"`
	KafkaTopic       string `mapstructure:"KAFKA_TOPIC"`
	KafkaGroupID     string `mapstructure:"KAFKA_GROUP_ID"`
	ElasticsearchURL string `mapstructure:"ELASTICSEARCH_URL"`
	SentryDSN        string `mapstructure:"SENTRY_DSN"`

	CacheTTL         time.Duration `mapstructure:"CACHE_TTL"`
	RateLimitPerMin  int           `mapstructure:"RATE_LIMIT_PER_MIN"`
	CORSAllowOrigins []string      `mapstructure:"CORS_ALLOW_ORIGINS"`
	ConnectAttempts  int           `mapstructure:"CONNECT_ATTEMPTS"`
	ConnectDelay     time.Duration `mapstructure:"CONNECT_DELAY"`
	ShutdownTimeout  time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
	SearchIndex      string        `mapstructure:"SEARCH_INDEX"`
	TracesSampleRate float64       `mapstructure:"SENTRY_TRACES_SAMPLE_RATE"`
}

var defaults = map[string]any{
	"PORT":                      "3000",
	"APP_ENV":                   "development",
	"APP_VERSION":               "dev",
	"LOG_LEVEL":                 "info",
	"STORAGE_BACKEND":           StoragePostgres,
	"DATABASE_URL":              "",
	"DB_HOST":                   "localhost",
	"DB_PORT":                   "5432",
	"DB_USER":                   "postgres",
	"DB_PASSWORD":               "",
	"DB_NAME":                   "intake",
	"REDIS_HOST":                "",
	"REDIS_PASSWORD":            "",
	"KAFKA_BROKER":              "",
	"KAFKA_TOPIC":               "intake_form_events",
	"KAFKA_GROUP_ID":            "intake-indexer",
	"ELASTICSEARCH_URL":         "",
	"SENTRY_DSN":                "",
	"CACHE_TTL":                 "24h",
	"RATE_LIMIT_PER_MIN":        120,
	"CORS_ALLOW_ORIGINS":        "*",
	"CONNECT_ATTEMPTS":          5,
	"CONNECT_DELAY":             "3s",
	"SHUTDOWN_TIMEOUT":          "10s",
	"SEARCH_INDEX":              "intake_forms",
	"SENTRY_TRACES_SAMPLE_RATE": 0.2,
}

// Load читает config.yaml (если есть) и переменные окружения.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StorageBackend {
	case StorageMemory, StoragePostgres:
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	if c.ConnectAttempts < 1 {
		return fmt.Errorf("CONNECT_ATTEMPTS must be positive, got %d", c.ConnectAttempts)
	}
	if c.RateLimitPerMin < 1 {
		return fmt.Errorf("RATE_LIMIT_PER_MIN must be positive, got %d", c.RateLimitPerMin)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// PostgresDSN возвращает DATABASE_URL или собирает DSN из DB_*.
func (c *Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort,
	)
}

// RedisAddr добавляет порт по умолчанию, если он не указан.
func (c *Config) RedisAddr() string {
	if c.RedisHost == "" || strings.Contains(c.RedisHost, ":") {
		return c.RedisHost
	}
	return c.RedisHost + ":6379"
}
