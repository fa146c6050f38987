package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Store backends for pending registrations.
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Server captures process-level configuration.
type Server struct {
	Addr            string        `env:"SELFREG_ADDR" envDefault:":8080"`
	LogLevel        string        `env:"SELFREG_LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"SELFREG_LOG_FORMAT" envDefault:"json"`
	ShutdownTimeout time.Duration `env:"SELFREG_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// EmailAsUsername is the platform-wide policy lite registration depends on.
	EmailAsUsername  bool     `env:"SELFREG_EMAIL_AS_USERNAME" envDefault:"true"`
	SuperTenant      string   `env:"SELFREG_SUPER_TENANT" envDefault:"carbon.super"`
	PrimaryDomain    string   `env:"SELFREG_PRIMARY_DOMAIN" envDefault:"PRIMARY"`
	UserStoreDomains []string `env:"SELFREG_USER_STORE_DOMAINS" envSeparator:"," envDefault:"PRIMARY"`
	PropertiesFile   string   `env:"SELFREG_PROPERTIES_FILE"`

	Store       string        `env:"SELFREG_STORE" envDefault:"memory"`
	PendingTTL  time.Duration `env:"SELFREG_PENDING_TTL" envDefault:"24h"`
	DatabaseURL string        `env:"DATABASE_URL"`

	Redis     RedisConfig     `envPrefix:"REDIS_"`
	Kafka     KafkaConfig     `envPrefix:"KAFKA_"`
	SMTP      SMTPConfig      `envPrefix:"SMTP_"`
	RateLimit RateLimitConfig `envPrefix:"SELFREG_RATE_LIMIT_"`
}

// RedisConfig configures the shared Redis client.
type RedisConfig struct {
	URL          string        `env:"URL"`
	PoolSize     int           `env:"POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"3s"`
}

// KafkaConfig enables the Kafka audit sink when Brokers is non-empty.
type KafkaConfig struct {
	Brokers    []string `env:"BROKERS" envSeparator:","`
	AuditTopic string   `env:"AUDIT_TOPIC" envDefault:"selfreg.audit"`
}

// SMTPConfig enables email confirmations when Host is set.
type SMTPConfig struct {
	Host            string `env:"HOST"`
	Port            int    `env:"PORT" envDefault:"587"`
	Username        string `env:"USERNAME"`
	Password        string `env:"PASSWORD"`
	From            string `env:"FROM" envDefault:"no-reply@localhost"`
	ConfirmationURL string `env:"CONFIRMATION_URL" envDefault:"http://localhost:8080/confirm"`
}

// RateLimitConfig bounds registrations per client IP. RPS <= 0 disables it.
type RateLimitConfig struct {
	RPS     float64       `env:"RPS" envDefault:"1"`
	Burst   int           `env:"BURST" envDefault:"5"`
	IdleTTL time.Duration `env:"IDLE_TTL" envDefault:"10m"`
}

// ParseEnv loads configuration from environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// FromEnv loads an optional .env file, then builds a validated Server config.
func FromEnv(dotenvFiles ...string) (Server, error) {
	if err := godotenv.Load(dotenvFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Server{}, fmt.Errorf("load dotenv: %w", err)
	}

	var cfg Server
	if err := ParseEnv(&cfg); err != nil {
		return Server{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// Validate checks cross-field requirements env tags cannot express.
func (s Server) Validate() error {
	switch s.Store {
	case StoreMemory:
	case StoreRedis:
		if s.Redis.URL == "" {
			return errors.New("config: REDIS_URL is required when SELFREG_STORE=redis")
		}
	case StorePostgres:
		if s.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL is required when SELFREG_STORE=postgres")
		}
	default:
		return fmt.Errorf("config: unknown SELFREG_STORE %q", s.Store)
	}
	if s.SuperTenant == "" || s.PrimaryDomain == "" {
		return errors.New("config: super tenant and primary domain must not be empty")
	}
	return nil
}
