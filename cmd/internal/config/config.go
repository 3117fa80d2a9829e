package config

import (
	"errors"
	"fmt"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"io/fs"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	HTTPAddr    string   `env:"NUTRICARE_HTTP_ADDR" envDefault:":6060"`
	CORSOrigins []string `env:"NUTRICARE_CORS_ORIGINS" envSeparator:"," envDefault:"*"`

	DBDriver string `env:"NUTRICARE_DB_DRIVER" envDefault:"sqlite"`
	DBDSN    string `env:"NUTRICARE_DB_DSN" envDefault:"./database.db"`

	JWTSecret      string `env:"NUTRICARE_JWT_SECRET"`
	CognitoEnabled bool   `env:"NUTRICARE_COGNITO_ENABLED" envDefault:"false"`
	CognitoRegion  string `env:"NUTRICARE_COGNITO_REGION" envDefault:"us-east-1"`

	RedisAddr     string `env:"NUTRICARE_REDIS_ADDR"`
	RedisPassword string `env:"NUTRICARE_REDIS_PASSWORD"`
	RedisDB       int    `env:"NUTRICARE_REDIS_DB" envDefault:"0"`

	KafkaBrokers []string `env:"NUTRICARE_KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"NUTRICARE_KAFKA_TOPIC" envDefault:"nutricare.lifecycle"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unsupported database driver %q", c.DBDriver)
	}

	if c.DBDSN == "" {
		return errors.New("database dsn is required")
	}

	if !c.CognitoEnabled && c.JWTSecret == "" {
		return errors.New("NUTRICARE_JWT_SECRET is required when cognito is disabled")
	}
	return nil
}

func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}
