// Package config loads service configuration from the environment (and an optional config.env) via viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"bookstore/internal/core/tx"
)

// Config groups the settings of the API server and the outbox worker.
type Config struct {
	App       AppConfig
	HTTP      HTTPConfig
	DB        DBConfig
	JWT       JWTConfig
	Inventory InventoryConfig
	Kafka     KafkaConfig
	Outbox    OutboxConfig
}

// AppConfig holds general application settings.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// IsDevelopment reports whether the service runs in development mode.
func (c AppConfig) IsDevelopment() bool {
	return c.Env == "development"
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port int
}

// Addr returns the listen address.
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// DBConfig holds PostgreSQL pool settings.
type DBConfig struct {
	URL      string
	MaxConns int32
	MinConns int32
}

// JWTConfig holds bearer token validation settings.
type JWTConfig struct {
	Secret string
	Issuer string
}

// InventoryConfig tunes the movement engine transactions.
type InventoryConfig struct {
	Tx          tx.Options
	MaxBulkSize int
}

// KafkaConfig holds the movement event producer settings.
type KafkaConfig struct {
	Brokers        []string
	MovementsTopic string
	ClientID       string
}

// Enabled reports whether any broker is configured.
func (c KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

// OutboxConfig tunes the outbox relay.
type OutboxConfig struct {
	BatchSize    int
	PollInterval time.Duration
	Retention    time.Duration
}

// Load reads configuration from environment variables. Env vars take precedence over config.env.
func Load() (*Config, error) {
	v, err := newViper()
	if err != nil {
		return nil, err
	}

	isolation, err := tx.ParseIsolation(v.GetString("INVENTORY_ISOLATION"))
	if err != nil {
		return nil, fmt.Errorf("INVENTORY_ISOLATION: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Env:      v.GetString("APP_ENV"),
			Name:     v.GetString("APP_NAME"),
			LogLevel: v.GetString("LOG_LEVEL"),
		},
		HTTP: HTTPConfig{
			Port: v.GetInt("HTTP_PORT"),
		},
		DB: DBConfig{
			URL:      v.GetString("DATABASE_URL"),
			MaxConns: v.GetInt32("DB_MAX_CONNS"),
			MinConns: v.GetInt32("DB_MIN_CONNS"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
			Issuer: v.GetString("JWT_ISSUER"),
		},
		Inventory: InventoryConfig{
			Tx: tx.Options{
				Isolation:        isolation,
				LockTimeout:      v.GetDuration("INVENTORY_LOCK_TIMEOUT"),
				StatementTimeout: v.GetDuration("INVENTORY_STATEMENT_TIMEOUT"),
			},
			MaxBulkSize: v.GetInt("INVENTORY_MAX_BULK_SIZE"),
		},
		Kafka: KafkaConfig{
			Brokers:        splitList(v.GetString("KAFKA_BROKERS")),
			MovementsTopic: v.GetString("KAFKA_TOPIC_MOVEMENTS"),
			ClientID:       v.GetString("KAFKA_CLIENT_ID"),
		},
		Outbox: OutboxConfig{
			BatchSize:    v.GetInt("OUTBOX_BATCH_SIZE"),
			PollInterval: v.GetDuration("OUTBOX_POLL_INTERVAL"),
			Retention:    v.GetDuration("OUTBOX_RETENTION"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadJWT reads only the token settings, for tools that do not touch the database.
func LoadJWT() (JWTConfig, error) {
	v, err := newViper()
	if err != nil {
		return JWTConfig{}, err
	}
	return JWTConfig{
		Secret: v.GetString("JWT_SECRET"),
		Issuer: v.GetString("JWT_ISSUER"),
	}, nil
}

func newViper() (*viper.Viper, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)
	return v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_NAME", "bookstore-admin")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("HTTP_PORT", 8080)
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("JWT_ISSUER", "bookstore-admin")
	v.SetDefault("INVENTORY_ISOLATION", string(tx.ReadCommitted))
	v.SetDefault("INVENTORY_LOCK_TIMEOUT", 5*time.Second)
	v.SetDefault("INVENTORY_STATEMENT_TIMEOUT", 30*time.Second)
	v.SetDefault("INVENTORY_MAX_BULK_SIZE", 500)
	v.SetDefault("KAFKA_TOPIC_MOVEMENTS", "inventory.movements")
	v.SetDefault("KAFKA_CLIENT_ID", "bookstore-outbox")
	v.SetDefault("OUTBOX_BATCH_SIZE", 100)
	v.SetDefault("OUTBOX_POLL_INTERVAL", time.Second)
	v.SetDefault("OUTBOX_RETENTION", 7*24*time.Hour)
}

// Validate checks required settings and value ranges.
func (c *Config) Validate() error {
	var errs []error
	if c.DB.URL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.JWT.Secret == "" && !c.App.IsDevelopment() {
		errs = append(errs, errors.New("JWT_SECRET is required outside development"))
	}
	if c.DB.MinConns > c.DB.MaxConns {
		errs = append(errs, errors.New("DB_MIN_CONNS must not exceed DB_MAX_CONNS"))
	}
	if c.Inventory.MaxBulkSize <= 0 {
		errs = append(errs, errors.New("INVENTORY_MAX_BULK_SIZE must be positive"))
	}
	if c.Inventory.Tx.LockTimeout < 0 || c.Inventory.Tx.StatementTimeout < 0 {
		errs = append(errs, errors.New("inventory timeouts must not be negative"))
	}
	if c.Outbox.BatchSize <= 0 {
		errs = append(errs, errors.New("OUTBOX_BATCH_SIZE must be positive"))
	}
	if c.Outbox.PollInterval <= 0 {
		errs = append(errs, errors.New("OUTBOX_POLL_INTERVAL must be positive"))
	}
	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
