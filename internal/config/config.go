package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTP_PORT     string `env:"HTTP_PORT"`
	DB_STRING     string `env:"DB_STRING"`
	JWT_SECRET    string `env:"JWT_SECRET"`
	APP_ENV       string `env:"APP_ENV"`
	KAFKA_BROKERS string `env:"KAFKA_BROKERS"`
	KAFKA_TOPIC   string `env:"KAFKA_TOPIC"`

	// SWEEP_INTERVAL enables the background expiry sweep when > 0.
	SWEEP_INTERVAL time.Duration `env:"SWEEP_INTERVAL"`

	RATE_LIMIT_WINDOW       time.Duration `env:"RATE_LIMIT_WINDOW"`
	RATE_LIMIT_MAX_ATTEMPTS int           `env:"RATE_LIMIT_MAX_ATTEMPTS"`
	RATE_LIMIT_BLOCK        time.Duration `env:"RATE_LIMIT_BLOCK"`
}

func (c *Config) IsProduction() bool {
	return c.APP_ENV == "prod" || c.APP_ENV == "production"
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		HTTP_PORT:     os.Getenv("HTTP_PORT"),
		DB_STRING:     os.Getenv("DB_STRING"),
		JWT_SECRET:    os.Getenv("JWT_SECRET"),
		APP_ENV:       os.Getenv("APP_ENV"),
		KAFKA_BROKERS: os.Getenv("KAFKA_BROKERS"),
		KAFKA_TOPIC:   os.Getenv("KAFKA_TOPIC"),

		SWEEP_INTERVAL:          envDuration("SWEEP_INTERVAL", 0),
		RATE_LIMIT_WINDOW:       envDuration("RATE_LIMIT_WINDOW", time.Minute),
		RATE_LIMIT_MAX_ATTEMPTS: envInt("RATE_LIMIT_MAX_ATTEMPTS", 10),
		RATE_LIMIT_BLOCK:        envDuration("RATE_LIMIT_BLOCK", 5*time.Minute),
	}

	if cfg.HTTP_PORT == "" {
		cfg.HTTP_PORT = "8080"
	}
	if cfg.KAFKA_TOPIC == "" {
		cfg.KAFKA_TOPIC = "order-events"
	}
	if cfg.DB_STRING == "" {
		return nil, errors.New("DB_STRING is required")
	}
	if cfg.JWT_SECRET == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	return cfg, nil
}

func envDuration(name string, def time.Duration) time.Duration {
	raw := os.Getenv(name)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return def
	}
	return d
}

func envInt(name string, def int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return def
	}
	return v
}
