package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
	"gopkg.in/yaml.v3"
)

const EnvProduction = "production"

type Config struct {
	AppEnv        string        `yaml:"app_env" env:"APP_ENV"`
	HTTPAddr      string        `yaml:"http_addr" env:"HTTP_ADDR"`
	DatabaseURL   string        `yaml:"database_url" env:"DATABASE_URL"`
	SessionSecret string        `yaml:"session_secret" env:"SESSION_SECRET"`
	SessionMaxAge time.Duration `yaml:"session_max_age" env:"SESSION_MAX_AGE"`
	RabbitMQURL   string        `yaml:"rabbitmq_url" env:"RABBITMQ_URL"`
	RedisURL      string        `yaml:"redis_url" env:"REDIS_URL"`
	LogLevel      string        `yaml:"log_level" env:"LOG_LEVEL"`

	ShopName    string `yaml:"shop_name" env:"SHOP_NAME"`
	ShopAddress string `yaml:"shop_address" env:"SHOP_ADDRESS"`
	ShopPhone   string `yaml:"shop_phone" env:"SHOP_PHONE"`

	LoginRatePerMinute int           `yaml:"login_rate_per_minute" env:"LOGIN_RATE_PER_MINUTE"`
	InviteTTL          time.Duration `yaml:"invite_ttl" env:"INVITE_TTL"`
	PresenceTimeout    time.Duration `yaml:"presence_timeout" env:"PRESENCE_TIMEOUT"`
	RabbitMQPrefetch   int           `yaml:"rabbitmq_prefetch" env:"RABBITMQ_PREFETCH"`
}

func defaults() Config {
	return Config{
		AppEnv:             "development",
		HTTPAddr:           ":3000",
		SessionMaxAge:      12 * time.Hour,
		LogLevel:           "info",
		ShopName:           "Servicio Técnico",
		LoginRatePerMinute: 10,
		InviteTTL:          72 * time.Hour,
		PresenceTimeout:    5 * time.Minute,
		RabbitMQPrefetch:   10,
	}
}

// Load builds the configuration from defaults, the optional YAML file at path,
// a .env file and the process environment, in increasing precedence.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse yaml: %w", err)
			}
		}
	}

	// .env необязателен
	_ = godotenv.Load()

	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == EnvProduction
}

func validate(cfg *Config) error {
	required := []struct{ name, value string }{
		{"DATABASE_URL", cfg.DatabaseURL},
		{"SESSION_SECRET", cfg.SessionSecret},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%s is required", r.name)
		}
	}

	if len(cfg.SessionSecret) < 32 {
		return errors.New("SESSION_SECRET must be at least 32 characters")
	}
	if cfg.LoginRatePerMinute < 1 {
		return errors.New("LOGIN_RATE_PER_MINUTE must be positive")
	}
	return nil
}
