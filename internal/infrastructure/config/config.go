package config

import "github.com/caarlos0/env/v9"

// Config holds the process-level settings for the messaging service.
// It covers what main needs to wire the infra adapters together.
type Config struct {
	Port           string   `env:"PORT" envDefault:"8080"`
	DatabaseURL    string   `env:"DB_URL,required"`
	RedisURL       string   `env:"REDIS_URL,required"`
	AllowedOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
