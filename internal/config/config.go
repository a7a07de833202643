// Package config loads application configuration from the environment.
package config

import (
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds all runtime configuration. Spotify credentials are not
// required at load time: their absence is reported as a configuration
// fault by the token provider when a fetch is actually attempted.
type Config struct {
	SpotifyTokenURL     string `env:"SPOTIFY_API_TOKEN_URI"`
	SpotifyClientID     string `env:"SPOTIFY_CLIENT_ID"`
	SpotifyClientSecret string `env:"SPOTIFY_CLIENT_SECRET"`

	DatabaseURL string `env:"DATABASE_URL" env-required:"true"`

	// RedisURL selects the Redis cache backend when set; the in-memory
	// cache is used otherwise.
	RedisURL string `env:"REDIS_URL"`

	Port string `env:"PORT" env-default:"8080"`

	// APITokenTTLHours bounds the lifetime of issued personal access tokens.
	APITokenTTLHours int `env:"API_TOKEN_TTL_HOURS" env-default:"24"`

	LogFormat string `env:"LOG_FORMAT" env-default:"text"`
	LogLevel  string `env:"LOG_LEVEL" env-default:"info"`
}

// Load reads configuration from a .env file (if present) and the process
// environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.WithError(err).Debug("No .env file loaded")
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ConfigureLogger applies the configured log level and format to the
// global logrus logger.
func (c *Config) ConfigureLogger() {
	if c.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}
