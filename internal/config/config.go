// Package config loads application configuration.
//
// Precedence (highest wins): environment variables → config.yml → defaults.
// A local .env file, if present, is loaded into the environment first via
// godotenv — handy for development, ignored in production where real env
// vars are set by the deployment.
package config

import (
	"errors"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every tunable the server needs. It is assembled once in main
// and passed down explicitly — no package reads viper at request time.
type Config struct {
	Port     int    `mapstructure:"PORT"`
	DBPath   string `mapstructure:"DB_PATH"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// JWTSecret signs session tokens. The server refuses to start without it;
	// a guessable secret would let anyone forge a login cookie.
	JWTSecret string `mapstructure:"JWT_SECRET"`

	// GitHub OAuth is optional — leave the client ID empty to disable the
	// /auth/github routes and run with password login only.
	GitHubClientID     string `mapstructure:"GITHUB_CLIENT_ID"`
	GitHubClientSecret string `mapstructure:"GITHUB_CLIENT_SECRET"`
	GitHubCallbackURL  string `mapstructure:"GITHUB_CALLBACK_URL"`
}

// Load reads configuration from .env, config.yml, and the environment.
func Load() (*Config, error) {
	// Best effort — a missing .env just means we rely on the real environment.
	_ = godotenv.Load()

	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// Unmarshal only sees keys viper already knows about. Defaults cover the
	// tunables below; the secret and the OAuth keys have no sensible default,
	// so they must be bound explicitly or an env-only deployment would never
	// see them.
	for _, key := range []string{
		"JWT_SECRET",
		"GITHUB_CLIENT_ID",
		"GITHUB_CLIENT_SECRET",
		"GITHUB_CALLBACK_URL",
	} {
		if err := viper.BindEnv(key); err != nil {
			return nil, fmt.Errorf("config: binding %s: %w", key, err)
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: reading config file: %w", err)
		}
		// No config file is fine — env vars and defaults cover everything.
	}

	viper.SetDefault("PORT", 8080)
	viper.SetDefault("DB_PATH", "data/forum.db")
	viper.SetDefault("LOG_LEVEL", "info")

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshalling: %w", err)
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("config: JWT_SECRET is required (try: openssl rand -hex 32)")
	}
	if cfg.GitHubClientID != "" && cfg.GitHubCallbackURL == "" {
		cfg.GitHubCallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port)
	}

	return &cfg, nil
}
