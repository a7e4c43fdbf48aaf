// Package config loads application configuration.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envFile = ".env"

// New loads configuration from environment using viper with typed defaults and
// validation. A local .env file fills gaps without overriding the real
// environment.
func New() (*Config, error) {
	v := viper.New()
	if envMap, err := godotenv.Read(envFile); err == nil {
		for k, val := range envMap {
			if _, exists := os.LookupEnv(k); !exists {
				_ = os.Setenv(k, val)
			}
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindEnvs(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "postgres")
	v.SetDefault("postgres.password", "postgres")
	v.SetDefault("postgres.db_name", "quick_reviewer_db")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.migrations_dir", "db/migrations")
	v.SetDefault("postgres.migrate_timeout", 10*time.Second)
	v.SetDefault("postgres.query_timeout", 2*time.Second)
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 2)

	v.SetDefault("github.base_url", "https://api.github.com")
	v.SetDefault("github.request_timeout", 30*time.Second)

	v.SetDefault("ai.model", "claude-sonnet-4-5")
	v.SetDefault("ai.base_url", "https://api.anthropic.com")
	v.SetDefault("ai.max_tokens", 4096)
	v.SetDefault("ai.request_timeout", 60*time.Second)

	v.SetDefault("review.history_months", 12)
	v.SetDefault("review.backfill_concurrency", 8)
}

func bindEnvs(v *viper.Viper) {
	keys := []string{
		"logging.level",
		"server.host",
		"server.port",
		"server.shutdown_timeout",
		"postgres.host",
		"postgres.port",
		"postgres.user",
		"postgres.password",
		"postgres.db_name",
		"postgres.ssl_mode",
		"postgres.migrations_dir",
		"postgres.migrate_timeout",
		"postgres.query_timeout",
		"postgres.max_conns",
		"postgres.min_conns",
		"github.token",
		"github.webhook_secret",
		"github.base_url",
		"github.request_timeout",
		"ai.api_key",
		"ai.model",
		"ai.base_url",
		"ai.max_tokens",
		"ai.request_timeout",
		"review.bot_login",
		"review.history_months",
		"review.backfill_concurrency",
	}

	for _, k := range keys {
		_ = v.BindEnv(k)
	}
}
