package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables and an optional config
// file. Environment variables (PAWZ_ prefix, e.g. PAWZ_SERVER_PORT) take
// precedence over file values, which take precedence over defaults.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	// Defaults. The queue numbers mirror the original worker pool: three
	// concurrent analyses, three retries, a two minute scoring timeout and a
	// three minute stuck threshold checked every minute.
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("llm.model_name", "gemini-2.5-flash")
	v.SetDefault("queue.max_concurrent", 3)
	v.SetDefault("queue.max_retry", 3)
	v.SetDefault("queue.score_timeout_seconds", 120)
	v.SetDefault("queue.stuck_threshold_seconds", 180)
	v.SetDefault("queue.retry_delay_seconds", 60)
	v.SetDefault("queue.watchdog_interval_seconds", 60)

	// Optional config file in the working directory.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment overrides: PAWZ_SERVER_PORT, PAWZ_DATABASE_URL, ...
	v.SetEnvPrefix("PAWZ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Viper only knows about keys that have defaults or file values; bind the
	// secret-bearing keys explicitly so env-only configuration works.
	for _, key := range []string{"database.url", "llm.gemini_api_key"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
