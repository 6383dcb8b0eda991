package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm"      validate:"required"`
	Queue    QueueConfig    `mapstructure:"queue"    validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// LLMConfig contains all scoring-service related settings.
type LLMConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key" validate:"required"`
	ModelName    string `mapstructure:"model_name"     validate:"required"`
}

// QueueConfig contains the analysis queue tuning knobs.
//
// ScoreTimeoutSeconds must stay strictly below StuckThresholdSeconds so a
// hung scoring call surfaces as a retryable error before the watchdog
// reclaims the candidate.
type QueueConfig struct {
	MaxConcurrent           int `mapstructure:"max_concurrent"            validate:"required,gte=1"`
	MaxRetry                int `mapstructure:"max_retry"                 validate:"gte=0"`
	ScoreTimeoutSeconds     int `mapstructure:"score_timeout_seconds"     validate:"required,gte=1"`
	StuckThresholdSeconds   int `mapstructure:"stuck_threshold_seconds"   validate:"required,gtfield=ScoreTimeoutSeconds"`
	RetryDelaySeconds       int `mapstructure:"retry_delay_seconds"       validate:"required,gte=1"`
	WatchdogIntervalSeconds int `mapstructure:"watchdog_interval_seconds" validate:"required,gte=1"`
}
