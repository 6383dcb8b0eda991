// Package logger configures the application's structured slog JSON logging
// and provides context helpers for request-scoped loggers.
package logger
