// Package config loads and validates application configuration from
// environment variables (PAWZ_ prefix) and an optional YAML config file.
package config
