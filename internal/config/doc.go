// Package config loads, normalizes and validates the TOML configuration
// shared by the chorus daemon and CLI.
package config
