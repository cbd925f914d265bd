// Package config loads, normalizes, and validates the TOML configuration
// shared by the inkwell CLI and daemon.
package config
