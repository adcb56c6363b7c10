// Package config loads, normalizes, and validates the TOML configuration
// file that drives the danmu resolution service.
package config
