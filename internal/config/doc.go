// Package config loads, normalizes, and validates the bpm_master TOML
// configuration file.
package config
