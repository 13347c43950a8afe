// Package config loads broker configuration from JSON or YAML files with
// HEXBOLT_* environment overlays, and resolves the platform data directory.
package config
