// Package config loads the tripsync client configuration from a TOML file
// with TRIPSYNC_* environment overrides.
package config
