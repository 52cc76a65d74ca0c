// Package config handles application configuration loading and validation.
//
// Configuration is layered: built-in defaults, then an optional TOML file
// named by SCHEMATIZER_CONFIG, then SCHEMATIZER_* environment variables.
// Values are validated at startup to fail fast if misconfigured.
package config
