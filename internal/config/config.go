// Package config implements TOML configuration loading and platform path
// resolution for supershift-cache. It supports a three-layer override chain:
// defaults -> config file -> environment variables, with CLI flags applied on
// top by the command layer.
package config

// Config is the top-level configuration structure parsed from a TOML file.
type Config struct {
	Storage StorageConfig `toml:"storage"`
	Logging LoggingConfig `toml:"logging"`
}

// StorageConfig controls where the offline cache database lives.
type StorageConfig struct {
	Path string `toml:"path"`
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	Level string `toml:"level"` // debug, info, warn, error
}

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{Path: DefaultStorePath()},
		Logging: LoggingConfig{Level: "info"},
	}
}
