package config

import "os"

// Environment variable names for overrides.
const (
	EnvConfig    = "SUPERSHIFT_CONFIG"
	EnvStorePath = "SUPERSHIFT_STORE_PATH"
)

// EnvOverrides holds values derived from environment variables.
type EnvOverrides struct {
	ConfigPath string // SUPERSHIFT_CONFIG: override config file path
	StorePath  string // SUPERSHIFT_STORE_PATH: override database path
}

// ReadEnvOverrides reads environment variables and returns any overrides found.
func ReadEnvOverrides() EnvOverrides {
	return EnvOverrides{
		ConfigPath: os.Getenv(EnvConfig),
		StorePath:  os.Getenv(EnvStorePath),
	}
}
