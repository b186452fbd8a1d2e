package config

import "os"

// Environment variable names for overrides.
const (
	EnvConfig      = "SKYDRIVE_GO_CONFIG"
	EnvCredentials = "SKYDRIVE_GO_CREDENTIALS"
)

// EnvOverrides holds values derived from environment variables.
type EnvOverrides struct {
	ConfigPath      string // SKYDRIVE_GO_CONFIG: settings file path
	CredentialsFile string // SKYDRIVE_GO_CREDENTIALS: client config file path
}

// ReadEnvOverrides reads environment variables and returns any overrides found.
func ReadEnvOverrides() EnvOverrides {
	return EnvOverrides{
		ConfigPath:      os.Getenv(EnvConfig),
		CredentialsFile: os.Getenv(EnvCredentials),
	}
}
