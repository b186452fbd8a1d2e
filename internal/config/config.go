// Package config implements TOML settings loading, validation, and
// platform-specific path resolution for skydrive-go. Settings resolve through
// four layers: defaults -> config file -> environment -> CLI flags.
//
// These are CLI settings only. The Live Connect client config (client id,
// secret, scopes, refresh token) lives in the credential store the settings
// point at.
package config

// Config is the top-level settings structure parsed from a TOML file. All
// keys are flat; the embedded structs only group them in code.
type Config struct {
	CredentialsConfig
	LoggingConfig
	NetworkConfig
}

// CredentialsConfig selects where the client config is kept and which OAuth
// grant interactive login uses.
type CredentialsConfig struct {
	CredentialsFile string `toml:"credentials_file"`
	CredentialStore string `toml:"credential_store"`
	KeyringAccount  string `toml:"keyring_account"`
	Grant           string `toml:"grant"`
}

// LoggingConfig controls the stderr log level.
type LoggingConfig struct {
	LogLevel string `toml:"log_level"`
}

// NetworkConfig controls the HTTP client.
type NetworkConfig struct {
	HTTPTimeout string `toml:"http_timeout"`
	UserAgent   string `toml:"user_agent"`
}

// Credential store kinds.
const (
	StoreFile    = "file"
	StoreKeyring = "keyring"
)

// Grant kinds, matching the OAuth response_type values.
const (
	GrantCode     = "code"
	GrantImplicit = "token"
)

// CLIOverrides holds values from CLI flags that override the config file and
// environment. Empty strings mean "not specified".
type CLIOverrides struct {
	ConfigPath      string // --config
	CredentialsFile string // --credentials
}
