package config

// Default values for every setting: layer 0 of the override chain.
const (
	defaultCredentialStore = StoreFile
	defaultKeyringAccount  = "default"
	defaultGrant           = GrantCode
	defaultLogLevel        = "warn"
	defaultHTTPTimeout     = "60s"
	defaultUserAgent       = "skydrive-go/0.1"
	credentialsFileName    = "credentials.json"
)

// DefaultConfig returns a Config populated with all default values. TOML is
// decoded on top of it, so unset keys keep their defaults.
func DefaultConfig() *Config {
	return &Config{
		CredentialsConfig: CredentialsConfig{
			CredentialsFile: DefaultCredentialsPath(),
			CredentialStore: defaultCredentialStore,
			KeyringAccount:  defaultKeyringAccount,
			Grant:           defaultGrant,
		},
		LoggingConfig: LoggingConfig{
			LogLevel: defaultLogLevel,
		},
		NetworkConfig: NetworkConfig{
			HTTPTimeout: defaultHTTPTimeout,
			UserAgent:   defaultUserAgent,
		},
	}
}
