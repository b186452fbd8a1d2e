package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"
)

// Effective converts resolved settings back into the file representation,
// so that the output of RenderEffective can be saved as a settings file.
func Effective(r *Resolved) *Config {
	return &Config{
		CredentialsConfig: CredentialsConfig{
			CredentialsFile: r.CredentialsFile,
			CredentialStore: r.CredentialStore,
			KeyringAccount:  r.KeyringAccount,
			Grant:           r.Grant,
		},
		LoggingConfig: LoggingConfig{
			LogLevel: strings.ToLower(r.LogLevel.String()),
		},
		NetworkConfig: NetworkConfig{
			HTTPTimeout: r.HTTPTimeout.String(),
			UserAgent:   r.UserAgent,
		},
	}
}

// RenderEffective writes the effective settings as TOML, headed by a
// comment naming the settings file they were loaded from.
func RenderEffective(r *Resolved, w io.Writer) error {
	if _, err := fmt.Fprintf(w, "# settings file: %s\n", r.ConfigPath); err != nil {
		return err
	}

	if err := toml.NewEncoder(w).Encode(Effective(r)); err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	return nil
}
