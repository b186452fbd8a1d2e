package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Validation range constants.
const (
	minHTTPTimeout = 1 * time.Second
	maxHTTPTimeout = 10 * time.Minute
)

// Validate checks all settings and returns every error found, so users can
// fix them in one pass.
func Validate(cfg *Config) error {
	var errs []error

	errs = append(errs, validateCredentials(&cfg.CredentialsConfig)...)
	errs = append(errs, validateLogging(&cfg.LoggingConfig)...)
	errs = append(errs, validateNetwork(&cfg.NetworkConfig)...)

	return errors.Join(errs...)
}

func validateCredentials(c *CredentialsConfig) []error {
	var errs []error

	switch c.CredentialStore {
	case StoreFile, StoreKeyring:
	default:
		errs = append(errs, fmt.Errorf("credential_store: must be %q or %q, got %q",
			StoreFile, StoreKeyring, c.CredentialStore))
	}

	if c.CredentialStore == StoreKeyring && c.KeyringAccount == "" {
		errs = append(errs, errors.New("keyring_account: must not be empty"))
	}

	switch c.Grant {
	case GrantCode, GrantImplicit:
	default:
		errs = append(errs, fmt.Errorf("grant: must be %q or %q, got %q", GrantCode, GrantImplicit, c.Grant))
	}

	return errs
}

func validateLogging(l *LoggingConfig) []error {
	if _, err := parseLevel(l.LogLevel); err != nil {
		return []error{fmt.Errorf("log_level: %w", err)}
	}

	return nil
}

func validateNetwork(n *NetworkConfig) []error {
	var errs []error

	d, err := time.ParseDuration(n.HTTPTimeout)

	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("http_timeout: %w", err))
	case d < minHTTPTimeout || d > maxHTTPTimeout:
		errs = append(errs, fmt.Errorf("http_timeout: must be between %s and %s, got %s",
			minHTTPTimeout, maxHTTPTimeout, d))
	}

	if strings.TrimSpace(n.UserAgent) == "" {
		errs = append(errs, errors.New("user_agent: must not be empty"))
	}

	return errs
}

// parseLevel maps a log_level value to a slog level.
func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("must be one of debug, info, warn, error; got %q", s)
	}
}
