package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Resolved is the final settings after the override chain, with durations
// and levels parsed and paths expanded.
type Resolved struct {
	ConfigPath      string
	CredentialsFile string
	CredentialStore string
	KeyringAccount  string
	Grant           string
	LogLevel        slog.Level
	HTTPTimeout     time.Duration
	UserAgent       string
}

// Load reads and parses a TOML settings file and validates it. Unknown keys
// are fatal, with "did you mean?" suggestions.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := checkUnknownKeys(&md); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault reads a TOML settings file if it exists, otherwise returns
// the defaults. No settings file is needed to get started.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}

	return Load(path)
}

// Resolve loads settings and applies the override chain:
// defaults -> config file -> environment variables -> CLI flags.
func Resolve(env EnvOverrides, cli CLIOverrides) (*Resolved, error) {
	cfgPath := DefaultConfigPath()
	if env.ConfigPath != "" {
		cfgPath = env.ConfigPath
	}

	if cli.ConfigPath != "" {
		cfgPath = cli.ConfigPath
	}

	cfg, err := LoadOrDefault(cfgPath)
	if err != nil {
		return nil, err
	}

	if env.CredentialsFile != "" {
		cfg.CredentialsFile = env.CredentialsFile
	}

	if cli.CredentialsFile != "" {
		cfg.CredentialsFile = cli.CredentialsFile
	}

	if cfg.CredentialStore == StoreFile && cfg.CredentialsFile == "" {
		return nil, errors.New("config validation: credentials_file: no path and no home directory to default to")
	}

	// Validate already accepted these; errors here cannot happen.
	timeout, _ := time.ParseDuration(cfg.HTTPTimeout)
	level, _ := parseLevel(cfg.LogLevel)

	return &Resolved{
		ConfigPath:      cfgPath,
		CredentialsFile: expandTilde(cfg.CredentialsFile),
		CredentialStore: cfg.CredentialStore,
		KeyringAccount:  cfg.KeyringAccount,
		Grant:           cfg.Grant,
		LogLevel:        level,
		HTTPTimeout:     timeout,
		UserAgent:       cfg.UserAgent,
	}, nil
}
