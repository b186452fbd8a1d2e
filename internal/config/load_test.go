package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad_ValidFullConfig(t *testing.T) {
	path := writeTestConfig(t, `
credentials_file = "/tmp/creds.json"
credential_store = "keyring"
keyring_account = "work"
grant = "token"
log_level = "debug"
http_timeout = "30s"
user_agent = "custom/1.0"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/creds.json", cfg.CredentialsFile)
	assert.Equal(t, StoreKeyring, cfg.CredentialStore)
	assert.Equal(t, "work", cfg.KeyringAccount)
	assert.Equal(t, GrantImplicit, cfg.Grant)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "30s", cfg.HTTPTimeout)
	assert.Equal(t, "custom/1.0", cfg.UserAgent)
}

func TestLoad_PartialKeepsDefaults(t *testing.T) {
	path := writeTestConfig(t, `log_level = "info"`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, defaultHTTPTimeout, cfg.HTTPTimeout)
	assert.Equal(t, StoreFile, cfg.CredentialStore)
	assert.Equal(t, GrantCode, cfg.Grant)
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := writeTestConfig(t, `log_level = `)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config file")
}

func TestLoad_ValidationCollectsAllErrors(t *testing.T) {
	path := writeTestConfig(t, `
credential_store = "vault"
grant = "password"
log_level = "loud"
http_timeout = "1h"
user_agent = " "
`)

	_, err := Load(path)
	require.Error(t, err)

	for _, key := range []string{"credential_store", "grant", "log_level", "http_timeout", "user_agent"} {
		assert.Contains(t, err.Error(), key)
	}
}

func TestLoadOrDefault_Missing(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestResolve_Precedence(t *testing.T) {
	path := writeTestConfig(t, `
credentials_file = "/from/file.json"
log_level = "info"
http_timeout = "15s"
`)

	res, err := Resolve(EnvOverrides{ConfigPath: path}, CLIOverrides{})
	require.NoError(t, err)
	assert.Equal(t, path, res.ConfigPath)
	assert.Equal(t, "/from/file.json", res.CredentialsFile)
	assert.Equal(t, slog.LevelInfo, res.LogLevel)
	assert.Equal(t, 15*time.Second, res.HTTPTimeout)

	res, err = Resolve(
		EnvOverrides{ConfigPath: path, CredentialsFile: "/from/env.json"},
		CLIOverrides{},
	)
	require.NoError(t, err)
	assert.Equal(t, "/from/env.json", res.CredentialsFile)

	res, err = Resolve(
		EnvOverrides{ConfigPath: "/does/not/exist.toml", CredentialsFile: "/from/env.json"},
		CLIOverrides{ConfigPath: path, CredentialsFile: "/from/flag.json"},
	)
	require.NoError(t, err)
	assert.Equal(t, path, res.ConfigPath)
	assert.Equal(t, "/from/flag.json", res.CredentialsFile)
}

func TestResolve_InvalidFile(t *testing.T) {
	path := writeTestConfig(t, `grant = "nope"`)

	_, err := Resolve(EnvOverrides{}, CLIOverrides{ConfigPath: path})
	require.Error(t, err)
}
