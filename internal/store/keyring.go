package store

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/zalando/go-keyring"
)

// ServiceName is the keyring service under which configs are stored.
const ServiceName = "skydrive-go"

// DefaultAccount is the keyring account used when none is configured.
const DefaultAccount = "default"

// KeyringStore keeps the config JSON as one secret in the OS keyring.
type KeyringStore struct {
	account string
	logger  *slog.Logger
}

// NewKeyringStore returns a store for account; an empty account means
// DefaultAccount.
func NewKeyringStore(account string, logger *slog.Logger) *KeyringStore {
	if account == "" {
		account = DefaultAccount
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &KeyringStore{account: account, logger: logger}
}

// Account returns the keyring account name.
func (s *KeyringStore) Account() string {
	return s.account
}

// ReadConfig returns the stored config. A missing entry yields ErrNoConfig.
func (s *KeyringStore) ReadConfig() (string, error) {
	text, err := keyring.Get(ServiceName, s.account)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", fmt.Errorf("%w in keyring (account %s)", ErrNoConfig, s.account)
	}

	if err != nil {
		return "", fmt.Errorf("store: reading keyring: %w", err)
	}

	return text, nil
}

// WriteConfig replaces the stored config.
func (s *KeyringStore) WriteConfig(text string) error {
	if err := keyring.Set(ServiceName, s.account, text); err != nil {
		return fmt.Errorf("store: writing keyring: %w", err)
	}

	s.logger.Debug("wrote config to keyring", slog.String("account", s.account))

	return nil
}

// Delete removes the stored config. A missing entry is not an error.
func (s *KeyringStore) Delete() error {
	err := keyring.Delete(ServiceName, s.account)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("store: deleting keyring entry: %w", err)
	}

	return nil
}
