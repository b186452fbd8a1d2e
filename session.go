package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/tonimelisma/skydrive-go/internal/config"
	"github.com/tonimelisma/skydrive-go/internal/liveconnect"
	"github.com/tonimelisma/skydrive-go/internal/skydrive"
	"github.com/tonimelisma/skydrive-go/internal/store"
)

// errNoClientConfig means no client config has been written yet.
var errNoClientConfig = errors.New("no client config")

// configStore is a liveconnect.ConfigStore that can also say where it lives.
type configStore interface {
	liveconnect.ConfigStore
	fmt.Stringer
}

type fileConfigStore struct{ *store.FileStore }

func (s fileConfigStore) String() string { return s.Path() }

type keyringConfigStore struct{ *store.KeyringStore }

func (s keyringConfigStore) String() string {
	return "keyring " + store.ServiceName + "/" + s.Account()
}

// openConfigStore returns the credential store selected by the settings.
func openConfigStore(cfg *config.Resolved, logger *slog.Logger) configStore {
	if cfg.CredentialStore == config.StoreKeyring {
		return keyringConfigStore{store.NewKeyringStore(cfg.KeyringAccount, logger)}
	}

	return fileConfigStore{store.NewFileStore(cfg.CredentialsFile, logger)}
}

// clientOptions builds liveconnect options from the settings. consent may be
// nil for non-interactive use.
func clientOptions(cfg *config.Resolved, logger *slog.Logger, consent liveconnect.ConsentFunc) liveconnect.Options {
	return liveconnect.Options{
		HTTPClient: httpClient(),
		Consent:    consent,
		Logger:     logger,
		UserAgent:  cfg.UserAgent,
	}
}

// newLiveClient opens the configured store and returns a client over it.
// Interactive consent is offered only when stdin is a terminal.
func newLiveClient(logger *slog.Logger) (*liveconnect.Client, error) {
	s := openConfigStore(resolvedCfg, logger)

	client, err := liveconnect.NewClient(s, clientOptions(resolvedCfg, logger, terminalConsent(os.Stdin, os.Stderr)))
	if errors.Is(err, store.ErrNoConfig) {
		return nil, fmt.Errorf("%w: %w", errNoClientConfig, err)
	}

	if err != nil {
		return nil, err
	}

	return client, nil
}

// openDrive returns a drive over a fresh client.
func openDrive(ctx context.Context) (*skydrive.Drive, *slog.Logger, error) {
	logger := buildLogger()

	client, err := newLiveClient(logger)
	if err != nil {
		return nil, nil, err
	}

	d, err := skydrive.Open(ctx, client, logger)
	if err != nil {
		return nil, nil, err
	}

	return d, logger, nil
}
