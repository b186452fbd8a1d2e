package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/skydrive-go/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect settings",
	}

	cmd.AddCommand(newConfigShowCmd())

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display effective settings after all overrides",
		Args:  cobra.NoArgs,
		RunE:  runConfigShow,
	}
}

// configShowOutput is the JSON schema for `config show --json`.
type configShowOutput struct {
	ConfigPath      string `json:"config_path"`
	CredentialsFile string `json:"credentials_file"`
	CredentialStore string `json:"credential_store"`
	KeyringAccount  string `json:"keyring_account"`
	Grant           string `json:"grant"`
	LogLevel        string `json:"log_level"`
	HTTPTimeout     string `json:"http_timeout"`
	UserAgent       string `json:"user_agent"`
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if resolvedCfg == nil {
		return errors.New("no configuration loaded")
	}

	if !flagJSON {
		return config.RenderEffective(resolvedCfg, cmd.OutOrStdout())
	}

	eff := config.Effective(resolvedCfg)

	return printJSON(cmd.OutOrStdout(), configShowOutput{
		ConfigPath:      resolvedCfg.ConfigPath,
		CredentialsFile: eff.CredentialsFile,
		CredentialStore: eff.CredentialStore,
		KeyringAccount:  eff.KeyringAccount,
		Grant:           eff.Grant,
		LogLevel:        eff.LogLevel,
		HTTPTimeout:     eff.HTTPTimeout,
		UserAgent:       eff.UserAgent,
	})
}
