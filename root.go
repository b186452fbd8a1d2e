package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/skydrive-go/internal/config"
	"github.com/tonimelisma/skydrive-go/internal/liveconnect"
	"github.com/tonimelisma/skydrive-go/internal/skydrive"
)

// version is set at build time via ldflags.
var version = "dev"

// Global persistent flags, bound in newRootCmd().
var (
	flagConfigPath  string
	flagCredentials string
	flagJSON        bool
	flagVerbose     bool
	flagQuiet       bool
)

// resolvedCfg holds the effective settings loaded by PersistentPreRunE.
var resolvedCfg *config.Resolved

// newRootCmd builds and returns the fully-assembled root command with all
// subcommands registered. Called once from main().
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "skydrive-go",
		Short:   "SkyDrive CLI client",
		Long:    "A command-line client for SkyDrive over the Live Connect REST API.",
		Version: version,
		// Errors are printed by exitOnError.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return loadConfig()
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "settings file path")
	cmd.PersistentFlags().StringVar(&flagCredentials, "credentials", "", "client config file path (file store only)")
	cmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output in JSON format")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress informational output")

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newRegisterCmd())
	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newWhoamiCmd())
	cmd.AddCommand(newTokenCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newLsCmd())
	cmd.AddCommand(newTreeCmd())
	cmd.AddCommand(newCatCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newPutCmd())
	cmd.AddCommand(newMkdirCmd())
	cmd.AddCommand(newStatCmd())
	cmd.AddCommand(newRenameCmd())
	cmd.AddCommand(newDescribeCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// loadConfig resolves the effective settings from the override chain and
// stores the result in resolvedCfg for use by subcommands.
func loadConfig() error {
	cli := config.CLIOverrides{
		ConfigPath:      flagConfigPath,
		CredentialsFile: flagCredentials,
	}

	resolved, err := config.Resolve(config.ReadEnvOverrides(), cli)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	resolvedCfg = resolved

	return nil
}

// buildLogger creates an slog.Logger on stderr. The settings file provides
// the baseline level; --verbose and --quiet override it.
func buildLogger() *slog.Logger {
	return newLogger(os.Stderr)
}

func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn

	if resolvedCfg != nil {
		level = resolvedCfg.LogLevel
	}

	if flagVerbose {
		level = slog.LevelDebug
	}

	if flagQuiet {
		level = slog.LevelError
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// httpClient returns an HTTP client bounded by the configured timeout.
func httpClient() *http.Client {
	if resolvedCfg == nil {
		return &http.Client{Timeout: httpClientTimeout}
	}

	return &http.Client{Timeout: resolvedCfg.HTTPTimeout}
}

// httpClientTimeout applies when no settings are loaded.
const httpClientTimeout = 60 * time.Second

// exitOnError prints a user-friendly error message to stderr and exits.
// exitInterrupted is the status after a second interrupt.
const exitInterrupted = 130

func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)

	if hint := errorHint(err); hint != "" {
		fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
	}

	os.Exit(1)
}

// errorHint suggests the next command for errors a user can fix.
func errorHint(err error) string {
	switch {
	case errors.Is(err, errNoClientConfig):
		return "run 'skydrive-go init' or 'skydrive-go register' first"
	case errors.Is(err, liveconnect.ErrInteractionUnavailable):
		return "run 'skydrive-go login' in a terminal"
	case errors.Is(err, liveconnect.ErrAccessDenied):
		return "run 'skydrive-go login' to grant access again"
	case errors.Is(err, skydrive.ErrAmbiguous):
		return "several items share that name; rename one in the web interface"
	default:
		return ""
	}
}
