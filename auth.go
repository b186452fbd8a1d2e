package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/skydrive-go/internal/liveconnect"
	"github.com/tonimelisma/skydrive-go/internal/store"
)

// defaultScopes covers reading and writing SkyDrive plus offline refresh.
const defaultScopes = "wl.signin wl.basic wl.skydrive wl.skydrive_update wl.offline_access"

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a client config for an existing application",
		Long: `Write the client config (client id, optional secret, scopes) to the
credential store. Without a client secret, login uses the implicit grant
and no refresh token is issued.`,
		Args: cobra.NoArgs,
		RunE: runInit,
	}

	cmd.Flags().String("client-id", "", "application client id (required)")
	cmd.Flags().String("client-secret", "", "application client secret")
	cmd.Flags().String("scopes", defaultScopes, "space-separated scopes to request")
	cmd.Flags().Bool("force", false, "overwrite an existing client config")
	_ = cmd.MarkFlagRequired("client-id")

	return cmd
}

func newRegisterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new application and write its client config",
		Args:  cobra.NoArgs,
		RunE:  runRegister,
	}

	cmd.Flags().String("name", "", "application name (required)")
	cmd.Flags().String("tos-url", "", "terms of service link")
	cmd.Flags().String("privacy-url", "", "privacy statement link")
	cmd.Flags().String("scopes", defaultScopes, "space-separated scopes the new application requests")
	cmd.Flags().Bool("force", false, "overwrite an existing client config")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Authenticate interactively in the browser",
		Args:  cobra.NoArgs,
		RunE:  runLogin,
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Display the authenticated user",
		Args:  cobra.NoArgs,
		RunE:  runWhoami,
	}
}

func newTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Print the API URL template with a live access token",
		Long: `Authenticate if needed and print the API URL template with the current
access token filled in. {0} stands for the resource path, e.g. me/skydrive.
The account and token lifetime are reported on stderr.`,
		Args: cobra.NoArgs,
		RunE: runToken,
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show where the client config lives and what it holds",
		Args:  cobra.NoArgs,
		RunE:  runStatus,
	}
}

// ensureNoConfig refuses to overwrite a readable config unless forced.
func ensureNoConfig(s liveconnect.ConfigStore, force bool) error {
	if force {
		return nil
	}

	_, err := s.ReadConfig()
	if errors.Is(err, store.ErrNoConfig) {
		return nil
	}

	if err != nil {
		return err
	}

	return errors.New("a client config already exists; use --force to replace it")
}

func runInit(cmd *cobra.Command, _ []string) error {
	logger := buildLogger()
	s := openConfigStore(resolvedCfg, logger)

	force, _ := cmd.Flags().GetBool("force")
	if err := ensureNoConfig(s, force); err != nil {
		return err
	}

	id, _ := cmd.Flags().GetString("client-id")
	secret, _ := cmd.Flags().GetString("client-secret")
	scopes, _ := cmd.Flags().GetString("scopes")

	text, err := liveconnect.NewConfig(id, secret, scopes)
	if err != nil {
		return err
	}

	if err := s.WriteConfig(text); err != nil {
		return fmt.Errorf("writing client config: %w", err)
	}

	logger.Info("client config written", "store", s.String())
	statusf(flagQuiet, "Client config written to %s.\n", s)

	return nil
}

func runRegister(cmd *cobra.Command, _ []string) error {
	logger := buildLogger()
	s := openConfigStore(resolvedCfg, logger)

	force, _ := cmd.Flags().GetBool("force")
	if err := ensureNoConfig(s, force); err != nil {
		return err
	}

	consent := terminalConsent(os.Stdin, cmd.ErrOrStderr())
	if consent == nil {
		return fmt.Errorf("registering an application: %w", liveconnect.ErrInteractionUnavailable)
	}

	name, _ := cmd.Flags().GetString("name")
	tos, _ := cmd.Flags().GetString("tos-url")
	privacy, _ := cmd.Flags().GetString("privacy-url")
	scopes, _ := cmd.Flags().GetString("scopes")

	text, err := liveconnect.RegisterApplication(cmd.Context(),
		clientOptions(resolvedCfg, logger, consent), name, tos, privacy, scopes)
	if err != nil {
		return err
	}

	if err := s.WriteConfig(text); err != nil {
		return fmt.Errorf("writing client config: %w", err)
	}

	statusf(flagQuiet, "Application %q registered; client config written to %s.\n", name, s)

	return nil
}

func runLogin(cmd *cobra.Command, _ []string) error {
	logger := buildLogger()

	client, err := newLiveClient(logger)
	if err != nil {
		return err
	}

	grant := liveconnect.GrantKind(resolvedCfg.Grant)
	if err := client.Engine().Authenticate(cmd.Context(), grant); err != nil {
		return err
	}

	logger.Info("login successful", "grant", string(grant))
	statusf(flagQuiet, "Login successful.\n")

	if !client.Engine().CanRefresh() {
		statusf(flagQuiet, "No refresh token was issued; you will be asked to sign in again in %s.\n",
			formatDuration(client.Engine().TimeRemaining()))
	}

	return nil
}

// whoamiOutput is the JSON schema for `whoami --json`.
type whoamiOutput struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	logger := buildLogger()

	client, err := newLiveClient(logger)
	if err != nil {
		return err
	}

	user, err := client.Me(cmd.Context())
	if err != nil {
		return err
	}

	return printWhoami(cmd.OutOrStdout(), user, flagJSON)
}

func printWhoami(w io.Writer, user *liveconnect.User, asJSON bool) error {
	if asJSON {
		return printJSON(w, whoamiOutput{ID: user.ID, Name: user.Name})
	}

	fmt.Fprintf(w, "User: %s\n", user.Name)
	fmt.Fprintf(w, "ID:   %s\n", user.ID)

	return nil
}

// tokenOutput is the JSON schema for `token --json`.
type tokenOutput struct {
	UserID      string `json:"user_id"`
	UserName    string `json:"user_name"`
	Scopes      string `json:"scopes"`
	CanRefresh  bool   `json:"can_refresh"`
	ValidFor    string `json:"valid_for"`
	APITemplate string `json:"api_template"`
}

func runToken(cmd *cobra.Command, _ []string) error {
	logger := buildLogger()

	client, err := newLiveClient(logger)
	if err != nil {
		return err
	}

	user, err := client.Me(cmd.Context())
	if err != nil {
		return err
	}

	tmpl, err := client.APITemplate(cmd.Context())
	if err != nil {
		return err
	}

	engine := client.Engine()

	return printToken(cmd.OutOrStdout(), cmd.ErrOrStderr(), tokenOutput{
		UserID:      user.ID,
		UserName:    user.Name,
		Scopes:      engine.Scopes(),
		CanRefresh:  engine.CanRefresh(),
		ValidFor:    formatDuration(engine.TimeRemaining()),
		APITemplate: tmpl,
	}, flagJSON)
}

// printToken writes the template alone to out so it can be captured, and
// the account details to diag.
func printToken(out, diag io.Writer, t tokenOutput, asJSON bool) error {
	if asJSON {
		return printJSON(out, t)
	}

	refresh := "available"
	if !t.CanRefresh {
		refresh = "unavailable"
	}

	fmt.Fprintf(diag, "Authenticated as %s/%s.\n", t.UserID, t.UserName)
	fmt.Fprintf(diag, "Consent granted for %s.\n", t.Scopes)
	fmt.Fprintf(diag, "Refresh token %s.\n", refresh)
	fmt.Fprintf(diag, "Access token valid for %s.\n", t.ValidFor)
	fmt.Fprintln(out, t.APITemplate)

	return nil
}

// statusOutput is the JSON schema for `status --json`.
type statusOutput struct {
	Store      string `json:"store"`
	Configured bool   `json:"configured"`
	Scopes     string `json:"scopes,omitempty"`
	CanRefresh bool   `json:"can_refresh"`
	Grant      string `json:"grant"`
}

func runStatus(cmd *cobra.Command, _ []string) error {
	logger := buildLogger()
	s := openConfigStore(resolvedCfg, logger)

	out := statusOutput{Store: s.String(), Grant: resolvedCfg.Grant}

	engine, err := liveconnect.NewEngine(s, clientOptions(resolvedCfg, logger, nil))

	switch {
	case errors.Is(err, store.ErrNoConfig):
	case err != nil:
		return err
	default:
		out.Configured = true
		out.Scopes = engine.Scopes()
		out.CanRefresh = engine.CanRefresh()
	}

	if flagJSON {
		return printJSON(cmd.OutOrStdout(), out)
	}

	printStatusText(cmd.OutOrStdout(), out)

	return nil
}

func printStatusText(w io.Writer, s statusOutput) {
	fmt.Fprintf(w, "Store:       %s\n", s.Store)

	if !s.Configured {
		fmt.Fprintln(w, "Client:      not configured (run 'skydrive-go init')")
		return
	}

	refresh := "no (sign-in needed each session)"
	if s.CanRefresh {
		refresh = "yes"
	}

	fmt.Fprintf(w, "Scopes:      %s\n", s.Scopes)
	fmt.Fprintf(w, "Grant:       %s\n", s.Grant)
	fmt.Fprintf(w, "Refresh:     %s\n", refresh)
}
