package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/gdslab/d2s-go/internal/config"
	"github.com/gdslab/d2s-go/internal/d2s"
	"github.com/gdslab/d2s-go/internal/sessionfile"
)

var flagEmail string

func newLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the configured D2S instance",
		Long: `Authenticate against the configured D2S instance and save the session
cookies for subsequent commands.

The password is read from the ` + config.EnvPassword + ` environment variable
when set, otherwise prompted for interactively. It is never stored.`,
		Args: cobra.NoArgs,
		RunE: runLogin,
	}

	cmd.Flags().StringVar(&flagEmail, "email", "", "account email (defaults to auth.email from config)")

	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the saved session",
		Args:  cobra.NoArgs,
		RunE:  runLogout,
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE:  runWhoami,
	}
}

func runLogin(cmd *cobra.Command, _ []string) error {
	if err := requireBaseURL(); err != nil {
		return err
	}

	email := flagEmail
	if email == "" {
		email = resolvedCfg.Email
	}

	if email == "" {
		return fmt.Errorf("no email given — use --email, auth.email in the config file, or %s", config.EnvEmail)
	}

	password, err := readPassword()
	if err != nil {
		return err
	}

	logger := buildLogger()

	auth, err := d2s.NewAuth(resolvedCfg.BaseURL, defaultHTTPClient(), logger)
	if err != nil {
		return err
	}

	session, err := auth.Login(cmd.Context(), email, password)
	if err != nil {
		return err
	}

	if err := saveSession(session, email, logger); err != nil {
		return err
	}

	user, err := auth.CurrentUser(cmd.Context(), session)
	if err == nil && user != nil {
		statusf("Logged in to %s as %s %s <%s>\n", resolvedCfg.BaseURL, user.FirstName, user.LastName, user.Email)
	} else {
		statusf("Logged in to %s as %s\n", resolvedCfg.BaseURL, email)
	}

	return nil
}

func runLogout(_ *cobra.Command, _ []string) error {
	if err := sessionfile.Remove(config.SessionPath()); err != nil {
		return fmt.Errorf("removing session: %w", err)
	}

	statusf("Logged out.\n")

	return nil
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	if err := requireBaseURL(); err != nil {
		return err
	}

	logger := buildLogger()

	state, session, err := loadSession()
	if err != nil {
		return err
	}

	auth, err := d2s.NewAuth(resolvedCfg.BaseURL, defaultHTTPClient(), logger)
	if err != nil {
		return err
	}

	user, err := auth.CurrentUser(cmd.Context(), session)
	if err != nil {
		return err
	}

	if user == nil {
		return fmt.Errorf("session for %s is no longer valid — run 'd2s login'", state.Email)
	}

	if flagJSON {
		return printJSON(os.Stdout, user)
	}

	fmt.Printf("%s %s <%s>\n", user.FirstName, user.LastName, user.Email)

	if user.APIAccessToken != "" {
		statusf("API key available (use --json to see it)\n")
	}

	return nil
}

// readPassword obtains the login password: D2S_PASSWORD when set, an
// interactive no-echo prompt on a terminal, or a single line from stdin
// otherwise (for scripted use).
func readPassword() (string, error) {
	if pw := os.Getenv(config.EnvPassword); pw != "" {
		return pw, nil
	}

	if isTerminal(os.Stdin) {
		fmt.Fprint(os.Stderr, "Password: ")

		pw, err := term.ReadPassword(int(os.Stdin.Fd()))

		fmt.Fprintln(os.Stderr)

		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}

		return string(pw), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading password from stdin: %w", err)
	}

	return strings.TrimRight(line, "\r\n"), nil
}

// saveSession snapshots the session's cookies to the session file so later
// commands can reuse them.
func saveSession(session *d2s.Session, email string, logger *slog.Logger) error {
	state := &sessionfile.State{
		Email:  email,
		APIKey: session.APIKey(),
	}

	for _, c := range session.Cookies() {
		state.Cookies = append(state.Cookies, sessionfile.Cookie{
			Name:   c.Name,
			Value:  c.Value,
			Domain: c.Domain,
			Path:   c.Path,
		})
	}

	path := config.SessionPath()
	if path == "" {
		return fmt.Errorf("cannot determine session file location")
	}

	if err := sessionfile.Save(path, state); err != nil {
		return err
	}

	logger.Debug("session saved", slog.String("path", path))

	return nil
}

// loadSession restores the saved session from disk. Returns a friendly
// error when no session exists.
func loadSession() (*sessionfile.State, *d2s.Session, error) {
	state, err := sessionfile.Load(config.SessionPath())
	if err != nil {
		return nil, nil, err
	}

	if state == nil {
		return nil, nil, fmt.Errorf("not logged in — run 'd2s login' first")
	}

	session := d2s.NewSession()

	for _, c := range state.Cookies {
		session.SetCookie(&http.Cookie{
			Name:   c.Name,
			Value:  c.Value,
			Domain: c.Domain,
			Path:   c.Path,
		})
	}

	if state.APIKey != "" {
		session.SetAPIKey(state.APIKey)
	}

	return state, session, nil
}
