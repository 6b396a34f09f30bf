package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/hubview/hubview/internal/aps"
	"github.com/hubview/hubview/internal/config"
	"github.com/hubview/hubview/internal/session"
)

// version is set at build time via ldflags.
var version = "dev"

// Global persistent flags, bound in newRootCmd().
var (
	flagConfigPath string
	flagJSON       bool
	flagVerbose    bool
	flagQuiet      bool
)

// resolvedCfg holds the effective configuration loaded by PersistentPreRunE.
var resolvedCfg *config.Config

// httpClientTimeout bounds every upstream request so a hung connection
// cannot block a handler or the CLI indefinitely.
const httpClientTimeout = 30 * time.Second

func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: httpClientTimeout}
}

// newRootCmd builds and returns the fully-assembled root command with all
// subcommands registered. Called once from main().
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "hubview",
		Short:   "Browse and view cloud design models",
		Long:    "hubview explores Autodesk Platform Services hubs, projects, folders and item versions, serves the web viewer, and browses the hierarchy in the terminal.",
		Version: version,
		// Silence Cobra's default error/usage printing — we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return loadConfig()
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path")
	cmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output in JSON format")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress informational output")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newLogoutCmd())
	cmd.AddCommand(newWhoamiCmd())
	cmd.AddCommand(newBrowseCmd())

	return cmd
}

// loadConfig resolves the effective configuration from the override chain
// and stores the result in resolvedCfg for use by subcommands.
func loadConfig() error {
	cli := config.CLIOverrides{ConfigPath: flagConfigPath}

	resolved, err := config.Resolve(config.ReadEnvOverrides(), cli)
	if err != nil {
		return err
	}

	resolvedCfg = resolved

	return nil
}

// buildLogger creates an slog.Logger configured by the resolved config and
// CLI flags. Config-file log level provides the baseline; --verbose and
// --quiet override it because CLI flags always win. Text output on a
// terminal, JSON otherwise.
func buildLogger() *slog.Logger {
	level := slog.LevelInfo

	if resolvedCfg != nil {
		switch resolvedCfg.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}

	if flagVerbose {
		level = slog.LevelDebug
	}

	if flagQuiet {
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if isatty.IsTerminal(os.Stderr.Fd()) {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

// buildAuthClient constructs the auth client from the resolved config.
func buildAuthClient(logger *slog.Logger) *aps.AuthClient {
	return aps.NewAuthClient(aps.AuthConfig{
		ClientID:     resolvedCfg.Auth.ClientID,
		ClientSecret: resolvedCfg.Auth.ClientSecret,
		CallbackURL:  resolvedCfg.Auth.CallbackURL,
		AuthURL:      resolvedCfg.Upstream.AuthURL,
		TokenURL:     resolvedCfg.Upstream.TokenURL,
		UserInfoURL:  resolvedCfg.Upstream.UserInfoURL,
	}, defaultHTTPClient(), logger)
}

// newSessionStore wires the session store's refresh exchange to the auth
// client.
func newSessionStore(auth *aps.AuthClient, logger *slog.Logger) *session.Store {
	return session.NewStore(func(ctx context.Context, refreshToken string) (*session.Session, error) {
		tokens, err := auth.Refresh(ctx, refreshToken)
		if err != nil {
			return nil, err
		}

		return sessionFromTokens(tokens), nil
	}, logger)
}

// sessionFromTokens converts an exchange result into a session value.
func sessionFromTokens(t *aps.Tokens) *session.Session {
	return &session.Session{
		InternalToken: t.InternalToken,
		PublicToken:   t.PublicToken,
		RefreshToken:  t.RefreshToken,
		ExpiresAt:     t.ExpiresAt,
	}
}

// buildDataClient constructs the Data Management client.
func buildDataClient(logger *slog.Logger) *aps.Client {
	baseURL := resolvedCfg.Upstream.BaseURL
	if baseURL == "" {
		baseURL = aps.DefaultBaseURL
	}

	return aps.NewClient(baseURL, defaultHTTPClient(), logger)
}
