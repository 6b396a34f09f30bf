// Package config implements TOML configuration loading, validation, and
// platform path resolution for hubview. Overrides layer as
// defaults -> config file -> environment -> CLI flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Config is the top-level configuration parsed from a TOML file.
type Config struct {
	// Listen is the serve command's bind address.
	Listen string `toml:"listen"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level"`
	// SessionFile is where the CLI persists its session.
	SessionFile string `toml:"session_file"`
	// SecureCookies marks session cookies Secure. Enable behind TLS.
	SecureCookies bool `toml:"secure_cookies"`

	Auth     AuthConfig     `toml:"auth"`
	Upstream UpstreamConfig `toml:"upstream"`
}

// AuthConfig holds the OAuth application registration.
type AuthConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	CallbackURL  string `toml:"callback_url"`
}

// UpstreamConfig overrides the external service endpoints. Empty fields
// fall through to production defaults; tests point them at local servers.
type UpstreamConfig struct {
	BaseURL     string `toml:"base_url"`
	AuthURL     string `toml:"auth_url"`
	TokenURL    string `toml:"token_url"`
	UserInfoURL string `toml:"user_info_url"`
}

// DefaultConfig returns a Config populated with defaults.
func DefaultConfig() *Config {
	return &Config{
		Listen:      "localhost:8080",
		LogLevel:    "info",
		SessionFile: DefaultSessionPath(),
	}
}

// DefaultConfigPath returns the platform config file location.
func DefaultConfigPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "hubview.toml")
	}

	return filepath.Join(base, "hubview", "config.toml")
}

// DefaultSessionPath returns the platform session file location.
func DefaultSessionPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "hubview-session.json")
	}

	return filepath.Join(base, "hubview", "session.json")
}

// Validate checks fields that every command relies on. Credential presence
// is checked separately by ValidateCredentials because read-only commands
// (logout, whoami with a saved session file) work without them.
func Validate(cfg *Config) error {
	switch cfg.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: invalid log_level %q", cfg.LogLevel)
	}

	if cfg.Listen == "" {
		return fmt.Errorf("config: listen must not be empty")
	}

	return nil
}

// ValidateCredentials checks the OAuth registration needed by serve, login,
// and browse.
func ValidateCredentials(cfg *Config) error {
	if cfg.Auth.ClientID == "" {
		return fmt.Errorf("config: auth.client_id is required (or set %s)", EnvClientID)
	}

	if cfg.Auth.ClientSecret == "" {
		return fmt.Errorf("config: auth.client_secret is required (or set %s)", EnvClientSecret)
	}

	if cfg.Auth.CallbackURL == "" {
		return fmt.Errorf("config: auth.callback_url is required (or set %s)", EnvCallbackURL)
	}

	return nil
}
