package config

import "os"

// Environment variable names for overrides. The APS_* names match what the
// platform's own tooling and samples use, so existing app registrations
// carry over without a config file.
const (
	EnvConfig       = "HUBVIEW_CONFIG"
	EnvListen       = "HUBVIEW_LISTEN"
	EnvClientID     = "APS_CLIENT_ID"
	EnvClientSecret = "APS_CLIENT_SECRET"
	EnvCallbackURL  = "APS_CALLBACK_URL"
)

// EnvOverrides holds values derived from environment variables.
type EnvOverrides struct {
	ConfigPath   string
	Listen       string
	ClientID     string
	ClientSecret string
	CallbackURL  string
}

// ReadEnvOverrides reads environment variables and returns any overrides
// found. This does not modify a Config; Resolve applies the fields.
func ReadEnvOverrides() EnvOverrides {
	return EnvOverrides{
		ConfigPath:   os.Getenv(EnvConfig),
		Listen:       os.Getenv(EnvListen),
		ClientID:     os.Getenv(EnvClientID),
		ClientSecret: os.Getenv(EnvClientSecret),
		CallbackURL:  os.Getenv(EnvCallbackURL),
	}
}
