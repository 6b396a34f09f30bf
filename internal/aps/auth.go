package aps

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// Production authentication endpoints.
const (
	DefaultAuthURL     = "https://developer.api.autodesk.com/authentication/v2/authorize"
	DefaultTokenURL    = "https://developer.api.autodesk.com/authentication/v2/token"
	DefaultUserInfoURL = "https://api.userprofile.autodesk.com/userinfo"
)

// Token scope separation: internalScopes tokens stay inside the trusted
// boundary; publicScopes tokens are the only ones handed to the viewer.
var (
	internalScopes = []string{"data:read", "viewables:read"}
	publicScopes   = []string{"viewables:read"}
)

// Tokens is the result of a login or refresh exchange. RefreshToken is the
// newest rotation (from the public-scope exchange) — older refresh tokens
// are invalidated by the authorization server.
type Tokens struct {
	InternalToken string
	PublicToken   string
	RefreshToken  string
	ExpiresAt     time.Time
}

// Profile is the authenticated user's identity.
type Profile struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// AuthConfig holds the OAuth application registration and endpoint URLs.
// Endpoints default to production when empty; tests point them at a local
// server.
type AuthConfig struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
}

// AuthClient performs the three-legged authorization-code flow and the
// scoped refresh exchanges against the authentication service.
type AuthClient struct {
	cfg         *oauth2.Config
	tokenURL    string
	userInfoURL string
	httpClient  *http.Client
	logger      *slog.Logger

	// now is the clock used for expiry computation. Tests override it.
	now func() time.Time
}

// NewAuthClient creates an authentication client from the app registration.
func NewAuthClient(ac AuthConfig, httpClient *http.Client, logger *slog.Logger) *AuthClient {
	if logger == nil {
		logger = slog.Default()
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	authURL := ac.AuthURL
	if authURL == "" {
		authURL = DefaultAuthURL
	}

	tokenURL := ac.TokenURL
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}

	userInfoURL := ac.UserInfoURL
	if userInfoURL == "" {
		userInfoURL = DefaultUserInfoURL
	}

	return &AuthClient{
		cfg: &oauth2.Config{
			ClientID:     ac.ClientID,
			ClientSecret: ac.ClientSecret,
			RedirectURL:  ac.CallbackURL,
			Scopes:       internalScopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   authURL,
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		tokenURL:    tokenURL,
		userInfoURL: userInfoURL,
		httpClient:  httpClient,
		logger:      logger,
		now:         time.Now,
	}
}

// AuthorizeURL returns the authorization-code URL the browser is sent to.
// state may be empty; the CLI login flow supplies a random value and
// validates it on callback.
func (a *AuthClient) AuthorizeURL(state string) string {
	return a.cfg.AuthCodeURL(state)
}

// Login exchanges an authorization code for a full token set: the code
// exchange yields the internal (broad-scope) credentials, then a refresh
// exchange narrowed to viewables:read yields the public token. The session
// keeps the refresh token from the second exchange — it is the live one.
func (a *AuthClient) Login(ctx context.Context, code string) (*Tokens, error) {
	a.logger.Info("exchanging authorization code")

	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)

	internal, err := a.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("aps: code exchange failed: %w", err)
	}

	expiresAt := internal.Expiry

	public, err := a.refreshGrant(ctx, internal.RefreshToken, publicScopes)
	if err != nil {
		return nil, fmt.Errorf("aps: public token exchange failed: %w", err)
	}

	a.logger.Info("login exchange complete", slog.Time("expires_at", expiresAt))

	return &Tokens{
		InternalToken: internal.AccessToken,
		PublicToken:   public.AccessToken,
		RefreshToken:  public.RefreshToken,
		ExpiresAt:     expiresAt,
	}, nil
}

// Refresh renews a token set from a refresh token: first a refresh narrowed
// to the internal scopes, then a second narrowed to the public scope.
// Expiry follows the internal credentials.
func (a *AuthClient) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	a.logger.Info("refreshing token set")

	internal, err := a.refreshGrant(ctx, refreshToken, internalScopes)
	if err != nil {
		return nil, fmt.Errorf("aps: refresh exchange failed: %w", err)
	}

	expiresAt := a.now().Add(time.Duration(internal.ExpiresIn) * time.Second)

	public, err := a.refreshGrant(ctx, internal.RefreshToken, publicScopes)
	if err != nil {
		return nil, fmt.Errorf("aps: public token exchange failed: %w", err)
	}

	a.logger.Info("refresh complete", slog.Time("expires_at", expiresAt))

	return &Tokens{
		InternalToken: internal.AccessToken,
		PublicToken:   public.AccessToken,
		RefreshToken:  public.RefreshToken,
		ExpiresAt:     expiresAt,
	}, nil
}

// tokenResponse mirrors the token endpoint's JSON body.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// refreshGrant performs a refresh-token grant with an explicit scope list.
// Hand-built rather than oauth2.TokenSource because the scope narrowing is
// the point: the library never sends a scope parameter on refresh.
func (a *AuthClient) refreshGrant(ctx context.Context, refreshToken string, scopes []string) (*tokenResponse, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"scope":         {strings.Join(scopes, " ")},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.tokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.SetBasicAuth(url.QueryEscape(a.cfg.ClientID), url.QueryEscape(a.cfg.ClientSecret))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(resp.Body)

		return nil, &APIError{
			StatusCode: resp.StatusCode,
			RequestID:  resp.Header.Get("x-request-id"),
			Message:    string(errBody),
			Err:        classifyStatus(resp.StatusCode),
		}
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("decoding token response: %w", err)
	}

	return &tr, nil
}

// UserInfo returns the profile of the token's user.
func (a *AuthClient) UserInfo(ctx context.Context, token string) (*Profile, error) {
	a.logger.Info("fetching user profile")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("aps: creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", userAgent)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("aps: userinfo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(resp.Body)

		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(errBody),
			Err:        classifyStatus(resp.StatusCode),
		}
	}

	var p Profile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("aps: decoding userinfo response: %w", err)
	}

	return &p, nil
}
