package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/drivelens/drivelens/pkg/types"
)

// driveScopes are the Google OAuth scopes required to mirror a Drive corpus
// and resolve the connected account's email address
var driveScopes = []string{
	"https://www.googleapis.com/auth/drive",
	"https://www.googleapis.com/auth/userinfo.email",
}

// GoogleClient handles Google OAuth operations for Drive accounts
type GoogleClient struct {
	clientID     string
	clientSecret string
	redirectURL  string
	httpClient   *http.Client
}

// NewGoogleClient creates a new Google OAuth client from config
func NewGoogleClient(cfg types.GoogleOAuthConfig) *GoogleClient {
	return &GoogleClient{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		redirectURL:  cfg.RedirectURL,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// IsConfigured returns true if Google OAuth is configured
func (g *GoogleClient) IsConfigured() bool {
	return g.clientID != "" && g.clientSecret != "" && g.redirectURL != ""
}

// AuthorizeURL generates the Google OAuth authorization URL
func (g *GoogleClient) AuthorizeURL(state string) string {
	cfg := g.oauthConfig()

	// Request offline access to get refresh token, and always prompt for consent
	// to ensure we get a refresh token even if user previously authorized
	return cfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// Exchange exchanges an authorization code for tokens
func (g *GoogleClient) Exchange(ctx context.Context, code string) (*types.CredentialUpdate, error) {
	cfg := g.oauthConfig()

	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange failed: %w", err)
	}

	expiresAt := token.Expiry
	if expiresAt.IsZero() {
		// Google access tokens last an hour when no expiry is reported
		expiresAt = time.Now().Add(time.Hour)
	}

	return &types.CredentialUpdate{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    expiresAt,
	}, nil
}

// Refresh refreshes an access token using a refresh token
func (g *GoogleClient) Refresh(ctx context.Context, refreshToken string) (*types.CredentialUpdate, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("no refresh token")
	}

	// Use token endpoint directly for refresh
	data := url.Values{
		"client_id":     {g.clientID},
		"client_secret": {g.clientSecret},
		"refresh_token": {refreshToken},
		"grant_type":    {"refresh_token"},
	}

	req, err := http.NewRequestWithContext(ctx, "POST", google.Endpoint.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("refresh failed: status %d", resp.StatusCode)
	}

	// Parse response manually to handle Google's format
	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
		TokenType   string `json:"token_type"`
	}

	if err := decodeJSON(resp.Body, &result); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	return &types.CredentialUpdate{
		AccessToken:  result.AccessToken,
		RefreshToken: refreshToken, // Keep the same refresh token
		ExpiresAt:    time.Now().Add(time.Duration(result.ExpiresIn) * time.Second),
	}, nil
}

// UserEmail resolves the email address for an access token via the
// Google userinfo endpoint
func (g *GoogleClient) UserEmail(ctx context.Context, accessToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", "https://www.googleapis.com/oauth2/v2/userinfo", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("userinfo failed: status %d", resp.StatusCode)
	}

	var result struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(resp.Body, &result); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if result.Email == "" {
		return "", fmt.Errorf("userinfo response missing email")
	}
	return result.Email, nil
}

// NeedsRefresh returns true if a credential is expired or about to expire
func NeedsRefresh(cred *types.Credential) bool {
	if cred == nil || cred.RefreshToken == "" {
		return false
	}
	if cred.ExpiresAt.IsZero() {
		return false
	}
	// Refresh if expires within 5 minutes
	return time.Until(cred.ExpiresAt) < 5*time.Minute
}

func (g *GoogleClient) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     g.clientID,
		ClientSecret: g.clientSecret,
		RedirectURL:  g.redirectURL,
		Scopes:       driveScopes,
		Endpoint:     google.Endpoint,
	}
}

// decodeJSON decodes JSON from a reader
func decodeJSON(r io.Reader, v interface{}) error {
	return json.NewDecoder(r).Decode(v)
}
