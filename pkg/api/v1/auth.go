package apiv1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/drivelens/drivelens/pkg/auth"
	"github.com/drivelens/drivelens/pkg/oauth"
	"github.com/drivelens/drivelens/pkg/repository"
)

// AuthGroup handles the Google OAuth connect flow and session lifecycle
type AuthGroup struct {
	google       *oauth.GoogleClient
	states       *oauth.StateStore
	issuer       *auth.TokenIssuer
	credentials  repository.CredentialRepository
	clientOrigin string
	routerGroup  *echo.Group
}

// NewAuthGroup creates and registers auth routes
func NewAuthGroup(g *echo.Group, google *oauth.GoogleClient, states *oauth.StateStore, issuer *auth.TokenIssuer, credentials repository.CredentialRepository, clientOrigin string) *AuthGroup {
	group := &AuthGroup{
		google:       google,
		states:       states,
		issuer:       issuer,
		credentials:  credentials,
		clientOrigin: clientOrigin,
		routerGroup:  g,
	}

	g.GET("/google", group.Authorize)
	g.GET("/google/callback", group.Callback)
	g.GET("/status", group.Status)
	g.DELETE("/disconnect", auth.WithAuth(group.Disconnect))

	return group
}

// Authorize redirects the browser to the Google consent screen
func (a *AuthGroup) Authorize(c echo.Context) error {
	if !a.google.IsConfigured() {
		return HTTPServiceUnavailable(c, "Google OAuth not configured")
	}

	state := a.states.Create()
	return c.Redirect(http.StatusFound, a.google.AuthorizeURL(state))
}

// Callback exchanges the authorization code, stores the credential and
// issues a session cookie before redirecting back to the client
func (a *AuthGroup) Callback(c echo.Context) error {
	ctx := c.Request().Context()

	code := c.QueryParam("code")
	if code == "" {
		return HTTPBadRequest(c, "Missing authorization code")
	}

	if !a.states.Consume(c.QueryParam("state")) {
		return HTTPBadRequest(c, "Invalid or expired authorization state")
	}

	update, err := a.google.Exchange(ctx, code)
	if err != nil {
		log.Error().Err(err).Msg("oauth exchange failed")
		return c.Redirect(http.StatusFound, a.clientOrigin+"?error=oauth_failed")
	}
	if update.AccessToken == "" {
		return HTTPBadRequest(c, "Missing access token from Google response")
	}

	email, err := a.google.UserEmail(ctx, update.AccessToken)
	if err != nil {
		log.Error().Err(err).Msg("oauth userinfo lookup failed")
		return c.Redirect(http.StatusFound, a.clientOrigin+"?error=oauth_failed")
	}

	if _, err := a.credentials.UpsertCredential(ctx, email, *update); err != nil {
		log.Error().Err(err).Str("account_id", email).Msg("failed to store credential")
		return c.Redirect(http.StatusFound, a.clientOrigin+"?error=oauth_failed")
	}

	token, err := a.issuer.Issue(email)
	if err != nil {
		log.Error().Err(err).Msg("failed to issue session token")
		return c.Redirect(http.StatusFound, a.clientOrigin+"?error=oauth_failed")
	}
	auth.SetSessionCookie(c, token, a.issuer.TTL())

	log.Info().Str("account_id", email).Msg("google account connected")
	return c.Redirect(http.StatusFound, a.clientOrigin)
}

// Status reports whether the session's account has a stored credential
func (a *AuthGroup) Status(c echo.Context) error {
	ctx := c.Request().Context()

	accountID := auth.AccountIDFromContext(ctx)
	if accountID == "" {
		return c.JSON(http.StatusOK, map[string]any{"connected": false})
	}

	cred, err := a.credentials.GetCredential(ctx, accountID)
	if err != nil {
		log.Error().Err(err).Msg("auth status lookup failed")
		return c.JSON(http.StatusOK, map[string]any{"connected": false})
	}
	if cred == nil {
		return c.JSON(http.StatusOK, map[string]any{"connected": false})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"connected":            true,
		"email":                cred.AccountID,
		"hasRefreshToken":      cred.RefreshToken != "",
		"accessTokenExpiresAt": cred.ExpiresAt,
	})
}

// Disconnect removes the stored credential and clears the session
func (a *AuthGroup) Disconnect(c echo.Context) error {
	ctx := c.Request().Context()

	accountID, err := auth.RequireAccount(ctx)
	if err != nil {
		return HTTPUnauthorized(c, err.Error())
	}

	if err := a.credentials.DeleteCredential(ctx, accountID); err != nil {
		log.Error().Err(err).Str("account_id", accountID).Msg("failed to delete credential")
		return HTTPInternalServerError(c, "Failed to disconnect")
	}

	auth.ClearSessionCookie(c)
	return c.JSON(http.StatusOK, map[string]bool{"disconnected": true})
}
