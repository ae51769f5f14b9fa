package auth

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// CookieName is the session cookie carrying the signed token
const CookieName = "token"

// HTTPMiddleware validates the session cookie and adds the account to the
// request context. Requests without a cookie proceed unauthenticated; routes
// must explicitly require auth.
func HTTPMiddleware(issuer *TokenIssuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(CookieName)
			if err != nil || cookie.Value == "" {
				return next(c)
			}

			accountID, err := issuer.Verify(cookie.Value)
			if err != nil {
				log.Debug().Err(err).Msg("auth: invalid session token")
				return next(c)
			}

			ctx := WithAccountID(c.Request().Context(), accountID)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// WithAuth rejects requests that carry no valid session
func WithAuth(h echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !IsAuthenticated(c.Request().Context()) {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Authentication required"})
		}
		return h(c)
	}
}

// SetSessionCookie attaches a signed session cookie to the response
func SetSessionCookie(c echo.Context, token string, ttl time.Duration) {
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie
func ClearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
