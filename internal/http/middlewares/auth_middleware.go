package middlewares

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lapeslabs/foodhub/internal/auth"
	"github.com/lapeslabs/foodhub/internal/config"
)

// SessionCookieName carries the raw session token. HttpOnly, the token never
// appears anywhere else client side.
const SessionCookieName = "session_lapes_food"

// Keep this small interface so tests can fake it easily.
type SessionValidator interface {
	Validate(ctx context.Context, token string) (auth.ValidateResult, error)
}

type AuthMiddleware struct {
	sessions SessionValidator
	cfg      config.Config
}

func NewAuthMiddleware(sessions SessionValidator, cfg config.Config) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions, cfg: cfg}
}

// RequireSession resolves the session cookie (or a Bearer header, for
// non-browser clients) into a user and stashes both on the context. Every
// failure mode gets the same unauthorized body; dead-session outcomes also
// clear the cookie so the client stops replaying a token that cannot work.
func (m *AuthMiddleware) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := TokenFromRequest(c)

		res, err := m.sessions.Validate(c.Request.Context(), token)

		if err != nil {
			switch {
			case errors.Is(err, auth.ErrMissingToken):
				// nothing to clear
			case errors.Is(err, auth.ErrSessionNotFound),
				errors.Is(err, auth.ErrSessionExpired),
				errors.Is(err, auth.ErrUserNotFound):
				ClearSessionCookie(c, m.cfg)
			default:
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": gin.H{
						"code":    "internal_error",
						"message": "Could not validate session",
					},
				})
				return
			}

			abortUnauthorized(c)
			return
		}

		if res.Renewed {
			// same token, later expiry
			SetSessionCookie(c, m.cfg, token, res.Session.ExpiresAt)
		}

		SetIdentity(c, &res.User, res.Session)

		c.Next()
	}
}

// TokenFromRequest pulls the raw session token out of the cookie, falling
// back to a Bearer header for non-browser clients.
func TokenFromRequest(c *gin.Context) string {
	token, err := c.Cookie(SessionCookieName)

	if err == nil && token != "" {
		return token
	}

	h := c.GetHeader("Authorization")

	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer"))
	}

	return ""
}

// abortUnauthorized writes the single unauthorized body. One body for every
// validation failure, so a caller cannot probe which check tripped.
func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":    "unauthorized",
			"message": "Authentication required",
		},
	})
}

func SetSessionCookie(c *gin.Context, cfg config.Config, token string, expiresAt time.Time) {
	secure := cfg.Env == "prod"

	maxAge := int(time.Until(expiresAt).Seconds())

	if maxAge < 0 {
		maxAge = 0
	}

	c.SetSameSite(http.SameSiteLaxMode)

	c.SetCookie(
		SessionCookieName,
		token,
		maxAge,
		"/",
		cfg.CookieDomain,
		secure,
		true, // HttpOnly.
	)
}

func ClearSessionCookie(c *gin.Context, cfg config.Config) {
	secure := cfg.Env == "prod"
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		SessionCookieName,
		"",
		-1,
		"/",
		cfg.CookieDomain,
		secure,
		true,
	)
}
