package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/lapeslabs/foodhub/internal/domain/session"
	"github.com/lapeslabs/foodhub/internal/domain/user"
)

const (
	CtxRequestID = "request_id"

	ctxUserKey    = "auth.user"
	ctxSessionKey = "auth.session"
)

// SetIdentity stashes an authenticated identity on the context. Called by
// RequireSession; tests that bypass the middleware use it directly.
func SetIdentity(c *gin.Context, u *user.Public, s session.Session) {
	c.Set(ctxUserKey, u)
	c.Set(ctxSessionKey, s)
}

// Helpers so handlers don't need to know the magic keys.

func UserFromContext(c *gin.Context) (*user.Public, bool) {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*user.Public)
	return u, ok
}

func SessionFromContext(c *gin.Context) (session.Session, bool) {
	v, ok := c.Get(ctxSessionKey)
	if !ok {
		return session.Session{}, false
	}
	s, ok := v.(session.Session)
	return s, ok
}

func UserIDFromContext(c *gin.Context) (string, bool) {
	u, ok := UserFromContext(c)
	if !ok || u == nil {
		return "", false
	}
	return u.ID, u.ID != ""
}
