package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lapeslabs/foodhub/internal/auth"
	"github.com/lapeslabs/foodhub/internal/config"
	"github.com/lapeslabs/foodhub/internal/domain/session"
	"github.com/lapeslabs/foodhub/internal/http/middlewares"
)

// Keep this small interface so tests can fake it easily.
type SessionManager interface {
	Login(ctx context.Context, in auth.LoginInput) (auth.LoginResult, error)
	Invalidate(ctx context.Context, token string) error
	SessionsForUser(ctx context.Context, userID string) ([]session.Session, error)
	ChangePassword(ctx context.Context, email, current, next, confirmation string) error
}

type AuthHandler struct {
	sessions SessionManager
	cfg      config.Config
}

func NewAuthHandler(sessions SessionManager, cfg config.Config) *AuthHandler {
	return &AuthHandler{sessions: sessions, cfg: cfg}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=7"`
	Confirmation    string `json:"confirmation" binding:"required"`
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	res, err := h.sessions.Login(cctx, auth.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		IP:        ctx.ClientIP(),
		UserAgent: ctx.GetHeader("User-Agent"),
	})

	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			RespondError(ctx, http.StatusUnauthorized, "invalid_credentials", "Email or password is incorrect.", nil)
			return
		}

		RespondInternal(ctx, "Could not create session")
		return
	}

	middlewares.SetSessionCookie(ctx, h.cfg, res.Token, res.ExpiresAt)

	ctx.JSON(http.StatusOK, gin.H{
		"user":      res.User,
		"expiresAt": res.ExpiresAt,
	})
}

// Logout invalidates whatever token came with the request and clears the
// cookie either way. Logging out twice is fine.
func (h *AuthHandler) Logout(ctx *gin.Context) {
	token := middlewares.TokenFromRequest(ctx)

	if token != "" {
		cctx, cancel := config.WithTimeout(3 * time.Second)
		defer cancel()

		err := h.sessions.Invalidate(cctx, token)

		if err != nil {
			RespondInternal(ctx, "Could not end session")
			return
		}
	}

	middlewares.ClearSessionCookie(ctx, h.cfg)
	ctx.Status(http.StatusNoContent)
}

// Me echoes the identity resolved by the session middleware.
func (h *AuthHandler) Me(ctx *gin.Context) {
	u, ok := middlewares.UserFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": u})
}

// Sessions lists the caller's live sessions: where the account is logged in.
// Only hashed ids, addresses and agents come back, never tokens.
func (h *AuthHandler) Sessions(ctx *gin.Context) {
	u, ok := middlewares.UserFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	items, err := h.sessions.SessionsForUser(cctx, u.ID)

	if err != nil {
		RespondInternal(ctx, "Could not list sessions")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *AuthHandler) ChangePassword(ctx *gin.Context) {
	u, ok := middlewares.UserFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx)
		return
	}

	var req ChangePasswordRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	err := h.sessions.ChangePassword(cctx, u.Email, req.CurrentPassword, req.NewPassword, req.Confirmation)

	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			RespondError(ctx, http.StatusUnauthorized, "invalid_credentials", "Current password is incorrect.", nil)
		case errors.Is(err, auth.ErrPasswordPolicy):
			RespondBadRequest(ctx, "New password was rejected", gin.H{
				"reason": "must be longer than 6 characters, differ from the current one, and match the confirmation",
			})
		default:
			RespondInternal(ctx, "Could not change password")
		}

		return
	}

	ctx.Status(http.StatusNoContent)
}
