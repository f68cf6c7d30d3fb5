package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lapeslabs/foodhub/internal/auth"
	"github.com/lapeslabs/foodhub/internal/config"
	"github.com/lapeslabs/foodhub/internal/domain/user"
	"github.com/lapeslabs/foodhub/internal/http/middlewares"
	"github.com/lapeslabs/foodhub/internal/security"
)

type UsersStore interface {
	Create(ctx context.Context, req user.CreateUserRequest, passwordHash *string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	List(ctx context.Context, f user.ListUsersFilter) ([]user.User, int, error)
	Update(ctx context.Context, id string, req user.UpdateUserRequest) (user.User, error)
	Delete(ctx context.Context, id string) error
}

type SessionRevoker interface {
	InvalidateAllForUser(ctx context.Context, userID string) error
}

type UsersHandler struct {
	users    UsersStore
	sessions SessionRevoker
}

func NewUsersHandler(users UsersStore, sessions SessionRevoker) *UsersHandler {
	return &UsersHandler{users: users, sessions: sessions}
}

func (h *UsersHandler) CreateUser(ctx *gin.Context) {
	var req user.CreateUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	var hash *string

	if req.Password != nil {
		hashed, err := security.HashPassword(*req.Password)

		if err != nil {
			RespondInternal(ctx, "Could not create user")
			return
		}

		hash = &hashed
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	u, err := h.users.Create(cctx, req, hash)

	if err != nil {
		if errors.Is(err, user.ErrEmailAlreadyUsed) {
			RespondConflict(ctx, "email_taken", "Email is already in use.")
			return
		}

		RespondInternal(ctx, "Could not create user")
		return
	}

	ctx.JSON(http.StatusCreated, u.Redacted())
}

func (h *UsersHandler) ListUsers(ctx *gin.Context) {
	f := user.ListUsersFilter{
		Limit:  parseLimit(ctx),
		Offset: parseOffset(ctx),
	}

	if q := ctx.Query("q"); q != "" {
		f.Query = &q
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	users, total, err := h.users.List(cctx, f)

	if err != nil {
		RespondInternal(ctx, "Could not list users")
		return
	}

	items := make([]user.Public, 0, len(users))

	for _, u := range users {
		items = append(items, u.Redacted())
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items": items,
		"total": total,
	})
}

// GetUser serves admins and the account owner.
func (h *UsersHandler) GetUser(ctx *gin.Context) {
	caller, ok := middlewares.UserFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx)
		return
	}

	id := ctx.Param("id")

	err := auth.AuthorizeOwner(caller, id, user.RoleAdmin)

	if err != nil {
		RespondForbidden(ctx, "")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	u, err := h.users.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		RespondInternal(ctx, "Could not fetch user")
		return
	}

	ctx.JSON(http.StatusOK, u.Redacted())
}

func (h *UsersHandler) UpdateUser(ctx *gin.Context) {
	caller, ok := middlewares.UserFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx)
		return
	}

	id := ctx.Param("id")

	err := auth.AuthorizeOwner(caller, id, user.RoleAdmin)

	if err != nil {
		RespondForbidden(ctx, "")
		return
	}

	var req user.UpdateUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	u, err := h.users.Update(cctx, id, req)

	if err != nil {
		switch {
		case errors.Is(err, user.ErrNotFound):
			RespondNotFound(ctx, "User not found")
		case errors.Is(err, user.ErrEmailAlreadyUsed):
			RespondConflict(ctx, "email_taken", "Email is already in use.")
		default:
			RespondInternal(ctx, "Could not update user")
		}

		return
	}

	ctx.JSON(http.StatusOK, u.Redacted())
}

// DeleteUser removes the account and every session it owns.
func (h *UsersHandler) DeleteUser(ctx *gin.Context) {
	id := ctx.Param("id")

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	err := h.users.Delete(cctx, id)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		RespondInternal(ctx, "Could not delete user")
		return
	}

	if h.sessions != nil {
		err = h.sessions.InvalidateAllForUser(cctx, id)

		if err != nil {
			RespondInternal(ctx, "Could not delete user sessions")
			return
		}
	}

	ctx.Status(http.StatusNoContent)
}

func parseLimit(ctx *gin.Context) int {
	n, err := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	if err != nil || n <= 0 {
		return 20
	}

	if n > 100 {
		return 100
	}

	return n
}

func parseOffset(ctx *gin.Context) int {
	n, err := strconv.Atoi(ctx.DefaultQuery("offset", "0"))

	if err != nil || n < 0 {
		return 0
	}

	return n
}
