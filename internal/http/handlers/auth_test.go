package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lapeslabs/foodhub/internal/auth"
	"github.com/lapeslabs/foodhub/internal/config"
	"github.com/lapeslabs/foodhub/internal/domain/session"
	"github.com/lapeslabs/foodhub/internal/domain/user"
	"github.com/lapeslabs/foodhub/internal/http/handlers"
	"github.com/lapeslabs/foodhub/internal/http/middlewares"
)

// Make sure Gin does not spam the console during the test

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeSessionManager struct {
	loginFn          func(ctx context.Context, in auth.LoginInput) (auth.LoginResult, error)
	invalidateFn     func(ctx context.Context, token string) error
	sessionsFn       func(ctx context.Context, userID string) ([]session.Session, error)
	changePasswordFn func(ctx context.Context, email, current, next, confirmation string) error
}

func (f *fakeSessionManager) Login(ctx context.Context, in auth.LoginInput) (auth.LoginResult, error) {
	if f.loginFn != nil {
		return f.loginFn(ctx, in)
	}
	return auth.LoginResult{}, nil
}

func (f *fakeSessionManager) Invalidate(ctx context.Context, token string) error {
	if f.invalidateFn != nil {
		return f.invalidateFn(ctx, token)
	}
	return nil
}

func (f *fakeSessionManager) SessionsForUser(ctx context.Context, userID string) ([]session.Session, error) {
	if f.sessionsFn != nil {
		return f.sessionsFn(ctx, userID)
	}
	return nil, nil
}

func (f *fakeSessionManager) ChangePassword(ctx context.Context, email, current, next, confirmation string) error {
	if f.changePasswordFn != nil {
		return f.changePasswordFn(ctx, email, current, next, confirmation)
	}
	return nil
}

func asUser(u *user.Public) gin.HandlerFunc {
	return func(c *gin.Context) {
		middlewares.SetIdentity(c, u, session.Session{})
		c.Next()
	}
}

func testConfig() config.Config {
	return config.Config{Env: "test"}
}

func TestLogin_SetsSessionCookie(t *testing.T) {
	mgr := &fakeSessionManager{
		loginFn: func(ctx context.Context, in auth.LoginInput) (auth.LoginResult, error) {
			if in.Email != "ana@example.com" {
				t.Fatalf("login email = %q", in.Email)
			}

			return auth.LoginResult{
				User:      user.Public{ID: "u1", Email: in.Email, Role: user.RoleCustomer},
				Token:     "tok123abc",
				ExpiresAt: time.Now().UTC().Add(30 * 24 * time.Hour),
			}, nil
		},
	}

	h := handlers.NewAuthHandler(mgr, testConfig())

	r := gin.New()
	r.POST("/auth/login", h.Login)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"email":"ana@example.com","password":"hunter22"}`))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	cookie := w.Header().Get("Set-Cookie")

	if !strings.Contains(cookie, middlewares.SessionCookieName+"=tok123abc") {
		t.Fatalf("session cookie not set, got %q", cookie)
	}

	if !strings.Contains(cookie, "HttpOnly") {
		t.Fatalf("session cookie must be HttpOnly, got %q", cookie)
	}

	if strings.Contains(w.Body.String(), "tok123abc") {
		// the token travels in the cookie only
		t.Fatalf("raw token leaked into the response body")
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	mgr := &fakeSessionManager{
		loginFn: func(ctx context.Context, in auth.LoginInput) (auth.LoginResult, error) {
			return auth.LoginResult{}, auth.ErrInvalidCredentials
		},
	}

	h := handlers.NewAuthHandler(mgr, testConfig())

	r := gin.New()
	r.POST("/auth/login", h.Login)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"email":"ana@example.com","password":"wrong"}`))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("got status %d, want 401", w.Code)
	}

	if w.Header().Get("Set-Cookie") != "" {
		t.Fatalf("failed login must not set a cookie")
	}
}

func TestLogout_InvalidatesAndClears(t *testing.T) {
	var invalidated string

	mgr := &fakeSessionManager{
		invalidateFn: func(ctx context.Context, token string) error {
			invalidated = token
			return nil
		},
	}

	h := handlers.NewAuthHandler(mgr, testConfig())

	r := gin.New()
	r.POST("/auth/logout", h.Logout)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: middlewares.SessionCookieName, Value: "tok123abc"})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("got status %d, want 204", w.Code)
	}

	if invalidated != "tok123abc" {
		t.Fatalf("invalidated token = %q", invalidated)
	}

	cookie := w.Header().Get("Set-Cookie")

	if !strings.Contains(cookie, middlewares.SessionCookieName+"=") || !strings.Contains(cookie, "Max-Age=0") {
		t.Fatalf("logout should clear the cookie, got %q", cookie)
	}
}

func TestLogout_WithoutSessionStillSucceeds(t *testing.T) {
	h := handlers.NewAuthHandler(&fakeSessionManager{}, testConfig())

	r := gin.New()
	r.POST("/auth/logout", h.Logout)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("got status %d, want 204", w.Code)
	}
}

func TestMe_ReturnsContextUser(t *testing.T) {
	h := handlers.NewAuthHandler(&fakeSessionManager{}, testConfig())

	r := gin.New()
	r.GET("/auth/me", asUser(&user.Public{ID: "u1", Email: "ana@example.com", Role: user.RoleCustomer}), h.Me)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d", w.Code)
	}

	if !strings.Contains(w.Body.String(), `"ana@example.com"`) {
		t.Fatalf("me payload missing user email: %s", w.Body.String())
	}
}

func TestChangePassword_PolicyAndCredentialErrors(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"wrong current", auth.ErrInvalidCredentials, http.StatusUnauthorized},
		{"policy violation", auth.ErrPasswordPolicy, http.StatusBadRequest},
		{"success", nil, http.StatusNoContent},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mgr := &fakeSessionManager{
				changePasswordFn: func(ctx context.Context, email, current, next, confirmation string) error {
					return tc.err
				},
			}

			h := handlers.NewAuthHandler(mgr, testConfig())

			r := gin.New()
			r.POST("/auth/change-password", asUser(&user.Public{ID: "u1", Email: "ana@example.com"}), h.ChangePassword)

			body := `{"currentPassword":"hunter22","newPassword":"brandnew1","confirmation":"brandnew1"}`
			req := httptest.NewRequest(http.MethodPost, "/auth/change-password", bytes.NewBufferString(body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tc.wantStatus {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tc.wantStatus, w.Body.String())
			}
		})
	}
}

func TestSessions_ListsCallerSessions(t *testing.T) {
	caller := &user.Public{ID: "u1", Role: user.RoleCustomer}

	mgr := &fakeSessionManager{
		sessionsFn: func(ctx context.Context, userID string) ([]session.Session, error) {
			if userID != caller.ID {
				t.Fatalf("listed sessions for %q, want %q", userID, caller.ID)
			}

			return []session.Session{
				{ID: "aaaa", UserID: userID, IP: "10.0.0.1", UserAgent: "firefox"},
				{ID: "bbbb", UserID: userID, IP: "10.0.0.2", UserAgent: "curl"},
			}, nil
		},
	}

	h := handlers.NewAuthHandler(mgr, testConfig())

	r := gin.New()
	r.GET("/auth/sessions", asUser(caller), h.Sessions)

	req := httptest.NewRequest(http.MethodGet, "/auth/sessions", nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var body struct {
		Items []session.Session `json:"items"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}

	if len(body.Items) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(body.Items))
	}

	if body.Items[1].UserAgent != "curl" {
		t.Fatalf("sessions came back out of order: %+v", body.Items)
	}
}
