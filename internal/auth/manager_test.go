package auth

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lapeslabs/foodhub/internal/domain/session"
	"github.com/lapeslabs/foodhub/internal/domain/user"
	"github.com/lapeslabs/foodhub/internal/repo/memory"
	"github.com/lapeslabs/foodhub/internal/security"
)

type managerFixture struct {
	mgr      *Manager
	users    *memory.UsersRepo
	sessions *memory.SessionsRepo
	now      time.Time
}

func newManagerFixture(t *testing.T) *managerFixture {
	t.Helper()

	f := &managerFixture{
		users:    memory.NewUsersRepo(),
		sessions: memory.NewSessionsRepo(),
		now:      time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}

	f.mgr = NewManager(f.sessions, f.users, nil, nil).WithClock(func() time.Time { return f.now })

	return f
}

func (f *managerFixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func (f *managerFixture) seedUser(t *testing.T, email, password string, role user.Role) user.User {
	t.Helper()

	hash, err := security.HashPassword(password)

	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}

	u, err := f.users.Create(context.Background(), user.CreateUserRequest{
		FirstName: "Ana",
		LastName:  "Souza",
		Email:     email,
		Role:      role,
	}, &hash)

	if err != nil {
		t.Fatalf("seed user error: %v", err)
	}

	return u
}

func TestLoginAndValidate_Roundtrip(t *testing.T) {
	f := newManagerFixture(t)
	u := f.seedUser(t, "ana@example.com", "hunter22", user.RoleCustomer)

	res, err := f.mgr.Login(context.Background(), LoginInput{
		Email:    "Ana@Example.com",
		Password: "hunter22",
		IP:       "203.0.113.7",
	})

	if err != nil {
		t.Fatalf("Login error: %v", err)
	}

	if res.Token == "" {
		t.Fatalf("expected a token")
	}

	wantExpiry := f.now.Add(SessionLifetime)

	if !res.ExpiresAt.Equal(wantExpiry) {
		t.Fatalf("expiry = %v, want %v", res.ExpiresAt, wantExpiry)
	}

	v, err := f.mgr.Validate(context.Background(), res.Token)

	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}

	if v.User.ID != u.ID {
		t.Fatalf("validated user %s, want %s", v.User.ID, u.ID)
	}

	if v.Renewed {
		t.Fatalf("fresh session should not renew")
	}

	if v.Session.ID == res.Token {
		t.Fatalf("stored session id must not equal the raw token")
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	f := newManagerFixture(t)
	f.seedUser(t, "ana@example.com", "hunter22", user.RoleCustomer)

	cases := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "ana@example.com", "nope"},
		{"unknown email", "ghost@example.com", "hunter22"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.mgr.Login(context.Background(), LoginInput{Email: tc.email, Password: tc.password})

			if !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("got %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

func TestValidate_MissingAndUnknownToken(t *testing.T) {
	f := newManagerFixture(t)

	_, err := f.mgr.Validate(context.Background(), "")

	if !errors.Is(err, ErrMissingToken) {
		t.Fatalf("empty token: got %v, want ErrMissingToken", err)
	}

	_, err = f.mgr.Validate(context.Background(), "mfqweyja74heu2bnnsargo7ipi5lqx5z")

	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("unknown token: got %v, want ErrSessionNotFound", err)
	}
}

func TestValidate_ExpiredSessionIsDeleted(t *testing.T) {
	f := newManagerFixture(t)
	f.seedUser(t, "ana@example.com", "hunter22", user.RoleCustomer)

	res, err := f.mgr.Login(context.Background(), LoginInput{Email: "ana@example.com", Password: "hunter22"})

	if err != nil {
		t.Fatalf("Login error: %v", err)
	}

	f.advance(SessionLifetime + time.Hour)

	_, err = f.mgr.Validate(context.Background(), res.Token)

	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("got %v, want ErrSessionExpired", err)
	}

	// the expired row is gone, so the same token now reads as unknown
	_, err = f.mgr.Validate(context.Background(), res.Token)

	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("second validate: got %v, want ErrSessionNotFound", err)
	}

	if f.sessions.Len() != 0 {
		t.Fatalf("expired session left behind")
	}
}

func TestValidate_ExactExpiryIsExpired(t *testing.T) {
	f := newManagerFixture(t)
	f.seedUser(t, "ana@example.com", "hunter22", user.RoleCustomer)

	res, err := f.mgr.Login(context.Background(), LoginInput{Email: "ana@example.com", Password: "hunter22"})

	if err != nil {
		t.Fatalf("Login error: %v", err)
	}

	f.advance(SessionLifetime)

	_, err = f.mgr.Validate(context.Background(), res.Token)

	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("at the exact expiry instant: got %v, want ErrSessionExpired", err)
	}
}

func TestValidate_RenewalSlidesExpiryKeepsToken(t *testing.T) {
	f := newManagerFixture(t)
	f.seedUser(t, "ana@example.com", "hunter22", user.RoleCustomer)

	res, err := f.mgr.Login(context.Background(), LoginInput{Email: "ana@example.com", Password: "hunter22"})

	if err != nil {
		t.Fatalf("Login error: %v", err)
	}

	// 16 days in: inside the renewal window
	f.advance(16 * 24 * time.Hour)

	v, err := f.mgr.Validate(context.Background(), res.Token)

	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}

	if !v.Renewed {
		t.Fatalf("expected renewal inside the window")
	}

	wantExpiry := f.now.Add(SessionLifetime)

	if !v.Session.ExpiresAt.Equal(wantExpiry) {
		t.Fatalf("renewed expiry = %v, want %v", v.Session.ExpiresAt, wantExpiry)
	}

	// same token keeps working against the renewed session
	v2, err := f.mgr.Validate(context.Background(), res.Token)

	if err != nil {
		t.Fatalf("Validate after renewal error: %v", err)
	}

	if v2.Renewed {
		t.Fatalf("fresh renewal should not immediately renew again")
	}
}

func TestValidate_NoRenewalBeforeWindow(t *testing.T) {
	f := newManagerFixture(t)
	f.seedUser(t, "ana@example.com", "hunter22", user.RoleCustomer)

	res, err := f.mgr.Login(context.Background(), LoginInput{Email: "ana@example.com", Password: "hunter22"})

	if err != nil {
		t.Fatalf("Login error: %v", err)
	}

	f.advance(14 * 24 * time.Hour)

	v, err := f.mgr.Validate(context.Background(), res.Token)

	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}

	if v.Renewed {
		t.Fatalf("renewed outside the window")
	}
}

func TestValidate_RenewalBoundary(t *testing.T) {
	f := newManagerFixture(t)
	f.seedUser(t, "ana@example.com", "hunter22", user.RoleCustomer)

	res, err := f.mgr.Login(context.Background(), LoginInput{Email: "ana@example.com", Password: "hunter22"})

	if err != nil {
		t.Fatalf("Login error: %v", err)
	}

	// exactly 15 days before expiry is already inside the window
	f.advance(SessionLifetime - RenewalWindow)

	v, err := f.mgr.Validate(context.Background(), res.Token)

	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}

	if !v.Renewed {
		t.Fatalf("expected renewal at the window boundary")
	}
}

func TestInvalidate_Idempotent(t *testing.T) {
	f := newManagerFixture(t)
	f.seedUser(t, "ana@example.com", "hunter22", user.RoleCustomer)

	res, err := f.mgr.Login(context.Background(), LoginInput{Email: "ana@example.com", Password: "hunter22"})

	if err != nil {
		t.Fatalf("Login error: %v", err)
	}

	if err := f.mgr.Invalidate(context.Background(), res.Token); err != nil {
		t.Fatalf("Invalidate error: %v", err)
	}

	if err := f.mgr.Invalidate(context.Background(), res.Token); err != nil {
		t.Fatalf("second Invalidate should be a no-op, got: %v", err)
	}

	if err := f.mgr.Invalidate(context.Background(), ""); err != nil {
		t.Fatalf("empty-token Invalidate should be a no-op, got: %v", err)
	}

	_, err = f.mgr.Validate(context.Background(), res.Token)

	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("after invalidate: got %v, want ErrSessionNotFound", err)
	}
}

func TestInvalidateAllForUser(t *testing.T) {
	f := newManagerFixture(t)
	u := f.seedUser(t, "ana@example.com", "hunter22", user.RoleCustomer)

	var tokens []string

	for i := 0; i < 3; i++ {
		res, err := f.mgr.Login(context.Background(), LoginInput{Email: "ana@example.com", Password: "hunter22"})

		if err != nil {
			t.Fatalf("Login error: %v", err)
		}

		tokens = append(tokens, res.Token)
	}

	if err := f.mgr.InvalidateAllForUser(context.Background(), u.ID); err != nil {
		t.Fatalf("InvalidateAllForUser error: %v", err)
	}

	for _, token := range tokens {
		_, err := f.mgr.Validate(context.Background(), token)

		if !errors.Is(err, ErrSessionNotFound) {
			t.Fatalf("token survived a full invalidation: %v", err)
		}
	}
}

func TestValidate_OrphanedSession(t *testing.T) {
	f := newManagerFixture(t)
	u := f.seedUser(t, "ana@example.com", "hunter22", user.RoleCustomer)

	res, err := f.mgr.Login(context.Background(), LoginInput{Email: "ana@example.com", Password: "hunter22"})

	if err != nil {
		t.Fatalf("Login error: %v", err)
	}

	if err := f.users.Delete(context.Background(), u.ID); err != nil {
		t.Fatalf("delete user error: %v", err)
	}

	_, err = f.mgr.Validate(context.Background(), res.Token)

	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("got %v, want ErrUserNotFound", err)
	}
}

func TestLoginResult_NeverCarriesPassword(t *testing.T) {
	f := newManagerFixture(t)
	f.seedUser(t, "ana@example.com", "hunter22", user.RoleCustomer)

	res, err := f.mgr.Login(context.Background(), LoginInput{Email: "ana@example.com", Password: "hunter22"})

	if err != nil {
		t.Fatalf("Login error: %v", err)
	}

	b, err := json.Marshal(res.User)

	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}

	if strings.Contains(strings.ToLower(string(b)), "password") {
		t.Fatalf("public user payload leaks a password field: %s", b)
	}
}

func TestChangePassword(t *testing.T) {
	f := newManagerFixture(t)
	f.seedUser(t, "ana@example.com", "hunter22", user.RoleCustomer)

	cases := []struct {
		name         string
		current      string
		next         string
		confirmation string
		want         error
	}{
		{"wrong current", "nope", "brandnew1", "brandnew1", ErrInvalidCredentials},
		{"too short", "hunter22", "short1", "short1", ErrPasswordPolicy},
		{"confirmation mismatch", "hunter22", "brandnew1", "brandnew2", ErrPasswordPolicy},
		{"unchanged", "hunter22", "hunter22", "hunter22", ErrPasswordPolicy},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := f.mgr.ChangePassword(context.Background(), "ana@example.com", tc.current, tc.next, tc.confirmation)

			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}

	err := f.mgr.ChangePassword(context.Background(), "ana@example.com", "hunter22", "brandnew1", "brandnew1")

	if err != nil {
		t.Fatalf("ChangePassword error: %v", err)
	}

	_, err = f.mgr.Login(context.Background(), LoginInput{Email: "ana@example.com", Password: "brandnew1"})

	if err != nil {
		t.Fatalf("login with the new password failed: %v", err)
	}

	_, err = f.mgr.Login(context.Background(), LoginInput{Email: "ana@example.com", Password: "hunter22"})

	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password still works")
	}
}

func TestSessionsForUser_FiltersExpired(t *testing.T) {
	f := newManagerFixture(t)
	u := f.seedUser(t, "ana@example.com", "hunter22", user.RoleCustomer)

	_, err := f.mgr.Login(context.Background(), LoginInput{Email: "ana@example.com", Password: "hunter22"})

	if err != nil {
		t.Fatalf("first login error: %v", err)
	}

	f.advance(16 * 24 * time.Hour)

	second, err := f.mgr.Login(context.Background(), LoginInput{Email: "ana@example.com", Password: "hunter22"})

	if err != nil {
		t.Fatalf("second login error: %v", err)
	}

	live, err := f.mgr.SessionsForUser(context.Background(), u.ID)

	if err != nil {
		t.Fatalf("SessionsForUser error: %v", err)
	}

	if len(live) != 2 {
		t.Fatalf("expected 2 live sessions, got %d", len(live))
	}

	// push the first session past its expiry, the second one stays alive
	f.advance(15 * 24 * time.Hour)

	live, err = f.mgr.SessionsForUser(context.Background(), u.ID)

	if err != nil {
		t.Fatalf("SessionsForUser error: %v", err)
	}

	if len(live) != 1 {
		t.Fatalf("expected 1 live session, got %d", len(live))
	}

	if live[0].ExpiresAt != second.ExpiresAt {
		t.Fatalf("surviving session expires %v, want %v", live[0].ExpiresAt, second.ExpiresAt)
	}
}

// Store fakes that fail on demand, for the paths where the database goes away
// mid-request.

type flakySessionStore struct {
	*memory.SessionsRepo
	findByIDFn        func(ctx context.Context, id string) (session.Session, error)
	findAllByUserIDFn func(ctx context.Context, userID string) ([]session.Session, error)
	updateExpiryFn    func(ctx context.Context, id string, expiresAt, updatedAt time.Time) error
}

func (s *flakySessionStore) FindByID(ctx context.Context, id string) (session.Session, error) {
	if s.findByIDFn != nil {
		return s.findByIDFn(ctx, id)
	}
	return s.SessionsRepo.FindByID(ctx, id)
}

func (s *flakySessionStore) FindAllByUserID(ctx context.Context, userID string) ([]session.Session, error) {
	if s.findAllByUserIDFn != nil {
		return s.findAllByUserIDFn(ctx, userID)
	}
	return s.SessionsRepo.FindAllByUserID(ctx, userID)
}

func (s *flakySessionStore) UpdateExpiry(ctx context.Context, id string, expiresAt, updatedAt time.Time) error {
	if s.updateExpiryFn != nil {
		return s.updateExpiryFn(ctx, id, expiresAt, updatedAt)
	}
	return s.SessionsRepo.UpdateExpiry(ctx, id, expiresAt, updatedAt)
}

type flakyUserStore struct {
	*memory.UsersRepo
	getByIDFn func(ctx context.Context, id string) (user.User, error)
}

func (s *flakyUserStore) GetByID(ctx context.Context, id string) (user.User, error) {
	if s.getByIDFn != nil {
		return s.getByIDFn(ctx, id)
	}
	return s.UsersRepo.GetByID(ctx, id)
}

func TestValidate_StoreErrorsPropagate(t *testing.T) {
	boom := errors.New("connection reset by peer")

	f := newManagerFixture(t)
	f.seedUser(t, "ana@example.com", "hunter22", user.RoleCustomer)

	res, err := f.mgr.Login(context.Background(), LoginInput{Email: "ana@example.com", Password: "hunter22"})

	if err != nil {
		t.Fatalf("login error: %v", err)
	}

	assertOpaque := func(t *testing.T, err error) {
		t.Helper()

		if !errors.Is(err, boom) {
			t.Fatalf("got %v, want the store error", err)
		}

		for _, sentinel := range []error{ErrMissingToken, ErrSessionNotFound, ErrSessionExpired, ErrUserNotFound} {
			if errors.Is(err, sentinel) {
				t.Fatalf("store failure mapped into %v", sentinel)
			}
		}
	}

	t.Run("session lookup", func(t *testing.T) {
		store := &flakySessionStore{
			SessionsRepo: f.sessions,
			findByIDFn: func(ctx context.Context, id string) (session.Session, error) {
				return session.Session{}, boom
			},
		}

		mgr := NewManager(store, f.users, nil, nil).WithClock(func() time.Time { return f.now })

		_, err := mgr.Validate(context.Background(), res.Token)
		assertOpaque(t, err)
	})

	t.Run("user lookup", func(t *testing.T) {
		users := &flakyUserStore{
			UsersRepo: f.users,
			getByIDFn: func(ctx context.Context, id string) (user.User, error) {
				return user.User{}, boom
			},
		}

		mgr := NewManager(f.sessions, users, nil, nil).WithClock(func() time.Time { return f.now })

		_, err := mgr.Validate(context.Background(), res.Token)
		assertOpaque(t, err)
	})

	t.Run("renewal write", func(t *testing.T) {
		f.advance(16 * 24 * time.Hour)

		store := &flakySessionStore{
			SessionsRepo: f.sessions,
			updateExpiryFn: func(ctx context.Context, id string, expiresAt, updatedAt time.Time) error {
				return boom
			},
		}

		mgr := NewManager(store, f.users, nil, nil).WithClock(func() time.Time { return f.now })

		_, err := mgr.Validate(context.Background(), res.Token)
		assertOpaque(t, err)
	})

	t.Run("session list", func(t *testing.T) {
		store := &flakySessionStore{
			SessionsRepo: f.sessions,
			findAllByUserIDFn: func(ctx context.Context, userID string) ([]session.Session, error) {
				return nil, boom
			},
		}

		mgr := NewManager(store, f.users, nil, nil).WithClock(func() time.Time { return f.now })

		_, err := mgr.SessionsForUser(context.Background(), res.User.ID)
		assertOpaque(t, err)
	})
}
