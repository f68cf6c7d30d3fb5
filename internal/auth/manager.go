package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/lapeslabs/foodhub/internal/domain/session"
	"github.com/lapeslabs/foodhub/internal/domain/user"
	"github.com/lapeslabs/foodhub/internal/observability"
	"github.com/lapeslabs/foodhub/internal/security"
)

const (
	// SessionLifetime is the absolute lifetime set at login and on renewal.
	SessionLifetime = 30 * 24 * time.Hour

	// RenewalWindow is how long before expiry a validated session gets its
	// lifetime extended. Half the lifetime, so a continuously active client
	// never sees expiry.
	RenewalWindow = 15 * 24 * time.Hour
)

// Keep these interfaces small so tests can fake them easily.

type SessionStore interface {
	Create(ctx context.Context, s session.Session) error
	FindByID(ctx context.Context, id string) (session.Session, error)
	FindAllByUserID(ctx context.Context, userID string) ([]session.Session, error)
	UpdateExpiry(ctx context.Context, id string, expiresAt, updatedAt time.Time) error
	DeleteByID(ctx context.Context, id string) error
	DeleteByUserID(ctx context.Context, userID string) error
}

type UserStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	UpdatePassword(ctx context.Context, id string, passwordHash string) error
}

// Manager orchestrates the session lifecycle: login creates, validate renews,
// invalidate deletes. All stores are injected; there is no process-wide state.
type Manager struct {
	sessions SessionStore
	users    UserStore
	prom     *observability.Prom
	log      *slog.Logger

	// now is swappable in tests
	now func() time.Time
}

func NewManager(sessions SessionStore, users UserStore, prom *observability.Prom, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}

	return &Manager{
		sessions: sessions,
		users:    users,
		prom:     prom,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the manager's clock. Intended for tests.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

type LoginInput struct {
	Email     string
	Password  string
	IP        string
	UserAgent string
}

type LoginResult struct {
	User      user.Public
	Token     string
	ExpiresAt time.Time
}

// Login verifies credentials and creates a session. The returned raw token is
// the only artifact the caller may hand to the client; it is never persisted
// or logged here, only its derived hash is stored.
func (m *Manager) Login(ctx context.Context, in LoginInput) (LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))

	u, err := m.users.GetByEmail(ctx, email)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			// burn a verification anyway so the miss costs the same
			security.VerifyPassword(nil, in.Password)
			return LoginResult{}, ErrInvalidCredentials
		}

		return LoginResult{}, err
	}

	if !security.VerifyPassword(u.PasswordHash, strings.TrimSpace(in.Password)) {
		return LoginResult{}, ErrInvalidCredentials
	}

	token, err := GenerateToken()

	if err != nil {
		return LoginResult{}, err
	}

	now := m.now()

	s := session.Session{
		ID:        DeriveSessionID(token),
		UserID:    u.ID,
		IP:        in.IP,
		UserAgent: in.UserAgent,
		ExpiresAt: now.Add(SessionLifetime),
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = m.sessions.Create(ctx, s)

	if err != nil {
		return LoginResult{}, err
	}

	if m.prom != nil {
		m.prom.IncSession("issued")
	}

	return LoginResult{
		User:      u.Redacted(),
		Token:     token,
		ExpiresAt: s.ExpiresAt,
	}, nil
}

type ValidateResult struct {
	User    user.Public
	Session session.Session

	// Renewed is set when the expiry was slid forward; the boundary must
	// re-issue the client credential with Session.ExpiresAt, keeping the
	// same token.
	Renewed bool
}

// Validate resolves a token to its session and owning user. A single clock
// read drives both the expiry and the renewal decision, and the renewal write
// completes before the user lookup.
func (m *Manager) Validate(ctx context.Context, token string) (ValidateResult, error) {
	if token == "" {
		return ValidateResult{}, ErrMissingToken
	}

	id := DeriveSessionID(token)
	now := m.now()

	s, err := m.sessions.FindByID(ctx, id)

	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return ValidateResult{}, ErrSessionNotFound
		}

		return ValidateResult{}, err
	}

	if s.ExpiredAt(now) {
		// a dead session is removed on detection; failing to remove it does
		// not change the outcome
		err = m.sessions.DeleteByID(ctx, id)

		if err != nil && !errors.Is(err, session.ErrNotFound) {
			m.log.Warn("expired session cleanup failed", "err", err)
		}

		if m.prom != nil {
			m.prom.IncSession("expired")
		}

		return ValidateResult{}, ErrSessionExpired
	}

	renewed := false

	if !now.Before(s.ExpiresAt.Add(-RenewalWindow)) {
		s.ExpiresAt = now.Add(SessionLifetime)
		s.UpdatedAt = now

		err = m.sessions.UpdateExpiry(ctx, id, s.ExpiresAt, s.UpdatedAt)

		if err != nil {
			return ValidateResult{}, err
		}

		renewed = true

		if m.prom != nil {
			m.prom.IncSession("renewed")
		}
	}

	u, err := m.users.GetByID(ctx, s.UserID)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ValidateResult{}, ErrUserNotFound
		}

		return ValidateResult{}, err
	}

	return ValidateResult{
		User:    u.Redacted(),
		Session: s,
		Renewed: renewed,
	}, nil
}

// Invalidate deletes the session matching a token. Invalidating a missing or
// already-dead session is a no-op success.
func (m *Manager) Invalidate(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	err := m.sessions.DeleteByID(ctx, DeriveSessionID(token))

	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil
		}

		return err
	}

	if m.prom != nil {
		m.prom.IncSession("invalidated")
	}

	return nil
}

// InvalidateAllForUser deletes every session owned by a user ("log out
// everywhere", also called when an account is removed).
func (m *Manager) InvalidateAllForUser(ctx context.Context, userID string) error {
	return m.sessions.DeleteByUserID(ctx, userID)
}

// SessionsForUser lists a user's live sessions, oldest first. Expired rows
// are filtered out here, not deleted; the next Validate against them does
// the cleanup.
func (m *Manager) SessionsForUser(ctx context.Context, userID string) ([]session.Session, error) {
	all, err := m.sessions.FindAllByUserID(ctx, userID)

	if err != nil {
		return nil, err
	}

	now := m.now()

	out := make([]session.Session, 0, len(all))

	for _, s := range all {
		if !s.ExpiredAt(now) {
			out = append(out, s)
		}
	}

	return out, nil
}

// ChangePassword verifies the current password and replaces the stored hash.
func (m *Manager) ChangePassword(ctx context.Context, email, current, next, confirmation string) error {
	u, err := m.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			security.VerifyPassword(nil, current)
			return ErrInvalidCredentials
		}

		return err
	}

	if !security.VerifyPassword(u.PasswordHash, strings.TrimSpace(current)) {
		return ErrInvalidCredentials
	}

	next = strings.TrimSpace(next)

	if next != strings.TrimSpace(confirmation) || len(next) <= 6 || next == strings.TrimSpace(current) {
		return ErrPasswordPolicy
	}

	hash, err := security.HashPassword(next)

	if err != nil {
		return err
	}

	return m.users.UpdatePassword(ctx, u.ID, hash)
}
