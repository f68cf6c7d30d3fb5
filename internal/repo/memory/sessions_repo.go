package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lapeslabs/foodhub/internal/domain/session"
)

type SessionsRepo struct {
	mu    sync.RWMutex
	items map[string]session.Session
}

func NewSessionsRepo() *SessionsRepo {
	return &SessionsRepo{
		items: make(map[string]session.Session),
	}
}

func (r *SessionsRepo) Create(ctx context.Context, s session.Session) error {
	r.mu.Lock()
	r.items[s.ID] = s
	r.mu.Unlock()

	return nil
}

func (r *SessionsRepo) FindByID(ctx context.Context, id string) (session.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.items[id]

	if !ok {
		return session.Session{}, session.ErrNotFound
	}

	return s, nil
}

func (r *SessionsRepo) FindAllByUserID(ctx context.Context, userID string) ([]session.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []session.Session

	for _, s := range r.items {
		if s.UserID == userID {
			out = append(out, s)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return out, nil
}

func (r *SessionsRepo) UpdateExpiry(ctx context.Context, id string, expiresAt, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.items[id]

	if !ok {
		return session.ErrNotFound
	}

	s.ExpiresAt = expiresAt
	s.UpdatedAt = updatedAt
	r.items[id] = s

	return nil
}

func (r *SessionsRepo) DeleteByID(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return session.ErrNotFound
	}

	delete(r.items, id)

	return nil
}

func (r *SessionsRepo) DeleteByUserID(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, s := range r.items {
		if s.UserID == userID {
			delete(r.items, id)
		}
	}

	return nil
}

// Len reports the number of live sessions. Test helper.
func (r *SessionsRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.items)
}
