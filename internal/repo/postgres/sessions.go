package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lapeslabs/foodhub/internal/domain/session"
	"github.com/lapeslabs/foodhub/internal/observability"
)

// SessionsRepo persists sessions keyed by derived id (hash of the token).
// The raw token never reaches this layer.
type SessionsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewSessionsRepo(pool *pgxpool.Pool, prom *observability.Prom) *SessionsRepo {
	return &SessionsRepo{pool: pool, prom: prom}
}

func (r *SessionsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *SessionsRepo) Create(ctx context.Context, s session.Session) error {
	return r.observe("sessions.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO sessions (id, user_id, ip, user_agent, expires_at, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			s.ID, s.UserID, s.IP, s.UserAgent, s.ExpiresAt, s.CreatedAt, s.UpdatedAt,
		)
		return err
	})
}

func (r *SessionsRepo) FindByID(ctx context.Context, id string) (session.Session, error) {
	var s session.Session
	var err error

	err = r.observe("sessions.find_by_id", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT id, user_id, ip, user_agent, expires_at, created_at, updated_at
			FROM sessions
			WHERE id = $1`,
			id,
		).Scan(&s.ID, &s.UserID, &s.IP, &s.UserAgent, &s.ExpiresAt, &s.CreatedAt, &s.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return session.Session{}, session.ErrNotFound
		}

		return session.Session{}, err
	}

	return s, nil
}

func (r *SessionsRepo) FindAllByUserID(ctx context.Context, userID string) ([]session.Session, error) {
	var out []session.Session

	err := r.observe("sessions.find_all_by_user", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT id, user_id, ip, user_agent, expires_at, created_at, updated_at
			FROM sessions
			WHERE user_id = $1
			ORDER BY created_at ASC`,
			userID,
		)

		if err != nil {
			return err
		}

		defer rows.Close()

		for rows.Next() {
			var s session.Session

			err = rows.Scan(&s.ID, &s.UserID, &s.IP, &s.UserAgent, &s.ExpiresAt, &s.CreatedAt, &s.UpdatedAt)

			if err != nil {
				return err
			}

			out = append(out, s)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}

func (r *SessionsRepo) UpdateExpiry(ctx context.Context, id string, expiresAt, updatedAt time.Time) error {
	return r.observe("sessions.update_expiry", func() error {
		tag, err := r.pool.Exec(ctx,
			`UPDATE sessions SET expires_at = $2, updated_at = $3 WHERE id = $1`,
			id, expiresAt, updatedAt,
		)

		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return session.ErrNotFound
		}

		return nil
	})
}

func (r *SessionsRepo) DeleteByID(ctx context.Context, id string) error {
	return r.observe("sessions.delete_by_id", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)

		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return session.ErrNotFound
		}

		return nil
	})
}

func (r *SessionsRepo) DeleteByUserID(ctx context.Context, userID string) error {
	return r.observe("sessions.delete_by_user", func() error {
		_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
		return err
	})
}
