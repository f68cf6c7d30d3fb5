package session

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("session not found")

// Session is the server-side record behind a client-held token. Its ID is the
// one-way hash of the issuing token; the raw token itself is never stored.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	IP        string    `json:"ip"`
	UserAgent string    `json:"userAgent"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (s Session) ExpiredAt(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
