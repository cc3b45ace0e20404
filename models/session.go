package models

import (
	"context"
	"time"
)

// Session binds an opaque handle to a username for a fixed window. Token is
// the signed credential issued at login; only its signature and expiry are
// meaningful.
type Session struct {
	SessionId string    `json:"sessionId"`
	UserId    int64     `json:"userId"`
	Username  string    `json:"username"`
	Token     string    `json:"token"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ExpiredAt reports whether the session is no longer valid at now. The
// expiry instant itself counts as expired.
func (s *Session) ExpiredAt(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// SessionRepository is the server-side session table. GetSession returns
// (nil, nil) for unknown handles.
type SessionRepository interface {
	GetSession(ctx context.Context, sessionId string) (*Session, error)
	SaveSession(ctx context.Context, session *Session) error
	DeleteSession(ctx context.Context, sessionId string) error
}
