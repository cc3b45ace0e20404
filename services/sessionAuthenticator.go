package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/kjk/betterguid"
	"github.com/sgatu/bookstore-back/metrics"
	"github.com/sgatu/bookstore-back/models"
)

const DefaultSessionTTL = time.Hour

// sweeper is implemented by session tables that need explicit eviction.
type sweeper interface {
	Sweep(now time.Time) int
}

type AuthenticatorOption func(*SessionAuthenticator)

// WithClock replaces time.Now for issuing and resolving sessions.
func WithClock(now func() time.Time) AuthenticatorOption {
	return func(a *SessionAuthenticator) {
		a.now = now
	}
}

func WithLogger(logger *slog.Logger) AuthenticatorOption {
	return func(a *SessionAuthenticator) {
		a.logger = logger
	}
}

// SessionAuthenticator issues signed, time-limited sessions and resolves a
// transport handle back to the username it was issued for.
type SessionAuthenticator struct {
	sessions models.SessionRepository
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

func NewSessionAuthenticator(sessions models.SessionRepository, secret []byte, ttl time.Duration, opts ...AuthenticatorOption) (*SessionAuthenticator, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("session secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	a := &SessionAuthenticator{
		sessions: sessions,
		secret:   secret,
		ttl:      ttl,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

func (a *SessionAuthenticator) TTL() time.Duration {
	return a.ttl
}

// Issue creates and stores a session for an identity that has already been
// authenticated. The issue time is truncated to whole seconds so the token's
// exp claim and ExpiresAt are the same instant.
func (a *SessionAuthenticator) Issue(ctx context.Context, identity *models.Identity) (*models.Session, error) {
	issuedAt := a.now().Truncate(time.Second)
	expiresAt := issuedAt.Add(a.ttl)
	sessionId := betterguid.New()

	claims := jwt.RegisteredClaims{
		Subject:   identity.Username,
		ID:        sessionId,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}
	session := &models.Session{
		SessionId: sessionId,
		UserId:    identity.Id,
		Username:  identity.Username,
		Token:     token,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}
	if err := a.sessions.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	a.logger.Debug("session issued", "username", identity.Username, "expires_at", expiresAt)
	return session, nil
}

// Resolve returns the session bound to handle if it exists, its token
// verifies, and now is strictly before its expiry. Any failure, including a
// storage error, resolves to unauthenticated.
func (a *SessionAuthenticator) Resolve(ctx context.Context, handle string) (*models.Session, bool) {
	if handle == "" {
		return nil, false
	}
	session, err := a.sessions.GetSession(ctx, handle)
	if err != nil {
		a.logger.Warn("session lookup failed", "error", err)
		return nil, false
	}
	if session == nil {
		return nil, false
	}
	if session.ExpiredAt(a.now()) {
		if err := a.sessions.DeleteSession(ctx, handle); err != nil {
			a.logger.Warn("expired session cleanup failed", "error", err)
		}
		return nil, false
	}
	claims := &jwt.RegisteredClaims{}
	_, err = jwt.ParseWithClaims(session.Token, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		a.logger.Debug("session token rejected", "error", err)
		return nil, false
	}
	if claims.Subject != session.Username || claims.ID != session.SessionId {
		a.logger.Warn("session token does not match its session entry")
		return nil, false
	}
	return session, true
}

// StartSweeper periodically evicts expired sessions from tables that need it
// until ctx is done. Tables with native expiry are left alone.
func (a *SessionAuthenticator) StartSweeper(ctx context.Context, interval time.Duration) {
	sw, ok := a.sessions.(sweeper)
	if !ok || interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := sw.Sweep(a.now()); removed > 0 {
					metrics.SessionsSwept.Add(float64(removed))
					a.logger.Debug("expired sessions swept", "removed", removed)
				}
			}
		}
	}()
}
