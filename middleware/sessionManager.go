package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sgatu/bookstore-back/errors"
	handlers_messages "github.com/sgatu/bookstore-back/handlers/messages"
	"github.com/sgatu/bookstore-back/models"
)

const (
	SessionCookieName = "session_id"
	sessionKey        = "session"
)

type SessionResolver interface {
	Resolve(ctx context.Context, handle string) (*models.Session, bool)
}

// SessionManager moves the session handle between the transport and the
// authenticator. It never decides validity itself.
type SessionManager struct {
	resolver     SessionResolver
	cookieSecure bool
}

func NewSessionManager(resolver SessionResolver, cookieSecure bool) *SessionManager {
	return &SessionManager{
		resolver:     resolver,
		cookieSecure: cookieSecure,
	}
}

// sessionHandles returns the candidate handles in the order they are tried:
// the session cookie, then an Authorization bearer value.
func sessionHandles(c *gin.Context) []string {
	var handles []string
	if sessionId, err := c.Cookie(SessionCookieName); err == nil && sessionId != "" {
		handles = append(handles, sessionId)
	}
	authHeader := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
		if token = strings.TrimSpace(token); token != "" {
			handles = append(handles, token)
		}
	}
	return handles
}

// SetSessionCookie hands the session handle to the client for the lifetime
// of the session.
func (sm *SessionManager) SetSessionCookie(c *gin.Context, session *models.Session) {
	maxAge := int(session.ExpiresAt.Sub(session.IssuedAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, session.SessionId, maxAge, "/", "", sm.cookieSecure, true)
}

// RequireSession aborts with 401 unless the request carries a handle that
// resolves to a live session. A stale cookie does not shadow a valid bearer
// handle.
func (sm *SessionManager) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, handle := range sessionHandles(c) {
			if session, ok := sm.resolver.Resolve(c.Request.Context(), handle); ok {
				c.Set(sessionKey, session)
				c.Next()
				return
			}
		}
		handlers_messages.PushError(c, errors.ErrUnauthenticated)
		c.Abort()
	}
}

// CurrentSession returns the session stored by RequireSession.
func CurrentSession(c *gin.Context) (*models.Session, error) {
	value, ok := c.Get(sessionKey)
	if !ok {
		return nil, errors.ErrUnauthenticated
	}
	session, ok := value.(*models.Session)
	if !ok || session == nil {
		return nil, errors.ErrUnauthenticated
	}
	return session, nil
}
