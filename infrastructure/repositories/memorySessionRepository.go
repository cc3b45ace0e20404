package repositories

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sgatu/bookstore-back/models"
)

type MemorySessionRepository struct {
	sessions map[string]models.Session
	lock     sync.RWMutex
}

func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions: make(map[string]models.Session),
	}
}

func (r *MemorySessionRepository) SaveSession(ctx context.Context, session *models.Session) error {
	if session == nil || session.SessionId == "" {
		return fmt.Errorf("session: missing session id")
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	r.sessions[session.SessionId] = *session
	return nil
}

func (r *MemorySessionRepository) GetSession(ctx context.Context, sessionId string) (*models.Session, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	session, ok := r.sessions[sessionId]
	if !ok {
		return nil, nil
	}
	return &session, nil
}

func (r *MemorySessionRepository) DeleteSession(ctx context.Context, sessionId string) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	delete(r.sessions, sessionId)
	return nil
}

// Sweep drops every session expired at now and returns how many were
// removed. Expired sessions are rejected on resolve regardless; this only
// bounds memory.
func (r *MemorySessionRepository) Sweep(now time.Time) int {
	r.lock.Lock()
	defer r.lock.Unlock()
	removed := 0
	for id, session := range r.sessions {
		if session.ExpiredAt(now) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

func (r *MemorySessionRepository) Len() int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return len(r.sessions)
}
