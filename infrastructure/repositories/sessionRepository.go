package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sgatu/bookstore-back/models"
)

// RedisSessionRepository stores sessions as JSON under a prefixed key whose
// TTL is the session's lifetime, so Redis drops expired entries itself.
type RedisSessionRepository struct {
	redisConn *redis.Client
	prefix    string
}

func NewRedisSessionRepository(redisClient *redis.Client) *RedisSessionRepository {
	return &RedisSessionRepository{
		redisConn: redisClient,
	}
}

func (rsr *RedisSessionRepository) SetPrefix(prefix string) {
	rsr.prefix = prefix
}

func (rsr *RedisSessionRepository) getSessionKey(sessionId string) string {
	return rsr.prefix + "session." + sessionId
}

func (rsr *RedisSessionRepository) SaveSession(ctx context.Context, session *models.Session) error {
	if session == nil || session.SessionId == "" {
		return fmt.Errorf("session: missing session id")
	}
	ttl := sessionTTL(session)
	if ttl <= 0 {
		return rsr.DeleteSession(ctx, session.SessionId)
	}
	sessSerialized, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}
	if err := rsr.redisConn.Set(ctx, rsr.getSessionKey(session.SessionId), sessSerialized, ttl).Err(); err != nil {
		return fmt.Errorf("session: save: %w", err)
	}
	return nil
}

// sessionTTL is measured on the issuer's clock, which may differ from the
// local wall clock.
func sessionTTL(session *models.Session) time.Duration {
	return session.ExpiresAt.Sub(session.IssuedAt)
}

// GetSession retrieves a session by its handle.
//
// Returns (nil, nil) when the key does not exist or has expired.
func (rsr *RedisSessionRepository) GetSession(ctx context.Context, sessionId string) (*models.Session, error) {
	cmdResult := rsr.redisConn.Get(ctx, rsr.getSessionKey(sessionId))
	if cmdResult.Err() == redis.Nil {
		return nil, nil
	}
	if cmdResult.Err() != nil {
		return nil, fmt.Errorf("session: get: %w", cmdResult.Err())
	}
	var session models.Session
	if err := json.Unmarshal([]byte(cmdResult.Val()), &session); err != nil {
		return nil, fmt.Errorf("session: unmarshal: %w", err)
	}
	return &session, nil
}

func (rsr *RedisSessionRepository) DeleteSession(ctx context.Context, sessionId string) error {
	return rsr.redisConn.Del(ctx, rsr.getSessionKey(sessionId)).Err()
}
