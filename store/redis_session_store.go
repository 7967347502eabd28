package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ulugbekdev/tolov-bot/types"
)

// RedisSessionStore keeps the administrator's in-progress dialogue state.
// The TTL doubles as an idle-session expiry: a flow abandoned mid-way
// disappears on its own instead of blocking the next one forever.
type RedisSessionStore struct {
	client *RedisClient
	ttl    time.Duration
}

func NewRedisSessionStore(redisClient *RedisClient, ttlHours int) *RedisSessionStore {
	ttl := time.Duration(ttlHours) * time.Hour
	if ttlHours <= 0 {
		ttl = 24 * time.Hour
	}

	return &RedisSessionStore{
		client: redisClient,
		ttl:    ttl,
	}
}

func (s *RedisSessionStore) GetSession(adminID int64) (*types.Session, error) {
	key := s.client.generateKey("session", fmt.Sprintf("%d", adminID))
	var session types.Session
	if err := s.client.Get(key, &session); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (s *RedisSessionStore) SaveSession(session *types.Session) error {
	now := time.Now()
	if session.ID == "" {
		session.ID = uuid.New().String()
		session.CreatedAt = now
	}
	session.UpdatedAt = now
	if session.Data == nil {
		session.Data = map[string]string{}
	}

	key := s.client.generateKey("session", fmt.Sprintf("%d", session.AdminID))
	return s.client.Set(key, session, s.ttl)
}

func (s *RedisSessionStore) ClearSession(adminID int64) error {
	key := s.client.generateKey("session", fmt.Sprintf("%d", adminID))
	return s.client.Del(key)
}
