package stores

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrSessionNotFound         = errors.New("session not found")
	ErrSessionRedisUnavailable = errors.New("session redis unavailable")
)

// SessionStore keeps one key per session holding the owning user ID, plus a
// per-user index set used to revoke every session of a user at once.
type SessionStore struct {
	redis  redis.UniversalClient
	prefix string
}

func NewSessionStore(redisClient redis.UniversalClient, prefix string) *SessionStore {
	if prefix == "" {
		prefix = "afs"
	}
	return &SessionStore{redis: redisClient, prefix: prefix}
}

func (s *SessionStore) sessionKey(sessionID string) string {
	return s.prefix + ":s:" + sessionID
}

func (s *SessionStore) userKey(userID string) string {
	return s.prefix + ":u:" + userID
}

// Create registers sessionID for userID. The user index lives as long as the
// newest session.
func (s *SessionStore) Create(ctx context.Context, sessionID, userID string, ttl time.Duration) error {
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.sessionKey(sessionID), userID, ttl)
		pipe.SAdd(ctx, s.userKey(userID), sessionID)
		pipe.Expire(ctx, s.userKey(userID), ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSessionRedisUnavailable, err)
	}
	return nil
}

// UserID returns the owner of a live session.
func (s *SessionStore) UserID(ctx context.Context, sessionID string) (string, error) {
	userID, err := s.redis.Get(ctx, s.sessionKey(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrSessionNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrSessionRedisUnavailable, err)
	}
	return userID, nil
}

// Delete revokes one session. Deleting a missing session is not an error.
func (s *SessionStore) Delete(ctx context.Context, sessionID, userID string) error {
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.sessionKey(sessionID))
		if userID != "" {
			pipe.SRem(ctx, s.userKey(userID), sessionID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSessionRedisUnavailable, err)
	}
	return nil
}

// DeleteAllForUser revokes every session of userID and reports how many
// session keys existed.
func (s *SessionStore) DeleteAllForUser(ctx context.Context, userID string) (int64, error) {
	ids, err := s.redis.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("%w: %v", ErrSessionRedisUnavailable, err)
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, s.sessionKey(id))
	}

	var deleted *redis.IntCmd
	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(keys) > 0 {
			deleted = pipe.Del(ctx, keys...)
		}
		pipe.Del(ctx, s.userKey(userID))
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrSessionRedisUnavailable, err)
	}
	if deleted == nil {
		return 0, nil
	}
	return deleted.Val(), nil
}
