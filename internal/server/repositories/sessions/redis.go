package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/alumnikeeper/internal/common"
	"github.com/dmitrijs2005/alumnikeeper/internal/server/models"
	"github.com/go-redis/redis/v8"
)

// RedisRepository keeps each session under session:{id} with a TTL matching
// its expiry, and tracks the ids of a user in a set for DeleteByUser.
type RedisRepository struct {
	rdb *redis.Client
	now func() time.Time
}

type redisSession struct {
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewRedisRepository(rdb *redis.Client) *RedisRepository {
	return &RedisRepository{rdb: rdb, now: time.Now}
}

func sessionKey(id string) string { return "session:" + id }

func userKey(userID string) string { return "user:" + userID + ":sessions" }

func (r *RedisRepository) Create(ctx context.Context, s *models.Session) error {
	now := r.now()
	ttl := s.ExpiresAt.Sub(now)
	if ttl <= 0 {
		return common.NewValidationError("session", "already expired")
	}
	s.CreatedAt = now

	b, err := json.Marshal(redisSession{UserID: s.UserID, ExpiresAt: s.ExpiresAt, CreatedAt: s.CreatedAt})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sessionKey(s.ID), b, ttl)
		pipe.SAdd(ctx, userKey(s.UserID), s.ID)
		// the index lives as long as the newest session
		pipe.Expire(ctx, userKey(s.UserID), ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (r *RedisRepository) Find(ctx context.Context, id string) (*models.Session, error) {
	s, err := r.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Expired(r.now()) {
		return nil, common.ErrorNotFound
	}
	return s, nil
}

// Delete removes the session and its entry in the owner's index.
func (r *RedisRepository) Delete(ctx context.Context, id string) error {
	s, err := r.load(ctx, id)
	if errors.Is(err, common.ErrorNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, sessionKey(id))
		pipe.SRem(ctx, userKey(s.UserID), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (r *RedisRepository) load(ctx context.Context, id string) (*models.Session, error) {
	raw, err := r.rdb.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("redis error: %w", err)
	}

	var stored redisSession
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &models.Session{ID: id, UserID: stored.UserID, ExpiresAt: stored.ExpiresAt, CreatedAt: stored.CreatedAt}, nil
}

func (r *RedisRepository) DeleteByUser(ctx context.Context, userID string) error {
	ids, err := r.rdb.SMembers(ctx, userKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, sessionKey(id))
	}
	keys = append(keys, userKey(userID))

	if err := r.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}
