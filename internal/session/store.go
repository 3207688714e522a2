// internal/session/store.go
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shopping-assistant/internal/common/database"
	apperrors "shopping-assistant/internal/common/errors"
	"shopping-assistant/internal/models"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultTTL             = time.Hour
	DefaultCleanupInterval = 10 * time.Minute
	defaultKeyPrefix       = "shopping:session:"
)

// Store persists conversation state between utterances. Load returns a
// SESSION_NOT_FOUND error for unknown or expired sessions.
type Store interface {
	Load(ctx context.Context, sessionID string) (*models.ConversationState, error)
	Save(ctx context.Context, state *models.ConversationState) error
	Delete(ctx context.Context, sessionID string) error
}

// MemoryStore keeps sessions in process. States are held by pointer, so callers
// must serialize access per session.
type MemoryStore struct {
	cache *cache.Cache
}

func NewMemoryStore(ttl, cleanupInterval time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}
	return &MemoryStore{cache: cache.New(ttl, cleanupInterval)}
}

func (s *MemoryStore) Load(_ context.Context, sessionID string) (*models.ConversationState, error) {
	if x, found := s.cache.Get(sessionID); found {
		return x.(*models.ConversationState), nil
	}
	return nil, apperrors.NewSessionNotFoundError(sessionID)
}

func (s *MemoryStore) Save(_ context.Context, state *models.ConversationState) error {
	s.cache.Set(state.SessionID, state, cache.DefaultExpiration)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.cache.Delete(sessionID)
	return nil
}

// RedisStore keeps each session as one JSON document. Every save refreshes the TTL.
type RedisStore struct {
	client *database.RedisClient
	prefix string
	ttl    time.Duration
}

func NewRedisStore(client *database.RedisClient, keyPrefix string, ttl time.Duration) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, prefix: keyPrefix, ttl: ttl}
}

func (s *RedisStore) key(sessionID string) string {
	return s.prefix + sessionID
}

func (s *RedisStore) Load(ctx context.Context, sessionID string) (*models.ConversationState, error) {
	var state models.ConversationState
	if err := s.client.GetJSON(ctx, s.key(sessionID), &state); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NewSessionNotFoundError(sessionID)
		}
		return nil, apperrors.NewSessionStoreFailedError("load", err)
	}
	state.EnsureMaps()
	return &state, nil
}

func (s *RedisStore) Save(ctx context.Context, state *models.ConversationState) error {
	if err := s.client.SetJSON(ctx, s.key(state.SessionID), state, s.ttl); err != nil {
		return apperrors.NewSessionStoreFailedError("save", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)); err != nil {
		return apperrors.NewSessionStoreFailedError("delete", fmt.Errorf("%s: %w", sessionID, err))
	}
	return nil
}
