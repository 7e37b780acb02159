// Package prefs stores small per-user view preferences such as the last
// selected board tab.
package prefs

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Store reads and writes string preferences scoped to a user.
type Store interface {
	Get(ctx context.Context, userID uuid.UUID, key string) (string, bool, error)
	Set(ctx context.Context, userID uuid.UUID, key, value string) error
}

// RedisStore keeps every user's preferences in one hash.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, userID uuid.UUID, key string) (string, bool, error) {
	value, err := s.client.HGet(ctx, hashKey(userID), key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *RedisStore) Set(ctx context.Context, userID uuid.UUID, key, value string) error {
	return s.client.HSet(ctx, hashKey(userID), key, value).Err()
}

func hashKey(userID uuid.UUID) string {
	return "prefs:" + userID.String()
}

// MemoryStore is used when no Redis server is configured. Values do not
// survive a restart.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[uuid.UUID]map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[uuid.UUID]map[string]string)}
}

func (s *MemoryStore) Get(_ context.Context, userID uuid.UUID, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[userID][key]
	return value, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, userID uuid.UUID, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values[userID] == nil {
		s.values[userID] = make(map[string]string)
	}
	s.values[userID][key] = value
	return nil
}
