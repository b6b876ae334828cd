package verification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"membergate/pkg/platform/sentinel"
)

// RedisUsedStore burns code ids with SET NX so the single-use guarantee
// holds across instances. Keys expire with the code's own TTL.
type RedisUsedStore struct {
	client *redis.Client
}

func NewRedisUsedStore(client *redis.Client) *RedisUsedStore {
	return &RedisUsedStore{client: client}
}

func usedKey(codeID string) string {
	return "verification:used:" + codeID
}

func (s *RedisUsedStore) MarkUsed(ctx context.Context, codeID string, ttl time.Duration) error {
	ok, err := s.client.SetNX(ctx, usedKey(codeID), "1", ttl).Result()
	if err != nil {
		return fmt.Errorf("mark verification code used: %w", err)
	}
	if !ok {
		return fmt.Errorf("verification code consumed: %w", sentinel.ErrAlreadyUsed)
	}
	return nil
}

// MemoryUsedStore is the single-process fallback used in tests and dev mode.
// Entries are pruned lazily on each call.
type MemoryUsedStore struct {
	mu   sync.Mutex
	used map[string]time.Time
}

func NewMemoryUsedStore() *MemoryUsedStore {
	return &MemoryUsedStore{used: make(map[string]time.Time)}
}

func (s *MemoryUsedStore) MarkUsed(_ context.Context, codeID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, expires := range s.used {
		if expires.Before(now) {
			delete(s.used, key)
		}
	}

	if _, taken := s.used[codeID]; taken {
		return fmt.Errorf("verification code consumed: %w", sentinel.ErrAlreadyUsed)
	}
	s.used[codeID] = now.Add(ttl)
	return nil
}
