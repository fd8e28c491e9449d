// Package draft keeps in-progress assessment sessions between API calls.
package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/sos2a/assessment/internal/assessment"
)

// ErrNotFound is returned for unknown or expired drafts.
var ErrNotFound = errors.New("draft not found")

// Store persists sessions by ID.
type Store interface {
	Get(ctx context.Context, id string) (*assessment.Session, error)
	Put(ctx context.Context, s *assessment.Session) error
	Delete(ctx context.Context, id string) error
}

// MemoryStore keeps sessions in process memory. Sessions are copied in and
// out so callers cannot mutate stored state without Put.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]byte)}
}

func (m *MemoryStore) Get(_ context.Context, id string) (*assessment.Session, error) {
	m.mu.RLock()
	data, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return decode(data)
}

func (m *MemoryStore) Put(_ context.Context, s *assessment.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode draft %s: %w", s.ID, err)
	}
	m.mu.Lock()
	m.sessions[s.ID] = data
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

// KeyPrefix namespaces draft keys in Redis.
const KeyPrefix = "sos2a:draft:"

// RedisStore keeps sessions in Redis as JSON. Every Put refreshes the TTL,
// so a draft expires ttl after its last change.
type RedisStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisStore(client redis.Cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (r *RedisStore) Get(ctx context.Context, id string) (*assessment.Session, error) {
	data, err := r.client.Get(ctx, KeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read draft %s: %w", id, err)
	}
	return decode(data)
}

func (r *RedisStore) Put(ctx context.Context, s *assessment.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode draft %s: %w", s.ID, err)
	}
	if err := r.client.Set(ctx, KeyPrefix+s.ID, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write draft %s: %w", s.ID, err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	n, err := r.client.Del(ctx, KeyPrefix+id).Result()
	if err != nil {
		return fmt.Errorf("failed to delete draft %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func decode(data []byte) (*assessment.Session, error) {
	var s assessment.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode draft: %w", err)
	}
	return &s, nil
}
