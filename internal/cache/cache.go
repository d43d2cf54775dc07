// Package cache memoizes engine timelines keyed by a hash of the scenario.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/iwvelando/financing-forecast/pkg/engine"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// keyPrefix namespaces cache entries in shared stores.
const keyPrefix = "financing-forecast:timeline:"

// ErrMiss is returned by Store.Get when no live entry exists for a key.
var ErrMiss = errors.New("cache miss")

// Store is a byte-oriented key/value cache with expiry.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrMiss
	}
	if !entry.expiresAt.IsZero() && !m.now().Before(entry.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, ErrMiss
	}
	out := make([]byte, len(entry.value))
	copy(out, entry.value)
	return out, nil
}

// Set implements Store.
func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	entry := memoryEntry{value: make([]byte, len(value))}
	copy(entry.value, value)
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.entries[key] = entry
	m.mu.Unlock()
	return nil
}

// RedisStore is a Store backed by Redis.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

// NewRedisStoreFromAddress connects a single-node client to addr and checks
// that it answers.
func NewRedisStoreFromAddress(ctx context.Context, addr string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return &RedisStore{client: client}, nil
}

// Get implements Store.
func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

// Set implements Store.
func (r *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

// Close closes the underlying client.
func (r *RedisStore) Close() error {
	return r.client.Close()
}

// Key returns the cache key of cfg: an xxhash of the canonical JSON of the
// normalized configuration, so equivalent inputs share an entry.
func Key(cfg engine.ScenarioConfig) (string, error) {
	payload, err := json.Marshal(cfg.Normalize())
	if err != nil {
		return "", fmt.Errorf("failed to encode scenario: %w", err)
	}
	return keyPrefix + strconv.FormatUint(xxhash.Sum64(payload), 16), nil
}

// Memoizer caches engine timelines in a Store. It satisfies the forecast
// calculator interface.
type Memoizer struct {
	logger    *zap.Logger
	store     Store
	simulator *engine.Simulator
	ttl       time.Duration
}

// NewMemoizer creates a memoizer. A nil store uses a MemoryStore.
// If logger is nil, it will use a no-op logger to prevent panics.
func NewMemoizer(logger *zap.Logger, store Store, ttl time.Duration) *Memoizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		store = NewMemoryStore()
	}
	return &Memoizer{
		logger:    logger,
		store:     store,
		simulator: engine.NewSimulator(logger),
		ttl:       ttl,
	}
}

// Calculate returns the cached timeline for cfg or computes and stores it.
// Cache failures are logged and never surface to the caller.
func (m *Memoizer) Calculate(ctx context.Context, cfg engine.ScenarioConfig) []engine.MonthlyResult {
	rows, _ := m.Lookup(ctx, cfg)
	return rows
}

// Lookup is Calculate that also reports whether the timeline came from the
// cache.
func (m *Memoizer) Lookup(ctx context.Context, cfg engine.ScenarioConfig) ([]engine.MonthlyResult, bool) {
	key, err := Key(cfg)
	if err != nil {
		m.logger.Warn("failed to derive cache key",
			zap.String("op", "cache.Calculate"),
			zap.Error(err),
		)
		return m.simulator.Calculate(cfg), false
	}

	cached, err := m.store.Get(ctx, key)
	switch {
	case err == nil:
		var rows []engine.MonthlyResult
		if err := json.Unmarshal(cached, &rows); err == nil {
			m.logger.Debug("cache hit",
				zap.String("op", "cache.Calculate"),
				zap.String("key", key),
			)
			if rows == nil {
				rows = []engine.MonthlyResult{}
			}
			return rows, true
		}
		m.logger.Warn("discarding undecodable cache entry",
			zap.String("op", "cache.Calculate"),
			zap.String("key", key),
		)
	case !errors.Is(err, ErrMiss):
		m.logger.Warn("cache read failed",
			zap.String("op", "cache.Calculate"),
			zap.String("key", key),
			zap.Error(err),
		)
	}

	rows := m.simulator.Calculate(cfg)

	payload, err := json.Marshal(rows)
	if err == nil {
		err = m.store.Set(ctx, key, payload, m.ttl)
	}
	if err != nil {
		m.logger.Warn("cache write failed",
			zap.String("op", "cache.Calculate"),
			zap.String("key", key),
			zap.Error(err),
		)
	}
	return rows, false
}
