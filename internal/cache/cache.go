// Package cache memoizes expensive operations in two tiers: a shared Redis
// store for suspending operations and a per-process map for immediate ones.
// Caching is best effort — a store failure is a miss, never a user-visible
// error.
package cache

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bhupeshcoding/codecoach/config"
)

// Manager owns both cache tiers. A nil redis client means the external tier
// is degraded; every external lookup then behaves as a miss.
type Manager struct {
	rdb    *redis.Client
	logger *log.Logger

	mu    sync.Mutex
	local map[string]localEntry
	now   func() time.Time
}

type localEntry struct {
	data       []byte
	insertedAt time.Time
	ttl        time.Duration
}

// Connect builds a Manager and pings Redis. Like the rest of the cache, the
// connection is best effort: on failure the manager comes up with the
// external tier degraded instead of refusing to start.
func Connect(ctx context.Context, cfg config.CacheConfig) *Manager {
	logger := log.New(log.Writer(), "[CACHE] ", log.LstdFlags)
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.RedisAddr(),
		Password:    cfg.RedisPassword,
		DB:          cfg.RedisDB,
		DialTimeout: cfg.DialTimeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Printf("redis unavailable at %s, external tier degraded: %v", cfg.RedisAddr(), err)
		_ = client.Close()
		client = nil
	} else {
		logger.Printf("connected to redis at %s", cfg.RedisAddr())
	}
	return newManager(client, logger)
}

// NewManager wraps an existing Redis client. Used by tests (miniredis) and by
// anyone who wants to manage the connection themselves.
func NewManager(rdb *redis.Client) *Manager {
	return newManager(rdb, log.New(log.Writer(), "[CACHE] ", log.LstdFlags))
}

func newManager(rdb *redis.Client, logger *log.Logger) *Manager {
	return &Manager{
		rdb:    rdb,
		logger: logger,
		local:  make(map[string]localEntry),
		now:    time.Now,
	}
}

// Connected reports whether the external tier is reachable.
func (m *Manager) Connected() bool { return m.rdb != nil }

// Close releases the Redis connection if one exists.
func (m *Manager) Close() error {
	if m.rdb == nil {
		return nil
	}
	return m.rdb.Close()
}

// Fingerprint derives a deterministic, collision-resistant cache key from an
// operation identity and its arguments. Arguments are canonicalized through
// JSON before hashing so equal values always produce equal keys.
func Fingerprint(prefix, op string, args ...any) string {
	payload, err := json.Marshal(args)
	if err != nil {
		// Unencodable arguments still need a stable key.
		payload = []byte(fmt.Sprintf("%+v", args))
	}
	sum := sha256.Sum256(payload)
	return fmt.Sprintf("%s:%s:%s", prefix, op, hex.EncodeToString(sum[:]))
}

// encode serializes plain structured data as JSON and falls back to gob for
// anything JSON cannot represent. The dual format is load-bearing: existing
// stores may hold either encoding.
func encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err == nil {
		return data, nil
	}
	var buf bytes.Buffer
	if gerr := gob.NewEncoder(&buf).Encode(v); gerr != nil {
		return nil, fmt.Errorf("encode: json: %v, gob: %w", err, gerr)
	}
	return buf.Bytes(), nil
}

// decode attempts JSON first, then gob.
func decode(data []byte, dest any) error {
	if err := json.Unmarshal(data, dest); err == nil {
		return nil
	}
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(dest); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

func (m *Manager) externalGet(ctx context.Context, key string) ([]byte, bool) {
	if m.rdb == nil {
		return nil, false
	}
	data, err := m.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			m.logger.Printf("get %s failed: %v", key, err)
		}
		return nil, false
	}
	return data, true
}

func (m *Manager) externalSet(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if m.rdb == nil {
		return
	}
	if err := m.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		m.logger.Printf("set %s failed: %v", key, err)
	}
}

func (m *Manager) localGet(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.local[key]
	if !ok {
		return nil, false
	}
	if m.now().Sub(entry.insertedAt) >= entry.ttl {
		delete(m.local, key)
		return nil, false
	}
	return entry.data, true
}

func (m *Manager) localSet(key string, data []byte, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.local[key] = localEntry{data: data, insertedAt: m.now(), ttl: ttl}
}

// Remember memoizes fn under key in the external tier for ttl. A hit returns
// the cached value without re-running fn; a miss, an expired entry, or any
// store failure runs fn and stores the result best effort.
func Remember[T any](ctx context.Context, m *Manager, key string, ttl time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if data, ok := m.externalGet(ctx, key); ok {
		var cached T
		if err := decode(data, &cached); err == nil {
			m.logger.Printf("hit for %s", key)
			return cached, nil
		}
		m.logger.Printf("stale entry for %s, recomputing", key)
	}

	result, err := fn(ctx)
	if err != nil {
		return result, err
	}
	if data, encErr := encode(result); encErr == nil {
		m.externalSet(ctx, key, data, ttl)
	} else {
		m.logger.Printf("skip caching %s: %v", key, encErr)
	}
	return result, nil
}

// RememberLocal is Remember for immediate operations, backed by the
// per-process tier. Entries are lost on restart and expire only by time.
func RememberLocal[T any](ctx context.Context, m *Manager, key string, ttl time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if data, ok := m.localGet(key); ok {
		var cached T
		if err := decode(data, &cached); err == nil {
			m.logger.Printf("hit for %s", key)
			return cached, nil
		}
	}

	result, err := fn(ctx)
	if err != nil {
		return result, err
	}
	if data, encErr := encode(result); encErr == nil {
		m.localSet(key, data, ttl)
	}
	return result, nil
}
