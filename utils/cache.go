package utils

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Entry is one cached rendered page.
type Entry struct {
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// CacheStore is the backing storage for the page cache. Entries live for
// their TTL and expire on their own; there is no explicit invalidation.
type CacheStore interface {
	Get(key string) (Entry, bool)
	Set(key string, entry Entry, ttl time.Duration)
}

// MemoryStore is an in-process CacheStore. It backs tests and deployments
// that run without Redis.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	entry     Entry
	expiresAt time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string]memoryEntry{}}
}

// Get returns a fresh entry; expired entries are dropped lazily.
func (s *MemoryStore) Get(key string) (Entry, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return Entry{}, false
	}
	if time.Now().After(e.expiresAt) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return Entry{}, false
	}
	return e.entry, true
}

// Set stores an entry until its TTL passes.
func (s *MemoryStore) Set(key string, entry Entry, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	s.mu.Lock()
	s.entries[key] = memoryEntry{entry: entry, expiresAt: time.Now().Add(ttl)}
	s.mu.Unlock()
}

// RedisStore keeps cached pages in Redis so every instance serves the same
// rendered content during the TTL window.
type RedisStore struct{}

// NewRedisStore creates a RedisStore bound to the shared client.
func NewRedisStore() *RedisStore { return &RedisStore{} }

// Get loads and decodes an entry from Redis.
func (s *RedisStore) Get(key string) (Entry, bool) {
	rc := GetRedis()
	if rc == nil {
		return Entry{}, false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	b, err := rc.Get(ctx, key).Bytes()
	if err != nil {
		if Sugar != nil {
			Sugar.Debugf("page cache miss key=%s err=%v", key, err)
		}
		return Entry{}, false
	}
	var entry Entry
	if err := json.Unmarshal(b, &entry); err != nil {
		return Entry{}, false
	}
	return entry, true
}

// Set encodes and stores an entry with the given TTL.
func (s *RedisStore) Set(key string, entry Entry, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	rc := GetRedis()
	if rc == nil {
		return
	}
	b, err := json.Marshal(entry)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rc.Set(ctx, key, b, ttl).Err(); err != nil {
		if Sugar != nil {
			Sugar.Warnf("page cache set failed key=%s err=%v", key, err)
		}
	}
}

// NewCacheStore picks Redis when it is configured and falls back to memory.
func NewCacheStore() CacheStore {
	if GetRedis() != nil {
		return NewRedisStore()
	}
	return NewMemoryStore()
}
