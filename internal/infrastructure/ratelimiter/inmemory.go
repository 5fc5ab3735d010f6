package ratelimiter

import (
	"errors"
	"sync"
	"time"
)

var ErrCacheMiss = errors.New("cache miss")

// BucketState is the persisted per-source bucket.
type BucketState struct {
	Tokens   float64
	LastFill int64 // Unix milliseconds
}

// Store abstracts the bucket cache so a distributed backend can replace
// the in-memory one without touching the limiter.
type Store interface {
	Get(key string) (BucketState, error)
	SetWithExpiration(key string, state BucketState, expiration time.Duration) error
}

type inMemoryEntry struct {
	state     BucketState
	expiresAt time.Time
}

type InMemory struct {
	cache map[string]inMemoryEntry
	mu    sync.RWMutex
	stop  chan struct{}
	once  sync.Once
}

func NewInMemory() *InMemory {
	im := &InMemory{
		cache: make(map[string]inMemoryEntry),
		stop:  make(chan struct{}),
	}

	go im.cleanupExpired()

	return im
}

func (i *InMemory) Get(key string) (BucketState, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	entry, ok := i.cache[key]
	if !ok {
		return BucketState{}, ErrCacheMiss
	}

	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		return BucketState{}, ErrCacheMiss
	}

	return entry.state, nil
}

func (i *InMemory) SetWithExpiration(key string, state BucketState, expiration time.Duration) error {
	var expiresAt time.Time
	if expiration > 0 {
		expiresAt = time.Now().Add(expiration)
	}

	i.mu.Lock()
	i.cache[key] = inMemoryEntry{state: state, expiresAt: expiresAt}
	i.mu.Unlock()

	return nil
}

func (i *InMemory) cleanupExpired() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			i.removeExpired()
		case <-i.stop:
			return
		}
	}
}

func (i *InMemory) removeExpired() {
	now := time.Now()

	i.mu.Lock()
	defer i.mu.Unlock()

	for key, entry := range i.cache {
		if !entry.expiresAt.IsZero() && now.After(entry.expiresAt) {
			delete(i.cache, key)
		}
	}
}

func (i *InMemory) Close() error {
	i.once.Do(func() {
		close(i.stop)
	})
	return nil
}
