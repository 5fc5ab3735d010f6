package ratelimiter

import (
	"net/http"
	"sync"
	"time"
)

type Limiter interface {
	Allow(sourceKey string) bool
	Remaining(sourceKey string) int
	GetSourceKey(r *http.Request) string
	GetMaxBurst() int
}

type Options struct {
	MaxRatePerSecond int
	MaxBurst         int
	Cache            Store
	CacheTTL         time.Duration
	SourceHeaderKey  string
}

func New(options Options) Limiter {
	if options.Cache == nil {
		options.Cache = NewInMemory()
	}
	if options.CacheTTL == 0 {
		options.CacheTTL = 10 * time.Second
	}
	if options.MaxRatePerSecond <= 0 {
		options.MaxRatePerSecond = 10
	}
	if options.MaxBurst <= 0 {
		options.MaxBurst = options.MaxRatePerSecond
	}
	if options.SourceHeaderKey == "" {
		options.SourceHeaderKey = "X-Forwarded-For"
	}

	return &RateLimiter{
		ratePerMilli:    float64(options.MaxRatePerSecond) / 1000.0,
		maxBurst:        options.MaxBurst,
		cache:           options.Cache,
		cacheTTL:        options.CacheTTL,
		sourceHeaderKey: options.SourceHeaderKey,
	}
}

// RateLimiter is a token bucket per source key. Buckets live in a Store so
// idle sources age out instead of accumulating forever.
type RateLimiter struct {
	ratePerMilli    float64
	maxBurst        int
	cache           Store
	cacheTTL        time.Duration
	sourceHeaderKey string

	// Per-key locks keep refill-and-take atomic per source
	locks sync.Map // map[string]*sync.Mutex
}

func (rl *RateLimiter) getLock(sourceKey string) *sync.Mutex {
	lock, _ := rl.locks.LoadOrStore(sourceKey, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

func (rl *RateLimiter) refilled(sourceKey string, now int64) BucketState {
	state, err := rl.cache.Get(sourceKey)
	if err != nil {
		// Miss or cache failure: fail open with a full bucket
		return BucketState{Tokens: float64(rl.maxBurst), LastFill: now}
	}

	elapsed := now - state.LastFill
	if elapsed <= 0 {
		return state
	}

	tokens := state.Tokens + float64(elapsed)*rl.ratePerMilli
	if tokens > float64(rl.maxBurst) {
		tokens = float64(rl.maxBurst)
	}

	return BucketState{Tokens: tokens, LastFill: now}
}

func (rl *RateLimiter) Allow(sourceKey string) bool {
	lock := rl.getLock(sourceKey)
	lock.Lock()
	defer lock.Unlock()

	state := rl.refilled(sourceKey, time.Now().UnixMilli())
	if state.Tokens < 1 {
		_ = rl.cache.SetWithExpiration(sourceKey, state, rl.cacheTTL)
		return false
	}

	state.Tokens--
	_ = rl.cache.SetWithExpiration(sourceKey, state, rl.cacheTTL)
	return true
}

func (rl *RateLimiter) Remaining(sourceKey string) int {
	lock := rl.getLock(sourceKey)
	lock.Lock()
	defer lock.Unlock()

	state := rl.refilled(sourceKey, time.Now().UnixMilli())
	return int(state.Tokens)
}

func (rl *RateLimiter) GetMaxBurst() int {
	return rl.maxBurst
}

func (rl *RateLimiter) GetSourceKey(r *http.Request) string {
	if key := r.Header.Get(rl.sourceHeaderKey); key != "" {
		return key
	}

	// Fall back to IP address
	return r.RemoteAddr
}
