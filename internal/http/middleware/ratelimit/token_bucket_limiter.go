package ratelimit

import (
	"sync"
	"time"
)

// Config stores TokenBucketLimiter settings.
type Config struct {
	Rate       float64       // tokens refilled per second
	Burst      int           // bucket capacity
	TTL        time.Duration // idle buckets older than this are dropped; 0 keeps them
	MaxBuckets int           // 0 means unbounded; when full the idlest bucket is evicted
}

// TokenBucketLimiter keeps one token bucket per caller key.
type TokenBucketLimiter struct {
	cfg   Config
	clock Clock

	mu        sync.Mutex
	buckets   map[string]*bucket
	nextSweep time.Time
}

type bucket struct {
	tokens  float64
	updated time.Time
}

// NewTokenBucketLimiter creates a limiter; a nil clock reads the wall clock.
func NewTokenBucketLimiter(clock Clock, cfg Config) *TokenBucketLimiter {
	if clock == nil {
		clock = RealClock{}
	}
	if cfg.Rate <= 0 {
		cfg.Rate = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.MaxBuckets < 0 {
		cfg.MaxBuckets = 0
	}
	return &TokenBucketLimiter{
		cfg:     cfg,
		clock:   clock,
		buckets: make(map[string]*bucket),
	}
}

// Allow spends one token from key's bucket and reports whether there was one.
func (l *TokenBucketLimiter) Allow(key string) bool {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweep(now)

	b, ok := l.buckets[key]
	if !ok {
		if l.cfg.MaxBuckets > 0 && len(l.buckets) >= l.cfg.MaxBuckets {
			l.evictIdlest()
		}
		b = &bucket{tokens: float64(l.cfg.Burst), updated: now}
		l.buckets[key] = b
	}

	b.refill(now, l.cfg.Rate, float64(l.cfg.Burst))
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (b *bucket) refill(now time.Time, rate, capacity float64) {
	elapsed := now.Sub(b.updated)
	if elapsed <= 0 {
		return
	}
	b.tokens = min(capacity, b.tokens+elapsed.Seconds()*rate)
	b.updated = now
}

// sweep drops idle buckets at most once per sweep interval. Caller holds mu.
func (l *TokenBucketLimiter) sweep(now time.Time) {
	if l.cfg.TTL <= 0 || now.Before(l.nextSweep) {
		return
	}
	l.nextSweep = now.Add(max(time.Minute, l.cfg.TTL/2))

	for k, b := range l.buckets {
		if now.Sub(b.updated) > l.cfg.TTL {
			delete(l.buckets, k)
		}
	}
}

// evictIdlest removes the least recently used bucket. Caller holds mu.
func (l *TokenBucketLimiter) evictIdlest() {
	var (
		victim string
		oldest time.Time
		found  bool
	)
	for k, b := range l.buckets {
		if !found || b.updated.Before(oldest) {
			victim, oldest, found = k, b.updated, true
		}
	}
	if found {
		delete(l.buckets, victim)
	}
}
