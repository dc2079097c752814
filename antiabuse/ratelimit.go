package antiabuse

import (
	"sync"
	"time"
)

// Bucket is one fixed-window counter. Ephemeral and process-local unless a
// shared store is plugged in.
type Bucket struct {
	Count         int
	WindowStartMs int64
}

// BucketStore abstracts bucket storage so tests can use an isolated instance
// and deployments can substitute a shared store (see RedisStore) without
// touching the limiter logic.
type BucketStore interface {
	Get(key string) (Bucket, bool)
	Set(key string, bucket Bucket)
	Delete(key string)
}

// Result is the tagged outcome of one Consume call.
type Result struct {
	OK                bool
	Remaining         int
	RetryAfterSeconds int
	ResetAtMs         int64
}

// Limiter implements fixed-window rate limiting. A burst split across two
// adjacent windows can reach twice the configured rate at the boundary;
// accepted trade-off of the fixed window.
type Limiter struct {
	store BucketStore
	mu    sync.Mutex
}

func NewLimiter(store BucketStore) *Limiter {
	return &Limiter{store: store}
}

// Consume records one request for key and reports whether it is allowed.
// The mutex serializes the read-modify-write of a bucket entry; without it a
// multi-threaded runtime would lose counts.
func (l *Limiter) Consume(key string, maxRequests int, window time.Duration, now time.Time) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	nowMs := now.UnixMilli()
	windowMs := window.Milliseconds()

	bucket, exists := l.store.Get(key)
	if !exists || nowMs >= bucket.WindowStartMs+windowMs {
		next := Bucket{Count: 1, WindowStartMs: nowMs}
		l.store.Set(key, next)
		return Result{
			OK:        true,
			Remaining: maxInt(0, maxRequests-1),
			ResetAtMs: next.WindowStartMs + windowMs,
		}
	}

	resetAtMs := bucket.WindowStartMs + windowMs
	if bucket.Count >= maxRequests {
		retryAfter := int((resetAtMs - nowMs + 999) / 1000)
		if retryAfter < 1 {
			retryAfter = 1
		}
		return Result{
			OK:                false,
			RetryAfterSeconds: retryAfter,
			ResetAtMs:         resetAtMs,
		}
	}

	bucket.Count++
	l.store.Set(key, bucket)
	return Result{
		OK:        true,
		Remaining: maxInt(0, maxRequests-bucket.Count),
		ResetAtMs: resetAtMs,
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// MemoryStore is the default process-local bucket table. Entries at least
// two windows stale are pruned opportunistically once the table grows large.
type MemoryStore struct {
	mu       sync.Mutex
	buckets  map[string]Bucket
	windowMs int64

	pruneThreshold int
}

// NewMemoryStore creates an in-memory store. window informs pruning: an
// entry is dead once two windows have passed since it started.
func NewMemoryStore(window time.Duration) *MemoryStore {
	return &MemoryStore{
		buckets:        make(map[string]Bucket),
		windowMs:       window.Milliseconds(),
		pruneThreshold: 500,
	}
}

func (s *MemoryStore) Get(key string) (Bucket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket, ok := s.buckets[key]
	return bucket, ok
}

func (s *MemoryStore) Set(key string, bucket Bucket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buckets[key] = bucket
	if len(s.buckets) >= s.pruneThreshold {
		s.pruneLocked(bucket.WindowStartMs)
	}
}

func (s *MemoryStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buckets, key)
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}

func (s *MemoryStore) pruneLocked(nowMs int64) {
	for key, bucket := range s.buckets {
		if nowMs >= bucket.WindowStartMs+s.windowMs*2 {
			delete(s.buckets, key)
		}
	}
}
