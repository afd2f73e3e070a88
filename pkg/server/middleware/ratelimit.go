package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"mercator-hq/perfscore/pkg/server/types"
)

// TokenBucket allows bursts up to its capacity while holding the average
// rate to refillRate tokens per second.
type TokenBucket struct {
	capacity   float64
	tokens     float64
	refillRate float64
	lastRefill time.Time
	mu         sync.Mutex
}

// NewTokenBucket creates a full bucket.
func NewTokenBucket(capacity int, refillRate float64, now time.Time) *TokenBucket {
	return &TokenBucket{
		capacity:   float64(capacity),
		tokens:     float64(capacity),
		refillRate: refillRate,
		lastRefill: now,
	}
}

// Take consumes one token if available. When it is not, it returns how long
// until one will be.
func (tb *TokenBucket) Take(now time.Time) (bool, time.Duration) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refillLocked(now)
	if tb.tokens >= 1 {
		tb.tokens--
		return true, 0
	}
	wait := (1 - tb.tokens) / tb.refillRate
	return false, time.Duration(wait * float64(time.Second))
}

// Remaining returns the whole tokens currently available.
func (tb *TokenBucket) Remaining(now time.Time) int {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refillLocked(now)
	return int(tb.tokens)
}

// full reports whether the bucket has refilled completely, i.e. the client
// has been idle long enough that forgetting it changes nothing.
func (tb *TokenBucket) full(now time.Time) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refillLocked(now)
	return tb.tokens >= tb.capacity
}

func (tb *TokenBucket) refillLocked(now time.Time) {
	elapsed := now.Sub(tb.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}
	tb.tokens = math.Min(tb.capacity, tb.tokens+elapsed*tb.refillRate)
	tb.lastRefill = now
}

// ConcurrentLimiter is a counting semaphore that rejects rather than waits.
type ConcurrentLimiter struct {
	limit   int64
	current atomic.Int64
}

// NewConcurrentLimiter creates a limiter admitting at most limit holders.
func NewConcurrentLimiter(limit int) *ConcurrentLimiter {
	return &ConcurrentLimiter{limit: int64(limit)}
}

// Acquire takes a slot. If it returns true the caller must Release.
func (cl *ConcurrentLimiter) Acquire() bool {
	if cl.current.Add(1) > cl.limit {
		cl.current.Add(-1)
		return false
	}
	return true
}

// Release returns a slot.
func (cl *ConcurrentLimiter) Release() {
	cl.current.Add(-1)
}

// Current returns the number of held slots.
func (cl *ConcurrentLimiter) Current() int64 {
	return cl.current.Load()
}

// RateLimiterConfig configures a RateLimiter.
type RateLimiterConfig struct {
	RequestsPerSecond float64
	Burst             int
	// MaxConcurrent of 0 means unlimited.
	MaxConcurrent int
}

// RateLimiter keeps one token bucket per client plus an optional global cap
// on in-flight requests.
type RateLimiter struct {
	config     RateLimiterConfig
	concurrent *ConcurrentLimiter
	now        func() time.Time

	mu      sync.Mutex
	buckets map[string]*TokenBucket
	calls   int
}

// sweepEvery is how many Allow calls pass between sweeps of idle buckets.
const sweepEvery = 1024

// NewRateLimiter creates a limiter. A nil now uses time.Now.
func NewRateLimiter(cfg RateLimiterConfig, now func() time.Time) *RateLimiter {
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if now == nil {
		now = time.Now
	}
	rl := &RateLimiter{
		config:  cfg,
		now:     now,
		buckets: make(map[string]*TokenBucket),
	}
	if cfg.MaxConcurrent > 0 {
		rl.concurrent = NewConcurrentLimiter(cfg.MaxConcurrent)
	}
	return rl
}

// Allow takes a token from client's bucket. It returns the tokens left and,
// on rejection, how long the client should wait.
func (rl *RateLimiter) Allow(client string) (ok bool, remaining int, retryAfter time.Duration) {
	now := rl.now()
	b := rl.bucket(client, now)
	ok, retryAfter = b.Take(now)
	return ok, b.Remaining(now), retryAfter
}

// Clients returns the number of clients currently tracked.
func (rl *RateLimiter) Clients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

func (rl *RateLimiter) bucket(client string, now time.Time) *TokenBucket {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.calls++
	if rl.calls%sweepEvery == 0 {
		for name, b := range rl.buckets {
			if name != client && b.full(now) {
				delete(rl.buckets, name)
			}
		}
	}

	b, ok := rl.buckets[client]
	if !ok {
		b = NewTokenBucket(rl.config.Burst, rl.config.RequestsPerSecond, now)
		rl.buckets[client] = b
	}
	return b
}

// RateLimit throttles each client to the limiter's rate. The client is the
// authenticated API key name when APIKeyAuth ran first, otherwise the remote
// IP. Rejections are 429 envelopes with a Retry-After header.
func RateLimit(rl *RateLimiter, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	limit := strconv.Itoa(rl.config.Burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := clientID(r)

			ok, remaining, retryAfter := rl.Allow(client)
			w.Header().Set("X-RateLimit-Limit", limit)
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if !ok {
				logger.WarnContext(r.Context(), "rate limit exceeded",
					"client", client,
					"path", r.URL.Path,
					"retry_after_ms", retryAfter.Milliseconds(),
				)
				writeLimitError(w, retryAfter, types.NewRateLimitError(
					"Rate limit exceeded. Retry later.", types.CodeRateLimitExceeded))
				return
			}

			if rl.concurrent != nil {
				if !rl.concurrent.Acquire() {
					logger.WarnContext(r.Context(), "concurrency limit exceeded",
						"client", client,
						"in_flight", rl.concurrent.Current(),
					)
					writeLimitError(w, time.Second, types.NewRateLimitError(
						"Too many requests in flight. Retry later.", types.CodeConcurrencyExceeded))
					return
				}
				defer rl.concurrent.Release()
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientID(r *http.Request) string {
	if name := APIKeyName(r.Context()); name != "" {
		return "key:" + name
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

func writeLimitError(w http.ResponseWriter, retryAfter time.Duration, resp *types.ErrorResponse) {
	secs := int(math.Ceil(retryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(secs))
	resp.Write(w)
}
