// Package ratelimit provides the admission-control primitives of the salahor
// toolkit: a token bucket with an optional sliding-window mode, a blocking
// waiter for composing limits in front of emission or submission, and a
// Redis-backed sliding window for multi-process deployments.
package ratelimit

import (
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Config configures a TokenBucket.
type Config struct {
	// Capacity is the maximum number of tokens (and the burst size).
	Capacity int
	// RefillRate is the continuous refill rate in tokens per second.
	// Ignored in sliding-window mode.
	RefillRate float64
	// InitialTokens is the starting token count; 0 means Capacity.
	InitialTokens int
	// SlidingWindow switches the bucket to a trailing-window request log
	// instead of continuous refill.
	SlidingWindow bool
	// WindowSize is the sliding window length. Default 60s.
	WindowSize time.Duration

	Logger *zap.Logger
}

// Result is the structured outcome of a Consume call. Denials never surface
// as errors; they carry a computed retry delay instead.
type Result struct {
	Allowed    bool          `json:"allowed"`
	Remaining  int           `json:"remaining"`
	RetryAfter time.Duration `json:"retry_after,omitempty"`
	ResetAt    time.Time     `json:"reset_at"`
}

// TokenBucket is a rate limiter allowing bursts up to Capacity, refilled
// continuously at RefillRate. Safe for concurrent use.
type TokenBucket struct {
	cfg    Config
	logger *zap.Logger

	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
	log        []time.Time

	// now is swappable for deterministic tests.
	now func() time.Time
}

// New creates a token bucket from cfg.
func New(cfg Config) *TokenBucket {
	if cfg.Capacity <= 0 {
		cfg.Capacity = 1
	}
	if cfg.RefillRate <= 0 {
		cfg.RefillRate = float64(cfg.Capacity)
	}
	if cfg.InitialTokens <= 0 {
		cfg.InitialTokens = cfg.Capacity
	}
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = time.Minute
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	b := &TokenBucket{
		cfg:    cfg,
		logger: logger.With(zap.String("component", "ratelimit")),
		tokens: float64(cfg.InitialTokens),
		now:    time.Now,
	}
	b.lastRefill = b.now()
	return b
}

// Consume attempts to take n tokens (n < 1 is treated as 1). Tokens are
// lazily refilled in proportion to elapsed time before the check.
func (b *TokenBucket) Consume(n int) Result {
	if n < 1 {
		n = 1
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cfg.SlidingWindow {
		return b.consumeWindow(n)
	}
	return b.consumeBucket(n)
}

func (b *TokenBucket) consumeBucket(n int) Result {
	now := b.now()
	b.refill(now)

	need := float64(n)
	if b.tokens >= need {
		b.tokens -= need
		return Result{
			Allowed:   true,
			Remaining: int(b.tokens),
			ResetAt:   b.fullAt(now),
		}
	}

	retryMs := math.Ceil((need - b.tokens) / b.cfg.RefillRate * 1000)
	retryAfter := time.Duration(retryMs) * time.Millisecond
	b.logger.Debug("consume denied",
		zap.Int("requested", n),
		zap.Float64("tokens", b.tokens),
		zap.Duration("retry_after", retryAfter),
	)
	return Result{
		Allowed:    false,
		Remaining:  int(b.tokens),
		RetryAfter: retryAfter,
		ResetAt:    b.fullAt(now),
	}
}

// refill adds tokens proportional to elapsed time, capped at capacity.
func (b *TokenBucket) refill(now time.Time) {
	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed > 0 {
		b.tokens += elapsed * b.cfg.RefillRate
		if b.tokens > float64(b.cfg.Capacity) {
			b.tokens = float64(b.cfg.Capacity)
		}
	}
	b.lastRefill = now
}

// fullAt returns when the bucket will be back at capacity.
func (b *TokenBucket) fullAt(now time.Time) time.Time {
	missing := float64(b.cfg.Capacity) - b.tokens
	if missing <= 0 {
		return now
	}
	return now.Add(time.Duration(missing / b.cfg.RefillRate * float64(time.Second)))
}

func (b *TokenBucket) consumeWindow(n int) Result {
	now := b.now()
	cutoff := now.Add(-b.cfg.WindowSize)

	pruned := b.log[:0]
	for _, t := range b.log {
		if t.After(cutoff) {
			pruned = append(pruned, t)
		}
	}
	b.log = pruned

	if len(b.log)+n <= b.cfg.Capacity {
		for i := 0; i < n; i++ {
			b.log = append(b.log, now)
		}
		return Result{
			Allowed:   true,
			Remaining: b.cfg.Capacity - len(b.log),
			ResetAt:   b.windowResetAt(now),
		}
	}

	// Retry once enough of the oldest entries have left the window.
	overshoot := len(b.log) + n - b.cfg.Capacity
	retryAfter := b.cfg.WindowSize
	if overshoot <= len(b.log) {
		retryAfter = b.log[overshoot-1].Add(b.cfg.WindowSize).Sub(now)
	}
	if retryAfter < 0 {
		retryAfter = 0
	}
	return Result{
		Allowed:    false,
		Remaining:  b.cfg.Capacity - len(b.log),
		RetryAfter: retryAfter,
		ResetAt:    b.windowResetAt(now),
	}
}

func (b *TokenBucket) windowResetAt(now time.Time) time.Time {
	if len(b.log) == 0 {
		return now
	}
	return b.log[0].Add(b.cfg.WindowSize)
}

// Remaining returns the currently available tokens (or window slots) without
// consuming any.
func (b *TokenBucket) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	if b.cfg.SlidingWindow {
		count := 0
		cutoff := now.Add(-b.cfg.WindowSize)
		for _, t := range b.log {
			if t.After(cutoff) {
				count++
			}
		}
		return b.cfg.Capacity - count
	}
	b.refill(now)
	return int(b.tokens)
}

// Reset restores the initial token count and clears the request log.
func (b *TokenBucket) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens = float64(b.cfg.InitialTokens)
	b.lastRefill = b.now()
	b.log = nil
}
