package gateway

import (
	"sync"
	"time"
)

// RateLimiter throttles calls against the quote endpoint. The NSE API is
// unauthenticated and quick to block aggressive pollers.
type RateLimiter interface {
	Wait()
}

// TokenBucketLimiter is a simple token bucket: rate tokens per second,
// at most burst accumulated.
type TokenBucketLimiter struct {
	mu     sync.Mutex
	rate   float64
	burst  float64
	tokens float64
	last   time.Time
}

func NewTokenBucketLimiter(rate float64, burst int) *TokenBucketLimiter {
	if rate <= 0 {
		rate = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &TokenBucketLimiter{
		rate:   rate,
		burst:  float64(burst),
		tokens: float64(burst),
		last:   time.Now(),
	}
}

// Wait blocks until a token is available, then consumes it.
func (l *TokenBucketLimiter) Wait() {
	for {
		l.mu.Lock()
		now := time.Now()
		l.tokens += now.Sub(l.last).Seconds() * l.rate
		l.last = now
		if l.tokens > l.burst {
			l.tokens = l.burst
		}
		if l.tokens >= 1 {
			l.tokens--
			l.mu.Unlock()
			return
		}
		sleep := time.Duration((1 - l.tokens) / l.rate * float64(time.Second))
		l.mu.Unlock()
		time.Sleep(sleep + time.Millisecond)
	}
}
