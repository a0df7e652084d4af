package providers

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a token bucket refilled continuously at rpm/60 tokens per
// second with a burst equal to rpm.
type RateLimiter struct {
	mu sync.Mutex

	rpm        int
	tokens     float64
	lastUpdate time.Time

	totalConsumed int64
	totalWaited   time.Duration
	last429       time.Time
}

// RateLimiterStatus reports current limiter state.
type RateLimiterStatus struct {
	TokensAvailable int           `json:"tokens_available"`
	RPM             int           `json:"rpm"`
	TotalConsumed   int64         `json:"total_consumed"`
	TotalWaited     time.Duration `json:"total_waited"`
	Last429         time.Time     `json:"last_429,omitempty"`
}

// NewRateLimiter creates a limiter. Non-positive rpm means 120.
func NewRateLimiter(rpm int) *RateLimiter {
	if rpm <= 0 {
		rpm = 120
	}
	return &RateLimiter{
		rpm:        rpm,
		tokens:     float64(rpm),
		lastUpdate: time.Now(),
	}
}

// Wait blocks until a token is available or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	for {
		r.mu.Lock()
		r.refill()
		if r.tokens >= 1 {
			r.tokens--
			r.totalConsumed++
			r.mu.Unlock()
			return nil
		}
		wait := r.untilNextToken()
		r.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
			r.mu.Lock()
			r.totalWaited += wait
			r.mu.Unlock()
		}
	}
}

// Record429 drains the bucket after the upstream reported rate limiting.
func (r *RateLimiter) Record429(retryAfter time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last429 = time.Now()
	if retryAfter > 0 {
		r.tokens = 0
	}
}

// Status returns current limiter status.
func (r *RateLimiter) Status() RateLimiterStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refill()
	return RateLimiterStatus{
		TokensAvailable: int(r.tokens),
		RPM:             r.rpm,
		TotalConsumed:   r.totalConsumed,
		TotalWaited:     r.totalWaited,
		Last429:         r.last429,
	}
}

// refill must be called with the lock held.
func (r *RateLimiter) refill() {
	now := time.Now()
	r.tokens += now.Sub(r.lastUpdate).Seconds() * float64(r.rpm) / 60
	r.lastUpdate = now
	if limit := float64(r.rpm); r.tokens > limit {
		r.tokens = limit
	}
}

func (r *RateLimiter) untilNextToken() time.Duration {
	perSecond := float64(r.rpm) / 60
	return time.Duration((1 - r.tokens) / perSecond * float64(time.Second))
}
