// Package ratelimit spaces out requests to each loyalty program's site.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limit is the minimum spacing between two requests to one program and the
// number of requests that may go out back to back. A non-positive Interval
// means unlimited.
type Limit struct {
	Interval time.Duration
	Burst    int
}

// FromDelay builds a Limit from the configured request delay.
func FromDelay(delay time.Duration, burst int) Limit {
	if burst < 1 {
		burst = 1
	}
	if delay < 0 {
		delay = 0
	}
	return Limit{Interval: delay, Burst: burst}
}

// Unlimited never blocks.
func Unlimited() Limit {
	return Limit{Burst: 1}
}

func (l Limit) rate() rate.Limit {
	if l.Interval <= 0 {
		return rate.Inf
	}
	return rate.Every(l.Interval)
}

func (l Limit) burst() int {
	return max(l.Burst, 1)
}

// ProgramLimiter keeps one token bucket per program so scrapes of the same
// airline site are spaced out while other programs proceed.
type ProgramLimiter struct {
	mu      sync.Mutex
	limit   Limit
	buckets map[string]*rate.Limiter
}

func NewProgramLimiter(l Limit) *ProgramLimiter {
	return &ProgramLimiter{limit: l, buckets: make(map[string]*rate.Limiter)}
}

func (p *ProgramLimiter) bucket(program string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	b, ok := p.buckets[program]
	if !ok {
		b = rate.NewLimiter(p.limit.rate(), p.limit.burst())
		p.buckets[program] = b
	}
	return b
}

// Reconfigure applies l to every program. Existing buckets keep the tokens
// already spent, so a reload cannot be used to skip the spacing.
func (p *ProgramLimiter) Reconfigure(l Limit) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.limit = l
	for _, b := range p.buckets {
		b.SetLimit(l.rate())
		b.SetBurst(l.burst())
	}
}

// Current returns the limit new buckets start with.
func (p *ProgramLimiter) Current() Limit {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.limit
}

// Wait blocks until program may issue a request. It fails fast when ctx
// would expire before a token is available.
func (p *ProgramLimiter) Wait(ctx context.Context, program string) error {
	if err := p.bucket(program).Wait(ctx); err != nil {
		return fmt.Errorf("rate limit %s: %w", program, err)
	}
	return nil
}
