// Package ratelimit bounds per-caller generation volume with rolling
// hour and day counters.
package ratelimit

import (
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/timberland/blocksmith/internal/config"
	"github.com/timberland/blocksmith/internal/llm"
)

// Limiter tracks usage per caller. Counters expire on their own; a record
// refreshes the window, so a steady stream of requests keeps it open.
type Limiter struct {
	perHour int
	perDay  int

	mu       sync.Mutex
	counters *gocache.Cache
}

func New(cfg config.RateLimitConfig) *Limiter {
	perHour := cfg.PerHour
	if perHour <= 0 {
		perHour = 20
	}
	perDay := cfg.PerDay
	if perDay <= 0 {
		perDay = 100
	}
	return &Limiter{
		perHour:  perHour,
		perDay:   perDay,
		counters: gocache.New(24*time.Hour, 10*time.Minute),
	}
}

// Check reports whether the caller may make a request. A denied caller gets
// a quota-classified error with a user-facing message.
func (l *Limiter) Check(caller string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.count("hour_"+caller) >= l.perHour {
		return llm.NewError(llm.KindQuota,
			fmt.Sprintf("Hourly rate limit reached (%d/hour). Please wait and try again.", l.perHour))
	}
	if l.count("day_"+caller) >= l.perDay {
		return llm.NewError(llm.KindQuota,
			fmt.Sprintf("Daily rate limit reached (%d/day). Please try again tomorrow.", l.perDay))
	}
	return nil
}

// Record counts one usage event for the caller.
func (l *Limiter) Record(caller string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.counters.Set("hour_"+caller, l.count("hour_"+caller)+1, time.Hour)
	l.counters.Set("day_"+caller, l.count("day_"+caller)+1, 24*time.Hour)
}

func (l *Limiter) count(key string) int {
	if v, ok := l.counters.Get(key); ok {
		if n, ok := v.(int); ok {
			return n
		}
	}
	return 0
}
