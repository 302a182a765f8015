// Package ratelimit provides per-tool token buckets for the MCP server.
package ratelimit

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// Rule configures one bucket: a sustained rate per minute and a burst that
// is also the initial token count.
type Rule struct {
	PerMinute float64
	Burst     int
}

// DefaultRules are the limits applied to the MCP tools. Generation and
// export do the most work per call.
var DefaultRules = map[string]Rule{
	"cuesched_generate": {PerMinute: 30, Burst: 5},
	"cuesched_export":   {PerMinute: 30, Burst: 5},
	"cuesched_list":     {PerMinute: 60, Burst: 10},
	"cuesched_show":     {PerMinute: 60, Burst: 10},
}

// Limiter is a single token bucket. It is safe for concurrent use.
type Limiter struct {
	mu     sync.Mutex
	rate   float64 // tokens per second
	burst  float64
	tokens float64
	last   time.Time
	now    func() time.Time
}

// NewLimiter creates a full bucket for r.
func NewLimiter(r Rule) *Limiter {
	return &Limiter{
		rate:   r.PerMinute / 60,
		burst:  float64(r.Burst),
		tokens: float64(r.Burst),
		now:    time.Now,
	}
}

// Allow takes one token if available. When it is not, Allow reports how
// long until one will be; a zero-rate bucket never refills and reports -1.
func (l *Limiter) Allow() (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if !l.last.IsZero() {
		if elapsed := now.Sub(l.last).Seconds(); elapsed > 0 {
			l.tokens = math.Min(l.burst, l.tokens+elapsed*l.rate)
		}
	}
	l.last = now

	if l.tokens >= 1 {
		l.tokens--
		return true, 0
	}
	if l.rate <= 0 {
		return false, -1
	}
	wait := (1 - l.tokens) / l.rate
	return false, time.Duration(math.Ceil(wait * float64(time.Second)))
}

// LimitError is returned when a tool's bucket is empty.
type LimitError struct {
	Tool       string
	RetryAfter time.Duration
}

func (e *LimitError) Error() string {
	if e.RetryAfter < 0 {
		return fmt.Sprintf("rate limit exceeded for %s", e.Tool)
	}
	return fmt.Sprintf("rate limit exceeded for %s, retry in %s", e.Tool, e.RetryAfter.Round(time.Second))
}

// Tools holds one bucket per tool name.
type Tools struct {
	limiters map[string]*Limiter
}

// NewTools builds buckets for rules. A nil map uses DefaultRules.
func NewTools(rules map[string]Rule) *Tools {
	if rules == nil {
		rules = DefaultRules
	}
	t := &Tools{limiters: make(map[string]*Limiter, len(rules))}
	for name, r := range rules {
		t.limiters[name] = NewLimiter(r)
	}
	return t
}

// Check takes a token for tool. Tools without a rule are never limited.
func (t *Tools) Check(tool string) error {
	l, ok := t.limiters[tool]
	if !ok {
		return nil
	}
	if ok, wait := l.Allow(); !ok {
		return &LimitError{Tool: tool, RetryAfter: wait}
	}
	return nil
}
