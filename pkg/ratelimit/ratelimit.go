// Package ratelimit provides the per-key sliding-window admission limiter
// used in front of the faucet endpoint, plus a coarse global throttle.
package ratelimit

import (
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"
)

type Config struct {
	// Window is the trailing duration over which requests are counted.
	Window time.Duration

	// MaxRequests is the maximum number of admitted requests per key
	// within Window.
	MaxRequests int

	Clock clockwork.Clock
}

func (cfg *Config) Validate() error {
	if cfg.Window <= 0 {
		return errors.New("window must be positive")
	}
	if cfg.MaxRequests <= 0 {
		return errors.New("max requests must be positive")
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return nil
}

// Limiter tracks admitted-request timestamps per key over a sliding window.
// It holds its lock only across map mutation; callers must not invoke it
// while holding locks across network calls.
type Limiter struct {
	cfg Config

	mu      sync.Mutex
	history map[string][]time.Time
}

func New(cfg Config) (*Limiter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Limiter{
		cfg:     cfg,
		history: make(map[string][]time.Time),
	}, nil
}

// Admit reports whether a request for key is allowed, and records it if so.
// A denied request leaves no trace. The first call for an unseen key is
// always allowed.
func (l *Limiter) Admit(key string) bool {
	now := l.cfg.Clock.Now()
	cutoff := now.Add(-l.cfg.Window)

	l.mu.Lock()
	defer l.mu.Unlock()

	// Opportunistically drop expired timestamps everywhere. This amortizes
	// cleanup across calls and bounds memory to active keys.
	for k, ts := range l.history {
		ts = trimExpired(ts, cutoff)
		if len(ts) == 0 {
			delete(l.history, k)
		} else {
			l.history[k] = ts
		}
	}

	ts := l.history[key]
	if len(ts) >= l.cfg.MaxRequests {
		return false
	}
	l.history[key] = append(ts, now)
	return true
}

// trimExpired returns ts without entries at or before cutoff. Timestamps are
// appended in order, so the first surviving index bounds the rest.
func trimExpired(ts []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	return ts[i:]
}

// NewGlobal returns a process-wide token-bucket throttle applied before the
// per-key window. It caps aggregate request rate regardless of key.
func NewGlobal(r rate.Limit, burst int) *rate.Limiter {
	return rate.NewLimiter(r, burst)
}
