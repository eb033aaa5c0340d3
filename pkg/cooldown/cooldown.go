// Package cooldown provides the advisory per-wallet cooldown tracker. It only
// short-circuits requests that are obviously too soon; the on-chain wallet
// state is the authority, and a restarted process fails open toward it.
package cooldown

import (
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type Config struct {
	// Window is the minimum duration between locally recorded mints for a
	// wallet before Allow passes again.
	Window time.Duration

	Clock clockwork.Clock
}

func (cfg *Config) Validate() error {
	if cfg.Window <= 0 {
		return errors.New("window must be positive")
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return nil
}

// Tracker remembers the last locally observed successful mint per wallet.
type Tracker struct {
	cfg Config

	mu   sync.Mutex
	last map[string]time.Time
}

func New(cfg Config) (*Tracker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Tracker{
		cfg:  cfg,
		last: make(map[string]time.Time),
	}, nil
}

// Allow reports whether no mint for wallet was recorded within the window.
// A wallet with no local record is always allowed.
func (t *Tracker) Allow(wallet string) bool {
	now := t.cfg.Clock.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	served, ok := t.last[wallet]
	if !ok {
		return true
	}
	if now.Sub(served) >= t.cfg.Window {
		delete(t.last, wallet)
		return true
	}
	return false
}

// Record stores the current instant as the wallet's last served time. Callers
// invoke it only after the on-chain mint has been confirmed.
func (t *Tracker) Record(wallet string) {
	now := t.cfg.Clock.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	// Expire stale entries while we hold the lock, bounding the map to
	// wallets still inside the window.
	for w, served := range t.last {
		if now.Sub(served) >= t.cfg.Window {
			delete(t.last, w)
		}
	}
	t.last[wallet] = now
}
