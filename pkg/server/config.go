package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"
	"golang.org/x/time/rate"

	"github.com/liquidgenlabs/faucet/pkg/cooldown"
	"github.com/liquidgenlabs/faucet/pkg/ratelimit"
)

// Minter submits a mint for the recipient and returns the transaction
// signature once the ledger has confirmed it.
type Minter interface {
	Mint(ctx context.Context, recipient solana.PublicKey, amount uint64) (solana.Signature, error)
}

// Verifier checks a human-verification token. A false result means the
// verification service explicitly rejected the token.
type Verifier interface {
	Verify(ctx context.Context, token string) (bool, error)
}

// VersionInfo contains build-time version information.
type VersionInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

type Config struct {
	Logger *slog.Logger

	ListenAddr        string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
	VersionInfo       VersionInfo

	// AllowedOrigins configures CORS for the browser frontend.
	AllowedOrigins []string

	Minter    Minter
	Limiter   *ratelimit.Limiter
	Cooldowns *cooldown.Tracker

	// Global caps aggregate request rate across all clients. Optional.
	Global *rate.Limiter

	// Verifier enables the human-verification gate when non-nil.
	Verifier Verifier

	// APIKey, when non-empty, must match the X-API-Key request header.
	APIKey string

	// MaxAmount rejects requests above this base-unit amount. Zero means
	// no cap.
	MaxAmount uint64
}

func (cfg *Config) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.ListenAddr == "" {
		return errors.New("listen addr is required")
	}
	if cfg.Minter == nil {
		return errors.New("minter is required")
	}
	if cfg.Limiter == nil {
		return errors.New("rate limiter is required")
	}
	if cfg.Cooldowns == nil {
		return errors.New("cooldown tracker is required")
	}
	if cfg.ReadHeaderTimeout <= 0 {
		cfg.ReadHeaderTimeout = 10 * time.Second
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	return nil
}
