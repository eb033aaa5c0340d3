// Package buyback implements the treasury threshold worker: it reads the
// treasury token-account balance and, when it crosses the configured
// threshold, writes a swap plan for operators to act on. Report-only; it
// never moves funds.
package buyback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/jonboulle/clockwork"
)

// BalanceReader is the RPC surface the worker needs.
type BalanceReader interface {
	GetTokenAccountBalance(ctx context.Context, account solana.PublicKey, commitment solanarpc.CommitmentType) (*solanarpc.GetTokenAccountBalanceResult, error)
}

type Config struct {
	Logger *slog.Logger
	RPC    BalanceReader

	// TreasuryAccount is the token account holding accumulated funds.
	TreasuryAccount solana.PublicKey

	// Threshold is the base-unit balance at which a plan is written.
	Threshold uint64

	// TargetMint identifies the token a swap would buy.
	TargetMint solana.PublicKey

	// PlanPath is where the swap plan JSON is written.
	PlanPath string

	Clock clockwork.Clock
}

func (cfg *Config) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.RPC == nil {
		return errors.New("rpc client is required")
	}
	if cfg.TreasuryAccount.IsZero() {
		return errors.New("treasury account is required")
	}
	if cfg.Threshold == 0 {
		return errors.New("threshold must be positive")
	}
	if cfg.PlanPath == "" {
		return errors.New("plan path is required")
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return nil
}

// SwapPlan is the report written when the treasury crosses the threshold.
type SwapPlan struct {
	TreasuryAccount string    `json:"treasury_account"`
	TreasuryBalance string    `json:"treasury_balance"`
	Threshold       uint64    `json:"threshold"`
	TargetMint      string    `json:"target_mint"`
	GeneratedAt     time.Time `json:"generated_at"`
	Note            string    `json:"note"`
}

type Worker struct {
	log *slog.Logger
	cfg Config
}

func New(cfg Config) (*Worker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Worker{
		log: cfg.Logger,
		cfg: cfg,
	}, nil
}

// Run performs one balance check. It returns an error only when the check
// itself fails; a balance below threshold is a successful no-op.
func (w *Worker) Run(ctx context.Context) error {
	balance, err := w.cfg.RPC.GetTokenAccountBalance(ctx, w.cfg.TreasuryAccount, solanarpc.CommitmentConfirmed)
	if err != nil {
		return fmt.Errorf("failed to fetch treasury balance: %w", err)
	}

	amount, err := strconv.ParseUint(balance.Value.Amount, 10, 64)
	if err != nil {
		return fmt.Errorf("failed to parse treasury balance %q: %w", balance.Value.Amount, err)
	}

	w.log.Info("buyback: treasury balance fetched",
		"account", w.cfg.TreasuryAccount,
		"amount", amount,
		"decimals", balance.Value.Decimals,
		"threshold", w.cfg.Threshold,
	)

	if amount < w.cfg.Threshold {
		w.log.Info("buyback: balance below threshold, nothing to do")
		return nil
	}

	plan := SwapPlan{
		TreasuryAccount: w.cfg.TreasuryAccount.String(),
		TreasuryBalance: balance.Value.Amount,
		Threshold:       w.cfg.Threshold,
		TargetMint:      w.cfg.TargetMint.String(),
		GeneratedAt:     w.cfg.Clock.Now().UTC(),
		Note:            "Swap execution is disabled; review the plan and execute manually.",
	}

	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize swap plan: %w", err)
	}
	if err := os.WriteFile(w.cfg.PlanPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write swap plan: %w", err)
	}

	w.log.Info("buyback: swap plan written", "path", w.cfg.PlanPath)
	return nil
}
