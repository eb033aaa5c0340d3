package buyback_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liquidgenlabs/faucet/pkg/buyback"
)

type stubBalanceReader struct {
	amount string
	err    error
}

func (s *stubBalanceReader) GetTokenAccountBalance(ctx context.Context, account solana.PublicKey, commitment solanarpc.CommitmentType) (*solanarpc.GetTokenAccountBalanceResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &solanarpc.GetTokenAccountBalanceResult{
		Value: &solanarpc.UiTokenAmount{Amount: s.amount, Decimals: 9},
	}, nil
}

func newWorker(t *testing.T, reader *stubBalanceReader, planPath string, threshold uint64) *buyback.Worker {
	t.Helper()
	w, err := buyback.New(buyback.Config{
		Logger:          slog.Default(),
		RPC:             reader,
		TreasuryAccount: solana.NewWallet().PublicKey(),
		Threshold:       threshold,
		TargetMint:      solana.NewWallet().PublicKey(),
		PlanPath:        planPath,
		Clock:           clockwork.NewFakeClock(),
	})
	require.NoError(t, err)
	return w
}

func TestRun_BelowThresholdWritesNothing(t *testing.T) {
	planPath := filepath.Join(t.TempDir(), "plan.json")
	w := newWorker(t, &stubBalanceReader{amount: "999"}, planPath, 1000)

	require.NoError(t, w.Run(context.Background()))

	_, err := os.Stat(planPath)
	assert.True(t, os.IsNotExist(err), "no plan below threshold")
}

func TestRun_ThresholdReachedWritesPlan(t *testing.T) {
	planPath := filepath.Join(t.TempDir(), "plan.json")
	w := newWorker(t, &stubBalanceReader{amount: "1000"}, planPath, 1000)

	require.NoError(t, w.Run(context.Background()))

	data, err := os.ReadFile(planPath)
	require.NoError(t, err)

	var plan buyback.SwapPlan
	require.NoError(t, json.Unmarshal(data, &plan))
	assert.Equal(t, "1000", plan.TreasuryBalance)
	assert.Equal(t, uint64(1000), plan.Threshold)
	assert.NotEmpty(t, plan.TreasuryAccount)
}

func TestRun_BalanceFetchFailure(t *testing.T) {
	planPath := filepath.Join(t.TempDir(), "plan.json")
	w := newWorker(t, &stubBalanceReader{err: assert.AnError}, planPath, 1000)

	assert.ErrorIs(t, w.Run(context.Background()), assert.AnError)
}

func TestRun_UnparsableBalance(t *testing.T) {
	planPath := filepath.Join(t.TempDir(), "plan.json")
	w := newWorker(t, &stubBalanceReader{amount: "not-a-number"}, planPath, 1000)

	assert.Error(t, w.Run(context.Background()))
}
