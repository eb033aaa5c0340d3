// Package minter builds, signs and submits FaucetMint transactions to the
// mint-controller program over Solana RPC.
package minter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/jonboulle/clockwork"

	"github.com/liquidgenlabs/faucet/pkg/mintcontroller"
)

// ErrConfirmationTimeout is returned when a submitted transaction does not
// confirm within the configured timeout. The transaction may still land;
// callers must treat this as failure and leave retry to the on-chain check.
var ErrConfirmationTimeout = errors.New("transaction confirmation timed out")

// RPCClient is the subset of the Solana RPC surface the minter uses.
type RPCClient interface {
	GetTokenSupply(ctx context.Context, account solana.PublicKey, commitment solanarpc.CommitmentType) (*solanarpc.GetTokenSupplyResult, error)
	GetLatestBlockhash(ctx context.Context, commitment solanarpc.CommitmentType) (*solanarpc.GetLatestBlockhashResult, error)
	SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts solanarpc.TransactionOpts) (solana.Signature, error)
	GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, transactionSignatures ...solana.Signature) (*solanarpc.GetSignatureStatusesResult, error)
}

type Config struct {
	Logger *slog.Logger
	RPC    RPCClient

	// ProgramID is the deployed mint-controller program.
	ProgramID solana.PublicKey

	// ConfigAccount is the program's configuration account.
	ConfigAccount solana.PublicKey

	// Mint is the token being dispensed.
	Mint solana.PublicKey

	// ServerKey signs submissions as the authorized server.
	ServerKey solana.PrivateKey

	// ConfirmTimeout bounds how long Mint waits for confirmation.
	ConfirmTimeout time.Duration

	// PollInterval is the delay between signature status polls.
	PollInterval time.Duration

	Clock clockwork.Clock
}

func (cfg *Config) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.RPC == nil {
		return errors.New("rpc client is required")
	}
	if cfg.ProgramID.IsZero() {
		return errors.New("program id is required")
	}
	if cfg.ConfigAccount.IsZero() {
		return errors.New("config account is required")
	}
	if cfg.Mint.IsZero() {
		return errors.New("mint is required")
	}
	if cfg.ServerKey == nil {
		return errors.New("server key is required")
	}
	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = 60 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return nil
}

type Minter struct {
	log       *slog.Logger
	cfg       Config
	authority solana.PublicKey
}

func New(cfg Config) (*Minter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	authority, _, err := mintcontroller.DeriveMintAuthority(cfg.ProgramID, cfg.Mint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive mint authority: %w", err)
	}
	return &Minter{
		log:       cfg.Logger,
		cfg:       cfg,
		authority: authority,
	}, nil
}

// Mint submits a FaucetMint for amount base units to recipient and waits for
// confirmation. The cooldown decision is entirely the program's; a rejection
// there surfaces as a send error.
func (m *Minter) Mint(ctx context.Context, recipient solana.PublicKey, amount uint64) (solana.Signature, error) {
	walletState, _, err := mintcontroller.DeriveWalletState(m.cfg.ProgramID, recipient)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to derive wallet state: %w", err)
	}
	recipientToken, _, err := solana.FindAssociatedTokenAddress(recipient, m.cfg.Mint)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to derive recipient token account: %w", err)
	}

	// Probe the mint before building the transaction; decimals are not
	// needed for the instruction (the program reads them on-chain) but a
	// failing read surfaces RPC trouble before we pay for a submission.
	supply, err := m.cfg.RPC.GetTokenSupply(ctx, m.cfg.Mint, solanarpc.CommitmentConfirmed)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to fetch token supply: %w", err)
	}
	m.log.Debug("minter: mint probed", "decimals", supply.Value.Decimals)

	data, err := mintcontroller.FaucetMint{Amount: amount}.Encode()
	if err != nil {
		return solana.Signature{}, err
	}

	serverKey := m.cfg.ServerKey.PublicKey()
	ix := solana.NewInstruction(
		m.cfg.ProgramID,
		solana.AccountMetaSlice{
			solana.NewAccountMeta(serverKey, false, true),
			solana.NewAccountMeta(m.cfg.ConfigAccount, true, false),
			solana.NewAccountMeta(walletState, true, false),
			solana.NewAccountMeta(m.cfg.Mint, true, false),
			solana.NewAccountMeta(solana.TokenProgramID, false, false),
			solana.NewAccountMeta(recipientToken, true, false),
			solana.NewAccountMeta(m.authority, false, false),
		},
		data,
	)

	blockhash, err := m.cfg.RPC.GetLatestBlockhash(ctx, solanarpc.CommitmentConfirmed)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to fetch blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(
		[]solana.Instruction{ix},
		blockhash.Value.Blockhash,
		solana.TransactionPayer(serverKey),
	)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to build transaction: %w", err)
	}

	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(serverKey) {
			return &m.cfg.ServerKey
		}
		return nil
	}); err != nil {
		return solana.Signature{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	sig, err := m.cfg.RPC.SendTransactionWithOpts(ctx, tx, solanarpc.TransactionOpts{
		PreflightCommitment: solanarpc.CommitmentConfirmed,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to send transaction: %w", err)
	}

	m.log.Debug("minter: transaction sent", "signature", sig, "recipient", recipient, "amount", amount)

	if err := m.awaitConfirmation(ctx, sig); err != nil {
		return solana.Signature{}, err
	}
	return sig, nil
}

func (m *Minter) awaitConfirmation(ctx context.Context, sig solana.Signature) error {
	deadline := m.cfg.Clock.Now().Add(m.cfg.ConfirmTimeout)

	for {
		statuses, err := m.cfg.RPC.GetSignatureStatuses(ctx, false, sig)
		if err != nil {
			return fmt.Errorf("failed to fetch signature status: %w", err)
		}
		if len(statuses.Value) > 0 && statuses.Value[0] != nil {
			status := statuses.Value[0]
			if status.Err != nil {
				return fmt.Errorf("transaction %s failed on-chain: %v", sig, status.Err)
			}
			switch status.ConfirmationStatus {
			case solanarpc.ConfirmationStatusConfirmed, solanarpc.ConfirmationStatusFinalized:
				return nil
			}
		}

		if !m.cfg.Clock.Now().Add(m.cfg.PollInterval).Before(deadline) {
			return ErrConfirmationTimeout
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.cfg.Clock.After(m.cfg.PollInterval):
		}
	}
}
