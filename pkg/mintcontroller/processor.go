// Package mintcontroller models the on-chain authorization program: the
// cooldown-enforcing state machine that co-signs token issuance through a
// derived, keyless authority. The program itself is stateless; everything it
// knows lives in the accounts a transaction declares.
package mintcontroller

import (
	"errors"
	"fmt"
	"log/slog"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/jonboulle/clockwork"
)

// Account is the program's view of one declared account: its address,
// whether it signed the transaction, and its data.
type Account struct {
	Key      solana.PublicKey
	IsSigner bool
	Data     []byte
}

// TokenIssuer performs the underlying asset-issuance operation that the
// program invokes with the derived authority's seed signature. On a real
// ledger this is the cross-program invocation into the token program.
type TokenIssuer interface {
	MintTo(mint, recipient, authority solana.PublicKey, amount uint64, decimals uint8, signerSeeds [][]byte) error
}

type ProcessorConfig struct {
	Logger    *slog.Logger
	ProgramID solana.PublicKey
	Issuer    TokenIssuer

	// Clock supplies the ledger's notion of current time.
	Clock clockwork.Clock
}

func (cfg *ProcessorConfig) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.ProgramID.IsZero() {
		return errors.New("program id is required")
	}
	if cfg.Issuer == nil {
		return errors.New("token issuer is required")
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return nil
}

type Processor struct {
	log *slog.Logger
	cfg ProcessorConfig
}

func NewProcessor(cfg ProcessorConfig) (*Processor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Processor{
		log: cfg.Logger,
		cfg: cfg,
	}, nil
}

// Process executes one instruction against the declared accounts. Any error
// means the surrounding transaction must be rolled back in full.
func (p *Processor) Process(accounts []*Account, data []byte) error {
	ix, err := DecodeInstruction(data)
	if err != nil {
		return err
	}

	switch ix := ix.(type) {
	case Initialize:
		return p.initialize(accounts, ix)
	case FaucetMint:
		return p.faucetMint(accounts, ix)
	default:
		return ErrInvalidInstructionData
	}
}

// Initialize accounts, in order: admin (signer), config, mint,
// authorized server.
const numInitializeAccounts = 4

func (p *Processor) initialize(accounts []*Account, ix Initialize) error {
	if len(accounts) < numInitializeAccounts {
		return ErrNotEnoughAccounts
	}
	admin, configAcc, mintAcc, serverAcc := accounts[0], accounts[1], accounts[2], accounts[3]

	if !admin.IsSigner {
		return ErrMissingRequiredSignature
	}

	_, bump, err := DeriveMintAuthority(p.cfg.ProgramID, mintAcc.Key)
	if err != nil {
		return fmt.Errorf("failed to derive mint authority: %w", err)
	}

	cfg := Config{
		Admin:            admin.Key,
		AuthorizedServer: serverAcc.Key,
		Mint:             mintAcc.Key,
		CooldownSeconds:  ix.CooldownSeconds,
		Bump:             bump,
	}

	data, err := cfg.Marshal()
	if err != nil {
		return err
	}
	configAcc.Data = data

	p.log.Info("mintcontroller: initialized",
		"admin", admin.Key,
		"authorized_server", serverAcc.Key,
		"mint", mintAcc.Key,
		"cooldown_seconds", ix.CooldownSeconds,
		"bump", bump,
	)
	return nil
}

// FaucetMint accounts, in order: authorized server (signer), config, wallet
// state, mint, token program, recipient token account, derived authority.
const numFaucetMintAccounts = 7

func (p *Processor) faucetMint(accounts []*Account, ix FaucetMint) error {
	if len(accounts) < numFaucetMintAccounts {
		return ErrNotEnoughAccounts
	}
	serverAcc := accounts[0]
	configAcc := accounts[1]
	walletAcc := accounts[2]
	mintAcc := accounts[3]
	recipientAcc := accounts[5]
	authorityAcc := accounts[6]

	if !serverAcc.IsSigner {
		return ErrMissingRequiredSignature
	}

	cfg, err := UnmarshalConfig(configAcc.Data)
	if err != nil {
		return err
	}
	if !serverAcc.Key.Equals(cfg.AuthorizedServer) {
		return ErrUnauthorized
	}
	if !mintAcc.Key.Equals(cfg.Mint) {
		return ErrMintMismatch
	}

	state, err := UnmarshalWalletState(walletAcc.Data)
	if err != nil {
		return err
	}

	now := uint64(p.cfg.Clock.Now().Unix())
	if now < state.LastMintTimestamp || now-state.LastMintTimestamp < cfg.CooldownSeconds {
		return ErrCooldownActive
	}

	authority, err := AuthorityForBump(p.cfg.ProgramID, cfg.Mint, cfg.Bump)
	if err != nil {
		return err
	}
	if !authorityAcc.Key.Equals(authority) {
		return ErrInvalidAuthority
	}

	// Decimals come from the live mint account, never from cached state.
	var mintState token.Mint
	if err := bin.NewBinDecoder(mintAcc.Data).Decode(&mintState); err != nil {
		return fmt.Errorf("failed to decode mint account: %w", err)
	}

	seeds := AuthoritySeeds(cfg.Mint, cfg.Bump)
	if err := p.cfg.Issuer.MintTo(cfg.Mint, recipientAcc.Key, authority, ix.Amount, mintState.Decimals, seeds); err != nil {
		return fmt.Errorf("issuance failed: %w", err)
	}

	state.LastMintTimestamp = now
	data, err := state.Marshal()
	if err != nil {
		return err
	}
	walletAcc.Data = data

	p.log.Info("mintcontroller: minted",
		"recipient", recipientAcc.Key,
		"amount", ix.Amount,
		"timestamp", now,
	)
	return nil
}
