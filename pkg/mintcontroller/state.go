package mintcontroller

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Config is the program's deployment-wide configuration account. It is
// written once by Initialize and never updated afterward.
type Config struct {
	Admin            solana.PublicKey
	AuthorizedServer solana.PublicKey
	Mint             solana.PublicKey
	CooldownSeconds  uint64
	Bump             uint8
}

func (c *Config) Marshal() ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := bin.NewBorshEncoder(buf).Encode(c); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return buf.Bytes(), nil
}

func UnmarshalConfig(data []byte) (Config, error) {
	var c Config
	if err := bin.NewBorshDecoder(data).Decode(&c); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return c, nil
}

// WalletState is the per-recipient cooldown account. It is created lazily on
// the first successful mint and never deleted.
type WalletState struct {
	LastMintTimestamp uint64
}

func (w *WalletState) Marshal() ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := bin.NewBorshEncoder(buf).Encode(w); err != nil {
		return nil, fmt.Errorf("failed to encode wallet state: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalWalletState decodes a wallet-state account. A zero-length account
// means the wallet has never been served and decodes as the zero state.
func UnmarshalWalletState(data []byte) (WalletState, error) {
	if len(data) == 0 {
		return WalletState{}, nil
	}
	var w WalletState
	if err := bin.NewBorshDecoder(data).Decode(&w); err != nil {
		return WalletState{}, fmt.Errorf("failed to decode wallet state: %w", err)
	}
	return w, nil
}
