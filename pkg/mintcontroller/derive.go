package mintcontroller

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

var (
	seedMintAuthority = []byte("mint-controller")
	seedWalletState   = []byte("wallet-state")
)

// DeriveMintAuthority returns the keyless signing authority for a mint. The
// returned bump is the unique value pushing the address off the ed25519
// curve; it is stored in Config at initialization and reused for every
// issuance signature.
func DeriveMintAuthority(programID, mint solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{seedMintAuthority, mint.Bytes()}, programID)
}

// DeriveWalletState returns the per-wallet cooldown account address.
func DeriveWalletState(programID, wallet solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{seedWalletState, wallet.Bytes()}, programID)
}

// AuthoritySeeds returns the full seed set, bump included, that the program
// signs issuance instructions with.
func AuthoritySeeds(mint solana.PublicKey, bump uint8) [][]byte {
	return [][]byte{seedMintAuthority, mint.Bytes(), {bump}}
}

// AuthorityForBump recomputes the derived authority for a stored bump. It
// fails if the bump does not produce a valid off-curve address.
func AuthorityForBump(programID, mint solana.PublicKey, bump uint8) (solana.PublicKey, error) {
	addr, err := solana.CreateProgramAddress(AuthoritySeeds(mint, bump), programID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid authority bump %d: %w", bump, err)
	}
	return addr, nil
}
