package main

import (
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go"
	flag "github.com/spf13/pflag"

	"github.com/liquidgenlabs/faucet/pkg/mintcontroller"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	programIDFlag := flag.String("program-id", os.Getenv("MINT_CONTROLLER_PROGRAM_ID"), "mint-controller program id (or set MINT_CONTROLLER_PROGRAM_ID env var)")
	mintFlag := flag.String("mint", os.Getenv("LQG_MINT_ADDRESS"), "token mint address (or set LQG_MINT_ADDRESS env var)")
	flag.Parse()

	programID, err := solana.PublicKeyFromBase58(*programIDFlag)
	if err != nil {
		return fmt.Errorf("invalid program id %q: %w", *programIDFlag, err)
	}
	mint, err := solana.PublicKeyFromBase58(*mintFlag)
	if err != nil {
		return fmt.Errorf("invalid mint %q: %w", *mintFlag, err)
	}

	authority, bump, err := mintcontroller.DeriveMintAuthority(programID, mint)
	if err != nil {
		return fmt.Errorf("failed to derive mint authority: %w", err)
	}

	fmt.Printf("Mint authority PDA: %s (bump %d)\n", authority, bump)
	fmt.Printf("Transfer mint authority with:\n")
	fmt.Printf("  spl-token authorize %s mint %s\n", mint, authority)
	return nil
}
