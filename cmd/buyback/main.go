package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"

	"github.com/liquidgenlabs/faucet/pkg/buyback"
	"github.com/liquidgenlabs/faucet/pkg/logger"
)

const defaultRPCURL = "https://api.devnet.solana.com"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	verboseFlag := flag.Bool("verbose", false, "enable verbose (debug) logging")
	rpcURLFlag := flag.String("rpc-url", envOr("RPC_URL", defaultRPCURL), "Solana RPC endpoint (or set RPC_URL env var)")
	treasuryFlag := flag.String("treasury", os.Getenv("TREASURY_TOKEN_ACCOUNT"), "treasury token account (or set TREASURY_TOKEN_ACCOUNT env var)")
	thresholdFlag := flag.Uint64("threshold", 0, "base-unit balance at which a swap plan is written")
	targetMintFlag := flag.String("target-mint", os.Getenv("LQG_MINT_ADDRESS"), "mint a swap would buy (or set LQG_MINT_ADDRESS env var)")
	planPathFlag := flag.String("plan-path", "./swap-plan.json", "where to write the swap plan JSON")
	flag.Parse()

	log := logger.New(*verboseFlag)

	treasury, err := solana.PublicKeyFromBase58(*treasuryFlag)
	if err != nil {
		return fmt.Errorf("invalid treasury account %q: %w", *treasuryFlag, err)
	}
	targetMint, err := solana.PublicKeyFromBase58(*targetMintFlag)
	if err != nil {
		return fmt.Errorf("invalid target mint %q: %w", *targetMintFlag, err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	worker, err := buyback.New(buyback.Config{
		Logger:          log,
		RPC:             solanarpc.New(*rpcURLFlag),
		TreasuryAccount: treasury,
		Threshold:       *thresholdFlag,
		TargetMint:      targetMint,
		PlanPath:        *planPathFlag,
	})
	if err != nil {
		return err
	}
	return worker.Run(ctx)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
