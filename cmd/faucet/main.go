package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/liquidgenlabs/faucet/pkg/cooldown"
	"github.com/liquidgenlabs/faucet/pkg/logger"
	"github.com/liquidgenlabs/faucet/pkg/metrics"
	"github.com/liquidgenlabs/faucet/pkg/minter"
	"github.com/liquidgenlabs/faucet/pkg/ratelimit"
	"github.com/liquidgenlabs/faucet/pkg/recaptcha"
	"github.com/liquidgenlabs/faucet/pkg/server"
)

var (
	// Set by LDFLAGS
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const (
	defaultRPCURL     = "https://api.devnet.solana.com"
	defaultListenAddr = "0.0.0.0:4000"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	verboseFlag := flag.Bool("verbose", false, "enable verbose (debug) logging")
	listenAddrFlag := flag.String("listen-addr", envOr("FAUCET_LISTEN_ADDR", defaultListenAddr), "address for the faucet API")
	metricsAddrFlag := flag.String("metrics-addr", envOr("FAUCET_METRICS_ADDR", ""), "address for prometheus metrics (empty = disabled)")
	rpcURLFlag := flag.String("rpc-url", envOr("RPC_URL", defaultRPCURL), "Solana RPC endpoint (or set RPC_URL env var)")
	mintFlag := flag.String("mint", os.Getenv("LQG_MINT_ADDRESS"), "token mint address (or set LQG_MINT_ADDRESS env var)")
	programIDFlag := flag.String("program-id", os.Getenv("MINT_CONTROLLER_PROGRAM_ID"), "mint-controller program id (or set MINT_CONTROLLER_PROGRAM_ID env var)")
	configAccountFlag := flag.String("config-account", os.Getenv("MINT_CONTROLLER_CONFIG_ACCOUNT"), "program config account (or set MINT_CONTROLLER_CONFIG_ACCOUNT env var)")
	keypairFlag := flag.String("keypair", envOr("SERVER_KEYPAIR", "./server-keypair.json"), "path to the authorized server keypair file")
	cooldownFlag := flag.Duration("cooldown", envDurationOr("FAUCET_COOLDOWN", time.Hour), "advisory local cooldown per wallet")
	rateWindowFlag := flag.Duration("rate-window", time.Minute, "sliding window duration for per-IP rate limiting")
	rateMaxFlag := flag.Int("rate-max", 60, "maximum requests per IP within the window")
	globalRPSFlag := flag.Float64("global-rps", 50, "global requests-per-second cap (0 = disabled)")
	maxAmountFlag := flag.Uint64("max-amount", 0, "maximum mint amount in base units (0 = no cap)")
	confirmTimeoutFlag := flag.Duration("confirm-timeout", 60*time.Second, "how long to wait for transaction confirmation")
	allowedOriginFlag := flag.String("allowed-origin", envOr("FAUCET_ALLOWED_ORIGIN", ""), "CORS allowed origin (empty = CORS disabled)")
	flag.Parse()

	log := logger.New(*verboseFlag)

	mint, err := solana.PublicKeyFromBase58(*mintFlag)
	if err != nil {
		return fmt.Errorf("invalid mint address %q: %w", *mintFlag, err)
	}
	programID, err := solana.PublicKeyFromBase58(*programIDFlag)
	if err != nil {
		return fmt.Errorf("invalid program id %q: %w", *programIDFlag, err)
	}
	configAccount, err := solana.PublicKeyFromBase58(*configAccountFlag)
	if err != nil {
		return fmt.Errorf("invalid config account %q: %w", *configAccountFlag, err)
	}
	serverKey, err := solana.PrivateKeyFromSolanaKeygenFile(*keypairFlag)
	if err != nil {
		return fmt.Errorf("failed to load server keypair from %s: %w", *keypairFlag, err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	limiter, err := ratelimit.New(ratelimit.Config{
		Window:      *rateWindowFlag,
		MaxRequests: *rateMaxFlag,
	})
	if err != nil {
		return err
	}

	cooldowns, err := cooldown.New(cooldown.Config{Window: *cooldownFlag})
	if err != nil {
		return err
	}

	m, err := minter.New(minter.Config{
		Logger:         log,
		RPC:            solanarpc.New(*rpcURLFlag),
		ProgramID:      programID,
		ConfigAccount:  configAccount,
		Mint:           mint,
		ServerKey:      serverKey,
		ConfirmTimeout: *confirmTimeoutFlag,
	})
	if err != nil {
		return err
	}

	cfg := server.Config{
		Logger:     log,
		ListenAddr: *listenAddrFlag,
		VersionInfo: server.VersionInfo{
			Version: version,
			Commit:  commit,
			Date:    date,
		},
		Minter:    m,
		Limiter:   limiter,
		Cooldowns: cooldowns,
		APIKey:    os.Getenv("FAUCET_API_KEY"),
		MaxAmount: *maxAmountFlag,
	}
	if *allowedOriginFlag != "" {
		cfg.AllowedOrigins = []string{*allowedOriginFlag}
	}
	if *globalRPSFlag > 0 {
		cfg.Global = ratelimit.NewGlobal(rate.Limit(*globalRPSFlag), int(*globalRPSFlag))
	}
	if secret := os.Getenv("RECAPTCHA_SECRET"); secret != "" {
		verifier, err := recaptcha.NewClient(recaptcha.Config{
			Logger: log,
			Secret: secret,
		})
		if err != nil {
			return err
		}
		cfg.Verifier = verifier
		log.Info("human verification enabled")
	}

	srv, err := server.New(cfg)
	if err != nil {
		return err
	}

	log.Info("starting faucet",
		"version", version,
		"rpc_url", *rpcURLFlag,
		"mint", mint,
		"program_id", programID,
		"server", serverKey.PublicKey(),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(ctx)
	})
	if *metricsAddrFlag != "" {
		metrics.BuildInfo.WithLabelValues(version, commit, date).Set(1)
		g.Go(func() error {
			return serveMetrics(ctx, log, *metricsAddrFlag)
		})
	}
	return g.Wait()
}

func serveMetrics(ctx context.Context, log *slog.Logger, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to start metrics listener: %w", err)
	}
	log.Info("prometheus metrics server listening", "address", listener.Addr().String())

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
