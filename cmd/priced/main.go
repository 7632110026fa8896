package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"pricescope/internal/aggregator"
	rediscache "pricescope/internal/cache/redis"
	"pricescope/internal/chain"
	"pricescope/internal/config"
	"pricescope/internal/dex"
	"pricescope/internal/pricer"
	"pricescope/internal/server"
	"pricescope/internal/server/handler"
	"pricescope/internal/storage/postgres"
)

// Base mainnet defaults: USDC, WETH, AERO, and the Aerodrome pool factory.
const (
	defaultStableToken   = "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"
	defaultWrappedNative = "0x4200000000000000000000000000000000000006"
	defaultTrackedToken  = "0x940181a94A35A4569E4529A3CDfB74e38FD98631"
	defaultFactory       = "0x420DD381b31aEf6683db6B902084cB0FFECe40Da"
)

func main() {
	root := &cobra.Command{
		Use:          "priced",
		Short:        "USD price resolver for the staking dashboard",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the price API server",
		RunE:  runServe,
	}
	addResolverFlags(serveCmd)
	serveCmd.Flags().Int("port", 8080, "HTTP listen port")
	serveCmd.Flags().String("redis-addr", "", "redis address for a shared response cache")
	serveCmd.Flags().String("pg-dsn", "", "Postgres DSN for price snapshots")
	root.AddCommand(serveCmd)

	resolveCmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve prices once and print them as JSON",
		RunE:  runResolve,
	}
	addResolverFlags(resolveCmd)
	resolveCmd.Flags().StringSlice("addresses", nil, "token addresses (comma-separated)")
	root.AddCommand(resolveCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addResolverFlags(cmd *cobra.Command) {
	cmd.Flags().String("rpc", "", "chain RPC URL")
	cmd.Flags().String("chain", "base", "supported chain name")
	cmd.Flags().Uint64("chain-id", 8453, "supported chain id")
	cmd.Flags().String("aggregator-url", "https://coins.llama.fi", "price aggregator base URL")
	cmd.Flags().String("stable-token", defaultStableToken, "stable unit token address")
	cmd.Flags().String("wrapped-native-token", defaultWrappedNative, "wrapped native token address")
	cmd.Flags().String("tracked-token", defaultTrackedToken, "tracked reference token address")
	cmd.Flags().String("factory-address", defaultFactory, "pool factory address")
	cmd.Flags().Duration("call-timeout", 5*time.Second, "timeout per outbound call")
	cmd.Flags().Duration("cache-ttl", 30*time.Second, "response cache validity window")
	cmd.Flags().Int("fan-out", 4, "max concurrent on-chain lookups")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, cleanup, err := buildService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := server.NewServer(server.Config{Port: cfg.Port}, handler.NewPriceHandler(svc, logger), logger)

	logger.Info("priced start",
		zap.String("chain", cfg.ChainName),
		zap.Uint64("chain_id", cfg.ChainID),
		zap.String("aggregator", cfg.AggregatorURL),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("fan_out", cfg.FanOut),
		zap.Int("port", cfg.Port),
	)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runResolve(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		return err
	}

	addresses, err := cmd.Flags().GetStringSlice("addresses")
	if err != nil {
		return err
	}
	if len(addresses) == 0 {
		return fmt.Errorf("address list is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, cleanup, err := buildService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	prices := svc.Prices(ctx, cfg.ChainName, addresses)
	out, err := json.MarshalIndent(map[string]map[string]float64{"prices": prices}, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func buildService(ctx context.Context, cfg config.Config, logger *zap.Logger) (*pricer.Service, func(), error) {
	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect rpc: %w", err)
	}

	closers := []func(){chainClient.Close}
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	registry := dex.NewRegistry(chainClient, common.HexToAddress(cfg.FactoryAddr), cfg.CallTimeout)
	oracle := dex.NewOracle(chainClient, cfg.CallTimeout, logger)
	source := aggregator.NewClient(cfg.AggregatorURL, cfg.CallTimeout, logger)

	resolver := pricer.NewResolver(pricer.ResolverConfig{
		ChainName: cfg.ChainName,
		Tokens: pricer.Tokens{
			Stable:        common.HexToAddress(cfg.StableToken),
			WrappedNative: common.HexToAddress(cfg.WrappedNative),
			Tracked:       common.HexToAddress(cfg.TrackedToken),
		},
		FanOut: cfg.FanOut,
	}, source, registry, oracle, logger)

	var cache pricer.ResponseCache
	if cfg.RedisAddr != "" {
		redisCache, err := rediscache.NewResponseCache(ctx, cfg.RedisAddr, cfg.CacheTTL, logger)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, func() { redisCache.Close() })
		cache = redisCache
	} else {
		cache = pricer.NewMemoryCache(cfg.CacheTTL)
	}

	var store pricer.SnapshotStore
	if cfg.PGDSN != "" {
		pgStore, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		closers = append(closers, pgStore.Close)
		store = pgStore
	}

	return pricer.NewService(resolver, cache, store, cfg.ChainID, logger), cleanup, nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
