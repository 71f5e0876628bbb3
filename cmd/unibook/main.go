package main

import (
	"context"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	zlog "github.com/rs/zerolog/log"

	"unibook/internal/api/rest"
	"unibook/internal/book"
	"unibook/internal/cluster"
	"unibook/internal/config"
	"unibook/internal/exchange/binance"
	"unibook/internal/exchange/bittrex"
	"unibook/internal/exchange/common"
	"unibook/internal/exchange/poloniex"
	"unibook/internal/fetch"
	"unibook/internal/infra/health"
	"unibook/internal/infra/http/middleware"
	"unibook/internal/infra/log"
	"unibook/internal/infra/metrics"
	"unibook/internal/infra/netutil"
	"unibook/internal/infra/network"
	"unibook/internal/infra/runner"
	"unibook/internal/infra/version"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		zlog.Fatal().Err(err).Msg("configuration invalid")
	}
	logger := log.NewLogger(cfg)

	if id, isWorker := cluster.WorkerID(); isWorker || cfg.Cluster.Workers == 1 {
		if err := runWorker(ctx, cfg, logger, id); err != nil {
			logger.Fatal().Err(err).Msg("worker failed")
		}
		return
	}

	// Supervisor process: fork the workers and keep them alive.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		s := <-sigCh
		logger.Info().Str("signal", s.String()).Msg("shutdown signal received")
		cancel()
	}()
	if err := cluster.Supervise(ctx, cfg.Cluster.Workers, logger); err != nil {
		logger.Fatal().Err(err).Msg("supervisor failed")
	}
	logger.Info().Msg("supervisor shutdown complete")
}

func runWorker(ctx context.Context, cfg config.Config, logger log.Logger, workerID int) error {
	adapters := []common.Adapter{
		bittrex.New(cfg.Exchanges.Bittrex),
		poloniex.New(cfg.Exchanges.Poloniex),
		binance.New(cfg.Exchanges.Binance),
	}
	sources := make([]book.Source, 0, len(adapters))
	for _, ad := range adapters {
		sources = append(sources, ad.Name())
	}
	orch := fetch.New(adapters, time.Duration(cfg.Fetch.TimeoutSeconds)*time.Second, logger)
	api := rest.New(orch, sources, time.Duration(cfg.Stream.IntervalSeconds)*time.Second, logger)

	registry := metrics.Init(logger)
	mux := http.NewServeMux()

	var bucket *network.TokenBucket
	if cfg.Server.RateLimitRPS > 0 {
		bucket = network.NewTokenBucket(cfg.Server.RateLimitBurst, cfg.Server.RateLimitRPS)
	}
	mux.Handle("/api", middleware.Throttle(bucket, api.Handler()))
	mux.Handle("/ws", api.Handler())

	// admin endpoints behind IP allowlist gate
	adminCIDRs := netutil.MustParseCIDRs(cfg.Server.AdminAllowCIDRs)
	mux.Handle("/metrics", middleware.AdminGate(adminCIDRs, metrics.Handler(registry)))
	mux.HandleFunc("/healthz", health.Healthz)
	mux.HandleFunc("/readyz", health.Readyz)
	mux.HandleFunc("/version", version.Handler)
	if cfg.Server.Pprof {
		mux.Handle("/debug/pprof/", middleware.AdminGate(adminCIDRs, http.HandlerFunc(pprof.Index)))
		mux.Handle("/debug/pprof/cmdline", middleware.AdminGate(adminCIDRs, http.HandlerFunc(pprof.Cmdline)))
		mux.Handle("/debug/pprof/profile", middleware.AdminGate(adminCIDRs, http.HandlerFunc(pprof.Profile)))
		mux.Handle("/debug/pprof/symbol", middleware.AdminGate(adminCIDRs, http.HandlerFunc(pprof.Symbol)))
		mux.Handle("/debug/pprof/trace", middleware.AdminGate(adminCIDRs, http.HandlerFunc(pprof.Trace)))
	}

	handler := middleware.RequestID(middleware.Logger(logger)(mux))
	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:       time.Duration(cfg.Server.IdleTimeoutSeconds) * time.Second,
	}

	// Every worker binds the same address; SO_REUSEPORT lets the kernel
	// balance accepted connections between them.
	ln, err := network.ListenReuseport(ctx, cfg.Server.Addr)
	if err != nil {
		return err
	}

	g := &runner.Group{}
	serveErrCh := g.Go(ctx, func(ctx context.Context) error {
		if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	health.SetReady(true)
	logger.Info().Int("worker", workerID).Str("addr", cfg.Server.Addr).Msg("order book worker listening")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-ctx.Done():
	case s := <-sigCh:
		logger.Info().Int("worker", workerID).Str("signal", s.String()).Msg("shutdown signal received")
	case err := <-serveErrCh:
		if err != nil {
			health.SetReady(false)
			return err
		}
	}

	health.SetReady(false)
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	g.Wait()
	logger.Info().Int("worker", workerID).Msg("worker shutdown complete")
	return nil
}
