package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"launch-sniper/internal/config"
	"launch-sniper/internal/engine"
	execstub "launch-sniper/internal/execution/stub"
	"launch-sniper/internal/lifecycle"
	"launch-sniper/internal/logging"
	"launch-sniper/internal/risk"
	"launch-sniper/internal/scheduler"
	"launch-sniper/internal/scoring"
	"launch-sniper/internal/sizing"
	"launch-sniper/internal/storage"
	chstorage "launch-sniper/internal/storage/clickhouse"
	"launch-sniper/internal/storage/memory"
	"launch-sniper/internal/storage/migrations"
	pgstore "launch-sniper/internal/storage/postgres"
	"launch-sniper/internal/venue"
	venuestub "launch-sniper/internal/venue/stub"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	dryRunBalance := flag.Float64("dry-run-balance", 100, "Starting balance for the stub executor")
	flag.Parse()

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger, *dryRunBalance); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("bot exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger, dryRunBalance float64) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	positions, trades, closeStores, err := buildStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStores()

	// The execution boundary currently ships with the stub backend only;
	// a chain-connected executor plugs in behind the same interface.
	exec := execstub.NewExecutor(dryRunBalance)
	logger.Info("using stub executor", zap.Float64("balance", dryRunBalance))

	scorer := scoring.New(scoring.Config{
		AcceptanceThreshold: cfg.Scoring.AcceptanceThreshold,
		BlacklistedTerms:    cfg.Scoring.BlacklistedTerms,
		LiquiditySaturation: cfg.Scoring.LiquiditySaturation,
		MinBasePrice:        cfg.Scoring.MinBasePrice,
		MaxBasePrice:        cfg.Scoring.MaxBasePrice,
	}, nil)

	sizer := sizing.New(sizing.Config{
		MaxAllocationPerToken: cfg.Risk.MaxAllocationPerToken,
		MinScoreFloor:         cfg.Risk.MinScoreFloor,
		MinTradeSize:          cfg.Risk.MinTradeSize,
	})

	gate := risk.NewGate(risk.Config{
		MaxAllocationPerToken: cfg.Risk.MaxAllocationPerToken,
		CooldownPeriod:        cfg.Risk.CooldownPeriod,
		MaxOpenPositions:      cfg.Risk.MaxOpenPositions,
	})

	manager := lifecycle.NewManager(lifecycle.Config{
		ConfirmationTimeout: cfg.Engine.ConfirmationTimeout,
		MaxSellRetries:      cfg.Engine.MaxSellRetries,
		StopLossPct:         cfg.Engine.StopLossPct,
		TakeProfitPct:       cfg.Engine.TakeProfitPct,
		MaxHoldDuration:     cfg.Engine.MaxHoldDuration,
		PriceStaleAfter:     cfg.Engine.PriceStaleAfter,
	}, exec, positions, trades, logger.Named("lifecycle"))

	if err := manager.Restore(ctx); err != nil {
		return fmt.Errorf("restore positions: %w", err)
	}

	source := buildSource(cfg, logger)
	go func() {
		if err := source.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("venue source stopped", zap.Error(err))
			cancel()
		}
	}()

	startAdminServer(ctx, cfg.Metrics.Addr, manager, gate, logger)

	sched := scheduler.New(logger.Named("scheduler"))
	if cfg.Engine.SummaryCron != "" {
		if err := sched.AddSummaryJob(ctx, cfg.Engine.SummaryCron, trades); err != nil {
			return err
		}
	}
	sched.Start()
	defer sched.Stop()

	eng := engine.New(engine.Config{
		PollInterval:    cfg.Engine.PollInterval,
		DrawdownHaltPct: cfg.Engine.DrawdownHaltPct,
	}, source, scorer, sizer, gate, manager, exec, logger.Named("engine"))

	logger.Info("engine starting",
		zap.Duration("poll_interval", cfg.Engine.PollInterval),
		zap.String("storage_backend", cfg.Storage.Backend),
		zap.Bool("stub_venue", cfg.Venue.UseStub))
	return eng.Run(ctx)
}

// buildStores selects the persistence backend and optionally fans trade
// records out to ClickHouse for analytics.
func buildStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (
	storage.PositionStore, storage.TradeRecordStore, func(), error) {

	closers := make([]func(), 0, 2)
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	var positions storage.PositionStore
	var trades storage.TradeRecordStore

	switch cfg.Storage.Backend {
	case "postgres":
		pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, nil, nil, err
		}
		closers = append(closers, pool.Close)
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			closeAll()
			return nil, nil, nil, fmt.Errorf("postgres migrations: %w", err)
		}
		positions = pgstore.NewPositionStore(pool)
		trades = pgstore.NewTradeRecordStore(pool)

	default:
		positions = memory.NewPositionStore()
		trades = memory.NewTradeRecordStore()
	}

	if cfg.Storage.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickhouseDSN)
		if err != nil {
			closeAll()
			return nil, nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		closers = append(closers, func() { conn.Close() })

		trades = storage.NewFanoutTradeRecordStore(trades, chstorage.NewTradeRecordStore(conn))
		logger.Info("trade records fan out to clickhouse")
	}

	return positions, trades, closeAll, nil
}

func buildSource(cfg *config.Config, logger *zap.Logger) venue.Source {
	if cfg.Venue.UseStub {
		logger.Info("using stub venue source")
		return venuestub.NewSource()
	}
	return venue.NewWSSource(cfg.Venue.WSEndpoint, cfg.Venue.ProgramID, logger.Named("venue"))
}

// startAdminServer serves Prometheus metrics and the manual-exit endpoint.
func startAdminServer(ctx context.Context, addr string, manager *lifecycle.Manager,
	gate *risk.Gate, logger *zap.Logger) {

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/exit", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		mint := r.URL.Query().Get("mint")
		if mint == "" {
			http.Error(w, "mint query parameter required", http.StatusBadRequest)
			return
		}
		if err := manager.RequestExit(mint); err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		logger.Info("manual exit requested", zap.String("mint", mint))
		fmt.Fprintln(w, "exit requested")
	})

	mux.HandleFunc("/resume", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		gate.Resume()
		logger.Info("admissions resumed by operator")
		fmt.Fprintln(w, "resumed")
	})

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("admin server failed", zap.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
}
