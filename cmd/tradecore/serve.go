package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/zsmartex/tradecore/config"
	"github.com/zsmartex/tradecore/fees"
	"github.com/zsmartex/tradecore/notify"
	"github.com/zsmartex/tradecore/orders"
	"github.com/zsmartex/tradecore/risk"
	"github.com/zsmartex/tradecore/routes"
	"github.com/zsmartex/tradecore/routes/middlewares"
	"github.com/zsmartex/tradecore/server"
	"github.com/zsmartex/tradecore/settlement"
	"github.com/zsmartex/tradecore/workers/daemons"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the background jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			return serve(cfg)
		},
	}
}

func serve(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := openStore(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	table, err := cfg.FeeTable()
	if err != nil {
		return err
	}

	sink, closeSinks, err := notify.FromConfig(cfg.Notify)
	if err != nil {
		return err
	}
	defer closeSinks()

	publicKey, err := middlewares.ParsePublicKey(cfg.Auth.JWTPublicKey)
	if err != nil {
		return fmt.Errorf("invalid jwt public key: %w", err)
	}

	executor := settlement.NewExecutor(fees.NewCalculator(table, cfg.Fees.Lookback))
	engines := server.NewEngineServer(db, executor, sink)
	defer engines.Close()

	for _, symbol := range cfg.Server.Symbols {
		if err := engines.InitializeEngine(ctx, symbol); err != nil {
			return err
		}
	}

	manager := orders.NewManager(db, engines, risk.NewScreen(cfg.RiskConfig()), table, orders.Options{
		MarketPriceCeilingMultiplier: decimal.NewFromFloat(cfg.Trading.MarketPriceCeilingMultiplier),
		MinOrderSize:                 decimal.NewFromFloat(cfg.Trading.MinOrderSize),
		MaxOrderSize:                 decimal.NewFromFloat(cfg.Trading.MaxOrderSize),
		HistoryLimit:                 cfg.Trading.HistoryLimit,
	})

	cron := daemons.NewCronJob(engines, cfg.Jobs)
	cron.Start(ctx)

	app := routes.SetupRouter(manager, routes.Options{
		PublicKey:       publicKey,
		RateLimitWindow: cfg.RateLimit.Window,
		RateLimitMax:    cfg.RateLimit.Max,
	})

	errs := make(chan error, 1)
	go func() {
		errs <- app.Listen(fmt.Sprintf(":%d", cfg.Server.Port))
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	config.Logger.Infof("tradecore is listening on :%d", cfg.Server.Port)

	select {
	case err = <-errs:
	case <-sigChan:
		config.Logger.Info("Received shutdown signal")
		err = app.Shutdown()
	}

	cancel()
	cron.Wait()

	config.Logger.Info("tradecore stopped")

	return err
}
