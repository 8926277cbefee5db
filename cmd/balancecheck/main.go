// Command balancecheck reports the value of crypto holdings across exchanges
// in one fiat currency, posts it to Slack, and keeps a history graph.
//
// Usage:
//
//	balancecheck run [--config config.yaml] [--dry-run] [--schedule "0 */6 * * *"] [--debug]
//	balancecheck setup [--out config.gen.yaml]
//
// Credentials come from the environment (or a .env file):
//
//	COINMARKETCAP_API_KEY, SLACK_WEBHOOK
//	BINANCE_API_KEY, BINANCE_API_SECRET
//	BYBIT_API_KEY, BYBIT_API_SECRET
//	COINBASE_API_KEY, COINBASE_API_SECRET
//	KUCOIN_API_KEY, KUCOIN_API_SECRET, KUCOIN_API_PASSPHRASE
//	NEWTON_CLIENT_ID, NEWTON_API_SECRET
//	HYPERLIQUID_PRIVATE_KEY
//	IMGUR_CLIENT_ID or S3_* for graph hosting
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/vadiminshakov/balancecheck/config"
	"github.com/vadiminshakov/balancecheck/internal"
	"github.com/vadiminshakov/balancecheck/internal/services/fiat"
	"github.com/vadiminshakov/balancecheck/internal/services/graph"
	"github.com/vadiminshakov/balancecheck/internal/setup"
	"github.com/vadiminshakov/balancecheck/internal/storage/history"
)

func main() {
	cmd := &cli.Command{
		Name:  "balancecheck",
		Usage: "Aggregate exchange balances into one fiat total",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Fetch balances, publish the report and update the history graph",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "path to yaml config",
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "print the report to the terminal, publish and persist nothing",
					},
					&cli.StringFlag{
						Name:  "schedule",
						Usage: "cron expression to keep running on, overrides the config file",
					},
					&cli.BoolFlag{
						Name:  "debug",
						Usage: "development logging",
					},
				},
				Action: runAction,
			},
			{
				Name:  "setup",
				Usage: "Interactive wizard writing the yaml config",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "out",
						Usage: "where to write the config",
						Value: setup.DefaultPath,
					},
				},
				Action: func(_ context.Context, cmd *cli.Command) error {
					return setup.RunTUI(cmd.String("out"))
				},
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	logger, err := newLogger(cmd.Bool("debug"))
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}
	dryRun := cmd.Bool("dry-run")
	if err := cfg.RequireMessaging(dryRun); err != nil {
		return err
	}

	store, err := history.NewWALStore(cfg.HistoryDir)
	if err != nil {
		return err
	}
	defer store.Close()

	uploader, err := internal.NewUploader(ctx, cfg, logger)
	if err != nil {
		return err
	}
	// fiat ids are resolved once per process
	ids := fiat.NewIDCache()

	runOnce := func(ctx context.Context) error {
		runLogger := logger.With(zap.String("run_id", uuid.NewString()))

		opts := []internal.WorkerOption{internal.WithUploader(uploader), internal.WithWorkerLogger(runLogger)}
		if dryRun {
			opts = append(opts, internal.WithDryRun(os.Stdout))
		}

		worker := internal.NewWorker(
			cfg.Fiat,
			internal.NewExchangesFromConfig(cfg, ids, runLogger),
			internal.NewPublisher(cfg, runLogger),
			store,
			graph.NewRenderer(cfg.GraphDir, cfg.SMAPeriod, runLogger),
			opts...,
		)
		_, err := worker.Run(ctx)
		return err
	}

	schedule := cmd.String("schedule")
	if schedule == "" {
		schedule = cfg.Schedule
	}
	if schedule == "" {
		return runOnce(ctx)
	}

	return internal.Schedule(ctx, schedule, func(ctx context.Context) {
		if err := runOnce(ctx); err != nil {
			logger.Error("balance check failed", zap.Error(err))
		}
	}, logger)
}
