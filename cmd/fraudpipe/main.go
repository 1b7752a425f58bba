package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fraudpipe/internal/augment"
	"fraudpipe/internal/cfg"
	"fraudpipe/internal/common"
	"fraudpipe/internal/dashboard"
	"fraudpipe/internal/dataset"
	"fraudpipe/internal/decision"
	"fraudpipe/internal/metrics"
	"fraudpipe/internal/scoring"
	"fraudpipe/internal/storage"
	"fraudpipe/internal/training"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML config file (overrides CONFIG_FILE)")
		dataPath   = flag.String("data", "", "Path to the labeled CSV dataset (overrides config)")
		epochs     = flag.Int("epochs", 0, "Epoch count (overrides config)")
		logLevel   = flag.String("log-level", "info", "Log level: debug, info, warn, error")
		dryRun     = flag.Bool("dry-run", false, "Load, split, and augment only; skip the trainer")
	)
	flag.Parse()

	// Setup logging
	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Best-effort .env bootstrap before reading configuration
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("Failed to load .env file")
	}

	if *configPath != "" {
		os.Setenv(common.EnvConfigFile, *configPath)
	}

	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	// Override config with command line arguments
	if *dataPath != "" {
		c.DataPath = *dataPath
	}
	if *epochs > 0 {
		c.Epochs = *epochs
	}

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize metrics and expose the Prometheus endpoint
	m := metrics.New()
	mw := metrics.NewWrapper(m)
	go func() {
		addr := fmt.Sprintf(":%d", c.MetricsPort)
		log.Info().Str("addr", addr).Msg("Serving Prometheus metrics on /metrics")
		if err := http.ListenAndServe(addr, promhttp.Handler()); err != nil {
			log.Error().Err(err).Msg("Metrics server failed")
		}
	}()

	// Load, split, augment
	loader := dataset.NewLoader(c.DataPath)
	ds, err := loader.Load()
	if err != nil {
		m.ErrorsTotal.Inc()
		log.Fatal().Err(err).Msg("Failed to load dataset")
	}
	mw.RecordsLoadedSet(float64(len(ds)))

	split, err := dataset.NewSplitter(ds, c.TestSetSize).Split()
	if err != nil {
		m.ErrorsTotal.Inc()
		log.Fatal().Err(err).Msg("Failed to split dataset")
	}

	train, err := augment.BalanceWithMetrics(split.Train, c.TargetMagnitude, nil, mw)
	if err != nil {
		m.ErrorsTotal.Inc()
		log.Fatal().Err(err).Msg("Failed to augment train set")
	}

	if *dryRun {
		minority, majority := train.MinorityMajority()
		log.Info().
			Int("train", len(train)).
			Int("test", len(split.Test)).
			Int("train_minority", len(minority)).
			Int("train_majority", len(majority)).
			Msg("Dry run complete, skipping trainer")
		return
	}

	// Run history store (optional)
	var store *storage.Store
	if c.StorePath != "" {
		store, err = storage.New(c.StorePath)
		if err != nil {
			m.ErrorsTotal.Inc()
			log.Fatal().Err(err).Msg("Failed to open run store")
		}
		defer store.Close()
	}

	trainLog, err := training.NewFileLog(c.TrainLogPath)
	if err != nil {
		m.ErrorsTotal.Inc()
		log.Fatal().Err(err).Msg("Failed to open training log")
	}
	defer trainLog.Close()

	// Live evaluation dashboard (optional)
	var board *dashboard.Dashboard
	if c.DashboardPort != 0 {
		board = dashboard.New(c.DashboardPort)
		if err := board.Start(); err != nil {
			m.ErrorsTotal.Inc()
			log.Fatal().Err(err).Msg("Failed to start dashboard")
		}
		defer board.Stop()
	}

	// Ship the prepared datasets to the external training service
	trainer := training.NewRemote(c.TrainerURL, c.RESTTimeout)
	uploadCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	err = trainer.Upload(uploadCtx, train, split.Test, c.BatchSize, c.LearningRate)
	cancel()
	if err != nil {
		m.ErrorsTotal.Inc()
		log.Fatal().Err(err).Msg("Failed to upload datasets to trainer")
	}

	evaluator, err := scoring.NewEvaluatorWithMetrics(common.ClassFraud, c.Beta, mw)
	if err != nil {
		m.ErrorsTotal.Inc()
		log.Fatal().Err(err).Msg("Failed to create evaluator")
	}

	loopCfg := training.Config{Epochs: c.Epochs}
	if c.DecisionClass != "" {
		loopCfg.Threshold = &decision.Threshold{Class: c.DecisionClass, Min: c.DecisionMin}
	}

	collab := training.Collaborators{TrainLog: trainLog, Metrics: mw}
	if store != nil {
		collab.Store = store
	}
	if board != nil {
		collab.Publisher = board
	}

	loop, err := training.NewLoop(loopCfg, trainer, evaluator, collab)
	if err != nil {
		m.ErrorsTotal.Inc()
		log.Fatal().Err(err).Msg("Failed to create training loop")
	}

	if err := loop.Run(ctx, split.Test); err != nil {
		m.ErrorsTotal.Inc()
		log.Fatal().Err(err).Msg("Training run failed")
	}

	best, _ := loop.Best()
	log.Info().Float64("best_f_beta", best).Msg("Pipeline finished")
}
