package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/richard-senior/matchodds/internal/logger"
	"github.com/richard-senior/matchodds/pkg/api"
	"github.com/richard-senior/matchodds/pkg/config"
	"github.com/richard-senior/matchodds/pkg/ensemble"
	"github.com/richard-senior/matchodds/pkg/metrics"
	"github.com/richard-senior/matchodds/pkg/store"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file (defaults apply when omitted)")
	homeID := flag.Int64("home", 0, "Home team id")
	awayID := flag.Int64("away", 0, "Away team id")
	serve := flag.Bool("serve", false, "Serve the HTTP API instead of predicting one fixture")
	seedDemo := flag.Bool("seed-demo", false, "Write the demo league into the database first")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	// stdout carries the prediction JSON
	logger.SetOutput(os.Stderr)
	logger.SetShowDateTime(true)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))
	if *debug {
		logger.SetLevel(logger.DEBUG)
	}

	db, err := store.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("Failed to open database", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.Migrate(ctx); err != nil {
		logger.Fatal("Failed to migrate database", err)
	}
	if *seedDemo {
		if err := store.SeedDemo(ctx, db); err != nil {
			logger.Fatal("Failed to seed demo data", err)
		}
	}

	m := metrics.New()
	e := ensemble.New(db, cfg, ensemble.WithMetrics(m))

	if *serve {
		runServer(cfg, e, m)
		return
	}

	if *homeID == 0 || *awayID == 0 {
		if *seedDemo {
			return
		}
		logger.Error("Both -home and -away are required unless -serve is given")
		flag.Usage()
		os.Exit(2)
	}

	if cfg.HTTP.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.HTTP.RequestTimeout)
		defer cancel()
	}
	res, err := e.PredictFixture(ctx, *homeID, *awayID)
	if err != nil {
		logger.Error("Prediction failed", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		logger.Error("Failed to write result", err)
		os.Exit(1)
	}
}

// runServer serves the HTTP API until SIGINT or SIGTERM
func runServer(cfg *config.Config, e *ensemble.Ensemble, m *metrics.Metrics) {
	srv := api.NewServer(cfg, e, m)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			logger.Fatal("HTTP server error", err)
		}
	case sig := <-sigChan:
		logger.Info("Received signal:", sig)
		srv.Stop()
	}
	logger.Info("matchodds shutting down")
}
