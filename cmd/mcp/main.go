package main

import (
	"context"
	"flag"
	"os"

	"github.com/richard-senior/matchodds/internal/logger"
	"github.com/richard-senior/matchodds/pkg/config"
	"github.com/richard-senior/matchodds/pkg/ensemble"
	"github.com/richard-senior/matchodds/pkg/server"
	"github.com/richard-senior/matchodds/pkg/store"
	"github.com/richard-senior/matchodds/pkg/tools"
	"github.com/richard-senior/matchodds/pkg/transport"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file (defaults apply when omitted)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	// stdout belongs to the JSON-RPC stream
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
	if err := db.Migrate(context.Background()); err != nil {
		logger.Fatal("Failed to migrate database", err)
	}

	s := server.New("matchodds", version, transport.NewStdioTransport())
	s.RegisterTool(tools.PredictFixtureTool(), tools.NewPredictFixtureHandler(ensemble.New(db, cfg), cfg.HTTP.RequestTimeout))

	if err := s.Start(); err != nil {
		logger.Error("Server error:", err)
		os.Exit(1)
	}
	logger.Info("MCP server shutting down")
}
