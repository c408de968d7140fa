package main

import (
	"log/slog"
	"os"

	"github.com/dhruvsaxena/splitsight/internal/api"
	"github.com/dhruvsaxena/splitsight/internal/auth"
	"github.com/dhruvsaxena/splitsight/internal/config"
	"github.com/dhruvsaxena/splitsight/internal/currency"
	"github.com/dhruvsaxena/splitsight/internal/service"
	"github.com/dhruvsaxena/splitsight/internal/storage/sqlite"
	"github.com/dhruvsaxena/splitsight/pkg/logging"
)

func main() {
	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	rates := currency.RateProvider(currency.DefaultTable())
	if cfg.RatesPath != "" {
		table, err := currency.LoadTable(cfg.RatesPath)
		if err != nil {
			slog.Error("failed to load rate table", "path", cfg.RatesPath, "error", err)
			os.Exit(1)
		}
		rates = table
		slog.Info("rate table loaded", "path", cfg.RatesPath)
	}

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("storage initialized", "database", cfg.DBPath)

	analysis := service.NewAnalysisService(
		rates, cfg.BaseCurrency, cfg.StrictIngest, cfg.AnomalyMultiplier, store)
	jwt := auth.NewJWTManager(cfg.JWTSecret, cfg.SessionTTL)

	if err := api.New(cfg, analysis, jwt).Start(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
