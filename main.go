package main

import (
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"pharmsight/m/internal/api"
	"pharmsight/m/internal/config"
	"pharmsight/m/internal/database"
	"pharmsight/m/internal/features"
	"pharmsight/m/internal/migrations"
	"pharmsight/m/internal/prediction"
	"pharmsight/m/internal/seed"
	"pharmsight/m/internal/store"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg := config.Load()
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DatabaseDriver).Msg("failed to open database")
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}
	if cfg.SeedCatalog != "" {
		n, err := seed.LoadCatalog(db, cfg.SeedCatalog, cfg.SeedOrganization, time.Now())
		if err != nil {
			log.Error().Err(err).Str("path", cfg.SeedCatalog).Msg("unable to seed catalog")
		} else {
			log.Info().Int("products", n).Str("organization", cfg.SeedOrganization).Msg("seeded demo catalog")
		}
	}

	inventory := store.New(db)
	engine := features.NewEngine(inventory, features.SystemClock, cfg.SalesWindowDays)
	gateway := prediction.NewGateway(
		cfg.MLServiceURL,
		&http.Client{Timeout: cfg.PredictionTimeout},
		engine,
		log.With().Str("component", "prediction").Logger(),
	)

	handler := api.New(gateway, inventory, cfg.Secret, cfg.LowStockThreshold)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Info().Str("port", cfg.HTTPPort).Str("ml_service", cfg.MLServiceURL).Msg("inventory insight server starting")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server error")
	}
}
