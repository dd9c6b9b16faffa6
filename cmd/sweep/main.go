// Command sweep deletes expired one-time passcodes once and exits. Run it
// from cron or a scheduled job.
package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"konnectia/internal/config"
	"konnectia/internal/database"
	"konnectia/internal/dbx"
	"konnectia/internal/repositories"
	"konnectia/internal/services"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg := config.Load()
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal().Msg("DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := database.OpenPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Postgres")
	}
	defer db.Close()

	otps := services.NewOTPService(db, dbx.NewTransactor(db), repositories.NewPostgresManager(), nil, nil, nil, cfg.DefaultCountryCode)
	n, err := otps.CleanupExpired(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("OTP sweep failed")
	}
	log.Info().Int64("deleted", n).Msg("OTP sweep complete")
}
