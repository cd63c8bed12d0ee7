package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"tunelink/internal/adapters/httpapi"
	"tunelink/internal/app"
	"tunelink/internal/config"
	"tunelink/internal/storage"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	var store storage.ChatStore
	switch cfg.Storage {
	case "mongo":
		store, err = storage.NewMongo(ctx, cfg.Mongo)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect storage")
		}
	default:
		store = storage.NewMemory()
		log.Warn().Msg("using in-memory storage, nothing is durable")
	}

	online, err := storage.NewOnlineStore(ctx, cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect redis")
	}

	hub := app.NewHub(store, online)
	r := httpapi.SetupRouter(ctx, cfg, hub)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("tunelink server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
