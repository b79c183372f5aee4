package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"
	"github.com/mcdev12/housecup/go/internal/leaderboard/client"
	"github.com/mcdev12/housecup/go/internal/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	level, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	config, err := loadConfig(getEnv("LEADERBOARD_CONFIG", ""))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	applyEnv(&config)

	metrics := client.NewPrometheusMetrics(getEnv("METRICS_NAMESPACE", "housecup"))

	session, err := client.NewSession(config, client.WithMetrics(metrics))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create leaderboard session")
	}

	log.Info().
		Str("session_id", session.ID()).
		Str("url", config.Connection.URL).
		Str("window", string(config.DefaultWindow)).
		Msg("starting leaderboard client")

	server := setupServer(client.NewStateHandler(session, metrics.Handler()))

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := session.Run(ctx); err != nil {
			log.Error().Err(err).Msg("leaderboard session failed")
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		renderUpdates(session.Updates())
	}()

	if interval := getEnvAsDuration("RECONNECT_INTERVAL", 0); interval > 0 {
		policy := newReconnectPolicy(clockwork.NewRealClock(), interval, session)
		wg.Add(1)
		go func() {
			defer wg.Done()
			policy.Run(ctx)
		}()
	}

	if err := session.Connect(); err != nil {
		log.Fatal().Err(err).Msg("failed to connect")
	}
	if getEnvAsBool("START_LIVE", false) {
		if err := session.StartLive(); err != nil {
			log.Error().Err(err).Msg("failed to request live stream")
		}
	}

	// Start HTTP server
	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	cancel()
	wg.Wait()

	log.Info().Msg("leaderboard client shutdown complete")
}

// renderUpdates stands in for a renderer and logs each published state
func renderUpdates(updates <-chan models.AggregateState) {
	for state := range updates {
		event := log.Debug().
			Uint64("version", state.Version).
			Str("connection", string(state.Connection)).
			Str("stream", string(state.Stream)).
			Str("window", string(state.Window)).
			Interface("totals", state.Totals)
		if state.NotificationVisible && state.LatestEvent != nil {
			event = event.
				Str("category", string(state.LatestEvent.Category)).
				Int("points", state.LatestEvent.Points)
		}
		event.Msg("leaderboard updated")
	}
}
