// Sweeper marks stale ringing sessions as missed. A session only rings for so
// long; when neither participant resolves it within RING_TIMEOUT, this process
// applies the missed transition so history and the callee's client converge.
// Run one instance per deployment; the conditional transition makes concurrent
// sweeps safe but redundant.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	accountrepo "wavewords/core/internal/account/repository"
	historyrepo "wavewords/core/internal/callhistory/repository"
	historyservice "wavewords/core/internal/callhistory/service"
	sessionrepo "wavewords/core/internal/callsession/repository"
	sessionservice "wavewords/core/internal/callsession/service"
	"wavewords/core/internal/config"
	"wavewords/core/internal/db"
	"wavewords/core/internal/media"
	storesync "wavewords/core/internal/sync"
	"wavewords/core/internal/telemetry/otel"
	"wavewords/core/internal/telemetry/producer"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	if cfg.Env == "production" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "wavewords-sweeper", cfg.OTLPInsecure)
	if err != nil {
		log.Fatal().Err(err).Msg("telemetry")
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = providers.Shutdown(shutdownCtx)
	}()

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db")
	}
	defer conn.Close()

	accounts := accountrepo.NewPostgresRepository(conn)
	sessions := sessionrepo.NewPostgresRepository(conn)
	entries := historyrepo.NewPostgresRepository(conn)

	hub := storesync.NewHub()
	emitter := producer.NewKafkaProducer(cfg.KafkaBrokersList(), cfg.CallEventsKafkaTopic)
	defer emitter.Close()

	recorder := historyservice.NewService(entries, accounts, hub, cfg.HistoryLimit, log.Logger)
	svc := sessionservice.NewService(
		sessions,
		accounts,
		recorder,
		media.LogTransport{Log: log.Logger},
		emitter,
		hub,
		log.Logger,
	)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info().Msg("sweeper: shutting down...")
		cancel()
	}()

	timeout := cfg.RingTimeoutDuration()
	interval := cfg.SweepIntervalDuration()
	log.Info().
		Dur("ring_timeout", timeout).
		Dur("interval", interval).
		Msg("sweeper: started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("sweeper: stopped")
			return
		case <-ticker.C:
			sweepCtx, sweepCancel := context.WithTimeout(ctx, interval)
			n, err := svc.SweepStale(sweepCtx, timeout)
			sweepCancel()
			if err != nil {
				log.Error().Err(err).Msg("sweeper: sweep failed")
				continue
			}
			if n > 0 {
				log.Info().Int("missed", n).Msg("sweeper: marked stale sessions missed")
			}
		}
	}
}
