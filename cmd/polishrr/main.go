package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/polishrr/polishrr/internal/api"
	"github.com/polishrr/polishrr/internal/arr"
	"github.com/polishrr/polishrr/internal/config"
	"github.com/polishrr/polishrr/internal/events"
	"github.com/polishrr/polishrr/internal/logger"
	"github.com/polishrr/polishrr/internal/scheduler"
	"github.com/polishrr/polishrr/internal/settings"
	"github.com/polishrr/polishrr/internal/upgrade"
	"github.com/polishrr/polishrr/internal/websocket"
)

func main() {
	// A missing .env file is not an error; the environment wins anyway.
	_ = godotenv.Load()

	configPath := flag.String("config", "", "path to config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("polishrr", config.Version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Path:       cfg.Logging.Path,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	defer log.Close()

	log.Info().Str("version", config.Version).Msg("starting polishrr")

	broker := events.NewBroker()
	hub := websocket.NewHub()
	go hub.Run()
	go bridgeEvents(broker, hub)

	retry := arr.RetryConfig{
		MaxAttempts: cfg.HTTP.MaxRetries,
		Backoff:     cfg.HTTP.Backoff(),
	}

	var movies upgrade.MovieCatalog
	if cfg.Radarr.Enabled {
		radarr, err := arr.NewRadarr(arr.ClientConfig{
			URL:     cfg.Radarr.URL,
			APIKey:  cfg.Radarr.APIKey,
			APIPath: cfg.Upgrade.APIPath,
			Timeout: cfg.HTTP.Timeout(),
			Retry:   retry,
			Logger:  log.Logger,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to configure radarr client")
		}
		movies = radarr
	}

	var series upgrade.SeriesCatalog
	if cfg.Sonarr.Enabled {
		sonarr, err := arr.NewSonarr(arr.ClientConfig{
			URL:     cfg.Sonarr.URL,
			APIKey:  cfg.Sonarr.APIKey,
			APIPath: cfg.Upgrade.APIPath,
			Timeout: cfg.HTTP.Timeout(),
			Retry:   retry,
			Logger:  log.Logger,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to configure sonarr client")
		}
		series = sonarr
	}

	if movies == nil && series == nil {
		log.Fatal().Msg("neither radarr nor sonarr is enabled, nothing to do")
	}

	collector := upgrade.NewCollector(movies, series, cfg.HTTP.MaxParallelRequests, log.Logger)
	recent := upgrade.NewRecentStore()
	engine := upgrade.NewEngine(movies, series, collector, recent, cfg.Upgrade.TagLabel, log.Logger)

	settingsStore := settings.NewStore(cfg.Settings.Path, log.Logger)

	coordinator := upgrade.NewCoordinator(engine, broker, func() upgrade.RunConfig {
		s := settingsStore.Get()
		return upgrade.RunConfig{
			ProcessMovies:     s.ProcessMovies,
			ProcessEpisodes:   s.ProcessEpisodes,
			MoviesToUpgrade:   s.MoviesToUpgrade,
			EpisodesToUpgrade: s.EpisodesToUpgrade,
		}
	}, log.Logger)

	sched, err := scheduler.New(log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create scheduler")
	}
	err = sched.Start(settingsStore.Get().Cron, func() {
		if _, err := coordinator.Trigger(upgrade.TargetBoth); err != nil {
			if errors.Is(err, upgrade.ErrRunInProgress) {
				log.Debug().Msg("scheduled run skipped, previous run still active")
				return
			}
			log.Error().Err(err).Msg("scheduled run failed to start")
		}
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}

	server := api.NewServer(cfg, engine, coordinator, settingsStore, broker, hub, sched, log.Logger)

	go func() {
		log.Info().Str("address", cfg.Server.Address()).Msg("http server listening")
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	sched.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("http server shutdown failed")
	}
	log.Info().Msg("stopped")
}

// bridgeEvents forwards run progress from the broker onto the WebSocket hub
// so browser clients see the same stream as SSE consumers.
func bridgeEvents(broker *events.Broker, hub *websocket.Hub) {
	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	for {
		ev, ok := sub.Next(context.Background())
		if !ok {
			return
		}
		_ = hub.Broadcast(ev.Type, ev)
	}
}
