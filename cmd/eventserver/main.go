package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/milk9111/tycoon/eventbus"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type config struct {
	Addr              string
	AutoEventInterval time.Duration
	CoinRainCoins     int
}

func loadConfig(log zerolog.Logger) config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file")
	}
	cfg := config{Addr: ":8081", CoinRainCoins: 50}
	if v := os.Getenv("EVENTS_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("AUTO_EVENT_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Warn().Err(err).Str("value", v).Msg("bad AUTO_EVENT_INTERVAL, auto events disabled")
		} else {
			cfg.AutoEventInterval = d
		}
	}
	return cfg
}

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", "eventserver").Logger()
	cfg := loadConfig(log)

	hub := eventbus.NewHub(eventbus.HubOptions{
		AutoEventInterval: cfg.AutoEventInterval,
		CoinRainCoins:     cfg.CoinRainCoins,
		Logger:            log,
	})
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           eventbus.NewServer(hub, log).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run()
		return nil
	})
	g.Go(func() error {
		log.Info().Str("addr", cfg.Addr).Dur("auto_events", cfg.AutoEventInterval).Msg("event server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		hub.Stop()
		return err
	})
	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("event server failed")
	}
}
