package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/milk9111/tycoon/savesvc"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", "savesvc").Logger()
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file")
	}
	addr := getenv("SAVESVC_ADDR", ":8082")
	dsn := getenv("SAVESVC_DSN", "saves.db")

	gin.SetMode(gin.ReleaseMode)
	repo, err := savesvc.Open(dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer repo.Close()

	srv := &http.Server{
		Addr:              addr,
		Handler:           savesvc.NewHandler(repo, log).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", addr).Str("dsn", dsn).Msg("save service listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("save service failed")
	}
}
