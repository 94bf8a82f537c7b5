package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/tycoon/common"
	"github.com/milk9111/tycoon/profile"
	"github.com/rs/zerolog"
)

func newLogger(debug bool) zerolog.Logger {
	if debug {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
			Level(zerolog.DebugLevel).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).Level(zerolog.InfoLevel).With().Timestamp().Logger()
}

func main() {
	debug := flag.Bool("debug", false, "enable debug logging and prefab hot reload")
	modeName := flag.String("mode", "wave", "arena mode: wave or floor")
	savePath := flag.String("save", "profile.json", "local profile file")
	cloudURL := flag.String("cloud", "", "cloud save service base URL (e.g. http://localhost:8082)")
	profileID := flag.String("profile-id", "", "cloud profile id; a new one is created when empty")
	eventsURL := flag.String("events", "", "event server websocket URL (e.g. ws://localhost:8081/ws)")
	channel := flag.String("twitch-channel", "", "twitch channel whose chat earns coins")
	seed := flag.Uint64("seed", 0, "combat RNG seed, 0 picks one from the clock")
	baseMonitor := flag.Bool("m", false, "use base monitor instead of primary (for multi-monitor setups)")
	flag.Parse()

	log := newLogger(*debug)

	mode, err := profile.ParseMode(*modeName)
	if err != nil {
		log.Fatal().Err(err).Msg("bad -mode")
	}
	if *seed == 0 {
		*seed = uint64(time.Now().UnixNano())
	}

	if *baseMonitor {
		ebiten.SetMonitor(ebiten.AppendMonitors(nil)[0])
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	game, err := NewGame(ctx, Config{
		Debug:         *debug,
		Mode:          mode,
		SavePath:      *savePath,
		CloudURL:      *cloudURL,
		ProfileID:     *profileID,
		EventsURL:     *eventsURL,
		TwitchChannel: *channel,
		Seed:          *seed,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("start game")
	}

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(common.BaseWidth, common.BaseHeight)
	ebiten.SetWindowTitle("arena tycoon")

	runErr := ebiten.RunGame(game)
	if err := game.Shutdown(); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	if runErr != nil && runErr != ebiten.Termination {
		log.Fatal().Err(runErr).Msg("game loop")
	}
}
