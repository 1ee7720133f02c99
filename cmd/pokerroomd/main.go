package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/coder/quartz"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/quadsuit/pokerroom/internal/server"
)

type CLI struct {
	Addr      string `kong:"help='Server address (overrides config file)'"`
	Config    string `kong:"default='pokerroom.hcl',help='Path to HCL configuration file'"`
	Debug     bool   `kong:"help='Enable debug logging'"`
	JWTSecret string `kong:"name='jwt-secret',env='POKERROOM_JWT_SECRET',help='JWT signing secret (overrides config file)'"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("pokerroomd"),
		kong.Description("Real-time multi-room poker server"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	cfg, err := server.LoadConfig(cli.Config)
	ctx.FatalIfErrorf(err)
	if cli.Addr != "" {
		cfg.Server.Addr = cli.Addr
	}
	if cli.JWTSecret != "" {
		cfg.Server.JWTSecret = cli.JWTSecret
	}
	ctx.FatalIfErrorf(cfg.Validate())

	level := parseLevel(cfg.Server.LogLevel)
	if cli.Debug {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().
		Timestamp().
		Logger()

	srv := server.NewServer(cfg, logger, quartz.NewReal())

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(sigCtx)
	group.Go(func() error {
		logger.Info().
			Str("addr", cfg.Server.Addr).
			Int("small_blind", cfg.Defaults.SmallBlind).
			Int("big_blind", cfg.Defaults.BigBlind).
			Int("turn_time_seconds", cfg.Defaults.TurnTimeSeconds).
			Msg("Server starting")
		if err := srv.Start(cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info().Msg("Shutting down gracefully...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error().Err(err).Msg("Server exited with error")
		os.Exit(1)
	}
	logger.Info().Msg("Server shutdown complete")
}

func parseLevel(s string) zerolog.Level {
	switch s {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
