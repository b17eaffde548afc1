package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ben-axnick/PFCloneLogic/bot"
	"github.com/ben-axnick/PFCloneLogic/config"
)

func main() {
	cfg := config.DefaultConfig()
	if err := cfg.Load(os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("bad-config")
	}
	log.Info().Interface("settings", cfg.AllSettings()).Msg("loaded-config")

	if cfg.GetBool(config.ConfigDebug) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx, cancel := context.WithCancel(context.Background())
	idleConnsClosed := make(chan struct{})
	sig := make(chan os.Signal, 1)
	go func() {
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Info().Msg("got quit signal...")
		cancel()
	}()

	b := bot.NewBot(cfg)
	go func() {
		defer close(idleConnsClosed)
		if err := bot.Main(ctx, b); err != nil {
			log.Error().Err(err).Msg("bot-stopped")
		}
	}()

	<-idleConnsClosed
	b.Close()
	log.Info().Msg("server gracefully shutting down")
}
