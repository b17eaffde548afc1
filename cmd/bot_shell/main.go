package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ben-axnick/PFCloneLogic/bot"
	"github.com/ben-axnick/PFCloneLogic/config"
	"github.com/ben-axnick/PFCloneLogic/shell"
)

// A shell whose bot turns are planned by a remote plan service.
func main() {
	cfg := config.DefaultConfig()
	if err := cfg.Load(os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("bad-config")
	}
	if cfg.GetBool(config.ConfigDebug) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	nc, err := nats.Connect(cfg.GetString(config.ConfigNatsURL), nats.Name("pushfight-bot-shell"))
	if err != nil {
		log.Fatal().Err(err).Msg("nats-connect")
	}
	defer nc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	idleConnsClosed := make(chan struct{})
	sig := make(chan os.Signal, 1)
	go func() {
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Info().Msg("got quit signal...")
		cancel()
		close(idleConnsClosed)
	}()

	sc := shell.NewShellController(cfg)
	sc.SetRemote(bot.NewClient(nc, cfg.GetString(config.ConfigNatsSubject)))
	go sc.Loop(ctx, sig)

	<-idleConnsClosed
	log.Info().Msg("server gracefully shutting down")
}
