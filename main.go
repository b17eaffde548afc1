package main

import (
	"context"
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ben-axnick/PFCloneLogic/automatic"
	"github.com/ben-axnick/PFCloneLogic/config"
)

// Runs a batch of bot-versus-bot games and prints the win rates.
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

	if path := os.Getenv("PUSHFIGHT_CPU_PROFILE"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			log.Fatal().Err(err).Msg("")
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal().Err(err).Msg("")
		}
		defer pprof.StopCPUProfile()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sig := make(chan os.Signal, 1)
	go func() {
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Info().Msg("got quit signal...")
		cancel()
	}()

	res, err := automatic.PlayCompVComp(ctx, cfg, automatic.Options{
		NumGames:   cfg.GetInt(config.ConfigSelfPlayGames),
		Threads:    1,
		MaxRounds:  cfg.GetInt(config.ConfigSelfPlayRounds),
		OutputFile: config.DataPath(cfg.GetString(config.ConfigSelfPlayLogPath)),
		Progress:   os.Stderr,
	})
	if err != nil {
		log.Error().Err(err).Msg("self-play-failed")
	}
	if res != nil {
		if err := res.Report(os.Stdout, 0.95); err != nil {
			log.Error().Err(err).Msg("report-failed")
		}
	}
}
