package main

import (
	"context"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/Borislavv/refptr/internal/demo"
	"github.com/Borislavv/refptr/pkg/config"
	"github.com/Borislavv/refptr/pkg/k8s/probe/liveness"
	"github.com/Borislavv/refptr/pkg/shutdown"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.uber.org/automaxprocs/maxprocs"
)

const (
	configPath      = "refptr.cfg.yaml"
	configPathLocal = "refptr.cfg.local.yaml"
)

// setMaxProcs sets GOMAXPROCS according to the cgroup CPU quota (uses automaxprocs).
func setMaxProcs() {
	if _, err := maxprocs.Set(); err != nil {
		log.Err(err).Msg("[main] setting up GOMAXPROCS value failed")
		panic(err)
	}
	log.Info().Msgf("[main] optimized GOMAXPROCS=%d was set up", runtime.GOMAXPROCS(0))
}

// loadCfg prefers the local config file and falls back to the default one.
func loadCfg() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPathLocal)
	if err != nil {
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			log.Err(err).Msg("[config] failed to load")
			return nil, err
		} else {
			log.Info().Msgf("[config] config loaded from '%v'", configPath)
		}
	} else {
		log.Info().Msgf("[config] config loaded from '%v'", configPathLocal)
	}
	return cfg, nil
}

func setLogLevel(cfg *config.Config) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Logs.Level))
	if err != nil {
		log.Warn().Msgf("[main] unknown log level '%s', keeping info", cfg.Logs.Level)
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

// newLogger writes JSON lines in prod and plain console lines anywhere else.
func newLogger(cfg *config.Config, out io.Writer) zerolog.Logger {
	if !cfg.IsProd() {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: true}
	}
	return zerolog.New(out).With().Timestamp().Logger()
}

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	setMaxProcs()

	cfg, err := loadCfg()
	if err != nil {
		log.Err(err).Msg("[main] failed to load config")
		return 1
	}
	setLogLevel(cfg)
	log.Logger = newLogger(cfg, os.Stderr)

	if out, err := cfg.YAML(); err == nil {
		log.Debug().Msgf("[config] effective config:\n%s", out)
	}

	gracefulShutdown := shutdown.NewGraceful(ctx, cancel)
	gracefulShutdown.SetGracefulTimeout(cfg.Shutdown.Timeout)

	probe := liveness.NewProbe(liveness.DefaultInterval)

	app, err := demo.NewApp(ctx, cfg, probe)
	if err != nil {
		log.Err(err).Msg("[main] failed to init demo app")
		return 1
	}

	gracefulShutdown.Add(1)
	go func() {
		app.Start(gracefulShutdown)
		// nothing is served any more, let the process go
		cancel()
	}()

	if err = gracefulShutdown.ListenCancelAndAwait(); err != nil {
		log.Err(err).Msg("[main] failed to gracefully shut down service")
		return 1
	}

	if err = app.Err(); err != nil {
		return 1
	}
	return 0
}
