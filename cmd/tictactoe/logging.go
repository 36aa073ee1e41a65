package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mitchelldurbincs/TicTacToeRL/internal/config"
	"github.com/mitchelldurbincs/TicTacToeRL/internal/game/events"
	"github.com/mitchelldurbincs/TicTacToeRL/internal/game/events/subscribers"
)

// loadConfig initializes the global config and logging from the shared flags.
// APP_ENV selects an optional config.<env>.yaml overlay.
func loadConfig(g *Globals) (*config.Config, error) {
	if err := config.Init(g.Config); err != nil {
		return nil, err
	}
	if err := config.LoadEnvironmentConfig(os.Getenv("APP_ENV")); err != nil {
		return nil, err
	}
	cfg := config.Get()

	level := cfg.Logging.Level
	if g.LogLevel != "" {
		level = g.LogLevel
	}
	setupLogging(level, cfg.Logging.Format)
	return cfg, nil
}

func setupLogging(level, format string) {
	logLevel, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		logLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	if os.Getenv("APP_ENV") == "production" || format == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		})
	}
}

// newEventBus returns a bus whose events are logged at debug level.
func newEventBus(logger zerolog.Logger) *events.EventBus {
	bus := events.NewEventBus(logger)
	bus.Subscribe(subscribers.NewLoggerSubscriber("cli_event_logger", logger, zerolog.DebugLevel))
	return bus
}
