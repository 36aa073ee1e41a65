package main

import (
	"context"
	"errors"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/mitchelldurbincs/TicTacToeRL/internal/config"
	"github.com/mitchelldurbincs/TicTacToeRL/internal/env"
	"github.com/mitchelldurbincs/TicTacToeRL/internal/experience"
	"github.com/mitchelldurbincs/TicTacToeRL/internal/grpc/envserver"
	"github.com/mitchelldurbincs/TicTacToeRL/internal/monitoring"
)

// ServeCmd serves registered environments over gRPC. Zero-valued flags fall back to config.
type ServeCmd struct {
	Host             string `help:"The server host"`
	Port             int    `help:"The server port"`
	MaxSessions      int    `help:"Maximum concurrent sessions"`
	EnableReflection bool   `help:"Enable gRPC reflection for debugging"`
	Record           bool   `help:"Record transitions for DrainExperiences"`
	Watch            bool   `help:"Reload the config file when it changes"`
}

func (c *ServeCmd) Run(g *Globals) error {
	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}
	grpcCfg := cfg.Server.GRPC
	if c.Host != "" {
		grpcCfg.Host = c.Host
	}
	if c.Port > 0 {
		grpcCfg.Port = c.Port
	}
	if c.MaxSessions > 0 {
		grpcCfg.MaxSessions = c.MaxSessions
	}
	grpcCfg.EnableReflection = grpcCfg.EnableReflection || c.EnableReflection

	registry := env.NewRegistry()
	if err := env.RegisterDefaults(registry); err != nil {
		return err
	}

	var buffer *experience.Buffer
	if c.Record || cfg.Experience.Enabled {
		buffer = experience.NewBuffer(cfg.Experience.Capacity, log.Logger)
		defer buffer.Close()
	}

	srv := envserver.NewServer(envserver.Options{
		Registry:    registry,
		MaxSessions: grpcCfg.MaxSessions,
		SessionTTL:  grpcCfg.SessionTTL,
		Buffer:      buffer,
		EventBus:    newEventBus(log.Logger),
		Logger:      log.Logger,
	})
	grpcServer, healthServer := envserver.NewGRPCServer(srv, envserver.GRPCOptions{
		EnableReflection: grpcCfg.EnableReflection,
		Logger:           log.Logger,
	})

	lis, err := net.Listen("tcp", grpcCfg.Address())
	if err != nil {
		return err
	}

	log.Info().
		Str("address", lis.Addr().String()).
		Strs("env_ids", registry.IDs()).
		Int("max_sessions", grpcCfg.MaxSessions).
		Dur("session_ttl", grpcCfg.SessionTTL).
		Bool("reflection", grpcCfg.EnableReflection).
		Bool("record", buffer != nil).
		Msg("Starting gRPC environment server")

	if c.Watch {
		config.WatchConfig(func(updated *config.Config, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("Ignoring invalid config change")
				return
			}
			// Only the log level is applied live; everything else takes effect on restart.
			setupLogging(updated.Logging.Level, updated.Logging.Format)
			log.Info().Str("file", config.ConfigFilePath()).Msg("Config reloaded")
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	grp, ctx := errgroup.WithContext(ctx)

	reaper := srv.Sessions().Run(ctx)
	if cfg.Monitoring.Enabled {
		monitor := monitoring.NewGoroutineMonitor(monitoring.Options{
			Interval:   cfg.Monitoring.Interval,
			Threshold:  cfg.Monitoring.GoroutineThreshold,
			Logger:     log.Logger,
			Components: map[string]func() int{"env_sessions": srv.Sessions().Count},
		})
		monitorDone := monitor.Start(ctx)
		defer func() { <-monitorDone }()
	}

	grp.Go(func() error {
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return err
		}
		return nil
	})

	grp.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("Shutting down gRPC server")

		envserver.SetNotServing(healthServer)
		// Give in-flight requests time to complete
		time.Sleep(grpcCfg.GracefulShutdownDelay)

		grpcServer.GracefulStop()
		<-reaper
		srv.Sessions().CloseAll()
		return nil
	})

	err = grp.Wait()
	log.Info().Msg("Server shutdown complete")
	return err
}
