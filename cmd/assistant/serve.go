package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"smart-home-assistant/internal/infra/health"
	"smart-home-assistant/internal/infra/httpapi"
	"smart-home-assistant/internal/infra/mqtt"
	"smart-home-assistant/internal/infra/transcript"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, gRPC health service and voice bridge",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.Log)

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var publisher *mqtt.Publisher
	if cfg.MQTT.Enabled {
		client, err := mqtt.Connect(mqtt.Config{
			Host:     cfg.MQTT.Host,
			Port:     cfg.MQTT.Port,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
			ClientID: cfg.MQTT.ClientID,
		}, logger)
		if err != nil {
			return err
		}
		publisher = mqtt.NewPublisher(client, cfg.MQTT.Topic, cfg.MQTT.Retain, logger)
		a.registry.Subscribe(publisher.DeviceChanged)
		if err := publisher.PublishAll(a.registry.List("")); err != nil {
			logger.Warn("publishing initial device state", "error", err)
		}
		if err := publisher.WatchAvailability(a.registry); err != nil {
			logger.Warn("watching device availability", "error", err)
		}
	}

	server := httpapi.NewServer(cfg.Server.Addr, cfg.Server.AuthToken, cfg.Server.RateLimit, a.assistant, logger)
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting http api: %w", err)
	}

	var wg sync.WaitGroup

	var healthServer *health.Server
	if cfg.GRPC.Enabled {
		healthServer = health.New(cfg.GRPC.Addr, logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := healthServer.Listen(ctx); err != nil {
				logger.Error("grpc health server stopped", "error", err)
			}
		}()
		healthServer.SetServing(true)
	}

	if cfg.Voice.Enabled {
		source := transcript.NewFileSource(cfg.Voice.InboxDir, cfg.Voice.PollInterval, logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := a.assistant.Listen(ctx, source); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("voice bridge stopped", "error", err)
			}
		}()
	}

	logger.Info("smart home assistant running",
		"http_addr", cfg.Server.Addr,
		"grpc", cfg.GRPC.Enabled,
		"mqtt", cfg.MQTT.Enabled,
		"voice", cfg.Voice.Enabled,
	)

	<-ctx.Done()
	logger.Info("shutting down")

	if healthServer != nil {
		healthServer.SetServing(false)
	}
	if err := server.Stop(); err != nil {
		logger.Warn("stopping http api", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	a.shutdown(shutdownCtx)

	wg.Wait()
	if publisher != nil {
		publisher.Close()
	}
	return nil
}
