package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/DanielFallaP/airport-weather/internal/config"
	"github.com/DanielFallaP/airport-weather/internal/httpapi"
	"github.com/DanielFallaP/airport-weather/internal/metrics"
	weather "github.com/DanielFallaP/airport-weather/internal/modules/weather"
	"github.com/DanielFallaP/airport-weather/internal/modules/weather/repository"
	"github.com/DanielFallaP/airport-weather/internal/modules/weather/service"
	"github.com/DanielFallaP/airport-weather/internal/modules/weather/usage"
	"github.com/DanielFallaP/airport-weather/internal/mqtt"
	"github.com/DanielFallaP/airport-weather/internal/seed"
)

// Run serves the weather API until ctx is cancelled, the exit endpoint is
// hit, or the HTTP server fails.
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	logger.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"seedFile", cfg.SeedFile,
		"seedSQLitePath", cfg.SeedSQLitePath,
		"mqttBroker", cfg.MQTTBroker,
		"mqttPort", cfg.MQTTPort,
		"mqttTopic", cfg.MQTTTopic,
		"metricsEnabled", cfg.MetricsEnabled,
		"adminExitEnabled", cfg.AdminExitEnabled,
		"freshnessWindow", cfg.FreshnessWindow,
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stations, err := seed.Resolve(ctx, cfg, logger)
	if err != nil {
		return err
	}

	repo := repository.NewRepository(nil)
	opts := []service.Option{
		service.WithLogger(logger),
		service.WithFreshnessWindow(cfg.FreshnessWindow),
	}

	var (
		recorder       *metrics.Recorder
		metricsHandler http.Handler
	)
	if cfg.MetricsEnabled {
		recorder = metrics.NewRecorder(repo.Count)
		metricsHandler = recorder.Handler()
		opts = append(opts, service.WithMetrics(recorder))
	}

	svc := service.NewService(repo, usage.NewTracker(), opts...)
	if err := svc.Reinitialize(stations); err != nil {
		return err
	}

	var exit func()
	if cfg.AdminExitEnabled {
		exit = cancel
	}

	mux := httpapi.NewMux(svc, metricsHandler)

	// The handler must be attached before Connect: the broker may deliver
	// retained messages right after CONNACK.
	var subscriber *mqtt.Subscriber
	if cfg.MQTTBroker != "" {
		var rec mqtt.MessageRecorder
		if recorder != nil {
			rec = recorder
		}
		subscriber, err = mqtt.NewSubscriber(cfg, logger, rec)
		if err != nil {
			return err
		}
		weather.RegisterFeature(mux, svc, subscriber, logger, exit)

		// Short timeout so a missing broker does not block the HTTP surface.
		connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
		err = subscriber.Connect(connectCtx)
		connectCancel()
		if err != nil {
			logger.Warn("mqtt connection failed (continuing without mqtt)", "error", err)
		}
	} else {
		weather.RegisterFeature(mux, svc, nil, logger, exit)
		logger.Info("mqtt disabled")
	}

	srv := httpapi.NewServer(cfg, mux, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if subscriber != nil {
			subscriber.Disconnect()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if subscriber != nil {
		logger.Info("mqtt disconnecting")
		subscriber.Disconnect()
	}

	logger.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}
