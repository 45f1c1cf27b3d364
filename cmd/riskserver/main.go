// Command riskserver serves live traffic-accident risk predictions for the
// configured location registry.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	httpadapter "github.com/ljjun8453/BLEP-Contest/internal/adapter/http"
	kafkaadapter "github.com/ljjun8453/BLEP-Contest/internal/adapter/kafka"
	"github.com/ljjun8453/BLEP-Contest/internal/adapter/openweather"
	"github.com/ljjun8453/BLEP-Contest/internal/artifact"
	"github.com/ljjun8453/BLEP-Contest/internal/config"
	"github.com/ljjun8453/BLEP-Contest/internal/domain"
	"github.com/ljjun8453/BLEP-Contest/internal/inference"
	"github.com/ljjun8453/BLEP-Contest/internal/observability"
	"github.com/ljjun8453/BLEP-Contest/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	model, err := artifact.LoadModel(cfg.ModelPath)
	if err != nil {
		logger.Error("failed to load model", "path", cfg.ModelPath, "error", err)
		os.Exit(1)
	}
	meta, err := artifact.LoadMetadata(cfg.MetadataPath)
	if err != nil {
		logger.Error("failed to load metadata", "path", cfg.MetadataPath, "error", err)
		os.Exit(1)
	}
	locations, err := artifact.LoadLocations(cfg.LocationsPath)
	if err != nil {
		logger.Error("failed to load locations", "path", cfg.LocationsPath, "error", err)
		os.Exit(1)
	}
	predictor, err := inference.NewPredictor(model, meta)
	if err != nil {
		logger.Error("model and metadata do not match", "error", err)
		os.Exit(1)
	}
	logger.Info("artifacts loaded", "trees", model.NumTrees(), "locations", len(locations))

	// Weather provider: client -> rate limit + circuit breaker -> TTL cache.
	guardOpts := openweather.DefaultGuardOptions()
	guardOpts.RatePerSecond = cfg.OpenWeatherRateLimit
	var weather domain.WeatherProvider = openweather.NewGuardedProvider(
		openweather.NewClient(cfg.OpenWeatherKey, cfg.OpenWeatherURL, cfg.OpenWeatherTimeout, metrics, logger),
		guardOpts, metrics, logger,
	)
	if cfg.OpenWeatherCacheTTL > 0 {
		weather = openweather.NewCachedProvider(weather, cfg.OpenWeatherCacheTTL, metrics)
		logger.Info("weather cache enabled", "ttl", cfg.OpenWeatherCacheTTL)
	}

	// Prediction publishing (feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS).
	var opts []inference.Option
	var publisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		publisher = kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		opts = append(opts, inference.WithPublisher(publisher))
		logger.Info("prediction publishing enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("prediction publishing disabled")
	}

	svc := inference.NewService(predictor, locations, weather, logger, metrics, opts...)
	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, svc, cfg.KakaoJSKey, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	if publisher != nil && cfg.PublishInterval > 0 {
		popts := pipeline.DefaultOptions()
		popts.Interval = cfg.PublishInterval
		popts.MaxAttempts = cfg.PublishMaxAttempts
		p := pipeline.New(svc, publisher, logger, metrics, popts, nil)
		wg.Go(func() {
			if err := p.Run(ctx); err != nil {
				logger.Error("scheduled publisher error", "error", err)
			}
		})
	}

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	wg.Wait()
	svc.Wait()
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
