package inference

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ljjun8453/BLEP-Contest/internal/domain"
	"github.com/ljjun8453/BLEP-Contest/internal/observability"
)

// Publisher receives every completed prediction batch.
type Publisher interface {
	PublishBatch(ctx context.Context, batch domain.PredictionBatch) error
}

// Service predicts the current risk for every registry location. Its
// collaborators and registry are fixed at startup.
type Service struct {
	predictor *Predictor
	locations []domain.Location
	weather   domain.WeatherProvider
	publisher Publisher
	logger    *slog.Logger
	metrics   *observability.Metrics

	publishTimeout time.Duration
	inflight       sync.WaitGroup
}

// DefaultPublishTimeout bounds one background publish of a request pass.
const DefaultPublishTimeout = 10 * time.Second

// Option configures optional Service collaborators.
type Option func(*Service)

// WithPublisher forwards each Predict batch to p in the background, after
// the predictions are returned.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithPublishTimeout bounds each background publish.
func WithPublishTimeout(d time.Duration) Option {
	return func(s *Service) { s.publishTimeout = d }
}

// NewService creates a Service. A nil weather provider makes every location
// use the default weather.
func NewService(predictor *Predictor, locations []domain.Location, weather domain.WeatherProvider, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Service {
	s := &Service{
		predictor: predictor,
		locations: append([]domain.Location(nil), locations...),
		weather:   weather,
		logger:    logger,
		metrics:   metrics,

		publishTimeout: DefaultPublishTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	metrics.LocationsLoaded.Set(float64(len(s.locations)))
	metrics.ModelTrees.Set(float64(predictor.NumTrees()))

	var unknown int
	for _, loc := range s.locations {
		if !predictor.Locations().Contains(loc.ModelKey()) {
			unknown++
		}
	}
	if unknown > 0 {
		logger.Warn("registry locations not seen during training will predict 0", "count", unknown)
	}
	return s
}

// CheckReadiness reports whether the service has anything to serve.
func (s *Service) CheckReadiness(_ context.Context) error {
	if len(s.locations) == 0 {
		return errors.New("location registry is empty")
	}
	return nil
}

// observation is the outcome of one weather lookup. A failed lookup carries
// the default weather pair.
type observation struct {
	weather  string
	surface  string
	fallback bool
}

func (s *Service) observe(ctx context.Context, loc domain.Location) observation {
	if s.weather == nil {
		return observation{weather: domain.DefaultWeather, surface: domain.DefaultSurface, fallback: true}
	}
	reading, err := s.weather.CurrentWeather(ctx, loc.Y, loc.X)
	if err != nil {
		s.logger.Warn("weather lookup failed, using default",
			"address", loc.Address, "lat", loc.Y, "lon", loc.X, "error", err)
		s.metrics.WeatherFallbacks.Inc()
		return observation{weather: domain.DefaultWeather, surface: domain.DefaultSurface, fallback: true}
	}
	weather, surface := s.predictor.Normalize(reading.Label, reading.TemperatureC)
	return observation{weather: weather, surface: surface}
}

// Predict scores every registry location in order. It never fails: a
// weather failure uses the default weather and a prediction failure yields
// 0. The result has one element per location. With a publisher configured
// the pass is also published in the background; Predict never waits for it.
func (s *Service) Predict(ctx context.Context) []domain.Prediction {
	out := s.score(ctx)
	s.publish(ctx, out)
	return out
}

// Snapshot runs a prediction pass without publishing it and stamps it as a
// batch.
func (s *Service) Snapshot(ctx context.Context) domain.PredictionBatch {
	return newBatch(s.score(ctx))
}

func (s *Service) score(ctx context.Context) []domain.Prediction {
	start := time.Now()
	out := make([]domain.Prediction, len(s.locations))
	for i, loc := range s.locations {
		obs := s.observe(ctx, loc)
		key := loc.ModelKey()

		risk, err := s.predictor.Score(key, obs.weather, obs.surface)
		if err != nil {
			s.logger.Warn("prediction failed, reporting 0",
				"address", key, "weather", obs.weather, "surface", obs.surface, "error", err)
			s.metrics.Predictions.WithLabelValues("error").Inc()
			risk = 0
		} else {
			s.metrics.Predictions.WithLabelValues("success").Inc()
		}

		out[i] = domain.Prediction{
			X:           domain.Round5(loc.X),
			Y:           domain.Round5(loc.Y),
			Address:     loc.DisplayLabel(),
			ExpectRisk:  domain.Round5(risk),
			OpenWeather: obs.weather,
			ModelKey:    key,
		}
	}
	s.metrics.PredictionDuration.Observe(time.Since(start).Seconds())
	return out
}

// Inspections derives the dashboard inspection list from a fresh prediction
// pass, in registry order. The pass is not published.
func (s *Service) Inspections(ctx context.Context) []domain.Inspection {
	preds := s.score(ctx)
	out := make([]domain.Inspection, len(preds))
	for i, p := range preds {
		out[i] = domain.NewInspection(i+1, s.locations[i], p.ExpectRisk)
	}
	return out
}

// publish hands the batch to the publisher on its own goroutine. The publish
// outlives the request context but not publishTimeout.
func (s *Service) publish(ctx context.Context, preds []domain.Prediction) {
	if s.publisher == nil || len(preds) == 0 {
		return
	}
	batch := newBatch(preds)
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer cancel()

		if err := s.publisher.PublishBatch(pubCtx, batch); err != nil {
			s.logger.Error("publish predictions failed", "batch_id", batch.ID, "error", err)
			s.metrics.PublishErrors.Inc()
			return
		}
		s.metrics.MessagesPublished.Add(float64(len(batch.Predictions)))
		s.logger.Debug("predictions published", "batch_id", batch.ID, "count", len(batch.Predictions))
	}()
}

// Wait blocks until every background publish has finished.
func (s *Service) Wait() {
	s.inflight.Wait()
}

func newBatch(preds []domain.Prediction) domain.PredictionBatch {
	return domain.PredictionBatch{
		ID:          uuid.NewString(),
		PredictedAt: domain.Now(),
		Predictions: preds,
	}
}
