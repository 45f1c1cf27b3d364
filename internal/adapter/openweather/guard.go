package openweather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ljjun8453/BLEP-Contest/internal/domain"
	"github.com/ljjun8453/BLEP-Contest/internal/observability"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// ErrRejected is returned when a request is refused locally, either because
// the circuit is open or because the rate limiter could not admit it in time.
var ErrRejected = errors.New("weather request rejected")

// GuardOptions configures the rate limiter and circuit breaker.
type GuardOptions struct {
	RatePerSecond    float64       // <= 0 disables rate limiting
	Burst            int           // defaults to 1
	FailureThreshold uint32        // consecutive failures that open the circuit
	OpenTimeout      time.Duration // time spent open before a half-open probe
}

// DefaultGuardOptions allows 10 requests per second and opens the circuit
// after 5 consecutive failures for 30 seconds.
func DefaultGuardOptions() GuardOptions {
	return GuardOptions{
		RatePerSecond:    10,
		Burst:            1,
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
	}
}

// GuardedProvider rate-limits calls to a provider and fails fast while the
// provider keeps failing.
type GuardedProvider struct {
	inner   domain.WeatherProvider
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[domain.WeatherReading]
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewGuardedProvider wraps inner with a limiter and a circuit breaker.
func NewGuardedProvider(inner domain.WeatherProvider, opts GuardOptions, metrics *observability.Metrics, logger *slog.Logger) *GuardedProvider {
	g := &GuardedProvider{
		inner:   inner,
		metrics: metrics,
		logger:  logger,
	}
	if opts.RatePerSecond > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), burst)
	}
	threshold := opts.FailureThreshold
	if threshold == 0 {
		threshold = 1
	}
	g.breaker = gobreaker.NewCircuitBreaker[domain.WeatherReading](gobreaker.Settings{
		Name:        "openweather",
		MaxRequests: 1,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: g.onStateChange,
		IsSuccessful: func(err error) bool {
			// A cancelled caller says nothing about the provider's health.
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return g
}

func (g *GuardedProvider) CurrentWeather(ctx context.Context, lat, lon float64) (domain.WeatherReading, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			g.metrics.WeatherRequests.WithLabelValues("rejected").Inc()
			return domain.WeatherReading{}, fmt.Errorf("%w: rate limit: %w", ErrRejected, err)
		}
	}

	reading, err := g.breaker.Execute(func() (domain.WeatherReading, error) {
		return g.inner.CurrentWeather(ctx, lat, lon)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		g.metrics.WeatherRequests.WithLabelValues("rejected").Inc()
		return domain.WeatherReading{}, fmt.Errorf("%w: %w", ErrRejected, err)
	}
	return reading, err
}

// State returns the current circuit breaker state.
func (g *GuardedProvider) State() gobreaker.State {
	return g.breaker.State()
}

func (g *GuardedProvider) onStateChange(name string, from, to gobreaker.State) {
	g.logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
	if to == gobreaker.StateOpen {
		g.metrics.WeatherBreakerOpen.Set(1)
	} else {
		g.metrics.WeatherBreakerOpen.Set(0)
	}
}
