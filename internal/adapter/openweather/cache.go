package openweather

import (
	"context"
	"fmt"
	"time"

	"github.com/ljjun8453/BLEP-Contest/internal/domain"
	"github.com/ljjun8453/BLEP-Contest/internal/observability"
	cache "github.com/patrickmn/go-cache"
)

// CachedProvider wraps a WeatherProvider with an in-memory TTL cache keyed by
// coordinates rounded to four decimal places (about 11 m).
type CachedProvider struct {
	inner   domain.WeatherProvider
	cache   *cache.Cache
	metrics *observability.Metrics
}

// NewCachedProvider creates a cache decorator around a provider. Entries
// expire after ttl.
func NewCachedProvider(inner domain.WeatherProvider, ttl time.Duration, metrics *observability.Metrics) *CachedProvider {
	return &CachedProvider{
		inner:   inner,
		cache:   cache.New(ttl, 2*ttl),
		metrics: metrics,
	}
}

func (c *CachedProvider) CurrentWeather(ctx context.Context, lat, lon float64) (domain.WeatherReading, error) {
	key := fmt.Sprintf("%.4f,%.4f", lat, lon)
	if v, ok := c.cache.Get(key); ok {
		if reading, ok := v.(domain.WeatherReading); ok {
			c.metrics.WeatherCache.WithLabelValues("hit").Inc()
			return reading, nil
		}
	}
	c.metrics.WeatherCache.WithLabelValues("miss").Inc()

	reading, err := c.inner.CurrentWeather(ctx, lat, lon)
	if err != nil {
		// Failures are not cached so the next request can recover.
		return reading, err
	}
	c.cache.Set(key, reading, cache.DefaultExpiration)
	return reading, nil
}

// Len returns the number of cached readings, including expired entries not
// yet swept.
func (c *CachedProvider) Len() int {
	return c.cache.ItemCount()
}
