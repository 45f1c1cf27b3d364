//go:build openweather

package openweather

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/ljjun8453/BLEP-Contest/internal/domain"
	"github.com/ljjun8453/BLEP-Contest/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests hit the real OpenWeather API and require a valid OPENWEATHER_KEY env var.
// Run with: go test -tags=openweather ./internal/adapter/openweather/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	key := os.Getenv("OPENWEATHER_KEY")
	if key == "" {
		t.Fatal("OPENWEATHER_KEY must be set to run smoke tests")
	}
	return NewClient(key, DefaultBaseURL, 10*time.Second, observability.NewMetricsForTesting(), discardLogger())
}

func TestSmoke_CurrentWeather(t *testing.T) {
	c := smokeClient(t)

	// Daegu city hall
	reading, err := c.CurrentWeather(context.Background(), 35.8714, 128.6014)
	require.NoError(t, err)

	assert.NotEmpty(t, reading.Label)
	assert.InDelta(t, 10, reading.TemperatureC, 40, "temperature should be plausible")

	weather, surface := domain.NewNormalizer(nil).Normalize(reading.Label, reading.TemperatureC)
	assert.True(t, domain.IsAllowedWeather(weather))
	assert.True(t, domain.IsAllowedSurface(surface))
}

func TestSmoke_GuardedCachedProvider(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	provider := NewCachedProvider(
		NewGuardedProvider(smokeClient(t), DefaultGuardOptions(), metrics, discardLogger()),
		time.Minute, metrics,
	)

	r1, err := provider.CurrentWeather(context.Background(), 35.8714, 128.6014)
	require.NoError(t, err)
	r2, err := provider.CurrentWeather(context.Background(), 35.8714, 128.6014)
	require.NoError(t, err)
	assert.Equal(t, r1, r2)
}
