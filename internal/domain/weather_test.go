package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_MappedLabels(t *testing.T) {
	n := NewNormalizer(nil)

	for label, want := range DefaultWeatherMapping() {
		t.Run(label, func(t *testing.T) {
			weather, _ := n.Normalize(label, 10)
			assert.Equal(t, want, weather)
		})
	}
}

func TestNormalize_UnmappedLabelsDefault(t *testing.T) {
	n := NewNormalizer(nil)

	tests := []string{"Unknown-Label-X", "", "clear", "RAIN", "  Rain  "}
	for _, label := range tests {
		t.Run(label, func(t *testing.T) {
			weather, surface := n.Normalize(label, 20)
			assert.Equal(t, WeatherOvercast, weather)
			assert.Equal(t, SurfaceDry, surface)
		})
	}
}

func TestNormalize_RainSurfaceThreshold(t *testing.T) {
	n := NewNormalizer(nil)

	tests := []struct {
		name    string
		temp    float64
		surface string
	}{
		{"well below freezing", -2, SurfaceFrost},
		{"exactly zero", 0, SurfaceFrost},
		{"just above zero", 0.01, SurfaceWet},
		{"warm", 18.5, SurfaceWet},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			weather, surface := n.Normalize("Rain", tt.temp)
			assert.Equal(t, WeatherRain, weather)
			assert.Equal(t, tt.surface, surface)
		})
	}
}

func TestNormalize_FogAlwaysWet(t *testing.T) {
	n := NewNormalizer(nil)

	for _, temp := range []float64{-20, 0, 35} {
		weather, surface := n.Normalize("Mist", temp)
		assert.Equal(t, WeatherFog, weather)
		assert.Equal(t, SurfaceWet, surface)
	}
}

func TestNormalize_OtherCategoriesDry(t *testing.T) {
	n := NewNormalizer(nil)

	for _, label := range []string{"Clear", "Clouds", "Squall"} {
		for _, temp := range []float64{-10, 0, 30} {
			_, surface := n.Normalize(label, temp)
			assert.Equal(t, SurfaceDry, surface, "label %s temp %v", label, temp)
		}
	}
}

func TestNormalize_CustomMapping(t *testing.T) {
	n := NewNormalizer(WeatherMapping{"Snow": WeatherFog})

	weather, surface := n.Normalize("Snow", -5)
	assert.Equal(t, WeatherFog, weather)
	assert.Equal(t, SurfaceWet, surface)

	weather, _ = n.Normalize("Rain", -5)
	assert.Equal(t, WeatherOvercast, weather, "labels outside a custom mapping use the default")
}

func TestNormalize_SnowBelowFreezing(t *testing.T) {
	weather, surface := NewNormalizer(nil).Normalize("Snow", -3)
	assert.Equal(t, WeatherRain, weather)
	assert.Equal(t, SurfaceFrost, surface)
}

func TestAllowedCategories(t *testing.T) {
	for _, w := range AllowedWeather {
		assert.True(t, IsAllowedWeather(w))
	}
	for _, s := range AllowedSurface {
		assert.True(t, IsAllowedSurface(s))
	}
	assert.False(t, IsAllowedWeather("눈"))
	assert.False(t, IsAllowedSurface("적설"))
}
