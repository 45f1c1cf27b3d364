package domain

// Weather categories.
const (
	WeatherClear    = "맑음"
	WeatherOvercast = "흐림"
	WeatherRain     = "비"
	WeatherFog      = "안개"
)

// Road surface categories.
const (
	SurfaceFrost = "서리/결빙"
	SurfaceWet   = "젖음/습기"
	SurfaceDry   = "건조"
)

// Defaults used when a weather or surface value cannot be determined.
const (
	DefaultWeather = WeatherOvercast
	DefaultSurface = SurfaceDry

	// DefaultTemperatureC is assumed when the provider omits a temperature.
	DefaultTemperatureC = 15.0
)

// AllowedWeather lists the weather categories the model is trained on.
var AllowedWeather = []string{WeatherClear, WeatherOvercast, WeatherRain, WeatherFog}

// AllowedSurface lists the surface categories the model is trained on.
var AllowedSurface = []string{SurfaceFrost, SurfaceWet, SurfaceDry}

// IsAllowedWeather reports whether w is one of the four weather categories.
func IsAllowedWeather(w string) bool {
	switch w {
	case WeatherClear, WeatherOvercast, WeatherRain, WeatherFog:
		return true
	default:
		return false
	}
}

// IsAllowedSurface reports whether s is one of the three surface categories.
func IsAllowedSurface(s string) bool {
	switch s {
	case SurfaceFrost, SurfaceWet, SurfaceDry:
		return true
	default:
		return false
	}
}

// WeatherMapping maps OpenWeather "main" condition labels to weather categories.
type WeatherMapping map[string]string

// DefaultWeatherMapping returns the provider label mapping persisted with
// every trained model. Snow is treated as rain; squalls and tornadoes as overcast.
func DefaultWeatherMapping() WeatherMapping {
	return WeatherMapping{
		"Clear":        WeatherClear,
		"Clouds":       WeatherOvercast,
		"Rain":         WeatherRain,
		"Drizzle":      WeatherRain,
		"Thunderstorm": WeatherRain,
		"Snow":         WeatherRain,
		"Mist":         WeatherFog,
		"Fog":          WeatherFog,
		"Haze":         WeatherFog,
		"Smoke":        WeatherFog,
		"Dust":         WeatherFog,
		"Sand":         WeatherFog,
		"Ash":          WeatherFog,
		"Squall":       WeatherOvercast,
		"Tornado":      WeatherOvercast,
	}
}

// Category returns the weather category for a provider label, or
// DefaultWeather when the label is not mapped.
func (m WeatherMapping) Category(label string) string {
	if w, ok := m[label]; ok {
		return w
	}
	return DefaultWeather
}

// Normalizer turns a provider reading into weather and surface categories.
type Normalizer struct {
	mapping WeatherMapping
}

// NewNormalizer creates a Normalizer. A nil mapping uses DefaultWeatherMapping.
func NewNormalizer(mapping WeatherMapping) *Normalizer {
	if mapping == nil {
		mapping = DefaultWeatherMapping()
	}
	return &Normalizer{mapping: mapping}
}

// Normalize maps a provider label and temperature to (weather, surface).
// It never fails; unknown labels degrade to DefaultWeather.
func (n *Normalizer) Normalize(label string, tempC float64) (weather, surface string) {
	weather = n.mapping.Category(label)
	return weather, PickSurface(weather, tempC)
}

// PickSurface derives the road surface from the weather category.
// Rain at or below freezing is treated as frost/ice.
func PickSurface(weather string, tempC float64) string {
	switch weather {
	case WeatherRain:
		if tempC <= 0 {
			return SurfaceFrost
		}
		return SurfaceWet
	case WeatherFog:
		return SurfaceWet
	default:
		return SurfaceDry
	}
}
