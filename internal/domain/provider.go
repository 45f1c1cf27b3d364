package domain

import "context"

// WeatherReading is a current-conditions observation from a weather provider.
type WeatherReading struct {
	Label        string  // provider "main" label, e.g. "Rain"
	TemperatureC float64 // DefaultTemperatureC when the provider omits it
}

// WeatherProvider looks up current conditions at a coordinate.
type WeatherProvider interface {
	CurrentWeather(ctx context.Context, lat, lon float64) (WeatherReading, error)
}

// GeocodingResult is the coordinate match for an address.
type GeocodingResult struct {
	Address string // address as normalized by the provider
	Lon     float64
	Lat     float64
}

// Found reports whether the geocoder matched the address.
func (r GeocodingResult) Found() bool {
	return r.Address != ""
}

// Geocoder resolves a free-form address to coordinates. An unmatched
// address returns a zero result and no error.
type Geocoder interface {
	ForwardGeocode(ctx context.Context, address string) (GeocodingResult, error)
}
