package domain

import (
	"errors"
	"fmt"
)

// ErrUnknownLocation is matched by UnknownLocationError via errors.Is.
var ErrUnknownLocation = errors.New("unknown location")

// UnknownLocationError reports a location absent from the training vocabulary.
type UnknownLocationError struct {
	Location string
}

func (e *UnknownLocationError) Error() string {
	return fmt.Sprintf("location %q not seen during training", e.Location)
}

// Is makes errors.Is(err, ErrUnknownLocation) true.
func (e *UnknownLocationError) Is(target error) bool {
	return target == ErrUnknownLocation
}

// FeatureRow is one model input assembled from categories and their averages.
type FeatureRow struct {
	Location string
	Weather  string
	Surface  string

	LocationAverage float64
	WeatherAverage  float64
	SurfaceAverage  float64

	// Values holds the model input in the metadata's feature order.
	// Categorical columns carry vocabulary codes (NaN when absent).
	Values []float64
}

// FeatureBuilder assembles FeatureRows using the vocabularies and average
// tables persisted at training time. It is immutable after construction.
type FeatureBuilder struct {
	order []string

	locations Vocabulary
	weathers  Vocabulary
	surfaces  Vocabulary

	locationAvg AverageTable
	weatherAvg  AverageTable
	surfaceAvg  AverageTable
}

// NewFeatureBuilder creates a FeatureBuilder from validated metadata.
func NewFeatureBuilder(meta *Metadata) (*FeatureBuilder, error) {
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	b := &FeatureBuilder{
		order:       append([]string(nil), meta.FeatureOrder...),
		locations:   NewVocabulary(ColumnLocation, meta.Categories[ColumnLocation]),
		weathers:    NewVocabulary(ColumnWeather, meta.Categories[ColumnWeather]),
		surfaces:    NewVocabulary(ColumnSurface, meta.Categories[ColumnSurface]),
		locationAvg: NewAverageTable(ColumnLocationAverage, meta.Averages[ColumnLocationAverage]),
		weatherAvg:  NewAverageTable(ColumnWeatherAverage, meta.Averages[ColumnWeatherAverage]),
		surfaceAvg:  NewAverageTable(ColumnSurfaceAverage, meta.Averages[ColumnSurfaceAverage]),
	}
	for _, col := range b.order {
		if _, err := b.column(FeatureRow{}, col); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Locations returns the location vocabulary.
func (b *FeatureBuilder) Locations() Vocabulary { return b.locations }

// FeatureOrder returns the model input column order.
func (b *FeatureBuilder) FeatureOrder() []string {
	return append([]string(nil), b.order...)
}

// Build assembles the FeatureRow for a location under the given weather and
// surface. Unknown locations fail with *UnknownLocationError; weather and
// surface outside the allowed categories are coerced to defaults.
func (b *FeatureBuilder) Build(location, weather, surface string) (FeatureRow, error) {
	if !b.locations.Contains(location) {
		return FeatureRow{}, &UnknownLocationError{Location: location}
	}
	if !IsAllowedWeather(weather) {
		weather = DefaultWeather
	}
	if !IsAllowedSurface(surface) {
		surface = DefaultSurface
	}

	row := FeatureRow{
		Location:        location,
		Weather:         weather,
		Surface:         surface,
		LocationAverage: b.locationAvg.Lookup(location),
		WeatherAverage:  b.weatherAvg.Lookup(weather),
		SurfaceAverage:  b.surfaceAvg.Lookup(surface),
	}

	row.Values = make([]float64, len(b.order))
	for i, col := range b.order {
		v, err := b.column(row, col)
		if err != nil {
			return FeatureRow{}, err
		}
		row.Values[i] = v
	}
	return row, nil
}

func (b *FeatureBuilder) column(row FeatureRow, col string) (float64, error) {
	switch col {
	case ColumnLocation:
		return b.locations.Encode(row.Location), nil
	case ColumnWeather:
		return b.weathers.Encode(row.Weather), nil
	case ColumnSurface:
		return b.surfaces.Encode(row.Surface), nil
	case ColumnLocationAverage:
		return row.LocationAverage, nil
	case ColumnWeatherAverage:
		return row.WeatherAverage, nil
	case ColumnSurfaceAverage:
		return row.SurfaceAverage, nil
	default:
		return 0, fmt.Errorf("unsupported feature column %q", col)
	}
}
