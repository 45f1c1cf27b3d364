package domain

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"
)

// Dataset and feature column names.
const (
	ColumnLocation = "시군구"
	ColumnWeather  = "기상상태"
	ColumnSurface  = "노면상태"
	ColumnTarget   = "사고위험도"

	ColumnLocationAverage = "지역평균위험도"
	ColumnWeatherAverage  = "기상평균위험도"
	ColumnSurfaceAverage  = "노면평균위험도"
)

// FeatureOrder is the column order of a FeatureRow.
var FeatureOrder = []string{
	ColumnLocation,
	ColumnWeather,
	ColumnSurface,
	ColumnLocationAverage,
	ColumnWeatherAverage,
	ColumnSurfaceAverage,
}

// CategoricalFeatures lists the FeatureRow columns carried as category codes.
var CategoricalFeatures = []string{ColumnLocation, ColumnWeather, ColumnSurface}

// averageColumn pairs each categorical feature with its derived average column.
var averageColumn = map[string]string{
	ColumnLocation: ColumnLocationAverage,
	ColumnWeather:  ColumnWeatherAverage,
	ColumnSurface:  ColumnSurfaceAverage,
}

// AverageColumn returns the derived average column for a categorical feature.
func AverageColumn(feature string) (string, bool) {
	c, ok := averageColumn[feature]
	return c, ok
}

// Metadata is the document persisted next to a trained model. It is the only
// contract between training and prediction.
type Metadata struct {
	FeatureOrder        []string                      `json:"feature_order" validate:"required,min=1,dive,required"`
	CategoricalFeatures []string                      `json:"categorical_features" validate:"required,dive,required"`
	Categories          map[string][]string           `json:"categories" validate:"required"`
	Averages            map[string]map[string]float64 `json:"averages" validate:"required"`
	WeatherMapping      WeatherMapping                `json:"ow_to_kr4" validate:"required"`
}

var metadataValidator = validator.New()

// Validate checks that the document carries everything the FeatureBuilder needs.
func (m *Metadata) Validate() error {
	if err := metadataValidator.Struct(m); err != nil {
		return fmt.Errorf("invalid metadata: %w", err)
	}

	var errs []error
	for _, col := range FeatureOrder {
		if !slices.Contains(m.FeatureOrder, col) {
			errs = append(errs, fmt.Errorf("feature_order missing %q", col))
		}
	}
	for _, col := range m.CategoricalFeatures {
		if !slices.Contains(m.FeatureOrder, col) {
			errs = append(errs, fmt.Errorf("categorical feature %q not in feature_order", col))
		}
	}
	for _, col := range CategoricalFeatures {
		if _, ok := m.Categories[col]; !ok {
			errs = append(errs, fmt.Errorf("categories missing %q", col))
		}
		avg := averageColumn[col]
		if _, ok := m.Averages[avg]; !ok {
			errs = append(errs, fmt.Errorf("averages missing %q", avg))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid metadata: %w", errors.Join(errs...))
	}
	return nil
}

// IsCategorical reports whether column is listed as categorical.
func (m *Metadata) IsCategorical(column string) bool {
	return slices.Contains(m.CategoricalFeatures, column)
}
