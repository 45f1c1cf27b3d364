// Package inference serves risk predictions for the location registry from
// a trained model and its metadata.
package inference

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/ljjun8453/BLEP-Contest/internal/domain"
	"github.com/ljjun8453/BLEP-Contest/internal/gbm"
)

// ErrNonFinite is returned when the model produces NaN or ±Inf.
var ErrNonFinite = errors.New("non-finite prediction")

// Predictor scores one location under given weather conditions. It is
// immutable and safe for concurrent use.
type Predictor struct {
	model      *gbm.Model
	builder    *domain.FeatureBuilder
	normalizer *domain.Normalizer
}

// NewPredictor pairs a model with the metadata it was trained with. The
// model's feature names must match the metadata's feature order.
func NewPredictor(model *gbm.Model, meta *domain.Metadata) (*Predictor, error) {
	builder, err := domain.NewFeatureBuilder(meta)
	if err != nil {
		return nil, err
	}
	if !slices.Equal(model.FeatureNames(), builder.FeatureOrder()) {
		return nil, fmt.Errorf("%w: model features %v, metadata feature_order %v",
			gbm.ErrFeatureMismatch, model.FeatureNames(), builder.FeatureOrder())
	}
	return &Predictor{
		model:      model,
		builder:    builder,
		normalizer: domain.NewNormalizer(meta.WeatherMapping),
	}, nil
}

// Normalize maps a provider label and temperature to weather and surface
// categories using the mapping persisted with the model.
func (p *Predictor) Normalize(label string, tempC float64) (weather, surface string) {
	return p.normalizer.Normalize(label, tempC)
}

// Score predicts the risk for a model location key.
func (p *Predictor) Score(location, weather, surface string) (float64, error) {
	row, err := p.builder.Build(location, weather, surface)
	if err != nil {
		return 0, err
	}
	v, err := p.model.Predict(row.Values)
	if err != nil {
		return 0, fmt.Errorf("predict %q: %w", location, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("predict %q: %w", location, ErrNonFinite)
	}
	return v, nil
}

// Locations returns the locations the model was trained on.
func (p *Predictor) Locations() domain.Vocabulary {
	return p.builder.Locations()
}

// NumTrees returns the size of the loaded ensemble.
func (p *Predictor) NumTrees() int {
	return p.model.NumTrees()
}
