// Package training fits the accident risk model from a historical accident
// dataset and produces the model and metadata artifacts served at inference.
package training

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/ljjun8453/BLEP-Contest/internal/domain"
	"github.com/ljjun8453/BLEP-Contest/internal/gbm"
	"gonum.org/v1/gonum/stat"
)

// RequiredColumns must be present in a training dataset.
var RequiredColumns = []string{domain.ColumnLocation, domain.ColumnWeather, domain.ColumnSurface, domain.ColumnTarget}

// Options controls a training run.
type Options struct {
	Params       gbm.Params
	TestFraction float64 `validate:"gt=0,lt=1"`
	Seed         uint64
}

// DefaultOptions returns the standard 80/20 split with seed 42.
func DefaultOptions() Options {
	return Options{
		Params:       gbm.DefaultParams(),
		TestFraction: 0.2,
		Seed:         42,
	}
}

var optionsValidator = validator.New()

// Result is the outcome of a training run.
type Result struct {
	Model      *gbm.Model
	Metadata   *domain.Metadata
	Evaluation Evaluation

	Rows      int
	Dropped   int
	TrainRows int
}

// sample is one accepted training row.
type sample struct {
	location string
	weather  string
	surface  string
	target   float64
}

// Train filters the dataset, derives the per-category average tables and
// vocabularies, fits the booster on a seeded 80/20 split and evaluates it on
// the held-out rows. Identical datasets and seeds give identical results.
func Train(ds *Dataset, opts Options, logger *slog.Logger) (*Result, error) {
	if err := optionsValidator.Struct(opts); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if missing := ds.Missing(RequiredColumns...); len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}

	samples, dropped := filterSamples(ds)
	logger.Info("dataset filtered", "rows", ds.Len(), "kept", len(samples), "dropped", dropped)
	if len(samples) == 0 {
		return nil, ErrEmptyDataset
	}

	meta := buildMetadata(samples)
	builder, err := domain.NewFeatureBuilder(meta)
	if err != nil {
		return nil, fmt.Errorf("build feature builder: %w", err)
	}

	m := newMatrix(len(meta.FeatureOrder), len(samples))
	for _, s := range samples {
		row, err := builder.Build(s.location, s.weather, s.surface)
		if err != nil {
			return nil, fmt.Errorf("build feature row: %w", err)
		}
		m.append(row.Values, s.target)
	}

	trainIdx, testIdx, err := splitIndices(m.rows(), opts.TestFraction, opts.Seed)
	if err != nil {
		return nil, err
	}
	xTrain, yTrain := m.subset(trainIdx)
	xTest, yTest := m.subset(testIdx)

	specs := make([]gbm.FeatureSpec, len(meta.FeatureOrder))
	for i, col := range meta.FeatureOrder {
		specs[i] = gbm.FeatureSpec{Name: col, Categorical: meta.IsCategorical(col)}
	}

	model, err := gbm.Train(xTrain, yTrain, specs, opts.Params)
	if err != nil {
		return nil, fmt.Errorf("fit model: %w", err)
	}

	eval, _, err := evaluate(model, xTest, yTest)
	if err != nil {
		return nil, err
	}
	logger.Info("model evaluated",
		"trees", model.NumTrees(),
		"train_rows", len(trainIdx),
		"test_rows", eval.TestRows,
		"mae", eval.MAE,
		"r2", eval.R2,
	)

	return &Result{
		Model:      model,
		Metadata:   meta,
		Evaluation: eval,
		Rows:       ds.Len(),
		Dropped:    dropped,
		TrainRows:  len(trainIdx),
	}, nil
}

// filterSamples keeps rows with an allowed weather and surface, a location
// and a numeric target.
func filterSamples(ds *Dataset) ([]sample, int) {
	samples := make([]sample, 0, ds.Len())
	for i := 0; i < ds.Len(); i++ {
		s := sample{
			location: ds.Value(i, domain.ColumnLocation),
			weather:  ds.Value(i, domain.ColumnWeather),
			surface:  ds.Value(i, domain.ColumnSurface),
		}
		if !domain.IsAllowedWeather(s.weather) || !domain.IsAllowedSurface(s.surface) || s.location == "" {
			continue
		}
		target, ok := parseNumber(ds.Value(i, domain.ColumnTarget))
		if !ok {
			continue
		}
		s.target = target
		samples = append(samples, s)
	}
	return samples, ds.Len() - len(samples)
}

// buildMetadata computes vocabularies and per-category target means.
func buildMetadata(samples []sample) *domain.Metadata {
	keys := map[string]func(sample) string{
		domain.ColumnLocation: func(s sample) string { return s.location },
		domain.ColumnWeather:  func(s sample) string { return s.weather },
		domain.ColumnSurface:  func(s sample) string { return s.surface },
	}

	meta := &domain.Metadata{
		FeatureOrder:        slices.Clone(domain.FeatureOrder),
		CategoricalFeatures: slices.Clone(domain.CategoricalFeatures),
		Categories:          make(map[string][]string, len(keys)),
		Averages:            make(map[string]map[string]float64, len(keys)),
		WeatherMapping:      domain.DefaultWeatherMapping(),
	}

	for _, col := range domain.CategoricalFeatures {
		key := keys[col]
		observed := make([]string, len(samples))
		groups := make(map[string][]float64)
		for i, s := range samples {
			k := key(s)
			observed[i] = k
			groups[k] = append(groups[k], s.target)
		}

		meta.Categories[col] = domain.ObservedVocabulary(col, observed).Values()

		avgCol, _ := domain.AverageColumn(col)
		means := make(map[string]float64, len(groups))
		for k, targets := range groups {
			means[k] = stat.Mean(targets, nil)
		}
		meta.Averages[avgCol] = means
	}
	return meta
}

func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
