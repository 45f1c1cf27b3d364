package gbm

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Train fits an ensemble on L2 loss. x holds one row per sample in the
// column order given by features; y holds the matching targets.
//
// Boosting starts from the target mean and stops early when a tree cannot
// make a single split.
func Train(x mat.Matrix, y []float64, features []FeatureSpec, p Params) (*Model, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	rows, cols := x.Dims()
	if rows == 0 || cols == 0 {
		return nil, ErrEmptyDataset
	}
	if len(features) != cols {
		return nil, fmt.Errorf("%w: %d specs for %d columns", ErrFeatureMismatch, len(features), cols)
	}
	if len(y) != rows {
		return nil, fmt.Errorf("%w: %d labels for %d rows", ErrInvalidLabel, len(y), rows)
	}
	for i, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: label %d is not finite", ErrInvalidLabel, i)
		}
	}

	data, err := binDataset(x, features, p.MaxBins)
	if err != nil {
		return nil, err
	}

	model := &Model{
		Features:  slices.Clone(features),
		InitScore: stat.Mean(y, nil),
		Params:    p,
	}

	scores := make([]float64, rows)
	for i := range scores {
		scores[i] = model.InitScore
	}
	all := make([]int, rows)
	for i := range all {
		all[i] = i
	}

	g := &grower{
		p:      p,
		data:   data,
		finder: splitFinder{p: p},
		grad:   make([]float64, rows),
		hess:   make([]float64, rows),
	}
	rng := rand.New(rand.NewPCG(p.Seed, p.Seed^0x9e3779b97f4a7c15))

	for it := 0; it < p.NumTrees; it++ {
		for i := range scores {
			g.grad[i] = scores[i] - y[i]
			g.hess[i] = 1
		}
		g.features = sampleFeatures(rng, cols, p.FeatureFraction)

		tree, leaves, ok := g.grow(all)
		if !ok {
			break
		}
		for _, l := range leaves {
			v := tree.Nodes[l.node].Value
			for _, r := range l.rows {
				scores[r] += v
			}
		}
		model.Trees = append(model.Trees, tree)
	}
	return model, nil
}
