// Package gbm implements a gradient-boosted regression tree ensemble with
// histogram binning, native categorical splits and learned missing-value
// routing. Models are trained with Train and persisted with Save and Load.
package gbm

import (
	"errors"
	"fmt"
	"slices"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrEmptyDataset    = errors.New("empty dataset")
	ErrFeatureMismatch = errors.New("feature count mismatch")
	ErrInvalidLabel    = errors.New("invalid label")
	ErrInvalidParams   = errors.New("invalid params")
	ErrInvalidModel    = errors.New("invalid model")
)

// FeatureSpec names a model input column. Categorical columns carry
// non-negative integer codes; NaN marks a missing value in any column.
type FeatureSpec struct {
	Name        string `json:"name"`
	Categorical bool   `json:"categorical"`
}

// Node is a tree node. Internal nodes route a value left when it is at or
// below Threshold, or, for categorical nodes, when its code is in Categories.
type Node struct {
	Feature     int     `json:"feature,omitempty"`
	Threshold   float64 `json:"threshold,omitempty"`
	Categories  []int   `json:"categories,omitempty"`
	Categorical bool    `json:"categorical,omitempty"`
	DefaultLeft bool    `json:"default_left,omitempty"`
	Left        int     `json:"left,omitempty"`
	Right       int     `json:"right,omitempty"`
	Leaf        bool    `json:"leaf,omitempty"`
	Value       float64 `json:"value,omitempty"`
	Gain        float64 `json:"gain,omitempty"`
	Count       int     `json:"count"`
}

func (n *Node) goesLeft(v float64) bool {
	if n.Categorical {
		code, ok := categoryCode(v)
		if !ok {
			return false
		}
		_, found := slices.BinarySearch(n.Categories, code)
		return found
	}
	if isMissing(v) {
		return n.DefaultLeft
	}
	return v <= n.Threshold
}

// Tree is a regression tree stored as a flat node slice rooted at index 0.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

func (t *Tree) predict(row []float64) float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Leaf {
			return n.Value
		}
		if n.goesLeft(row[n.Feature]) {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Model is a trained ensemble. It is immutable and safe for concurrent use.
type Model struct {
	Features  []FeatureSpec `json:"features"`
	InitScore float64       `json:"init_score"`
	Trees     []Tree        `json:"trees"`
	Params    Params        `json:"params"`
}

// NumTrees returns the number of boosted trees.
func (m *Model) NumTrees() int { return len(m.Trees) }

// FeatureNames returns the input column names in order.
func (m *Model) FeatureNames() []string {
	names := make([]string, len(m.Features))
	for i, f := range m.Features {
		names[i] = f.Name
	}
	return names
}

// Predict scores one row given in feature order.
func (m *Model) Predict(row []float64) (float64, error) {
	if len(row) != len(m.Features) {
		return 0, fmt.Errorf("%w: got %d values, want %d", ErrFeatureMismatch, len(row), len(m.Features))
	}
	out := m.InitScore
	for i := range m.Trees {
		out += m.Trees[i].predict(row)
	}
	return out, nil
}

// PredictBatch scores every row of x.
func (m *Model) PredictBatch(x mat.Matrix) ([]float64, error) {
	rows, cols := x.Dims()
	if cols != len(m.Features) {
		return nil, fmt.Errorf("%w: got %d columns, want %d", ErrFeatureMismatch, cols, len(m.Features))
	}
	out := make([]float64, rows)
	row := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(row, i, x)
		p, err := m.Predict(row)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

// ImportanceType selects how feature importance is measured.
type ImportanceType int

const (
	// ImportanceSplit counts the splits made on each feature.
	ImportanceSplit ImportanceType = iota
	// ImportanceGain sums the loss reduction of each feature's splits.
	ImportanceGain
)

// ParseImportanceType accepts "split" or "gain".
func ParseImportanceType(s string) (ImportanceType, error) {
	switch s {
	case "split":
		return ImportanceSplit, nil
	case "gain":
		return ImportanceGain, nil
	}
	return 0, fmt.Errorf("unknown importance type %q (want split or gain)", s)
}

// Importance returns one value per feature.
func (m *Model) Importance(kind ImportanceType) []float64 {
	out := make([]float64, len(m.Features))
	for _, t := range m.Trees {
		for _, n := range t.Nodes {
			if n.Leaf {
				continue
			}
			switch kind {
			case ImportanceGain:
				out[n.Feature] += n.Gain
			default:
				out[n.Feature]++
			}
		}
	}
	return out
}

// validate checks structural integrity of a decoded model.
func (m *Model) validate() error {
	if len(m.Features) == 0 {
		return fmt.Errorf("%w: no features", ErrInvalidModel)
	}
	for ti, t := range m.Trees {
		if len(t.Nodes) == 0 {
			return fmt.Errorf("%w: tree %d is empty", ErrInvalidModel, ti)
		}
		for ni, n := range t.Nodes {
			if n.Leaf {
				continue
			}
			if n.Feature < 0 || n.Feature >= len(m.Features) {
				return fmt.Errorf("%w: tree %d node %d: feature %d out of range", ErrInvalidModel, ti, ni, n.Feature)
			}
			// Children always follow their parent, which rules out cycles.
			if n.Left <= ni || n.Right <= ni || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
				return fmt.Errorf("%w: tree %d node %d: bad child index", ErrInvalidModel, ti, ni)
			}
			if !slices.IsSorted(n.Categories) {
				return fmt.Errorf("%w: tree %d node %d: categories not sorted", ErrInvalidModel, ti, ni)
			}
		}
	}
	return nil
}
