package domain

import (
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Vocabulary is the ordered set of values a categorical feature took during
// training. A value's position is its category code.
type Vocabulary struct {
	feature string
	values  []string
	index   map[string]int
}

// NewVocabulary creates a Vocabulary preserving the given order.
// Duplicate values keep their first position.
func NewVocabulary(feature string, values []string) Vocabulary {
	v := Vocabulary{
		feature: feature,
		values:  make([]string, 0, len(values)),
		index:   make(map[string]int, len(values)),
	}
	for _, val := range values {
		if _, ok := v.index[val]; ok {
			continue
		}
		v.index[val] = len(v.values)
		v.values = append(v.values, val)
	}
	return v
}

// ObservedVocabulary builds a sorted Vocabulary from observed values,
// ignoring empty strings.
func ObservedVocabulary(feature string, observed []string) Vocabulary {
	seen := make(map[string]struct{}, len(observed))
	distinct := make([]string, 0)
	for _, val := range observed {
		if val == "" {
			continue
		}
		if _, ok := seen[val]; ok {
			continue
		}
		seen[val] = struct{}{}
		distinct = append(distinct, val)
	}
	sort.Strings(distinct)
	return NewVocabulary(feature, distinct)
}

// Feature returns the column name the vocabulary belongs to.
func (v Vocabulary) Feature() string { return v.feature }

// Values returns a copy of the vocabulary in code order.
func (v Vocabulary) Values() []string { return slices.Clone(v.values) }

// Len returns the number of categories.
func (v Vocabulary) Len() int { return len(v.values) }

// Contains reports whether value is a known category.
func (v Vocabulary) Contains(value string) bool {
	_, ok := v.index[value]
	return ok
}

// Code returns the category code for value.
func (v Vocabulary) Code(value string) (int, bool) {
	c, ok := v.index[value]
	return c, ok
}

// Encode returns the category code as a model input, or NaN when value is
// not in the vocabulary.
func (v Vocabulary) Encode(value string) float64 {
	if c, ok := v.index[value]; ok {
		return float64(c)
	}
	return math.NaN()
}

// AverageTable maps a category to the mean training target for that category.
// Lookups for absent categories return the mean of all table values.
type AverageTable struct {
	name     string
	values   map[string]float64
	fallback float64
}

// NewAverageTable creates an AverageTable and precomputes its fallback.
// An empty table falls back to 0.
func NewAverageTable(name string, values map[string]float64) AverageTable {
	t := AverageTable{
		name:   name,
		values: make(map[string]float64, len(values)),
	}
	keys := make([]string, 0, len(values))
	for k, val := range values {
		t.values[k] = val
		keys = append(keys, k)
	}
	// Sum in key order so the fallback is bit-for-bit reproducible.
	sort.Strings(keys)
	ordered := make([]float64, 0, len(keys))
	for _, k := range keys {
		if !math.IsNaN(t.values[k]) {
			ordered = append(ordered, t.values[k])
		}
	}
	if len(ordered) > 0 {
		t.fallback = stat.Mean(ordered, nil)
	}
	return t
}

// Name returns the derived column name, e.g. 지역평균위험도.
func (t AverageTable) Name() string { return t.name }

// Fallback returns the global mean used for absent categories.
func (t AverageTable) Fallback() float64 { return t.fallback }

// Lookup returns the average for key, or the fallback when key is absent.
func (t AverageTable) Lookup(key string) float64 {
	if v, ok := t.values[key]; ok && !math.IsNaN(v) {
		return v
	}
	return t.fallback
}

// Get returns the average for key and whether it is present.
func (t AverageTable) Get(key string) (float64, bool) {
	v, ok := t.values[key]
	return v, ok
}

// Map returns a copy of the table contents.
func (t AverageTable) Map() map[string]float64 {
	out := make(map[string]float64, len(t.values))
	for k, v := range t.values {
		out[k] = v
	}
	return out
}
