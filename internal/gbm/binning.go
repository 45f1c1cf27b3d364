package gbm

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// maxCategories bounds category codes so bins fit a uint16 with room for
// the missing sentinel.
const maxCategories = 65534

// binMapper discretizes one feature column. Numeric bins are delimited by
// upper bounds: a value v falls into the first bin i with v <= bounds[i].
// Categorical bins are the category codes themselves. Missing values map to
// the sentinel bin numBins.
type binMapper struct {
	categorical bool
	bounds      []float64
	numBins     int
}

func (m binMapper) missing() uint16 { return uint16(m.numBins) }

func (m binMapper) bin(v float64) uint16 {
	if m.categorical {
		code, ok := categoryCode(v)
		if !ok || code >= m.numBins {
			return m.missing()
		}
		return uint16(code)
	}
	if isMissing(v) {
		return m.missing()
	}
	return uint16(sort.SearchFloat64s(m.bounds, v))
}

func isMissing(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}

// categoryCode converts a model input to a category code. Negative,
// fractional and non-finite values are not codes.
func categoryCode(v float64) (int, bool) {
	if isMissing(v) || v < 0 || v != math.Trunc(v) || v > maxCategories {
		return 0, false
	}
	return int(v), true
}

func newNumericMapper(col []float64, maxBins int) binMapper {
	vals := make([]float64, 0, len(col))
	for _, v := range col {
		if !isMissing(v) {
			vals = append(vals, v)
		}
	}
	slices.Sort(vals)

	var distinct []float64
	var counts []int
	for _, v := range vals {
		if n := len(distinct); n > 0 && distinct[n-1] == v {
			counts[n-1]++
			continue
		}
		distinct = append(distinct, v)
		counts = append(counts, 1)
	}

	m := binMapper{numBins: 1}
	if len(distinct) <= 1 {
		return m
	}

	if len(distinct) <= maxBins {
		m.bounds = make([]float64, 0, len(distinct)-1)
		for i := 0; i < len(distinct)-1; i++ {
			m.bounds = append(m.bounds, midpoint(distinct[i], distinct[i+1]))
		}
	} else {
		// Equal-frequency bounds over the sorted values.
		per := float64(len(vals)) / float64(maxBins)
		acc := 0
		for i := 0; i < len(distinct)-1 && len(m.bounds) < maxBins-1; i++ {
			acc += counts[i]
			if float64(acc) >= per*float64(len(m.bounds)+1) {
				m.bounds = append(m.bounds, midpoint(distinct[i], distinct[i+1]))
			}
		}
	}
	m.numBins = len(m.bounds) + 1
	return m
}

func midpoint(a, b float64) float64 {
	return a + (b-a)/2
}

func newCategoricalMapper(col []float64) (binMapper, error) {
	maxCode := -1
	for _, v := range col {
		if math.IsNaN(v) {
			continue
		}
		code, ok := categoryCode(v)
		if !ok {
			return binMapper{}, fmt.Errorf("invalid category code %v", v)
		}
		maxCode = max(maxCode, code)
	}
	if maxCode+1 > maxCategories {
		return binMapper{}, fmt.Errorf("too many categories: %d", maxCode+1)
	}
	return binMapper{categorical: true, numBins: maxCode + 1}, nil
}

// binnedData is the column-major discretized training matrix.
type binnedData struct {
	rows    int
	mappers []binMapper
	bins    [][]uint16
}

func binDataset(x mat.Matrix, features []FeatureSpec, maxBins int) (*binnedData, error) {
	rows, cols := x.Dims()
	d := &binnedData{
		rows:    rows,
		mappers: make([]binMapper, cols),
		bins:    make([][]uint16, cols),
	}
	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, x)

		var m binMapper
		if features[j].Categorical {
			var err error
			if m, err = newCategoricalMapper(col); err != nil {
				return nil, fmt.Errorf("feature %q: %w", features[j].Name, err)
			}
		} else {
			m = newNumericMapper(col, maxBins)
		}

		b := make([]uint16, rows)
		for i, v := range col {
			b[i] = m.bin(v)
		}
		d.mappers[j] = m
		d.bins[j] = b
	}
	return d, nil
}
