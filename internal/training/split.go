package training

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/ljjun8453/BLEP-Contest/internal/gbm"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// splitIndices shuffles 0..n-1 with a seeded generator and takes the first
// ceil(testFraction*n) positions as the evaluation partition.
func splitIndices(n int, testFraction float64, seed uint64) (train, test []int, err error) {
	nTest := int(math.Ceil(testFraction * float64(n)))
	if nTest < 1 || nTest >= n {
		return nil, nil, fmt.Errorf("%w: %d rows cannot be split with test fraction %.2f", ErrInsufficientRows, n, testFraction)
	}
	perm := rand.New(rand.NewPCG(seed, seed)).Perm(n)
	return perm[nTest:], perm[:nTest], nil
}

// matrix is a row-major feature table being assembled for the booster.
type matrix struct {
	cols int
	data []float64
	y    []float64
}

func newMatrix(cols, capacity int) *matrix {
	return &matrix{
		cols: cols,
		data: make([]float64, 0, cols*capacity),
		y:    make([]float64, 0, capacity),
	}
}

func (m *matrix) append(row []float64, target float64) {
	m.data = append(m.data, row...)
	m.y = append(m.y, target)
}

func (m *matrix) rows() int { return len(m.y) }

// subset copies the given rows into a dense matrix and label slice.
func (m *matrix) subset(idx []int) (*mat.Dense, []float64) {
	data := make([]float64, 0, len(idx)*m.cols)
	y := make([]float64, 0, len(idx))
	for _, i := range idx {
		data = append(data, m.data[i*m.cols:(i+1)*m.cols]...)
		y = append(y, m.y[i])
	}
	return mat.NewDense(len(idx), m.cols, data), y
}

// Evaluation holds hold-out metrics for a trained model.
type Evaluation struct {
	MAE      float64 `json:"mae"`
	R2       float64 `json:"r2"`
	TestRows int     `json:"test_rows"`
}

func evaluate(model *gbm.Model, x mat.Matrix, y []float64) (Evaluation, []float64, error) {
	pred, err := model.PredictBatch(x)
	if err != nil {
		return Evaluation{}, nil, fmt.Errorf("predict evaluation rows: %w", err)
	}
	return Evaluation{
		MAE:      floats.Distance(y, pred, 1) / float64(len(y)),
		R2:       stat.RSquaredFrom(pred, y, nil),
		TestRows: len(y),
	}, pred, nil
}
