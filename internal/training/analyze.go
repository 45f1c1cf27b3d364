package training

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/ljjun8453/BLEP-Contest/internal/domain"
	"github.com/ljjun8453/BLEP-Contest/internal/gbm"
)

// Accident dataset columns used by the full-feature analysis.
var (
	AnalysisCategorical = []string{
		"도로형태", "노면상태", "사고유형", "사고유형 - 세부분류", "법규위반",
		"가해운전자 차종", "가해운전자 성별", "피해운전자 차종", "피해운전자 성별",
	}
	AnalysisSeverity = []string{"피해운전자 상해정도", "가해운전자 상해정도"}
	AnalysisNumeric  = []string{"가해운전자 연령", "피해운전자 연령", "사망자수", "중상자수", "경상자수", "부상자수"}

	ageColumns = map[string]bool{"가해운전자 연령": true, "피해운전자 연령": true}
)

// InjurySeverity ranks driver injury labels.
var InjurySeverity = map[string]float64{
	"상해없음": 0,
	"부상신고": 1,
	"경상":   2,
	"중상":   3,
	"사망":   4,
}

// Prediction CSV result columns.
const (
	ColumnActual    = "실제값"
	ColumnPredicted = "예측값"
)

// AnalyzeOptions controls a full-feature analysis run.
type AnalyzeOptions struct {
	Params       gbm.Params
	TestFraction float64 `validate:"gt=0,lt=1"`
	Seed         uint64
	TopN         int `validate:"gte=1"`
	// RankBy orders the reported importances.
	RankBy gbm.ImportanceType
}

// DefaultAnalyzeOptions samples 80% of the features per tree and reports
// the 15 features split on most often.
func DefaultAnalyzeOptions() AnalyzeOptions {
	p := gbm.DefaultParams()
	p.FeatureFraction = 0.8
	return AnalyzeOptions{
		Params:       p,
		TestFraction: 0.2,
		Seed:         42,
		TopN:         15,
		RankBy:       gbm.ImportanceSplit,
	}
}

// FeatureImportance is a feature's split count and total gain.
type FeatureImportance struct {
	Feature string
	Splits  float64
	Gain    float64
}

// PredictionRecord is one evaluation row with its display values.
type PredictionRecord struct {
	Values    []string
	Actual    float64
	Predicted float64
}

// Analysis is the outcome of a full-feature run.
type Analysis struct {
	Model       *gbm.Model
	Evaluation  Evaluation
	Importance  []FeatureImportance
	Predictions []PredictionRecord
	Dropped     int
}

// analysisColumn converts raw cells of one dataset column.
type analysisColumn struct {
	name        string
	categorical bool
	vocab       domain.Vocabulary
	convert     func(string) float64
}

func (c *analysisColumn) value(cell string) float64 {
	if c.categorical {
		return c.vocab.Encode(cell)
	}
	return c.convert(cell)
}

func (c *analysisColumn) display(cell string, v float64) string {
	if c.categorical {
		return cell
	}
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Analyze trains on every accident attribute the dataset carries to report
// which attributes drive the risk score. Rows with a non-numeric target are
// dropped; missing counts and ages are treated as 0.
func Analyze(ds *Dataset, opts AnalyzeOptions, logger *slog.Logger) (*Analysis, error) {
	if err := optionsValidator.Struct(opts); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if !ds.Has(domain.ColumnTarget) {
		return nil, &MissingColumnsError{Columns: []string{domain.ColumnTarget}}
	}

	var kept []int
	var targets []float64
	for i := 0; i < ds.Len(); i++ {
		if v, ok := parseNumber(ds.Value(i, domain.ColumnTarget)); ok {
			kept = append(kept, i)
			targets = append(targets, v)
		}
	}
	if len(kept) == 0 {
		return nil, ErrEmptyDataset
	}

	cols := analysisColumns(ds, kept)
	if len(cols) == 0 {
		return nil, &MissingColumnsError{Columns: AnalysisCategorical}
	}
	logger.Info("analysis dataset prepared", "rows", len(kept), "dropped", ds.Len()-len(kept), "features", len(cols))

	m := newMatrix(len(cols), len(kept))
	row := make([]float64, len(cols))
	for k, i := range kept {
		for j, c := range cols {
			row[j] = c.value(ds.Value(i, c.name))
		}
		m.append(row, targets[k])
	}

	trainIdx, testIdx, err := splitIndices(m.rows(), opts.TestFraction, opts.Seed)
	if err != nil {
		return nil, err
	}
	xTrain, yTrain := m.subset(trainIdx)
	xTest, yTest := m.subset(testIdx)

	specs := make([]gbm.FeatureSpec, len(cols))
	for j, c := range cols {
		specs[j] = gbm.FeatureSpec{Name: c.name, Categorical: c.categorical}
	}
	model, err := gbm.Train(xTrain, yTrain, specs, opts.Params)
	if err != nil {
		return nil, fmt.Errorf("fit model: %w", err)
	}

	eval, pred, err := evaluate(model, xTest, yTest)
	if err != nil {
		return nil, err
	}
	logger.Info("analysis evaluated", "trees", model.NumTrees(), "mae", eval.MAE, "r2", eval.R2)

	records := make([]PredictionRecord, len(testIdx))
	for k, idx := range testIdx {
		src := kept[idx]
		vals := make([]string, len(cols))
		for j, c := range cols {
			vals[j] = c.display(ds.Value(src, c.name), m.data[idx*m.cols+j])
		}
		records[k] = PredictionRecord{Values: vals, Actual: yTest[k], Predicted: pred[k]}
	}

	return &Analysis{
		Model:       model,
		Evaluation:  eval,
		Importance:  topImportance(model, opts.TopN, opts.RankBy),
		Predictions: records,
		Dropped:     ds.Len() - len(kept),
	}, nil
}

// analysisColumns returns the converters for the analysis columns present
// in ds, in dataset feature order.
func analysisColumns(ds *Dataset, kept []int) []*analysisColumn {
	var cols []*analysisColumn
	for _, name := range AnalysisCategorical {
		if !ds.Has(name) {
			continue
		}
		observed := make([]string, len(kept))
		for k, i := range kept {
			observed[k] = ds.Value(i, name)
		}
		cols = append(cols, &analysisColumn{
			name:        name,
			categorical: true,
			vocab:       domain.ObservedVocabulary(name, observed),
		})
	}
	for _, name := range AnalysisSeverity {
		if ds.Has(name) {
			cols = append(cols, &analysisColumn{name: name, convert: parseSeverity})
		}
	}
	for _, name := range AnalysisNumeric {
		if !ds.Has(name) {
			continue
		}
		convert := parseCount
		if ageColumns[name] {
			convert = parseAge
		}
		cols = append(cols, &analysisColumn{name: name, convert: convert})
	}
	return cols
}

func parseSeverity(s string) float64 {
	if v, ok := InjurySeverity[s]; ok {
		return v
	}
	return math.NaN()
}

// parseAge accepts values such as "34세"; anything else counts as 0.
func parseAge(s string) float64 {
	return parseCount(strings.TrimSpace(strings.ReplaceAll(s, "세", "")))
}

func parseCount(s string) float64 {
	if v, ok := parseNumber(s); ok {
		return v
	}
	return 0
}

// topImportance returns the n most important features by the chosen measure,
// breaking ties with the other one.
func topImportance(model *gbm.Model, n int, by gbm.ImportanceType) []FeatureImportance {
	names := model.FeatureNames()
	splits := model.Importance(gbm.ImportanceSplit)
	gains := model.Importance(gbm.ImportanceGain)

	out := make([]FeatureImportance, len(names))
	for i, name := range names {
		out[i] = FeatureImportance{Feature: name, Splits: splits[i], Gain: gains[i]}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if by == gbm.ImportanceGain {
			if a.Gain != b.Gain {
				return a.Gain > b.Gain
			}
			return a.Splits > b.Splits
		}
		if a.Splits != b.Splits {
			return a.Splits > b.Splits
		}
		return a.Gain > b.Gain
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// WritePredictions writes the evaluation rows as UTF-8 CSV with a byte order
// mark: the feature columns followed by 실제값 and 예측값.
func (a *Analysis) WritePredictions(w io.Writer) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	header := append(a.Model.FeatureNames(), ColumnActual, ColumnPredicted)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range a.Predictions {
		rec := append(append([]string(nil), r.Values...),
			strconv.FormatFloat(r.Actual, 'f', -1, 64),
			strconv.FormatFloat(r.Predicted, 'f', -1, 64),
		)
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
