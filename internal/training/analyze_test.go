package training

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/ljjun8453/BLEP-Contest/internal/gbm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func analysisDataset(n int) *Dataset {
	header := []string{"도로형태", "노면상태", "피해운전자 상해정도", "가해운전자 연령", "사망자수", "사고위험도"}
	roads := []string{"교차로 - 교차로안", "단일로 - 기타", "주차장 - 주차장"}
	severities := []string{"상해없음", "경상", "중상", "사망"}

	rows := make([][]string, 0, n+2)
	for i := 0; i < n; i++ {
		road := roads[i%3]
		sev := severities[(i/3)%4]
		risk := 2.0 + 3*float64(i%3) + parseSeverity(sev)
		rows = append(rows, []string{road, "건조", sev, fmt.Sprintf("%d세", 20+i%40), "", fmt.Sprintf("%.1f", risk)})
	}
	rows = append(rows,
		[]string{roads[0], "건조", "경상", "30세", "0", ""},
		[]string{roads[1], "건조", "경상", "30세", "0", "없음"},
	)
	return NewDataset(header, rows)
}

func testAnalyzeOptions() AnalyzeOptions {
	opts := DefaultAnalyzeOptions()
	opts.Params.NumTrees = 50
	opts.Params.LearningRate = 0.2
	opts.Params.NumLeaves = 8
	opts.Params.MinDataInLeaf = 3
	opts.Params.MinDataPerGroup = 1
	opts.Params.CatSmooth = 1
	opts.TopN = 3
	return opts
}

func TestAnalyze(t *testing.T) {
	opts := testAnalyzeOptions()
	opts.RankBy = gbm.ImportanceGain
	a, err := Analyze(analysisDataset(240), opts, discardLogger())
	require.NoError(t, err)

	assert.Equal(t, 2, a.Dropped)
	assert.Equal(t, []string{"도로형태", "노면상태", "피해운전자 상해정도", "가해운전자 연령", "사망자수"}, a.Model.FeatureNames())
	assert.Equal(t, 48, a.Evaluation.TestRows)
	assert.Len(t, a.Predictions, 48)
	assert.Greater(t, a.Evaluation.R2, 0.8)

	require.Len(t, a.Importance, 3)
	top := map[string]bool{a.Importance[0].Feature: true, a.Importance[1].Feature: true}
	assert.True(t, top["도로형태"])
	assert.True(t, top["피해운전자 상해정도"])
	assert.GreaterOrEqual(t, a.Importance[0].Gain, a.Importance[1].Gain)
	assert.Greater(t, a.Importance[1].Gain, a.Importance[2].Gain)
}

func TestAnalyze_RanksBySplitsByDefault(t *testing.T) {
	assert.Equal(t, gbm.ImportanceSplit, DefaultAnalyzeOptions().RankBy)

	opts := testAnalyzeOptions()
	opts.TopN = 5
	a, err := Analyze(analysisDataset(240), opts, discardLogger())
	require.NoError(t, err)

	require.Len(t, a.Importance, 5)
	for i := 1; i < len(a.Importance); i++ {
		assert.GreaterOrEqual(t, a.Importance[i-1].Splits, a.Importance[i].Splits)
	}
	assert.Greater(t, a.Importance[0].Splits, 0.0)
}

func TestAnalyze_WritePredictions(t *testing.T) {
	a, err := Analyze(analysisDataset(60), testAnalyzeOptions(), discardLogger())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, a.WritePredictions(&buf))
	require.True(t, bytes.HasPrefix(buf.Bytes(), utf8BOM))

	records, err := csv.NewReader(bytes.NewReader(buf.Bytes()[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, len(a.Predictions)+1)

	header := records[0]
	assert.Equal(t, ColumnActual, header[len(header)-2])
	assert.Equal(t, ColumnPredicted, header[len(header)-1])

	first := records[1]
	assert.True(t, strings.Contains(first[0], " - "), "categorical values keep their labels")
	assert.NotContains(t, first[3], "세", "ages are written as numbers")
	assert.Equal(t, "0", first[4], "missing counts are filled with 0")
}

func TestAnalyze_MissingTarget(t *testing.T) {
	ds := NewDataset([]string{"도로형태"}, [][]string{{"단일로 - 기타"}})

	_, err := Analyze(ds, testAnalyzeOptions(), discardLogger())
	require.ErrorIs(t, err, ErrMissingColumns)
}

func TestAnalyze_NoFeatureColumns(t *testing.T) {
	ds := NewDataset([]string{"사고위험도"}, [][]string{{"1"}, {"2"}})

	_, err := Analyze(ds, testAnalyzeOptions(), discardLogger())
	require.ErrorIs(t, err, ErrMissingColumns)
}

func TestAnalysisConverters(t *testing.T) {
	assert.Equal(t, 34.0, parseAge("34세"))
	assert.Equal(t, 34.0, parseAge(" 34 세"))
	assert.Equal(t, 0.0, parseAge("미분류"))
	assert.Equal(t, 0.0, parseCount(""))
	assert.Equal(t, 2.0, parseCount("2"))
	assert.Equal(t, 3.0, parseSeverity("중상"))
	assert.True(t, math.IsNaN(parseSeverity("기타불명")))
}
