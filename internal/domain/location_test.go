package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocation_Keys(t *testing.T) {
	tests := []struct {
		name     string
		address  string
		modelKey string
		display  string
		district string
	}{
		{"full address", "대구광역시 서구 평리동", "대구광역시 서구 평리동", "평리동", "서구"},
		{"padded", "  대구광역시 달성군 화원읍 ", "대구광역시 달성군 화원읍", "화원읍", "달성군"},
		{"single token", "Jung-gu", "Jung-gu", "Jung-gu", "미상"},
		{"no district token", "대구광역시 동인동", "대구광역시 동인동", "동인동", "동인동"},
		{"empty", "   ", "", "", "미상"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := Location{Address: tt.address}
			assert.Equal(t, tt.modelKey, loc.ModelKey())
			assert.Equal(t, tt.display, loc.DisplayLabel())
			assert.Equal(t, tt.district, loc.District())
		})
	}
}

func TestRound5(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{128.563481234, 128.56348},
		{128.563485, 128.56348},
		{35.871235, 35.87123},
		{0.123455, 0.12345},
		{2.000005, 2.0},
		{-1.234567, -1.23457},
		{5.2, 5.2},
		{0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Round5(tt.in), "Round5(%v)", tt.in)
	}

	assert.True(t, math.IsNaN(Round5(math.NaN())))
	assert.True(t, math.IsInf(Round5(math.Inf(1)), 1))
}

func TestRiskScoreAndPriority(t *testing.T) {
	tests := []struct {
		risk     float64
		score    int
		priority string
	}{
		{5.2257, 52, PriorityHigh},
		{7.0, 70, PriorityUrgent},
		{6.949, 69, PriorityHigh},
		{2.95, 30, PriorityMedium},
		{0, 0, PriorityLow},
		{math.NaN(), 0, PriorityLow},
	}
	for _, tt := range tests {
		score := RiskScore(tt.risk)
		assert.Equal(t, tt.score, score, "risk %v", tt.risk)
		assert.Equal(t, tt.priority, DerivePriority(score))
	}
}

func TestDescribePriority(t *testing.T) {
	assert.Contains(t, DescribePriority(PriorityUrgent, "수성구"), "긴급")
	assert.Contains(t, DescribePriority(PriorityLow, "수성구"), "(수성구)")
}

func TestNewInspection(t *testing.T) {
	loc := Location{X: 128.630123456, Y: 35.858765432, Address: "대구광역시 수성구 지산동"}

	got := NewInspection(3, loc, 5.2257)

	assert.Equal(t, Inspection{
		ID:          3,
		Location:    "지산동",
		District:    "수성구",
		Address:     "대구광역시 수성구 지산동",
		Priority:    PriorityHigh,
		RiskScore:   52,
		Status:      InspectionStatusPending,
		Description: "안전사고 주의가 필요한 구간 (수성구)",
		Lat:         35.85877,
		Lng:         128.63012,
		Risk:        5.2257,
	}, got)
}
