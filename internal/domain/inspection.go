package domain

import (
	"fmt"
	"math"
)

// Inspection priorities derived from the risk score.
const (
	PriorityUrgent = "urgent"
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// RiskScore converts a predicted risk into a 0-100 style score
// (e.g. 5.2257 -> 52). Halves round up.
func RiskScore(risk float64) int {
	if math.IsNaN(risk) || math.IsInf(risk, 0) {
		return 0
	}
	return int(math.Floor(risk*10 + 0.5))
}

// DerivePriority maps a risk score to an inspection priority:
//   - >= 70 urgent
//   - >= 50 high
//   - >= 30 medium
//   - otherwise low
func DerivePriority(score int) string {
	switch {
	case score >= 70:
		return PriorityUrgent
	case score >= 50:
		return PriorityHigh
	case score >= 30:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// DescribePriority returns the dashboard description for a priority.
func DescribePriority(priority, district string) string {
	switch priority {
	case PriorityUrgent:
		return fmt.Sprintf("긴급 점검이 필요한 고위험 지역 (%s)", district)
	case PriorityHigh:
		return fmt.Sprintf("안전사고 주의가 필요한 구간 (%s)", district)
	case PriorityMedium:
		return fmt.Sprintf("정기 점검이 필요한 일반 관리 구간 (%s)", district)
	default:
		return fmt.Sprintf("안전 상태가 양호한 모니터링 구간 (%s)", district)
	}
}

// Inspection is a dashboard work item derived from a prediction.
type Inspection struct {
	ID          int     `json:"id"`
	Location    string  `json:"location"`
	District    string  `json:"district"`
	Address     string  `json:"address"`
	Priority    string  `json:"priority"`
	RiskScore   int     `json:"riskScore"`
	Status      string  `json:"status"`
	Description string  `json:"description"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Risk        float64 `json:"originalRisk"`
}

// InspectionStatusPending is the status of every newly derived inspection.
const InspectionStatusPending = "pending"

// NewInspection derives the inspection item for a location and its predicted
// risk. id is the 1-based position in the registry.
func NewInspection(id int, loc Location, risk float64) Inspection {
	score := RiskScore(risk)
	priority := DerivePriority(score)
	district := loc.District()
	return Inspection{
		ID:          id,
		Location:    loc.DisplayLabel(),
		District:    district,
		Address:     loc.ModelKey(),
		Priority:    priority,
		RiskScore:   score,
		Status:      InspectionStatusPending,
		Description: DescribePriority(priority, district),
		Lat:         Round5(loc.Y),
		Lng:         Round5(loc.X),
		Risk:        risk,
	}
}
