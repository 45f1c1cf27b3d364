package domain

import "time"

// Prediction is the risk estimate for one registry location as served by
// the map endpoint.
type Prediction struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Address     string  `json:"address"` // display label (읍/면/동)
	ExpectRisk  float64 `json:"expect_risk"`
	OpenWeather string  `json:"openweather"` // weather category used for the estimate

	// ModelKey is the full registry address the model was queried with.
	ModelKey string `json:"-"`
}

// PredictionBatch is one pass over the location registry.
type PredictionBatch struct {
	ID          string
	PredictedAt time.Time
	Predictions []Prediction
}
