package domain

import (
	"math"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// Location is a monitored site from the location registry.
type Location struct {
	X       float64 `json:"x" validate:"gte=-180,lte=180"` // longitude
	Y       float64 `json:"y" validate:"gte=-90,lte=90"`   // latitude
	Address string  `json:"address"`
}

// ModelKey returns the location value the model was trained on: the full
// trimmed address.
func (l Location) ModelKey() string {
	return strings.TrimSpace(l.Address)
}

// DisplayLabel returns the last address token, normally the neighborhood
// (읍/면/동) name.
func (l Location) DisplayLabel() string {
	parts := strings.Fields(l.Address)
	if len(parts) == 0 {
		return strings.TrimSpace(l.Address)
	}
	return parts[len(parts)-1]
}

// District returns the first address token ending in 구 or 군, falling back
// to the second token and then to "미상".
func (l Location) District() string {
	parts := strings.Fields(l.Address)
	for _, p := range parts {
		if strings.HasSuffix(p, "구") || strings.HasSuffix(p, "군") {
			return p
		}
	}
	if len(parts) > 1 {
		return parts[1]
	}
	return "미상"
}

// exactDigits covers the full decimal expansion of any float64.
const exactDigits = 1074

// Round5 rounds the exact binary value of v to five decimal places, half to
// even. 128.563485 is stored just below the midpoint and rounds to
// 128.56348. Non-finite values are returned unchanged.
func Round5(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	exact := new(big.Float).SetFloat64(v).Text('f', exactDigits)
	return decimal.RequireFromString(exact).RoundBank(5).InexactFloat64()
}
