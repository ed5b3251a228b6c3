package predict

import (
	"math"

	"github.com/rshade/carbon-predict/internal/carbon"
)

// ValidateRequest checks the two required metrics before any outbound call.
//
// Energy consumption and fuel usage must be present, non-zero and finite.
// Negative values pass; the fallback clamps its total at zero. Optional
// fields are not checked.
func ValidateRequest(req carbon.PredictionRequest) error {
	if !isSet(req.EnergyConsumption) || !isSet(req.FuelUsage) {
		return ErrInvalidInput
	}
	return nil
}

// isSet reports whether v is present, non-zero and finite.
func isSet(v *float64) bool {
	if v == nil {
		return false
	}
	f := *v
	return f != 0 && !math.IsNaN(f) && !math.IsInf(f, 0)
}
