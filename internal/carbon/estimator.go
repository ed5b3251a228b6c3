package carbon

import (
	"math"

	"github.com/shopspring/decimal"
)

// FallbackEstimator produces a prediction without consulting a model.
type FallbackEstimator interface {
	// Estimate returns a complete PredictionResult for req. It never fails.
	Estimate(req PredictionRequest) PredictionResult
}

// Estimator implements FallbackEstimator with the fixed emission factors.
type Estimator struct{}

// NewEstimator creates a new fallback estimator.
func NewEstimator() *Estimator {
	return &Estimator{}
}

// Estimate implements FallbackEstimator.
func (e *Estimator) Estimate(req PredictionRequest) PredictionResult {
	return FallbackEstimate(req)
}

// Fallback factors as exact decimals. The float constants print as their
// literal values, so NewFromFloat recovers them without noise.
var (
	electricityTons = decimal.NewFromFloat(ElectricityTonsPerKWh)
	dieselTons      = decimal.NewFromFloat(DieselTonsPerLiter)
	wasteTons       = decimal.NewFromFloat(WasteTonsPerKg)
)

// FallbackEstimate computes the deterministic estimate for req.
//
// Only energy, fuel and waste contribute. Production volume, water usage and
// industry type are prompt context for the model path and are ignored here.
// Absent values count as zero. The total is summed in decimal arithmetic,
// clamped to be non-negative and rounded half away from zero to 2 decimal
// places, so half-cent totals such as 0.675 round up. The result is labelled
// Medium and carries the three fixed suggestions.
func FallbackEstimate(req PredictionRequest) PredictionResult {
	return PredictionResult{
		PredictedCO2: roundedFallbackTons(
			valueOrZero(req.EnergyConsumption),
			valueOrZero(req.FuelUsage),
			valueOrZero(req.WasteGenerated),
		),
		Confidence:  ConfidenceMedium,
		Suggestions: FallbackSuggestions(),
	}
}

// CalculateFallbackTons applies the emission factor formula:
//
//	energy_emission = energyKWh  × 0.0005
//	fuel_emission   = fuelLiters × 0.00268
//	waste_emission  = wasteKg    × 0.0005
//
// Returns the sum in metric tons CO2, unrounded. Non-finite inputs yield NaN
// or ±Inf.
func CalculateFallbackTons(energyKWh, fuelLiters, wasteKg float64) float64 {
	if !allFinite(energyKWh, fuelLiters, wasteKg) {
		return energyKWh*ElectricityTonsPerKWh + fuelLiters*DieselTonsPerLiter + wasteKg*WasteTonsPerKg
	}
	total, _ := fallbackTotal(energyKWh, fuelLiters, wasteKg).Float64()
	return total
}

func fallbackTotal(energyKWh, fuelLiters, wasteKg float64) decimal.Decimal {
	return decimal.NewFromFloat(energyKWh).Mul(electricityTons).
		Add(decimal.NewFromFloat(fuelLiters).Mul(dieselTons)).
		Add(decimal.NewFromFloat(wasteKg).Mul(wasteTons))
}

// roundedFallbackTons rounds the exact decimal total. Non-finite inputs
// yield 0.
func roundedFallbackTons(energyKWh, fuelLiters, wasteKg float64) float64 {
	if !allFinite(energyKWh, fuelLiters, wasteKg) {
		return 0
	}
	total := fallbackTotal(energyKWh, fuelLiters, wasteKg)
	if !total.IsPositive() {
		return 0
	}
	rounded, _ := total.Round(2).Float64()
	return rounded
}

func allFinite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// RoundTons rounds a model-reported value v to 2 decimal places, half away
// from zero, taking v at its shortest decimal representation. Negative, NaN
// and infinite inputs yield 0 so the result is always a finite non-negative
// number.
func RoundTons(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	v = Clamp(v, 0, math.MaxFloat64)
	rounded, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return rounded
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
