package carbon

import "strings"

// PredictionRequest carries the operational metrics for one emissions record.
// Pointer fields distinguish an absent or null value from zero.
type PredictionRequest struct {
	// EnergyConsumption is electricity consumed in kWh. Required.
	EnergyConsumption *float64 `json:"energy_consumption"`

	// FuelUsage is diesel-equivalent fuel burned in liters. Required.
	FuelUsage *float64 `json:"fuel_usage"`

	// ProductionVolume is the number of units produced.
	ProductionVolume *float64 `json:"production_volume,omitempty"`

	// WasteGenerated is waste produced in kg.
	WasteGenerated *float64 `json:"waste_generated,omitempty"`

	// WaterUsage is water consumed in cubic meters.
	WaterUsage *float64 `json:"water_usage,omitempty"`

	// IndustryType is a free-form sector label (e.g. "manufacturing").
	IndustryType *string `json:"industry_type,omitempty"`
}

// PredictionResult is the public shape of every prediction, whether it came
// from the model or from the fallback formula.
type PredictionResult struct {
	// PredictedCO2 is the estimate in metric tons, rounded to 2 decimal places.
	PredictedCO2 float64 `json:"predicted_co2"`

	// Confidence is the coarse reliability label.
	Confidence Confidence `json:"confidence"`

	// Suggestions holds exactly SuggestionCount mitigation tips.
	Suggestions []string `json:"suggestions"`
}

// Confidence is a three-level qualitative reliability indicator.
type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

// Valid reports whether c is one of the three known labels.
func (c Confidence) Valid() bool {
	switch c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return true
	}
	return false
}

// ParseConfidence maps a label to a Confidence, ignoring case and
// surrounding whitespace. Returns ("", false) for unknown labels.
func ParseConfidence(s string) (Confidence, bool) {
	label := strings.ToLower(strings.TrimSpace(s))
	if label == "" {
		return "", false
	}
	c := Confidence(strings.ToUpper(label[:1]) + label[1:])
	if !c.Valid() {
		return "", false
	}
	return c, true
}

// EmissionFactor is a fixed constant converting a physical quantity into kg CO2.
type EmissionFactor struct {
	// Source names the activity (e.g. "Electricity").
	Source string

	// KgCO2PerUnit is the factor value.
	KgCO2PerUnit float64

	// Unit is the physical unit the factor applies to (e.g. "kWh").
	Unit string

	// Note is an optional qualifier shown next to the factor.
	Note string
}
