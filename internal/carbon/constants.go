// Package carbon provides the emission factors and the deterministic
// fallback estimate used when a model-generated CO2 prediction is unavailable.
package carbon

const (
	// ElectricityKgPerKWh is the grid-average emission factor for purchased electricity.
	ElectricityKgPerKWh = 0.5

	// DieselKgPerLiter is the combustion emission factor for diesel fuel.
	DieselKgPerLiter = 2.68

	// NaturalGasKgPerM3 is the combustion emission factor for natural gas.
	// Only used as prompt context; the fallback formula has no gas input.
	NaturalGasKgPerM3 = 2.0

	// WasteKgPerKg is the decomposition emission factor for generated waste.
	WasteKgPerKg = 0.5

	// KgPerMetricTon converts kilograms to metric tons.
	KgPerMetricTon = 1000.0
)

// Fallback factors in metric tons CO2 per input unit.
const (
	ElectricityTonsPerKWh = ElectricityKgPerKWh / KgPerMetricTon // 0.0005
	DieselTonsPerLiter    = DieselKgPerLiter / KgPerMetricTon    // 0.00268
	WasteTonsPerKg        = WasteKgPerKg / KgPerMetricTon        // 0.0005
)

// Fixed mitigation suggestions returned by the fallback estimate.
const (
	SuggestionRenewableEnergy = "Transition to renewable energy sources to reduce electricity-related emissions"
	SuggestionFuelEfficiency  = "Implement fuel efficiency programs and consider electric vehicle alternatives"
	SuggestionWasteReduction  = "Develop a comprehensive waste reduction and recycling program"
)

// SuggestionCount is the number of suggestions every prediction carries.
const SuggestionCount = 3
