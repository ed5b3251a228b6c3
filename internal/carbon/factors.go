package carbon

// promptFactors is the ordered factor table handed to the model.
// Values are in kg CO2 per unit.
var promptFactors = []EmissionFactor{
	{Source: "Electricity", KgCO2PerUnit: ElectricityKgPerKWh, Unit: "kWh", Note: "grid average"},
	{Source: "Diesel fuel", KgCO2PerUnit: DieselKgPerLiter, Unit: "liter"},
	{Source: "Natural gas", KgCO2PerUnit: NaturalGasKgPerM3, Unit: "m³"},
	{Source: "Waste decomposition", KgCO2PerUnit: WasteKgPerKg, Unit: "kg waste"},
}

// PromptFactors returns a copy of the emission factor table used in prompts.
func PromptFactors() []EmissionFactor {
	out := make([]EmissionFactor, len(promptFactors))
	copy(out, promptFactors)
	return out
}

// FallbackSuggestions returns the three fixed suggestions in order:
// renewable energy, fuel efficiency, waste reduction.
func FallbackSuggestions() []string {
	return []string{
		SuggestionRenewableEnergy,
		SuggestionFuelEfficiency,
		SuggestionWasteReduction,
	}
}
