package predict

import (
	"fmt"
	"strings"

	"github.com/rshade/carbon-predict/internal/carbon"
	"github.com/rshade/carbon-predict/internal/llm"
)

// DefaultTemperature favors consistent answers over creative variation.
const DefaultTemperature = 0.3

// SystemPrompt fixes the model's role and output format.
const SystemPrompt = "You are an expert environmental scientist specializing in carbon emissions analysis. " +
	"Always respond with valid JSON only, no markdown formatting."

const replyFormat = `Respond ONLY with valid JSON in this exact format:
{
  "predicted_co2": <number>,
  "confidence": "<High|Medium|Low>",
  "suggestions": ["<suggestion1>", "<suggestion2>", "<suggestion3>"]
}`

// BuildMessages returns the system and user messages for req.
func BuildMessages(req carbon.PredictionRequest) []llm.Message {
	return []llm.Message{
		{Role: llm.RoleSystem, Content: SystemPrompt},
		{Role: llm.RoleUser, Content: BuildPrompt(req)},
	}
}

// BuildPrompt renders the user instruction for req. Optional metrics appear
// only when present and non-zero; industry type only when non-empty.
func BuildPrompt(req carbon.PredictionRequest) string {
	var b strings.Builder

	b.WriteString("You are an expert environmental scientist and carbon emissions analyst. ")
	b.WriteString("Based on the following industrial operational data, predict the CO2 emissions in metric tons.\n\n")

	b.WriteString("Input Data:\n")
	writeQuantity(&b, "Energy Consumption", req.EnergyConsumption, "kWh")
	writeQuantity(&b, "Fuel Usage", req.FuelUsage, "liters")
	writeQuantity(&b, "Production Volume", req.ProductionVolume, "units")
	writeQuantity(&b, "Waste Generated", req.WasteGenerated, "kg")
	writeQuantity(&b, "Water Usage", req.WaterUsage, "m³")
	if req.IndustryType != nil && strings.TrimSpace(*req.IndustryType) != "" {
		fmt.Fprintf(&b, "- Industry Type: %s\n", strings.TrimSpace(*req.IndustryType))
	}

	b.WriteString("\nUse these emission factors for calculation:\n")
	for _, f := range carbon.PromptFactors() {
		fmt.Fprintf(&b, "- %s: ~%s kg CO2 per %s", f.Source, carbon.FormatQuantity(f.KgCO2PerUnit), f.Unit)
		if f.Note != "" {
			fmt.Fprintf(&b, " (%s)", f.Note)
		}
		b.WriteByte('\n')
	}

	b.WriteString("\nCalculate the total CO2 emissions and provide:\n")
	b.WriteString("1. The predicted CO2 emission value in metric tons (rounded to 2 decimal places)\n")
	b.WriteString("2. Your confidence level (High, Medium, or Low)\n")
	fmt.Fprintf(&b, "3. %d specific recommendations to reduce emissions\n\n", carbon.SuggestionCount)
	b.WriteString(replyFormat)

	return b.String()
}

func writeQuantity(b *strings.Builder, label string, v *float64, unit string) {
	if !isSet(v) {
		return
	}
	fmt.Fprintf(b, "- %s: %s %s\n", label, carbon.FormatQuantity(*v), unit)
}
