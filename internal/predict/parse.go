package predict

import (
	"fmt"
	"math"
	"strings"

	"github.com/goccy/go-json"

	"github.com/rshade/carbon-predict/internal/carbon"
)

const codeFence = "```"

// errMalformedReply marks every ParseReply failure. It never leaves the package:
// Predict resolves it with the fallback estimate.
const errMalformedReply = constError("malformed model reply")

// replyPayload mirrors the JSON shape the model is asked to produce.
type replyPayload struct {
	PredictedCO2 *float64 `json:"predicted_co2"`
	Confidence   string   `json:"confidence"`
	Suggestions  []string `json:"suggestions"`
}

// StripCodeFence removes a surrounding markdown code fence, including an
// optional language tag ("```json"), and trims whitespace. Unfenced input is
// returned trimmed.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, codeFence) {
		s = strings.TrimPrefix(s, codeFence)
		s = strings.TrimLeftFunc(s, isFenceTagRune)
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, codeFence)
	return strings.TrimSpace(s)
}

func isFenceTagRune(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' || r == '-' || r == '+'
}

// ParseReply decodes a model reply into a PredictionResult.
//
// The reply may be wrapped in a markdown code fence. It must be a single JSON
// object with a finite non-negative predicted_co2, a High/Medium/Low
// confidence (case-insensitive) and exactly three non-empty suggestions.
// predicted_co2 is rounded to 2 decimal places.
func ParseReply(content string) (carbon.PredictionResult, error) {
	var payload replyPayload
	if err := json.Unmarshal([]byte(StripCodeFence(content)), &payload); err != nil {
		return carbon.PredictionResult{}, fmt.Errorf("%w: %v", errMalformedReply, err)
	}

	if payload.PredictedCO2 == nil {
		return carbon.PredictionResult{}, fmt.Errorf("%w: predicted_co2 missing", errMalformedReply)
	}
	value := *payload.PredictedCO2
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return carbon.PredictionResult{}, fmt.Errorf("%w: predicted_co2 out of range: %v", errMalformedReply, value)
	}

	confidence, ok := carbon.ParseConfidence(payload.Confidence)
	if !ok {
		return carbon.PredictionResult{}, fmt.Errorf("%w: unknown confidence %q", errMalformedReply, payload.Confidence)
	}

	if len(payload.Suggestions) != carbon.SuggestionCount {
		return carbon.PredictionResult{}, fmt.Errorf("%w: expected %d suggestions, got %d",
			errMalformedReply, carbon.SuggestionCount, len(payload.Suggestions))
	}
	suggestions := make([]string, 0, carbon.SuggestionCount)
	for i, s := range payload.Suggestions {
		s = strings.TrimSpace(s)
		if s == "" {
			return carbon.PredictionResult{}, fmt.Errorf("%w: suggestion %d is empty", errMalformedReply, i+1)
		}
		suggestions = append(suggestions, s)
	}

	return carbon.PredictionResult{
		PredictedCO2: carbon.RoundTons(value),
		Confidence:   confidence,
		Suggestions:  suggestions,
	}, nil
}
