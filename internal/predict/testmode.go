package predict

import (
	"os"

	"github.com/rs/zerolog"
)

// TestModeEnvVar enables offline test mode. In test mode no gateway
// credential is required and every prediction uses the fallback estimate.
const TestModeEnvVar = "CARBON_PREDICT_TEST_MODE"

// IsTestMode returns true if test mode is enabled via environment variable.
// Only the exact string "true" enables test mode.
func IsTestMode() bool {
	return os.Getenv(TestModeEnvVar) == "true"
}

// ValidateTestModeEnv checks if CARBON_PREDICT_TEST_MODE has an invalid value
// and logs a warning if so. Valid values are "true", "false", or unset.
// Invalid values (e.g., "1", "yes", "maybe") are treated as disabled with warning.
func ValidateTestModeEnv(logger zerolog.Logger) {
	val := os.Getenv(TestModeEnvVar)
	if val != "" && val != "true" && val != "false" {
		logger.Warn().
			Str("env_var", TestModeEnvVar).
			Str("value", val).
			Msg("Invalid CARBON_PREDICT_TEST_MODE value; treating as disabled")
	}
}
