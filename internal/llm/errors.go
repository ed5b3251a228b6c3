package llm

import "fmt"

// constError is an immutable error type for sentinel errors.
type constError string

func (e constError) Error() string { return string(e) }

var (
	// ErrMissingAPIKey indicates the gateway credential was not configured.
	ErrMissingAPIKey = constError("AI gateway API key is not configured")

	// ErrNoContent indicates a successful response without a first-choice message.
	ErrNoContent = constError("no content in AI response")
)

// StatusError is returned when the gateway answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("AI gateway error: %d", e.StatusCode)
}
