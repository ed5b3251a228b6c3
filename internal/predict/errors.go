package predict

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/rshade/carbon-predict/internal/llm"
)

// constError is an immutable error type for sentinel errors.
// It implements the error interface and provides compile-time safety.
type constError string

func (e constError) Error() string { return string(e) }

// Sentinel errors of the prediction pipeline. Compare with errors.Is.
// Messages are user-facing and returned verbatim in HTTP error bodies.
var (
	// ErrInvalidInput indicates a missing or zero energy_consumption or fuel_usage.
	ErrInvalidInput = constError("Energy consumption and fuel usage are required")

	// ErrRateLimited indicates the gateway answered 429. Callers may retry later.
	ErrRateLimited = constError("Rate limits exceeded, please try again later.")

	// ErrPaymentRequired indicates the gateway answered 402 (workspace out of credits).
	ErrPaymentRequired = constError("Payment required, please add funds to your workspace.")

	// ErrUpstream matches every *UpstreamError.
	ErrUpstream = constError("AI gateway request failed")

	// ErrGatewayTimeout indicates the gateway call hit a request or client deadline.
	ErrGatewayTimeout = constError("AI gateway request timed out")

	// ErrMissingCompleter indicates a Service was constructed without a model client.
	ErrMissingCompleter = constError("prediction service requires a completer")
)

// UpstreamError describes a failed gateway call other than 429 and 402:
// another non-success status, a transport failure, or a reply without content.
type UpstreamError struct {
	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int

	// Body is the raw response body for status failures.
	Body string

	// Err is the underlying cause.
	Err error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("AI gateway error: %d", e.StatusCode)
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(ErrUpstream)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrUpstream) true for every *UpstreamError.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

// Upstream error kinds used as metric labels.
const (
	kindRateLimited     = "rate_limited"
	kindPaymentRequired = "payment_required"
	kindTimeout         = "timeout"
	kindUpstream        = "upstream"
)

// classifyUpstream maps a Completer error onto the error taxonomy.
// It returns the metric kind and the classified error.
func classifyUpstream(err error) (string, error) {
	var statusErr *llm.StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusTooManyRequests:
			return kindRateLimited, ErrRateLimited
		case http.StatusPaymentRequired:
			return kindPaymentRequired, ErrPaymentRequired
		}
		return kindUpstream, &UpstreamError{
			StatusCode: statusErr.StatusCode,
			Body:       statusErr.Body,
			Err:        statusErr,
		}
	}
	if isTimeout(err) {
		return kindTimeout, ErrGatewayTimeout
	}
	return kindUpstream, &UpstreamError{Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// HTTPStatus returns the HTTP status code for an error returned by Predict.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrPaymentRequired):
		return http.StatusPaymentRequired
	case errors.Is(err, ErrGatewayTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
