// Package predict implements the emission-prediction pipeline: validate the
// operational metrics, ask the model, and fall back to the emission-factor
// formula when the reply cannot be parsed.
package predict

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rshade/carbon-predict/internal/carbon"
	"github.com/rshade/carbon-predict/internal/llm"
	"github.com/rshade/carbon-predict/internal/metrics"
)

// Source tells which branch produced a prediction.
type Source string

const (
	// SourceModel means the model reply was parsed successfully.
	SourceModel Source = "model"

	// SourceFallback means the reply was unparseable and the formula was used.
	SourceFallback Source = "fallback"
)

// Prediction is the outcome of a successful Predict call. Both branches
// share the same public Result shape.
type Prediction struct {
	Result carbon.PredictionResult
	Source Source
}

// Config holds the service settings injected at construction.
type Config struct {
	// Temperature is the sampling temperature sent to the model.
	Temperature float64
}

// DefaultConfig returns the default service configuration.
func DefaultConfig() Config {
	return Config{Temperature: DefaultTemperature}
}

// Predictor converts operational metrics into a prediction.
type Predictor interface {
	Predict(ctx context.Context, req carbon.PredictionRequest) (Prediction, error)
}

// Service implements Predictor. It holds no per-request state and is safe
// for concurrent use.
type Service struct {
	completer   llm.Completer
	fallback    carbon.FallbackEstimator
	temperature float64
	metrics     *metrics.Recorder
	logger      zerolog.Logger // logger is immutable (copy-on-write)
}

// NewService creates a Service. completer is required; rec may be nil.
func NewService(cfg Config, completer llm.Completer, rec *metrics.Recorder, logger zerolog.Logger) (*Service, error) {
	if completer == nil {
		return nil, ErrMissingCompleter
	}
	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		return nil, fmt.Errorf("temperature %v out of range [0, 2]", cfg.Temperature)
	}

	logger = logger.With().Str("component", "predict").Logger()
	if IsTestMode() {
		logger.Warn().Msg("Test mode enabled")
	}

	return &Service{
		completer:   completer,
		fallback:    carbon.NewEstimator(),
		temperature: cfg.Temperature,
		metrics:     rec,
		logger:      logger,
	}, nil
}

// Predict runs the pipeline for one request:
//
//	Received → Validated → gateway call → Parsed | Fallback → Responded
//
// Validation failures return ErrInvalidInput without calling the gateway.
// Gateway failures return ErrRateLimited, ErrPaymentRequired,
// ErrGatewayTimeout or an *UpstreamError and never fall back. An unparseable
// reply is not an error: the fallback estimate is returned with
// SourceFallback.
func (s *Service) Predict(ctx context.Context, req carbon.PredictionRequest) (Prediction, error) {
	start := time.Now()
	log := s.logger.With().
		Str("trace_id", TraceIDFromContext(ctx)).
		Str("operation", "Predict").
		Logger()

	if err := ValidateRequest(req); err != nil {
		log.Warn().Err(err).Msg("invalid prediction request")
		return Prediction{}, err
	}

	log.Debug().
		Float64("energy_consumption", *req.EnergyConsumption).
		Float64("fuel_usage", *req.FuelUsage).
		Msg("prediction request received")

	content, err := s.completer.Complete(ctx, BuildMessages(req), &llm.SamplingOptions{Temperature: s.temperature})
	if err != nil {
		kind, classified := classifyUpstream(err)
		s.metrics.ObserveUpstreamError(kind)
		log.Error().
			Err(err).
			Str("error_kind", kind).
			Msg("gateway call failed")
		return Prediction{}, classified
	}

	prediction := s.interpret(content, req, log)
	elapsed := time.Since(start)
	s.metrics.ObservePrediction(string(prediction.Source), elapsed)

	log.Info().
		Str("source", string(prediction.Source)).
		Float64("predicted_co2", prediction.Result.PredictedCO2).
		Str("confidence", string(prediction.Result.Confidence)).
		Int64("duration_ms", elapsed.Milliseconds()).
		Msg("prediction completed")

	return prediction, nil
}

// interpret parses the model reply, resolving any parse failure with the
// fallback estimate.
func (s *Service) interpret(content string, req carbon.PredictionRequest, log zerolog.Logger) Prediction {
	result, err := ParseReply(content)
	if err != nil {
		log.Warn().
			Err(err).
			Int("content_length", len(content)).
			Msg("unparseable model reply, using fallback estimate")
		return Prediction{Result: s.fallback.Estimate(req), Source: SourceFallback}
	}
	return Prediction{Result: result, Source: SourceModel}
}
