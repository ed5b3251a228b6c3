package predict

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/carbon-predict/internal/carbon"
	"github.com/rshade/carbon-predict/internal/llm"
	"github.com/rshade/carbon-predict/internal/metrics"
)

// mockCompleter is a test double for llm.Completer.
type mockCompleter struct {
	mu       sync.Mutex
	reply    string
	err      error
	calls    int
	lastMsgs []llm.Message
	lastOpts *llm.SamplingOptions
}

func (m *mockCompleter) Complete(_ context.Context, msgs []llm.Message, opts *llm.SamplingOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastMsgs = msgs
	m.lastOpts = opts
	return m.reply, m.err
}

func (m *mockCompleter) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func newTestService(t *testing.T, completer llm.Completer) *Service {
	t.Helper()
	svc, err := NewService(DefaultConfig(), completer, nil, zerolog.New(nil))
	require.NoError(t, err)
	return svc
}

func referenceRequest() carbon.PredictionRequest {
	return carbon.PredictionRequest{
		EnergyConsumption: ptr(15000.0),
		FuelUsage:         ptr(5000.0),
	}
}

func TestNewService(t *testing.T) {
	t.Run("nil completer", func(t *testing.T) {
		svc, err := NewService(DefaultConfig(), nil, nil, zerolog.New(nil))
		assert.Nil(t, svc)
		assert.ErrorIs(t, err, ErrMissingCompleter)
	})

	t.Run("temperature out of range", func(t *testing.T) {
		_, err := NewService(Config{Temperature: 3}, &mockCompleter{}, nil, zerolog.New(nil))
		assert.Error(t, err)
	})

	t.Run("zero temperature allowed", func(t *testing.T) {
		_, err := NewService(Config{Temperature: 0}, &mockCompleter{}, nil, zerolog.New(nil))
		assert.NoError(t, err)
	})
}

func TestService_Predict_ModelReply(t *testing.T) {
	completer := &mockCompleter{reply: validReply}
	svc := newTestService(t, completer)

	got, err := svc.Predict(context.Background(), referenceRequest())
	require.NoError(t, err)

	assert.Equal(t, SourceModel, got.Source)
	assert.Equal(t, 20.9, got.Result.PredictedCO2)
	assert.Equal(t, carbon.ConfidenceHigh, got.Result.Confidence)
	assert.Len(t, got.Result.Suggestions, 3)

	require.Len(t, completer.lastMsgs, 2)
	assert.Equal(t, llm.RoleSystem, completer.lastMsgs[0].Role)
	assert.Equal(t, llm.RoleUser, completer.lastMsgs[1].Role)
	require.NotNil(t, completer.lastOpts)
	assert.Equal(t, DefaultTemperature, completer.lastOpts.Temperature)
}

func TestService_Predict_FencedReply(t *testing.T) {
	plain := newTestService(t, &mockCompleter{reply: validReply})
	fenced := newTestService(t, &mockCompleter{reply: "```json\n" + validReply + "\n```"})

	want, err := plain.Predict(context.Background(), referenceRequest())
	require.NoError(t, err)
	got, err := fenced.Predict(context.Background(), referenceRequest())
	require.NoError(t, err)

	assert.Equal(t, want, got)
}

func TestService_Predict_MalformedReplyFallsBack(t *testing.T) {
	replies := []string{
		"I think it is around 20 tons.",
		`{"predicted_co2": "lots"}`,
		`{"predicted_co2": 1, "confidence": "High", "suggestions": ["only one"]}`,
		"```json\n{broken\n```",
	}

	for _, reply := range replies {
		t.Run(reply, func(t *testing.T) {
			svc := newTestService(t, &mockCompleter{reply: reply})

			got, err := svc.Predict(context.Background(), referenceRequest())
			require.NoError(t, err)

			assert.Equal(t, SourceFallback, got.Source)
			assert.Equal(t, 20.90, got.Result.PredictedCO2)
			assert.Equal(t, carbon.ConfidenceMedium, got.Result.Confidence)
			assert.Equal(t, carbon.FallbackSuggestions(), got.Result.Suggestions)
		})
	}
}

func TestService_Predict_FallbackMatchesFormula(t *testing.T) {
	svc := newTestService(t, &mockCompleter{reply: "not json"})

	inputs := []carbon.PredictionRequest{
		{EnergyConsumption: ptr(1000.0), FuelUsage: ptr(100.0), WasteGenerated: ptr(200.0)},
		{EnergyConsumption: ptr(12345.0), FuelUsage: ptr(678.9), WaterUsage: ptr(10.0)},
		{EnergyConsumption: ptr(1.0), FuelUsage: ptr(1.0), IndustryType: ptr("textiles")},
	}

	for _, req := range inputs {
		got, err := svc.Predict(context.Background(), req)
		require.NoError(t, err)

		waste := 0.0
		if req.WasteGenerated != nil {
			waste = *req.WasteGenerated
		}
		want := carbon.RoundTons(*req.EnergyConsumption*0.0005 + *req.FuelUsage*0.00268 + waste*0.0005)
		assert.Equal(t, want, got.Result.PredictedCO2)
		assert.Equal(t, SourceFallback, got.Source)
	}
}

func TestService_Predict_InvalidInputSkipsGateway(t *testing.T) {
	requests := map[string]carbon.PredictionRequest{
		"zero energy":   {EnergyConsumption: ptr(0.0), FuelUsage: ptr(5000.0)},
		"absent energy": {FuelUsage: ptr(5000.0)},
		"absent fuel":   {EnergyConsumption: ptr(15000.0)},
	}

	for name, req := range requests {
		t.Run(name, func(t *testing.T) {
			completer := &mockCompleter{reply: validReply}
			svc := newTestService(t, completer)

			_, err := svc.Predict(context.Background(), req)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Equal(t, 0, completer.callCount())
		})
	}
}

func TestService_Predict_GatewayErrorsDoNotFallBack(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		wantIs error
	}{
		{name: "rate limited", err: &llm.StatusError{StatusCode: 429}, wantIs: ErrRateLimited},
		{name: "payment required", err: &llm.StatusError{StatusCode: 402}, wantIs: ErrPaymentRequired},
		{name: "server error", err: &llm.StatusError{StatusCode: 500, Body: "oops"}, wantIs: ErrUpstream},
		{name: "no content", err: llm.ErrNoContent, wantIs: ErrUpstream},
		{name: "transport", err: errors.New("connection reset"), wantIs: ErrUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, &mockCompleter{err: tt.err})

			got, err := svc.Predict(context.Background(), referenceRequest())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantIs)
			assert.Equal(t, Prediction{}, got)
		})
	}
}

func TestService_Predict_WithGatewayClient(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantErr    error
		wantSource Source
	}{
		{
			name:       "parsed reply",
			status:     http.StatusOK,
			body:       `{"choices":[{"message":{"content":"{\"predicted_co2\": 21.5, \"confidence\": \"Low\", \"suggestions\": [\"a\", \"b\", \"c\"]}"}}]}`,
			wantSource: SourceModel,
		},
		{
			name:       "unparseable reply",
			status:     http.StatusOK,
			body:       `{"choices":[{"message":{"content":"sorry, I cannot help"}}]}`,
			wantSource: SourceFallback,
		},
		{name: "429", status: http.StatusTooManyRequests, body: "{}", wantErr: ErrRateLimited},
		{name: "402", status: http.StatusPaymentRequired, body: "{}", wantErr: ErrPaymentRequired},
		{name: "500", status: http.StatusInternalServerError, body: "boom", wantErr: ErrUpstream},
		{name: "empty choices", status: http.StatusOK, body: `{"choices":[]}`, wantErr: ErrUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, err := llm.NewGatewayClient(llm.GatewayConfig{APIKey: "k", Endpoint: server.URL}, zerolog.New(nil))
			require.NoError(t, err)
			svc := newTestService(t, client)

			got, err := svc.Predict(context.Background(), referenceRequest())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSource, got.Source)
		})
	}
}

func TestService_Predict_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := metrics.NewRecorder(reg, reg)

	fallbackSvc, err := NewService(DefaultConfig(), &mockCompleter{reply: "nope"}, rec, zerolog.New(nil))
	require.NoError(t, err)
	limitedSvc, err := NewService(DefaultConfig(), &mockCompleter{err: &llm.StatusError{StatusCode: 429}}, rec, zerolog.New(nil))
	require.NoError(t, err)

	_, err = fallbackSvc.Predict(context.Background(), referenceRequest())
	require.NoError(t, err)
	_, err = limitedSvc.Predict(context.Background(), referenceRequest())
	require.Error(t, err)

	w := httptest.NewRecorder()
	rec.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := w.Body.String()
	assert.Contains(t, body, `carbon_predict_predictions_total{source="fallback"} 1`)
	assert.Contains(t, body, `carbon_predict_upstream_errors_total{kind="rate_limited"} 1`)
}

func TestService_Predict_LogsTraceID(t *testing.T) {
	var logBuf bytes.Buffer
	logger := zerolog.New(&logBuf).Level(zerolog.InfoLevel)

	svc, err := NewService(DefaultConfig(), &mockCompleter{reply: "nope"}, nil, logger)
	require.NoError(t, err)

	ctx := ContextWithTraceID(context.Background(), "trace-abc")
	_, err = svc.Predict(ctx, referenceRequest())
	require.NoError(t, err)

	logs := logBuf.String()
	assert.Contains(t, logs, `"trace_id":"trace-abc"`)
	assert.Contains(t, logs, "unparseable model reply, using fallback estimate")
	assert.Contains(t, logs, `"source":"fallback"`)
	assert.True(t, strings.Contains(logs, `"operation":"Predict"`))
}

func TestService_Predict_ConcurrentRequests(t *testing.T) {
	completer := &mockCompleter{reply: "not json"}
	svc := newTestService(t, completer)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := svc.Predict(context.Background(), referenceRequest())
			assert.NoError(t, err)
			assert.Equal(t, 20.90, got.Result.PredictedCO2)
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, completer.callCount())
}

func TestService_ImplementsPredictor(t *testing.T) {
	var _ Predictor = newTestService(t, &mockCompleter{})
}
