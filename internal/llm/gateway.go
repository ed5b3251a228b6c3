package llm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

const (
	// DefaultEndpoint is the chat-completions URL of the AI gateway.
	DefaultEndpoint = "https://ai.gateway.lovable.dev/v1/chat/completions"

	// DefaultModel is the model identifier sent with every request.
	DefaultModel = "google/gemini-3-flash-preview"

	// DefaultTimeout bounds a single gateway round trip.
	DefaultTimeout = 60 * time.Second

	// maxBodyBytes caps how much of a response body is read.
	maxBodyBytes = 1 << 20
)

// GatewayConfig configures a GatewayClient.
type GatewayConfig struct {
	// APIKey is the bearer credential. Required.
	APIKey string

	// Endpoint overrides DefaultEndpoint.
	Endpoint string

	// Model overrides DefaultModel.
	Model string

	// Timeout overrides DefaultTimeout. Ignored when HTTPClient is set.
	Timeout time.Duration

	// HTTPClient overrides the client used for requests.
	HTTPClient *http.Client
}

// GatewayClient implements Completer against an OpenAI-compatible
// chat-completions endpoint.
type GatewayClient struct {
	apiKey     string
	endpoint   string
	model      string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewGatewayClient validates cfg and returns a client. A missing API key is
// reported as ErrMissingAPIKey so callers can fail at startup.
func NewGatewayClient(cfg GatewayConfig, logger zerolog.Logger) (*GatewayClient, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	c := &GatewayClient{
		apiKey:     cfg.APIKey,
		endpoint:   cfg.Endpoint,
		model:      cfg.Model,
		httpClient: cfg.HTTPClient,
		logger:     logger.With().Str("component", "llm").Logger(),
	}
	if c.endpoint == "" {
		c.endpoint = DefaultEndpoint
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		c.httpClient = &http.Client{Timeout: timeout}
	}
	return c, nil
}

// Model returns the model identifier sent with each request.
func (c *GatewayClient) Model() string {
	return c.model
}

// Complete implements Completer.
func (c *GatewayClient) Complete(ctx context.Context, msgs []Message, opts *SamplingOptions) (string, error) {
	reqBody := chatRequest{
		Model:    c.model,
		Messages: msgs,
	}
	if opts != nil {
		temp := opts.Temperature
		reqBody.Temperature = &temp
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("llm: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("llm: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm: send request: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Debug().Err(cerr).Msg("failed to close response body")
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("llm: read response: %w", err)
	}

	c.logger.Debug().
		Int("status_code", resp.StatusCode).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Str("model", c.model).
		Msg("gateway call completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("llm: decode response: %w", err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == nil || *parsed.Choices[0].Message.Content == "" {
		return "", ErrNoContent
	}
	return *parsed.Choices[0].Message.Content, nil
}
