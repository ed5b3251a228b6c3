package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/rshade/carbon-predict/internal/llm"
	"github.com/rshade/carbon-predict/internal/predict"
	"github.com/rshade/carbon-predict/internal/server"
)

// Environment variables read by loadConfig. They override the config file.
// LOVABLE_API_KEY is read only when AI_GATEWAY_API_KEY is unset.
const (
	envAPIKey          = "AI_GATEWAY_API_KEY"
	envLegacyAPIKey    = "LOVABLE_API_KEY"
	envGatewayURL      = "AI_GATEWAY_URL"
	envModel           = "AI_MODEL"
	envTemperature     = "AI_TEMPERATURE"
	envTimeout         = "AI_TIMEOUT"
	envPort            = "PORT"
	envLogLevel        = "LOG_LEVEL"
	envCORSOrigins     = "CARBON_PREDICT_CORS_ALLOWED_ORIGINS"
	envCORSHeaders     = "CARBON_PREDICT_CORS_ALLOWED_HEADERS"
	envCORSMaxAge      = "CARBON_PREDICT_CORS_MAX_AGE"
	envCORSCredentials = "CARBON_PREDICT_CORS_ALLOW_CREDENTIALS"
)

const defaultCORSMaxAge = 86400

// Config is the process configuration assembled from the optional YAML file
// and the environment.
type Config struct {
	Gateway GatewayConfig `yaml:"gateway"`
	Server  ServerConfig  `yaml:"server"`
	CORS    CORSConfig    `yaml:"cors"`
}

// GatewayConfig configures the AI gateway client.
type GatewayConfig struct {
	APIKey      string        `yaml:"api_key"`
	URL         string        `yaml:"url"`
	Model       string        `yaml:"model"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// CORSConfig configures cross-origin headers.
type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowed_origins"`
	AllowedHeaders   []string `yaml:"allowed_headers"`
	AllowCredentials bool     `yaml:"allow_credentials"`
	MaxAge           *int     `yaml:"max_age"`
}

func defaultConfig() Config {
	srv := server.DefaultConfig()
	return Config{
		Gateway: GatewayConfig{
			URL:         llm.DefaultEndpoint,
			Model:       llm.DefaultModel,
			Temperature: predict.DefaultTemperature,
			Timeout:     llm.DefaultTimeout,
		},
		Server: ServerConfig{
			Port:            8080,
			MaxBodyBytes:    srv.MaxBodyBytes,
			RequestTimeout:  srv.RequestTimeout,
			ShutdownTimeout: srv.ShutdownTimeout,
		},
	}
}

// loadConfig builds the configuration from defaults, the YAML file at path
// (when non-empty) and then the environment. Invalid environment values are
// logged and ignored; an insecure CORS combination is an error.
func loadConfig(path string, logger zerolog.Logger) (Config, error) {
	cfg := defaultConfig()

	if path != "" {
		if err := readConfigFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg, logger)

	if err := cfg.normalizeCORS(logger); err != nil {
		return Config{}, err
	}

	maxAge := defaultCORSMaxAge
	if cfg.CORS.MaxAge != nil {
		maxAge = *cfg.CORS.MaxAge
	}
	cfg.CORS.MaxAge = &maxAge

	logger.Debug().
		Str("gateway_url", cfg.Gateway.URL).
		Str("model", cfg.Gateway.Model).
		Float64("temperature", cfg.Gateway.Temperature).
		Int("port", cfg.Server.Port).
		Strs("allowed_origins", cfg.CORS.AllowedOrigins).
		Int("max_age", maxAge).
		Msg("configuration loaded")

	return cfg, nil
}

func readConfigFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config, logger zerolog.Logger) {
	if v := os.Getenv(envAPIKey); v != "" {
		cfg.Gateway.APIKey = v
	} else if v := os.Getenv(envLegacyAPIKey); v != "" {
		cfg.Gateway.APIKey = v
	}
	if v := os.Getenv(envGatewayURL); v != "" {
		cfg.Gateway.URL = v
	}
	if v := os.Getenv(envModel); v != "" {
		cfg.Gateway.Model = v
	}

	if v := os.Getenv(envTemperature); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed >= 0 && parsed <= 2 {
			cfg.Gateway.Temperature = parsed
		} else {
			logger.Warn().Str("value", v).Msg("invalid AI_TEMPERATURE, using default")
		}
	}

	if v := os.Getenv(envTimeout); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil && parsed > 0 {
			cfg.Gateway.Timeout = parsed
		} else {
			logger.Warn().Str("value", v).Msg("invalid AI_TIMEOUT, using default")
		}
	}

	if v := os.Getenv(envPort); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 65535 {
			cfg.Server.Port = parsed
		} else {
			logger.Warn().Str("value", v).Msg("invalid PORT, using default")
		}
	}

	if v := os.Getenv(envCORSOrigins); v != "" {
		cfg.CORS.AllowedOrigins = strings.Split(v, ",")
	}

	if v := os.Getenv(envCORSHeaders); v != "" {
		cfg.CORS.AllowedHeaders = strings.Split(v, ",")
	}

	if strings.ToLower(os.Getenv(envCORSCredentials)) == "true" {
		cfg.CORS.AllowCredentials = true
	}

	if v := os.Getenv(envCORSMaxAge); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			cfg.CORS.MaxAge = &parsed
		} else {
			logger.Warn().Str("value", v).Msg("invalid CARBON_PREDICT_CORS_MAX_AGE, using default")
		}
	}
}

// normalizeCORS trims origins and headers and drops the wildcard origin,
// since an empty allowlist already means any origin. Empty headers fall back
// to the server defaults.
func (c *Config) normalizeCORS(logger zerolog.Logger) error {
	hasWildcard := false
	var origins []string
	for _, o := range c.CORS.AllowedOrigins {
		trimmed := strings.TrimSpace(o)
		if trimmed == "*" {
			hasWildcard = true
			continue
		}
		if trimmed != "" {
			origins = append(origins, trimmed)
		}
	}

	if hasWildcard {
		logger.Warn().Msg("CORS wildcard origin (*) allows any site; use specific origins in production")
		origins = nil
	}
	if c.CORS.AllowCredentials && len(origins) == 0 {
		return errors.New("cannot enable CORS credentials with wildcard origin (*)")
	}

	var headers []string
	for _, h := range c.CORS.AllowedHeaders {
		if trimmed := strings.ToLower(strings.TrimSpace(h)); trimmed != "" {
			headers = append(headers, trimmed)
		}
	}

	c.CORS.AllowedOrigins = origins
	c.CORS.AllowedHeaders = headers
	return nil
}

func (c Config) gatewayConfig() llm.GatewayConfig {
	return llm.GatewayConfig{
		APIKey:   c.Gateway.APIKey,
		Endpoint: c.Gateway.URL,
		Model:    c.Gateway.Model,
		Timeout:  c.Gateway.Timeout,
	}
}

func (c Config) predictConfig() predict.Config {
	return predict.Config{Temperature: c.Gateway.Temperature}
}

func (c Config) serverConfig(version string) server.Config {
	cfg := server.DefaultConfig()
	cfg.Addr = fmt.Sprintf(":%d", c.Server.Port)
	cfg.MaxBodyBytes = c.Server.MaxBodyBytes
	cfg.RequestTimeout = c.Server.RequestTimeout
	cfg.ShutdownTimeout = c.Server.ShutdownTimeout
	cfg.Version = version
	cfg.CORS = server.CORSConfig{
		AllowedOrigins:   c.CORS.AllowedOrigins,
		AllowedHeaders:   c.CORS.AllowedHeaders,
		AllowCredentials: c.CORS.AllowCredentials,
		MaxAge:           c.CORS.MaxAge,
	}
	return cfg
}
