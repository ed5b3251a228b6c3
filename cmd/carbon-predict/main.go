// Command carbon-predict serves and runs carbon-emission predictions.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rshade/carbon-predict/internal/carbon"
	"github.com/rshade/carbon-predict/internal/llm"
	"github.com/rshade/carbon-predict/internal/metrics"
	"github.com/rshade/carbon-predict/internal/predict"
	"github.com/rshade/carbon-predict/internal/server"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
	logLevel   string
	debug      bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "carbon-predict",
		Short:        "Predict CO2 emissions from operational metrics",
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("load .env: %w", err)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "human-readable debug logging")

	cmd.AddCommand(newServeCmd(opts), newPredictCmd(opts), newVersionCmd())
	return cmd
}

// newLogger builds the process logger. The flag wins over LOG_LEVEL; an
// unknown level falls back to info with a warning.
func (o *rootOptions) newLogger(w io.Writer) zerolog.Logger {
	var out io.Writer = w
	if o.debug {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	logger := zerolog.New(out).With().Timestamp().Logger()

	raw := o.logLevel
	if raw == "" {
		raw = os.Getenv(envLogLevel)
	}
	level := zerolog.InfoLevel
	if o.debug {
		level = zerolog.DebugLevel
	}
	if raw != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(raw))
		if err != nil || parsed == zerolog.NoLevel {
			logger.Warn().Str("value", raw).Msg("invalid log level, using default")
		} else {
			level = parsed
		}
	}
	return logger.Level(level)
}

// buildCompleter returns the offline completer in test mode or when offline is
// set, and the gateway client otherwise. A missing credential is fatal.
func buildCompleter(cfg Config, offline bool, logger zerolog.Logger) (llm.Completer, error) {
	if offline || predict.IsTestMode() {
		logger.Info().Msg("Using offline completer; predictions use the fallback estimate")
		return llm.OfflineCompleter{}, nil
	}
	client, err := llm.NewGatewayClient(cfg.gatewayConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("create gateway client: %w", err)
	}
	logger.Info().
		Str("endpoint", cfg.Gateway.URL).
		Str("model", client.Model()).
		Msg("Using AI gateway")
	return client, nil
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the prediction HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := opts.newLogger(cmd.ErrOrStderr())
			predict.ValidateTestModeEnv(logger)

			cfg, err := loadConfig(opts.configPath, logger)
			if err != nil {
				return err
			}

			completer, err := buildCompleter(cfg, false, logger)
			if err != nil {
				return err
			}

			rec := metrics.NewRegistryRecorder()
			svc, err := predict.NewService(cfg.predictConfig(), completer, rec, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return server.New(cfg.serverConfig(version), svc, rec, logger).Run(ctx)
		},
	}
}

type predictOptions struct {
	energy     float64
	fuel       float64
	waste      float64
	water      float64
	production float64
	industry   string
	offline    bool
}

func newPredictCmd(opts *rootOptions) *cobra.Command {
	po := &predictOptions{}

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Run a single prediction and print the result as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := opts.newLogger(cmd.ErrOrStderr())
			predict.ValidateTestModeEnv(logger)

			cfg, err := loadConfig(opts.configPath, logger)
			if err != nil {
				return err
			}

			completer, err := buildCompleter(cfg, po.offline, logger)
			if err != nil {
				return err
			}

			svc, err := predict.NewService(cfg.predictConfig(), completer, nil, logger)
			if err != nil {
				return err
			}

			prediction, err := svc.Predict(cmd.Context(), po.request(cmd))
			if err != nil {
				return err
			}

			logger.Debug().Str("source", string(prediction.Source)).Msg("prediction source")
			return writePrediction(cmd.OutOrStdout(), prediction.Result)
		},
	}

	f := cmd.Flags()
	f.Float64Var(&po.energy, "energy", 0, "energy consumption in kWh (required)")
	f.Float64Var(&po.fuel, "fuel", 0, "fuel usage in liters (required)")
	f.Float64Var(&po.waste, "waste", 0, "waste generated in kg")
	f.Float64Var(&po.water, "water", 0, "water usage in m³")
	f.Float64Var(&po.production, "production", 0, "production volume in units")
	f.StringVar(&po.industry, "industry", "", "industry type")
	f.BoolVar(&po.offline, "offline", false, "skip the gateway and use the fallback estimate")

	return cmd
}

// request builds a PredictionRequest from the flags the user actually set.
func (po *predictOptions) request(cmd *cobra.Command) carbon.PredictionRequest {
	f := cmd.Flags()
	var req carbon.PredictionRequest
	if f.Changed("energy") {
		req.EnergyConsumption = &po.energy
	}
	if f.Changed("fuel") {
		req.FuelUsage = &po.fuel
	}
	if f.Changed("waste") {
		req.WasteGenerated = &po.waste
	}
	if f.Changed("water") {
		req.WaterUsage = &po.water
	}
	if f.Changed("production") {
		req.ProductionVolume = &po.production
	}
	if f.Changed("industry") {
		req.IndustryType = &po.industry
	}
	return req
}

func writePrediction(w io.Writer, result carbon.PredictionResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode prediction: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
