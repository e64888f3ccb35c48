// Package app assembles the transformation pipeline from configuration. Both
// the HTTP server and the CLI build their pipeline here.
package app

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"cushionflow/internal/breaker"
	"cushionflow/internal/config"
	"cushionflow/internal/observability"
	"cushionflow/internal/pipeline"
	"cushionflow/internal/upstream/gemini"
)

// Components is the assembled pipeline. Model is nil when no credential is
// configured.
type Components struct {
	Pipeline *pipeline.Service
	Model    *gemini.Client
}

func NewLogger(level string, w io.Writer) *slog.Logger {
	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn", "warning":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slogLevel}))
}

func NewHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}

// Build wires the Gemini client, the optional circuit breaker and the
// pipeline. metrics may be nil.
func Build(ctx context.Context, cfg config.Config, httpClient *http.Client, logger *slog.Logger, metrics *observability.Metrics) (Components, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if !cfg.HasCredential() {
		logger.Warn("GEMINI_API_KEY is not set; transformation requests will fail until it is configured")
		return Components{Pipeline: pipeline.New(nil, logger)}, nil
	}

	client, err := gemini.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, httpClient,
		gemini.WithBaseURL(cfg.GeminiBaseURL),
		gemini.WithObserver(metrics.ObserveUpstream),
	)
	if err != nil {
		return Components{}, err
	}

	var invoker pipeline.Invoker = client
	if cfg.BreakerEnabled {
		invoker = breaker.New(client, breaker.Settings{
			FailureThreshold: cfg.BreakerFailureThreshold,
			OpenTimeout:      cfg.BreakerOpenTimeout,
			OnStateChange: func(from, to string) {
				logger.Warn("gemini circuit breaker state changed", "from", from, "to", to)
				metrics.ObserveBreakerTransition(from, to)
			},
		})
	}

	return Components{
		Pipeline: pipeline.New(invoker, logger),
		Model:    client,
	}, nil
}
