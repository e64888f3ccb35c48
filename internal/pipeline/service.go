package pipeline

import (
	"context"
	"log/slog"
	"time"
	"unicode/utf8"

	"cushionflow/internal/cushion"
	"cushionflow/internal/prompt"
	"cushionflow/internal/response"
)

type Invoker interface {
	Invoke(ctx context.Context, prompt string, image *cushion.Image) (string, error)
}

type Service struct {
	invoker Invoker
	logger  *slog.Logger
}

type Timings struct {
	Invocation time.Duration
	Total      time.Duration
}

type RunResult struct {
	Result  cushion.Result
	Timings Timings
}

const maxLoggedOutput = 2048

// New builds the orchestrator. A nil invoker means no provider credential is
// configured; every Run then fails with a configuration error.
func New(invoker Invoker, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{invoker: invoker, logger: logger}
}

func (s *Service) Configured() bool {
	return s.invoker != nil
}

// Run validates the input, checks that a provider is configured, composes
// the prompt, calls the model once and parses its answer. It returns either a complete result or a *cushion.Error.
func (s *Service) Run(ctx context.Context, in cushion.RawInput) (RunResult, error) {
	started := time.Now()

	req, err := cushion.Normalize(in)
	if err != nil {
		return RunResult{}, err
	}

	if s.invoker == nil {
		return RunResult{}, cushion.ConfigurationError(cushion.ReasonMissingCredential)
	}

	text := prompt.Compose(prompt.Input{
		OriginalMessage:  req.OriginalMessage,
		RecipientStyle:   req.RecipientStyle,
		SituationContext: req.SituationContext,
	})

	invocationStarted := time.Now()
	raw, err := s.invoker.Invoke(ctx, text, req.Image)
	invocationDuration := time.Since(invocationStarted)
	if err != nil {
		if cushion.KindOf(err) == cushion.KindUnknown {
			err = cushion.InvocationError(cushion.ReasonProviderError, err)
		}
		s.logger.ErrorContext(ctx, "model invocation failed",
			"reason", cushion.ReasonOf(err),
			"error", err,
			"has_image", req.Image != nil,
			"duration_ms", invocationDuration.Milliseconds(),
		)
		return RunResult{}, err
	}

	result, err := response.Parse(raw)
	if err != nil {
		s.logger.WarnContext(ctx, "model output rejected",
			"reason", cushion.ReasonOf(err),
			"raw_output", truncate(raw, maxLoggedOutput),
		)
		return RunResult{}, err
	}

	return RunResult{
		Result: result,
		Timings: Timings{
			Invocation: invocationDuration,
			Total:      time.Since(started),
		},
	}, nil
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit] + "..."
}
