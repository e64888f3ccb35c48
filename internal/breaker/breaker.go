// Package breaker stops calling the model provider after repeated invocation
// failures. It wraps an invoker from the outside; the pipeline itself still
// makes exactly one attempt per request.
package breaker

import (
	"context"
	"errors"
	"time"

	"cushionflow/internal/cushion"

	"github.com/sony/gobreaker"
)

type Invoker interface {
	Invoke(ctx context.Context, prompt string, image *cushion.Image) (string, error)
}

type StateObserverFunc func(from, to string)

type Settings struct {
	FailureThreshold uint32
	OpenTimeout      time.Duration
	OnStateChange    StateObserverFunc
}

type Breaker struct {
	next Invoker
	cb   *gobreaker.CircuitBreaker
}

func New(next Invoker, s Settings) *Breaker {
	threshold := s.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	openTimeout := s.OpenTimeout
	if openTimeout <= 0 {
		openTimeout = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        "gemini",
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: isSuccessful,
	}
	if s.OnStateChange != nil {
		settings.OnStateChange = func(_ string, from, to gobreaker.State) {
			s.OnStateChange(from.String(), to.String())
		}
	}

	return &Breaker{next: next, cb: gobreaker.NewCircuitBreaker(settings)}
}

// Invoke forwards to the wrapped invoker unless the circuit is open, in which
// case it fails immediately as if the provider were unavailable.
func (b *Breaker) Invoke(ctx context.Context, prompt string, image *cushion.Image) (string, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Invoke(ctx, prompt, image)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", cushion.InvocationError(cushion.ReasonProviderUnavailable, err)
	}
	if err != nil {
		return "", err
	}
	text, _ := out.(string)
	return text, nil
}

func (b *Breaker) State() string {
	return b.cb.State().String()
}

// isSuccessful counts only invocation failures against the circuit. A caller
// cancelling its own request says nothing about provider health.
func isSuccessful(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	return cushion.KindOf(err) != cushion.KindInvocation
}
