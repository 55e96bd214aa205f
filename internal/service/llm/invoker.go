package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"chefmind/internal/domain"
	"chefmind/internal/pkg/metrics"
)

const (
	DefaultAttempts   = 3
	DefaultRetryDelay = time.Second
)

// Invoker calls a Generator with a bounded retry on overload and transport errors.
type Invoker struct {
	generator  Generator
	logger     *slog.Logger
	metrics    *metrics.Metrics
	attempts   int
	retryDelay time.Duration
}

// InvokerOption customises an Invoker.
type InvokerOption func(*Invoker)

// WithRetry overrides the attempt bound and the fixed delay between attempts.
func WithRetry(attempts int, delay time.Duration) InvokerOption {
	return func(i *Invoker) {
		if attempts > 0 {
			i.attempts = attempts
		}
		if delay >= 0 {
			i.retryDelay = delay
		}
	}
}

func WithMetrics(m *metrics.Metrics) InvokerOption {
	return func(i *Invoker) {
		i.metrics = m
	}
}

func NewInvoker(generator Generator, logger *slog.Logger, opts ...InvokerOption) *Invoker {
	inv := &Invoker{
		generator:  generator,
		logger:     logger,
		attempts:   DefaultAttempts,
		retryDelay: DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Invoke sends parts to model and returns the first candidate's text.
// A missing candidate or empty text is a protocol failure, not an empty recipe.
func (i *Invoker) Invoke(ctx context.Context, model string, parts []Part) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= i.attempts; attempt++ {
		res, err := i.generator.Generate(ctx, model, parts)
		if err == nil {
			i.metrics.ModelAttempt(model, "ok")
			return firstText(res)
		}
		lastErr = err

		var apiErr *APIError
		switch {
		case errors.As(err, &apiErr) && apiErr.Overloaded():
			i.metrics.ModelAttempt(model, "overloaded")
			i.logger.Warn("Model overloaded, retrying",
				"model", model,
				"attempt", attempt,
				"remaining", i.attempts-attempt,
			)
		case errors.As(err, &apiErr):
			i.metrics.ModelAttempt(model, "rejected")
			i.logger.Error("Model API rejected request", "model", model, "code", apiErr.Code, "error", err)
			return "", domain.UpstreamError(fmt.Sprintf("Google API Error: %s", apiErr.Message), err)
		case ctx.Err() != nil:
			return "", fmt.Errorf("model call cancelled: %w", ctx.Err())
		default:
			i.metrics.ModelAttempt(model, "transport_error")
			i.logger.Warn("Model call failed, retrying",
				"model", model,
				"attempt", attempt,
				"error", err,
			)
		}

		if attempt == i.attempts {
			break
		}
		if err := sleep(ctx, i.retryDelay); err != nil {
			return "", fmt.Errorf("model call cancelled: %w", err)
		}
	}

	return "", domain.UpstreamError(
		fmt.Sprintf("Google API Error: model %s failed after %d attempts: %v", model, i.attempts, lastErr),
		lastErr,
	)
}

// InvokeTier resolves the model for tier through policy and invokes it.
func (i *Invoker) InvokeTier(ctx context.Context, policy TierPolicy, tier domain.Tier, parts []Part) (string, error) {
	return i.Invoke(ctx, policy.Model(tier), parts)
}

func firstText(res *Response) (string, error) {
	if res == nil || len(res.Candidates) == 0 {
		return "", domain.UpstreamError("No candidates returned from Gemini", nil)
	}
	if res.Candidates[0] == "" {
		return "", domain.UpstreamError("No text returned from Gemini", nil)
	}
	return res.Candidates[0], nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
