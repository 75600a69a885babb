package providers

import (
	"context"
	"log/slog"
	"time"

	"deliveryhub/internal/core/domain/model/delivery"
	"deliveryhub/internal/core/ports"
	"deliveryhub/internal/pkg/errs"

	"github.com/cenkalti/backoff/v4"
)

// RetryConfig bounds the exponential backoff of dispatch and cancel calls.
type RetryConfig struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// RetryingAdapter retries Dispatch and Cancel while the adapter reports the failure as
// retryable. Other calls pass through.
type RetryingAdapter struct {
	next   ports.ProviderAdapter
	cfg    RetryConfig
	logger *slog.Logger
}

func NewRetryingAdapter(next ports.ProviderAdapter, cfg RetryConfig, logger *slog.Logger) *RetryingAdapter {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	return &RetryingAdapter{
		next:   next,
		cfg:    cfg,
		logger: logger.With("component", "retrying_adapter", "provider", next.Provider()),
	}
}

func (a *RetryingAdapter) Unwrap() ports.ProviderAdapter {
	return a.next
}

func (a *RetryingAdapter) Provider() delivery.Provider {
	return a.next.Provider()
}

func (a *RetryingAdapter) CheckAvailability(
	ctx context.Context,
	req ports.AvailabilityRequest,
) (ports.Availability, error) {
	return a.next.CheckAvailability(ctx, req)
}

func (a *RetryingAdapter) Quote(ctx context.Context, req ports.AvailabilityRequest) (ports.Quote, error) {
	return a.next.Quote(ctx, req)
}

func (a *RetryingAdapter) Dispatch(
	ctx context.Context,
	d *delivery.Delivery,
) (delivery.DispatchConfirmation, error) {
	var confirmation delivery.DispatchConfirmation
	err := a.retry(ctx, "dispatch", func() error {
		var err error
		confirmation, err = a.next.Dispatch(ctx, d)
		return err
	})
	return confirmation, err
}

func (a *RetryingAdapter) Cancel(ctx context.Context, providerIdentifier string) error {
	return a.retry(ctx, "cancel", func() error {
		return a.next.Cancel(ctx, providerIdentifier)
	})
}

func (a *RetryingAdapter) NormalizeWebhook(payload []byte) (ports.ProviderEvent, error) {
	return a.next.NormalizeWebhook(payload)
}

func (a *RetryingAdapter) retry(ctx context.Context, operation string, fn func() error) error {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = a.cfg.InitialInterval
	exp.MaxInterval = a.cfg.MaxInterval
	exp.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(a.cfg.MaxAttempts-1)), ctx)

	attempt := 0
	return backoff.RetryNotify(func() error {
		attempt++
		err := fn()
		if err != nil && !errs.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy, func(err error, delay time.Duration) {
		a.logger.WarnContext(ctx, "Provider call failed, retrying",
			"operation", operation,
			"attempt", attempt,
			"delay", delay,
			"error", err)
	})
}
