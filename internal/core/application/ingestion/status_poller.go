package ingestion

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"deliveryhub/internal/core/application/usecases/commands"
	"deliveryhub/internal/core/domain/model/delivery"
	"deliveryhub/internal/core/ports"
	"deliveryhub/internal/pkg/errs"

	"golang.org/x/sync/errgroup"
)

// PollResult summarizes one polling round.
type PollResult struct {
	Polled     int
	PollFailed int
	Unchanged  int
	Ingestion  BatchResult
}

// StatusPoller pulls the status of active deliveries from providers that support it and
// feeds the answers through the Ingestor, recovering from missed webhooks.
type StatusPoller struct {
	uowFactory  commands.DeliveryUoWFactory
	registry    ports.ProviderRegistry
	ingestor    *Ingestor
	concurrency int
	logger      *slog.Logger
}

func NewStatusPoller(
	uowFactory commands.DeliveryUoWFactory,
	registry ports.ProviderRegistry,
	ingestor *Ingestor,
	concurrency int,
	logger *slog.Logger,
) *StatusPoller {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &StatusPoller{
		uowFactory:  uowFactory,
		registry:    registry,
		ingestor:    ingestor,
		concurrency: concurrency,
		logger:      logger.With("component", "status_poller"),
	}
}

// PollAll polls every active delivery of every polling provider. A failed poll is
// logged and skipped; the error returned covers loading deliveries and storing events.
func (p *StatusPoller) PollAll(ctx context.Context) (PollResult, error) {
	var (
		result   PollResult
		events   []ports.ProviderEvent
		loadErrs []error
	)

	for _, provider := range p.registry.Providers() {
		poller, ok := p.registry.Poller(provider)
		if !ok {
			continue
		}

		active, err := p.uowFactory.Create().DeliveryRepository().GetActiveByProvider(ctx, provider)
		if err != nil {
			p.logger.ErrorContext(ctx, "Failed to load active deliveries", "provider", provider, "error", err)
			loadErrs = append(loadErrs, err)
			continue
		}

		polled := p.pollProvider(ctx, provider, poller, active, &result)
		events = append(events, polled...)
	}

	if len(events) > 0 {
		ingested, err := p.ingestor.IngestBatch(ctx, events)
		result.Ingestion = ingested
		loadErrs = append(loadErrs, err)
	}

	return result, errors.Join(loadErrs...)
}

func (p *StatusPoller) pollProvider(
	ctx context.Context,
	provider delivery.Provider,
	poller ports.StatusPoller,
	active []*delivery.Delivery,
	result *PollResult,
) []ports.ProviderEvent {
	var (
		mu     sync.Mutex
		events []ports.ProviderEvent
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for _, d := range active {
		g.Go(func() error {
			event, err := poller.Poll(gctx, d.ProviderIdentifier())

			mu.Lock()
			defer mu.Unlock()
			result.Polled++

			if err != nil {
				result.PollFailed++
				level := slog.LevelWarn
				if errors.Is(err, errs.ErrUnrecognizedPayload) {
					level = slog.LevelInfo
				}
				p.logger.Log(gctx, level, "Status poll failed",
					"provider", provider,
					"delivery_id", d.ID().String(),
					"provider_identifier", d.ProviderIdentifier(),
					"error", err)
				return nil
			}

			event, changed := pendingChange(d, event)
			if !changed {
				result.Unchanged++
				return nil
			}
			if event.Provider == delivery.ProviderUnset {
				event.Provider = provider
			}
			events = append(events, event)
			return nil
		})
	}

	_ = g.Wait()
	return events
}

// pendingChange strips a status the delivery already has, so an idle delivery polled
// every round does not show up as a rejected transition.
func pendingChange(d *delivery.Delivery, event ports.ProviderEvent) (ports.ProviderEvent, bool) {
	if event.ProviderIdentifier == "" {
		event.ProviderIdentifier = d.ProviderIdentifier()
	}
	if event.Status == d.Status() {
		event.Status = ""
	}
	if event.Courier != nil && d.Courier() != nil && d.Courier().IsSamePerson(*event.Courier) && event.Location == nil {
		event.Courier = nil
	}
	return event, event.HasStatus() || event.Courier != nil || event.Location != nil
}
