// Package ingestion turns provider webhooks and poll results into
// ApplyProviderEventCommand calls.
//
// Events for one provider delivery are applied one at a time and in event-time order.
// Normalization and lifecycle failures are logged and dropped here so a bad callback
// never reaches the provider as an error.
package ingestion

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"deliveryhub/internal/core/application/sequencer"
	"deliveryhub/internal/core/application/usecases/commands"
	"deliveryhub/internal/core/domain/model/delivery"
	"deliveryhub/internal/core/ports"
	"deliveryhub/internal/pkg/errs"

	"golang.org/x/sync/errgroup"
)

// Outcome tells what happened to one event.
type Outcome int

const (
	// Applied means the event changed the delivery.
	Applied Outcome = iota
	// Dropped means the event was valid but did not apply: stale, duplicate, illegal
	// for the current status, or for a delivery this service does not know.
	Dropped
	// Unrecognized means the adapter could not translate the payload.
	Unrecognized
	// Failed means an infrastructure error stopped the event being applied.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case Dropped:
		return "dropped"
	case Unrecognized:
		return "unrecognized"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// BatchResult counts the outcomes of a batch.
type BatchResult struct {
	Applied      int
	Dropped      int
	Unrecognized int
	Failed       int
}

func (r *BatchResult) add(o Outcome) {
	switch o {
	case Applied:
		r.Applied++
	case Dropped:
		r.Dropped++
	case Unrecognized:
		r.Unrecognized++
	case Failed:
		r.Failed++
	}
}

// EventApplier applies one normalized event; commands.ApplyProviderEventCommandHandler
// in production.
type EventApplier interface {
	Handle(ctx context.Context, command commands.ApplyProviderEventCommand) error
}

type Ingestor struct {
	registry    ports.ProviderRegistry
	applier     EventApplier
	sequencer   *sequencer.KeyedSequencer
	concurrency int
	logger      *slog.Logger
}

func NewIngestor(
	registry ports.ProviderRegistry,
	applier EventApplier,
	seq *sequencer.KeyedSequencer,
	concurrency int,
	logger *slog.Logger,
) *Ingestor {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Ingestor{
		registry:    registry,
		applier:     applier,
		sequencer:   seq,
		concurrency: concurrency,
		logger:      logger.With("component", "ingestor"),
	}
}

// Ingest handles one webhook body. It returns an error only for a provider without an
// adapter (errs.ObjectNotFoundError) or when the event could not be stored; every other
// problem is logged and reported through the outcome.
func (i *Ingestor) Ingest(ctx context.Context, provider delivery.Provider, payload []byte) (Outcome, error) {
	adapter, err := i.registry.Adapter(provider)
	if err != nil {
		return Failed, err
	}

	event, err := adapter.NormalizeWebhook(payload)
	if err != nil {
		i.logger.WarnContext(ctx, "Dropping unrecognized webhook",
			"provider", provider,
			"size", len(payload),
			"error", err)
		return Unrecognized, nil
	}
	if event.Provider == delivery.ProviderUnset {
		event.Provider = provider
	}

	outcome, err := i.apply(ctx, event)
	if outcome == Failed {
		return outcome, err
	}
	return outcome, nil
}

// IngestBatch applies events grouped per provider delivery. Groups run concurrently up
// to the configured limit; inside a group events are applied oldest first, whatever
// order they arrived in.
func (i *Ingestor) IngestBatch(ctx context.Context, events []ports.ProviderEvent) (BatchResult, error) {
	groups := make(map[string][]ports.ProviderEvent)
	var keys []string
	for _, event := range events {
		key := sequenceKey(event)
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], event)
	}

	var (
		mu     sync.Mutex
		result BatchResult
		failed []error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.concurrency)

	for _, key := range keys {
		group := groups[key]
		slices.SortStableFunc(group, func(a, b ports.ProviderEvent) int {
			return a.OccurredAt.Compare(b.OccurredAt)
		})

		g.Go(func() error {
			for _, event := range group {
				outcome, err := i.apply(gctx, event)

				mu.Lock()
				result.add(outcome)
				if err != nil {
					failed = append(failed, err)
				}
				mu.Unlock()
			}
			return nil
		})
	}

	_ = g.Wait()
	return result, errors.Join(failed...)
}

func (i *Ingestor) apply(ctx context.Context, event ports.ProviderEvent) (Outcome, error) {
	log := i.logger.With(
		"provider", event.Provider,
		"provider_identifier", event.ProviderIdentifier,
		"event_type", event.EventType,
		"status", event.Status)

	if !event.HasStatus() && event.Courier == nil && event.Location == nil {
		log.DebugContext(ctx, "Provider event carries no change")
		return Dropped, nil
	}

	cmd, err := commands.NewApplyProviderEventCommand(event)
	if err != nil {
		log.WarnContext(ctx, "Dropping invalid provider event", "error", err)
		return Dropped, nil
	}

	err = i.sequencer.Do(ctx, sequenceKey(event), func(ctx context.Context) error {
		return i.applier.Handle(ctx, cmd)
	})

	switch {
	case err == nil:
		log.DebugContext(ctx, "Provider event applied")
		return Applied, nil
	case errors.Is(err, delivery.ErrStaleEvent):
		log.InfoContext(ctx, "Dropping stale provider event", "occurred_at", event.OccurredAt)
		return Dropped, nil
	case isDroppable(err):
		log.WarnContext(ctx, "Dropping provider event", "error", err)
		return Dropped, nil
	default:
		log.ErrorContext(ctx, "Failed to apply provider event", "error", err)
		return Failed, err
	}
}

func isDroppable(err error) bool {
	return errors.Is(err, errs.ErrObjectNotFound) ||
		errors.Is(err, errs.ErrValidation) ||
		errors.Is(err, errs.ErrInvalidState) ||
		errors.Is(err, errs.ErrInvalidTransition) ||
		errors.Is(err, errs.ErrTerminalState)
}

// sequenceKey orders events from one provider booking. Commands for the same delivery
// use the delivery ID instead; the row lock taken on read serializes the two.
func sequenceKey(event ports.ProviderEvent) string {
	return event.Provider.String() + ":" + event.ProviderIdentifier
}
