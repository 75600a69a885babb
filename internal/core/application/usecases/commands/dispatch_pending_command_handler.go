package commands

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DispatchPendingResult counts the outcomes of one batch.
type DispatchPendingResult struct {
	Confirmed    int
	RetryLater   int
	MarkedFailed int
	Skipped      int
}

// DispatchPendingCommandHandler fans a batch of awaiting deliveries out to
// DispatchDeliveryCommandHandler with bounded concurrency. A failure on one delivery
// never stops the others.
type DispatchPendingCommandHandler struct {
	uowFactory  DeliveryUoWFactory
	dispatcher  DispatchDeliveryCommandHandler
	concurrency int
	logger      *slog.Logger
}

func NewDispatchPendingCommandHandler(
	uowFactory DeliveryUoWFactory,
	dispatcher DispatchDeliveryCommandHandler,
	concurrency int,
	logger *slog.Logger,
) DispatchPendingCommandHandler {
	if concurrency <= 0 {
		concurrency = 1
	}
	return DispatchPendingCommandHandler{
		uowFactory:  uowFactory,
		dispatcher:  dispatcher,
		concurrency: concurrency,
		logger:      logger.With("component", "dispatch_pending_handler"),
	}
}

func (h DispatchPendingCommandHandler) Handle(
	ctx context.Context,
	command DispatchPendingCommand,
) (DispatchPendingResult, error) {
	if err := command.Validate(); err != nil {
		return DispatchPendingResult{}, err
	}

	pending, err := h.uowFactory.Create().DeliveryRepository().GetAwaitingDispatch(ctx, command.BatchSize())
	if err != nil {
		return DispatchPendingResult{}, err
	}

	var (
		mu     sync.Mutex
		result DispatchPendingResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.concurrency)

	for _, d := range pending {
		g.Go(func() error {
			cmd, cmdErr := NewDispatchDeliveryCommand(d.ID())
			if cmdErr != nil {
				return cmdErr
			}

			outcome, dispatchErr := h.dispatcher.Handle(gctx, cmd)
			if dispatchErr != nil {
				h.logger.WarnContext(gctx, "Dispatch round failed",
					"delivery_id", d.ID().String(),
					"provider", d.Provider(),
					"outcome", outcome,
					"error", dispatchErr)
			}

			mu.Lock()
			defer mu.Unlock()
			switch outcome {
			case DispatchConfirmed:
				result.Confirmed++
			case DispatchRetryLater:
				result.RetryLater++
			case DispatchMarkedFailed:
				result.MarkedFailed++
			default:
				result.Skipped++
			}
			return nil
		})
	}

	if err = g.Wait(); err != nil {
		return result, err
	}
	return result, nil
}
