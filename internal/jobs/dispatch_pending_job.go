package jobs

import (
	"context"
	"log/slog"
	"time"

	"deliveryhub/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

// PendingDispatcher books deliveries that have a provider but no provider identifier yet.
type PendingDispatcher interface {
	Handle(ctx context.Context, command commands.DispatchPendingCommand) (commands.DispatchPendingResult, error)
}

// DispatchPendingJob periodically dispatches deliveries awaiting a provider booking.
// A round still running when the next one is due is skipped.
type DispatchPendingJob struct {
	handler   PendingDispatcher
	batchSize int
	schedule  string
	timeout   time.Duration
	cron      *cron.Cron
	logger    *slog.Logger
}

func NewDispatchPendingJob(
	handler PendingDispatcher,
	schedule string,
	batchSize int,
	timeout time.Duration,
	logger *slog.Logger,
) *DispatchPendingJob {
	logger = logger.With("component", "dispatch_pending_job")
	return &DispatchPendingJob{
		handler:   handler,
		batchSize: batchSize,
		schedule:  schedule,
		timeout:   timeout,
		cron:      newCron(logger),
		logger:    logger,
	}
}

// Start schedules the job.
func (j *DispatchPendingJob) Start() error {
	cmd, err := commands.NewDispatchPendingCommand(j.batchSize)
	if err != nil {
		return err
	}

	if _, err = j.cron.AddFunc(j.schedule, func() { j.run(context.Background(), cmd) }); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Dispatch pending job started", "schedule", j.schedule)
	return nil
}

func (j *DispatchPendingJob) run(ctx context.Context, cmd commands.DispatchPendingCommand) {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	result, err := j.handler.Handle(ctx, cmd)
	if err != nil {
		j.logger.ErrorContext(ctx, "Dispatch pending job failed", "error", err)
		return
	}

	if result != (commands.DispatchPendingResult{}) {
		j.logger.InfoContext(ctx, "Dispatch round finished",
			"confirmed", result.Confirmed,
			"retry_later", result.RetryLater,
			"marked_failed", result.MarkedFailed,
			"skipped", result.Skipped)
	}
}

// Stop waits for a running round and stops the job.
func (j *DispatchPendingJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Dispatch pending job stopped")
}
