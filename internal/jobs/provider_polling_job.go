package jobs

import (
	"context"
	"log/slog"
	"time"

	"deliveryhub/internal/core/application/ingestion"

	"github.com/robfig/cron/v3"
)

// StatusPoller runs one polling round over every provider that supports polling.
type StatusPoller interface {
	PollAll(ctx context.Context) (ingestion.PollResult, error)
}

// ProviderPollingJob periodically polls providers for the status of active deliveries,
// catching up on webhooks that never arrived.
type ProviderPollingJob struct {
	poller   StatusPoller
	schedule string
	timeout  time.Duration
	cron     *cron.Cron
	logger   *slog.Logger
}

func NewProviderPollingJob(poller StatusPoller, schedule string, timeout time.Duration, logger *slog.Logger) *ProviderPollingJob {
	logger = logger.With("component", "provider_polling_job")
	return &ProviderPollingJob{
		poller:   poller,
		schedule: schedule,
		timeout:  timeout,
		cron:     newCron(logger),
		logger:   logger,
	}
}

// Start schedules the job.
func (j *ProviderPollingJob) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, func() { j.run(context.Background()) }); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Provider polling job started", "schedule", j.schedule)
	return nil
}

func (j *ProviderPollingJob) run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	result, err := j.poller.PollAll(ctx)
	if err != nil {
		// Per-delivery failures are already logged by the poller; this is the summary.
		j.logger.WarnContext(ctx, "Provider polling round finished with errors", "error", err)
	}

	if result.Polled > 0 {
		j.logger.DebugContext(ctx, "Provider polling round finished",
			"polled", result.Polled,
			"poll_failed", result.PollFailed,
			"unchanged", result.Unchanged,
			"applied", result.Ingestion.Applied,
			"dropped", result.Ingestion.Dropped)
	}
}

// Stop waits for a running round and stops the job.
func (j *ProviderPollingJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Provider polling job stopped")
}
