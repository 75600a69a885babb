// Package jobs provides scheduled background tasks for the delivery service.
//
// Jobs are cron-based (github.com/robfig/cron/v3, with seconds) and drive the
// application layer the same way HTTP handlers do.
//
// # Available Jobs
//
//  1. DispatchPendingJob - books deliveries that have a provider but no provider identifier
//  2. ProviderPollingJob - polls providers for active deliveries to recover missed webhooks
//
// # Usage
//
//	jobManager := jobs.NewJobManager(
//		jobs.NewDispatchPendingJob(dispatchPendingHandler, "@every 5s", 50, 30*time.Second, logger),
//		jobs.NewProviderPollingJob(statusPoller, "@every 15s", 30*time.Second, logger),
//	)
//
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//	defer jobManager.StopAll()
//
// # Error Handling
//
// A round that is still running when the next one is due is skipped, and a panic inside
// a round is recovered and logged. Rounds never return errors to the scheduler; they log
// a summary instead.
package jobs
