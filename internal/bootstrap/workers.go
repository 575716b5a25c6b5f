package bootstrap

import (
	"finassist/internal/adapters/config"
	"finassist/internal/workers"
)

// provideWorkers initializes all background workers
func provideWorkers(cfg config.WorkersConfig, adapters *Adapters, business *Business) *workers.Scheduler {
	scheduler := workers.NewScheduler()

	if adapters.MarketData != nil {
		scheduler.RegisterWorker(workers.NewIndexWarmer(
			adapters.MarketData,
			cfg.IndexRefreshInterval,
			cfg.Enabled,
		))
	}

	if business.Guardrails != nil && business.Orchestrator != nil {
		scheduler.RegisterWorker(workers.NewUsageReporter(
			business.Guardrails,
			business.Orchestrator,
			cfg.UsageReportInterval,
			cfg.Enabled,
		))
	}

	return scheduler
}
