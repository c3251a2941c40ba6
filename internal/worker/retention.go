package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pratik-mahalle/altseo/internal/config"
	"github.com/pratik-mahalle/altseo/internal/domain/subscription"
	"github.com/pratik-mahalle/altseo/internal/domain/usage"
	"github.com/pratik-mahalle/altseo/internal/pkg/logger"
	"github.com/pratik-mahalle/altseo/internal/pkg/metrics"
)

const runTimeout = 5 * time.Minute

// RetentionWorker prunes usage counters and processed webhook events on a cron schedule
type RetentionWorker struct {
	usage  usage.Repository
	events subscription.EventLog
	cfg    config.RetentionConfig
	now    func() time.Time
	logger *logger.Logger

	mu        sync.Mutex
	scheduler *cron.Cron
}

// PruneResult reports the rows removed by one run
type PruneResult struct {
	UsageCounters int64
	WebhookEvents int64
}

// NewRetentionWorker creates a new retention worker
func NewRetentionWorker(usageRepo usage.Repository, events subscription.EventLog, cfg config.RetentionConfig, log *logger.Logger) *RetentionWorker {
	return &RetentionWorker{
		usage:  usageRepo,
		events: events,
		cfg:    cfg,
		now:    time.Now,
		logger: log.Component("retention"),
	}
}

// Start schedules the job. It returns an error for an invalid schedule.
func (w *RetentionWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.scheduler != nil {
		return fmt.Errorf("retention worker is already running")
	}
	if _, err := cron.ParseStandard(w.cfg.Schedule); err != nil {
		return fmt.Errorf("invalid retention schedule %q: %w", w.cfg.Schedule, err)
	}

	scheduler := cron.New(cron.WithLocation(time.UTC))
	if _, err := scheduler.AddFunc(w.cfg.Schedule, func() {
		runCtx, cancel := context.WithTimeout(ctx, runTimeout)
		defer cancel()
		if _, err := w.RunOnce(runCtx); err != nil {
			w.logger.ErrorWithErr(err, "Retention run failed")
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule retention job: %w", err)
	}
	scheduler.Start()
	w.scheduler = scheduler

	w.logger.WithFields(map[string]interface{}{
		"schedule":            w.cfg.Schedule,
		"usage_days":          w.cfg.UsageDays,
		"webhook_events_days": w.cfg.WebhookEventsDays,
	}).Info("Retention worker started")
	return nil
}

// Stop stops the scheduler and waits for a running job to finish
func (w *RetentionWorker) Stop() {
	w.mu.Lock()
	scheduler := w.scheduler
	w.scheduler = nil
	w.mu.Unlock()

	if scheduler == nil {
		return
	}
	<-scheduler.Stop().Done()
	w.logger.Info("Retention worker stopped")
}

// RunOnce prunes both tables. A zero or negative retention keeps everything.
func (w *RetentionWorker) RunOnce(ctx context.Context) (PruneResult, error) {
	var res PruneResult
	now := w.now().UTC()

	if w.cfg.UsageDays > 0 {
		cutoff := usage.DayOf(now.AddDate(0, 0, -w.cfg.UsageDays))
		n, err := w.usage.PruneBefore(ctx, cutoff)
		if err != nil {
			return res, fmt.Errorf("prune usage counters: %w", err)
		}
		res.UsageCounters = n
		metrics.RecordRetentionPruned("usage_counters", n)
	}

	if w.cfg.WebhookEventsDays > 0 {
		n, err := w.events.PruneBefore(ctx, now.AddDate(0, 0, -w.cfg.WebhookEventsDays))
		if err != nil {
			return res, fmt.Errorf("prune webhook events: %w", err)
		}
		res.WebhookEvents = n
		metrics.RecordRetentionPruned("webhook_events", n)
	}

	w.logger.WithFields(map[string]interface{}{
		"usage_counters": res.UsageCounters,
		"webhook_events": res.WebhookEvents,
	}).Info("Retention run completed")
	return res, nil
}
