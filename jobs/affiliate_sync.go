package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/reviewdesk/reviewdesk/internal/conversions"
	jobmetrics "github.com/reviewdesk/reviewdesk/internal/jobs"
)

// AffiliateSyncJob runs the nightly conversion sync for one network.
type AffiliateSyncJob struct {
	Syncer  *conversions.Syncer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewAffiliateSyncJob initialises the sync handler.
func NewAffiliateSyncJob(syncer *conversions.Syncer, logger *slog.Logger, metrics *jobmetrics.Metrics) *AffiliateSyncJob {
	return &AffiliateSyncJob{Syncer: syncer, Logger: logger, Metrics: metrics}
}

// Handle executes TaskAffiliateSync.
func (j *AffiliateSyncJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Syncer == nil {
		return errors.New("affiliate sync: handler not configured")
	}
	var payload AffiliateSyncPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("affiliate sync: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	tracker := j.Metrics.Track(TaskAffiliateSync)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	report, err := j.Syncer.Sync(ctx, payload.Network)
	if err != nil {
		if errors.Is(err, conversions.ErrUnknownNetwork) {
			return fmt.Errorf("affiliate sync: %v: %w", err, asynq.SkipRetry)
		}
		j.logger().Error("affiliate sync failed", slog.String("network", payload.Network), slog.Any("error", err))
		return err
	}
	j.Metrics.AddConversions(report.Network, "inserted", report.Inserted)
	j.Metrics.AddConversions(report.Network, "duplicate", report.Duplicates)
	j.Metrics.AddConversions(report.Network, "unmatched", report.Unmatched)
	return nil
}

// CronEntries schedules a nightly run per network.
func (j *AffiliateSyncJob) CronEntries(spec string) ([]CronRegistration, error) {
	var out []CronRegistration
	for _, network := range j.Syncer.Networks() {
		task, err := NewAffiliateSyncTask(network)
		if err != nil {
			return nil, err
		}
		out = append(out, CronRegistration{Spec: spec, Task: task, Options: []asynq.Option{asynq.MaxRetry(3)}})
	}
	return out, nil
}

func (j *AffiliateSyncJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
