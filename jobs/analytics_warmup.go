package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/backoffice/superadmin/internal/analytics"
	jobmetrics "github.com/backoffice/superadmin/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

const warmupTimeout = 30 * time.Second

// SummaryRefresher recomputes and stores the analytics summary.
type SummaryRefresher interface {
	Refresh(ctx context.Context) (analytics.Summary, error)
}

// AnalyticsWarmupJob keeps the dashboard summary cache populated.
type AnalyticsWarmupJob struct {
	Analytics SummaryRefresher
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewAnalyticsWarmupJob wires dependencies for the warmup handler.
func NewAnalyticsWarmupJob(svc SummaryRefresher, logger *slog.Logger, metrics *jobmetrics.Metrics) *AnalyticsWarmupJob {
	return &AnalyticsWarmupJob{Analytics: svc, Logger: logger, Metrics: metrics}
}

// Handle processes analytics warmup tasks.
func (j *AnalyticsWarmupJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Analytics == nil {
		return errors.New("analytics warmup: handler not configured")
	}
	var payload AnalyticsWarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	if payload.Reason == "" {
		payload.Reason = "schedule"
	}

	tracker := j.metrics().Track(TaskAnalyticsSummaryWarmup)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("reason", payload.Reason))
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, warmupTimeout)
	defer cancel()
	summary, err := j.Analytics.Refresh(ctx)
	if err != nil {
		logger.Error("refresh analytics summary", slog.Any("error", err))
		return err
	}
	logger.Info("refreshed analytics summary",
		slog.Int64("total_users", summary.TotalUsers),
		slog.Int64("total_audit_logs", summary.TotalAuditLogs),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (j *AnalyticsWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskAnalyticsSummaryWarmup))
	}
	return slog.Default().With(slog.String("job", TaskAnalyticsSummaryWarmup))
}

func (j *AnalyticsWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
