package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAnalyticsSummaryWarmup recomputes the cached dashboard summary.
	TaskAnalyticsSummaryWarmup = "analytics:summary_warmup"
	// AnalyticsWarmupCron runs the warmup every five minutes.
	AnalyticsWarmupCron = "*/5 * * * *"
)

// AnalyticsWarmupPayload carries the trigger source for logging.
type AnalyticsWarmupPayload struct {
	Reason string `json:"reason,omitempty"`
}

// NewAnalyticsWarmupTask constructs an Asynq task. Duplicate warmups within
// one cron period collapse through the unique option.
func NewAnalyticsWarmupTask(payload AnalyticsWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAnalyticsSummaryWarmup, data,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(2),
		asynq.Timeout(time.Minute),
		asynq.Unique(4*time.Minute),
	), nil
}
