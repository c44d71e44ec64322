// Package jobs wires background task processing on Asynq.
package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/meridian-pos/meridian-pos/internal/labels"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeTemplateUsage records template usage after a product created
	// from a template has been committed.
	TaskTypeTemplateUsage = "labels:track_usage"
)

// TemplateUsagePayload links a template to the product created from it.
type TemplateUsagePayload struct {
	TemplateID int64 `json:"template_id"`
	ProductID  int64 `json:"product_id"`
}

// NewTemplateUsageTask constructs an Asynq task.
func NewTemplateUsageTask(payload TemplateUsagePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeTemplateUsage, data), nil
}

// TemplateUsageJob processes TaskTypeTemplateUsage tasks.
type TemplateUsageJob struct {
	tracker *labels.Tracker
	logger  *slog.Logger
}

// NewTemplateUsageJob builds TemplateUsageJob.
func NewTemplateUsageJob(tracker *labels.Tracker, logger *slog.Logger) *TemplateUsageJob {
	return &TemplateUsageJob{tracker: tracker, logger: logger}
}

// Handle runs the usage update. Tracking is best effort with no retry
// policy: failures are logged by the tracker and the task is dropped, so
// nothing ever propagates back to the product-creation caller.
func (j *TemplateUsageJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload TemplateUsagePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if err := j.tracker.Track(ctx, payload.TemplateID, payload.ProductID); err != nil {
		j.logger.Warn("template usage task dropped",
			slog.Int64("template_id", payload.TemplateID),
			slog.Any("error", err))
		return asynq.SkipRetry
	}
	return nil
}
