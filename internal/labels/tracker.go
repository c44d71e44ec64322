package labels

import (
	"context"
	"errors"
	"log/slog"
)

// UsageStore abstracts the template usage persistence for the tracker.
type UsageStore interface {
	TrackUsage(ctx context.Context, templateID, productID int64) error
}

// Tracker records template usage after a product has been created from a
// template. Callers dispatch it only once their own creation transaction
// has committed; a tracking failure is logged and never rolls back into,
// or surfaces to, that caller.
type Tracker struct {
	store  UsageStore
	logger *slog.Logger
}

// NewTracker builds Tracker.
func NewTracker(store UsageStore, logger *slog.Logger) *Tracker {
	return &Tracker{store: store, logger: logger}
}

// Track increments usage_count, stamps last_used_at and links the product
// to its source template.
func (t *Tracker) Track(ctx context.Context, templateID, productID int64) error {
	if templateID == 0 || productID == 0 {
		return errors.New("labels: template and product required")
	}
	if err := t.store.TrackUsage(ctx, templateID, productID); err != nil {
		t.logger.Error("track template usage",
			slog.Int64("template_id", templateID),
			slog.Int64("product_id", productID),
			slog.Any("error", err))
		return err
	}
	t.logger.Info("template usage tracked",
		slog.Int64("template_id", templateID),
		slog.Int64("product_id", productID))
	return nil
}
