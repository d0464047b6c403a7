package events

import (
	"context"
	"log/slog"
	"time"
)

// LoggingViewTracker records views in the log. It is the fallback when
// neither Kafka nor a catalog counter is configured.
type LoggingViewTracker struct {
	logger *slog.Logger
}

func NewLoggingViewTracker(logger *slog.Logger) *LoggingViewTracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingViewTracker{logger: logger}
}

func (t *LoggingViewTracker) Increment(ctx context.Context, offeringID string) error {
	ev := newViewEvent(offeringID, time.Now())
	t.logger.InfoContext(ctx, "offering viewed",
		"event_id", ev.EventID,
		"event_type", ev.EventType,
		"offering_id", ev.OfferingID,
	)
	return nil
}
