package events

import (
	"context"
	"errors"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/domain"
	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/ports"
)

// ViewCountConsumer drains view events into the catalog's counter. Offsets
// are committed after the increment, so a crash can double count but never
// drop a view.
type ViewCountConsumer struct {
	reader  *kafka.Reader
	counter ports.ViewTracker
	logger  *slog.Logger
}

func NewViewCountConsumer(brokers []string, topic, groupID string, counter ports.ViewTracker, logger *slog.Logger) *ViewCountConsumer {
	if topic == "" {
		topic = EventOfferingViewed
	}
	if logger == nil {
		logger = slog.Default()
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
	})
	return &ViewCountConsumer{
		reader:  reader,
		counter: counter,
		logger:  logger.With("module", "events", "layer", "adapter"),
	}
}

// Run blocks until ctx is cancelled.
func (c *ViewCountConsumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		c.apply(ctx, msg.Value)
		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.logger.WarnContext(ctx, "view event commit failed",
				"operation", "view_count_commit",
				"outcome", "failure",
				"error", err.Error(),
			)
		}
	}
}

func (c *ViewCountConsumer) apply(ctx context.Context, raw []byte) {
	ev, err := decodeViewEvent(raw)
	if err != nil {
		c.logger.WarnContext(ctx, "view event skipped",
			"operation", "view_count_apply",
			"outcome", "skipped",
			"error", err.Error(),
		)
		return
	}
	if err := c.counter.Increment(ctx, ev.OfferingID); err != nil {
		outcome := "failure"
		if errors.Is(err, domain.ErrNotFound) {
			outcome = "offering_deleted"
		}
		c.logger.WarnContext(ctx, "view count increment failed",
			"operation", "view_count_apply",
			"outcome", outcome,
			"offering_id", ev.OfferingID,
			"event_id", ev.EventID,
			"error", err.Error(),
		)
	}
}

func (c *ViewCountConsumer) Close() error {
	return c.reader.Close()
}
