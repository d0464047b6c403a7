package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	EventOfferingViewed = "stream.offering.viewed"
	sourceService       = "M60-Stream-Access-Service"
)

// viewEvent is the payload published for each granted watch.
type viewEvent struct {
	EventID       string    `json:"event_id"`
	EventType     string    `json:"event_type"`
	OccurredAt    time.Time `json:"occurred_at"`
	SourceService string    `json:"source_service"`
	OfferingID    string    `json:"offering_id"`
}

func newViewEvent(offeringID string, at time.Time) viewEvent {
	return viewEvent{
		EventID:       uuid.NewString(),
		EventType:     EventOfferingViewed,
		OccurredAt:    at.UTC(),
		SourceService: sourceService,
		OfferingID:    offeringID,
	}
}

func decodeViewEvent(raw []byte) (viewEvent, error) {
	var ev viewEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return viewEvent{}, fmt.Errorf("decode view event: %w", err)
	}
	if ev.EventType != EventOfferingViewed {
		return viewEvent{}, fmt.Errorf("unexpected event type %q", ev.EventType)
	}
	if ev.OfferingID == "" {
		return viewEvent{}, fmt.Errorf("view event %s has no offering_id", ev.EventID)
	}
	return ev, nil
}
