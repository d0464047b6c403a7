package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestViewEventRoundTrip(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 4, 2, 10, 0, 0, 0, time.FixedZone("BRT", -3*3600))
	raw, err := json.Marshal(newViewEvent("o-1", at))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	ev, err := decodeViewEvent(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.OfferingID != "o-1" || ev.EventID == "" || ev.SourceService != sourceService {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.OccurredAt.Location() != time.UTC {
		t.Fatalf("expected UTC timestamp, got %s", ev.OccurredAt.Location())
	}
}

func TestDecodeViewEventRejectsForeignPayloads(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"not json":    `{`,
		"wrong type":  `{"event_type":"payout.created","offering_id":"o-1"}`,
		"no offering": `{"event_type":"stream.offering.viewed"}`,
	}
	for name, raw := range cases {
		if _, err := decodeViewEvent([]byte(raw)); err == nil {
			t.Fatalf("%s: expected decode error", name)
		}
	}
}

type recordingCounter struct {
	ids []string
	err error
}

func (c *recordingCounter) Increment(_ context.Context, offeringID string) error {
	c.ids = append(c.ids, offeringID)
	return c.err
}

func TestConsumerApplySkipsBadEventsAndCounts(t *testing.T) {
	t.Parallel()

	counter := &recordingCounter{}
	c := &ViewCountConsumer{counter: counter, logger: testLogger()}
	good, _ := json.Marshal(newViewEvent("o-9", time.Now()))

	c.apply(context.Background(), []byte(`garbage`))
	c.apply(context.Background(), good)
	if len(counter.ids) != 1 || counter.ids[0] != "o-9" {
		t.Fatalf("unexpected increments: %v", counter.ids)
	}

	counter.err = errors.New("db down")
	c.apply(context.Background(), good)
	if len(counter.ids) != 2 {
		t.Fatalf("expected failed increment to still be attempted")
	}
}

func TestLoggingViewTrackerNeverFails(t *testing.T) {
	t.Parallel()

	if err := NewLoggingViewTracker(testLogger()).Increment(context.Background(), "o-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
