package domain

import (
	"errors"
	"testing"
	"time"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func window(start, end time.Duration) Offering {
	return Offering{
		OfferingID: "o-1",
		Title:      "Opening night",
		Active:     true,
		StartAt:    base.Add(start),
		ExpiresAt:  base.Add(end),
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	inverted := window(time.Hour, -time.Hour)
	inactive := window(-time.Hour, time.Hour)
	inactive.Active = false
	noWindow := Offering{Active: true}

	cases := []struct {
		name     string
		offering Offering
		now      time.Time
		want     LifecycleStatus
	}{
		{name: "inactive flag wins", offering: inactive, now: base, want: StatusInactive},
		{name: "missing window", offering: noWindow, now: base, want: StatusInactive},
		{name: "inverted window", offering: inverted, now: base, want: StatusInactive},
		{name: "before start", offering: window(time.Minute, time.Hour), now: base, want: StatusScheduled},
		{name: "after expiry", offering: window(-time.Hour, -time.Minute), now: base, want: StatusExpired},
		{name: "inside window", offering: window(-time.Hour, time.Hour), now: base, want: StatusActive},
		{name: "start boundary inclusive", offering: window(0, time.Hour), now: base, want: StatusActive},
		{name: "expiry boundary inclusive", offering: window(-time.Hour, 0), now: base, want: StatusActive},
		{name: "sub-second past expiry", offering: window(-time.Hour, 0), now: base.Add(500 * time.Millisecond), want: StatusActive},
		{name: "one second past expiry", offering: window(-time.Hour, 0), now: base.Add(time.Second), want: StatusExpired},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Classify(tc.offering, tc.now); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestPartitionPublicKeepsOnlyActive(t *testing.T) {
	t.Parallel()

	free := window(-time.Hour, time.Hour)
	free.OfferingID = "free"
	paid := window(-time.Hour, time.Hour)
	paid.OfferingID = "paid"
	paid.Price = 5
	scheduled := window(time.Hour, 2*time.Hour)
	scheduled.OfferingID = "scheduled"
	negative := window(-time.Hour, time.Hour)
	negative.OfferingID = "negative"
	negative.Price = -1

	listing := PartitionPublic([]Offering{free, paid, scheduled, negative}, base)
	if len(listing.Free) != 1 || listing.Free[0].OfferingID != "free" {
		t.Fatalf("unexpected free partition: %+v", listing.Free)
	}
	if len(listing.Paid) != 1 || listing.Paid[0].OfferingID != "paid" {
		t.Fatalf("unexpected paid partition: %+v", listing.Paid)
	}
	if listing.Empty() {
		t.Fatalf("expected non-empty listing")
	}
}

func TestPartitionPublicEmptyInput(t *testing.T) {
	t.Parallel()

	listing := PartitionPublic(nil, base)
	if listing.Free == nil || listing.Paid == nil {
		t.Fatalf("expected empty, non-nil partitions")
	}
	if !listing.Empty() {
		t.Fatalf("expected empty listing")
	}
}

func TestOfferingPatchApplyLeavesViewCount(t *testing.T) {
	t.Parallel()

	o := window(-time.Hour, time.Hour)
	o.ViewCount = 42
	title := "Renamed"
	active := false
	next := OfferingPatch{Title: &title, Active: &active}.Apply(o)

	if next.Title != "Renamed" || next.Active {
		t.Fatalf("patch not applied: %+v", next)
	}
	if next.ViewCount != 42 {
		t.Fatalf("expected view count preserved, got %d", next.ViewCount)
	}
	if o.Title != "Opening night" {
		t.Fatalf("expected original untouched, got %q", o.Title)
	}
}

func TestValidateOffering(t *testing.T) {
	t.Parallel()

	valid := window(-time.Hour, time.Hour)
	paidNoKey := valid
	paidNoKey.Price = 10
	noTitle := valid
	noTitle.Title = "  "
	negative := valid
	negative.Price = -3

	cases := []struct {
		name     string
		offering Offering
		wantErr  bool
	}{
		{name: "valid free", offering: valid},
		{name: "paid without key", offering: paidNoKey, wantErr: true},
		{name: "blank title", offering: noTitle, wantErr: true},
		{name: "negative price", offering: negative, wantErr: true},
		{name: "inverted window", offering: window(time.Hour, 0), wantErr: true},
		{name: "missing window", offering: Offering{Title: "x"}, wantErr: true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateOffering(tc.offering)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Fatalf("expected invalid input, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected nil error, got %v", err)
			}
		})
	}
}
