package domain

import (
	"fmt"
	"strings"
	"time"
)

// LifecycleStatus is the derived visibility of an offering. It is never
// persisted; callers recompute it from the stored window on every read.
type LifecycleStatus string

const (
	StatusInactive  LifecycleStatus = "inactive"
	StatusScheduled LifecycleStatus = "scheduled"
	StatusExpired   LifecycleStatus = "expired"
	StatusActive    LifecycleStatus = "active"
)

// Offering is a monetizable, time-boxed live-stream listing.
// It is treated as a value object: access decisions never mutate it.
type Offering struct {
	OfferingID    string    `json:"id"`
	Title         string    `json:"title"`
	Price         float64   `json:"price"`
	PaymentKey    string    `json:"payment_key,omitempty"`
	StreamLocator string    `json:"stream_locator"`
	ThumbnailURL  string    `json:"thumbnail_url,omitempty"`
	StartAt       time.Time `json:"start_at"`
	ExpiresAt     time.Time `json:"expires_at"`
	Active        bool      `json:"active"`
	ViewCount     int64     `json:"view_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IsFree reports whether the offering bypasses the monetization gate.
func (o Offering) IsFree() bool {
	return o.Price == 0
}

// Classify maps an offering and the current instant to its lifecycle status.
// Rules are applied in priority order and the first match wins. A missing or
// inverted window classifies as Inactive so a corrupt record never becomes
// visible. Boundaries are inclusive at second granularity.
func Classify(o Offering, now time.Time) LifecycleStatus {
	if !o.Active {
		return StatusInactive
	}
	if o.StartAt.IsZero() || o.ExpiresAt.IsZero() || !o.StartAt.Before(o.ExpiresAt) {
		return StatusInactive
	}
	at := now.Truncate(time.Second)
	if at.Before(o.StartAt.Truncate(time.Second)) {
		return StatusScheduled
	}
	if at.After(o.ExpiresAt.Truncate(time.Second)) {
		return StatusExpired
	}
	return StatusActive
}

// PublicListing is the partition of Active offerings shown to viewers.
type PublicListing struct {
	Free []Offering `json:"free"`
	Paid []Offering `json:"paid"`
}

// Empty reports whether there is nothing to show.
func (l PublicListing) Empty() bool {
	return len(l.Free) == 0 && len(l.Paid) == 0
}

// PartitionPublic keeps only Active offerings and splits them by price.
func PartitionPublic(offerings []Offering, now time.Time) PublicListing {
	out := PublicListing{Free: []Offering{}, Paid: []Offering{}}
	for _, o := range offerings {
		if Classify(o, now) != StatusActive {
			continue
		}
		if o.IsFree() {
			out.Free = append(out.Free, o)
			continue
		}
		if o.Price > 0 {
			out.Paid = append(out.Paid, o)
		}
	}
	return out
}

// OfferingPatch carries the optional fields of a catalog update.
type OfferingPatch struct {
	Title         *string
	Price         *float64
	PaymentKey    *string
	StreamLocator *string
	ThumbnailURL  *string
	StartAt       *time.Time
	ExpiresAt     *time.Time
	Active        *bool
}

// Apply returns a copy of o with the patch applied. ViewCount is left alone
// because only the view-tracking collaborator moves it.
func (p OfferingPatch) Apply(o Offering) Offering {
	if p.Title != nil {
		o.Title = *p.Title
	}
	if p.Price != nil {
		o.Price = *p.Price
	}
	if p.PaymentKey != nil {
		o.PaymentKey = *p.PaymentKey
	}
	if p.StreamLocator != nil {
		o.StreamLocator = *p.StreamLocator
	}
	if p.ThumbnailURL != nil {
		o.ThumbnailURL = *p.ThumbnailURL
	}
	if p.StartAt != nil {
		o.StartAt = *p.StartAt
	}
	if p.ExpiresAt != nil {
		o.ExpiresAt = *p.ExpiresAt
	}
	if p.Active != nil {
		o.Active = *p.Active
	}
	return o
}

// ValidateOffering checks the invariants an operator must satisfy before the
// catalog accepts a record.
func ValidateOffering(o Offering) error {
	if strings.TrimSpace(o.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if o.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	}
	if o.Price > 0 && strings.TrimSpace(o.PaymentKey) == "" {
		return fmt.Errorf("%w: payment_key is required for paid offerings", ErrInvalidInput)
	}
	if o.StartAt.IsZero() || o.ExpiresAt.IsZero() {
		return fmt.Errorf("%w: start_at and expires_at are required", ErrInvalidInput)
	}
	if !o.StartAt.Before(o.ExpiresAt) {
		return fmt.Errorf("%w: start_at must be before expires_at", ErrInvalidInput)
	}
	return nil
}
