package postgres

import (
	"time"

	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/domain"
)

type offeringModel struct {
	OfferingID    string     `gorm:"column:offering_id;primaryKey"`
	Title         string     `gorm:"column:title"`
	Price         float64    `gorm:"column:price"`
	PaymentKey    string     `gorm:"column:payment_key"`
	StreamLocator string     `gorm:"column:stream_locator"`
	ThumbnailURL  string     `gorm:"column:thumbnail_url"`
	StartAt       *time.Time `gorm:"column:start_at"`
	ExpiresAt     *time.Time `gorm:"column:expires_at"`
	Active        bool       `gorm:"column:active"`
	ViewCount     int64      `gorm:"column:view_count"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at"`
}

func (offeringModel) TableName() string { return "offerings" }

// Zero window bounds are stored as NULL so a legacy row without dates
// reads back as a zero time and classifies Inactive.
func toOfferingModel(o domain.Offering) offeringModel {
	return offeringModel{
		OfferingID:    o.OfferingID,
		Title:         o.Title,
		Price:         o.Price,
		PaymentKey:    o.PaymentKey,
		StreamLocator: o.StreamLocator,
		ThumbnailURL:  o.ThumbnailURL,
		StartAt:       nullableTime(o.StartAt),
		ExpiresAt:     nullableTime(o.ExpiresAt),
		Active:        o.Active,
		ViewCount:     o.ViewCount,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

func toDomainOffering(row offeringModel) domain.Offering {
	return domain.Offering{
		OfferingID:    row.OfferingID,
		Title:         row.Title,
		Price:         row.Price,
		PaymentKey:    row.PaymentKey,
		StreamLocator: row.StreamLocator,
		ThumbnailURL:  row.ThumbnailURL,
		StartAt:       derefTime(row.StartAt),
		ExpiresAt:     derefTime(row.ExpiresAt),
		Active:        row.Active,
		ViewCount:     row.ViewCount,
		CreatedAt:     row.CreatedAt.UTC(),
		UpdatedAt:     row.UpdatedAt.UTC(),
	}
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	utc := t.UTC()
	return &utc
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.UTC()
}
