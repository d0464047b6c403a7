package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/domain"
	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/ports"
)

// OfferingRepository is the Postgres catalog. It also counts views in place
// when no event pipeline is configured.
type OfferingRepository struct {
	db *gorm.DB
}

func NewOfferingRepository(db *gorm.DB) *OfferingRepository {
	return &OfferingRepository{db: db}
}

var orderClauses = map[ports.ListSort]string{
	ports.SortNone:        "created_at DESC",
	ports.SortCreatedDesc: "created_at DESC",
	ports.SortCreatedAsc:  "created_at ASC",
	ports.SortStartDesc:   "start_at DESC NULLS LAST",
	ports.SortStartAsc:    "start_at ASC NULLS LAST",
	ports.SortTitleAsc:    "title ASC",
}

func (r *OfferingRepository) List(ctx context.Context, sort ports.ListSort) ([]domain.Offering, error) {
	order, ok := orderClauses[sort]
	if !ok {
		return nil, fmt.Errorf("%w: unknown sort %q", domain.ErrInvalidInput, sort)
	}
	var rows []offeringModel
	if err := r.db.WithContext(ctx).Order(order).Order("offering_id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Offering, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainOffering(row))
	}
	return out, nil
}

func (r *OfferingRepository) Get(ctx context.Context, offeringID string) (domain.Offering, error) {
	var row offeringModel
	if err := r.db.WithContext(ctx).Where("offering_id = ?", offeringID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Offering{}, domain.ErrNotFound
		}
		return domain.Offering{}, err
	}
	return toDomainOffering(row), nil
}

func (r *OfferingRepository) Create(ctx context.Context, offering domain.Offering) (domain.Offering, error) {
	row := toOfferingModel(offering)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.Offering{}, fmt.Errorf("%w: offering %s already exists", domain.ErrInvalidInput, offering.OfferingID)
		}
		return domain.Offering{}, err
	}
	return toDomainOffering(row), nil
}

// Update rewrites the editable columns. view_count is excluded; only
// Increment moves it.
func (r *OfferingRepository) Update(ctx context.Context, offering domain.Offering) (domain.Offering, error) {
	row := toOfferingModel(offering)
	res := r.db.WithContext(ctx).
		Model(&offeringModel{}).
		Where("offering_id = ?", offering.OfferingID).
		Updates(map[string]any{
			"title":          row.Title,
			"price":          row.Price,
			"payment_key":    row.PaymentKey,
			"stream_locator": row.StreamLocator,
			"thumbnail_url":  row.ThumbnailURL,
			"start_at":       row.StartAt,
			"expires_at":     row.ExpiresAt,
			"active":         row.Active,
			"updated_at":     row.UpdatedAt,
		})
	if res.Error != nil {
		return domain.Offering{}, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.Offering{}, domain.ErrNotFound
	}
	return r.Get(ctx, offering.OfferingID)
}

func (r *OfferingRepository) Delete(ctx context.Context, offeringID string) error {
	res := r.db.WithContext(ctx).Where("offering_id = ?", offeringID).Delete(&offeringModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *OfferingRepository) Increment(ctx context.Context, offeringID string) error {
	res := r.db.WithContext(ctx).
		Model(&offeringModel{}).
		Where("offering_id = ?", offeringID).
		Update("view_count", gorm.Expr("view_count + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
