package ports

import (
	"context"
	"io"

	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/domain"
)

// ListSort names a catalog ordering. A leading "-" means descending.
type ListSort string

const (
	SortNone        ListSort = ""
	SortCreatedDesc ListSort = "-created_date"
	SortCreatedAsc  ListSort = "created_date"
	SortStartDesc   ListSort = "-start_date"
	SortStartAsc    ListSort = "start_date"
	SortTitleAsc    ListSort = "title"
)

// CatalogRepository is the storage collaborator that owns offerings.
// Callers never hold a copy across access decisions.
type CatalogRepository interface {
	List(ctx context.Context, sort ListSort) ([]domain.Offering, error)
	Get(ctx context.Context, offeringID string) (domain.Offering, error)
	Create(ctx context.Context, offering domain.Offering) (domain.Offering, error)
	Update(ctx context.Context, offering domain.Offering) (domain.Offering, error)
	Delete(ctx context.Context, offeringID string) error
}

// ViewTracker is the write-only view counting collaborator.
type ViewTracker interface {
	Increment(ctx context.Context, offeringID string) error
}

// UploadFile is a thumbnail handed to the upload collaborator.
type UploadFile struct {
	Name        string
	ContentType string
	Body        io.Reader
}

type Uploader interface {
	Upload(ctx context.Context, file UploadFile) (string, error)
}
