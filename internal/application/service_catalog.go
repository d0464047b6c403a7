package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/domain"
	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/ports"
)

// ListPublic returns the Active offerings split into free and paid. Catalog
// failures degrade to an empty listing.
func (s *Service) ListPublic(ctx context.Context) domain.PublicListing {
	offerings, err := s.catalog.List(ctx, ports.SortNone)
	if err != nil {
		serviceLogger().ErrorContext(ctx, "catalog listing failed",
			"operation", "list_public",
			"outcome", "degraded",
			"error", err.Error(),
		)
		return domain.PublicListing{Free: []domain.Offering{}, Paid: []domain.Offering{}}
	}
	return domain.PartitionPublic(offerings, s.clock.Now())
}

// ListAdmin returns every offering with its status derived at read time.
func (s *Service) ListAdmin(ctx context.Context, auth AuthContext, sort ports.ListSort) ([]OfferingView, error) {
	if err := s.require(ctx, auth, domain.LevelAdminOnly); err != nil {
		return nil, err
	}
	if sort == ports.SortNone {
		sort = ports.SortCreatedDesc
	}
	if !validSort(sort) {
		return nil, fmt.Errorf("%w: unknown sort %q", domain.ErrInvalidInput, sort)
	}
	offerings, err := s.catalog.List(ctx, sort)
	if err != nil {
		return nil, fmt.Errorf("%w: catalog list: %v", domain.ErrCollaboratorFailure, err)
	}
	now := s.clock.Now()
	out := make([]OfferingView, 0, len(offerings))
	for _, o := range offerings {
		out = append(out, OfferingView{Offering: o, Status: domain.Classify(o, now)})
	}
	return out, nil
}

func (s *Service) CreateOffering(ctx context.Context, auth AuthContext, input CreateOfferingInput) (OfferingView, error) {
	if err := s.require(ctx, auth, domain.LevelAdminOnly); err != nil {
		return OfferingView{}, err
	}
	now := s.clock.Now()
	offering := domain.Offering{
		OfferingID:    uuid.NewString(),
		Title:         strings.TrimSpace(input.Title),
		Price:         input.Price,
		PaymentKey:    strings.TrimSpace(input.PaymentKey),
		StreamLocator: input.StreamLocator,
		ThumbnailURL:  input.ThumbnailURL,
		StartAt:       input.StartAt.UTC(),
		ExpiresAt:     input.ExpiresAt.UTC(),
		Active:        input.Active,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := domain.ValidateOffering(offering); err != nil {
		return OfferingView{}, err
	}
	created, err := s.catalog.Create(ctx, offering)
	if err != nil {
		return OfferingView{}, fmt.Errorf("%w: catalog create: %v", domain.ErrCollaboratorFailure, err)
	}
	serviceLogger().InfoContext(ctx, "offering created",
		"operation", "create_offering",
		"outcome", "success",
		"offering_id", created.OfferingID,
	)
	return OfferingView{Offering: created, Status: domain.Classify(created, now)}, nil
}

func (s *Service) UpdateOffering(ctx context.Context, auth AuthContext, offeringID string, patch domain.OfferingPatch) (OfferingView, error) {
	if err := s.require(ctx, auth, domain.LevelAdminOnly); err != nil {
		return OfferingView{}, err
	}
	current, err := s.fetchOffering(ctx, offeringID)
	if err != nil {
		return OfferingView{}, err
	}
	next := patch.Apply(current)
	next.Title = strings.TrimSpace(next.Title)
	next.PaymentKey = strings.TrimSpace(next.PaymentKey)
	now := s.clock.Now()
	next.UpdatedAt = now
	if err := domain.ValidateOffering(next); err != nil {
		return OfferingView{}, err
	}
	updated, err := s.catalog.Update(ctx, next)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return OfferingView{}, domain.ErrNotFound
		}
		return OfferingView{}, fmt.Errorf("%w: catalog update: %v", domain.ErrCollaboratorFailure, err)
	}
	serviceLogger().InfoContext(ctx, "offering updated",
		"operation", "update_offering",
		"outcome", "success",
		"offering_id", updated.OfferingID,
	)
	return OfferingView{Offering: updated, Status: domain.Classify(updated, now)}, nil
}

func (s *Service) DeleteOffering(ctx context.Context, auth AuthContext, offeringID string) error {
	if err := s.require(ctx, auth, domain.LevelAdminOnly); err != nil {
		return err
	}
	if strings.TrimSpace(offeringID) == "" {
		return fmt.Errorf("%w: offering id is required", domain.ErrInvalidInput)
	}
	if err := s.catalog.Delete(ctx, offeringID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("%w: catalog delete: %v", domain.ErrCollaboratorFailure, err)
	}
	serviceLogger().InfoContext(ctx, "offering deleted",
		"operation", "delete_offering",
		"outcome", "success",
		"offering_id", offeringID,
	)
	return nil
}

// UploadThumbnail stores an image through the upload collaborator and
// returns its public URL.
func (s *Service) UploadThumbnail(ctx context.Context, auth AuthContext, file ports.UploadFile) (string, error) {
	if err := s.require(ctx, auth, domain.LevelAdminOnly); err != nil {
		return "", err
	}
	if s.uploader == nil {
		return "", fmt.Errorf("%w: uploader not configured", domain.ErrCollaboratorFailure)
	}
	if file.Body == nil {
		return "", fmt.Errorf("%w: file is required", domain.ErrInvalidInput)
	}
	if !strings.HasPrefix(strings.ToLower(file.ContentType), "image/") {
		return "", fmt.Errorf("%w: thumbnail must be an image", domain.ErrInvalidInput)
	}
	url, err := s.uploader.Upload(ctx, file)
	if err != nil {
		return "", fmt.Errorf("%w: upload: %v", domain.ErrCollaboratorFailure, err)
	}
	return url, nil
}

func validSort(sort ports.ListSort) bool {
	switch sort {
	case ports.SortCreatedDesc, ports.SortCreatedAsc, ports.SortStartDesc, ports.SortStartAsc, ports.SortTitleAsc:
		return true
	default:
		return false
	}
}
