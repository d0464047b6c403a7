package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/domain"
	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/ports"
)

// Catalog is an in-process CatalogRepository and ViewTracker, used for
// local runs without Postgres and in tests.
type Catalog struct {
	mu   sync.Mutex
	rows map[string]domain.Offering
}

func NewCatalog(seed ...domain.Offering) *Catalog {
	c := &Catalog{rows: make(map[string]domain.Offering, len(seed))}
	for _, o := range seed {
		c.rows[o.OfferingID] = o
	}
	return c
}

func (c *Catalog) List(_ context.Context, sortBy ports.ListSort) ([]domain.Offering, error) {
	less, err := lessFor(sortBy)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	out := make([]domain.Offering, 0, len(c.rows))
	for _, o := range c.rows {
		out = append(out, o)
	}
	c.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool {
		if less(out[i], out[j]) {
			return true
		}
		if less(out[j], out[i]) {
			return false
		}
		return out[i].OfferingID < out[j].OfferingID
	})
	return out, nil
}

func lessFor(sortBy ports.ListSort) (func(a, b domain.Offering) bool, error) {
	switch sortBy {
	case ports.SortNone, ports.SortCreatedDesc:
		return func(a, b domain.Offering) bool { return a.CreatedAt.After(b.CreatedAt) }, nil
	case ports.SortCreatedAsc:
		return func(a, b domain.Offering) bool { return a.CreatedAt.Before(b.CreatedAt) }, nil
	case ports.SortStartDesc:
		return func(a, b domain.Offering) bool { return a.StartAt.After(b.StartAt) }, nil
	case ports.SortStartAsc:
		return func(a, b domain.Offering) bool { return a.StartAt.Before(b.StartAt) }, nil
	case ports.SortTitleAsc:
		return func(a, b domain.Offering) bool { return strings.ToLower(a.Title) < strings.ToLower(b.Title) }, nil
	default:
		return nil, fmt.Errorf("%w: unknown sort %q", domain.ErrInvalidInput, sortBy)
	}
}

func (c *Catalog) Get(_ context.Context, offeringID string) (domain.Offering, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	o, ok := c.rows[offeringID]
	if !ok {
		return domain.Offering{}, domain.ErrNotFound
	}
	return o, nil
}

func (c *Catalog) Create(_ context.Context, offering domain.Offering) (domain.Offering, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.rows[offering.OfferingID]; exists {
		return domain.Offering{}, fmt.Errorf("%w: offering %s already exists", domain.ErrInvalidInput, offering.OfferingID)
	}
	c.rows[offering.OfferingID] = offering
	return offering, nil
}

func (c *Catalog) Update(_ context.Context, offering domain.Offering) (domain.Offering, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	current, ok := c.rows[offering.OfferingID]
	if !ok {
		return domain.Offering{}, domain.ErrNotFound
	}
	offering.ViewCount = current.ViewCount
	offering.CreatedAt = current.CreatedAt
	c.rows[offering.OfferingID] = offering
	return offering, nil
}

func (c *Catalog) Delete(_ context.Context, offeringID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.rows[offeringID]; !ok {
		return domain.ErrNotFound
	}
	delete(c.rows, offeringID)
	return nil
}

func (c *Catalog) Increment(_ context.Context, offeringID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	o, ok := c.rows[offeringID]
	if !ok {
		return domain.ErrNotFound
	}
	o.ViewCount++
	c.rows[offeringID] = o
	return nil
}
