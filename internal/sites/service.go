package sites

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/listora/listora/internal/listings"
)

// Service implements site use cases.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a site service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Create stores a new site. An empty slug derives from the name.
func (s *Service) Create(ctx context.Context, draft Draft) (Site, error) {
	slug := strings.TrimSpace(draft.Slug)
	if slug == "" {
		slug = listings.Slugify(draft.Name)
	}
	now := s.now().UTC()
	site := Site{
		ID:        uuid.NewString(),
		TenantID:  draft.TenantID,
		Name:      strings.TrimSpace(draft.Name),
		Slug:      slug,
		Domain:    strings.TrimSpace(draft.Domain),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, site); err != nil {
		return Site{}, err
	}
	return site, nil
}

// Get returns one site.
func (s *Service) Get(ctx context.Context, tenantID, id string) (Site, error) {
	return s.repo.Get(ctx, tenantID, id)
}

// Update applies a partial edit.
func (s *Service) Update(ctx context.Context, tenantID, id string, update Update) (Site, error) {
	site, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		return Site{}, err
	}
	if update.Name != nil {
		site.Name = strings.TrimSpace(*update.Name)
	}
	if update.Slug != nil {
		site.Slug = strings.TrimSpace(*update.Slug)
	}
	if update.Domain != nil {
		site.Domain = strings.TrimSpace(*update.Domain)
	}
	site.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, site); err != nil {
		return Site{}, err
	}
	return site, nil
}

// Delete removes a site record.
func (s *Service) Delete(ctx context.Context, tenantID, id string) error {
	return s.repo.Delete(ctx, tenantID, id)
}

// List returns the tenant's sites.
func (s *Service) List(ctx context.Context, tenantID string) ([]Site, error) {
	return s.repo.List(ctx, tenantID)
}
