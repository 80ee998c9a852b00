package listings

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"github.com/listora/listora/internal/role"
)

// Resolver narrows reads to the listings the caller may see.
type Resolver interface {
	AccessibleResources(ctx context.Context, userID, tenantID string, resourceType role.ResourceType, permission role.Permission, siteID string) ([]string, error)
}

// Service implements listing use cases.
type Service struct {
	repo     Repository
	resolver Resolver
	now      func() time.Time
}

// NewService creates a listing service.
func NewService(repo Repository, resolver Resolver) *Service {
	return &Service{repo: repo, resolver: resolver, now: time.Now}
}

var slugFolder = cases.Fold()

// Slugify derives a URL slug from a title.
func Slugify(s string) string {
	folded := slugFolder.String(strings.TrimSpace(s))
	var b strings.Builder
	lastDash := true
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

// Create stores a new listing. An empty slug derives from the title and an
// empty status defaults to draft.
func (s *Service) Create(ctx context.Context, draft Draft) (Listing, error) {
	if draft.Status == "" {
		draft.Status = StatusDraft
	}
	if !draft.Status.Valid() {
		return Listing{}, ErrInvalidStatus
	}
	slug := strings.TrimSpace(draft.Slug)
	if slug == "" {
		slug = Slugify(draft.Title)
	}

	now := s.now().UTC()
	listing := Listing{
		ID:          uuid.NewString(),
		TenantID:    draft.TenantID,
		SiteID:      draft.SiteID,
		Title:       strings.TrimSpace(draft.Title),
		Slug:        slug,
		Category:    strings.TrimSpace(draft.Category),
		Description: draft.Description,
		Status:      draft.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, listing); err != nil {
		return Listing{}, err
	}
	return listing, nil
}

// Get returns one listing.
func (s *Service) Get(ctx context.Context, tenantID, id string) (Listing, error) {
	return s.repo.Get(ctx, tenantID, id)
}

// Update applies a partial edit.
func (s *Service) Update(ctx context.Context, tenantID, id string, update Update) (Listing, error) {
	listing, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		return Listing{}, err
	}
	if update.Title != nil {
		listing.Title = strings.TrimSpace(*update.Title)
	}
	if update.Slug != nil {
		listing.Slug = strings.TrimSpace(*update.Slug)
	}
	if update.Category != nil {
		listing.Category = strings.TrimSpace(*update.Category)
	}
	if update.Description != nil {
		listing.Description = *update.Description
	}
	if update.Status != nil {
		if !update.Status.Valid() {
			return Listing{}, ErrInvalidStatus
		}
		listing.Status = *update.Status
	}
	listing.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, listing); err != nil {
		return Listing{}, err
	}
	return listing, nil
}

// Delete removes a listing.
func (s *Service) Delete(ctx context.Context, tenantID, id string) error {
	return s.repo.Delete(ctx, tenantID, id)
}

// ListVisible returns the tenant's listings the user may read. A grant
// without a resource id makes every listing visible; otherwise the result
// is filtered down to the granted ids.
func (s *Service) ListVisible(ctx context.Context, userID, tenantID string, filters ListFilters) ([]Listing, error) {
	ids, err := s.resolver.AccessibleResources(ctx, userID, tenantID, role.ResourceListing, role.PermissionRead, filters.SiteID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	all, err := s.repo.List(ctx, tenantID, filters)
	if err != nil {
		return nil, err
	}
	if len(ids) == 1 && ids[0] == role.Wildcard {
		return all, nil
	}

	allowed := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		allowed[id] = struct{}{}
	}
	visible := all[:0]
	for _, l := range all {
		if _, ok := allowed[l.ID]; ok {
			visible = append(visible, l)
		}
	}
	return visible, nil
}
