package listings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listora/listora/internal/role"
	_ "github.com/listora/listora/testing"
)

type mockRepository struct {
	byID    map[string]Listing
	bySlug  map[string]string
	listErr error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		byID:   make(map[string]Listing),
		bySlug: make(map[string]string),
	}
}

func slugKey(l Listing) string {
	return l.TenantID + "/" + l.SiteID + "/" + l.Slug
}

func (m *mockRepository) Create(ctx context.Context, l Listing) error {
	if _, taken := m.bySlug[slugKey(l)]; taken {
		return ErrDuplicateSlug
	}
	m.byID[l.ID] = l
	m.bySlug[slugKey(l)] = l.ID
	return nil
}

func (m *mockRepository) Get(ctx context.Context, tenantID, id string) (Listing, error) {
	l, ok := m.byID[id]
	if !ok || l.TenantID != tenantID {
		return Listing{}, ErrNotFound
	}
	return l, nil
}

func (m *mockRepository) Update(ctx context.Context, l Listing) error {
	prev, ok := m.byID[l.ID]
	if !ok {
		return ErrNotFound
	}
	if id, taken := m.bySlug[slugKey(l)]; taken && id != l.ID {
		return ErrDuplicateSlug
	}
	delete(m.bySlug, slugKey(prev))
	m.byID[l.ID] = l
	m.bySlug[slugKey(l)] = l.ID
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, tenantID, id string) error {
	l, ok := m.byID[id]
	if !ok || l.TenantID != tenantID {
		return ErrNotFound
	}
	delete(m.byID, id)
	delete(m.bySlug, slugKey(l))
	return nil
}

func (m *mockRepository) List(ctx context.Context, tenantID string, filters ListFilters) ([]Listing, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []Listing
	for _, l := range m.byID {
		if l.TenantID != tenantID {
			continue
		}
		if filters.SiteID != "" && l.SiteID != filters.SiteID {
			continue
		}
		if filters.Status != "" && l.Status != filters.Status {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

type stubResolver struct {
	ids []string
	err error
}

func (s stubResolver) AccessibleResources(ctx context.Context, userID, tenantID string, resourceType role.ResourceType, permission role.Permission, siteID string) ([]string, error) {
	return s.ids, s.err
}

func TestCreateDerivesSlug(t *testing.T) {
	svc := NewService(newMockRepository(), stubResolver{})

	listing, err := svc.Create(context.Background(), Draft{
		TenantID: "acme",
		SiteID:   "site-1",
		Title:    "  Café & Bistro, Downtown!  ",
	})
	require.NoError(t, err)
	assert.Equal(t, "caf-bistro-downtown", listing.Slug)
	assert.Equal(t, StatusDraft, listing.Status)
	assert.NotEmpty(t, listing.ID)
	assert.Equal(t, "Café & Bistro, Downtown!", listing.Title)
}

func TestCreateRejectsBadStatus(t *testing.T) {
	svc := NewService(newMockRepository(), stubResolver{})

	_, err := svc.Create(context.Background(), Draft{
		TenantID: "acme", SiteID: "site-1", Title: "x", Status: "live",
	})
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestCreateDuplicateSlug(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, stubResolver{})
	ctx := context.Background()

	_, err := svc.Create(ctx, Draft{TenantID: "acme", SiteID: "site-1", Title: "Corner Shop"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, Draft{TenantID: "acme", SiteID: "site-1", Title: "Corner Shop"})
	require.ErrorIs(t, err, ErrDuplicateSlug)

	// Same slug on another site is fine.
	_, err = svc.Create(ctx, Draft{TenantID: "acme", SiteID: "site-2", Title: "Corner Shop"})
	require.NoError(t, err)
}

func TestUpdatePartial(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, stubResolver{})
	ctx := context.Background()

	created, err := svc.Create(ctx, Draft{TenantID: "acme", SiteID: "site-1", Title: "Old Title"})
	require.NoError(t, err)

	title := "New Title"
	status := StatusPublished
	updated, err := svc.Update(ctx, "acme", created.ID, Update{Title: &title, Status: &status})
	require.NoError(t, err)
	assert.Equal(t, "New Title", updated.Title)
	assert.Equal(t, StatusPublished, updated.Status)
	assert.Equal(t, created.Slug, updated.Slug)

	bad := Status("live")
	_, err = svc.Update(ctx, "acme", created.ID, Update{Status: &bad})
	require.ErrorIs(t, err, ErrInvalidStatus)

	_, err = svc.Update(ctx, "globex", created.ID, Update{Title: &title})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListVisibleWildcard(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, stubResolver{ids: []string{role.Wildcard}})
	ctx := context.Background()

	for _, title := range []string{"One", "Two", "Three"} {
		_, err := svc.Create(ctx, Draft{TenantID: "acme", SiteID: "site-1", Title: title})
		require.NoError(t, err)
	}

	visible, err := svc.ListVisible(ctx, "u1", "acme", ListFilters{})
	require.NoError(t, err)
	assert.Len(t, visible, 3)
}

func TestListVisibleFiltersToGrantedIDs(t *testing.T) {
	repo := newMockRepository()
	ctx := context.Background()

	seed := NewService(repo, stubResolver{})
	first, err := seed.Create(ctx, Draft{TenantID: "acme", SiteID: "site-1", Title: "One"})
	require.NoError(t, err)
	_, err = seed.Create(ctx, Draft{TenantID: "acme", SiteID: "site-1", Title: "Two"})
	require.NoError(t, err)

	svc := NewService(repo, stubResolver{ids: []string{first.ID, "not-a-listing"}})
	visible, err := svc.ListVisible(ctx, "u1", "acme", ListFilters{})
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, first.ID, visible[0].ID)
}

func TestListVisibleNoGrants(t *testing.T) {
	repo := newMockRepository()
	repo.listErr = assert.AnError
	svc := NewService(repo, stubResolver{ids: nil})

	// Empty grant list short-circuits before the repository is hit.
	visible, err := svc.ListVisible(context.Background(), "u1", "acme", ListFilters{})
	require.NoError(t, err)
	assert.Empty(t, visible)
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Hello World":      "hello-world",
		"  Spaces  ":       "spaces",
		"UPPER-case_mix 9": "upper-case-mix-9",
		"---":              "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), in)
	}
}
