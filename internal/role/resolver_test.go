package role_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/listora/listora/internal/role"
)

func grantRole(t *testing.T, svc *role.Service, userID, tenantID, name string, entries ...role.ACLEntry) *role.Role {
	t.Helper()
	created, err := svc.CreateRole(context.Background(), draftWith(name, tenantID, entries...))
	require.NoError(t, err)
	require.NoError(t, svc.AssignRoleToUser(context.Background(), userID, tenantID, created.ID))
	return created
}

func TestHasPermissionWildcardID(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	// No resource id on the entry: matches any requested id.
	grantRole(t, svc, "u1", "acme", "Editor",
		entry(role.ResourceListing, role.PermissionUpdate, "acme"))

	granted, err := svc.HasPermission(ctx, "u1", "acme", role.Query{
		ResourceType: role.ResourceListing,
		Permission:   role.PermissionUpdate,
		ResourceID:   "listing-42",
	})
	require.NoError(t, err)
	require.True(t, granted)

	// Wrong permission.
	granted, err = svc.HasPermission(ctx, "u1", "acme", role.Query{
		ResourceType: role.ResourceListing,
		Permission:   role.PermissionDelete,
		ResourceID:   "listing-42",
	})
	require.NoError(t, err)
	require.False(t, granted)

	// Wrong resource type.
	granted, err = svc.HasPermission(ctx, "u1", "acme", role.Query{
		ResourceType: role.ResourceCategory,
		Permission:   role.PermissionUpdate,
	})
	require.NoError(t, err)
	require.False(t, granted)
}

func TestHasPermissionSpecificID(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	grantRole(t, svc, "u1", "acme", "SingleListing", role.ACLEntry{
		Resource:   role.Resource{Type: role.ResourceListing, ID: "listing-1", TenantID: "acme"},
		Permission: role.PermissionUpdate,
	})

	granted, err := svc.HasPermission(ctx, "u1", "acme", role.Query{
		ResourceType: role.ResourceListing, Permission: role.PermissionUpdate, ResourceID: "listing-1",
	})
	require.NoError(t, err)
	require.True(t, granted)

	granted, err = svc.HasPermission(ctx, "u1", "acme", role.Query{
		ResourceType: role.ResourceListing, Permission: role.PermissionUpdate, ResourceID: "listing-2",
	})
	require.NoError(t, err)
	require.False(t, granted)

	// Generic query (no id) still matches: the check is not scoped.
	granted, err = svc.HasPermission(ctx, "u1", "acme", role.Query{
		ResourceType: role.ResourceListing, Permission: role.PermissionUpdate,
	})
	require.NoError(t, err)
	require.True(t, granted)
}

func TestHasPermissionSiteScoping(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	grantRole(t, svc, "u1", "acme", "SiteEditor", role.ACLEntry{
		Resource:   role.Resource{Type: role.ResourceListing, TenantID: "acme", SiteID: "site-1"},
		Permission: role.PermissionUpdate,
	})

	// Matching site.
	granted, err := svc.HasPermission(ctx, "u1", "acme", role.Query{
		ResourceType: role.ResourceListing, Permission: role.PermissionUpdate, SiteID: "site-1",
	})
	require.NoError(t, err)
	require.True(t, granted)

	// Different site must not match.
	granted, err = svc.HasPermission(ctx, "u1", "acme", role.Query{
		ResourceType: role.ResourceListing, Permission: role.PermissionUpdate, SiteID: "site-2",
	})
	require.NoError(t, err)
	require.False(t, granted)

	// A site-scoped grant does not satisfy a tenant-wide query.
	granted, err = svc.HasPermission(ctx, "u1", "acme", role.Query{
		ResourceType: role.ResourceListing, Permission: role.PermissionUpdate,
	})
	require.NoError(t, err)
	require.False(t, granted)
}

func TestHasPermissionTenantWideEntryCoversSiteQuery(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	grantRole(t, svc, "u1", "acme", "Editor",
		entry(role.ResourceListing, role.PermissionUpdate, "acme"))

	granted, err := svc.HasPermission(ctx, "u1", "acme", role.Query{
		ResourceType: role.ResourceListing, Permission: role.PermissionUpdate, SiteID: "site-9",
	})
	require.NoError(t, err)
	require.True(t, granted)
}

func TestManageIsLiteral(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	grantRole(t, svc, "u1", "acme", "Manager",
		entry(role.ResourceListing, role.PermissionManage, "acme"))

	granted, err := svc.HasPermission(ctx, "u1", "acme", role.Query{
		ResourceType: role.ResourceListing, Permission: role.PermissionManage,
	})
	require.NoError(t, err)
	require.True(t, granted)

	// Manage does not imply the CRUD permissions.
	for _, p := range []role.Permission{role.PermissionCreate, role.PermissionRead, role.PermissionUpdate, role.PermissionDelete} {
		granted, err = svc.HasPermission(ctx, "u1", "acme", role.Query{
			ResourceType: role.ResourceListing, Permission: p,
		})
		require.NoError(t, err)
		require.False(t, granted, "manage must not imply %s", p)
	}
}

func TestAccessibleResources(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	grantRole(t, svc, "u1", "acme", "TwoListings",
		role.ACLEntry{
			Resource:   role.Resource{Type: role.ResourceListing, ID: "l1", TenantID: "acme"},
			Permission: role.PermissionRead,
		},
		role.ACLEntry{
			Resource:   role.Resource{Type: role.ResourceListing, ID: "l2", TenantID: "acme"},
			Permission: role.PermissionRead,
		},
		role.ACLEntry{
			Resource:   role.Resource{Type: role.ResourceListing, ID: "l1", TenantID: "acme"},
			Permission: role.PermissionRead,
		},
	)

	ids, err := svc.AccessibleResources(ctx, "u1", "acme", role.ResourceListing, role.PermissionRead, "")
	require.NoError(t, err)
	require.Equal(t, []string{"l1", "l2"}, ids)

	// No grants for the permission at all.
	ids, err = svc.AccessibleResources(ctx, "u1", "acme", role.ResourceListing, role.PermissionDelete, "")
	require.NoError(t, err)
	require.Empty(t, ids)
}

func TestAccessibleResourcesWildcardSentinel(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	grantRole(t, svc, "u1", "acme", "Mixed",
		role.ACLEntry{
			Resource:   role.Resource{Type: role.ResourceListing, ID: "l1", TenantID: "acme"},
			Permission: role.PermissionRead,
		},
		entry(role.ResourceListing, role.PermissionRead, "acme"),
	)

	// Any id-less matching entry collapses the result to the sentinel.
	ids, err := svc.AccessibleResources(ctx, "u1", "acme", role.ResourceListing, role.PermissionRead, "")
	require.NoError(t, err)
	require.Equal(t, []string{role.Wildcard}, ids)
}

func TestAccessibleResourcesSiteFilter(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	grantRole(t, svc, "u1", "acme", "PerSite",
		role.ACLEntry{
			Resource:   role.Resource{Type: role.ResourceListing, ID: "l1", TenantID: "acme", SiteID: "site-1"},
			Permission: role.PermissionRead,
		},
		role.ACLEntry{
			Resource:   role.Resource{Type: role.ResourceListing, ID: "l2", TenantID: "acme", SiteID: "site-2"},
			Permission: role.PermissionRead,
		},
	)

	ids, err := svc.AccessibleResources(ctx, "u1", "acme", role.ResourceListing, role.PermissionRead, "site-1")
	require.NoError(t, err)
	require.Equal(t, []string{"l1"}, ids)

	// Unscoped enumeration sees both.
	ids, err = svc.AccessibleResources(ctx, "u1", "acme", role.ResourceListing, role.PermissionRead, "")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"l1", "l2"}, ids)
}

func TestGlobalPermissionAnyTenant(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	global, err := svc.CreateRole(ctx, role.Draft{
		Name:     "SuperAdmin",
		TenantID: role.SystemTenant,
		IsGlobal: true,
		ACLEntries: []role.ACLEntry{{
			Resource:   role.Resource{Type: role.ResourceUser, TenantID: role.SystemTenant},
			Permission: role.PermissionManage,
		}},
	})
	require.NoError(t, err)

	// Assigned only under the system tenant.
	require.NoError(t, svc.AssignRoleToUser(ctx, "u1", role.SystemTenant, global.ID))

	granted, err := svc.HasGlobalPermissionAnyTenant(ctx, "u1", role.ResourceUser, role.PermissionManage)
	require.NoError(t, err)
	require.True(t, granted)

	// Even though u1 has no entry in acme's user-role set.
	has, err := svc.HasRoleInTenant(ctx, "u1", "acme")
	require.NoError(t, err)
	require.False(t, has)

	granted, err = svc.HasGlobalPermissionAnyTenant(ctx, "u1", role.ResourceUser, role.PermissionDelete)
	require.NoError(t, err)
	require.False(t, granted)

	granted, err = svc.HasGlobalPermissionAnyTenant(ctx, "nobody", role.ResourceUser, role.PermissionManage)
	require.NoError(t, err)
	require.False(t, granted)
}

func TestHasGlobalPermission(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	global, err := svc.CreateRole(ctx, role.Draft{
		Name:     "Auditor",
		TenantID: role.SystemTenant,
		IsGlobal: true,
		ACLEntries: []role.ACLEntry{{
			Resource:   role.Resource{Type: role.ResourceAudit, TenantID: role.SystemTenant},
			Permission: role.PermissionRead,
		}},
	})
	require.NoError(t, err)
	require.NoError(t, svc.AssignRoleToUser(ctx, "u1", "acme", global.ID))

	// Tenant roles are invisible to the global variant.
	grantRole(t, svc, "u1", "acme", "Editor",
		entry(role.ResourceListing, role.PermissionUpdate, "acme"))

	granted, err := svc.HasGlobalPermission(ctx, "u1", role.Query{
		ResourceType: role.ResourceAudit, Permission: role.PermissionRead,
	})
	require.NoError(t, err)
	require.True(t, granted)

	granted, err = svc.HasGlobalPermission(ctx, "u1", role.Query{
		ResourceType: role.ResourceListing, Permission: role.PermissionUpdate,
	})
	require.NoError(t, err)
	require.False(t, granted)
}

func TestDetectCrossTenantOrSiteAccess(t *testing.T) {
	entries := []role.ACLEntry{
		entry(role.ResourceListing, role.PermissionRead, "acme"),
		entry(role.ResourceListing, role.PermissionRead, role.SystemTenant),
	}

	// Own tenant and the system tenant are exempt.
	require.False(t, role.DetectCrossTenantOrSiteAccess(entries, "acme", ""))

	foreign := append(entries, entry(role.ResourceListing, role.PermissionRead, "globex"))
	require.True(t, role.DetectCrossTenantOrSiteAccess(foreign, "acme", ""))

	sited := []role.ACLEntry{{
		Resource:   role.Resource{Type: role.ResourceListing, TenantID: "acme", SiteID: "site-2"},
		Permission: role.PermissionRead,
	}}
	// Without a site context, other sites are not flagged.
	require.False(t, role.DetectCrossTenantOrSiteAccess(sited, "acme", ""))
	// With a site context, a different site is.
	require.True(t, role.DetectCrossTenantOrSiteAccess(sited, "acme", "site-1"))
	require.False(t, role.DetectCrossTenantOrSiteAccess(sited, "acme", "site-2"))
}
