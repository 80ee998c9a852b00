package role_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/listora/listora/internal/audit"
	"github.com/listora/listora/internal/role"
)

func TestAssignAndRemoveTenantRole(t *testing.T) {
	svc, recorder := newService(t)
	ctx := context.Background()

	created, err := svc.CreateRole(ctx, draftWith("Editor", "acme"))
	require.NoError(t, err)

	require.NoError(t, svc.AssignRoleToUser(ctx, "u1", "acme", created.ID))

	roles, err := svc.UserRoles(ctx, "u1", "acme")
	require.NoError(t, err)
	require.Len(t, roles, 1)
	require.Equal(t, created.ID, roles[0].ID)

	held, err := svc.HasSpecificRole(ctx, "u1", "acme", created.ID)
	require.NoError(t, err)
	require.True(t, held)

	has, err := svc.HasRoleInTenant(ctx, "u1", "acme")
	require.NoError(t, err)
	require.True(t, has)

	require.NoError(t, svc.RemoveRoleFromUser(ctx, "u1", "acme", created.ID))

	roles, err = svc.UserRoles(ctx, "u1", "acme")
	require.NoError(t, err)
	require.Empty(t, roles)

	// The last role is gone, so the user leaves the tenant index.
	has, err = svc.HasRoleInTenant(ctx, "u1", "acme")
	require.NoError(t, err)
	require.False(t, has)

	require.Equal(t, []audit.Action{
		audit.ActionRoleCreated,
		audit.ActionRoleAssigned,
		audit.ActionRoleRemoved,
	}, recorder.actions())
}

func TestAssignUnknownRole(t *testing.T) {
	svc, _ := newService(t)
	err := svc.AssignRoleToUser(context.Background(), "u1", "acme", "missing")
	require.ErrorIs(t, err, role.ErrNotFound)
}

func TestGlobalRoleMembershipAcrossTenants(t *testing.T) {
	svc, recorder := newService(t)
	ctx := context.Background()

	global, err := svc.CreateRole(ctx, role.Draft{Name: "SuperAdmin", TenantID: role.SystemTenant, IsGlobal: true})
	require.NoError(t, err)

	require.NoError(t, svc.AssignRoleToUser(ctx, "u1", "t1", global.ID))
	require.NoError(t, svc.AssignRoleToUser(ctx, "u1", "t2", global.ID))

	has, err := svc.HasGlobalRole(ctx, "u1")
	require.NoError(t, err)
	require.True(t, has)

	// Removing in t1 leaves the global index intact: the role is still held in t2.
	require.NoError(t, svc.RemoveRoleFromUser(ctx, "u1", "t1", global.ID))
	has, err = svc.HasGlobalRole(ctx, "u1")
	require.NoError(t, err)
	require.True(t, has)

	// Removing the last holder tenant flips it.
	require.NoError(t, svc.RemoveRoleFromUser(ctx, "u1", "t2", global.ID))
	has, err = svc.HasGlobalRole(ctx, "u1")
	require.NoError(t, err)
	require.False(t, has)

	actions := recorder.actions()
	require.Contains(t, actions, audit.ActionGlobalRoleAssigned)
	require.Contains(t, actions, audit.ActionGlobalRoleRemoved)
}

func TestGlobalIndexSurvivesOtherGlobalRole(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	g1, err := svc.CreateRole(ctx, role.Draft{Name: "SuperAdmin", TenantID: role.SystemTenant, IsGlobal: true})
	require.NoError(t, err)
	g2, err := svc.CreateRole(ctx, role.Draft{Name: "Support", TenantID: role.SystemTenant, IsGlobal: true})
	require.NoError(t, err)

	require.NoError(t, svc.AssignRoleToUser(ctx, "u1", "acme", g1.ID))
	require.NoError(t, svc.AssignRoleToUser(ctx, "u1", "acme", g2.ID))

	// Dropping one global role keeps the user in the index while the other remains.
	require.NoError(t, svc.RemoveRoleFromUser(ctx, "u1", "acme", g1.ID))
	has, err := svc.HasGlobalRole(ctx, "u1")
	require.NoError(t, err)
	require.True(t, has)

	require.NoError(t, svc.RemoveRoleFromUser(ctx, "u1", "acme", g2.ID))
	has, err = svc.HasGlobalRole(ctx, "u1")
	require.NoError(t, err)
	require.False(t, has)
}

func TestUserRolesSkipsStaleIDs(t *testing.T) {
	svc, store, _ := newServiceWithStore(t)
	ctx := context.Background()

	b, err := svc.CreateRole(ctx, draftWith("Viewer", "acme"))
	require.NoError(t, err)
	require.NoError(t, svc.AssignRoleToUser(ctx, "u1", "acme", b.ID))

	// A dangling id in the set must not surface or fail the resolution.
	require.NoError(t, store.SAdd(ctx, "user:roles:u1:acme", "gone"))

	roles, err := svc.UserRoles(ctx, "u1", "acme")
	require.NoError(t, err)
	require.Equal(t, []string{b.ID}, roleIDs(roles))
}

func TestUserGlobalRoles(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	global, err := svc.CreateRole(ctx, role.Draft{Name: "SuperAdmin", TenantID: role.SystemTenant, IsGlobal: true})
	require.NoError(t, err)
	local, err := svc.CreateRole(ctx, draftWith("Editor", "acme"))
	require.NoError(t, err)

	require.NoError(t, svc.AssignRoleToUser(ctx, "u1", "acme", local.ID))
	require.NoError(t, svc.AssignRoleToUser(ctx, "u1", "acme", global.ID))
	require.NoError(t, svc.AssignRoleToUser(ctx, "u1", "globex", global.ID))

	roles, err := svc.UserGlobalRoles(ctx, "u1")
	require.NoError(t, err)
	// Deduplicated across tenants; the tenant role does not appear.
	require.Equal(t, []string{global.ID}, roleIDs(roles))

	// A user outside the index resolves to an empty list without scanning.
	roles, err = svc.UserGlobalRoles(ctx, "nobody")
	require.NoError(t, err)
	require.Empty(t, roles)
}

func TestRemoveRoleNotHeldIsNoOp(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	created, err := svc.CreateRole(ctx, draftWith("Editor", "acme"))
	require.NoError(t, err)

	require.NoError(t, svc.RemoveRoleFromUser(ctx, "u1", "acme", created.ID))
	has, err := svc.HasRoleInTenant(ctx, "u1", "acme")
	require.NoError(t, err)
	require.False(t, has)
}
