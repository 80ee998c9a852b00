package role_test

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/listora/listora/internal/audit"
	"github.com/listora/listora/internal/platform/kv"
	"github.com/listora/listora/internal/role"
	_ "github.com/listora/listora/testing"
)

// captureRecorder collects audit events in memory.
type captureRecorder struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *captureRecorder) Record(ctx context.Context, event audit.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *captureRecorder) actions() []audit.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	actions := make([]audit.Action, len(r.events))
	for i, e := range r.events {
		actions[i] = e.Action
	}
	return actions
}

func newService(t *testing.T) (*role.Service, *captureRecorder) {
	t.Helper()
	svc, _, recorder := newServiceWithStore(t)
	return svc, recorder
}

func newServiceWithStore(t *testing.T) (*role.Service, kv.Store, *captureRecorder) {
	t.Helper()
	mr := miniredis.RunT(t)
	store := kv.NewRedisFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	recorder := &captureRecorder{}
	return role.NewService(store, recorder, nil), store, recorder
}

func draftWith(name, tenantID string, entries ...role.ACLEntry) role.Draft {
	return role.Draft{
		Name:        name,
		Description: "test role",
		TenantID:    tenantID,
		ACLEntries:  entries,
	}
}

func entry(t role.ResourceType, p role.Permission, tenantID string) role.ACLEntry {
	return role.ACLEntry{
		Resource:   role.Resource{Type: t, TenantID: tenantID},
		Permission: p,
	}
}

func TestCreateAndGetRole(t *testing.T) {
	svc, recorder := newService(t)
	ctx := context.Background()

	created, err := svc.CreateRole(ctx, draftWith("Editor", "acme",
		entry(role.ResourceListing, role.PermissionUpdate, "acme")))
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, "acme", created.TenantID)
	require.False(t, created.IsGlobal)
	require.False(t, created.CreatedAt.IsZero())
	require.Equal(t, created.CreatedAt, created.UpdatedAt)

	got, err := svc.GetRole(ctx, "acme", created.ID)
	require.NoError(t, err)
	require.Equal(t, created, got)

	require.Equal(t, []audit.Action{audit.ActionRoleCreated}, recorder.actions())
}

func TestCreateRoleValidation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.CreateRole(ctx, draftWith("", "acme"))
	require.ErrorIs(t, err, role.ErrInvalidDraft)

	_, err = svc.CreateRole(ctx, draftWith("Bad Entry", "acme", role.ACLEntry{
		Resource:   role.Resource{Type: "unknown", TenantID: "acme"},
		Permission: role.PermissionRead,
	}))
	require.ErrorIs(t, err, role.ErrInvalidDraft)
}

func TestCreateRoleNameTaken(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.CreateRole(ctx, draftWith("Editor", "acme"))
	require.NoError(t, err)

	// Name collisions fold case.
	_, err = svc.CreateRole(ctx, draftWith("EDITOR", "acme"))
	require.ErrorIs(t, err, role.ErrNameTaken)

	// Same name in another tenant is fine.
	_, err = svc.CreateRole(ctx, draftWith("Editor", "globex"))
	require.NoError(t, err)
}

func TestCreateGlobalRole(t *testing.T) {
	svc, recorder := newService(t)
	ctx := context.Background()

	_, err := svc.CreateRole(ctx, role.Draft{Name: "SuperAdmin", TenantID: "acme", IsGlobal: true})
	require.ErrorIs(t, err, role.ErrNotSystemTenant)

	created, err := svc.CreateRole(ctx, role.Draft{Name: "SuperAdmin", TenantID: role.SystemTenant, IsGlobal: true})
	require.NoError(t, err)
	require.True(t, created.IsGlobal)
	require.Equal(t, role.SystemTenant, created.TenantID)

	// Reachable via the system tenant and the direct global lookup.
	got, err := svc.GetRole(ctx, role.SystemTenant, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)

	got, err = svc.GetGlobalRole(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)

	// Not reachable through an arbitrary tenant.
	_, err = svc.GetRole(ctx, "acme", created.ID)
	require.ErrorIs(t, err, role.ErrNotFound)

	require.Equal(t, []audit.Action{audit.ActionGlobalRoleCreated}, recorder.actions())
}

func TestGetGlobalRoleRejectsNonGlobalRecord(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	created, err := svc.CreateRole(ctx, draftWith("Local", role.SystemTenant))
	require.NoError(t, err)

	// A tenant role of the system tenant never answers the global lookup.
	_, err = svc.GetGlobalRole(ctx, created.ID)
	require.ErrorIs(t, err, role.ErrNotFound)
}

func TestUpdateRole(t *testing.T) {
	svc, recorder := newService(t)
	ctx := context.Background()

	created, err := svc.CreateRole(ctx, draftWith("Editor", "acme"))
	require.NoError(t, err)

	newName := "Senior Editor"
	newDesc := "expanded scope"
	entries := []role.ACLEntry{entry(role.ResourceListing, role.PermissionManage, "acme")}
	updated, err := svc.UpdateRole(ctx, "acme", created.ID, role.Update{
		Name:        &newName,
		Description: &newDesc,
		ACLEntries:  entries,
	})
	require.NoError(t, err)
	require.Equal(t, newName, updated.Name)
	require.Equal(t, newDesc, updated.Description)
	require.Equal(t, entries, updated.ACLEntries)
	require.Equal(t, created.ID, updated.ID)
	require.Equal(t, created.CreatedAt, updated.CreatedAt)
	require.True(t, updated.UpdatedAt.After(created.UpdatedAt) || updated.UpdatedAt.Equal(created.UpdatedAt))

	// The old name is free again, the new one is taken.
	_, err = svc.CreateRole(ctx, draftWith("Editor", "acme"))
	require.NoError(t, err)
	_, err = svc.CreateRole(ctx, draftWith("senior editor", "acme"))
	require.ErrorIs(t, err, role.ErrNameTaken)

	require.Contains(t, recorder.actions(), audit.ActionRoleUpdated)
}

func TestUpdateRoleGlobalFlagImmutable(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	created, err := svc.CreateRole(ctx, draftWith("Editor", "acme"))
	require.NoError(t, err)

	flip := true
	_, err = svc.UpdateRole(ctx, "acme", created.ID, role.Update{IsGlobal: &flip})
	require.ErrorIs(t, err, role.ErrGlobalFlagImmutable)

	// Stored role is untouched.
	got, err := svc.GetRole(ctx, "acme", created.ID)
	require.NoError(t, err)
	require.Equal(t, created, got)

	// Restating the current value is allowed.
	keep := false
	_, err = svc.UpdateRole(ctx, "acme", created.ID, role.Update{IsGlobal: &keep})
	require.NoError(t, err)
}

func TestUpdateRoleNotFound(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.UpdateRole(context.Background(), "acme", "missing", role.Update{})
	require.ErrorIs(t, err, role.ErrNotFound)
}

func TestRolesByTenant(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	a, err := svc.CreateRole(ctx, draftWith("Editor", "acme"))
	require.NoError(t, err)
	b, err := svc.CreateRole(ctx, draftWith("Viewer", "acme"))
	require.NoError(t, err)
	_, err = svc.CreateRole(ctx, draftWith("Other", "globex"))
	require.NoError(t, err)
	g, err := svc.CreateRole(ctx, role.Draft{Name: "SuperAdmin", TenantID: role.SystemTenant, IsGlobal: true})
	require.NoError(t, err)

	roles, err := svc.RolesByTenant(ctx, "acme", true)
	require.NoError(t, err)
	ids := roleIDs(roles)
	require.ElementsMatch(t, []string{a.ID, b.ID, g.ID}, ids)

	roles, err = svc.RolesByTenant(ctx, "acme", false)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{a.ID, b.ID}, roleIDs(roles))
}

func TestGlobalRoles(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	g1, err := svc.CreateRole(ctx, role.Draft{Name: "SuperAdmin", TenantID: role.SystemTenant, IsGlobal: true})
	require.NoError(t, err)
	g2, err := svc.CreateRole(ctx, role.Draft{Name: "Support", TenantID: role.SystemTenant, IsGlobal: true})
	require.NoError(t, err)
	_, err = svc.CreateRole(ctx, draftWith("Local", "acme"))
	require.NoError(t, err)

	roles, err := svc.GlobalRoles(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{g1.ID, g2.ID}, roleIDs(roles))
}

func TestDeleteTenantRoleStripsHolders(t *testing.T) {
	svc, recorder := newService(t)
	ctx := context.Background()

	created, err := svc.CreateRole(ctx, draftWith("Editor", "acme"))
	require.NoError(t, err)
	other, err := svc.CreateRole(ctx, draftWith("Viewer", "acme"))
	require.NoError(t, err)

	require.NoError(t, svc.AssignRoleToUser(ctx, "u1", "acme", created.ID))
	require.NoError(t, svc.AssignRoleToUser(ctx, "u2", "acme", created.ID))
	require.NoError(t, svc.AssignRoleToUser(ctx, "u2", "acme", other.ID))

	require.NoError(t, svc.DeleteRole(ctx, "acme", created.ID))

	_, err = svc.GetRole(ctx, "acme", created.ID)
	require.ErrorIs(t, err, role.ErrNotFound)

	for _, user := range []string{"u1", "u2"} {
		held, err := svc.HasSpecificRole(ctx, user, "acme", created.ID)
		require.NoError(t, err)
		require.False(t, held, "user %s should no longer hold the role", user)
	}

	// u1 lost the last role and leaves the tenant index; u2 stays.
	has, err := svc.HasRoleInTenant(ctx, "u1", "acme")
	require.NoError(t, err)
	require.False(t, has)
	has, err = svc.HasRoleInTenant(ctx, "u2", "acme")
	require.NoError(t, err)
	require.True(t, has)

	// The name is reusable after deletion.
	_, err = svc.CreateRole(ctx, draftWith("Editor", "acme"))
	require.NoError(t, err)

	require.Contains(t, recorder.actions(), audit.ActionRoleDeleted)
}

func TestDeleteGlobalRoleStripsAllTenants(t *testing.T) {
	svc, recorder := newService(t)
	ctx := context.Background()

	global, err := svc.CreateRole(ctx, role.Draft{Name: "SuperAdmin", TenantID: role.SystemTenant, IsGlobal: true})
	require.NoError(t, err)

	require.NoError(t, svc.AssignRoleToUser(ctx, "u1", "acme", global.ID))
	require.NoError(t, svc.AssignRoleToUser(ctx, "u1", "globex", global.ID))
	require.NoError(t, svc.AssignRoleToUser(ctx, "u2", "acme", global.ID))

	require.NoError(t, svc.DeleteRole(ctx, role.SystemTenant, global.ID))

	for _, tc := range []struct{ user, tenant string }{
		{"u1", "acme"}, {"u1", "globex"}, {"u2", "acme"},
	} {
		held, err := svc.HasSpecificRole(ctx, tc.user, tc.tenant, global.ID)
		require.NoError(t, err)
		require.False(t, held, "user %s tenant %s", tc.user, tc.tenant)
	}

	for _, user := range []string{"u1", "u2"} {
		has, err := svc.HasGlobalRole(ctx, user)
		require.NoError(t, err)
		require.False(t, has)
	}

	roles, err := svc.GlobalRoles(ctx)
	require.NoError(t, err)
	require.Empty(t, roles)

	actions := recorder.actions()
	require.Contains(t, actions, audit.ActionGlobalRoleRemovedFromUser)
	require.Contains(t, actions, audit.ActionGlobalRoleDeleted)
}

func roleIDs(roles []*role.Role) []string {
	ids := make([]string, len(roles))
	for i, r := range roles {
		ids[i] = r.ID
	}
	return ids
}
