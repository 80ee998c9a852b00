package role

import (
	"context"
	"errors"

	"github.com/listora/listora/internal/audit"
)

// AssignRoleToUser grants a role to a user within a tenant. The role is
// resolved tenant-local first, then global. Global grants also register the
// user in the cross-tenant global-role-users index.
func (s *Service) AssignRoleToUser(ctx context.Context, userID, tenantID, roleID string) error {
	r, err := s.resolveRole(ctx, tenantID, roleID)
	if err != nil {
		return err
	}

	if r.IsGlobal {
		if err := s.store.SAdd(ctx, globalRoleUsersKey, userID); err != nil {
			return err
		}
	}
	if err := s.store.SAdd(ctx, userRolesKey(userID, tenantID), r.ID); err != nil {
		return err
	}
	if err := s.store.SAdd(ctx, tenantUsersKey(tenantID), userID); err != nil {
		return err
	}

	action := audit.ActionRoleAssigned
	if r.IsGlobal {
		action = audit.ActionGlobalRoleAssigned
	}
	s.record(ctx, audit.Event{
		Action:       action,
		ResourceType: string(ResourceRole),
		ResourceID:   r.ID,
		UserID:       userID,
		TenantID:     tenantID,
	})
	return nil
}

// RemoveRoleFromUser revokes a role from a user within a tenant. Removing a
// role the user does not hold is a no-op. For global roles the user stays in
// the global-role-users index as long as any global role is held in any
// tenant. A user left without roles in the tenant is evicted from the
// tenant's user index; both removal paths prune the same way.
func (s *Service) RemoveRoleFromUser(ctx context.Context, userID, tenantID, roleID string) error {
	global, err := s.GetGlobalRole(ctx, roleID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	isGlobal := err == nil && global != nil

	setKey := userRolesKey(userID, tenantID)
	if err := s.store.SRem(ctx, setKey, roleID); err != nil {
		return err
	}
	if err := s.pruneUserIndexes(ctx, userID, tenantID, setKey); err != nil {
		return err
	}

	action := audit.ActionRoleRemoved
	if isGlobal {
		action = audit.ActionGlobalRoleRemoved
	}
	s.record(ctx, audit.Event{
		Action:       action,
		ResourceType: string(ResourceRole),
		ResourceID:   roleID,
		UserID:       userID,
		TenantID:     tenantID,
	})
	return nil
}

// pruneUserIndexes re-establishes the index invariants for a user after a
// role was removed from setKey: the user leaves the tenant's user index when
// the per-tenant role set is empty, and leaves the global-role-users index
// when no remaining role in any tenant is global.
func (s *Service) pruneUserIndexes(ctx context.Context, userID, tenantID, setKey string) error {
	remaining, err := s.store.SMembers(ctx, setKey)
	if err != nil {
		return err
	}
	if len(remaining) == 0 {
		if err := s.store.SRem(ctx, tenantUsersKey(tenantID), userID); err != nil {
			return err
		}
	}

	inGlobalIndex, err := s.store.SIsMember(ctx, globalRoleUsersKey, userID)
	if err != nil {
		return err
	}
	if !inGlobalIndex {
		return nil
	}
	holdsGlobal, err := s.holdsAnyGlobalRole(ctx, userID)
	if err != nil {
		return err
	}
	if !holdsGlobal {
		return s.store.SRem(ctx, globalRoleUsersKey, userID)
	}
	return nil
}

// holdsAnyGlobalRole scans the user's per-tenant role sets across all
// tenants and reports whether any held role resolves as global.
func (s *Service) holdsAnyGlobalRole(ctx context.Context, userID string) (bool, error) {
	keys, err := s.store.Scan(ctx, userRolesPattern(userID))
	if err != nil {
		return false, err
	}
	seen := make(map[string]struct{})
	for _, key := range keys {
		ids, err := s.store.SMembers(ctx, key)
		if err != nil {
			return false, err
		}
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			if _, err := s.GetGlobalRole(ctx, id); err == nil {
				return true, nil
			} else if !errors.Is(err, ErrNotFound) {
				return false, err
			}
		}
	}
	return false, nil
}

// UserRoles resolves the user's role set in a tenant to full role objects.
// Each id is resolved tenant-local first, then global; stale ids that no
// longer resolve are skipped.
func (s *Service) UserRoles(ctx context.Context, userID, tenantID string) ([]*Role, error) {
	ids, err := s.store.SMembers(ctx, userRolesKey(userID, tenantID))
	if err != nil {
		return nil, err
	}
	roles := make([]*Role, 0, len(ids))
	for _, id := range ids {
		r, err := s.resolveRole(ctx, tenantID, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		roles = append(roles, r)
	}
	return roles, nil
}

// HasRoleInTenant reports whether the user holds at least one role in the
// tenant. Callers treat an error as "no".
func (s *Service) HasRoleInTenant(ctx context.Context, userID, tenantID string) (bool, error) {
	ids, err := s.store.SMembers(ctx, userRolesKey(userID, tenantID))
	if err != nil {
		return false, err
	}
	return len(ids) > 0, nil
}

// HasSpecificRole reports whether the user holds the given role id in the
// tenant. Callers treat an error as "no".
func (s *Service) HasSpecificRole(ctx context.Context, userID, tenantID, roleID string) (bool, error) {
	return s.store.SIsMember(ctx, userRolesKey(userID, tenantID), roleID)
}

// UserGlobalRoles collects the global roles a user holds across every
// tenant, deduplicated. The global-role-users index gates the cross-tenant
// scan; users outside it return an empty list without scanning.
func (s *Service) UserGlobalRoles(ctx context.Context, userID string) ([]*Role, error) {
	member, err := s.store.SIsMember(ctx, globalRoleUsersKey, userID)
	if err != nil {
		return nil, err
	}
	if !member {
		return []*Role{}, nil
	}

	keys, err := s.store.Scan(ctx, userRolesPattern(userID))
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var roles []*Role
	for _, key := range keys {
		ids, err := s.store.SMembers(ctx, key)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			r, err := s.GetGlobalRole(ctx, id)
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					continue
				}
				return nil, err
			}
			roles = append(roles, r)
		}
	}
	return roles, nil
}
