package role

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/listora/listora/internal/audit"
	"github.com/listora/listora/internal/platform/kv"
)

// CreateRole validates the draft, generates an id, stamps timestamps and
// persists the role together with its name-index entry. Global drafts must
// name the system tenant.
func (s *Service) CreateRole(ctx context.Context, draft Draft) (*Role, error) {
	if err := validateDraft(draft); err != nil {
		return nil, err
	}
	if draft.IsGlobal && draft.TenantID != SystemTenant {
		return nil, ErrNotSystemTenant
	}

	nameKey := roleNameKey(draft.TenantID, draft.Name)
	if _, err := s.store.Get(ctx, nameKey); err == nil {
		return nil, ErrNameTaken
	} else if !errors.Is(err, kv.ErrNotFound) {
		return nil, err
	}

	now := s.now().UTC()
	r := &Role{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(draft.Name),
		Description: strings.TrimSpace(draft.Description),
		TenantID:    draft.TenantID,
		IsGlobal:    draft.IsGlobal,
		ACLEntries:  draft.ACLEntries,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.persistRole(ctx, r); err != nil {
		return nil, err
	}
	if r.IsGlobal {
		if err := s.store.SAdd(ctx, globalRolesKey, r.ID); err != nil {
			return nil, err
		}
	}
	if err := s.store.Set(ctx, nameKey, r.ID); err != nil {
		return nil, err
	}

	action := audit.ActionRoleCreated
	if r.IsGlobal {
		action = audit.ActionGlobalRoleCreated
	}
	s.record(ctx, audit.Event{
		Action:       action,
		ResourceType: string(ResourceRole),
		ResourceID:   r.ID,
		TenantID:     r.TenantID,
		Details:      map[string]string{"name": r.Name},
	})
	return r, nil
}

// GetRole fetches a role by tenant and id. When the tenant key misses and
// tenantID is the system tenant, the global record is tried. A global role
// is therefore always reachable through the system tenant but never through
// an arbitrary tenant, even one whose users hold it.
func (s *Service) GetRole(ctx context.Context, tenantID, roleID string) (*Role, error) {
	r, err := s.loadRole(ctx, roleKey(tenantID, roleID))
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if tenantID != SystemTenant {
		return nil, ErrNotFound
	}
	return s.GetGlobalRole(ctx, roleID)
}

// GetGlobalRole fetches a global role by id. A stored record whose IsGlobal
// flag is false is treated as missing; that state only arises from data
// corruption and must not widen a tenant role's reach.
func (s *Service) GetGlobalRole(ctx context.Context, roleID string) (*Role, error) {
	r, err := s.loadRole(ctx, globalRoleKey(roleID))
	if err != nil {
		return nil, err
	}
	if !r.IsGlobal {
		return nil, ErrNotFound
	}
	return r, nil
}

// UpdateRole applies a partial update. ID, TenantID, IsGlobal and CreatedAt
// are immutable; an attempt to flip IsGlobal fails with
// ErrGlobalFlagImmutable rather than being conflated with a missing role.
func (s *Service) UpdateRole(ctx context.Context, tenantID, roleID string, upd Update) (*Role, error) {
	current, err := s.GetRole(ctx, tenantID, roleID)
	if err != nil {
		return nil, err
	}
	if upd.IsGlobal != nil && *upd.IsGlobal != current.IsGlobal {
		return nil, ErrGlobalFlagImmutable
	}

	oldNameKey := roleNameKey(current.TenantID, current.Name)
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name required", ErrInvalidDraft)
		}
		if nameSlug(name) != nameSlug(current.Name) {
			newNameKey := roleNameKey(current.TenantID, name)
			if _, err := s.store.Get(ctx, newNameKey); err == nil {
				return nil, ErrNameTaken
			} else if !errors.Is(err, kv.ErrNotFound) {
				return nil, err
			}
			if err := s.store.Del(ctx, oldNameKey); err != nil {
				return nil, err
			}
			if err := s.store.Set(ctx, newNameKey, current.ID); err != nil {
				return nil, err
			}
		}
		current.Name = name
	}
	if upd.Description != nil {
		current.Description = strings.TrimSpace(*upd.Description)
	}
	if upd.ACLEntries != nil {
		if err := validateEntries(upd.ACLEntries); err != nil {
			return nil, err
		}
		current.ACLEntries = upd.ACLEntries
	}
	current.UpdatedAt = s.now().UTC()

	if err := s.persistRole(ctx, current); err != nil {
		return nil, err
	}

	action := audit.ActionRoleUpdated
	if current.IsGlobal {
		action = audit.ActionGlobalRoleUpdated
	}
	s.record(ctx, audit.Event{
		Action:       action,
		ResourceType: string(ResourceRole),
		ResourceID:   current.ID,
		TenantID:     current.TenantID,
		Details:      map[string]string{"name": current.Name},
	})
	return current, nil
}

// DeleteRole strips the role from every holder, then removes the record and
// its indexes. Global roles are stripped across all tenants; tenant roles
// only from the owning tenant's user set. Users left without any role in a
// tenant are evicted from that tenant's user index.
func (s *Service) DeleteRole(ctx context.Context, tenantID, roleID string) error {
	r, err := s.GetRole(ctx, tenantID, roleID)
	if err != nil {
		return err
	}

	if r.IsGlobal {
		if err := s.stripGlobalRole(ctx, r); err != nil {
			return err
		}
		if err := s.store.SRem(ctx, globalRolesKey, r.ID); err != nil {
			return err
		}
	} else {
		if err := s.stripTenantRole(ctx, r); err != nil {
			return err
		}
	}

	if err := s.store.Del(ctx, roleNameKey(r.TenantID, r.Name)); err != nil {
		return err
	}
	recordKey := roleKey(r.TenantID, r.ID)
	if r.IsGlobal {
		recordKey = globalRoleKey(r.ID)
	}
	if err := s.store.Del(ctx, recordKey); err != nil {
		return err
	}

	action := audit.ActionRoleDeleted
	if r.IsGlobal {
		action = audit.ActionGlobalRoleDeleted
	}
	s.record(ctx, audit.Event{
		Action:       action,
		ResourceType: string(ResourceRole),
		ResourceID:   r.ID,
		TenantID:     r.TenantID,
		Details:      map[string]string{"name": r.Name},
	})
	return nil
}

// stripGlobalRole removes a global role from every user in every tenant,
// pruning tenant user indexes and the global-role-users index as holders
// drop to zero.
func (s *Service) stripGlobalRole(ctx context.Context, r *Role) error {
	keys, err := s.store.Scan(ctx, allUserRolesPattern())
	if err != nil {
		return err
	}
	for _, key := range keys {
		held, err := s.store.SIsMember(ctx, key, r.ID)
		if err != nil {
			return err
		}
		if !held {
			continue
		}
		userID := userFromUserRolesKey(key)
		tenant := tenantFromUserRolesKey(key)
		if userID == "" || tenant == "" {
			s.logger.Warn("skip malformed user-roles key", slog.String("key", key))
			continue
		}
		if err := s.store.SRem(ctx, key, r.ID); err != nil {
			return err
		}
		if err := s.pruneUserIndexes(ctx, userID, tenant, key); err != nil {
			return err
		}
		s.record(ctx, audit.Event{
			Action:       audit.ActionGlobalRoleRemovedFromUser,
			ResourceType: string(ResourceRole),
			ResourceID:   r.ID,
			UserID:       userID,
			TenantID:     tenant,
		})
	}
	return nil
}

// stripTenantRole removes a tenant role from every member of the tenant's
// user index, evicting users whose last role it was.
func (s *Service) stripTenantRole(ctx context.Context, r *Role) error {
	users, err := s.store.SMembers(ctx, tenantUsersKey(r.TenantID))
	if err != nil {
		return err
	}
	for _, userID := range users {
		key := userRolesKey(userID, r.TenantID)
		held, err := s.store.SIsMember(ctx, key, r.ID)
		if err != nil {
			return err
		}
		if !held {
			continue
		}
		if err := s.store.SRem(ctx, key, r.ID); err != nil {
			return err
		}
		if err := s.pruneUserIndexes(ctx, userID, r.TenantID, key); err != nil {
			return err
		}
		s.record(ctx, audit.Event{
			Action:       audit.ActionRoleRemoved,
			ResourceType: string(ResourceRole),
			ResourceID:   r.ID,
			UserID:       userID,
			TenantID:     r.TenantID,
		})
	}
	return nil
}

// GlobalRoles enumerates the global-roles index and resolves each id.
// Unresolvable ids are skipped, not surfaced.
func (s *Service) GlobalRoles(ctx context.Context) ([]*Role, error) {
	ids, err := s.store.SMembers(ctx, globalRolesKey)
	if err != nil {
		return nil, err
	}
	roles := make([]*Role, 0, len(ids))
	for _, id := range ids {
		r, err := s.GetGlobalRole(ctx, id)
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

// RolesByTenant scans the tenant's role records, skipping name-index keys,
// and optionally appends every global role. Tenant and global roles come
// back as one list; callers check IsGlobal when the distinction matters.
func (s *Service) RolesByTenant(ctx context.Context, tenantID string, includeGlobal bool) ([]*Role, error) {
	keys, err := s.store.Scan(ctx, tenantRolesPattern(tenantID))
	if err != nil {
		return nil, err
	}
	var roles []*Role
	for _, key := range keys {
		if isNameIndexKey(key) {
			continue
		}
		r, err := s.loadRole(ctx, key)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		roles = append(roles, r)
	}
	if includeGlobal {
		global, err := s.GlobalRoles(ctx)
		if err != nil {
			return nil, err
		}
		roles = append(roles, global...)
	}
	return roles, nil
}

func validateDraft(draft Draft) error {
	if strings.TrimSpace(draft.Name) == "" {
		return fmt.Errorf("%w: name required", ErrInvalidDraft)
	}
	if strings.TrimSpace(draft.TenantID) == "" {
		return fmt.Errorf("%w: tenant id required", ErrInvalidDraft)
	}
	return validateEntries(draft.ACLEntries)
}

func validateEntries(entries []ACLEntry) error {
	for _, entry := range entries {
		if !entry.Resource.Type.Valid() {
			return fmt.Errorf("%w: unknown resource type %q", ErrInvalidDraft, entry.Resource.Type)
		}
		if !entry.Permission.Valid() {
			return fmt.Errorf("%w: unknown permission %q", ErrInvalidDraft, entry.Permission)
		}
	}
	return nil
}
