package role

import "context"

// Wildcard is the sentinel AccessibleResources returns when a matching ACL
// entry grants the permission on every resource of the type. Callers must
// check for it before treating the result as an enumerable id set.
const Wildcard = "*"

// Query describes a permission check. ResourceID and SiteID are optional;
// empty means the check is not scoped to a specific resource or site.
type Query struct {
	ResourceType ResourceType
	Permission   Permission
	ResourceID   string
	SiteID       string
}

// idMatches applies the wildcard rule: an entry without a resource id
// matches any requested id.
func idMatches(entry ACLEntry, resourceID string) bool {
	if resourceID == "" || entry.Resource.ID == "" {
		return true
	}
	return entry.Resource.ID == resourceID
}

// HasPermission reports whether any of the user's roles in the tenant
// (tenant-local and global alike, as surfaced by UserRoles) grants the
// queried permission. Matching runs in three passes so wildcard semantics
// hold for both generic and site-scoped queries: exact generic match,
// tenant-wide match, then site-specific match only when a site was given.
func (s *Service) HasPermission(ctx context.Context, userID, tenantID string, q Query) (bool, error) {
	roles, err := s.UserRoles(ctx, userID, tenantID)
	if err != nil {
		return false, err
	}
	return anyEntryMatches(roles, q), nil
}

func anyEntryMatches(roles []*Role, q Query) bool {
	for _, r := range roles {
		for _, entry := range r.ACLEntries {
			if entry.Resource.Type != q.ResourceType || entry.Permission != q.Permission {
				continue
			}
			if !idMatches(entry, q.ResourceID) {
				continue
			}
			// Pass 1: exact generic match, no site scoping on either side.
			if entry.Resource.SiteID == "" && q.SiteID == "" {
				return true
			}
			// Pass 2: tenant-wide entry covers any site-scoped query.
			if entry.Resource.SiteID == "" {
				return true
			}
			// Pass 3: site-specific, only when the query names a site.
			if q.SiteID != "" && entry.Resource.SiteID == q.SiteID {
				return true
			}
		}
	}
	return false
}

// AccessibleResources enumerates the resource ids the user can reach with
// the given permission. If any matching entry carries no resource id the
// single-element Wildcard list is returned: access is unbounded for that
// type and permission. Otherwise the specific ids are deduplicated in
// first-seen order, optionally filtered to the given site.
func (s *Service) AccessibleResources(ctx context.Context, userID, tenantID string, resourceType ResourceType, permission Permission, siteID string) ([]string, error) {
	roles, err := s.UserRoles(ctx, userID, tenantID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	ids := []string{}
	for _, r := range roles {
		for _, entry := range r.ACLEntries {
			if entry.Resource.Type != resourceType || entry.Permission != permission {
				continue
			}
			if entry.Resource.SiteID != "" && siteID != "" && entry.Resource.SiteID != siteID {
				continue
			}
			if entry.Resource.ID == "" {
				return []string{Wildcard}, nil
			}
			if _, dup := seen[entry.Resource.ID]; dup {
				continue
			}
			seen[entry.Resource.ID] = struct{}{}
			ids = append(ids, entry.Resource.ID)
		}
	}
	return ids, nil
}

// HasGlobalPermission is HasPermission restricted to the user's global
// roles.
func (s *Service) HasGlobalPermission(ctx context.Context, userID string, q Query) (bool, error) {
	roles, err := s.UserGlobalRoles(ctx, userID)
	if err != nil {
		return false, err
	}
	return anyEntryMatches(roles, q), nil
}

// HasGlobalRole reports membership in the global-role-users index.
func (s *Service) HasGlobalRole(ctx context.Context, userID string) (bool, error) {
	return s.store.SIsMember(ctx, globalRoleUsersKey, userID)
}

// HasGlobalPermissionAnyTenant ignores tenant and site scoping entirely:
// it matches purely on resource type and permission across every ACL entry
// of every global role the user holds.
func (s *Service) HasGlobalPermissionAnyTenant(ctx context.Context, userID string, resourceType ResourceType, permission Permission) (bool, error) {
	roles, err := s.UserGlobalRoles(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, r := range roles {
		for _, entry := range r.ACLEntries {
			if entry.Resource.Type == resourceType && entry.Permission == permission {
				return true, nil
			}
		}
	}
	return false, nil
}

// DetectCrossTenantOrSiteAccess reports whether the entries reference any
// tenant other than the given one (the system tenant is exempt) or, when a
// site context is given, any other site. A defensive check against
// misconfigured ACLs leaking across tenant boundaries.
func DetectCrossTenantOrSiteAccess(entries []ACLEntry, tenantID, siteID string) bool {
	tenants := make(map[string]struct{})
	sites := make(map[string]struct{})
	for _, entry := range entries {
		if entry.Resource.TenantID != "" {
			tenants[entry.Resource.TenantID] = struct{}{}
		}
		if entry.Resource.SiteID != "" {
			sites[entry.Resource.SiteID] = struct{}{}
		}
	}
	delete(tenants, tenantID)
	delete(tenants, SystemTenant)
	if len(tenants) > 0 {
		return true
	}
	if siteID != "" {
		delete(sites, siteID)
		return len(sites) > 0
	}
	return false
}
