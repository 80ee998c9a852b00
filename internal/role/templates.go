package role

import (
	"context"
	"errors"
	"strings"

	"github.com/listora/listora/internal/platform/kv"
)

// Template placeholders, substituted at instantiation time.
const (
	placeholderTenantID = "{tenantId}"
	placeholderSiteID   = "{siteId}"
)

// Template is one predefined role archetype. Site-scoped templates require
// a site id at instantiation.
type Template struct {
	Name        string
	Description string
	SiteScoped  bool
	Entries     []ACLEntry
}

func tenantEntry(t ResourceType, perms ...Permission) []ACLEntry {
	entries := make([]ACLEntry, 0, len(perms))
	for _, p := range perms {
		entries = append(entries, ACLEntry{
			Resource:   Resource{Type: t, TenantID: placeholderTenantID},
			Permission: p,
		})
	}
	return entries
}

func siteEntry(t ResourceType, perms ...Permission) []ACLEntry {
	entries := make([]ACLEntry, 0, len(perms))
	for _, p := range perms {
		entries = append(entries, ACLEntry{
			Resource:   Resource{Type: t, TenantID: placeholderTenantID, SiteID: placeholderSiteID},
			Permission: p,
		})
	}
	return entries
}

// siteSelfEntry scopes a permission to the site object itself.
func siteSelfEntry(perms ...Permission) []ACLEntry {
	entries := make([]ACLEntry, 0, len(perms))
	for _, p := range perms {
		entries = append(entries, ACLEntry{
			Resource:   Resource{Type: ResourceSite, ID: placeholderSiteID, TenantID: placeholderTenantID},
			Permission: p,
		})
	}
	return entries
}

func concat(groups ...[]ACLEntry) []ACLEntry {
	var entries []ACLEntry
	for _, g := range groups {
		entries = append(entries, g...)
	}
	return entries
}

var allPermissions = []Permission{
	PermissionCreate, PermissionRead, PermissionUpdate, PermissionDelete, PermissionManage,
}

// predefined is the static catalog of role archetypes: tenant-wide and
// site-scoped variants of Admin, Editor, Author and Viewer.
var predefined = map[string]Template{
	"Tenant Admin": {
		Name:        "Tenant Admin",
		Description: "Full control over every resource in the tenant.",
		Entries: concat(
			tenantEntry(ResourceUser, allPermissions...),
			tenantEntry(ResourceSite, allPermissions...),
			tenantEntry(ResourceCategory, allPermissions...),
			tenantEntry(ResourceListing, allPermissions...),
			tenantEntry(ResourceSetting, allPermissions...),
			tenantEntry(ResourceRole, allPermissions...),
			tenantEntry(ResourceAudit, PermissionRead),
			tenantEntry(ResourceTenant, PermissionRead, PermissionUpdate),
		),
	},
	"Tenant Editor": {
		Name:        "Tenant Editor",
		Description: "Manages listings and categories across the tenant.",
		Entries: concat(
			tenantEntry(ResourceListing, PermissionCreate, PermissionRead, PermissionUpdate, PermissionDelete),
			tenantEntry(ResourceCategory, PermissionCreate, PermissionRead, PermissionUpdate, PermissionDelete),
			tenantEntry(ResourceSite, PermissionRead, PermissionUpdate),
			tenantEntry(ResourceSetting, PermissionRead),
			tenantEntry(ResourceUser, PermissionRead),
		),
	},
	"Tenant Author": {
		Name:        "Tenant Author",
		Description: "Creates and edits listings across the tenant.",
		Entries: concat(
			tenantEntry(ResourceListing, PermissionCreate, PermissionRead, PermissionUpdate),
			tenantEntry(ResourceCategory, PermissionRead),
			tenantEntry(ResourceSite, PermissionRead),
		),
	},
	"Tenant Viewer": {
		Name:        "Tenant Viewer",
		Description: "Read-only access across the tenant.",
		Entries: concat(
			tenantEntry(ResourceListing, PermissionRead),
			tenantEntry(ResourceCategory, PermissionRead),
			tenantEntry(ResourceSite, PermissionRead),
		),
	},
	"Site Admin": {
		Name:        "Site Admin",
		Description: "Full control over one site and its content.",
		SiteScoped:  true,
		Entries: concat(
			siteSelfEntry(PermissionRead, PermissionUpdate, PermissionManage),
			siteEntry(ResourceListing, allPermissions...),
			siteEntry(ResourceCategory, allPermissions...),
			siteEntry(ResourceSetting, PermissionRead, PermissionUpdate),
			tenantEntry(ResourceUser, PermissionRead),
		),
	},
	"Site Editor": {
		Name:        "Site Editor",
		Description: "Manages listings and categories on one site.",
		SiteScoped:  true,
		Entries: concat(
			siteSelfEntry(PermissionRead),
			siteEntry(ResourceListing, PermissionCreate, PermissionRead, PermissionUpdate, PermissionDelete),
			siteEntry(ResourceCategory, PermissionCreate, PermissionRead, PermissionUpdate, PermissionDelete),
		),
	},
	"Site Author": {
		Name:        "Site Author",
		Description: "Creates and edits listings on one site.",
		SiteScoped:  true,
		Entries: concat(
			siteSelfEntry(PermissionRead),
			siteEntry(ResourceListing, PermissionCreate, PermissionRead, PermissionUpdate),
			siteEntry(ResourceCategory, PermissionRead),
		),
	},
	"Site Viewer": {
		Name:        "Site Viewer",
		Description: "Read-only access to one site.",
		SiteScoped:  true,
		Entries: concat(
			siteSelfEntry(PermissionRead),
			siteEntry(ResourceListing, PermissionRead),
			siteEntry(ResourceCategory, PermissionRead),
		),
	},
}

// TemplateNames lists the catalog in a stable order.
func TemplateNames() []string {
	return []string{
		"Tenant Admin", "Tenant Editor", "Tenant Author", "Tenant Viewer",
		"Site Admin", "Site Editor", "Site Author", "Site Viewer",
	}
}

// LookupTemplate returns the named archetype.
func LookupTemplate(name string) (Template, bool) {
	tpl, ok := predefined[name]
	return tpl, ok
}

func substitute(entries []ACLEntry, tenantID, siteID string) []ACLEntry {
	out := make([]ACLEntry, len(entries))
	for i, entry := range entries {
		entry.Resource.ID = replacePlaceholders(entry.Resource.ID, tenantID, siteID)
		entry.Resource.TenantID = replacePlaceholders(entry.Resource.TenantID, tenantID, siteID)
		entry.Resource.SiteID = replacePlaceholders(entry.Resource.SiteID, tenantID, siteID)
		out[i] = entry
	}
	return out
}

func replacePlaceholders(value, tenantID, siteID string) string {
	value = strings.ReplaceAll(value, placeholderTenantID, tenantID)
	value = strings.ReplaceAll(value, placeholderSiteID, siteID)
	return value
}

// CreatePredefinedRole instantiates a catalog archetype for the tenant.
// Idempotent on name: when a role of that name already exists in the tenant
// the existing role is returned instead of a duplicate. Site-scoped
// templates without a siteID fail rather than silently creating a
// tenant-wide role.
func (s *Service) CreatePredefinedRole(ctx context.Context, tenantID, name, siteID string) (*Role, error) {
	tpl, ok := LookupTemplate(name)
	if !ok {
		return nil, ErrUnknownTemplate
	}
	if tpl.SiteScoped && strings.TrimSpace(siteID) == "" {
		return nil, ErrSiteIDRequired
	}

	existingID, err := s.store.Get(ctx, roleNameKey(tenantID, tpl.Name))
	if err == nil {
		return s.GetRole(ctx, tenantID, existingID)
	}
	if !errors.Is(err, kv.ErrNotFound) {
		return nil, err
	}

	return s.CreateRole(ctx, Draft{
		Name:        tpl.Name,
		Description: tpl.Description,
		TenantID:    tenantID,
		ACLEntries:  substitute(tpl.Entries, tenantID, siteID),
	})
}
