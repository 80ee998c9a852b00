// Package role implements the multi-tenant authorization engine: role
// definitions, user-role assignments, and ACL-based permission resolution,
// all on top of the key-value store adapter.
package role

import "time"

// SystemTenant owns cross-tenant (global) roles.
const SystemTenant = "system"

// ResourceType enumerates the kinds of resources an ACL entry can scope.
type ResourceType string

const (
	ResourceUser     ResourceType = "user"
	ResourceSite     ResourceType = "site"
	ResourceCategory ResourceType = "category"
	ResourceListing  ResourceType = "listing"
	ResourceSetting  ResourceType = "setting"
	ResourceAudit    ResourceType = "audit"
	ResourceRole     ResourceType = "role"
	ResourceTenant   ResourceType = "tenant"
)

// Valid reports whether the resource type belongs to the closed enum.
func (t ResourceType) Valid() bool {
	switch t {
	case ResourceUser, ResourceSite, ResourceCategory, ResourceListing,
		ResourceSetting, ResourceAudit, ResourceRole, ResourceTenant:
		return true
	}
	return false
}

// Permission enumerates grantable operations. Manage is matched literally;
// it does not imply the CRUD permissions.
type Permission string

const (
	PermissionCreate Permission = "create"
	PermissionRead   Permission = "read"
	PermissionUpdate Permission = "update"
	PermissionDelete Permission = "delete"
	PermissionManage Permission = "manage"
)

// Valid reports whether the permission belongs to the closed enum.
func (p Permission) Valid() bool {
	switch p {
	case PermissionCreate, PermissionRead, PermissionUpdate, PermissionDelete, PermissionManage:
		return true
	}
	return false
}

// Resource scopes an ACL entry. An empty ID means every resource of the
// type; an empty SiteID means tenant-wide rather than site-scoped.
type Resource struct {
	Type     ResourceType `json:"type"`
	ID       string       `json:"id,omitempty"`
	TenantID string       `json:"tenantId"`
	SiteID   string       `json:"siteId,omitempty"`
}

// ACLEntry grants one permission on one resource scope. Entry order carries
// no meaning; evaluation is existential.
type ACLEntry struct {
	Resource   Resource   `json:"resource"`
	Permission Permission `json:"permission"`
}

// Role is a named bundle of ACL entries owned by a tenant. Global roles are
// owned by the system tenant and can be assigned in any tenant. ID,
// TenantID, IsGlobal and CreatedAt are immutable after creation.
type Role struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	TenantID    string     `json:"tenantId"`
	IsGlobal    bool       `json:"isGlobal"`
	ACLEntries  []ACLEntry `json:"aclEntries"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Draft carries the caller-supplied fields for role creation.
type Draft struct {
	Name        string
	Description string
	TenantID    string
	IsGlobal    bool
	ACLEntries  []ACLEntry
}

// Update carries a partial role update. Nil fields are left unchanged.
// IsGlobal is present only so an illegal flip can be rejected explicitly.
type Update struct {
	Name        *string
	Description *string
	IsGlobal    *bool
	ACLEntries  []ACLEntry
}

// Assignment records that a user holds a role within a tenant.
type Assignment struct {
	UserID     string    `json:"userId"`
	RoleID     string    `json:"roleId"`
	TenantID   string    `json:"tenantId"`
	AssignedAt time.Time `json:"assignedAt"`
}
