package role

import "errors"

var (
	// ErrNotFound indicates the role or assignment does not exist.
	ErrNotFound = errors.New("role: not found")
	// ErrNameTaken indicates another role in the tenant already uses the name.
	ErrNameTaken = errors.New("role: name already in use")
	// ErrGlobalFlagImmutable indicates an update tried to flip IsGlobal.
	ErrGlobalFlagImmutable = errors.New("role: isGlobal cannot be changed after creation")
	// ErrNotSystemTenant indicates a global role draft names a non-system tenant.
	ErrNotSystemTenant = errors.New("role: global roles must belong to the system tenant")
	// ErrSiteIDRequired indicates a site-scoped template was instantiated without a site.
	ErrSiteIDRequired = errors.New("role: site-scoped template requires a site id")
	// ErrUnknownTemplate indicates the predefined role name is not in the catalog.
	ErrUnknownTemplate = errors.New("role: unknown predefined role")
	// ErrInvalidDraft indicates the role draft failed validation.
	ErrInvalidDraft = errors.New("role: invalid role draft")
)
