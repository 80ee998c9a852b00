// Package sites manages the sites a tenant publishes listings on.
package sites

import (
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("site not found")
	ErrDuplicateSlug = errors.New("site slug already in use")
)

// Site is one publishing surface owned by a tenant. Deleting a site does
// not cascade to its listings; those stay addressable by id.
type Site struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenantId"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Domain    string    `json:"domain,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Draft carries the fields for a new site.
type Draft struct {
	TenantID string
	Name     string
	Slug     string
	Domain   string
}

// Update carries a partial edit. Nil fields are untouched.
type Update struct {
	Name   *string
	Slug   *string
	Domain *string
}
