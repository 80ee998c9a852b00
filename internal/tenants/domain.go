// Package tenants is the registry of organizations using the platform.
package tenants

import (
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("tenant not found")
	ErrDuplicate = errors.New("tenant id already registered")
)

// Tenant is one organization. The ID doubles as the tenant scope used in
// role and listing records, so it is caller-chosen and immutable.
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}
