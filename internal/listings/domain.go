// Package listings manages directory listings for tenant sites.
package listings

import (
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("listing not found")
	ErrDuplicateSlug = errors.New("listing slug already in use")
	ErrInvalidStatus = errors.New("invalid listing status")
)

// Status is the publication state of a listing.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// Valid reports whether the status is part of the vocabulary.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

// Listing is one directory entry, scoped to a tenant and a site.
type Listing struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenantId"`
	SiteID      string    `json:"siteId"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ListFilters narrows listing queries.
type ListFilters struct {
	SiteID   string
	Status   Status
	Category string
	Page     int
	Limit    int
}

// Draft carries the caller-supplied fields for a new listing.
type Draft struct {
	TenantID    string
	SiteID      string
	Title       string
	Slug        string
	Category    string
	Description string
	Status      Status
}

// Update carries a partial edit. Nil fields are untouched.
type Update struct {
	Title       *string
	Slug        *string
	Category    *string
	Description *string
	Status      *Status
}
