// Package audit records role mutation events and serves the admin timeline.
package audit

import (
	"context"
	"time"
)

// Action identifies a role mutation. The vocabulary is closed; consumers
// filter on these exact strings.
type Action string

const (
	ActionRoleCreated               Action = "role_created"
	ActionGlobalRoleCreated         Action = "global_role_created"
	ActionRoleUpdated               Action = "role_updated"
	ActionGlobalRoleUpdated         Action = "global_role_updated"
	ActionRoleDeleted               Action = "role_deleted"
	ActionGlobalRoleDeleted         Action = "global_role_deleted"
	ActionRoleAssigned              Action = "role_assigned"
	ActionGlobalRoleAssigned        Action = "global_role_assigned"
	ActionRoleRemoved               Action = "role_removed"
	ActionGlobalRoleRemoved         Action = "global_role_removed"
	ActionGlobalRoleRemovedFromUser Action = "global_role_removed_from_user"
)

// Event is one audit record. UserID is the subject of an assignment
// mutation, not the actor performing it.
type Event struct {
	Action       Action            `json:"action"`
	ResourceType string            `json:"resourceType"`
	ResourceID   string            `json:"resourceId"`
	UserID       string            `json:"userId,omitempty"`
	TenantID     string            `json:"tenantId"`
	Details      map[string]string `json:"details,omitempty"`
	Success      bool              `json:"success"`
	At           time.Time         `json:"at"`
}

// Recorder accepts events emitted by the role engine. Implementations must
// treat delivery as fire-and-forget: a failed Record never blocks or rolls
// back the mutation that produced it.
type Recorder interface {
	Record(ctx context.Context, event Event) error
}
