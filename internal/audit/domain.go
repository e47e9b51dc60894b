// Package audit records who changed what in the role store. Events are
// enqueued by the mutating service and persisted asynchronously by the
// worker, so a slow audit sink never blocks a mutation.
package audit

import "time"

// Event is a single audit trail entry.
type Event struct {
	ID       string    `json:"id"`
	Actor    string    `json:"actor"`
	Action   string    `json:"action"`
	Entity   string    `json:"entity"`
	EntityID int64     `json:"entity_id"`
	Detail   string    `json:"detail,omitempty"`
	At       time.Time `json:"at"`
}

// Actions recorded by the role mutator.
const (
	ActionRoleCreated = "role.created"
	ActionRoleUpdated = "role.updated"
	ActionRoleDeleted = "role.deleted"
)
