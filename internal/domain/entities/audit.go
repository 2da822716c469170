package entities

import "time"

// Audit actions written by the resolver and merge engine.
const (
	AuditContactCreated      = "contact.created"
	AuditOrganizationCreated = "organization.created"
	AuditActionCreated       = "action.created"
	AuditContactsMerged      = "contacts.merged"
)

// AuditEntry represents a logged action in the system.
type AuditEntry struct {
	ID        int64          `json:"id"`
	Action    string         `json:"action"`
	EntityID  string         `json:"entity_id,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
