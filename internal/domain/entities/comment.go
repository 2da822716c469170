package entities

import "time"

// Comment is a public comment submitted on an action. It is the primary
// holder of references to contacts and organizations.
type Comment struct {
	ID             string    `json:"id"`
	ContactID      string    `json:"contact_id,omitempty"`
	OrganizationID string    `json:"organization_id,omitempty"`
	ActionID       string    `json:"action_id,omitempty"`
	Body           string    `json:"body,omitempty"`
	Source         string    `json:"source,omitempty"`
	SubmittedAt    time.Time `json:"submitted_at"`
	CreatedAt      time.Time `json:"created_at"`
}
