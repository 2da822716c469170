package entities

import (
	"errors"
	"time"
)

// ErrOrganizationNotFound is returned when a referenced organization does not exist.
var ErrOrganizationNotFound = errors.New("organization not found")

// Organization is a company, NGO or agency that participates in the process.
type Organization struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	NormalizedName  string     `json:"normalized_name"` // Cached NormalizeName(Name)
	Type            string     `json:"type,omitempty"`
	State           string     `json:"state,omitempty"`
	City            string     `json:"city,omitempty"`
	TotalComments   int        `json:"total_comments"`
	TotalMeetings   int        `json:"total_meetings"`
	FirstEngagement *time.Time `json:"first_engagement,omitempty"`
	LastEngagement  *time.Time `json:"last_engagement,omitempty"`
	SourceTag       string     `json:"source_tag,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Touch widens the engagement window to include at.
func (o *Organization) Touch(at time.Time) {
	o.FirstEngagement, o.LastEngagement = widenWindow(o.FirstEngagement, o.LastEngagement, at)
}

// OrganizationCandidate is a raw organization record.
type OrganizationCandidate struct {
	Name      *string `json:"name,omitempty"`
	State     *string `json:"state,omitempty"`
	City      *string `json:"city,omitempty"`
	Type      *string `json:"type,omitempty"`
	SourceTag *string `json:"source_tag,omitempty"`
}
