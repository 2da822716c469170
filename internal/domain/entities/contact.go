// Package entities contains core domain data structures.
package entities

import (
	"errors"
	"strings"
	"time"
)

// ErrContactNotFound is returned when a referenced contact does not exist.
var ErrContactNotFound = errors.New("contact not found")

// Contact is a natural person who has engaged with the council process,
// by submitting a comment or attending a meeting.
type Contact struct {
	ID              string     `json:"id"`
	FirstName       string     `json:"first_name,omitempty"`
	LastName        string     `json:"last_name,omitempty"`
	FullName        string     `json:"full_name"`
	Email           string     `json:"email,omitempty"`
	Phone           string     `json:"phone,omitempty"`
	Title           string     `json:"title,omitempty"`
	City            string     `json:"city,omitempty"`
	State           string     `json:"state,omitempty"`
	OrganizationID  string     `json:"organization_id,omitempty"`
	Sector          string     `json:"sector,omitempty"`
	TotalComments   int        `json:"total_comments"`
	TotalMeetings   int        `json:"total_meetings"`
	FirstEngagement *time.Time `json:"first_engagement,omitempty"`
	LastEngagement  *time.Time `json:"last_engagement,omitempty"`
	SourceTag       string     `json:"source_tag,omitempty"`
	Verified        bool       `json:"verified"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// NormalizedName returns the comparison key of the contact's display name.
func (c *Contact) NormalizedName() string {
	return NormalizeName(c.DisplayName())
}

// DisplayName returns the full name, falling back to first and last name.
func (c *Contact) DisplayName() string {
	if strings.TrimSpace(c.FullName) != "" {
		return c.FullName
	}
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// Touch widens the engagement window to include at.
func (c *Contact) Touch(at time.Time) {
	c.FirstEngagement, c.LastEngagement = widenWindow(c.FirstEngagement, c.LastEngagement, at)
}

// ContactCandidate is a raw contact record submitted by a scraper or import job.
// Nil fields were absent from the source record.
type ContactCandidate struct {
	Name         *string `json:"name,omitempty"`
	FirstName    *string `json:"first_name,omitempty"`
	LastName     *string `json:"last_name,omitempty"`
	Email        *string `json:"email,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	Title        *string `json:"title,omitempty"`
	City         *string `json:"city,omitempty"`
	State        *string `json:"state,omitempty"`
	Sector       *string `json:"sector,omitempty"`
	Organization *string `json:"organization,omitempty"`
	SourceTag    *string `json:"source_tag,omitempty"`
}

// FullName returns the candidate's display name, assembling it from
// first and last name when no full name was supplied.
func (c ContactCandidate) FullName() string {
	if name := Value(c.Name); name != "" {
		return name
	}
	return strings.TrimSpace(Value(c.FirstName) + " " + Value(c.LastName))
}

// Ptr returns a pointer to s. Blank strings yield nil.
func Ptr(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// Value returns the trimmed value of p, or "" when p is nil.
func Value(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

func widenWindow(first, last *time.Time, at time.Time) (*time.Time, *time.Time) {
	if at.IsZero() {
		return first, last
	}
	if first == nil || at.Before(*first) {
		t := at
		first = &t
	}
	if last == nil || at.After(*last) {
		t := at
		last = &t
	}
	return first, last
}
