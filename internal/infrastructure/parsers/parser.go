// Package parsers provides parsers for importing raw records from various formats.
package parsers

import (
	"io"
	"path/filepath"
	"strings"
)

// Record kinds accepted by the importer.
const (
	KindContact      = "contact"
	KindOrganization = "organization"
	KindAction       = "action"
	KindComment      = "comment"
)

// RawRecord is one scraped or exported record before resolution.
// A comment record carries the commenter, their organization and the
// action commented on, plus the comment itself.
type RawRecord struct {
	Kind         string `json:"kind"`
	Name         string `json:"name,omitempty"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	JobTitle     string `json:"job_title,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	Sector       string `json:"sector,omitempty"`
	Organization string `json:"organization,omitempty"`
	OrgType      string `json:"org_type,omitempty"`
	Title        string `json:"title,omitempty"` // Action title
	Description  string `json:"description,omitempty"`
	Phase        string `json:"phase,omitempty"`
	Status       string `json:"status,omitempty"`
	Body         string `json:"body,omitempty"`
	SubmittedAt  string `json:"submitted_at,omitempty"` // RFC3339 or YYYY-MM-DD
	SourceTag    string `json:"source_tag,omitempty"`
	LineNum      int    `json:"-"` // Line number in source file (set by parser)
}

// Parser defines the interface for parsing records from various formats.
type Parser interface {
	Parse(r io.Reader) ([]RawRecord, error)
}

// ForFormat returns the appropriate parser for the given format.
// Supported formats: "json", "csv".
func ForFormat(format string) Parser {
	switch strings.ToLower(format) {
	case "json":
		return &JSONParser{}
	case "csv":
		return &CSVParser{}
	default:
		return nil
	}
}

// ForFile returns the appropriate parser based on file extension.
func ForFile(filename string) Parser {
	return ForFormat(strings.TrimPrefix(filepath.Ext(filename), "."))
}
