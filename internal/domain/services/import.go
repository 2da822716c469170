package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ersonp/fishreg/internal/domain/entities"
	"github.com/ersonp/fishreg/internal/infrastructure/parsers"
)

// ImportOptions controls import behavior.
type ImportOptions struct {
	SourceTag string // Applied to records that carry none
}

// ImportError represents an error for a specific record during import.
type ImportError struct {
	Line    int    // Line number (1-indexed, 0 if unknown)
	Field   string // Which field has the error
	Value   string // The invalid value
	Message string // Human-readable error message
}

func (e ImportError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// ImportOutcome reports what happened to one record.
type ImportOutcome struct {
	Line     int    `json:"line"`
	Kind     string `json:"kind"`
	EntityID string `json:"entity_id,omitempty"` // Resolved id; the comment id for comment records
	Created  bool   `json:"created"`
	Skipped  string `json:"skipped,omitempty"` // Why nothing was resolved
}

// ImportResult contains the result of an import operation.
type ImportResult struct {
	Created  int
	Matched  int
	Skipped  int
	Outcomes []ImportOutcome
	Errors   []ImportError
}

// ImportService resolves batches of raw records in order.
type ImportService struct {
	resolver   *Resolver
	engagement *EngagementService
}

// NewImportService creates a new import service.
func NewImportService(resolver *Resolver, engagement *EngagementService) *ImportService {
	return &ImportService{
		resolver:   resolver,
		engagement: engagement,
	}
}

// Import resolves every record. Invalid records are reported in Errors and
// do not stop the batch; storage failures do.
func (s *ImportService) Import(ctx context.Context, records []parsers.RawRecord, opts ImportOptions) (*ImportResult, error) {
	result := &ImportResult{}

	for i := range records {
		raw := records[i]
		if raw.LineNum == 0 {
			raw.LineNum = i + 1
		}
		if raw.SourceTag == "" {
			raw.SourceTag = opts.SourceTag
		}

		if err := validateRawRecord(&raw); err != nil {
			result.Errors = append(result.Errors, *err)
			continue
		}

		outcome, err := s.importRecord(ctx, &raw)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", raw.LineNum, err)
		}
		switch {
		case outcome.Skipped != "":
			result.Skipped++
		case outcome.Created:
			result.Created++
		default:
			result.Matched++
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	return result, nil
}

// validateRawRecord validates a single raw record and returns an error if invalid.
func validateRawRecord(raw *parsers.RawRecord) *ImportError {
	raw.Kind = strings.ToLower(strings.TrimSpace(raw.Kind))
	switch raw.Kind {
	case "":
		return &ImportError{Line: raw.LineNum, Field: "kind", Message: "missing required field: kind"}
	case parsers.KindContact, parsers.KindOrganization, parsers.KindAction, parsers.KindComment:
	default:
		return &ImportError{
			Line:    raw.LineNum,
			Field:   "kind",
			Value:   raw.Kind,
			Message: fmt.Sprintf("invalid kind %q (valid: contact, organization, action, comment)", raw.Kind),
		}
	}

	if raw.SubmittedAt != "" {
		if _, err := parseSubmittedAt(raw.SubmittedAt); err != nil {
			return &ImportError{
				Line:    raw.LineNum,
				Field:   "submitted_at",
				Value:   raw.SubmittedAt,
				Message: "submitted_at must be RFC3339 or YYYY-MM-DD",
			}
		}
	}
	return nil
}

func (s *ImportService) importRecord(ctx context.Context, raw *parsers.RawRecord) (ImportOutcome, error) {
	outcome := ImportOutcome{Line: raw.LineNum, Kind: raw.Kind}

	switch raw.Kind {
	case parsers.KindContact:
		contact, created, err := s.resolver.ResolveContact(ctx, contactCandidate(raw))
		if err != nil {
			return outcome, err
		}
		if contact == nil {
			outcome.Skipped = "contact has neither name nor email"
			return outcome, nil
		}
		outcome.EntityID, outcome.Created = contact.ID, created

	case parsers.KindOrganization:
		org, created, err := s.resolver.ResolveOrganization(ctx, organizationCandidate(raw))
		if err != nil {
			return outcome, err
		}
		if org == nil {
			outcome.Skipped = "organization name is blank"
			return outcome, nil
		}
		outcome.EntityID, outcome.Created = org.ID, created

	case parsers.KindAction:
		action, created, err := s.resolver.ResolveAction(ctx, actionCandidate(raw))
		if err != nil {
			return outcome, err
		}
		if action == nil {
			outcome.Skipped = "action title is blank"
			return outcome, nil
		}
		outcome.EntityID, outcome.Created = action.ID, created

	case parsers.KindComment:
		return s.importComment(ctx, raw, outcome)
	}
	return outcome, nil
}

// importComment resolves the commenter, their organization and the action,
// then records the comment against whatever resolved.
func (s *ImportService) importComment(ctx context.Context, raw *parsers.RawRecord, outcome ImportOutcome) (ImportOutcome, error) {
	contact, _, err := s.resolver.ResolveContact(ctx, contactCandidate(raw))
	if err != nil {
		return outcome, err
	}
	action, _, err := s.resolver.ResolveAction(ctx, actionCandidate(raw))
	if err != nil {
		return outcome, err
	}

	in := CommentInput{Body: raw.Body, Source: raw.SourceTag}
	if contact != nil {
		in.ContactID = contact.ID
		in.OrganizationID = contact.OrganizationID
	}
	if in.OrganizationID == "" && raw.Organization != "" {
		org, _, err := s.resolver.ResolveOrganization(ctx, organizationCandidate(raw))
		if err != nil {
			return outcome, err
		}
		if org != nil {
			in.OrganizationID = org.ID
		}
	}
	if action != nil {
		in.ActionID = action.ID
	}
	if in.ContactID == "" && in.OrganizationID == "" {
		outcome.Skipped = "comment has no resolvable commenter"
		return outcome, nil
	}
	if raw.SubmittedAt != "" {
		// Already validated.
		in.SubmittedAt, _ = parseSubmittedAt(raw.SubmittedAt)
	}

	comment, err := s.engagement.RecordComment(ctx, in)
	if err != nil {
		return outcome, err
	}
	outcome.EntityID, outcome.Created = comment.ID, true
	return outcome, nil
}

func parseSubmittedAt(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(time.DateOnly, value)
}

func contactCandidate(raw *parsers.RawRecord) entities.ContactCandidate {
	return entities.ContactCandidate{
		Name:         entities.Ptr(raw.Name),
		FirstName:    entities.Ptr(raw.FirstName),
		LastName:     entities.Ptr(raw.LastName),
		Email:        entities.Ptr(raw.Email),
		Phone:        entities.Ptr(raw.Phone),
		Title:        entities.Ptr(raw.JobTitle),
		City:         entities.Ptr(raw.City),
		State:        entities.Ptr(raw.State),
		Sector:       entities.Ptr(raw.Sector),
		Organization: entities.Ptr(raw.Organization),
		SourceTag:    entities.Ptr(raw.SourceTag),
	}
}

func organizationCandidate(raw *parsers.RawRecord) entities.OrganizationCandidate {
	name := raw.Organization
	if raw.Kind == parsers.KindOrganization && raw.Name != "" {
		name = raw.Name
	}
	return entities.OrganizationCandidate{
		Name:      entities.Ptr(name),
		State:     entities.Ptr(raw.State),
		City:      entities.Ptr(raw.City),
		Type:      entities.Ptr(raw.OrgType),
		SourceTag: entities.Ptr(raw.SourceTag),
	}
}

func actionCandidate(raw *parsers.RawRecord) entities.ActionCandidate {
	return entities.ActionCandidate{
		Title:       entities.Ptr(raw.Title),
		Description: entities.Ptr(raw.Description),
		Phase:       entities.Ptr(raw.Phase),
		Status:      entities.Ptr(raw.Status),
		SourceTag:   entities.Ptr(raw.SourceTag),
	}
}
