package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ersonp/fishreg/internal/domain/entities"
	"github.com/ersonp/fishreg/internal/domain/ports"
)

// CommentInput describes a comment to record against resolved entities.
type CommentInput struct {
	ContactID      string
	OrganizationID string
	ActionID       string
	Body           string
	Source         string
	SubmittedAt    time.Time // Zero means now
}

// EngagementService records comments and meeting attendance and keeps the
// engagement counters on contacts and organizations current.
type EngagementService struct {
	db   ports.RelationalDB
	opts options
}

// NewEngagementService creates a new EngagementService.
func NewEngagementService(db ports.RelationalDB, opts ...Option) *EngagementService {
	return &EngagementService{
		db:   db,
		opts: buildOptions(opts),
	}
}

// RecordComment stores a comment and bumps the comment counters of the
// referenced contact and organization.
func (s *EngagementService) RecordComment(ctx context.Context, in CommentInput) (*entities.Comment, error) {
	now := s.opts.now()
	submitted := in.SubmittedAt
	if submitted.IsZero() {
		submitted = now
	}
	comment := &entities.Comment{
		ID:             uuid.New().String(),
		ContactID:      strings.TrimSpace(in.ContactID),
		OrganizationID: strings.TrimSpace(in.OrganizationID),
		ActionID:       strings.TrimSpace(in.ActionID),
		Body:           in.Body,
		Source:         in.Source,
		SubmittedAt:    submitted,
		CreatedAt:      now,
	}

	err := s.db.WithinTx(ctx, func(store ports.EntityStore) error {
		if comment.ContactID != "" {
			contact, err := store.FindContactByID(ctx, comment.ContactID)
			if err != nil {
				return fmt.Errorf("loading contact: %w", err)
			}
			if contact == nil {
				return fmt.Errorf("contact %s: %w", comment.ContactID, entities.ErrContactNotFound)
			}
			contact.TotalComments++
			contact.Touch(submitted)
			contact.UpdatedAt = now
			if err := store.SaveContact(ctx, contact); err != nil {
				return fmt.Errorf("saving contact: %w", err)
			}
		}
		if comment.OrganizationID != "" {
			org, err := store.FindOrganizationByID(ctx, comment.OrganizationID)
			if err != nil {
				return fmt.Errorf("loading organization: %w", err)
			}
			if org == nil {
				return fmt.Errorf("organization %s: %w", comment.OrganizationID, entities.ErrOrganizationNotFound)
			}
			org.TotalComments++
			org.Touch(submitted)
			org.UpdatedAt = now
			if err := store.SaveOrganization(ctx, org); err != nil {
				return fmt.Errorf("saving organization: %w", err)
			}
		}
		if err := store.SaveComment(ctx, comment); err != nil {
			return fmt.Errorf("saving comment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("recording comment: %w", err)
	}
	return comment, nil
}

// RecordMeeting counts a meeting attended by a contact at the given time.
func (s *EngagementService) RecordMeeting(ctx context.Context, contactID string, at time.Time) (*entities.Contact, error) {
	var contact *entities.Contact
	err := s.db.WithinTx(ctx, func(store ports.EntityStore) error {
		var err error
		contact, err = store.FindContactByID(ctx, contactID)
		if err != nil {
			return fmt.Errorf("loading contact: %w", err)
		}
		if contact == nil {
			return fmt.Errorf("contact %s: %w", contactID, entities.ErrContactNotFound)
		}
		contact.TotalMeetings++
		contact.Touch(at)
		contact.UpdatedAt = s.opts.now()
		if err := store.SaveContact(ctx, contact); err != nil {
			return fmt.Errorf("saving contact: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("recording meeting: %w", err)
	}
	return contact, nil
}
