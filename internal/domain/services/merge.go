package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ersonp/fishreg/internal/domain/entities"
	"github.com/ersonp/fishreg/internal/domain/ports"
)

// ErrNoPrimary is returned when a merge names no primary contact.
var ErrNoPrimary = errors.New("primary contact id is required")

// MergeEngine consolidates duplicate contacts into a surviving primary.
type MergeEngine struct {
	db   ports.RelationalDB
	opts options
}

// NewMergeEngine creates a new MergeEngine.
func NewMergeEngine(db ports.RelationalDB, opts ...Option) *MergeEngine {
	return &MergeEngine{
		db:   db,
		opts: buildOptions(opts),
	}
}

// MergeContacts folds the duplicates into the primary as one unit of work:
// comments are repointed, empty primary fields are filled from the first
// duplicate that has them, counters are summed, the engagement window is
// widened and the duplicates are deleted. Any failure leaves the store untouched.
// Duplicate ids equal to the primary, blank or repeated are ignored.
func (e *MergeEngine) MergeContacts(ctx context.Context, primaryID string, duplicateIDs []string) (*entities.MergeResult, error) {
	primaryID = strings.TrimSpace(primaryID)
	if primaryID == "" {
		return nil, ErrNoPrimary
	}
	ids := mergeTargets(primaryID, duplicateIDs)

	var result *entities.MergeResult
	err := e.db.WithinTx(ctx, func(store ports.EntityStore) error {
		var err error
		result, err = e.merge(ctx, store, primaryID, ids)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("merging contacts into %s: %w", primaryID, err)
	}

	e.opts.logger.Info().
		Str("primary_id", primaryID).
		Strs("duplicate_ids", ids).
		Int("references_updated", result.ReferencesUpdated).
		Msg("merged contacts")
	e.dropFromIndex(ctx, ids)
	return result, nil
}

func (e *MergeEngine) merge(ctx context.Context, store ports.EntityStore, primaryID string, ids []string) (*entities.MergeResult, error) {
	primary, err := store.FindContactByID(ctx, primaryID)
	if err != nil {
		return nil, fmt.Errorf("loading primary contact: %w", err)
	}
	if primary == nil {
		return nil, fmt.Errorf("primary %s: %w", primaryID, entities.ErrContactNotFound)
	}
	if len(ids) == 0 {
		return &entities.MergeResult{Primary: primary}, nil
	}

	loaded, err := store.FindContactsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("loading duplicate contacts: %w", err)
	}
	byID := make(map[string]*entities.Contact, len(loaded))
	for _, c := range loaded {
		byID[c.ID] = c
	}
	// Empty primary fields are filled in the caller's duplicate order.
	dups := make([]*entities.Contact, 0, len(ids))
	for _, id := range ids {
		dup, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("duplicate %s: %w", id, entities.ErrContactNotFound)
		}
		dups = append(dups, dup)
	}

	updated, err := store.ReassignComments(ctx, ids, primaryID)
	if err != nil {
		return nil, fmt.Errorf("repointing comments: %w", err)
	}

	for _, dup := range dups {
		absorb(primary, dup)
	}
	primary.UpdatedAt = e.opts.now()
	if err := store.SaveContact(ctx, primary); err != nil {
		return nil, fmt.Errorf("saving primary contact: %w", err)
	}

	for _, id := range ids {
		if err := store.DeleteContact(ctx, id); err != nil {
			return nil, fmt.Errorf("deleting duplicate %s: %w", id, err)
		}
	}

	if err := store.LogAction(ctx, entities.AuditContactsMerged, primaryID, map[string]any{
		"duplicate_ids":      ids,
		"references_updated": updated,
	}); err != nil {
		return nil, fmt.Errorf("logging merge: %w", err)
	}

	return &entities.MergeResult{
		MergedCount:       len(dups),
		ReferencesUpdated: updated,
		Primary:           primary,
	}, nil
}

// absorb folds one duplicate into the primary.
func absorb(primary, dup *entities.Contact) {
	fill(&primary.Email, dup.Email)
	fill(&primary.Phone, dup.Phone)
	fill(&primary.City, dup.City)
	fill(&primary.State, dup.State)
	fill(&primary.OrganizationID, dup.OrganizationID)
	fill(&primary.Title, dup.Title)
	fill(&primary.Sector, dup.Sector)

	primary.TotalComments += dup.TotalComments
	primary.TotalMeetings += dup.TotalMeetings

	if dup.FirstEngagement != nil {
		primary.Touch(*dup.FirstEngagement)
	}
	if dup.LastEngagement != nil {
		primary.Touch(*dup.LastEngagement)
	}
}

func fill(dst *string, src string) {
	if strings.TrimSpace(*dst) == "" && strings.TrimSpace(src) != "" {
		*dst = src
	}
}

// mergeTargets drops blank ids, repeats and the primary itself.
func mergeTargets(primaryID string, duplicateIDs []string) []string {
	seen := map[string]bool{primaryID: true}
	ids := make([]string, 0, len(duplicateIDs))
	for _, id := range duplicateIDs {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

func (e *MergeEngine) dropFromIndex(ctx context.Context, ids []string) {
	if e.opts.index == nil {
		return
	}
	for _, id := range ids {
		if err := e.opts.index.Delete(ctx, entities.KindContact, id); err != nil {
			e.opts.logger.Warn().Err(err).Str("contact_id", id).Msg("removing merged contact from name index failed")
		}
	}
}
