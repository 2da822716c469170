// Package services contains domain business logic.
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/ersonp/fishreg/internal/domain/entities"
	"github.com/ersonp/fishreg/internal/domain/ports"
)

// Resolver implements find-or-create for contacts, organizations and actions.
// Each call runs as one unit of work against the database.
type Resolver struct {
	db   ports.RelationalDB
	opts options
}

// NewResolver creates a new Resolver.
func NewResolver(db ports.RelationalDB, opts ...Option) *Resolver {
	return &Resolver{
		db:   db,
		opts: buildOptions(opts),
	}
}

// indexRequest is a name index write deferred until the unit of work commits.
type indexRequest struct {
	kind  entities.Kind
	id    string
	key   string
	state string
}

// ResolveContact returns the contact a candidate denotes, creating it when no
// existing contact matches. A candidate without name and email yields nil.
// The organization named by the candidate is resolved in the same unit of work.
func (r *Resolver) ResolveContact(ctx context.Context, cand entities.ContactCandidate) (*entities.Contact, bool, error) {
	var (
		contact *entities.Contact
		created bool
		pending []indexRequest
	)
	err := r.db.WithinTx(ctx, func(store ports.EntityStore) error {
		var err error
		contact, created, err = r.resolveContact(ctx, store, cand, &pending)
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("resolving contact: %w", err)
	}
	r.syncIndex(ctx, pending)
	return contact, created, nil
}

// ResolveOrganization returns the organization a candidate denotes, creating
// it when nothing matches. A blank name yields nil.
func (r *Resolver) ResolveOrganization(ctx context.Context, cand entities.OrganizationCandidate) (*entities.Organization, bool, error) {
	var (
		org     *entities.Organization
		created bool
		pending []indexRequest
	)
	err := r.db.WithinTx(ctx, func(store ports.EntityStore) error {
		var err error
		org, created, err = r.resolveOrganization(ctx, store, cand, &pending)
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("resolving organization: %w", err)
	}
	r.syncIndex(ctx, pending)
	return org, created, nil
}

// ResolveAction returns the action a candidate title denotes, creating it
// when nothing matches. A blank title yields nil.
func (r *Resolver) ResolveAction(ctx context.Context, cand entities.ActionCandidate) (*entities.Action, bool, error) {
	var (
		action  *entities.Action
		created bool
		pending []indexRequest
	)
	err := r.db.WithinTx(ctx, func(store ports.EntityStore) error {
		var err error
		action, created, err = r.resolveAction(ctx, store, cand, &pending)
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("resolving action: %w", err)
	}
	r.syncIndex(ctx, pending)
	return action, created, nil
}

func (r *Resolver) matcher(store ports.EntityStore) *Matcher {
	m := NewMatcher(store, r.opts.matcher).WithLogger(r.opts.logger)
	if r.opts.index != nil {
		m.WithNameIndex(r.opts.index, r.opts.embedder)
	}
	return m
}

func (r *Resolver) resolveContact(ctx context.Context, store ports.EntityStore, cand entities.ContactCandidate, pending *[]indexRequest) (*entities.Contact, bool, error) {
	name := cand.FullName()
	email := entities.NormalizeEmail(entities.Value(cand.Email))
	key := entities.NormalizeName(name)
	if key == "" && email == "" {
		return nil, false, nil
	}
	state := entities.NormalizeState(entities.Value(cand.State))

	var orgID string
	if entities.Value(cand.Organization) != "" {
		org, _, err := r.resolveOrganization(ctx, store, entities.OrganizationCandidate{
			Name:      cand.Organization,
			State:     cand.State,
			City:      cand.City,
			SourceTag: cand.SourceTag,
		}, pending)
		if err != nil {
			return nil, false, err
		}
		if org != nil {
			orgID = org.ID
		}
	}

	match, err := r.matcher(store).MatchContact(ctx, MatchQuery{Name: name, Key: key, Email: email, State: state})
	if err != nil {
		return nil, false, err
	}
	if match != nil {
		contact := match.Entity
		if contact.OrganizationID == "" && orgID != "" {
			contact.OrganizationID = orgID
			contact.UpdatedAt = r.opts.now()
			if err := store.SaveContact(ctx, contact); err != nil {
				return nil, false, fmt.Errorf("linking contact to organization: %w", err)
			}
		}
		return contact, false, nil
	}

	id := entities.ContactID(name, email)
	existing, err := store.FindContactByID(ctx, id)
	if err != nil {
		return nil, false, fmt.Errorf("finding contact by id: %w", err)
	}
	if existing != nil {
		return existing, false, nil
	}

	first, last := entities.Value(cand.FirstName), entities.Value(cand.LastName)
	if first == "" && last == "" {
		first, last = entities.SplitName(name)
	}
	now := r.opts.now()
	contact := &entities.Contact{
		ID:             id,
		FirstName:      first,
		LastName:       last,
		FullName:       name,
		Email:          email,
		Phone:          entities.Value(cand.Phone),
		Title:          entities.Value(cand.Title),
		City:           entities.Value(cand.City),
		State:          state,
		OrganizationID: orgID,
		Sector:         entities.Value(cand.Sector),
		SourceTag:      entities.Value(cand.SourceTag),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := store.SaveContact(ctx, contact); err != nil {
		return nil, false, fmt.Errorf("saving contact: %w", err)
	}
	if err := store.LogAction(ctx, entities.AuditContactCreated, id, map[string]any{
		"full_name":  name,
		"source_tag": contact.SourceTag,
	}); err != nil {
		return nil, false, fmt.Errorf("logging contact creation: %w", err)
	}

	r.opts.logger.Info().Str("contact_id", id).Str("name", name).Msg("created contact")
	*pending = append(*pending, indexRequest{kind: entities.KindContact, id: id, key: key, state: state})
	return contact, true, nil
}

func (r *Resolver) resolveOrganization(ctx context.Context, store ports.EntityStore, cand entities.OrganizationCandidate, pending *[]indexRequest) (*entities.Organization, bool, error) {
	name := entities.Value(cand.Name)
	key := entities.NormalizeName(name)
	if key == "" {
		return nil, false, nil
	}
	state := entities.NormalizeState(entities.Value(cand.State))

	match, err := r.matcher(store).MatchOrganization(ctx, MatchQuery{Name: name, Key: key, State: state})
	if err != nil {
		return nil, false, err
	}
	if match != nil {
		return match.Entity, false, nil
	}

	id := entities.OrganizationID(name)
	existing, err := store.FindOrganizationByID(ctx, id)
	if err != nil {
		return nil, false, fmt.Errorf("finding organization by id: %w", err)
	}
	if existing != nil {
		return existing, false, nil
	}

	now := r.opts.now()
	org := &entities.Organization{
		ID:             id,
		Name:           name,
		NormalizedName: key,
		Type:           entities.Value(cand.Type),
		State:          state,
		City:           entities.Value(cand.City),
		SourceTag:      entities.Value(cand.SourceTag),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := store.SaveOrganization(ctx, org); err != nil {
		return nil, false, fmt.Errorf("saving organization: %w", err)
	}
	if err := store.LogAction(ctx, entities.AuditOrganizationCreated, id, map[string]any{
		"name":       name,
		"source_tag": org.SourceTag,
	}); err != nil {
		return nil, false, fmt.Errorf("logging organization creation: %w", err)
	}

	r.opts.logger.Info().Str("organization_id", id).Str("name", name).Msg("created organization")
	*pending = append(*pending, indexRequest{kind: entities.KindOrganization, id: id, key: key, state: state})
	return org, true, nil
}

func (r *Resolver) resolveAction(ctx context.Context, store ports.EntityStore, cand entities.ActionCandidate, pending *[]indexRequest) (*entities.Action, bool, error) {
	title := strings.Join(strings.Fields(entities.Value(cand.Title)), " ")
	slug := entities.Slugify(title)
	if slug == "" {
		return nil, false, nil
	}

	match, err := r.matcher(store).MatchAction(ctx, MatchQuery{Name: title, Key: slug})
	if err != nil {
		return nil, false, err
	}
	if match != nil {
		return match.Entity, false, nil
	}

	id := entities.ActionID(title)
	existing, err := store.FindActionByID(ctx, id)
	if err != nil {
		return nil, false, fmt.Errorf("finding action by id: %w", err)
	}
	if existing != nil {
		return existing, false, nil
	}

	now := r.opts.now()
	action := &entities.Action{
		ID:          id,
		Title:       title,
		FMP:         entities.InferFMP(title),
		Description: entities.Value(cand.Description),
		Status:      entities.Value(cand.Status),
		Phase:       entities.Value(cand.Phase),
		SourceTag:   entities.Value(cand.SourceTag),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := store.SaveAction(ctx, action); err != nil {
		return nil, false, fmt.Errorf("saving action: %w", err)
	}
	if err := store.LogAction(ctx, entities.AuditActionCreated, id, map[string]any{
		"title":      title,
		"source_tag": action.SourceTag,
	}); err != nil {
		return nil, false, fmt.Errorf("logging action creation: %w", err)
	}

	r.opts.logger.Info().Str("action_id", id).Str("title", title).Msg("created action")
	*pending = append(*pending, indexRequest{kind: entities.KindAction, id: id, key: slug})
	return action, true, nil
}

// syncIndex pushes newly created names to the name index. Failures are
// logged only; the matcher falls back to scanning rows the index misses.
func (r *Resolver) syncIndex(ctx context.Context, pending []indexRequest) {
	if r.opts.index == nil || len(pending) == 0 {
		return
	}
	keys := make([]string, len(pending))
	for i, req := range pending {
		keys[i] = req.key
	}
	vectors, err := r.opts.embedder.EmbedBatch(ctx, keys)
	if err != nil {
		r.opts.logger.Warn().Err(err).Msg("embedding names for index failed")
		return
	}
	for i, req := range pending {
		entry := ports.NameIndexEntry{
			Kind:           req.kind,
			EntityID:       req.id,
			NormalizedName: req.key,
			State:          req.state,
			Vector:         vectors[i],
		}
		if err := r.opts.index.Upsert(ctx, entry); err != nil {
			r.opts.logger.Warn().Err(err).Str("entity_id", req.id).Msg("indexing name failed")
		}
	}
}
