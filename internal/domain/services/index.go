package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/ersonp/fishreg/internal/domain/entities"
	"github.com/ersonp/fishreg/internal/domain/ports"
)

// ErrNameIndexDisabled is returned when index maintenance runs without an index.
var ErrNameIndexDisabled = errors.New("name index is not configured")

// IndexStats counts the names loaded by a rebuild.
type IndexStats struct {
	Contacts      int `json:"contacts"`
	Organizations int `json:"organizations"`
	Actions       int `json:"actions"`
}

// IndexService maintains the name index used by the global matching stage.
type IndexService struct {
	store ports.EntityStore
	opts  options
}

// NewIndexService creates a new IndexService. Pass WithNameIndex to enable it.
func NewIndexService(store ports.EntityStore, opts ...Option) *IndexService {
	return &IndexService{
		store: store,
		opts:  buildOptions(opts),
	}
}

// Rebuild drops the index and reloads every stored name into it.
func (s *IndexService) Rebuild(ctx context.Context) (*IndexStats, error) {
	if s.opts.index == nil {
		return nil, ErrNameIndexDisabled
	}

	if err := s.opts.index.DeleteCollection(ctx); err != nil {
		return nil, fmt.Errorf("deleting name index: %w", err)
	}
	if err := s.opts.index.EnsureCollection(ctx, s.opts.embedder.Dimensions()); err != nil {
		return nil, fmt.Errorf("creating name index: %w", err)
	}

	var pending []indexRequest
	stats := &IndexStats{}

	contacts, err := s.store.ListContacts(ctx, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("listing contacts: %w", err)
	}
	for _, c := range contacts {
		pending = append(pending, indexRequest{kind: entities.KindContact, id: c.ID, key: c.NormalizedName(), state: c.State})
	}
	stats.Contacts = len(contacts)

	orgs, err := s.store.ListOrganizations(ctx, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("listing organizations: %w", err)
	}
	for _, o := range orgs {
		pending = append(pending, indexRequest{kind: entities.KindOrganization, id: o.ID, key: organizationKey(o), state: o.State})
	}
	stats.Organizations = len(orgs)

	actions, err := s.store.ListActions(ctx, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("listing actions: %w", err)
	}
	for _, a := range actions {
		pending = append(pending, indexRequest{kind: entities.KindAction, id: a.ID, key: a.Slug()})
	}
	stats.Actions = len(actions)

	if err := s.load(ctx, pending); err != nil {
		return nil, err
	}

	s.opts.logger.Info().
		Int("contacts", stats.Contacts).
		Int("organizations", stats.Organizations).
		Int("actions", stats.Actions).
		Msg("rebuilt name index")
	return stats, nil
}

// indexBatchSize bounds the names embedded per call.
const indexBatchSize = 256

func (s *IndexService) load(ctx context.Context, pending []indexRequest) error {
	for start := 0; start < len(pending); start += indexBatchSize {
		batch := pending[start:min(start+indexBatchSize, len(pending))]
		keys := make([]string, len(batch))
		for i, req := range batch {
			keys[i] = req.key
		}
		vectors, err := s.opts.embedder.EmbedBatch(ctx, keys)
		if err != nil {
			return fmt.Errorf("embedding names: %w", err)
		}
		for i, req := range batch {
			err := s.opts.index.Upsert(ctx, ports.NameIndexEntry{
				Kind:           req.kind,
				EntityID:       req.id,
				NormalizedName: req.key,
				State:          req.state,
				Vector:         vectors[i],
			})
			if err != nil {
				return fmt.Errorf("indexing %s %s: %w", req.kind, req.id, err)
			}
		}
	}
	return nil
}
