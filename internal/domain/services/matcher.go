package services

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/ersonp/fishreg/internal/domain/entities"
	"github.com/ersonp/fishreg/internal/domain/ports"
)

// Acceptance thresholds on the 0..100 similarity scale.
const (
	ContactMatchThreshold      = 85
	OrganizationMatchThreshold = 85
	ActionMatchThreshold       = 90
)

// Default caps on the number of entities scored per stage.
const (
	DefaultScopedScanLimit = 100
	DefaultGlobalScanLimit = 500
)

// MatcherConfig holds per-kind thresholds and scan caps.
type MatcherConfig struct {
	ContactThreshold      int
	OrganizationThreshold int
	ActionThreshold       int
	ScopedScanLimit       int
	GlobalScanLimit       int
}

// DefaultMatcherConfig returns the standard thresholds and caps.
func DefaultMatcherConfig() MatcherConfig {
	return MatcherConfig{
		ContactThreshold:      ContactMatchThreshold,
		OrganizationThreshold: OrganizationMatchThreshold,
		ActionThreshold:       ActionMatchThreshold,
		ScopedScanLimit:       DefaultScopedScanLimit,
		GlobalScanLimit:       DefaultGlobalScanLimit,
	}
}

func (c MatcherConfig) withDefaults() MatcherConfig {
	def := DefaultMatcherConfig()
	if c.ContactThreshold <= 0 {
		c.ContactThreshold = def.ContactThreshold
	}
	if c.OrganizationThreshold <= 0 {
		c.OrganizationThreshold = def.OrganizationThreshold
	}
	if c.ActionThreshold <= 0 {
		c.ActionThreshold = def.ActionThreshold
	}
	if c.ScopedScanLimit <= 0 {
		c.ScopedScanLimit = def.ScopedScanLimit
	}
	if c.GlobalScanLimit <= 0 {
		c.GlobalScanLimit = def.GlobalScanLimit
	}
	return c
}

// MatchStage names the search stage that produced a match.
type MatchStage string

// Search stages, in the order they are tried.
const (
	StageExact  MatchStage = "exact"
	StageScoped MatchStage = "scoped"
	StageGlobal MatchStage = "global"
)

// Match is an existing entity that a candidate resolved to.
type Match[T any] struct {
	Entity T
	Score  int
	Stage  MatchStage
}

// MatchQuery describes a candidate to the matcher. Key, Email and State must
// already be normalized.
type MatchQuery struct {
	Name  string // Raw display name, or title for actions
	Key   string // Normalized comparison key
	Email string
	State string
}

// Matcher searches existing entities for the best match to a candidate.
// It never writes to the store.
type Matcher struct {
	store    ports.EntityStore
	cfg      MatcherConfig
	index    ports.NameIndex
	embedder ports.Embedder
	logger   zerolog.Logger
}

// NewMatcher creates a Matcher reading from store.
func NewMatcher(store ports.EntityStore, cfg MatcherConfig) *Matcher {
	return &Matcher{
		store:  store,
		cfg:    cfg.withDefaults(),
		logger: zerolog.Nop(),
	}
}

// WithNameIndex draws the global stage population from a name index.
func (m *Matcher) WithNameIndex(index ports.NameIndex, embedder ports.Embedder) *Matcher {
	m.index = index
	m.embedder = embedder
	return m
}

// WithLogger sets the matcher's logger.
func (m *Matcher) WithLogger(logger zerolog.Logger) *Matcher {
	m.logger = logger
	return m
}

// MatchContact finds the contact a candidate denotes, or nil.
// Candidates and contacts that both carry different emails never match.
func (m *Matcher) MatchContact(ctx context.Context, q MatchQuery) (*Match[*entities.Contact], error) {
	if q.Email != "" {
		contact, err := m.store.FindContactByEmail(ctx, q.Email)
		if err != nil {
			return nil, fmt.Errorf("finding contact by email: %w", err)
		}
		if contact != nil {
			return hit(m, entities.KindContact, contact.ID, contact, 100, StageExact), nil
		}
	}
	if q.Key == "" {
		return nil, nil
	}

	score := func(c *entities.Contact) (int, bool) {
		if q.Email != "" && c.Email != "" && entities.NormalizeEmail(c.Email) != q.Email {
			return 0, false
		}
		return Similarity(q.Key, c.NormalizedName()), true
	}

	if q.State != "" {
		population, err := m.store.ListContactsByState(ctx, q.State, m.cfg.ScopedScanLimit)
		if err != nil {
			return nil, fmt.Errorf("listing contacts by state: %w", err)
		}
		if best, s, ok := pickBest(population, score, contactAge); ok && s >= m.cfg.ContactThreshold {
			return hit(m, entities.KindContact, best.ID, best, s, StageScoped), nil
		}
	}

	population, err := m.globalContacts(ctx, q.Key)
	if err != nil {
		return nil, err
	}
	if best, s, ok := pickBest(population, score, contactAge); ok && s >= m.cfg.ContactThreshold {
		return hit(m, entities.KindContact, best.ID, best, s, StageGlobal), nil
	}
	return nil, nil
}

// MatchOrganization finds the organization a candidate denotes, or nil.
func (m *Matcher) MatchOrganization(ctx context.Context, q MatchQuery) (*Match[*entities.Organization], error) {
	if q.Name != "" {
		org, err := m.store.FindOrganizationByName(ctx, q.Name)
		if err != nil {
			return nil, fmt.Errorf("finding organization by name: %w", err)
		}
		if org != nil {
			return hit(m, entities.KindOrganization, org.ID, org, 100, StageExact), nil
		}
	}
	if q.Key == "" {
		return nil, nil
	}
	org, err := m.store.FindOrganizationByNormalizedName(ctx, q.Key)
	if err != nil {
		return nil, fmt.Errorf("finding organization by normalized name: %w", err)
	}
	if org != nil {
		return hit(m, entities.KindOrganization, org.ID, org, 100, StageExact), nil
	}

	score := func(o *entities.Organization) (int, bool) {
		return Similarity(q.Key, organizationKey(o)), true
	}

	if q.State != "" {
		population, err := m.store.ListOrganizationsByState(ctx, q.State, m.cfg.ScopedScanLimit)
		if err != nil {
			return nil, fmt.Errorf("listing organizations by state: %w", err)
		}
		if best, s, ok := pickBest(population, score, organizationAge); ok && s >= m.cfg.OrganizationThreshold {
			return hit(m, entities.KindOrganization, best.ID, best, s, StageScoped), nil
		}
	}

	population, err := m.globalOrganizations(ctx, q.Key)
	if err != nil {
		return nil, err
	}
	if best, s, ok := pickBest(population, score, organizationAge); ok && s >= m.cfg.OrganizationThreshold {
		return hit(m, entities.KindOrganization, best.ID, best, s, StageGlobal), nil
	}
	return nil, nil
}

// MatchAction finds the action a candidate title denotes, or nil.
// Titles carrying different numbers never match.
func (m *Matcher) MatchAction(ctx context.Context, q MatchQuery) (*Match[*entities.Action], error) {
	if q.Name != "" {
		action, err := m.store.FindActionByTitle(ctx, q.Name)
		if err != nil {
			return nil, fmt.Errorf("finding action by title: %w", err)
		}
		if action != nil {
			return hit(m, entities.KindAction, action.ID, action, 100, StageExact), nil
		}
	}
	if q.Key == "" {
		return nil, nil
	}
	action, err := m.store.FindActionByID(ctx, entities.GenerateID(entities.ActionIDPrefix, q.Key))
	if err != nil {
		return nil, fmt.Errorf("finding action by id: %w", err)
	}
	if action != nil {
		return hit(m, entities.KindAction, action.ID, action, 100, StageExact), nil
	}

	numbers := entities.NumericTokens(q.Key)
	score := func(a *entities.Action) (int, bool) {
		if !slices.Equal(entities.NumericTokens(a.Title), numbers) {
			return 0, false
		}
		return Similarity(q.Key, a.Slug()), true
	}

	population, err := m.globalActions(ctx, q.Key)
	if err != nil {
		return nil, err
	}
	if best, s, ok := pickBest(population, score, actionAge); ok && s >= m.cfg.ActionThreshold {
		return hit(m, entities.KindAction, best.ID, best, s, StageGlobal), nil
	}
	return nil, nil
}

func (m *Matcher) globalContacts(ctx context.Context, key string) ([]*entities.Contact, error) {
	if ids := m.nearest(ctx, entities.KindContact, key); len(ids) > 0 {
		population, err := m.store.FindContactsByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("loading indexed contacts: %w", err)
		}
		return population, nil
	}
	population, err := m.store.ListContacts(ctx, m.cfg.GlobalScanLimit, 0)
	if err != nil {
		return nil, fmt.Errorf("listing contacts: %w", err)
	}
	return population, nil
}

func (m *Matcher) globalOrganizations(ctx context.Context, key string) ([]*entities.Organization, error) {
	if ids := m.nearest(ctx, entities.KindOrganization, key); len(ids) > 0 {
		population, err := m.store.FindOrganizationsByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("loading indexed organizations: %w", err)
		}
		return population, nil
	}
	population, err := m.store.ListOrganizations(ctx, m.cfg.GlobalScanLimit, 0)
	if err != nil {
		return nil, fmt.Errorf("listing organizations: %w", err)
	}
	return population, nil
}

func (m *Matcher) globalActions(ctx context.Context, key string) ([]*entities.Action, error) {
	if ids := m.nearest(ctx, entities.KindAction, key); len(ids) > 0 {
		population, err := m.store.FindActionsByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("loading indexed actions: %w", err)
		}
		return population, nil
	}
	population, err := m.store.ListActions(ctx, m.cfg.GlobalScanLimit, 0)
	if err != nil {
		return nil, fmt.Errorf("listing actions: %w", err)
	}
	return population, nil
}

// nearest asks the name index for the global population. A nil result means
// the caller falls back to scanning the oldest rows.
func (m *Matcher) nearest(ctx context.Context, kind entities.Kind, key string) []string {
	if m.index == nil || m.embedder == nil {
		return nil
	}
	vector, err := m.embedder.Embed(ctx, key)
	if err != nil {
		m.logger.Warn().Err(err).Str("kind", string(kind)).Msg("embedding name for index search failed")
		return nil
	}
	ids, err := m.index.Search(ctx, kind, vector, m.cfg.GlobalScanLimit)
	if err != nil {
		m.logger.Warn().Err(err).Str("kind", string(kind)).Msg("name index search failed, scanning instead")
		return nil
	}
	return ids
}

func hit[T any](m *Matcher, kind entities.Kind, id string, entity T, score int, stage MatchStage) *Match[T] {
	m.logHit(kind, id, score, stage)
	return &Match[T]{Entity: entity, Score: score, Stage: stage}
}

func (m *Matcher) logHit(kind entities.Kind, id string, score int, stage MatchStage) {
	m.logger.Debug().
		Str("kind", string(kind)).
		Str("entity_id", id).
		Int("score", score).
		Str("stage", string(stage)).
		Msg("candidate matched existing entity")
}

// pickBest returns the highest scoring entity. Equal scores keep the oldest
// entity, then the lowest ID, so the outcome does not depend on population order.
func pickBest[T any](population []T, score func(T) (int, bool), age func(T) (time.Time, string)) (best T, bestScore int, found bool) {
	var bestAt time.Time
	var bestID string
	for _, e := range population {
		s, ok := score(e)
		if !ok {
			continue
		}
		at, id := age(e)
		if !found || s > bestScore || (s == bestScore && older(at, id, bestAt, bestID)) {
			best, bestScore, bestAt, bestID, found = e, s, at, id, true
		}
	}
	return best, bestScore, found
}

func older(at time.Time, id string, than time.Time, thanID string) bool {
	if !at.Equal(than) {
		return at.Before(than)
	}
	return id < thanID
}

func contactAge(c *entities.Contact) (time.Time, string) { return c.CreatedAt, c.ID }

func organizationAge(o *entities.Organization) (time.Time, string) { return o.CreatedAt, o.ID }

func actionAge(a *entities.Action) (time.Time, string) { return a.CreatedAt, a.ID }

func organizationKey(o *entities.Organization) string {
	if o.NormalizedName != "" {
		return o.NormalizedName
	}
	return entities.NormalizeName(o.Name)
}
