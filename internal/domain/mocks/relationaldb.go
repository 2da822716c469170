package mocks

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/ersonp/fishreg/internal/domain/entities"
	"github.com/ersonp/fishreg/internal/domain/ports"
)

// RelationalDB is an in-memory implementation of ports.RelationalDB.
// WithinTx snapshots the state and restores it when fn fails, so tests can
// observe rollback.
type RelationalDB struct {
	Contacts      map[string]*entities.Contact
	Organizations map[string]*entities.Organization
	Actions       map[string]*entities.Action
	Comments      map[string]*entities.Comment
	Audit         []entities.AuditEntry

	Err         error // Returned by every operation
	SaveErr     error // Returned by SaveContact
	ReassignErr error // Returned by ReassignComments
	DeleteErr   error // Returned by DeleteContact
	LogErr      error // Returned by LogAction

	// Call tracking
	WithinTxCallCount  int
	RollbackCount      int
	ListContactsLimits []int
	FindByIDCalls      int // Single-record Find*ByID calls
	FindByIDsCalls     int // Batched Find*ByIDs calls
}

// NewRelationalDB creates a new empty mock RelationalDB.
func NewRelationalDB() *RelationalDB {
	return &RelationalDB{
		Contacts:      make(map[string]*entities.Contact),
		Organizations: make(map[string]*entities.Organization),
		Actions:       make(map[string]*entities.Action),
		Comments:      make(map[string]*entities.Comment),
	}
}

var _ ports.RelationalDB = (*RelationalDB)(nil)

// EnsureSchema returns the configured error.
func (m *RelationalDB) EnsureSchema(_ context.Context) error {
	return m.Err
}

// Close closes the database connection.
func (m *RelationalDB) Close() error {
	return nil
}

// WithinTx runs fn against the mock and restores the previous state if fn fails.
func (m *RelationalDB) WithinTx(_ context.Context, fn func(store ports.EntityStore) error) error {
	m.WithinTxCallCount++
	snap := m.snapshot()
	if err := fn(m); err != nil {
		m.restore(snap)
		m.RollbackCount++
		return err
	}
	return nil
}

type snapshot struct {
	contacts      map[string]*entities.Contact
	organizations map[string]*entities.Organization
	actions       map[string]*entities.Action
	comments      map[string]*entities.Comment
	audit         []entities.AuditEntry
}

func (m *RelationalDB) snapshot() snapshot {
	s := snapshot{
		contacts:      make(map[string]*entities.Contact, len(m.Contacts)),
		organizations: make(map[string]*entities.Organization, len(m.Organizations)),
		actions:       make(map[string]*entities.Action, len(m.Actions)),
		comments:      make(map[string]*entities.Comment, len(m.Comments)),
		audit:         append([]entities.AuditEntry(nil), m.Audit...),
	}
	for k, v := range m.Contacts {
		s.contacts[k] = cloneContact(v)
	}
	for k, v := range m.Organizations {
		c := *v
		s.organizations[k] = &c
	}
	for k, v := range m.Actions {
		c := *v
		s.actions[k] = &c
	}
	for k, v := range m.Comments {
		c := *v
		s.comments[k] = &c
	}
	return s
}

func (m *RelationalDB) restore(s snapshot) {
	m.Contacts = s.contacts
	m.Organizations = s.organizations
	m.Actions = s.actions
	m.Comments = s.comments
	m.Audit = s.audit
}

// Contact methods.

// SaveContact inserts or updates a contact by ID.
func (m *RelationalDB) SaveContact(_ context.Context, contact *entities.Contact) error {
	if m.Err != nil {
		return m.Err
	}
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Contacts[contact.ID] = cloneContact(contact)
	return nil
}

// FindContactByID finds a contact by its ID.
func (m *RelationalDB) FindContactByID(_ context.Context, id string) (*entities.Contact, error) {
	m.FindByIDCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	c, ok := m.Contacts[id]
	if !ok {
		return nil, nil
	}
	return cloneContact(c), nil
}

// FindContactsByIDs loads the contacts with the given IDs, oldest first.
func (m *RelationalDB) FindContactsByIDs(_ context.Context, ids []string) ([]*entities.Contact, error) {
	m.FindByIDsCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	want := idSet(ids)
	var out []*entities.Contact
	for _, c := range m.sortedContacts() {
		if _, ok := want[c.ID]; ok {
			out = append(out, cloneContact(c))
		}
	}
	return out, nil
}

// FindOrganizationsByIDs loads the organizations with the given IDs, oldest first.
func (m *RelationalDB) FindOrganizationsByIDs(_ context.Context, ids []string) ([]*entities.Organization, error) {
	m.FindByIDsCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	want := idSet(ids)
	var out []*entities.Organization
	for _, o := range m.sortedOrganizations() {
		if _, ok := want[o.ID]; ok {
			c := *o
			out = append(out, &c)
		}
	}
	return out, nil
}

// FindActionsByIDs loads the actions with the given IDs, oldest first.
func (m *RelationalDB) FindActionsByIDs(_ context.Context, ids []string) ([]*entities.Action, error) {
	m.FindByIDsCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	want := idSet(ids)
	var out []*entities.Action
	for _, a := range m.sortedActions() {
		if _, ok := want[a.ID]; ok {
			c := *a
			out = append(out, &c)
		}
	}
	return out, nil
}

func idSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// FindContactByEmail finds the oldest contact with the given email.
func (m *RelationalDB) FindContactByEmail(_ context.Context, email string) (*entities.Contact, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	for _, c := range m.sortedContacts() {
		if c.Email != "" && strings.EqualFold(c.Email, strings.TrimSpace(email)) {
			return cloneContact(c), nil
		}
	}
	return nil, nil
}

// ListContactsByState lists up to limit contacts in a state, oldest first.
func (m *RelationalDB) ListContactsByState(_ context.Context, state string, limit int) ([]*entities.Contact, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var out []*entities.Contact
	for _, c := range m.sortedContacts() {
		if strings.EqualFold(c.State, state) {
			out = append(out, cloneContact(c))
		}
	}
	return window(out, limit, 0), nil
}

// ListContacts lists contacts oldest first.
func (m *RelationalDB) ListContacts(_ context.Context, limit, offset int) ([]*entities.Contact, error) {
	m.ListContactsLimits = append(m.ListContactsLimits, limit)
	if m.Err != nil {
		return nil, m.Err
	}
	sorted := m.sortedContacts()
	out := make([]*entities.Contact, len(sorted))
	for i, c := range sorted {
		out[i] = cloneContact(c)
	}
	return window(out, limit, offset), nil
}

// DeleteContact deletes a contact by ID.
func (m *RelationalDB) DeleteContact(_ context.Context, id string) error {
	if m.Err != nil {
		return m.Err
	}
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	delete(m.Contacts, id)
	return nil
}

// CountContacts returns the number of contacts.
func (m *RelationalDB) CountContacts(_ context.Context) (int, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	return len(m.Contacts), nil
}

// CountEmailDuplicateGroups counts emails shared by more than one contact.
func (m *RelationalDB) CountEmailDuplicateGroups(_ context.Context) (int, int, error) {
	if m.Err != nil {
		return 0, 0, m.Err
	}
	return countGroups(m.Contacts, func(c *entities.Contact) string {
		return strings.ToLower(strings.TrimSpace(c.Email))
	})
}

// CountNameStateDuplicateGroups counts (full name, state) pairs shared by
// more than one contact.
func (m *RelationalDB) CountNameStateDuplicateGroups(_ context.Context) (int, int, error) {
	if m.Err != nil {
		return 0, 0, m.Err
	}
	return countGroups(m.Contacts, func(c *entities.Contact) string {
		name := strings.ToLower(strings.TrimSpace(c.FullName))
		if name == "" || c.State == "" {
			return ""
		}
		return name + "|" + c.State
	})
}

// Organization methods.

// SaveOrganization inserts or updates an organization by ID.
func (m *RelationalDB) SaveOrganization(_ context.Context, org *entities.Organization) error {
	if m.Err != nil {
		return m.Err
	}
	c := *org
	m.Organizations[org.ID] = &c
	return nil
}

// FindOrganizationByID finds an organization by its ID.
func (m *RelationalDB) FindOrganizationByID(_ context.Context, id string) (*entities.Organization, error) {
	m.FindByIDCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	o, ok := m.Organizations[id]
	if !ok {
		return nil, nil
	}
	c := *o
	return &c, nil
}

// FindOrganizationByName finds the oldest organization with the given name, ignoring case.
func (m *RelationalDB) FindOrganizationByName(_ context.Context, name string) (*entities.Organization, error) {
	return m.findOrganization(func(o *entities.Organization) bool {
		return strings.EqualFold(o.Name, strings.TrimSpace(name))
	})
}

// FindOrganizationByNormalizedName finds the oldest organization with the given normalized name.
func (m *RelationalDB) FindOrganizationByNormalizedName(_ context.Context, normalized string) (*entities.Organization, error) {
	return m.findOrganization(func(o *entities.Organization) bool {
		return o.NormalizedName == normalized
	})
}

func (m *RelationalDB) findOrganization(match func(*entities.Organization) bool) (*entities.Organization, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	for _, o := range m.sortedOrganizations() {
		if match(o) {
			c := *o
			return &c, nil
		}
	}
	return nil, nil
}

// ListOrganizationsByState lists up to limit organizations in a state, oldest first.
func (m *RelationalDB) ListOrganizationsByState(_ context.Context, state string, limit int) ([]*entities.Organization, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var out []*entities.Organization
	for _, o := range m.sortedOrganizations() {
		if strings.EqualFold(o.State, state) {
			c := *o
			out = append(out, &c)
		}
	}
	return window(out, limit, 0), nil
}

// ListOrganizations lists organizations oldest first.
func (m *RelationalDB) ListOrganizations(_ context.Context, limit, offset int) ([]*entities.Organization, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	sorted := m.sortedOrganizations()
	out := make([]*entities.Organization, len(sorted))
	for i, o := range sorted {
		c := *o
		out[i] = &c
	}
	return window(out, limit, offset), nil
}

// Action methods.

// SaveAction inserts or updates an action by ID.
func (m *RelationalDB) SaveAction(_ context.Context, action *entities.Action) error {
	if m.Err != nil {
		return m.Err
	}
	c := *action
	m.Actions[action.ID] = &c
	return nil
}

// FindActionByID finds an action by its ID.
func (m *RelationalDB) FindActionByID(_ context.Context, id string) (*entities.Action, error) {
	m.FindByIDCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	a, ok := m.Actions[id]
	if !ok {
		return nil, nil
	}
	c := *a
	return &c, nil
}

// FindActionByTitle finds the oldest action with the given title, ignoring case.
func (m *RelationalDB) FindActionByTitle(_ context.Context, title string) (*entities.Action, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	for _, a := range m.sortedActions() {
		if strings.EqualFold(a.Title, strings.TrimSpace(title)) {
			c := *a
			return &c, nil
		}
	}
	return nil, nil
}

// ListActions lists actions oldest first.
func (m *RelationalDB) ListActions(_ context.Context, limit, offset int) ([]*entities.Action, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	sorted := m.sortedActions()
	out := make([]*entities.Action, len(sorted))
	for i, a := range sorted {
		c := *a
		out[i] = &c
	}
	return window(out, limit, offset), nil
}

// Comment methods.

// SaveComment inserts or updates a comment by ID.
func (m *RelationalDB) SaveComment(_ context.Context, comment *entities.Comment) error {
	if m.Err != nil {
		return m.Err
	}
	c := *comment
	m.Comments[comment.ID] = &c
	return nil
}

// FindCommentsByContact finds all comments referencing a contact, oldest first.
func (m *RelationalDB) FindCommentsByContact(_ context.Context, contactID string) ([]entities.Comment, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var out []entities.Comment
	for _, c := range m.Comments {
		if c.ContactID == contactID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return before(out[i].SubmittedAt, out[i].ID, out[j].SubmittedAt, out[j].ID)
	})
	return out, nil
}

// ReassignComments points comments referencing fromIDs at toID.
func (m *RelationalDB) ReassignComments(_ context.Context, fromIDs []string, toID string) (int, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	if m.ReassignErr != nil {
		return 0, m.ReassignErr
	}
	from := make(map[string]bool, len(fromIDs))
	for _, id := range fromIDs {
		from[id] = true
	}
	updated := 0
	for _, c := range m.Comments {
		if from[c.ContactID] {
			c.ContactID = toID
			updated++
		}
	}
	return updated, nil
}

// Audit methods.

// LogAction appends an entry to the audit log.
func (m *RelationalDB) LogAction(_ context.Context, action, entityID string, details map[string]any) error {
	if m.Err != nil {
		return m.Err
	}
	if m.LogErr != nil {
		return m.LogErr
	}
	m.Audit = append(m.Audit, entities.AuditEntry{
		ID:        int64(len(m.Audit) + 1),
		Action:    action,
		EntityID:  entityID,
		Details:   details,
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

// FindAuditLog finds audit log entries for a specific entity, newest first.
func (m *RelationalDB) FindAuditLog(_ context.Context, entityID string) ([]entities.AuditEntry, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var out []entities.AuditEntry
	for i := len(m.Audit) - 1; i >= 0; i-- {
		if m.Audit[i].EntityID == entityID {
			out = append(out, m.Audit[i])
		}
	}
	return out, nil
}

// Helpers.

func (m *RelationalDB) sortedContacts() []*entities.Contact {
	out := make([]*entities.Contact, 0, len(m.Contacts))
	for _, c := range m.Contacts {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return before(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID)
	})
	return out
}

func (m *RelationalDB) sortedOrganizations() []*entities.Organization {
	out := make([]*entities.Organization, 0, len(m.Organizations))
	for _, o := range m.Organizations {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		return before(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID)
	})
	return out
}

func (m *RelationalDB) sortedActions() []*entities.Action {
	out := make([]*entities.Action, 0, len(m.Actions))
	for _, a := range m.Actions {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		return before(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID)
	})
	return out
}

func before(a time.Time, aID string, b time.Time, bID string) bool {
	if !a.Equal(b) {
		return a.Before(b)
	}
	return aID < bID
}

func window[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func countGroups(contacts map[string]*entities.Contact, key func(*entities.Contact) string) (groups, surplus int, err error) {
	sizes := make(map[string]int)
	for _, c := range contacts {
		if k := key(c); k != "" {
			sizes[k]++
		}
	}
	for _, n := range sizes {
		if n > 1 {
			groups++
			surplus += n - 1
		}
	}
	return groups, surplus, nil
}

func cloneContact(c *entities.Contact) *entities.Contact {
	out := *c
	if c.FirstEngagement != nil {
		t := *c.FirstEngagement
		out.FirstEngagement = &t
	}
	if c.LastEngagement != nil {
		t := *c.LastEngagement
		out.LastEngagement = &t
	}
	return &out
}
