package ports

import (
	"context"

	"github.com/ersonp/fishreg/internal/domain/entities"
)

// EntityStore defines the persistence operations over contacts, organizations,
// actions and the comments that reference them. Lookups that find nothing
// return a nil entity and a nil error.
type EntityStore interface {
	// Contact operations

	// SaveContact inserts or updates a contact by ID.
	SaveContact(ctx context.Context, contact *entities.Contact) error

	// FindContactByID finds a contact by its ID.
	FindContactByID(ctx context.Context, id string) (*entities.Contact, error)

	// FindContactsByIDs loads the contacts with the given IDs, oldest first.
	// Unknown IDs are skipped.
	FindContactsByIDs(ctx context.Context, ids []string) ([]*entities.Contact, error)

	// FindContactByEmail finds the oldest contact with the given email (case-insensitive).
	FindContactByEmail(ctx context.Context, email string) (*entities.Contact, error)

	// ListContactsByState lists up to limit contacts in a state, oldest first.
	// The state comparison ignores case.
	ListContactsByState(ctx context.Context, state string, limit int) ([]*entities.Contact, error)

	// ListContacts lists contacts oldest first. A limit <= 0 returns all of them.
	ListContacts(ctx context.Context, limit, offset int) ([]*entities.Contact, error)

	// DeleteContact deletes a contact by ID.
	DeleteContact(ctx context.Context, id string) error

	// CountContacts returns the total number of contacts.
	CountContacts(ctx context.Context) (int, error)

	// CountEmailDuplicateGroups counts emails shared by more than one contact.
	// surplus is the number of contacts beyond the first in each group.
	CountEmailDuplicateGroups(ctx context.Context) (groups, surplus int, err error)

	// CountNameStateDuplicateGroups counts (full name, state) pairs shared by
	// more than one contact.
	CountNameStateDuplicateGroups(ctx context.Context) (groups, surplus int, err error)

	// Organization operations

	// SaveOrganization inserts or updates an organization by ID.
	SaveOrganization(ctx context.Context, org *entities.Organization) error

	// FindOrganizationByID finds an organization by its ID.
	FindOrganizationByID(ctx context.Context, id string) (*entities.Organization, error)

	// FindOrganizationsByIDs loads the organizations with the given IDs, oldest first.
	FindOrganizationsByIDs(ctx context.Context, ids []string) ([]*entities.Organization, error)

	// FindOrganizationByName finds the oldest organization whose display name
	// matches exactly, ignoring case.
	FindOrganizationByName(ctx context.Context, name string) (*entities.Organization, error)

	// FindOrganizationByNormalizedName finds the oldest organization with the
	// given cached normalized name.
	FindOrganizationByNormalizedName(ctx context.Context, normalized string) (*entities.Organization, error)

	// ListOrganizationsByState lists up to limit organizations in a state, oldest first.
	ListOrganizationsByState(ctx context.Context, state string, limit int) ([]*entities.Organization, error)

	// ListOrganizations lists organizations oldest first. A limit <= 0 returns all.
	ListOrganizations(ctx context.Context, limit, offset int) ([]*entities.Organization, error)

	// Action operations

	// SaveAction inserts or updates an action by ID.
	SaveAction(ctx context.Context, action *entities.Action) error

	// FindActionByID finds an action by its ID.
	FindActionByID(ctx context.Context, id string) (*entities.Action, error)

	// FindActionsByIDs loads the actions with the given IDs, oldest first.
	FindActionsByIDs(ctx context.Context, ids []string) ([]*entities.Action, error)

	// FindActionByTitle finds the oldest action whose title matches exactly, ignoring case.
	FindActionByTitle(ctx context.Context, title string) (*entities.Action, error)

	// ListActions lists actions oldest first. A limit <= 0 returns all.
	ListActions(ctx context.Context, limit, offset int) ([]*entities.Action, error)

	// Comment operations

	// SaveComment inserts or updates a comment by ID.
	SaveComment(ctx context.Context, comment *entities.Comment) error

	// FindCommentsByContact finds all comments referencing a contact.
	FindCommentsByContact(ctx context.Context, contactID string) ([]entities.Comment, error)

	// ReassignComments points every comment referencing one of fromIDs at toID
	// and returns the number of comments updated.
	ReassignComments(ctx context.Context, fromIDs []string, toID string) (int, error)

	// Audit operations

	// LogAction logs an action to the audit log.
	LogAction(ctx context.Context, action string, entityID string, details map[string]any) error

	// FindAuditLog finds audit log entries for a specific entity.
	FindAuditLog(ctx context.Context, entityID string) ([]entities.AuditEntry, error)
}

// RelationalDB is an EntityStore that owns its connection and can run a unit of work.
type RelationalDB interface {
	EntityStore

	// EnsureSchema creates the database schema if it doesn't exist.
	EnsureSchema(ctx context.Context) error

	// Close closes the database connection.
	Close() error

	// WithinTx runs fn inside a transaction. The store handed to fn must be
	// used for every read and write of the unit of work. A non-nil error from
	// fn rolls the transaction back; otherwise it is committed.
	WithinTx(ctx context.Context, fn func(store EntityStore) error) error
}
