// Package sqlite provides a SQLite implementation of the RelationalDB interface.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/ersonp/fishreg/internal/domain/entities"
	"github.com/ersonp/fishreg/internal/domain/ports"
	"github.com/ersonp/fishreg/internal/infrastructure/config"
)

// timeNow returns the current time (can be mocked in tests).
var timeNow = func() time.Time { return time.Now().UTC() }

// querier is the subset of *sql.DB and *sql.Tx the repository runs statements through.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repository implements ports.RelationalDB using SQLite.
type Repository struct {
	db   *sql.DB
	q    querier
	tx   bool
	path string
}

var _ ports.RelationalDB = (*Repository)(nil)

// NewRepository creates a new SQLite repository.
func NewRepository(cfg config.SQLiteConfig) (*Repository, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// One connection: pragmas are per connection and an in-memory database
	// exists only on the connection that created it.
	db.SetMaxOpenConns(1)

	// Enable foreign keys for referential integrity
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	// Enable WAL mode for better concurrent read/write performance
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Set busy timeout to avoid "database is locked" errors
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	return &Repository{
		db:   db,
		q:    db,
		path: cfg.Path,
	}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Path returns the database file path.
func (r *Repository) Path() string {
	return r.path
}

// EnsureSchema creates the database schema if it doesn't exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	schema := `
	-- Organizations (commenters' employers and associations)
	CREATE TABLE IF NOT EXISTS organizations (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		normalized_name TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL DEFAULT '',
		state TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		total_comments INTEGER NOT NULL DEFAULT 0,
		total_meetings INTEGER NOT NULL DEFAULT 0,
		first_engagement TIMESTAMP,
		last_engagement TIMESTAMP,
		source_tag TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_organizations_normalized ON organizations(normalized_name);
	CREATE INDEX IF NOT EXISTS idx_organizations_state ON organizations(state, created_at);

	-- Contacts (individual people)
	CREATE TABLE IF NOT EXISTS contacts (
		id TEXT PRIMARY KEY,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		full_name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		state TEXT NOT NULL DEFAULT '',
		organization_id TEXT REFERENCES organizations(id),
		sector TEXT NOT NULL DEFAULT '',
		total_comments INTEGER NOT NULL DEFAULT 0,
		total_meetings INTEGER NOT NULL DEFAULT 0,
		first_engagement TIMESTAMP,
		last_engagement TIMESTAMP,
		source_tag TEXT NOT NULL DEFAULT '',
		verified INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_contacts_email ON contacts(email);
	CREATE INDEX IF NOT EXISTS idx_contacts_state ON contacts(state, created_at);
	CREATE INDEX IF NOT EXISTS idx_contacts_created ON contacts(created_at, id);

	-- Management actions (amendments, framework actions)
	CREATE TABLE IF NOT EXISTS actions (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		fmp TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT '',
		phase TEXT NOT NULL DEFAULT '',
		source_tag TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_actions_title ON actions(title);

	-- Public comments (reference contacts, organizations and actions)
	CREATE TABLE IF NOT EXISTS comments (
		id TEXT PRIMARY KEY,
		contact_id TEXT REFERENCES contacts(id),
		organization_id TEXT REFERENCES organizations(id),
		action_id TEXT REFERENCES actions(id),
		body TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL DEFAULT '',
		submitted_at TIMESTAMP NOT NULL,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_comments_contact ON comments(contact_id);
	CREATE INDEX IF NOT EXISTS idx_comments_organization ON comments(organization_id);
	CREATE INDEX IF NOT EXISTS idx_comments_action ON comments(action_id);

	-- Audit log (tracks creations and merges)
	CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		action TEXT NOT NULL,
		entity_id TEXT,
		details TEXT,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_audit_log_entity ON audit_log(entity_id);
	CREATE INDEX IF NOT EXISTS idx_audit_log_action ON audit_log(action);
	`

	_, err := r.q.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// WithinTx runs fn inside a transaction. Calls on a store that is already
// transactional join the running transaction.
func (r *Repository) WithinTx(ctx context.Context, fn func(store ports.EntityStore) error) error {
	if r.tx {
		return fn(r)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if err := fn(&Repository{db: r.db, q: tx, tx: true, path: r.path}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rolling back: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Contact operations.

const contactColumns = `id, first_name, last_name, full_name, email, phone, title, city, state,
	organization_id, sector, total_comments, total_meetings, first_engagement, last_engagement,
	source_tag, verified, created_at, updated_at`

// SaveContact inserts or updates a contact by ID.
func (r *Repository) SaveContact(ctx context.Context, c *entities.Contact) error {
	query := `
		INSERT INTO contacts (` + contactColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			full_name = excluded.full_name,
			email = excluded.email,
			phone = excluded.phone,
			title = excluded.title,
			city = excluded.city,
			state = excluded.state,
			organization_id = excluded.organization_id,
			sector = excluded.sector,
			total_comments = excluded.total_comments,
			total_meetings = excluded.total_meetings,
			first_engagement = excluded.first_engagement,
			last_engagement = excluded.last_engagement,
			source_tag = excluded.source_tag,
			verified = excluded.verified,
			updated_at = excluded.updated_at
	`
	_, err := r.q.ExecContext(ctx, query,
		c.ID,
		c.FirstName,
		c.LastName,
		c.FullName,
		c.Email,
		c.Phone,
		c.Title,
		c.City,
		c.State,
		nullString(c.OrganizationID),
		c.Sector,
		c.TotalComments,
		c.TotalMeetings,
		nullTime(c.FirstEngagement),
		nullTime(c.LastEngagement),
		c.SourceTag,
		c.Verified,
		c.CreatedAt.UTC(),
		c.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving contact: %w", err)
	}
	return nil
}

// FindContactByID finds a contact by its ID.
func (r *Repository) FindContactByID(ctx context.Context, id string) (*entities.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE id = ?`
	return r.queryContact(ctx, query, id)
}

// FindContactsByIDs loads the contacts with the given IDs, oldest first.
func (r *Repository) FindContactsByIDs(ctx context.Context, ids []string) ([]*entities.Contact, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `
		SELECT ` + contactColumns + `
		FROM contacts
		WHERE id IN (` + placeholders(len(ids)) + `)
		ORDER BY created_at, id
	`
	return r.queryContacts(ctx, query, anySlice(ids)...)
}

// FindContactByEmail finds the oldest contact with the given email (case-insensitive).
func (r *Repository) FindContactByEmail(ctx context.Context, email string) (*entities.Contact, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, nil
	}
	query := `
		SELECT ` + contactColumns + `
		FROM contacts
		WHERE email <> '' AND LOWER(email) = LOWER(?)
		ORDER BY created_at, id
		LIMIT 1
	`
	return r.queryContact(ctx, query, email)
}

// ListContactsByState lists up to limit contacts in a state, oldest first.
func (r *Repository) ListContactsByState(ctx context.Context, state string, limit int) ([]*entities.Contact, error) {
	query := `
		SELECT ` + contactColumns + `
		FROM contacts
		WHERE UPPER(state) = UPPER(?)
		ORDER BY created_at, id
		LIMIT ?
	`
	return r.queryContacts(ctx, query, state, sqlLimit(limit))
}

// ListContacts lists contacts oldest first. A limit <= 0 returns all of them.
func (r *Repository) ListContacts(ctx context.Context, limit, offset int) ([]*entities.Contact, error) {
	query := `
		SELECT ` + contactColumns + `
		FROM contacts
		ORDER BY created_at, id
		LIMIT ? OFFSET ?
	`
	return r.queryContacts(ctx, query, sqlLimit(limit), max(offset, 0))
}

// DeleteContact deletes a contact by ID.
func (r *Repository) DeleteContact(ctx context.Context, id string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting contact: %w", err)
	}
	return nil
}

// CountContacts returns the total number of contacts.
func (r *Repository) CountContacts(ctx context.Context) (int, error) {
	var count int
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM contacts`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting contacts: %w", err)
	}
	return count, nil
}

// CountEmailDuplicateGroups counts emails shared by more than one contact.
func (r *Repository) CountEmailDuplicateGroups(ctx context.Context) (int, int, error) {
	return r.countGroups(ctx, `
		SELECT COUNT(*) AS n
		FROM contacts
		WHERE TRIM(email) <> ''
		GROUP BY LOWER(TRIM(email))
		HAVING COUNT(*) > 1
	`)
}

// CountNameStateDuplicateGroups counts (full name, state) pairs shared by
// more than one contact.
func (r *Repository) CountNameStateDuplicateGroups(ctx context.Context) (int, int, error) {
	return r.countGroups(ctx, `
		SELECT COUNT(*) AS n
		FROM contacts
		WHERE TRIM(full_name) <> '' AND state <> ''
		GROUP BY LOWER(TRIM(full_name)), state
		HAVING COUNT(*) > 1
	`)
}

func (r *Repository) countGroups(ctx context.Context, grouped string) (groups, surplus int, err error) {
	query := `SELECT COUNT(*), COALESCE(SUM(n - 1), 0) FROM (` + grouped + `)`
	if err := r.q.QueryRowContext(ctx, query).Scan(&groups, &surplus); err != nil {
		return 0, 0, fmt.Errorf("counting duplicate groups: %w", err)
	}
	return groups, surplus, nil
}

func (r *Repository) queryContact(ctx context.Context, query string, args ...any) (*entities.Contact, error) {
	contacts, err := r.queryContacts(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(contacts) == 0 {
		return nil, nil
	}
	return contacts[0], nil
}

func (r *Repository) queryContacts(ctx context.Context, query string, args ...any) ([]*entities.Contact, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying contacts: %w", err)
	}
	defer rows.Close()

	var contacts []*entities.Contact
	for rows.Next() {
		var (
			c           entities.Contact
			orgID       sql.NullString
			first, last sql.NullTime
		)
		if err := rows.Scan(
			&c.ID,
			&c.FirstName,
			&c.LastName,
			&c.FullName,
			&c.Email,
			&c.Phone,
			&c.Title,
			&c.City,
			&c.State,
			&orgID,
			&c.Sector,
			&c.TotalComments,
			&c.TotalMeetings,
			&first,
			&last,
			&c.SourceTag,
			&c.Verified,
			&c.CreatedAt,
			&c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning contact: %w", err)
		}
		c.OrganizationID = orgID.String
		c.FirstEngagement = timePtr(first)
		c.LastEngagement = timePtr(last)
		contacts = append(contacts, &c)
	}
	return contacts, rows.Err()
}

// Organization operations.

const organizationColumns = `id, name, normalized_name, type, state, city, total_comments,
	total_meetings, first_engagement, last_engagement, source_tag, created_at, updated_at`

// SaveOrganization inserts or updates an organization by ID.
func (r *Repository) SaveOrganization(ctx context.Context, o *entities.Organization) error {
	query := `
		INSERT INTO organizations (` + organizationColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			normalized_name = excluded.normalized_name,
			type = excluded.type,
			state = excluded.state,
			city = excluded.city,
			total_comments = excluded.total_comments,
			total_meetings = excluded.total_meetings,
			first_engagement = excluded.first_engagement,
			last_engagement = excluded.last_engagement,
			source_tag = excluded.source_tag,
			updated_at = excluded.updated_at
	`
	_, err := r.q.ExecContext(ctx, query,
		o.ID,
		o.Name,
		o.NormalizedName,
		o.Type,
		o.State,
		o.City,
		o.TotalComments,
		o.TotalMeetings,
		nullTime(o.FirstEngagement),
		nullTime(o.LastEngagement),
		o.SourceTag,
		o.CreatedAt.UTC(),
		o.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving organization: %w", err)
	}
	return nil
}

// FindOrganizationByID finds an organization by its ID.
func (r *Repository) FindOrganizationByID(ctx context.Context, id string) (*entities.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE id = ?`
	return r.queryOrganization(ctx, query, id)
}

// FindOrganizationsByIDs loads the organizations with the given IDs, oldest first.
func (r *Repository) FindOrganizationsByIDs(ctx context.Context, ids []string) ([]*entities.Organization, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `
		SELECT ` + organizationColumns + `
		FROM organizations
		WHERE id IN (` + placeholders(len(ids)) + `)
		ORDER BY created_at, id
	`
	return r.queryOrganizations(ctx, query, anySlice(ids)...)
}

// FindOrganizationByName finds the oldest organization whose display name
// matches exactly, ignoring case.
func (r *Repository) FindOrganizationByName(ctx context.Context, name string) (*entities.Organization, error) {
	query := `
		SELECT ` + organizationColumns + `
		FROM organizations
		WHERE LOWER(name) = LOWER(?)
		ORDER BY created_at, id
		LIMIT 1
	`
	return r.queryOrganization(ctx, query, strings.TrimSpace(name))
}

// FindOrganizationByNormalizedName finds the oldest organization with the
// given cached normalized name.
func (r *Repository) FindOrganizationByNormalizedName(ctx context.Context, normalized string) (*entities.Organization, error) {
	if normalized == "" {
		return nil, nil
	}
	query := `
		SELECT ` + organizationColumns + `
		FROM organizations
		WHERE normalized_name = ?
		ORDER BY created_at, id
		LIMIT 1
	`
	return r.queryOrganization(ctx, query, normalized)
}

// ListOrganizationsByState lists up to limit organizations in a state, oldest first.
func (r *Repository) ListOrganizationsByState(ctx context.Context, state string, limit int) ([]*entities.Organization, error) {
	query := `
		SELECT ` + organizationColumns + `
		FROM organizations
		WHERE UPPER(state) = UPPER(?)
		ORDER BY created_at, id
		LIMIT ?
	`
	return r.queryOrganizations(ctx, query, state, sqlLimit(limit))
}

// ListOrganizations lists organizations oldest first. A limit <= 0 returns all.
func (r *Repository) ListOrganizations(ctx context.Context, limit, offset int) ([]*entities.Organization, error) {
	query := `
		SELECT ` + organizationColumns + `
		FROM organizations
		ORDER BY created_at, id
		LIMIT ? OFFSET ?
	`
	return r.queryOrganizations(ctx, query, sqlLimit(limit), max(offset, 0))
}

func (r *Repository) queryOrganization(ctx context.Context, query string, args ...any) (*entities.Organization, error) {
	orgs, err := r.queryOrganizations(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(orgs) == 0 {
		return nil, nil
	}
	return orgs[0], nil
}

func (r *Repository) queryOrganizations(ctx context.Context, query string, args ...any) ([]*entities.Organization, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying organizations: %w", err)
	}
	defer rows.Close()

	var orgs []*entities.Organization
	for rows.Next() {
		var (
			o           entities.Organization
			first, last sql.NullTime
		)
		if err := rows.Scan(
			&o.ID,
			&o.Name,
			&o.NormalizedName,
			&o.Type,
			&o.State,
			&o.City,
			&o.TotalComments,
			&o.TotalMeetings,
			&first,
			&last,
			&o.SourceTag,
			&o.CreatedAt,
			&o.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning organization: %w", err)
		}
		o.FirstEngagement = timePtr(first)
		o.LastEngagement = timePtr(last)
		orgs = append(orgs, &o)
	}
	return orgs, rows.Err()
}

// Action operations.

const actionColumns = `id, title, fmp, description, status, phase, source_tag, created_at, updated_at`

// SaveAction inserts or updates an action by ID.
func (r *Repository) SaveAction(ctx context.Context, a *entities.Action) error {
	query := `
		INSERT INTO actions (` + actionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			fmp = excluded.fmp,
			description = excluded.description,
			status = excluded.status,
			phase = excluded.phase,
			source_tag = excluded.source_tag,
			updated_at = excluded.updated_at
	`
	_, err := r.q.ExecContext(ctx, query,
		a.ID,
		a.Title,
		a.FMP,
		a.Description,
		a.Status,
		a.Phase,
		a.SourceTag,
		a.CreatedAt.UTC(),
		a.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving action: %w", err)
	}
	return nil
}

// FindActionByID finds an action by its ID.
func (r *Repository) FindActionByID(ctx context.Context, id string) (*entities.Action, error) {
	query := `SELECT ` + actionColumns + ` FROM actions WHERE id = ?`
	return r.queryAction(ctx, query, id)
}

// FindActionsByIDs loads the actions with the given IDs, oldest first.
func (r *Repository) FindActionsByIDs(ctx context.Context, ids []string) ([]*entities.Action, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `
		SELECT ` + actionColumns + `
		FROM actions
		WHERE id IN (` + placeholders(len(ids)) + `)
		ORDER BY created_at, id
	`
	return r.queryActions(ctx, query, anySlice(ids)...)
}

// FindActionByTitle finds the oldest action whose title matches exactly, ignoring case.
func (r *Repository) FindActionByTitle(ctx context.Context, title string) (*entities.Action, error) {
	query := `
		SELECT ` + actionColumns + `
		FROM actions
		WHERE LOWER(title) = LOWER(?)
		ORDER BY created_at, id
		LIMIT 1
	`
	return r.queryAction(ctx, query, strings.TrimSpace(title))
}

// ListActions lists actions oldest first. A limit <= 0 returns all.
func (r *Repository) ListActions(ctx context.Context, limit, offset int) ([]*entities.Action, error) {
	query := `
		SELECT ` + actionColumns + `
		FROM actions
		ORDER BY created_at, id
		LIMIT ? OFFSET ?
	`
	return r.queryActions(ctx, query, sqlLimit(limit), max(offset, 0))
}

func (r *Repository) queryAction(ctx context.Context, query string, args ...any) (*entities.Action, error) {
	actions, err := r.queryActions(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(actions) == 0 {
		return nil, nil
	}
	return actions[0], nil
}

func (r *Repository) queryActions(ctx context.Context, query string, args ...any) ([]*entities.Action, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying actions: %w", err)
	}
	defer rows.Close()

	var actions []*entities.Action
	for rows.Next() {
		var a entities.Action
		if err := rows.Scan(
			&a.ID,
			&a.Title,
			&a.FMP,
			&a.Description,
			&a.Status,
			&a.Phase,
			&a.SourceTag,
			&a.CreatedAt,
			&a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning action: %w", err)
		}
		actions = append(actions, &a)
	}
	return actions, rows.Err()
}

// Comment operations.

// SaveComment inserts or updates a comment by ID.
func (r *Repository) SaveComment(ctx context.Context, c *entities.Comment) error {
	query := `
		INSERT INTO comments (id, contact_id, organization_id, action_id, body, source, submitted_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			contact_id = excluded.contact_id,
			organization_id = excluded.organization_id,
			action_id = excluded.action_id,
			body = excluded.body,
			source = excluded.source,
			submitted_at = excluded.submitted_at
	`
	_, err := r.q.ExecContext(ctx, query,
		c.ID,
		nullString(c.ContactID),
		nullString(c.OrganizationID),
		nullString(c.ActionID),
		c.Body,
		c.Source,
		c.SubmittedAt.UTC(),
		c.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving comment: %w", err)
	}
	return nil
}

// FindCommentsByContact finds all comments referencing a contact.
func (r *Repository) FindCommentsByContact(ctx context.Context, contactID string) ([]entities.Comment, error) {
	query := `
		SELECT id, contact_id, organization_id, action_id, body, source, submitted_at, created_at
		FROM comments
		WHERE contact_id = ?
		ORDER BY submitted_at, id
	`
	rows, err := r.q.QueryContext(ctx, query, contactID)
	if err != nil {
		return nil, fmt.Errorf("querying comments: %w", err)
	}
	defer rows.Close()

	var comments []entities.Comment
	for rows.Next() {
		var (
			c                    entities.Comment
			contact, org, action sql.NullString
		)
		if err := rows.Scan(
			&c.ID,
			&contact,
			&org,
			&action,
			&c.Body,
			&c.Source,
			&c.SubmittedAt,
			&c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning comment: %w", err)
		}
		c.ContactID = contact.String
		c.OrganizationID = org.String
		c.ActionID = action.String
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// ReassignComments points every comment referencing one of fromIDs at toID.
func (r *Repository) ReassignComments(ctx context.Context, fromIDs []string, toID string) (int, error) {
	if len(fromIDs) == 0 {
		return 0, nil
	}

	placeholders := make([]string, len(fromIDs))
	args := make([]any, 0, len(fromIDs)+1)
	args = append(args, toID)
	for i, id := range fromIDs {
		placeholders[i] = "?"
		args = append(args, id)
	}

	query := fmt.Sprintf(
		`UPDATE comments SET contact_id = ? WHERE contact_id IN (%s)`,
		strings.Join(placeholders, ", "),
	)
	result, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("reassigning comments: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting reassigned comments: %w", err)
	}
	return int(n), nil
}

// Audit operations.

// LogAction logs an action to the audit log.
func (r *Repository) LogAction(ctx context.Context, action string, entityID string, details map[string]any) error {
	var detailsJSON sql.NullString
	if details != nil {
		data, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("marshaling details: %w", err)
		}
		detailsJSON = sql.NullString{String: string(data), Valid: true}
	}

	query := `INSERT INTO audit_log (action, entity_id, details, created_at) VALUES (?, ?, ?, ?)`
	_, err := r.q.ExecContext(ctx, query, action, nullString(entityID), detailsJSON, timeNow())
	if err != nil {
		return fmt.Errorf("logging action: %w", err)
	}
	return nil
}

// FindAuditLog finds audit log entries for a specific entity, newest first.
func (r *Repository) FindAuditLog(ctx context.Context, entityID string) ([]entities.AuditEntry, error) {
	query := `
		SELECT id, action, entity_id, details, created_at
		FROM audit_log
		WHERE entity_id = ?
		ORDER BY id DESC
	`
	return r.queryAuditLog(ctx, query, entityID)
}

// FindAuditLogByAction finds the most recent audit log entries of one action type.
func (r *Repository) FindAuditLogByAction(ctx context.Context, action string, limit int) ([]entities.AuditEntry, error) {
	query := `
		SELECT id, action, entity_id, details, created_at
		FROM audit_log
		WHERE action = ?
		ORDER BY id DESC
		LIMIT ?
	`
	return r.queryAuditLog(ctx, query, action, sqlLimit(limit))
}

// queryAuditLog is a helper to execute audit log queries.
func (r *Repository) queryAuditLog(ctx context.Context, query string, args ...any) ([]entities.AuditEntry, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	defer rows.Close()

	var entries []entities.AuditEntry
	for rows.Next() {
		var entry entities.AuditEntry
		var entityID, details sql.NullString

		if err := rows.Scan(
			&entry.ID,
			&entry.Action,
			&entityID,
			&details,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}

		entry.EntityID = entityID.String

		if details.Valid && details.String != "" {
			if err := json.Unmarshal([]byte(details.String), &entry.Details); err != nil {
				return nil, fmt.Errorf("unmarshaling details: %w", err)
			}
		}

		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// sqlLimit maps "no limit" (<= 0) to SQLite's LIMIT -1.
func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

// placeholders returns n comma-separated bind markers.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func anySlice(ids []string) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
