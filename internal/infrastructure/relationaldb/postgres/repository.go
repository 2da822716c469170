// Package postgres provides a PostgreSQL implementation of the RelationalDB
// interface built on GORM.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/ersonp/fishreg/internal/domain/entities"
	"github.com/ersonp/fishreg/internal/domain/ports"
	"github.com/ersonp/fishreg/internal/infrastructure/config"
)

// timeNow returns the current time (can be mocked in tests).
var timeNow = func() time.Time { return time.Now().UTC() }

// Repository implements ports.RelationalDB using PostgreSQL.
type Repository struct {
	db    *gorm.DB
	sqlDB *sql.DB
	tx    bool
}

var _ ports.RelationalDB = (*Repository)(nil)

// NewRepository opens a connection pool and verifies it with a ping.
// logLevel is the application log level; GORM's own logging follows it.
func NewRepository(ctx context.Context, cfg config.PostgresConfig, logLevel string) (*Repository, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("postgres url is required")
	}

	gdb, err := gorm.Open(postgres.Open(cfg.URL), &gorm.Config{
		Logger: logger.Default.LogMode(resolveGormLogLevel(logLevel)),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("opening postgres database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql db: %w", err)
	}

	maxOpen := cfg.MaxConns
	if maxOpen <= 0 {
		maxOpen = 8
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(max(1, min(cfg.MinConns, maxOpen)))
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &Repository{db: gdb, sqlDB: sqlDB}, nil
}

// Close closes the connection pool.
func (r *Repository) Close() error {
	if r.sqlDB == nil {
		return nil
	}
	return r.sqlDB.Close()
}

// EnsureSchema creates or migrates the tables.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(autoMigrateModels()...); err != nil {
		return fmt.Errorf("auto-migrating schema: %w", err)
	}
	return nil
}

// WithinTx runs fn inside a transaction. Calls on a store that is already
// transactional join the running transaction.
func (r *Repository) WithinTx(ctx context.Context, fn func(store ports.EntityStore) error) error {
	if r.tx {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx, sqlDB: r.sqlDB, tx: true})
	})
}

// Contact operations.

var contactUpdateColumns = []string{
	"first_name", "last_name", "full_name", "email", "phone", "title", "city", "state",
	"organization_id", "sector", "total_comments", "total_meetings", "first_engagement",
	"last_engagement", "source_tag", "verified", "updated_at",
}

// SaveContact inserts or updates a contact by ID.
func (r *Repository) SaveContact(ctx context.Context, c *entities.Contact) error {
	err := r.db.WithContext(ctx).
		Clauses(upsert(contactUpdateColumns)).
		Create(toContactModel(c)).Error
	if err != nil {
		return fmt.Errorf("saving contact: %w", err)
	}
	return nil
}

// FindContactByID finds a contact by its ID.
func (r *Repository) FindContactByID(ctx context.Context, id string) (*entities.Contact, error) {
	return r.takeContact(r.db.WithContext(ctx).Where("id = ?", id))
}

// FindContactsByIDs loads the contacts with the given IDs, oldest first.
func (r *Repository) FindContactsByIDs(ctx context.Context, ids []string) ([]*entities.Contact, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.findContacts(r.db.WithContext(ctx).Where("id IN ?", ids))
}

// FindContactByEmail finds the oldest contact with the given email (case-insensitive).
func (r *Repository) FindContactByEmail(ctx context.Context, email string) (*entities.Contact, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, nil
	}
	return r.takeContact(r.db.WithContext(ctx).
		Where("email <> '' AND LOWER(email) = LOWER(?)", email).
		Order("created_at, id"))
}

// ListContactsByState lists up to limit contacts in a state, oldest first.
func (r *Repository) ListContactsByState(ctx context.Context, state string, limit int) ([]*entities.Contact, error) {
	return r.findContacts(page(r.db.WithContext(ctx).Where("UPPER(state) = UPPER(?)", state), limit, 0))
}

// ListContacts lists contacts oldest first. A limit <= 0 returns all of them.
func (r *Repository) ListContacts(ctx context.Context, limit, offset int) ([]*entities.Contact, error) {
	return r.findContacts(page(r.db.WithContext(ctx), limit, offset))
}

// DeleteContact deletes a contact by ID.
func (r *Repository) DeleteContact(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&contactModel{}).Error; err != nil {
		return fmt.Errorf("deleting contact: %w", err)
	}
	return nil
}

// CountContacts returns the total number of contacts.
func (r *Repository) CountContacts(ctx context.Context) (int, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&contactModel{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("counting contacts: %w", err)
	}
	return int(n), nil
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
	query := `SELECT COUNT(*), COALESCE(SUM(g.n - 1), 0) FROM (` + grouped + `) AS g`
	if err := r.db.WithContext(ctx).Raw(query).Row().Scan(&groups, &surplus); err != nil {
		return 0, 0, fmt.Errorf("counting duplicate groups: %w", err)
	}
	return groups, surplus, nil
}

func (r *Repository) takeContact(q *gorm.DB) (*entities.Contact, error) {
	var m contactModel
	err := q.Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying contact: %w", err)
	}
	return m.toEntity(), nil
}

func (r *Repository) findContacts(q *gorm.DB) ([]*entities.Contact, error) {
	var rows []contactModel
	if err := q.Order("created_at, id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("querying contacts: %w", err)
	}
	out := make([]*entities.Contact, len(rows))
	for i := range rows {
		out[i] = rows[i].toEntity()
	}
	return out, nil
}

// Organization operations.

var organizationUpdateColumns = []string{
	"name", "normalized_name", "type", "state", "city", "total_comments", "total_meetings",
	"first_engagement", "last_engagement", "source_tag", "updated_at",
}

// SaveOrganization inserts or updates an organization by ID.
func (r *Repository) SaveOrganization(ctx context.Context, o *entities.Organization) error {
	err := r.db.WithContext(ctx).
		Clauses(upsert(organizationUpdateColumns)).
		Create(toOrganizationModel(o)).Error
	if err != nil {
		return fmt.Errorf("saving organization: %w", err)
	}
	return nil
}

// FindOrganizationByID finds an organization by its ID.
func (r *Repository) FindOrganizationByID(ctx context.Context, id string) (*entities.Organization, error) {
	return r.takeOrganization(r.db.WithContext(ctx).Where("id = ?", id))
}

// FindOrganizationsByIDs loads the organizations with the given IDs, oldest first.
func (r *Repository) FindOrganizationsByIDs(ctx context.Context, ids []string) ([]*entities.Organization, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.findOrganizations(r.db.WithContext(ctx).Where("id IN ?", ids))
}

// FindOrganizationByName finds the oldest organization whose display name
// matches exactly, ignoring case.
func (r *Repository) FindOrganizationByName(ctx context.Context, name string) (*entities.Organization, error) {
	return r.takeOrganization(r.db.WithContext(ctx).
		Where("LOWER(name) = LOWER(?)", strings.TrimSpace(name)).
		Order("created_at, id"))
}

// FindOrganizationByNormalizedName finds the oldest organization with the
// given cached normalized name.
func (r *Repository) FindOrganizationByNormalizedName(ctx context.Context, normalized string) (*entities.Organization, error) {
	if normalized == "" {
		return nil, nil
	}
	return r.takeOrganization(r.db.WithContext(ctx).
		Where("normalized_name = ?", normalized).
		Order("created_at, id"))
}

// ListOrganizationsByState lists up to limit organizations in a state, oldest first.
func (r *Repository) ListOrganizationsByState(ctx context.Context, state string, limit int) ([]*entities.Organization, error) {
	return r.findOrganizations(page(r.db.WithContext(ctx).Where("UPPER(state) = UPPER(?)", state), limit, 0))
}

// ListOrganizations lists organizations oldest first. A limit <= 0 returns all.
func (r *Repository) ListOrganizations(ctx context.Context, limit, offset int) ([]*entities.Organization, error) {
	return r.findOrganizations(page(r.db.WithContext(ctx), limit, offset))
}

func (r *Repository) takeOrganization(q *gorm.DB) (*entities.Organization, error) {
	var m organizationModel
	err := q.Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying organization: %w", err)
	}
	return m.toEntity(), nil
}

func (r *Repository) findOrganizations(q *gorm.DB) ([]*entities.Organization, error) {
	var rows []organizationModel
	if err := q.Order("created_at, id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("querying organizations: %w", err)
	}
	out := make([]*entities.Organization, len(rows))
	for i := range rows {
		out[i] = rows[i].toEntity()
	}
	return out, nil
}

// Action operations.

var actionUpdateColumns = []string{
	"title", "fmp", "description", "status", "phase", "source_tag", "updated_at",
}

// SaveAction inserts or updates an action by ID.
func (r *Repository) SaveAction(ctx context.Context, a *entities.Action) error {
	err := r.db.WithContext(ctx).
		Clauses(upsert(actionUpdateColumns)).
		Create(toActionModel(a)).Error
	if err != nil {
		return fmt.Errorf("saving action: %w", err)
	}
	return nil
}

// FindActionByID finds an action by its ID.
func (r *Repository) FindActionByID(ctx context.Context, id string) (*entities.Action, error) {
	return r.takeAction(r.db.WithContext(ctx).Where("id = ?", id))
}

// FindActionsByIDs loads the actions with the given IDs, oldest first.
func (r *Repository) FindActionsByIDs(ctx context.Context, ids []string) ([]*entities.Action, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []actionModel
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("created_at, id").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("querying actions: %w", err)
	}
	out := make([]*entities.Action, len(rows))
	for i := range rows {
		out[i] = rows[i].toEntity()
	}
	return out, nil
}

// FindActionByTitle finds the oldest action whose title matches exactly, ignoring case.
func (r *Repository) FindActionByTitle(ctx context.Context, title string) (*entities.Action, error) {
	return r.takeAction(r.db.WithContext(ctx).
		Where("LOWER(title) = LOWER(?)", strings.TrimSpace(title)).
		Order("created_at, id"))
}

// ListActions lists actions oldest first. A limit <= 0 returns all.
func (r *Repository) ListActions(ctx context.Context, limit, offset int) ([]*entities.Action, error) {
	var rows []actionModel
	err := page(r.db.WithContext(ctx), limit, offset).Order("created_at, id").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("querying actions: %w", err)
	}
	out := make([]*entities.Action, len(rows))
	for i := range rows {
		out[i] = rows[i].toEntity()
	}
	return out, nil
}

func (r *Repository) takeAction(q *gorm.DB) (*entities.Action, error) {
	var m actionModel
	err := q.Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying action: %w", err)
	}
	return m.toEntity(), nil
}

// Comment operations.

// SaveComment inserts or updates a comment by ID.
func (r *Repository) SaveComment(ctx context.Context, c *entities.Comment) error {
	err := r.db.WithContext(ctx).
		Clauses(upsert([]string{"contact_id", "organization_id", "action_id", "body", "source", "submitted_at"})).
		Create(toCommentModel(c)).Error
	if err != nil {
		return fmt.Errorf("saving comment: %w", err)
	}
	return nil
}

// FindCommentsByContact finds all comments referencing a contact.
func (r *Repository) FindCommentsByContact(ctx context.Context, contactID string) ([]entities.Comment, error) {
	var rows []commentModel
	err := r.db.WithContext(ctx).
		Where("contact_id = ?", contactID).
		Order("submitted_at, id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("querying comments: %w", err)
	}
	out := make([]entities.Comment, len(rows))
	for i := range rows {
		out[i] = rows[i].toEntity()
	}
	return out, nil
}

// ReassignComments points every comment referencing one of fromIDs at toID.
func (r *Repository) ReassignComments(ctx context.Context, fromIDs []string, toID string) (int, error) {
	if len(fromIDs) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&commentModel{}).
		Where("contact_id IN ?", fromIDs).
		Update("contact_id", toID)
	if res.Error != nil {
		return 0, fmt.Errorf("reassigning comments: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}

// Audit operations.

// LogAction logs an action to the audit log.
func (r *Repository) LogAction(ctx context.Context, action string, entityID string, details map[string]any) error {
	entry := auditLogModel{
		Action:    action,
		EntityID:  optional(entityID),
		CreatedAt: timeNow(),
	}
	if details != nil {
		data, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("marshaling details: %w", err)
		}
		entry.Details = data
	}
	if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("logging action: %w", err)
	}
	return nil
}

// FindAuditLog finds audit log entries for a specific entity, newest first.
func (r *Repository) FindAuditLog(ctx context.Context, entityID string) ([]entities.AuditEntry, error) {
	var rows []auditLogModel
	err := r.db.WithContext(ctx).
		Where("entity_id = ?", entityID).
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}

	entries := make([]entities.AuditEntry, 0, len(rows))
	for _, row := range rows {
		entry := entities.AuditEntry{
			ID:        row.ID,
			Action:    row.Action,
			EntityID:  deref(row.EntityID),
			CreatedAt: row.CreatedAt.UTC(),
		}
		if len(row.Details) > 0 {
			if err := json.Unmarshal(row.Details, &entry.Details); err != nil {
				return nil, fmt.Errorf("unmarshaling details: %w", err)
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// upsert builds an ON CONFLICT (id) clause that overwrites the given columns.
func upsert(columns []string) clause.OnConflict {
	return clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}
}

func page(q *gorm.DB, limit, offset int) *gorm.DB {
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	return q
}

func resolveGormLogLevel(appLogLevel string) logger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(appLogLevel)) {
	case "trace", "debug":
		return logger.Info
	case "warn", "warning", "info", "":
		return logger.Warn
	case "error":
		return logger.Error
	default:
		return logger.Silent
	}
}
