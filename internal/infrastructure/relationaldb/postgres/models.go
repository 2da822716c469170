package postgres

import (
	"encoding/json"
	"time"

	"github.com/ersonp/fishreg/internal/domain/entities"
)

// organizationModel maps organizations.
type organizationModel struct {
	ID              string     `gorm:"column:id;type:text;primaryKey"`
	Name            string     `gorm:"column:name;type:text;not null"`
	NormalizedName  string     `gorm:"column:normalized_name;type:text;not null;index"`
	Type            string     `gorm:"column:type;type:text;not null"`
	State           string     `gorm:"column:state;type:text;not null;index:idx_organizations_state,priority:1"`
	City            string     `gorm:"column:city;type:text;not null"`
	TotalComments   int        `gorm:"column:total_comments;type:integer;not null"`
	TotalMeetings   int        `gorm:"column:total_meetings;type:integer;not null"`
	FirstEngagement *time.Time `gorm:"column:first_engagement;type:timestamptz"`
	LastEngagement  *time.Time `gorm:"column:last_engagement;type:timestamptz"`
	SourceTag       string     `gorm:"column:source_tag;type:text;not null"`
	CreatedAt       time.Time  `gorm:"column:created_at;type:timestamptz;not null;index:idx_organizations_state,priority:2"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;type:timestamptz;not null"`
}

func (organizationModel) TableName() string { return "organizations" }

// contactModel maps contacts.
type contactModel struct {
	ID              string     `gorm:"column:id;type:text;primaryKey"`
	FirstName       string     `gorm:"column:first_name;type:text;not null"`
	LastName        string     `gorm:"column:last_name;type:text;not null"`
	FullName        string     `gorm:"column:full_name;type:text;not null"`
	Email           string     `gorm:"column:email;type:text;not null;index"`
	Phone           string     `gorm:"column:phone;type:text;not null"`
	Title           string     `gorm:"column:title;type:text;not null"`
	City            string     `gorm:"column:city;type:text;not null"`
	State           string     `gorm:"column:state;type:text;not null;index:idx_contacts_state,priority:1"`
	OrganizationID  *string    `gorm:"column:organization_id;type:text;index"`
	Sector          string     `gorm:"column:sector;type:text;not null"`
	TotalComments   int        `gorm:"column:total_comments;type:integer;not null"`
	TotalMeetings   int        `gorm:"column:total_meetings;type:integer;not null"`
	FirstEngagement *time.Time `gorm:"column:first_engagement;type:timestamptz"`
	LastEngagement  *time.Time `gorm:"column:last_engagement;type:timestamptz"`
	SourceTag       string     `gorm:"column:source_tag;type:text;not null"`
	Verified        bool       `gorm:"column:verified;type:boolean;not null"`
	CreatedAt       time.Time  `gorm:"column:created_at;type:timestamptz;not null;index:idx_contacts_state,priority:2"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;type:timestamptz;not null"`
}

func (contactModel) TableName() string { return "contacts" }

// actionModel maps actions.
type actionModel struct {
	ID          string    `gorm:"column:id;type:text;primaryKey"`
	Title       string    `gorm:"column:title;type:text;not null"`
	FMP         string    `gorm:"column:fmp;type:text;not null"`
	Description string    `gorm:"column:description;type:text;not null"`
	Status      string    `gorm:"column:status;type:text;not null"`
	Phase       string    `gorm:"column:phase;type:text;not null"`
	SourceTag   string    `gorm:"column:source_tag;type:text;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;type:timestamptz;not null"`
	UpdatedAt   time.Time `gorm:"column:updated_at;type:timestamptz;not null"`
}

func (actionModel) TableName() string { return "actions" }

// commentModel maps comments.
type commentModel struct {
	ID             string    `gorm:"column:id;type:text;primaryKey"`
	ContactID      *string   `gorm:"column:contact_id;type:text;index"`
	OrganizationID *string   `gorm:"column:organization_id;type:text;index"`
	ActionID       *string   `gorm:"column:action_id;type:text;index"`
	Body           string    `gorm:"column:body;type:text;not null"`
	Source         string    `gorm:"column:source;type:text;not null"`
	SubmittedAt    time.Time `gorm:"column:submitted_at;type:timestamptz;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;type:timestamptz;not null"`
}

func (commentModel) TableName() string { return "comments" }

// auditLogModel maps audit_log.
type auditLogModel struct {
	ID        int64           `gorm:"column:id;primaryKey;autoIncrement"`
	Action    string          `gorm:"column:action;type:text;not null;index"`
	EntityID  *string         `gorm:"column:entity_id;type:text;index"`
	Details   json.RawMessage `gorm:"column:details;type:jsonb"`
	CreatedAt time.Time       `gorm:"column:created_at;type:timestamptz;not null"`
}

func (auditLogModel) TableName() string { return "audit_log" }

func autoMigrateModels() []any {
	return []any{
		&organizationModel{},
		&contactModel{},
		&actionModel{},
		&commentModel{},
		&auditLogModel{},
	}
}

func toContactModel(c *entities.Contact) *contactModel {
	return &contactModel{
		ID:              c.ID,
		FirstName:       c.FirstName,
		LastName:        c.LastName,
		FullName:        c.FullName,
		Email:           c.Email,
		Phone:           c.Phone,
		Title:           c.Title,
		City:            c.City,
		State:           c.State,
		OrganizationID:  optional(c.OrganizationID),
		Sector:          c.Sector,
		TotalComments:   c.TotalComments,
		TotalMeetings:   c.TotalMeetings,
		FirstEngagement: utcPtr(c.FirstEngagement),
		LastEngagement:  utcPtr(c.LastEngagement),
		SourceTag:       c.SourceTag,
		Verified:        c.Verified,
		CreatedAt:       c.CreatedAt.UTC(),
		UpdatedAt:       c.UpdatedAt.UTC(),
	}
}

func (m *contactModel) toEntity() *entities.Contact {
	return &entities.Contact{
		ID:              m.ID,
		FirstName:       m.FirstName,
		LastName:        m.LastName,
		FullName:        m.FullName,
		Email:           m.Email,
		Phone:           m.Phone,
		Title:           m.Title,
		City:            m.City,
		State:           m.State,
		OrganizationID:  deref(m.OrganizationID),
		Sector:          m.Sector,
		TotalComments:   m.TotalComments,
		TotalMeetings:   m.TotalMeetings,
		FirstEngagement: utcPtr(m.FirstEngagement),
		LastEngagement:  utcPtr(m.LastEngagement),
		SourceTag:       m.SourceTag,
		Verified:        m.Verified,
		CreatedAt:       m.CreatedAt.UTC(),
		UpdatedAt:       m.UpdatedAt.UTC(),
	}
}

func toOrganizationModel(o *entities.Organization) *organizationModel {
	return &organizationModel{
		ID:              o.ID,
		Name:            o.Name,
		NormalizedName:  o.NormalizedName,
		Type:            o.Type,
		State:           o.State,
		City:            o.City,
		TotalComments:   o.TotalComments,
		TotalMeetings:   o.TotalMeetings,
		FirstEngagement: utcPtr(o.FirstEngagement),
		LastEngagement:  utcPtr(o.LastEngagement),
		SourceTag:       o.SourceTag,
		CreatedAt:       o.CreatedAt.UTC(),
		UpdatedAt:       o.UpdatedAt.UTC(),
	}
}

func (m *organizationModel) toEntity() *entities.Organization {
	return &entities.Organization{
		ID:              m.ID,
		Name:            m.Name,
		NormalizedName:  m.NormalizedName,
		Type:            m.Type,
		State:           m.State,
		City:            m.City,
		TotalComments:   m.TotalComments,
		TotalMeetings:   m.TotalMeetings,
		FirstEngagement: utcPtr(m.FirstEngagement),
		LastEngagement:  utcPtr(m.LastEngagement),
		SourceTag:       m.SourceTag,
		CreatedAt:       m.CreatedAt.UTC(),
		UpdatedAt:       m.UpdatedAt.UTC(),
	}
}

func toActionModel(a *entities.Action) *actionModel {
	return &actionModel{
		ID:          a.ID,
		Title:       a.Title,
		FMP:         a.FMP,
		Description: a.Description,
		Status:      a.Status,
		Phase:       a.Phase,
		SourceTag:   a.SourceTag,
		CreatedAt:   a.CreatedAt.UTC(),
		UpdatedAt:   a.UpdatedAt.UTC(),
	}
}

func (m *actionModel) toEntity() *entities.Action {
	return &entities.Action{
		ID:          m.ID,
		Title:       m.Title,
		FMP:         m.FMP,
		Description: m.Description,
		Status:      m.Status,
		Phase:       m.Phase,
		SourceTag:   m.SourceTag,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

func toCommentModel(c *entities.Comment) *commentModel {
	return &commentModel{
		ID:             c.ID,
		ContactID:      optional(c.ContactID),
		OrganizationID: optional(c.OrganizationID),
		ActionID:       optional(c.ActionID),
		Body:           c.Body,
		Source:         c.Source,
		SubmittedAt:    c.SubmittedAt.UTC(),
		CreatedAt:      c.CreatedAt.UTC(),
	}
}

func (m *commentModel) toEntity() entities.Comment {
	return entities.Comment{
		ID:             m.ID,
		ContactID:      deref(m.ContactID),
		OrganizationID: deref(m.OrganizationID),
		ActionID:       deref(m.ActionID),
		Body:           m.Body,
		Source:         m.Source,
		SubmittedAt:    m.SubmittedAt.UTC(),
		CreatedAt:      m.CreatedAt.UTC(),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
