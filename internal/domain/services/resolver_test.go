package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/fishreg/internal/domain/entities"
	"github.com/ersonp/fishreg/internal/domain/mocks"
)

func contactCand(name, email, state string) entities.ContactCandidate {
	return entities.ContactCandidate{
		Name:  entities.Ptr(name),
		Email: entities.Ptr(email),
		State: entities.Ptr(state),
	}
}

func TestResolver_ResolveContact_CreatesOnMiss(t *testing.T) {
	db := mocks.NewRelationalDB()
	r := newTestResolver(db)

	cand := contactCand("John Smith", " John@X.com ", "sc")
	cand.City = entities.Ptr("Charleston")
	cand.Sector = entities.Ptr("Commercial")
	cand.SourceTag = entities.Ptr("council-site")

	contact, created, err := r.ResolveContact(context.Background(), cand)

	require.NoError(t, err)
	require.NotNil(t, contact)
	assert.True(t, created)
	assert.Equal(t, entities.ContactID("John Smith", "john@x.com"), contact.ID)
	assert.Equal(t, "John", contact.FirstName)
	assert.Equal(t, "Smith", contact.LastName)
	assert.Equal(t, "john@x.com", contact.Email)
	assert.Equal(t, "SC", contact.State)
	assert.Equal(t, "Charleston", contact.City)
	assert.Equal(t, "council-site", contact.SourceTag)
	assert.False(t, contact.CreatedAt.IsZero())

	require.Len(t, db.Audit, 1)
	assert.Equal(t, entities.AuditContactCreated, db.Audit[0].Action)
	assert.Equal(t, contact.ID, db.Audit[0].EntityID)
}

func TestResolver_ResolveContact_Idempotent(t *testing.T) {
	db := mocks.NewRelationalDB()
	r := newTestResolver(db)
	ctx := context.Background()

	first, created1, err := r.ResolveContact(ctx, contactCand("Jane Doe", "jane@example.org", "GA"))
	require.NoError(t, err)
	second, created2, err := r.ResolveContact(ctx, contactCand("Jane Doe", "jane@example.org", "GA"))
	require.NoError(t, err)

	assert.True(t, created1)
	assert.False(t, created2)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, db.Contacts, 1)
}

func TestResolver_ResolveContact_InitialWithSameEmail(t *testing.T) {
	db := mocks.NewRelationalDB()
	r := newTestResolver(db)
	ctx := context.Background()

	first, _, err := r.ResolveContact(ctx, contactCand("John Smith", "john@x.com", "SC"))
	require.NoError(t, err)
	second, created, err := r.ResolveContact(ctx, contactCand("J. Smith", "john@x.com", "SC"))
	require.NoError(t, err)

	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "John Smith", second.FullName, "a hit never overwrites the stored name")
	assert.Len(t, db.Contacts, 1)
}

func TestResolver_ResolveContact_DifferentEmailsNeverMerge(t *testing.T) {
	db := mocks.NewRelationalDB()
	r := newTestResolver(db)
	ctx := context.Background()

	first, _, err := r.ResolveContact(ctx, contactCand("John Smith", "john@x.com", "SC"))
	require.NoError(t, err)
	second, created, err := r.ResolveContact(ctx, contactCand("John Smith", "jsmith@y.org", "SC"))
	require.NoError(t, err)

	assert.True(t, created)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Len(t, db.Contacts, 2)
}

func TestResolver_ResolveContact_FuzzyNameHit(t *testing.T) {
	db := mocks.NewRelationalDB()
	r := newTestResolver(db)
	ctx := context.Background()

	first, _, err := r.ResolveContact(ctx, contactCand("Jonathan Smith", "", "NC"))
	require.NoError(t, err)
	second, created, err := r.ResolveContact(ctx, contactCand("Jonathon Smith", "", "NC"))
	require.NoError(t, err)

	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
}

func TestResolver_ResolveContact_Unresolvable(t *testing.T) {
	db := mocks.NewRelationalDB()
	r := newTestResolver(db)

	tests := []struct {
		name string
		cand entities.ContactCandidate
	}{
		{name: "all nil", cand: entities.ContactCandidate{}},
		{name: "whitespace only", cand: entities.ContactCandidate{Name: strPtr("   "), Email: strPtr("\t")}},
		{name: "state without identity", cand: contactCand("", "", "SC")},
		{name: "punctuation only name", cand: entities.ContactCandidate{Name: strPtr("...")}},
		{name: "punctuation only name with state", cand: contactCand("--", "", "SC")},
		{name: "punctuation only first and last", cand: entities.ContactCandidate{FirstName: strPtr("?"), LastName: strPtr("!")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contact, created, err := r.ResolveContact(context.Background(), tt.cand)
			require.NoError(t, err)
			assert.Nil(t, contact)
			assert.False(t, created)
		})
	}
	assert.Empty(t, db.Contacts)
}

func TestResolver_ResolveContact_FromFirstAndLastName(t *testing.T) {
	db := mocks.NewRelationalDB()
	r := newTestResolver(db)

	contact, _, err := r.ResolveContact(context.Background(), entities.ContactCandidate{
		FirstName: entities.Ptr("Maria"),
		LastName:  entities.Ptr("Garcia"),
	})

	require.NoError(t, err)
	require.NotNil(t, contact)
	assert.Equal(t, "Maria Garcia", contact.FullName)
	assert.Equal(t, "Maria", contact.FirstName)
	assert.Equal(t, "Garcia", contact.LastName)
}

func TestResolver_ResolveContact_LinksOrganization(t *testing.T) {
	db := mocks.NewRelationalDB()
	r := newTestResolver(db)
	ctx := context.Background()

	first, _, err := r.ResolveContact(ctx, contactCand("Jane Doe", "jane@example.org", "FL"))
	require.NoError(t, err)
	assert.Empty(t, first.OrganizationID)

	cand := contactCand("Jane Doe", "jane@example.org", "FL")
	cand.Organization = entities.Ptr("Gulf Anglers Inc.")
	second, created, err := r.ResolveContact(ctx, cand)
	require.NoError(t, err)

	assert.False(t, created)
	require.Len(t, db.Organizations, 1)
	orgID := entities.OrganizationID("Gulf Anglers Inc.")
	assert.Equal(t, orgID, second.OrganizationID)
	assert.Equal(t, orgID, db.Contacts[first.ID].OrganizationID)

	// An existing link is never replaced.
	cand.Organization = entities.Ptr("Ocean Conservancy")
	third, _, err := r.ResolveContact(ctx, cand)
	require.NoError(t, err)
	assert.Equal(t, orgID, third.OrganizationID)
}

func TestResolver_ResolveContact_ErrorRollsBack(t *testing.T) {
	db := mocks.NewRelationalDB()
	db.LogErr = errors.New("audit table locked")
	r := newTestResolver(db)

	cand := contactCand("Jane Doe", "jane@example.org", "FL")
	cand.Organization = entities.Ptr("Gulf Anglers")
	contact, _, err := r.ResolveContact(context.Background(), cand)

	require.Error(t, err)
	assert.Nil(t, contact)
	assert.Contains(t, err.Error(), "resolving contact")
	assert.Empty(t, db.Contacts)
	assert.Empty(t, db.Organizations)
	assert.Equal(t, 1, db.RollbackCount)
}

func TestResolver_ResolveOrganization_NormalizationInvariance(t *testing.T) {
	tests := []struct {
		name   string
		first  string
		second string
	}{
		{name: "legal suffix and case", first: "Gulf Anglers Inc.", second: "gulf anglers"},
		{name: "association suffix", first: "Coastal Conservation Association", second: "Coastal Conservation Association Inc."},
		{name: "punctuation", first: "S.C. Wildlife Federation", second: "SC Wildlife Federation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := mocks.NewRelationalDB()
			r := newTestResolver(db)
			ctx := context.Background()

			first, created1, err := r.ResolveOrganization(ctx, entities.OrganizationCandidate{Name: entities.Ptr(tt.first)})
			require.NoError(t, err)
			second, created2, err := r.ResolveOrganization(ctx, entities.OrganizationCandidate{Name: entities.Ptr(tt.second)})
			require.NoError(t, err)

			assert.True(t, created1)
			assert.False(t, created2)
			assert.Equal(t, first.ID, second.ID)
			assert.Len(t, db.Organizations, 1)
		})
	}
}

func TestResolver_ResolveOrganization_CreatesWithCache(t *testing.T) {
	db := mocks.NewRelationalDB()
	r := newTestResolver(db)

	org, created, err := r.ResolveOrganization(context.Background(), entities.OrganizationCandidate{
		Name:  entities.Ptr("  Recreational Fishing Alliance, Inc. "),
		State: entities.Ptr("nc"),
		Type:  entities.Ptr("NGO"),
	})

	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Recreational Fishing Alliance, Inc.", org.Name)
	assert.Equal(t, "recreational fishing alliance", org.NormalizedName)
	assert.Equal(t, "NC", org.State)
	assert.Equal(t, "NGO", org.Type)
	assert.Equal(t, entities.OrganizationID("Recreational Fishing Alliance"), org.ID)
}

func TestResolver_ResolveOrganization_BlankName(t *testing.T) {
	db := mocks.NewRelationalDB()
	r := newTestResolver(db)

	for _, name := range []string{"   ", "...", "&& --"} {
		org, created, err := r.ResolveOrganization(context.Background(), entities.OrganizationCandidate{Name: strPtr(name)})

		require.NoError(t, err)
		assert.Nil(t, org, "name %q", name)
		assert.False(t, created)
	}
	assert.Empty(t, db.Organizations)
}

func TestResolver_ResolveAction_WhitespaceVariant(t *testing.T) {
	db := mocks.NewRelationalDB()
	r := newTestResolver(db)
	ctx := context.Background()

	first, created1, err := r.ResolveAction(ctx, entities.ActionCandidate{
		Title: entities.Ptr("Snapper Grouper Amendment 56"),
		Phase: entities.Ptr("Public Hearing"),
	})
	require.NoError(t, err)
	second, created2, err := r.ResolveAction(ctx, entities.ActionCandidate{
		Title: entities.Ptr("snapper grouper amendment   56"),
	})
	require.NoError(t, err)

	assert.True(t, created1)
	assert.False(t, created2)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Snapper Grouper", first.FMP)
	assert.Equal(t, "Public Hearing", first.Phase)
	assert.Len(t, db.Actions, 1)
}

func TestResolver_ResolveAction_NumbersKeepActionsApart(t *testing.T) {
	db := mocks.NewRelationalDB()
	r := newTestResolver(db)
	ctx := context.Background()

	a56, _, err := r.ResolveAction(ctx, entities.ActionCandidate{Title: entities.Ptr("Snapper Grouper Amendment 56")})
	require.NoError(t, err)
	a57, created, err := r.ResolveAction(ctx, entities.ActionCandidate{Title: entities.Ptr("Snapper Grouper Amendment 57")})
	require.NoError(t, err)

	assert.True(t, created)
	assert.NotEqual(t, a56.ID, a57.ID)
}

func TestResolver_ResolveAction_CollapsesTitleWhitespace(t *testing.T) {
	db := mocks.NewRelationalDB()
	r := newTestResolver(db)

	action, _, err := r.ResolveAction(context.Background(), entities.ActionCandidate{
		Title: entities.Ptr("  Dolphin   Wahoo\tAmendment 10 "),
	})

	require.NoError(t, err)
	assert.Equal(t, "Dolphin Wahoo Amendment 10", action.Title)
	assert.Equal(t, "Dolphin Wahoo", action.FMP)
}

func TestResolver_ResolveAction_BlankTitle(t *testing.T) {
	db := mocks.NewRelationalDB()
	r := newTestResolver(db)

	for _, title := range []string{" \n ", "- - -", "###"} {
		action, created, err := r.ResolveAction(context.Background(), entities.ActionCandidate{Title: strPtr(title)})

		require.NoError(t, err)
		assert.Nil(t, action, "title %q", title)
		assert.False(t, created)
	}
	assert.Empty(t, db.Actions)
}

func TestResolver_IndexesCreatedNames(t *testing.T) {
	db := mocks.NewRelationalDB()
	index := mocks.NewNameIndex()
	embedder := &mocks.Embedder{EmbeddingResult: []float32{0.5, 0.5}}
	r := newTestResolver(db, WithNameIndex(index, embedder))

	cand := contactCand("Jane Doe", "jane@example.org", "FL")
	cand.Organization = entities.Ptr("Gulf Anglers Inc.")
	contact, _, err := r.ResolveContact(context.Background(), cand)
	require.NoError(t, err)

	require.Contains(t, index.Entries, "contact:"+contact.ID)
	entry := index.Entries["contact:"+contact.ID]
	assert.Equal(t, "jane doe", entry.NormalizedName)
	assert.Equal(t, "FL", entry.State)
	assert.Equal(t, []float32{0.5, 0.5}, entry.Vector)
	assert.Contains(t, index.Entries, "organization:"+contact.OrganizationID)
}

func TestResolver_IndexFailureDoesNotFailResolution(t *testing.T) {
	db := mocks.NewRelationalDB()
	index := mocks.NewNameIndex()
	index.Err = errors.New("qdrant unavailable")
	embedder := &mocks.Embedder{EmbeddingResult: []float32{0.5, 0.5}}
	r := newTestResolver(db, WithNameIndex(index, embedder))

	contact, created, err := r.ResolveContact(context.Background(), contactCand("Jane Doe", "", ""))

	require.NoError(t, err)
	assert.True(t, created)
	assert.NotNil(t, contact)
	assert.Empty(t, index.Entries)
}

func strPtr(s string) *string { return &s }
