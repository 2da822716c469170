package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/fishreg/internal/domain/entities"
	"github.com/ersonp/fishreg/internal/domain/services"
)

func TestScenario_ResolveAgainstSQLite(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	resolver := services.NewResolver(repo)

	t.Run("contacts sharing an email", func(t *testing.T) {
		first, created, err := resolver.ResolveContact(ctx, entities.ContactCandidate{
			Name:  entities.Ptr("John Smith"),
			Email: entities.Ptr("john@x.com"),
			State: entities.Ptr("SC"),
		})
		require.NoError(t, err)
		require.NotNil(t, first)
		assert.True(t, created)

		second, created, err := resolver.ResolveContact(ctx, entities.ContactCandidate{
			Name:  entities.Ptr("J. Smith"),
			Email: entities.Ptr("john@x.com"),
			State: entities.Ptr("SC"),
		})
		require.NoError(t, err)
		require.NotNil(t, second)
		assert.False(t, created)
		assert.Equal(t, first.ID, second.ID)
	})

	t.Run("organizations differing by a legal suffix", func(t *testing.T) {
		first, _, err := resolver.ResolveOrganization(ctx, entities.OrganizationCandidate{
			Name: entities.Ptr("Coastal Conservation Association"),
		})
		require.NoError(t, err)
		second, created, err := resolver.ResolveOrganization(ctx, entities.OrganizationCandidate{
			Name: entities.Ptr("Coastal Conservation Association Inc."),
		})
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, second.ID)
	})

	t.Run("actions differing in case and spacing", func(t *testing.T) {
		first, _, err := resolver.ResolveAction(ctx, entities.ActionCandidate{
			Title: entities.Ptr("Snapper Grouper Amendment 56"),
		})
		require.NoError(t, err)
		second, created, err := resolver.ResolveAction(ctx, entities.ActionCandidate{
			Title: entities.Ptr("snapper grouper amendment   56"),
		})
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "Snapper Grouper", second.FMP)
	})

	t.Run("creations are audited", func(t *testing.T) {
		n, err := repo.CountContacts(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		contacts, err := repo.ListContacts(ctx, 0, 0)
		require.NoError(t, err)
		entries, err := repo.FindAuditLog(ctx, contacts[0].ID)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, entities.AuditContactCreated, entries[0].Action)
	})
}

func seedMergeFixture(t *testing.T, repo *Repository) {
	t.Helper()
	saveContact(t, repo, entities.Contact{ID: "CON-P", FullName: "John Smith", TotalComments: 3})
	saveContact(t, repo, entities.Contact{ID: "CON-D1", FullName: "J. Smith", TotalComments: 2, Email: "john@x.com"})
	saveContact(t, repo, entities.Contact{ID: "CON-D2", FullName: "Johnny Smith", TotalComments: 5})
	saveContact(t, repo, entities.Contact{ID: "CON-X", FullName: "Ann Lee", TotalComments: 1})
	saveComment(t, repo, "CMT-1", "CON-P")
	saveComment(t, repo, "CMT-2", "CON-D1")
	saveComment(t, repo, "CMT-3", "CON-D1")
	saveComment(t, repo, "CMT-4", "CON-D2")
	saveComment(t, repo, "CMT-5", "CON-X")
}

// commentOwners joins comments to contacts and returns comment id -> contact id.
func commentOwners(t *testing.T, repo *Repository) map[string]string {
	t.Helper()
	rows, err := repo.db.Query(`
		SELECT m.id, c.id
		FROM comments m
		JOIN contacts c ON c.id = m.contact_id
		ORDER BY m.id
	`)
	require.NoError(t, err)
	defer rows.Close()

	owners := make(map[string]string)
	for rows.Next() {
		var commentID, contactID string
		require.NoError(t, rows.Scan(&commentID, &contactID))
		owners[commentID] = contactID
	}
	require.NoError(t, rows.Err())
	return owners
}

func TestScenario_MergePreservesTotals(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	seedMergeFixture(t, repo)

	result, err := services.NewMergeEngine(repo).MergeContacts(ctx, "CON-P", []string{"CON-D1", "CON-D2"})
	require.NoError(t, err)
	assert.Equal(t, 2, result.MergedCount)
	assert.Equal(t, 3, result.ReferencesUpdated)
	assert.Equal(t, 10, result.Primary.TotalComments)

	stored, err := repo.FindContactByID(ctx, "CON-P")
	require.NoError(t, err)
	assert.Equal(t, 10, stored.TotalComments)
	assert.Equal(t, "john@x.com", stored.Email)

	assert.Equal(t, map[string]string{
		"CMT-1": "CON-P",
		"CMT-2": "CON-P",
		"CMT-3": "CON-P",
		"CMT-4": "CON-P",
		"CMT-5": "CON-X",
	}, commentOwners(t, repo))

	for _, id := range []string{"CON-D1", "CON-D2"} {
		gone, err := repo.FindContactByID(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, gone)
	}

	entries, err := repo.FindAuditLogByAction(ctx, entities.AuditContactsMerged, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "CON-P", entries[0].EntityID)
}

func TestScenario_MergeIsAtomic(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	seedMergeFixture(t, repo)

	// Fail on the last delete, after comments were repointed and the primary saved.
	_, err := repo.db.Exec(`
		CREATE TRIGGER block_duplicate_delete
		BEFORE DELETE ON contacts
		WHEN OLD.id = 'CON-D2'
		BEGIN
			SELECT RAISE(ABORT, 'delete blocked');
		END
	`)
	require.NoError(t, err)

	before := commentOwners(t, repo)

	_, err = services.NewMergeEngine(repo).MergeContacts(ctx, "CON-P", []string{"CON-D1", "CON-D2"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delete blocked")

	assert.Equal(t, before, commentOwners(t, repo))

	primary, err := repo.FindContactByID(ctx, "CON-P")
	require.NoError(t, err)
	assert.Equal(t, 3, primary.TotalComments)
	assert.Empty(t, primary.Email)

	for _, id := range []string{"CON-D1", "CON-D2"} {
		dup, err := repo.FindContactByID(ctx, id)
		require.NoError(t, err)
		assert.NotNil(t, dup, "%s must survive a failed merge", id)
	}

	entries, err := repo.FindAuditLog(ctx, "CON-P")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestScenario_DuplicateStatistics(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	saveContact(t, repo, entities.Contact{ID: "CON-1", FullName: "John Smith", Email: "john@x.com", State: "SC"})
	saveContact(t, repo, entities.Contact{ID: "CON-2", FullName: "John Smith", Email: "john@x.com", State: "SC"})
	saveContact(t, repo, entities.Contact{ID: "CON-3", FullName: "Ann Lee", State: "GA"})

	stats, err := services.NewDuplicateDetector(repo).Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalContacts)
	assert.Equal(t, 1, stats.ExactEmailDuplicateGroups)
	assert.Equal(t, 1, stats.NameStateDuplicateGroups)
	assert.Equal(t, 2, stats.EstimatedDuplicateCount)

	clusters, err := services.NewDuplicateDetector(repo).FindClusters(ctx, 0.8)
	require.NoError(t, err)
	require.Len(t, clusters, 1)
	assert.Equal(t, "CON-1", clusters[0].Primary.ID)
	require.Len(t, clusters[0].Duplicates, 1)
	assert.Equal(t, "CON-2", clusters[0].Duplicates[0].Contact.ID)
}
