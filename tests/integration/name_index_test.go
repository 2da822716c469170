package integration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/fishreg/internal/domain/entities"
	"github.com/ersonp/fishreg/internal/domain/services"
)

func TestNameIndex_GlobalOrganizationMatch(t *testing.T) {
	resetIndex(t)
	repo := openStore(t, tempDBPath(t))
	defer repo.Close()

	ctx := t.Context()
	resolver := services.NewResolver(repo, services.WithNameIndex(testIndex, testEmbedder))

	first, created, err := resolver.ResolveOrganization(ctx, entities.OrganizationCandidate{
		Name: entities.Ptr("Coastal Conservation Association"),
	})
	require.NoError(t, err)
	require.True(t, created)

	// One typo away from the stored name and no state to scope by.
	second, created, err := resolver.ResolveOrganization(ctx, entities.OrganizationCandidate{
		Name: entities.Ptr("Costal Conservation Association"),
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	vector, err := testEmbedder.Embed(ctx, entities.NormalizeName("Costal Conservation Association"))
	require.NoError(t, err)
	ids, err := testIndex.Search(ctx, entities.KindOrganization, vector, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{first.ID}, ids)
}

func TestNameIndex_SearchIsScopedByKind(t *testing.T) {
	resetIndex(t)
	ctx := t.Context()

	name := entities.NormalizeName("Snapper Grouper")
	vectors, err := testEmbedder.EmbedBatch(ctx, []string{name, name})
	require.NoError(t, err)

	require.NoError(t, testIndex.Upsert(ctx, portsEntry(entities.KindOrganization, "ORG-1", name, vectors[0])))
	require.NoError(t, testIndex.Upsert(ctx, portsEntry(entities.KindAction, "ACT-1", name, vectors[1])))

	ids, err := testIndex.Search(ctx, entities.KindAction, vectors[0], 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"ACT-1"}, ids)

	// Upserting the same entity again replaces its point.
	require.NoError(t, testIndex.Upsert(ctx, portsEntry(entities.KindAction, "ACT-1", name, vectors[1])))
	ids, err = testIndex.Search(ctx, entities.KindAction, vectors[0], 10)
	require.NoError(t, err)
	assert.Len(t, ids, 1)

	require.NoError(t, testIndex.Delete(ctx, entities.KindAction, "ACT-1"))
	ids, err = testIndex.Search(ctx, entities.KindAction, vectors[0], 10)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestNameIndex_Rebuild(t *testing.T) {
	resetIndex(t)
	repo := openStore(t, tempDBPath(t))
	defer repo.Close()

	ctx := t.Context()
	resolver := services.NewResolver(repo)
	_, _, err := resolver.ResolveContact(ctx, entities.ContactCandidate{Name: entities.Ptr("Ann Lee"), State: entities.Ptr("GA")})
	require.NoError(t, err)
	_, _, err = resolver.ResolveOrganization(ctx, entities.OrganizationCandidate{Name: entities.Ptr("Georgia Shrimpers")})
	require.NoError(t, err)
	_, _, err = resolver.ResolveAction(ctx, entities.ActionCandidate{Title: entities.Ptr("Shrimp Amendment 11")})
	require.NoError(t, err)

	stats, err := services.NewIndexService(repo, services.WithNameIndex(testIndex, testEmbedder)).Rebuild(ctx)
	require.NoError(t, err)
	assert.Equal(t, &services.IndexStats{Contacts: 1, Organizations: 1, Actions: 1}, stats)

	vector, err := testEmbedder.Embed(ctx, entities.NormalizeName("Ann Lee"))
	require.NoError(t, err)
	ids, err := testIndex.Search(ctx, entities.KindContact, vector, 5)
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}
