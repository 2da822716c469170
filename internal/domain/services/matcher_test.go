package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/fishreg/internal/domain/entities"
	"github.com/ersonp/fishreg/internal/domain/mocks"
)

func contactQuery(name, email, state string) MatchQuery {
	return MatchQuery{
		Name:  name,
		Key:   entities.NormalizeName(name),
		Email: entities.NormalizeEmail(email),
		State: entities.NormalizeState(state),
	}
}

func TestMatcher_MatchContact_ExactEmail(t *testing.T) {
	db := mocks.NewRelationalDB()
	seedContact(t, db, entities.Contact{ID: "CON-1", FullName: "John Smith", Email: "john@x.com", State: "SC"})

	m := NewMatcher(db, DefaultMatcherConfig())
	match, err := m.MatchContact(context.Background(), contactQuery("Totally Different", "JOHN@x.com", ""))

	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, "CON-1", match.Entity.ID)
	assert.Equal(t, StageExact, match.Stage)
	assert.Equal(t, 100, match.Score)
}

func TestMatcher_MatchContact_ThresholdBoundary(t *testing.T) {
	tests := []struct {
		name      string
		existing  string
		candidate string
		matched   bool
	}{
		{name: "score 85 matches", existing: "Margaret Ann Whitley", candidate: "Margaret Ann Whitmor", matched: true},
		{name: "score 84 does not match", existing: "Margaret Ann Whitley Wood", candidate: "Margaret Ann Whitley Park", matched: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := mocks.NewRelationalDB()
			seedContact(t, db, entities.Contact{ID: "CON-1", FullName: tt.existing})

			m := NewMatcher(db, DefaultMatcherConfig())
			match, err := m.MatchContact(context.Background(), contactQuery(tt.candidate, "", ""))

			require.NoError(t, err)
			if tt.matched {
				require.NotNil(t, match)
				assert.Equal(t, ContactMatchThreshold, match.Score)
				assert.Equal(t, StageGlobal, match.Stage)
			} else {
				assert.Nil(t, match)
			}
		})
	}
}

func TestMatcher_MatchContact_ScopedBeforeGlobal(t *testing.T) {
	db := mocks.NewRelationalDB()
	seedContact(t, db, entities.Contact{ID: "CON-GA", FullName: "John Smith", State: "GA"})
	seedContact(t, db, entities.Contact{ID: "CON-SC", FullName: "Jon Smith", State: "SC"})

	m := NewMatcher(db, DefaultMatcherConfig())
	match, err := m.MatchContact(context.Background(), contactQuery("John Smith", "", "sc"))

	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, "CON-SC", match.Entity.ID, "a qualifying match in the same state wins over a better one elsewhere")
	assert.Equal(t, StageScoped, match.Stage)
}

func TestMatcher_MatchContact_FallsBackToGlobal(t *testing.T) {
	db := mocks.NewRelationalDB()
	seedContact(t, db, entities.Contact{ID: "CON-GA", FullName: "John Smith", State: "GA"})

	m := NewMatcher(db, DefaultMatcherConfig())
	match, err := m.MatchContact(context.Background(), contactQuery("John Smith", "", "SC"))

	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, "CON-GA", match.Entity.ID)
	assert.Equal(t, StageGlobal, match.Stage)
}

func TestMatcher_MatchContact_EmailConflictNeverMatches(t *testing.T) {
	db := mocks.NewRelationalDB()
	seedContact(t, db, entities.Contact{ID: "CON-1", FullName: "John Smith", Email: "john@x.com", State: "SC"})

	m := NewMatcher(db, DefaultMatcherConfig())
	match, err := m.MatchContact(context.Background(), contactQuery("John Smith", "john.smith@y.org", "SC"))

	require.NoError(t, err)
	assert.Nil(t, match)
}

func TestMatcher_MatchContact_EmailOnOneSideStillMatches(t *testing.T) {
	db := mocks.NewRelationalDB()
	seedContact(t, db, entities.Contact{ID: "CON-1", FullName: "John Smith", State: "SC"})

	m := NewMatcher(db, DefaultMatcherConfig())
	match, err := m.MatchContact(context.Background(), contactQuery("John Smith", "john@x.com", "SC"))

	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, "CON-1", match.Entity.ID)
}

func TestMatcher_MatchContact_TieKeepsOldest(t *testing.T) {
	db := mocks.NewRelationalDB()
	seedContact(t, db, entities.Contact{ID: "CON-Z", FullName: "Jon Smith", CreatedAt: epoch})
	seedContact(t, db, entities.Contact{ID: "CON-A", FullName: "Jan Smith", CreatedAt: epoch.Add(time.Hour)})

	m := NewMatcher(db, DefaultMatcherConfig())
	match, err := m.MatchContact(context.Background(), contactQuery("Jen Smith", "", ""))

	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, "CON-Z", match.Entity.ID)
}

func TestMatcher_MatchContact_NoKeyNoScan(t *testing.T) {
	db := mocks.NewRelationalDB()
	seedContact(t, db, entities.Contact{ID: "CON-1", FullName: "John Smith"})

	m := NewMatcher(db, DefaultMatcherConfig())
	match, err := m.MatchContact(context.Background(), contactQuery("", "nobody@x.com", ""))

	require.NoError(t, err)
	assert.Nil(t, match)
	assert.Empty(t, db.ListContactsLimits)
}

func TestMatcher_MatchContact_GlobalScanIsCapped(t *testing.T) {
	db := mocks.NewRelationalDB()

	m := NewMatcher(db, MatcherConfig{GlobalScanLimit: 25})
	_, err := m.MatchContact(context.Background(), contactQuery("John Smith", "", ""))

	require.NoError(t, err)
	assert.Equal(t, []int{25}, db.ListContactsLimits)
}

func TestMatcher_MatchContact_StoreError(t *testing.T) {
	db := mocks.NewRelationalDB()
	db.Err = errors.New("disk full")

	m := NewMatcher(db, DefaultMatcherConfig())
	_, err := m.MatchContact(context.Background(), contactQuery("John Smith", "john@x.com", ""))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "finding contact by email")
}

func TestMatcher_MatchContact_UsesNameIndex(t *testing.T) {
	db := mocks.NewRelationalDB()
	seedContact(t, db, entities.Contact{ID: "CON-OLD", FullName: "John Smith"})
	seedContact(t, db, entities.Contact{ID: "CON-IDX", FullName: "John Smyth"})

	index := mocks.NewNameIndex()
	index.SearchResult = []string{"CON-IDX", "CON-GONE"}
	embedder := &mocks.Embedder{EmbeddingResult: []float32{1, 0}}

	m := NewMatcher(db, DefaultMatcherConfig()).WithNameIndex(index, embedder)
	match, err := m.MatchContact(context.Background(), contactQuery("John Smith", "", ""))

	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, "CON-IDX", match.Entity.ID, "global population comes from the index")
	assert.Equal(t, []entities.Kind{entities.KindContact}, index.SearchKinds)
	assert.Empty(t, db.ListContactsLimits)
	assert.Equal(t, 1, db.FindByIDsCalls, "indexed ids load in one query")
	assert.Zero(t, db.FindByIDCalls)
}

func TestMatcher_IndexedPopulationLoadsInOneQuery(t *testing.T) {
	ctx := context.Background()
	db := mocks.NewRelationalDB()
	require.NoError(t, db.SaveOrganization(ctx, &entities.Organization{
		ID: "ORG-IDX", Name: "Gulf Anglers Inc.", NormalizedName: "gulf anglers", CreatedAt: epoch,
	}))
	require.NoError(t, db.SaveAction(ctx, &entities.Action{
		ID: "ACT-IDX", Title: "Snapper Grouper Amendment 56", CreatedAt: epoch,
	}))

	index := mocks.NewNameIndex()
	embedder := &mocks.Embedder{EmbeddingResult: []float32{1, 0}}
	m := NewMatcher(db, DefaultMatcherConfig()).WithNameIndex(index, embedder)

	t.Run("organizations", func(t *testing.T) {
		db.FindByIDCalls, db.FindByIDsCalls = 0, 0
		index.SearchResult = []string{"ORG-GONE", "ORG-IDX", "ORG-MISSING"}

		match, err := m.MatchOrganization(ctx, MatchQuery{Name: "Gulf Angler", Key: entities.NormalizeName("Gulf Angler")})
		require.NoError(t, err)
		require.NotNil(t, match)
		assert.Equal(t, "ORG-IDX", match.Entity.ID)
		assert.Equal(t, StageGlobal, match.Stage)
		assert.Equal(t, 1, db.FindByIDsCalls)
		assert.Zero(t, db.FindByIDCalls)
	})

	t.Run("actions", func(t *testing.T) {
		db.FindByIDCalls, db.FindByIDsCalls = 0, 0
		index.SearchResult = []string{"ACT-GONE", "ACT-IDX"}

		title := "Snapper Grouper Amendmnt 56"
		match, err := m.MatchAction(ctx, MatchQuery{Name: title, Key: entities.Slugify(title)})
		require.NoError(t, err)
		require.NotNil(t, match)
		assert.Equal(t, "ACT-IDX", match.Entity.ID)
		assert.Equal(t, 1, db.FindByIDsCalls)
		assert.Equal(t, 1, db.FindByIDCalls, "only the exact slug id lookup")
	})
}

func TestMatcher_MatchContact_IndexFailureFallsBackToScan(t *testing.T) {
	db := mocks.NewRelationalDB()
	seedContact(t, db, entities.Contact{ID: "CON-1", FullName: "John Smith"})

	index := mocks.NewNameIndex()
	index.SearchErr = errors.New("qdrant unavailable")
	embedder := &mocks.Embedder{EmbeddingResult: []float32{1, 0}}

	m := NewMatcher(db, DefaultMatcherConfig()).WithNameIndex(index, embedder)
	match, err := m.MatchContact(context.Background(), contactQuery("John Smith", "", ""))

	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, "CON-1", match.Entity.ID)
	assert.Equal(t, 1, index.SearchCallCount)
}

func TestMatcher_MatchOrganization(t *testing.T) {
	db := mocks.NewRelationalDB()
	ctx := context.Background()
	require.NoError(t, db.SaveOrganization(ctx, &entities.Organization{
		ID: "ORG-1", Name: "Gulf Anglers Inc.", NormalizedName: "gulf anglers", State: "FL", CreatedAt: epoch,
	}))
	require.NoError(t, db.SaveOrganization(ctx, &entities.Organization{
		ID: "ORG-2", Name: "Recreational Fishing Alliance", NormalizedName: "recreational fishing alliance", CreatedAt: epoch.Add(time.Hour),
	}))

	tests := []struct {
		name   string
		input  string
		state  string
		wantID string
		stage  MatchStage
	}{
		{name: "display name ignoring case", input: "gulf anglers inc.", wantID: "ORG-1", stage: StageExact},
		{name: "normalized name", input: "Gulf Anglers", wantID: "ORG-1", stage: StageExact},
		{name: "fuzzy within state", input: "Gulf Angler", state: "FL", wantID: "ORG-1", stage: StageScoped},
		{name: "fuzzy global", input: "Recreational Fishing Aliance", wantID: "ORG-2", stage: StageGlobal},
		{name: "no match", input: "Ocean Conservancy"},
	}

	m := NewMatcher(db, DefaultMatcherConfig())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match, err := m.MatchOrganization(ctx, MatchQuery{
				Name:  tt.input,
				Key:   entities.NormalizeName(tt.input),
				State: tt.state,
			})
			require.NoError(t, err)
			if tt.wantID == "" {
				assert.Nil(t, match)
				return
			}
			require.NotNil(t, match)
			assert.Equal(t, tt.wantID, match.Entity.ID)
			assert.Equal(t, tt.stage, match.Stage)
		})
	}
}

func TestMatcher_MatchAction(t *testing.T) {
	db := mocks.NewRelationalDB()
	ctx := context.Background()
	title := "Snapper Grouper Amendment 56"
	require.NoError(t, db.SaveAction(ctx, &entities.Action{ID: entities.ActionID(title), Title: title, CreatedAt: epoch}))

	tests := []struct {
		name    string
		input   string
		matched bool
		stage   MatchStage
	}{
		{name: "same title ignoring case", input: "snapper grouper amendment 56", matched: true, stage: StageExact},
		{name: "punctuation variant", input: "Snapper-Grouper Amendment 56", matched: true, stage: StageExact},
		{name: "typo", input: "Snaper Grouper Amendment 56", matched: true, stage: StageGlobal},
		{name: "different amendment number", input: "Snapper Grouper Amendment 57", matched: false},
		{name: "unrelated", input: "Dolphin Wahoo Amendment 10", matched: false},
	}

	m := NewMatcher(db, DefaultMatcherConfig())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match, err := m.MatchAction(ctx, MatchQuery{Name: tt.input, Key: entities.Slugify(tt.input)})
			require.NoError(t, err)
			if !tt.matched {
				assert.Nil(t, match)
				return
			}
			require.NotNil(t, match)
			assert.Equal(t, title, match.Entity.Title)
			assert.Equal(t, tt.stage, match.Stage)
		})
	}
}

func TestMatcherConfig_WithDefaults(t *testing.T) {
	cfg := MatcherConfig{ContactThreshold: 90}.withDefaults()

	assert.Equal(t, 90, cfg.ContactThreshold)
	assert.Equal(t, OrganizationMatchThreshold, cfg.OrganizationThreshold)
	assert.Equal(t, ActionMatchThreshold, cfg.ActionThreshold)
	assert.Equal(t, DefaultScopedScanLimit, cfg.ScopedScanLimit)
	assert.Equal(t, DefaultGlobalScanLimit, cfg.GlobalScanLimit)
}
