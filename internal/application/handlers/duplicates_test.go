package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/fishreg/internal/domain/entities"
	"github.com/ersonp/fishreg/internal/domain/mocks"
	"github.com/ersonp/fishreg/internal/domain/services"
)

func seedDuplicates(t *testing.T) *mocks.RelationalDB {
	t.Helper()
	db := mocks.NewRelationalDB()
	seedContact(t, db, entities.Contact{ID: "CON-1", FullName: "John Smith", Email: "john@x.com", State: "SC"})
	seedContact(t, db, entities.Contact{ID: "CON-2", FullName: "John Smith", Email: "john@x.com", State: "SC"})
	seedContact(t, db, entities.Contact{ID: "CON-3", FullName: "Ann Lee", State: "GA"})
	return db
}

func TestDuplicateHandler_FindClusters(t *testing.T) {
	handler := NewDuplicateHandler(services.NewDuplicateDetector(seedDuplicates(t)), 0.8)

	tests := []struct {
		name     string
		minScore float64
		expected float64
	}{
		{name: "explicit score", minScore: 0.75, expected: 0.75},
		{name: "zero falls back to default", minScore: 0, expected: 0.8},
		{name: "negative falls back to default", minScore: -1, expected: 0.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := handler.FindClusters(t.Context(), tt.minScore)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, report.MinScore)
			require.Len(t, report.Clusters, 1)
			assert.Equal(t, "CON-1", report.Clusters[0].Primary.ID)
		})
	}
}

func TestDuplicateHandler_FindClusters_InvalidScore(t *testing.T) {
	handler := NewDuplicateHandler(services.NewDuplicateDetector(mocks.NewRelationalDB()), 0.8)

	_, err := handler.FindClusters(t.Context(), 1.5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "between 0 and 1")
}

func TestDuplicateHandler_FindClusters_Empty(t *testing.T) {
	handler := NewDuplicateHandler(services.NewDuplicateDetector(mocks.NewRelationalDB()), 0.8)

	report, err := handler.FindClusters(t.Context(), 0)
	require.NoError(t, err)
	assert.NotNil(t, report.Clusters)
	assert.Empty(t, report.Clusters)
}

func TestDuplicateHandler_Statistics(t *testing.T) {
	handler := NewDuplicateHandler(services.NewDuplicateDetector(seedDuplicates(t)), 0.8)

	stats, err := handler.Statistics(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalContacts)
	assert.Equal(t, 1, stats.ExactEmailDuplicateGroups)
	assert.Equal(t, 1, stats.NameStateDuplicateGroups)
}
