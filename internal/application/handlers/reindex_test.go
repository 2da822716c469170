package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/fishreg/internal/domain/entities"
	"github.com/ersonp/fishreg/internal/domain/mocks"
	"github.com/ersonp/fishreg/internal/domain/services"
)

func TestReindexHandler_Handle(t *testing.T) {
	db := mocks.NewRelationalDB()
	seedContact(t, db, entities.Contact{ID: "CON-1", FullName: "John Smith"})
	index := mocks.NewNameIndex()
	embedder := &mocks.Embedder{EmbeddingResult: []float32{1, 0}, Size: 2}
	handler := NewReindexHandler(services.NewIndexService(db, services.WithNameIndex(index, embedder)))

	stats, err := handler.Handle(t.Context())

	require.NoError(t, err)
	assert.Equal(t, 1, stats.Contacts)
	assert.Contains(t, index.Entries, "contact:CON-1")
}

func TestReindexHandler_Handle_Disabled(t *testing.T) {
	handler := NewReindexHandler(services.NewIndexService(mocks.NewRelationalDB()))

	_, err := handler.Handle(t.Context())

	assert.ErrorIs(t, err, services.ErrNameIndexDisabled)
}
