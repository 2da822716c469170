package mocks

import (
	"context"

	"github.com/ersonp/fishreg/internal/domain/entities"
	"github.com/ersonp/fishreg/internal/domain/ports"
)

// NameIndex is a mock implementation of ports.NameIndex. Search returns
// SearchResult regardless of the query vector.
type NameIndex struct {
	Entries      map[string]ports.NameIndexEntry // Keyed by kind + ":" + entity id
	SearchResult []string

	Err                 error
	SearchErr           error
	EnsureCollectionErr error
	DeleteCollectionErr error

	// Call tracking
	EnsureCollectionCallCount int
	DeleteCollectionCallCount int
	SearchCallCount           int
	SearchKinds               []entities.Kind
	Deleted                   []string
}

// NewNameIndex creates an empty mock NameIndex.
func NewNameIndex() *NameIndex {
	return &NameIndex{Entries: make(map[string]ports.NameIndexEntry)}
}

// EnsureCollection returns the configured error.
func (m *NameIndex) EnsureCollection(_ context.Context, _ uint64) error {
	m.EnsureCollectionCallCount++
	return m.EnsureCollectionErr
}

// DeleteCollection clears the entries.
func (m *NameIndex) DeleteCollection(_ context.Context) error {
	m.DeleteCollectionCallCount++
	if m.DeleteCollectionErr != nil {
		return m.DeleteCollectionErr
	}
	m.Entries = make(map[string]ports.NameIndexEntry)
	return nil
}

// Upsert stores the entry.
func (m *NameIndex) Upsert(_ context.Context, entry ports.NameIndexEntry) error {
	if m.Err != nil {
		return m.Err
	}
	m.Entries[string(entry.Kind)+":"+entry.EntityID] = entry
	return nil
}

// Search returns the configured result.
func (m *NameIndex) Search(_ context.Context, kind entities.Kind, _ []float32, limit int) ([]string, error) {
	m.SearchCallCount++
	m.SearchKinds = append(m.SearchKinds, kind)
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	if limit > 0 && limit < len(m.SearchResult) {
		return m.SearchResult[:limit], nil
	}
	return m.SearchResult, nil
}

// Delete removes the entry.
func (m *NameIndex) Delete(_ context.Context, kind entities.Kind, entityID string) error {
	if m.Err != nil {
		return m.Err
	}
	key := string(kind) + ":" + entityID
	m.Deleted = append(m.Deleted, key)
	delete(m.Entries, key)
	return nil
}
