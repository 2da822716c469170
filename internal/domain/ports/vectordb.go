package ports

import (
	"context"

	"github.com/ersonp/fishreg/internal/domain/entities"
)

// NameIndexEntry is one entity name stored in a NameIndex.
type NameIndexEntry struct {
	Kind           entities.Kind
	EntityID       string
	NormalizedName string
	State          string
	Vector         []float32
}

// NameIndex is a nearest-neighbour index over entity names. The matcher uses
// it to pick the global candidate population instead of scanning the oldest rows.
type NameIndex interface {
	CollectionManager

	// Upsert stores or replaces the entry for an entity.
	Upsert(ctx context.Context, entry NameIndexEntry) error

	// Search returns the IDs of the entities of the given kind whose name
	// vectors are nearest to vector, nearest first.
	Search(ctx context.Context, kind entities.Kind, vector []float32, limit int) ([]string, error)

	// Delete removes the entry for an entity.
	Delete(ctx context.Context, kind entities.Kind, entityID string) error
}
