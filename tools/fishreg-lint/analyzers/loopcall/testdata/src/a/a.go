package a

import "context"

type Contact struct{ ID, State string }

type Store interface {
	FindContactByID(ctx context.Context, id string) (*Contact, error)
	FindContactsByIDs(ctx context.Context, ids []string) ([]*Contact, error)
	ListContactsByState(ctx context.Context, state string, limit int) ([]*Contact, error)
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

func bad(ctx context.Context, names []string, states []string, s Store, e Embedder) {
	for _, name := range names {
		e.Embed(ctx, name) // want "Embed called inside loop - use EmbedBatch"
	}
	for _, id := range names {
		s.FindContactByID(ctx, id) // want "FindContactByID called inside loop - use FindContactsByIDs"
	}
	for i := 0; i < len(states); i++ {
		s.ListContactsByState(ctx, states[i], 0) // want "ListContactsByState called inside loop - load once before the loop"
	}
}

func good(ctx context.Context, ids []string, names []string, s Store, e Embedder) []func() {
	_, _ = e.EmbedBatch(ctx, names)
	_, _ = s.FindContactsByIDs(ctx, ids)
	var deferred []func()
	for _, name := range names {
		deferred = append(deferred, func() { e.Embed(ctx, name) })
	}
	for _, id := range ids {
		deferred = append(deferred, func() { s.FindContactByID(ctx, id) })
	}
	return deferred
}
