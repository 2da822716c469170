package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ersonp/fishreg/internal/domain/entities"
	"github.com/ersonp/fishreg/internal/domain/mocks"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// testClock returns a clock that advances one second per call so creation
// order is visible in CreatedAt.
func testClock() func() time.Time {
	now := epoch
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func newTestResolver(db *mocks.RelationalDB, opts ...Option) *Resolver {
	return NewResolver(db, append([]Option{WithClock(testClock())}, opts...)...)
}

func seedContact(t *testing.T, db *mocks.RelationalDB, c entities.Contact) *entities.Contact {
	t.Helper()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = epoch.Add(time.Duration(len(db.Contacts)) * time.Minute)
	}
	require.NoError(t, db.SaveContact(context.Background(), &c))
	return &c
}

func seedComment(t *testing.T, db *mocks.RelationalDB, id, contactID string) {
	t.Helper()
	require.NoError(t, db.SaveComment(context.Background(), &entities.Comment{
		ID:          id,
		ContactID:   contactID,
		SubmittedAt: epoch,
	}))
}

func at(days int) *time.Time {
	t := epoch.AddDate(0, 0, days)
	return &t
}
