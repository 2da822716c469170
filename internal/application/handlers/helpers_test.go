package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ersonp/fishreg/internal/domain/entities"
	"github.com/ersonp/fishreg/internal/domain/mocks"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func seedContact(t *testing.T, db *mocks.RelationalDB, c entities.Contact) {
	t.Helper()
	c.CreatedAt = epoch.Add(time.Duration(len(db.Contacts)) * time.Minute)
	c.UpdatedAt = c.CreatedAt
	require.NoError(t, db.SaveContact(context.Background(), &c))
}
