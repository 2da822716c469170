package handlers

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/fishreg/internal/domain/entities"
	"github.com/ersonp/fishreg/internal/domain/mocks"
	"github.com/ersonp/fishreg/internal/domain/services"
)

func newResolutionHandler(db *mocks.RelationalDB) (*ResolutionHandler, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewResolutionHandler(services.NewResolver(db), zerolog.New(&buf)), &buf
}

func TestResolutionHandler_ResolveContact(t *testing.T) {
	db := mocks.NewRelationalDB()
	handler, _ := newResolutionHandler(db)

	first := handler.ResolveContact(t.Context(), entities.ContactCandidate{
		Name:  entities.Ptr("John Smith"),
		Email: entities.Ptr("john@x.com"),
	})
	second := handler.ResolveContact(t.Context(), entities.ContactCandidate{
		Name:  entities.Ptr("J. Smith"),
		Email: entities.Ptr("JOHN@x.com"),
	})

	assert.NotEmpty(t, first)
	assert.Equal(t, first, second)
	assert.Len(t, db.Contacts, 1)
}

func TestResolutionHandler_ResolveContact_Unresolvable(t *testing.T) {
	handler, _ := newResolutionHandler(mocks.NewRelationalDB())

	assert.Empty(t, handler.ResolveContact(t.Context(), entities.ContactCandidate{
		Name: entities.Ptr("   "),
	}))
}

func TestResolutionHandler_ResolveContact_ErrorIsLogged(t *testing.T) {
	db := mocks.NewRelationalDB()
	db.Err = errors.New("database locked")
	handler, logs := newResolutionHandler(db)

	id := handler.ResolveContact(t.Context(), entities.ContactCandidate{
		Name:  entities.Ptr("John Smith"),
		Email: entities.Ptr("john@x.com"),
	})

	assert.Empty(t, id)
	assert.Contains(t, logs.String(), "database locked")
	assert.Contains(t, logs.String(), "resolving contact")
}

func TestResolutionHandler_ResolveOrganization(t *testing.T) {
	handler, _ := newResolutionHandler(mocks.NewRelationalDB())

	first := handler.ResolveOrganization(t.Context(), entities.OrganizationCandidate{
		Name: entities.Ptr("Coastal Conservation Association"),
	})
	second := handler.ResolveOrganization(t.Context(), entities.OrganizationCandidate{
		Name: entities.Ptr("Coastal Conservation Association Inc."),
	})

	assert.NotEmpty(t, first)
	assert.Equal(t, first, second)
	assert.Empty(t, handler.ResolveOrganization(t.Context(), entities.OrganizationCandidate{}))
}

func TestResolutionHandler_ResolveAction(t *testing.T) {
	handler, _ := newResolutionHandler(mocks.NewRelationalDB())

	first := handler.ResolveAction(t.Context(), entities.ActionCandidate{
		Title: entities.Ptr("Snapper Grouper Amendment 56"),
	})
	second := handler.ResolveAction(t.Context(), entities.ActionCandidate{
		Title: entities.Ptr("snapper grouper  amendment 56"),
	})

	assert.True(t, strings.HasPrefix(first, "ACT-"))
	assert.Equal(t, first, second)
}

func TestResolutionHandler_HandleContact_ReportsCreation(t *testing.T) {
	handler, _ := newResolutionHandler(mocks.NewRelationalDB())
	cand := entities.ContactCandidate{Name: entities.Ptr("Ann Lee"), State: entities.Ptr("GA")}

	first, err := handler.HandleContact(t.Context(), cand)
	require.NoError(t, err)
	assert.True(t, first.Created)

	second, err := handler.HandleContact(t.Context(), cand)
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.ID, second.ID)
}
