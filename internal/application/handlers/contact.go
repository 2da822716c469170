package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/ersonp/fishreg/internal/domain/entities"
	"github.com/ersonp/fishreg/internal/domain/ports"
)

// ContactHandler handles contact lookups at the application layer.
type ContactHandler struct {
	store ports.EntityStore
}

// NewContactHandler creates a new ContactHandler.
func NewContactHandler(store ports.EntityStore) *ContactHandler {
	return &ContactHandler{
		store: store,
	}
}

// ContactListResult contains the result of listing contacts.
type ContactListResult struct {
	Contacts []*entities.Contact `json:"contacts"`
	Total    int                 `json:"total"`
}

// ContactDetail is a contact with its comments and audit history.
type ContactDetail struct {
	Contact  *entities.Contact     `json:"contact"`
	Comments []entities.Comment    `json:"comments"`
	History  []entities.AuditEntry `json:"history"`
}

// HandleList returns contacts oldest first with pagination.
func (h *ContactHandler) HandleList(ctx context.Context, limit, offset int) (*ContactListResult, error) {
	contacts, err := h.store.ListContacts(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing contacts: %w", err)
	}

	count, err := h.store.CountContacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting contacts: %w", err)
	}

	if contacts == nil {
		contacts = []*entities.Contact{}
	}
	return &ContactListResult{
		Contacts: contacts,
		Total:    count,
	}, nil
}

// HandleGet returns one contact with its comments and history.
// It returns entities.ErrContactNotFound when the id is unknown.
func (h *ContactHandler) HandleGet(ctx context.Context, id string) (*ContactDetail, error) {
	id = strings.TrimSpace(id)
	contact, err := h.store.FindContactByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("finding contact: %w", err)
	}
	if contact == nil {
		return nil, fmt.Errorf("%s: %w", id, entities.ErrContactNotFound)
	}

	comments, err := h.store.FindCommentsByContact(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("finding comments: %w", err)
	}
	history, err := h.store.FindAuditLog(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("finding audit log: %w", err)
	}

	if comments == nil {
		comments = []entities.Comment{}
	}
	if history == nil {
		history = []entities.AuditEntry{}
	}
	return &ContactDetail{
		Contact:  contact,
		Comments: comments,
		History:  history,
	}, nil
}
