// Package handlers contains application use case handlers.
package handlers

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ersonp/fishreg/internal/domain/entities"
	"github.com/ersonp/fishreg/internal/domain/services"
)

// ResolutionHandler is the entry point scrapers call to turn raw
// observations into stable entity ids.
type ResolutionHandler struct {
	resolver *services.Resolver
	logger   zerolog.Logger
}

// NewResolutionHandler creates a new resolution handler.
func NewResolutionHandler(resolver *services.Resolver, logger zerolog.Logger) *ResolutionHandler {
	return &ResolutionHandler{
		resolver: resolver,
		logger:   logger,
	}
}

// Resolution is the outcome of resolving one candidate.
type Resolution struct {
	ID      string `json:"id"`
	Created bool   `json:"created"`
}

// ResolveContact returns the id of the matching or newly created contact,
// or "" when the candidate cannot be resolved.
func (h *ResolutionHandler) ResolveContact(ctx context.Context, cand entities.ContactCandidate) string {
	res, err := h.HandleContact(ctx, cand)
	if err != nil {
		h.logger.Error().Err(err).Msg("resolving contact")
		return ""
	}
	return res.ID
}

// ResolveOrganization returns the id of the matching or newly created
// organization, or "" when the candidate cannot be resolved.
func (h *ResolutionHandler) ResolveOrganization(ctx context.Context, cand entities.OrganizationCandidate) string {
	res, err := h.HandleOrganization(ctx, cand)
	if err != nil {
		h.logger.Error().Err(err).Msg("resolving organization")
		return ""
	}
	return res.ID
}

// ResolveAction returns the id of the matching or newly created action,
// or "" when the candidate cannot be resolved.
func (h *ResolutionHandler) ResolveAction(ctx context.Context, cand entities.ActionCandidate) string {
	res, err := h.HandleAction(ctx, cand)
	if err != nil {
		h.logger.Error().Err(err).Msg("resolving action")
		return ""
	}
	return res.ID
}

// HandleContact resolves a contact candidate. An unresolvable candidate
// yields an empty Resolution.
func (h *ResolutionHandler) HandleContact(ctx context.Context, cand entities.ContactCandidate) (*Resolution, error) {
	contact, created, err := h.resolver.ResolveContact(ctx, cand)
	if err != nil {
		return nil, err
	}
	if contact == nil {
		return &Resolution{}, nil
	}
	return &Resolution{ID: contact.ID, Created: created}, nil
}

// HandleOrganization resolves an organization candidate.
func (h *ResolutionHandler) HandleOrganization(ctx context.Context, cand entities.OrganizationCandidate) (*Resolution, error) {
	org, created, err := h.resolver.ResolveOrganization(ctx, cand)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return &Resolution{}, nil
	}
	return &Resolution{ID: org.ID, Created: created}, nil
}

// HandleAction resolves an action candidate.
func (h *ResolutionHandler) HandleAction(ctx context.Context, cand entities.ActionCandidate) (*Resolution, error) {
	action, created, err := h.resolver.ResolveAction(ctx, cand)
	if err != nil {
		return nil, err
	}
	if action == nil {
		return &Resolution{}, nil
	}
	return &Resolution{ID: action.ID, Created: created}, nil
}
