package handlers

import (
	"context"

	"github.com/ersonp/fishreg/internal/domain/services"
)

// ReindexHandler rebuilds the name index.
type ReindexHandler struct {
	service *services.IndexService
}

// NewReindexHandler creates a new reindex handler.
func NewReindexHandler(service *services.IndexService) *ReindexHandler {
	return &ReindexHandler{
		service: service,
	}
}

// Handle drops and reloads the name index. It returns
// services.ErrNameIndexDisabled when no index is configured.
func (h *ReindexHandler) Handle(ctx context.Context) (*services.IndexStats, error) {
	return h.service.Rebuild(ctx)
}
