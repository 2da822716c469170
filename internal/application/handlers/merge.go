package handlers

import (
	"context"

	"github.com/ersonp/fishreg/internal/domain/entities"
	"github.com/ersonp/fishreg/internal/domain/services"
)

// MergeHandler consolidates duplicate contacts after review.
type MergeHandler struct {
	engine *services.MergeEngine
}

// NewMergeHandler creates a new merge handler.
func NewMergeHandler(engine *services.MergeEngine) *MergeHandler {
	return &MergeHandler{
		engine: engine,
	}
}

// MergeContacts folds duplicateIDs into primaryID. On error nothing changed.
func (h *MergeHandler) MergeContacts(ctx context.Context, primaryID string, duplicateIDs []string) (*entities.MergeResult, error) {
	return h.engine.MergeContacts(ctx, primaryID, duplicateIDs)
}
