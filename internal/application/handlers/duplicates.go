package handlers

import (
	"context"
	"fmt"

	"github.com/ersonp/fishreg/internal/domain/entities"
	"github.com/ersonp/fishreg/internal/domain/services"
)

// DuplicateHandler serves duplicate review.
type DuplicateHandler struct {
	detector        *services.DuplicateDetector
	defaultMinScore float64
}

// NewDuplicateHandler creates a new duplicate handler. defaultMinScore is
// used when a caller passes a non-positive minimum score.
func NewDuplicateHandler(detector *services.DuplicateDetector, defaultMinScore float64) *DuplicateHandler {
	return &DuplicateHandler{
		detector:        detector,
		defaultMinScore: defaultMinScore,
	}
}

// DuplicateReport contains the clusters found for one minimum score.
type DuplicateReport struct {
	MinScore float64                     `json:"min_score"`
	Clusters []entities.DuplicateCluster `json:"clusters"`
}

// FindClusters groups likely duplicate contacts scoring at least minScore.
func (h *DuplicateHandler) FindClusters(ctx context.Context, minScore float64) (*DuplicateReport, error) {
	if minScore <= 0 {
		minScore = h.defaultMinScore
	}
	if minScore > 1 {
		return nil, fmt.Errorf("min score %.2f must be between 0 and 1", minScore)
	}

	clusters, err := h.detector.FindClusters(ctx, minScore)
	if err != nil {
		return nil, fmt.Errorf("finding duplicate clusters: %w", err)
	}
	if clusters == nil {
		clusters = []entities.DuplicateCluster{}
	}

	return &DuplicateReport{
		MinScore: minScore,
		Clusters: clusters,
	}, nil
}

// Statistics summarises duplication across all contacts.
func (h *DuplicateHandler) Statistics(ctx context.Context) (*entities.DuplicateStatistics, error) {
	stats, err := h.detector.Statistics(ctx)
	if err != nil {
		return nil, fmt.Errorf("computing duplicate statistics: %w", err)
	}
	return stats, nil
}
