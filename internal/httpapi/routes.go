package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ersonp/fishreg/internal/application/handlers"
	"github.com/ersonp/fishreg/internal/domain/entities"
	"github.com/ersonp/fishreg/internal/domain/services"
)

const (
	defaultPageSize = 25
	maxPageSize     = 200
)

// resolutionResponse carries a null id when the candidate could not be resolved.
type resolutionResponse struct {
	ID      *string `json:"id"`
	Created bool    `json:"created"`
}

type mergeRequest struct {
	PrimaryID    string   `json:"primary_id"`
	DuplicateIDs []string `json:"duplicate_ids"`
}

func toResolutionResponse(res *handlers.Resolution) resolutionResponse {
	if res.ID == "" {
		return resolutionResponse{}
	}
	id := res.ID
	return resolutionResponse{ID: &id, Created: res.Created}
}

func resolutionStatus(res *handlers.Resolution) int {
	if res.Created {
		return http.StatusCreated
	}
	return http.StatusOK
}

func (s *Server) handleHealth(c echo.Context) error {
	return success(c, map[string]any{
		"service": "fishreg",
		"time":    s.now(),
	})
}

func (s *Server) handleResolveContact(c echo.Context) error {
	var cand entities.ContactCandidate
	if err := c.Bind(&cand); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid JSON body", nil)
	}

	res, err := s.h.Resolution.HandleContact(c.Request().Context(), cand)
	if err != nil {
		s.logger.Error().Err(err).Msg("resolve contact failed")
		return internalError(c, "Failed to resolve contact")
	}
	return successWithStatus(c, resolutionStatus(res), toResolutionResponse(res))
}

func (s *Server) handleResolveOrganization(c echo.Context) error {
	var cand entities.OrganizationCandidate
	if err := c.Bind(&cand); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid JSON body", nil)
	}

	res, err := s.h.Resolution.HandleOrganization(c.Request().Context(), cand)
	if err != nil {
		s.logger.Error().Err(err).Msg("resolve organization failed")
		return internalError(c, "Failed to resolve organization")
	}
	return successWithStatus(c, resolutionStatus(res), toResolutionResponse(res))
}

func (s *Server) handleResolveAction(c echo.Context) error {
	var cand entities.ActionCandidate
	if err := c.Bind(&cand); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid JSON body", nil)
	}

	res, err := s.h.Resolution.HandleAction(c.Request().Context(), cand)
	if err != nil {
		s.logger.Error().Err(err).Msg("resolve action failed")
		return internalError(c, "Failed to resolve action")
	}
	return successWithStatus(c, resolutionStatus(res), toResolutionResponse(res))
}

func (s *Server) handleDuplicates(c echo.Context) error {
	var minScore float64
	if raw := strings.TrimSpace(c.QueryParam("min_score")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 || v > 1 {
			return failValidation(c, map[string]string{
				"min_score": "must be a number greater than 0 and at most 1",
			})
		}
		minScore = v
	}

	report, err := s.h.Duplicates.FindClusters(c.Request().Context(), minScore)
	if err != nil {
		s.logger.Error().Err(err).Msg("find duplicates failed")
		return internalError(c, "Failed to find duplicates")
	}
	return success(c, report)
}

func (s *Server) handleDuplicateStats(c echo.Context) error {
	stats, err := s.h.Duplicates.Statistics(c.Request().Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("duplicate statistics failed")
		return internalError(c, "Failed to load duplicate statistics")
	}
	return success(c, stats)
}

func (s *Server) handleContacts(c echo.Context) error {
	page, pageSize, fieldErrors := parsePaging(c)
	if len(fieldErrors) > 0 {
		return failValidation(c, fieldErrors)
	}

	result, err := s.h.Contacts.HandleList(c.Request().Context(), pageSize, (page-1)*pageSize)
	if err != nil {
		s.logger.Error().Err(err).Msg("list contacts failed")
		return internalError(c, "Failed to list contacts")
	}
	return success(c, map[string]any{
		"items":     result.Contacts,
		"total":     result.Total,
		"page":      page,
		"page_size": pageSize,
	})
}

func (s *Server) handleContactDetail(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return failValidation(c, map[string]string{"id": "is required"})
	}

	detail, err := s.h.Contacts.HandleGet(c.Request().Context(), id)
	if errors.Is(err, entities.ErrContactNotFound) {
		return failNotFound(c, "Contact not found")
	}
	if err != nil {
		s.logger.Error().Err(err).Str("contact_id", id).Msg("load contact failed")
		return internalError(c, "Failed to load contact")
	}
	return success(c, detail)
}

func (s *Server) handleMerge(c echo.Context) error {
	var req mergeRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid JSON body", nil)
	}

	fieldErrors := map[string]string{}
	if strings.TrimSpace(req.PrimaryID) == "" {
		fieldErrors["primary_id"] = "is required"
	}
	if len(req.DuplicateIDs) == 0 {
		fieldErrors["duplicate_ids"] = "must list at least one contact"
	}
	if len(fieldErrors) > 0 {
		return failValidation(c, fieldErrors)
	}

	result, err := s.h.Merge.MergeContacts(c.Request().Context(), req.PrimaryID, req.DuplicateIDs)
	switch {
	case errors.Is(err, entities.ErrContactNotFound):
		return failNotFound(c, err.Error())
	case err != nil:
		s.logger.Error().Err(err).Str("primary_id", req.PrimaryID).Msg("merge contacts failed")
		return internalError(c, "Failed to merge contacts")
	}
	return success(c, result)
}

func (s *Server) handleReindex(c echo.Context) error {
	if s.h.Reindex == nil {
		return fail(c, http.StatusConflict, services.ErrNameIndexDisabled.Error(), nil)
	}

	stats, err := s.h.Reindex.Handle(c.Request().Context())
	if errors.Is(err, services.ErrNameIndexDisabled) {
		return fail(c, http.StatusConflict, err.Error(), nil)
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("rebuild name index failed")
		return internalError(c, "Failed to rebuild name index")
	}
	return success(c, stats)
}

func parsePaging(c echo.Context) (page, pageSize int, fieldErrors map[string]string) {
	page, pageSize = 1, defaultPageSize
	fieldErrors = map[string]string{}

	if raw := strings.TrimSpace(c.QueryParam("page")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			fieldErrors["page"] = "must be a positive integer"
		} else {
			page = v
		}
	}
	if raw := strings.TrimSpace(c.QueryParam("page_size")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > maxPageSize {
			fieldErrors["page_size"] = "must be between 1 and 200"
		} else {
			pageSize = v
		}
	}
	return page, pageSize, fieldErrors
}
