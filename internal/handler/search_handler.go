package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/schradermade/hvac-ai-sub002/internal/middleware"
	"github.com/schradermade/hvac-ai-sub002/internal/searchindex"
	"github.com/schradermade/hvac-ai-sub002/pkg/logger"
	"go.uber.org/zap"
)

// SearchHandler serves lexical job search.
type SearchHandler struct {
	search *searchindex.Maintainer
}

// NewSearchHandler creates a SearchHandler.
func NewSearchHandler(search *searchindex.Maintainer) *SearchHandler {
	return &SearchHandler{search: search}
}

// SearchJobs handles GET /search/jobs?q=. An empty query returns an
// empty result rather than an error.
func (h *SearchHandler) SearchJobs(c echo.Context) error {
	log := logger.FromEcho(c)
	tenantID := middleware.GetTenantID(c)
	query := c.QueryParam("q")

	jobIDs, err := h.search.SearchJobIDs(c.Request().Context(), tenantID, query)
	if err != nil {
		log.Error("Job search failed", zap.String("query", query), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to search jobs"})
	}
	if jobIDs == nil {
		jobIDs = []string{}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"job_ids": jobIDs,
		"query":   query,
	})
}
