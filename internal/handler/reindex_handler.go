package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/schradermade/hvac-ai-sub002/internal/middleware"
	"github.com/schradermade/hvac-ai-sub002/internal/searchindex"
	"github.com/schradermade/hvac-ai-sub002/internal/vectorstore"
	"github.com/schradermade/hvac-ai-sub002/pkg/logger"
	"github.com/schradermade/hvac-ai-sub002/prometheus"
	"go.uber.org/zap"
)

// ReindexHandler serves the admin reindex routes for both the lexical
// search index and the vector index.
type ReindexHandler struct {
	search    *searchindex.Maintainer
	reindexer *vectorstore.Reindexer // nil when vector infrastructure is not configured
}

// NewReindexHandler creates a ReindexHandler. reindexer may be nil.
func NewReindexHandler(search *searchindex.Maintainer, reindexer *vectorstore.Reindexer) *ReindexHandler {
	return &ReindexHandler{search: search, reindexer: reindexer}
}

// VectorizeJob handles POST /admin/vectorize/reindex/job/:jobId. It embeds
// and upserts every evidence document of the job synchronously.
func (h *ReindexHandler) VectorizeJob(c echo.Context) error {
	log := logger.FromEcho(c)
	tenantID := middleware.GetTenantID(c)
	jobID := c.Param("jobId")

	if h.reindexer == nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Vector store is not configured"})
	}

	points, err := h.reindexer.ReindexJob(c.Request().Context(), tenantID, jobID)
	if err != nil {
		if errors.Is(err, vectorstore.ErrJobNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Job not found"})
		}
		prometheus.ReindexCounter.WithLabelValues("vector_job", "error").Inc()
		log.Error("Vector reindex failed", zap.String("job_id", jobID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to reindex job"})
	}

	prometheus.ReindexCounter.WithLabelValues("vector_job", "ok").Inc()
	log.Info("Vector reindex complete", zap.String("job_id", jobID), zap.Int("points", points))
	return c.JSON(http.StatusOK, echo.Map{
		"status": "ok",
		"job_id": jobID,
		"points": points,
	})
}

// SearchReindexClient handles POST /admin/search/reindex/client/:id.
func (h *ReindexHandler) SearchReindexClient(c echo.Context) error {
	tenantID := middleware.GetTenantID(c)
	id := c.Param("id")
	n, err := h.search.ReindexJobsForClient(c.Request().Context(), tenantID, id)
	return h.searchReindexResult(c, "client", n, err)
}

// SearchReindexProperty handles POST /admin/search/reindex/property/:id.
func (h *ReindexHandler) SearchReindexProperty(c echo.Context) error {
	tenantID := middleware.GetTenantID(c)
	id := c.Param("id")
	n, err := h.search.ReindexJobsForProperty(c.Request().Context(), tenantID, id)
	return h.searchReindexResult(c, "property", n, err)
}

// SearchReindexTenant handles POST /admin/search/reindex/tenant. It
// rebuilds the lexical index for every job owned by the caller's tenant.
func (h *ReindexHandler) SearchReindexTenant(c echo.Context) error {
	tenantID := middleware.GetTenantID(c)
	n, err := h.search.ReindexTenant(c.Request().Context(), tenantID)
	return h.searchReindexResult(c, "tenant", n, err)
}

func (h *ReindexHandler) searchReindexResult(c echo.Context, scope string, jobs int, err error) error {
	log := logger.FromEcho(c)
	if err != nil {
		prometheus.ReindexCounter.WithLabelValues("lexical_"+scope, "error").Inc()
		log.Error("Lexical reindex failed", zap.String("scope", scope), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to reindex"})
	}
	prometheus.ReindexCounter.WithLabelValues("lexical_"+scope, "ok").Inc()
	prometheus.ReindexJobsTouched.WithLabelValues("lexical_" + scope).Add(float64(jobs))
	log.Info("Lexical reindex complete", zap.String("scope", scope), zap.Int("jobs", jobs))
	return c.JSON(http.StatusOK, echo.Map{
		"status": "ok",
		"jobs":   jobs,
	})
}
