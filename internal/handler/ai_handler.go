package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/schradermade/hvac-ai-sub002/internal/apperr"
	"github.com/schradermade/hvac-ai-sub002/internal/evidence"
	"github.com/schradermade/hvac-ai-sub002/internal/llm"
	"github.com/schradermade/hvac-ai-sub002/internal/middleware"
	"github.com/schradermade/hvac-ai-sub002/internal/orchestrator"
	"github.com/schradermade/hvac-ai-sub002/internal/vectorstore"
	"github.com/schradermade/hvac-ai-sub002/pkg/logger"
	"github.com/schradermade/hvac-ai-sub002/prometheus"
	"go.uber.org/zap"
)

// DebugHeader enables retrieval diagnostics on the chat route.
const DebugHeader = "x-debug"

// AIHandler serves the job context, session and chat routes.
type AIHandler struct {
	assembler     *evidence.Assembler
	retriever     *vectorstore.Retriever     // nil when vector infrastructure is not configured
	orch          *orchestrator.Orchestrator // nil when model credentials are missing
	evidenceLimit int
}

// NewAIHandler creates an AIHandler. retriever and orch may be nil.
func NewAIHandler(assembler *evidence.Assembler, retriever *vectorstore.Retriever, orch *orchestrator.Orchestrator, evidenceLimit int) *AIHandler {
	if evidenceLimit <= 0 {
		evidenceLimit = 20
	}
	return &AIHandler{
		assembler:     assembler,
		retriever:     retriever,
		orch:          orch,
		evidenceLimit: evidenceLimit,
	}
}

// JobContext handles GET /jobs/:jobId/ai/context.
func (h *AIHandler) JobContext(c echo.Context) error {
	log := logger.FromEcho(c)
	tenantID := middleware.GetTenantID(c)
	jobID := c.Param("jobId")

	snapshot, err := h.assembler.JobSnapshot(c.Request().Context(), tenantID, jobID)
	if err != nil {
		if e, ok := apperr.As(err); ok {
			return c.JSON(e.Status, echo.Map{"error": e.Message})
		}
		log.Error("Failed to build job snapshot", zap.String("job_id", jobID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to build job context"})
	}
	return c.JSON(http.StatusOK, snapshot)
}

// CreateSession handles POST /jobs/:jobId/ai/session. Sessions are
// stateless descriptors: conversation history rides on the chat request.
func (h *AIHandler) CreateSession(c echo.Context) error {
	tenantID := middleware.GetTenantID(c)
	jobID := c.Param("jobId")

	if _, err := h.assembler.JobSnapshot(c.Request().Context(), tenantID, jobID); err != nil {
		if e, ok := apperr.As(err); ok {
			return c.JSON(e.Status, echo.Map{"error": e.Message})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create session"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"sessionId": uuid.New().String(),
		"jobId":     jobID,
		"tenantId":  tenantID,
		"status":    "active",
	})
}

// ChatRequest is the body for the chat route.
type ChatRequest struct {
	Message string        `json:"message"`
	History []llm.Message `json:"history"`
}

// Chat handles POST /jobs/:jobId/ai/chat: it merges assembled and vector
// evidence, invokes the orchestrator and returns the structured answer.
func (h *AIHandler) Chat(c echo.Context) error {
	log := logger.FromEcho(c)
	tenantID := middleware.GetTenantID(c)
	jobID := c.Param("jobId")
	ctx := c.Request().Context()
	start := time.Now()

	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if strings.TrimSpace(req.Message) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing required field: message"})
	}
	if h.orch == nil {
		log.Error("Chat requested but model credentials are not configured")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "AI provider is not configured"})
	}

	prometheus.ChatRequestCounter.Inc()

	snapshot, err := h.assembler.JobSnapshot(ctx, tenantID, jobID)
	if err != nil {
		if e, ok := apperr.As(err); ok {
			return c.JSON(e.Status, echo.Map{"error": e.Message})
		}
		log.Error("Failed to build job snapshot", zap.String("job_id", jobID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to build job context"})
	}

	items, err := h.assembler.JobEvidence(ctx, tenantID, jobID, h.evidenceLimit)
	if err != nil {
		log.Error("Failed to gather job evidence", zap.String("job_id", jobID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to gather evidence"})
	}

	debug := c.Request().Header.Get(DebugHeader) == "1"
	var retrieval vectorstore.Result
	if h.retriever != nil {
		prometheus.VectorQueryCounter.Inc()
		retrieval = h.retriever.Retrieve(ctx, tenantID, jobID, req.Message, debug)
		if retrieval.FallbackUsed {
			prometheus.VectorFallbackCounter.Inc()
		}
		items = evidence.Merge(append(items, retrieval.Items...), h.evidenceLimit)
	}
	prometheus.EvidenceCountHist.Observe(float64(len(items)))

	answer, err := h.orch.Answer(ctx, snapshot, items, req.Message, req.History)
	if err != nil {
		if e, ok := apperr.As(err); ok {
			return c.JSON(e.Status, echo.Map{"error": e.Message})
		}
		log.Error("Orchestrator failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to answer"})
	}

	prometheus.ChatDurationHistogram.Observe(time.Since(start).Seconds())
	log.Info("Chat answered",
		zap.String("job_id", jobID),
		zap.Int("evidence_count", len(items)),
		zap.Bool("vector_fallback", retrieval.FallbackUsed))

	resp := echo.Map{
		"answer":     answer.Answer,
		"citations":  answer.Citations,
		"follow_ups": answer.FollowUps,
	}
	if debug {
		resp["debug"] = echo.Map{
			"vector_enabled":  h.retriever != nil,
			"fallback_used":   retrieval.FallbackUsed,
			"raw_match_count": retrieval.RawCount,
			"filtered_out":    retrieval.FilteredOut,
			"evidence_count":  len(items),
			"raw_matches":     retrieval.RawMatches,
			"prompt_version":  orchestrator.PromptVersion,
		}
	}
	return c.JSON(http.StatusOK, resp)
}
