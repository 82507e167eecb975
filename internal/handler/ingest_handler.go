package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/schradermade/hvac-ai-sub002/internal/middleware"
	"github.com/schradermade/hvac-ai-sub002/internal/model"
	"github.com/schradermade/hvac-ai-sub002/internal/searchindex"
	"github.com/schradermade/hvac-ai-sub002/internal/tasks"
	"github.com/schradermade/hvac-ai-sub002/internal/vectorstore"
	"github.com/schradermade/hvac-ai-sub002/pkg/logger"
	"github.com/schradermade/hvac-ai-sub002/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IdempotencyKeyHeader carries the client-supplied idempotency key on note
// creation.
const IdempotencyKeyHeader = "Idempotency-Key"

// IngestHandler validates and persists new records and schedules the
// downstream reindexing they require. Primary writes always complete before
// the response; reindexing rides on the background task runner.
type IngestHandler struct {
	db        *gorm.DB
	search    *searchindex.Maintainer
	runner    tasks.Runner
	reindexer *vectorstore.Reindexer // nil when vector infrastructure is not configured
}

// NewIngestHandler creates an IngestHandler. reindexer may be nil.
func NewIngestHandler(db *gorm.DB, search *searchindex.Maintainer, runner tasks.Runner, reindexer *vectorstore.Reindexer) *IngestHandler {
	return &IngestHandler{db: db, search: search, runner: runner, reindexer: reindexer}
}

// ClientRequest is the body for client creation.
type ClientRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// CreateClient handles POST /ingest/clients.
func (h *IngestHandler) CreateClient(c echo.Context) error {
	log := logger.FromEcho(c)
	tenantID := middleware.GetTenantID(c)

	var req ClientRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if field, ok := requireFields(requiredField{"name", req.Name}); !ok {
		prometheus.ValidationErrorCounter.WithLabelValues("client").Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": fmt.Sprintf("Missing required field: %s", field)})
	}

	client := model.Client{
		ID:       orNewID(req.ID),
		TenantID: tenantID,
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
	}
	if err := h.db.WithContext(c.Request().Context()).Create(&client).Error; err != nil {
		log.Error("Failed to create client", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create client"})
	}

	prometheus.IngestCounter.WithLabelValues("client").Inc()
	log.Info("Client created", zap.String("client_id", client.ID))

	// A no-op for a brand-new client, but the trigger is always issued: the
	// reindex itself is idempotent and updates rely on the same path.
	h.submitReindex("reindex_jobs_for_client", func(ctx context.Context) error {
		n, err := h.search.ReindexJobsForClient(ctx, tenantID, client.ID)
		observeReindex("client", n, err)
		return err
	})

	return c.JSON(http.StatusCreated, echo.Map{"id": client.ID})
}

// PropertyRequest is the body for property creation.
type PropertyRequest struct {
	ID       string `json:"id"`
	ClientID string `json:"client_id"`
	Address  string `json:"address"`
	City     string `json:"city"`
	State    string `json:"state"`
	Zip      string `json:"zip"`
}

// CreateProperty handles POST /ingest/properties.
func (h *IngestHandler) CreateProperty(c echo.Context) error {
	log := logger.FromEcho(c)
	tenantID := middleware.GetTenantID(c)

	var req PropertyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if field, ok := requireFields(
		requiredField{"client_id", req.ClientID},
		requiredField{"address", req.Address}); !ok {
		prometheus.ValidationErrorCounter.WithLabelValues("property").Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": fmt.Sprintf("Missing required field: %s", field)})
	}

	property := model.Property{
		ID:       orNewID(req.ID),
		TenantID: tenantID,
		ClientID: req.ClientID,
		Address:  req.Address,
		City:     req.City,
		State:    req.State,
		Zip:      req.Zip,
	}
	if err := h.db.WithContext(c.Request().Context()).Create(&property).Error; err != nil {
		log.Error("Failed to create property", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create property"})
	}

	prometheus.IngestCounter.WithLabelValues("property").Inc()
	log.Info("Property created", zap.String("property_id", property.ID))

	h.submitReindex("reindex_jobs_for_property", func(ctx context.Context) error {
		n, err := h.search.ReindexJobsForProperty(ctx, tenantID, property.ID)
		observeReindex("property", n, err)
		return err
	})

	return c.JSON(http.StatusCreated, echo.Map{"id": property.ID})
}

// JobRequest is the body for job creation.
type JobRequest struct {
	ID             string     `json:"id"`
	ClientID       string     `json:"client_id"`
	PropertyID     string     `json:"property_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Status         string     `json:"status"`
	AssignedUserID *string    `json:"assigned_user_id"`
	ScheduledAt    *time.Time `json:"scheduled_at"`
}

// CreateJob handles POST /ingest/jobs.
func (h *IngestHandler) CreateJob(c echo.Context) error {
	log := logger.FromEcho(c)
	tenantID := middleware.GetTenantID(c)

	var req JobRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if field, ok := requireFields(
		requiredField{"client_id", req.ClientID},
		requiredField{"property_id", req.PropertyID},
		requiredField{"title", req.Title}); !ok {
		prometheus.ValidationErrorCounter.WithLabelValues("job").Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": fmt.Sprintf("Missing required field: %s", field)})
	}

	status := req.Status
	if status == "" {
		status = model.JobStatusScheduled
	}
	job := model.Job{
		ID:             orNewID(req.ID),
		TenantID:       tenantID,
		ClientID:       req.ClientID,
		PropertyID:     req.PropertyID,
		Title:          req.Title,
		Description:    req.Description,
		Status:         status,
		AssignedUserID: req.AssignedUserID,
		ScheduledAt:    req.ScheduledAt,
	}
	if err := h.db.WithContext(c.Request().Context()).Create(&job).Error; err != nil {
		log.Error("Failed to create job", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create job"})
	}

	prometheus.IngestCounter.WithLabelValues("job").Inc()
	log.Info("Job created", zap.String("job_id", job.ID))

	h.submitReindex("reindex_job", func(ctx context.Context) error {
		err := h.search.UpsertJobSearchIndex(ctx, tenantID, job.ID)
		observeReindex("job", 1, err)
		return err
	})

	return c.JSON(http.StatusCreated, echo.Map{"id": job.ID})
}

// EquipmentRequest is the body for equipment creation.
type EquipmentRequest struct {
	ID           string `json:"id"`
	PropertyID   string `json:"property_id"`
	Make         string `json:"make"`
	Model        string `json:"model"`
	SerialNumber string `json:"serial_number"`
	InstallYear  int    `json:"install_year"`
	Notes        string `json:"notes"`
}

// CreateEquipment handles POST /ingest/equipment.
func (h *IngestHandler) CreateEquipment(c echo.Context) error {
	log := logger.FromEcho(c)
	tenantID := middleware.GetTenantID(c)

	var req EquipmentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if field, ok := requireFields(
		requiredField{"property_id", req.PropertyID},
		requiredField{"make", req.Make}); !ok {
		prometheus.ValidationErrorCounter.WithLabelValues("equipment").Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": fmt.Sprintf("Missing required field: %s", field)})
	}

	equipment := model.Equipment{
		ID:           orNewID(req.ID),
		TenantID:     tenantID,
		PropertyID:   req.PropertyID,
		Make:         req.Make,
		Model:        req.Model,
		SerialNumber: req.SerialNumber,
		InstallYear:  req.InstallYear,
		Notes:        req.Notes,
	}
	if err := h.db.WithContext(c.Request().Context()).Create(&equipment).Error; err != nil {
		log.Error("Failed to create equipment", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create equipment"})
	}

	prometheus.IngestCounter.WithLabelValues("equipment").Inc()
	log.Info("Equipment created", zap.String("equipment_id", equipment.ID))

	h.submitReindex("reindex_jobs_for_property", func(ctx context.Context) error {
		n, err := h.search.ReindexJobsForProperty(ctx, tenantID, equipment.PropertyID)
		observeReindex("property", n, err)
		return err
	})

	return c.JSON(http.StatusCreated, echo.Map{"id": equipment.ID})
}

// JobEventRequest is the body for job event creation.
type JobEventRequest struct {
	ID         string     `json:"id"`
	JobID      string     `json:"job_id"`
	EventType  string     `json:"event_type"`
	Issue      string     `json:"issue"`
	Resolution string     `json:"resolution"`
	PartsUsed  string     `json:"parts_used"`
	OccurredAt *time.Time `json:"occurred_at"`
}

// CreateJobEvent handles POST /ingest/job-events.
func (h *IngestHandler) CreateJobEvent(c echo.Context) error {
	log := logger.FromEcho(c)
	tenantID := middleware.GetTenantID(c)
	ctx := c.Request().Context()

	var req JobEventRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if field, ok := requireFields(
		requiredField{"job_id", req.JobID},
		requiredField{"event_type", req.EventType}); !ok {
		prometheus.ValidationErrorCounter.WithLabelValues("job_event").Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": fmt.Sprintf("Missing required field: %s", field)})
	}

	if !h.jobExists(ctx, tenantID, req.JobID) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Job not found"})
	}

	occurredAt := time.Now()
	if req.OccurredAt != nil {
		occurredAt = *req.OccurredAt
	}
	event := model.JobEvent{
		ID:         orNewID(req.ID),
		TenantID:   tenantID,
		JobID:      req.JobID,
		EventType:  req.EventType,
		Issue:      req.Issue,
		Resolution: req.Resolution,
		PartsUsed:  req.PartsUsed,
		OccurredAt: occurredAt,
	}
	if err := h.db.WithContext(ctx).Create(&event).Error; err != nil {
		log.Error("Failed to create job event", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create job event"})
	}

	prometheus.IngestCounter.WithLabelValues("job_event").Inc()
	log.Info("Job event created", zap.String("event_id", event.ID), zap.String("job_id", event.JobID))

	h.scheduleJobReindex(tenantID, event.JobID)

	return c.JSON(http.StatusCreated, echo.Map{"id": event.ID})
}

// NoteRequest is the body for note creation.
type NoteRequest struct {
	ID         string `json:"id"`
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	AuthorID   string `json:"author_id"`
	Body       string `json:"body"`
}

// CreateNote handles POST /ingest/notes with idempotency-key support. A
// replayed key answers 200 with the existing id; a key collision that is not
// a clean replay answers 409.
func (h *IngestHandler) CreateNote(c echo.Context) error {
	log := logger.FromEcho(c)
	tenantID := middleware.GetTenantID(c)
	ctx := c.Request().Context()

	var req NoteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if field, ok := requireFields(
		requiredField{"entity_type", req.EntityType},
		requiredField{"entity_id", req.EntityID},
		requiredField{"body", req.Body}); !ok {
		prometheus.ValidationErrorCounter.WithLabelValues("note").Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": fmt.Sprintf("Missing required field: %s", field)})
	}
	if !model.ValidNoteEntityType(req.EntityType) {
		prometheus.ValidationErrorCounter.WithLabelValues("note").Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid entity_type"})
	}

	if req.EntityType == model.NoteEntityJob && !h.jobExists(ctx, tenantID, req.EntityID) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Job not found"})
	}

	note := model.Note{
		ID:         orNewID(req.ID),
		TenantID:   tenantID,
		EntityType: req.EntityType,
		EntityID:   req.EntityID,
		AuthorID:   req.AuthorID,
		Body:       req.Body,
	}

	idemKey := strings.TrimSpace(c.Request().Header.Get(IdempotencyKeyHeader))
	if idemKey != "" {
		note.IdempotencyKey = &idemKey

		// Insert unless a row with the same (tenant, idempotency_key) exists.
		result := h.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "idempotency_key"}},
			DoNothing: true,
		}).Create(&note)
		if result.Error != nil {
			log.Error("Failed to create note", zap.Error(result.Error))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create note"})
		}

		if result.RowsAffected == 0 {
			var existing model.Note
			err := h.db.WithContext(ctx).
				Where("tenant_id = ? AND idempotency_key = ?", tenantID, idemKey).
				First(&existing).Error
			if err == nil {
				prometheus.IdempotentReplayCount.Inc()
				log.Info("Note creation replayed via idempotency key",
					zap.String("note_id", existing.ID))
				return c.JSON(http.StatusOK, echo.Map{"id": existing.ID, "idempotent": true})
			}
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Zero rows affected but no row to replay: a write conflict
				// that is not an idempotency replay.
				prometheus.IngestConflictCounter.Inc()
				log.Warn("Note insert conflicted without a replayable row",
					zap.String("idempotency_key", idemKey))
				return c.JSON(http.StatusConflict, echo.Map{"error": "Conflicting write for idempotency key"})
			}
			log.Error("Failed to look up note by idempotency key", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create note"})
		}
	} else {
		if err := h.db.WithContext(ctx).Create(&note).Error; err != nil {
			log.Error("Failed to create note", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create note"})
		}
	}

	prometheus.IngestCounter.WithLabelValues("note").Inc()
	log.Info("Note created",
		zap.String("note_id", note.ID),
		zap.String("entity_type", note.EntityType),
		zap.String("entity_id", note.EntityID))

	h.scheduleNoteReindex(tenantID, note)

	return c.JSON(http.StatusCreated, echo.Map{"id": note.ID})
}

// scheduleNoteReindex schedules the lexical reindex for the jobs the note
// touches and, when vector infrastructure is configured, the vector reindex
// for the same jobs. Client and property notes feed the vector points of
// every job under that client or property, so those scopes refresh vectors
// too, not just job notes.
func (h *IngestHandler) scheduleNoteReindex(tenantID string, note model.Note) {
	switch note.EntityType {
	case model.NoteEntityJob:
		h.scheduleJobReindex(tenantID, note.EntityID)
	case model.NoteEntityClient:
		h.submitReindex("reindex_jobs_for_client", func(ctx context.Context) error {
			n, err := h.search.ReindexJobsForClient(ctx, tenantID, note.EntityID)
			observeReindex("client", n, err)
			return err
		})
		if h.reindexer != nil {
			h.submitReindex("vector_reindex_jobs_for_client", func(ctx context.Context) error {
				return h.vectorReindexJobs(ctx, tenantID, "client_id = ?", note.EntityID)
			})
		}
	case model.NoteEntityProperty:
		h.submitReindex("reindex_jobs_for_property", func(ctx context.Context) error {
			n, err := h.search.ReindexJobsForProperty(ctx, tenantID, note.EntityID)
			observeReindex("property", n, err)
			return err
		})
		if h.reindexer != nil {
			h.submitReindex("vector_reindex_jobs_for_property", func(ctx context.Context) error {
				return h.vectorReindexJobs(ctx, tenantID, "property_id = ?", note.EntityID)
			})
		}
	}
}

// vectorReindexJobs rebuilds the vector points of every job in the tenant
// matching cond.
func (h *IngestHandler) vectorReindexJobs(ctx context.Context, tenantID, cond string, args ...interface{}) error {
	var jobIDs []string
	err := h.db.WithContext(ctx).Model(&model.Job{}).
		Where("tenant_id = ?", tenantID).
		Where(cond, args...).
		Pluck("id", &jobIDs).Error
	if err != nil {
		return err
	}
	for _, jobID := range jobIDs {
		if _, err := h.reindexer.ReindexJob(ctx, tenantID, jobID); err != nil {
			return err
		}
	}
	return nil
}

func (h *IngestHandler) scheduleJobReindex(tenantID, jobID string) {
	h.submitReindex("reindex_job", func(ctx context.Context) error {
		err := h.search.UpsertJobSearchIndex(ctx, tenantID, jobID)
		observeReindex("job", 1, err)
		return err
	})
	if h.reindexer != nil {
		h.submitReindex("vector_reindex_job", func(ctx context.Context) error {
			_, err := h.reindexer.ReindexJob(ctx, tenantID, jobID)
			return err
		})
	}
}

func (h *IngestHandler) submitReindex(name string, run func(ctx context.Context) error) {
	h.runner.Submit(tasks.Task{Name: name, Run: run})
}

func (h *IngestHandler) jobExists(ctx context.Context, tenantID, jobID string) bool {
	var count int64
	h.db.WithContext(ctx).Model(&model.Job{}).
		Where("tenant_id = ? AND id = ?", tenantID, jobID).
		Count(&count)
	return count > 0
}

func observeReindex(scope string, jobs int, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	prometheus.ReindexCounter.WithLabelValues(scope, outcome).Inc()
	if err == nil && jobs > 0 {
		prometheus.ReindexJobsTouched.WithLabelValues(scope).Add(float64(jobs))
	}
}

// requiredField pairs a request field name with its value for validation.
type requiredField struct {
	name  string
	value string
}

// requireFields returns the first blank field name in declaration order and
// false when any required field is missing.
func requireFields(fields ...requiredField) (string, bool) {
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return f.name, false
		}
	}
	return "", true
}

func orNewID(id string) string {
	if strings.TrimSpace(id) != "" {
		return id
	}
	return uuid.New().String()
}
