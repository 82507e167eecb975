package vectorstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/schradermade/hvac-ai-sub002/internal/model"
	"gorm.io/gorm"
)

// Upserter is the write surface of the vector index.
type Upserter interface {
	Upsert(ctx context.Context, points []Point) error
}

// Reindexer rebuilds a job's vector points from its notes and job events.
// It runs on the async reindex path, never inline with a request.
type Reindexer struct {
	db       *gorm.DB
	embedder Embedder
	index    Upserter
}

// NewReindexer creates a Reindexer.
func NewReindexer(db *gorm.DB, embedder Embedder, index Upserter) *Reindexer {
	return &Reindexer{db: db, embedder: embedder, index: index}
}

// ErrJobNotFound is returned when the job does not exist in the tenant.
var ErrJobNotFound = errors.New("job not found")

// ReindexJob embeds every note and job event snippet for the job and
// upserts the points with tenant/job metadata. Returns the number of points
// written.
func (r *Reindexer) ReindexJob(ctx context.Context, tenantID, jobID string) (int, error) {
	var job model.Job
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, jobID).
		First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrJobNotFound
		}
		return 0, err
	}

	type doc struct {
		id      string
		snippet string
		date    time.Time
	}
	var docs []doc

	var notes []model.Note
	err = r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).
		Where(r.db.
			Where("entity_type = ? AND entity_id = ?", model.NoteEntityJob, job.ID).
			Or("entity_type = ? AND entity_id = ?", model.NoteEntityClient, job.ClientID).
			Or("entity_type = ? AND entity_id = ?", model.NoteEntityProperty, job.PropertyID)).
		Find(&notes).Error
	if err != nil {
		return 0, err
	}
	for _, n := range notes {
		docs = append(docs, doc{id: n.ID, snippet: n.Body, date: n.CreatedAt})
	}

	var events []model.JobEvent
	err = r.db.WithContext(ctx).
		Where("tenant_id = ? AND job_id = ?", tenantID, job.ID).
		Find(&events).Error
	if err != nil {
		return 0, err
	}
	for _, e := range events {
		snippet := e.EventType
		if e.Issue != "" {
			snippet += ": " + e.Issue
		}
		if e.Resolution != "" {
			snippet += "; resolved: " + e.Resolution
		}
		docs = append(docs, doc{id: e.ID, snippet: snippet, date: e.OccurredAt})
	}

	points := make([]Point, 0, len(docs))
	for _, d := range docs {
		if d.snippet == "" {
			continue
		}
		vector, err := r.embedder.Embed(ctx, d.snippet)
		if err != nil {
			return 0, err
		}
		points = append(points, Point{
			// Qdrant requires UUID or integer point IDs; derive a stable UUID
			// from the source document so reindexing overwrites prior points.
			ID:     uuid.NewSHA1(uuid.NameSpaceOID, []byte(tenantID+"/"+d.id)).String(),
			Vector: vector,
			Metadata: Metadata{
				TenantID: tenantID,
				JobID:    jobID,
				DocID:    d.id,
				Snippet:  d.snippet,
				Date:     d.date.Format(time.RFC3339),
			},
		})
	}

	if err := r.index.Upsert(ctx, points); err != nil {
		return 0, err
	}
	return len(points), nil
}
