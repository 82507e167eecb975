// Package evidence builds the structured job snapshot and the uniform,
// time-ordered evidence list the orchestrator answers from.
package evidence

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/schradermade/hvac-ai-sub002/internal/apperr"
	"github.com/schradermade/hvac-ai-sub002/internal/model"
	"gorm.io/gorm"
)

// Evidence item types
const (
	TypeNote     = "note"
	TypeJobEvent = "job_event"
	TypeVector   = "vector_match"
)

// Item is the common shape notes, job events and vector matches are
// normalized into before merging.
type Item struct {
	DocID   string    `json:"doc_id"`
	Type    string    `json:"type"`
	Date    time.Time `json:"date"`
	Snippet string    `json:"snippet"`
	Author  string    `json:"author,omitempty"`
}

// Snapshot is the structured view of a job: its own fields plus client,
// property and equipment.
type Snapshot struct {
	Job       model.Job         `json:"job"`
	Client    *model.Client     `json:"client,omitempty"`
	Property  *model.Property   `json:"property,omitempty"`
	Equipment []model.Equipment `json:"equipment"`
}

// Assembler reads tenant-scoped job context and evidence.
type Assembler struct {
	db *gorm.DB
}

// NewAssembler creates an Assembler on the given database handle.
func NewAssembler(db *gorm.DB) *Assembler {
	return &Assembler{db: db}
}

// JobSnapshot returns the job with its client, property and equipment list.
// Fails with a not-found error when the job does not belong to the tenant.
func (a *Assembler) JobSnapshot(ctx context.Context, tenantID, jobID string) (*Snapshot, error) {
	var job model.Job
	err := a.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, jobID).
		First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("job not found")
		}
		return nil, err
	}

	snapshot := &Snapshot{Job: job, Equipment: []model.Equipment{}}

	var client model.Client
	err = a.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, job.ClientID).
		First(&client).Error
	if err == nil {
		snapshot.Client = &client
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var property model.Property
	err = a.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, job.PropertyID).
		First(&property).Error
	if err == nil {
		snapshot.Property = &property
		if err := a.db.WithContext(ctx).
			Where("tenant_id = ? AND property_id = ?", tenantID, property.ID).
			Find(&snapshot.Equipment).Error; err != nil {
			return nil, err
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return snapshot, nil
}

// JobEvidence gathers notes attached to the job, its client and its property
// plus the job's events, normalized and sorted by date descending with ties
// keeping input order (notes before events), truncated to limit. A missing
// job yields an empty list so the orchestrator stays resilient to partially
// missing context.
func (a *Assembler) JobEvidence(ctx context.Context, tenantID, jobID string, limit int) ([]Item, error) {
	var job model.Job
	err := a.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, jobID).
		First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []Item{}, nil
		}
		return nil, err
	}

	// Field history often lives at the customer or site level, not just the
	// specific visit, so notes are gathered from all three scopes in one
	// combined query.
	var notes []model.Note
	err = a.db.WithContext(ctx).Where("tenant_id = ?", tenantID).
		Where(a.db.
			Where("entity_type = ? AND entity_id = ?", model.NoteEntityJob, job.ID).
			Or("entity_type = ? AND entity_id = ?", model.NoteEntityClient, job.ClientID).
			Or("entity_type = ? AND entity_id = ?", model.NoteEntityProperty, job.PropertyID)).
		Order("created_at DESC").
		Find(&notes).Error
	if err != nil {
		return nil, err
	}

	var events []model.JobEvent
	err = a.db.WithContext(ctx).
		Where("tenant_id = ? AND job_id = ?", tenantID, job.ID).
		Order("occurred_at DESC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(notes)+len(events))
	for _, n := range notes {
		items = append(items, Item{
			DocID:   n.ID,
			Type:    TypeNote,
			Date:    n.CreatedAt,
			Snippet: n.Body,
			Author:  n.AuthorID,
		})
	}
	for _, e := range events {
		items = append(items, Item{
			DocID:   e.ID,
			Type:    TypeJobEvent,
			Date:    e.OccurredAt,
			Snippet: eventSnippet(e),
		})
	}

	return Merge(items, limit), nil
}

// Merge sorts evidence by date descending, keeping input order on equal
// dates, and truncates to limit (limit <= 0 means no truncation).
func Merge(items []Item, limit int) []Item {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Date.After(items[j].Date)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

func eventSnippet(e model.JobEvent) string {
	snippet := e.EventType
	if e.Issue != "" {
		snippet += ": " + e.Issue
	}
	if e.Resolution != "" {
		snippet += "; resolved: " + e.Resolution
	}
	if e.PartsUsed != "" {
		snippet += " (parts: " + e.PartsUsed + ")"
	}
	return snippet
}
