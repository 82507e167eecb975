// Package searchindex maintains the lexical job search index: one derived
// row of normalized text per (tenant, job), recomputed delete-then-insert
// whenever any contributing record changes, and queried with ranked
// prefix-match full-text search.
package searchindex

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/schradermade/hvac-ai-sub002/internal/model"
	"gorm.io/gorm"
)

// Maintainer derives and queries the job_search_index table.
type Maintainer struct {
	db *gorm.DB
}

// NewMaintainer creates a Maintainer on the given database handle.
func NewMaintainer(db *gorm.DB) *Maintainer {
	return &Maintainer{db: db}
}

// BuildJobSearchContent concatenates the job's own fields, its client
// identity, property address, equipment descriptors, attached notes and job
// events into one normalized string. ok is false when the job does not
// exist in the tenant.
func (m *Maintainer) BuildJobSearchContent(ctx context.Context, tenantID, jobID string) (string, bool, error) {
	var job model.Job
	err := m.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, jobID).
		First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}

	parts := []string{job.Title, job.Description, job.Status}

	var client model.Client
	if err := m.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, job.ClientID).
		First(&client).Error; err == nil {
		parts = append(parts, client.Name, client.Email, client.Phone)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, err
	}

	var property model.Property
	propertyFound := false
	if err := m.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, job.PropertyID).
		First(&property).Error; err == nil {
		propertyFound = true
		parts = append(parts, property.Address, property.City, property.State, property.Zip)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, err
	}

	if propertyFound {
		var equipment []model.Equipment
		if err := m.db.WithContext(ctx).
			Where("tenant_id = ? AND property_id = ?", tenantID, property.ID).
			Find(&equipment).Error; err != nil {
			return "", false, err
		}
		for _, e := range equipment {
			parts = append(parts, e.Make, e.Model, e.SerialNumber, e.Notes)
			if e.InstallYear > 0 {
				parts = append(parts, fmt.Sprintf("%d", e.InstallYear))
			}
		}
	}

	var notes []model.Note
	noteScope := m.db.WithContext(ctx).Where("tenant_id = ?", tenantID).
		Where(m.db.
			Where("entity_type = ? AND entity_id = ?", model.NoteEntityJob, job.ID).
			Or("entity_type = ? AND entity_id = ?", model.NoteEntityClient, job.ClientID).
			Or("entity_type = ? AND entity_id = ?", model.NoteEntityProperty, job.PropertyID))
	if err := noteScope.Order("created_at ASC").Find(&notes).Error; err != nil {
		return "", false, err
	}
	for _, n := range notes {
		parts = append(parts, n.Body)
	}

	var events []model.JobEvent
	if err := m.db.WithContext(ctx).
		Where("tenant_id = ? AND job_id = ?", tenantID, job.ID).
		Order("occurred_at ASC").
		Find(&events).Error; err != nil {
		return "", false, err
	}
	for _, e := range events {
		parts = append(parts, e.EventType, e.Issue, e.Resolution, e.PartsUsed)
	}

	return Normalize(parts...), true, nil
}

// UpsertJobSearchIndex recomputes the index row for (tenant, job). The
// delete-then-insert is unconditional, so calling it twice with unchanged
// source data yields the same final row.
func (m *Maintainer) UpsertJobSearchIndex(ctx context.Context, tenantID, jobID string) error {
	content, ok, err := m.BuildJobSearchContent(ctx, tenantID, jobID)
	if err != nil {
		return err
	}

	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("tenant_id = ? AND job_id = ?", tenantID, jobID).
			Delete(&model.JobSearchIndex{}).Error; err != nil {
			return err
		}
		if !ok {
			return nil
		}
		return tx.Create(&model.JobSearchIndex{
			TenantID: tenantID,
			JobID:    jobID,
			Content:  content,
		}).Error
	})
}

// SearchJobIDs tokenizes the raw query into alphanumeric tokens, builds a
// prefix-match boolean AND tsquery and returns matching job IDs ranked by
// relevance. An empty or whitespace-only query returns nil without touching
// the index.
func (m *Maintainer) SearchJobIDs(ctx context.Context, tenantID, rawQuery string) ([]string, error) {
	tsQuery := PrefixQuery(Tokenize(rawQuery))
	if tsQuery == "" {
		return nil, nil
	}

	var jobIDs []string
	err := m.db.WithContext(ctx).Raw(`
		SELECT job_id FROM job_search_index
		WHERE tenant_id = ?
		  AND to_tsvector('simple', content) @@ to_tsquery('simple', ?)
		ORDER BY ts_rank(to_tsvector('simple', content), to_tsquery('simple', ?)) DESC`,
		tenantID, tsQuery, tsQuery).
		Scan(&jobIDs).Error
	if err != nil {
		return nil, err
	}
	return jobIDs, nil
}

// ReindexJobsForClient recomputes the index for every job referencing the
// client, returning the count of jobs touched.
func (m *Maintainer) ReindexJobsForClient(ctx context.Context, tenantID, clientID string) (int, error) {
	return m.reindexWhere(ctx, tenantID, "client_id = ?", clientID)
}

// ReindexJobsForProperty recomputes the index for every job referencing the
// property, returning the count of jobs touched.
func (m *Maintainer) ReindexJobsForProperty(ctx context.Context, tenantID, propertyID string) (int, error) {
	return m.reindexWhere(ctx, tenantID, "property_id = ?", propertyID)
}

// ReindexTenant recomputes the index for every job in the tenant, returning
// the count of jobs touched.
func (m *Maintainer) ReindexTenant(ctx context.Context, tenantID string) (int, error) {
	return m.reindexWhere(ctx, tenantID, "1 = 1")
}

func (m *Maintainer) reindexWhere(ctx context.Context, tenantID, cond string, args ...interface{}) (int, error) {
	var jobIDs []string
	err := m.db.WithContext(ctx).Model(&model.Job{}).
		Where("tenant_id = ?", tenantID).
		Where(cond, args...).
		Pluck("id", &jobIDs).Error
	if err != nil {
		return 0, err
	}

	for _, jobID := range jobIDs {
		if err := m.UpsertJobSearchIndex(ctx, tenantID, jobID); err != nil {
			return 0, err
		}
	}
	return len(jobIDs), nil
}

// Tokenize splits raw text into lower-cased alphanumeric tokens.
func Tokenize(raw string) []string {
	raw = strings.ToLower(raw)
	return strings.FieldsFunc(raw, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
}

// PrefixQuery builds a boolean AND tsquery where every token matches as a
// prefix, e.g. ["comp", "leak"] -> "comp:* & leak:*".
func PrefixQuery(tokens []string) string {
	if len(tokens) == 0 {
		return ""
	}
	terms := make([]string, 0, len(tokens))
	for _, t := range tokens {
		terms = append(terms, t+":*")
	}
	return strings.Join(terms, " & ")
}

// Normalize lower-cases the parts, drops blanks and collapses all runs of
// whitespace into single spaces.
func Normalize(parts ...string) string {
	fields := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(strings.ToLower(p))
		if p == "" {
			continue
		}
		fields = append(fields, strings.Join(strings.Fields(p), " "))
	}
	return strings.Join(fields, " ")
}
