package searchindex

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/schradermade/hvac-ai-sub002/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(model.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedJobGraph(t *testing.T, db *gorm.DB, tenantID string) model.Job {
	t.Helper()
	client := model.Client{ID: "client-1", TenantID: tenantID, Name: "Acme Bakery", Phone: "555-0101"}
	property := model.Property{ID: "prop-1", TenantID: tenantID, ClientID: client.ID,
		Address: "12 Oak Street", City: "Springfield", State: "IL", Zip: "62704"}
	job := model.Job{ID: "job-1", TenantID: tenantID, ClientID: client.ID, PropertyID: property.ID,
		Title: "No cooling", Description: "Rooftop unit not cooling", Status: model.JobStatusScheduled}
	for _, rec := range []interface{}{&client, &property, &job} {
		if err := db.Create(rec).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return job
}

func TestBuildJobSearchContent(t *testing.T) {
	db := newTestDB(t)
	m := NewMaintainer(db)
	ctx := context.Background()
	job := seedJobGraph(t, db, "tenant-a")

	eq := model.Equipment{ID: "eq-1", TenantID: "tenant-a", PropertyID: "prop-1",
		Make: "Carrier", Model: "24ABC6", SerialNumber: "SN123", InstallYear: 2019}
	note := model.Note{ID: "note-1", TenantID: "tenant-a",
		EntityType: model.NoteEntityProperty, EntityID: "prop-1", Body: "Roof hatch key in office"}
	event := model.JobEvent{ID: "ev-1", TenantID: "tenant-a", JobID: job.ID,
		EventType: "diagnostic", Issue: "Low refrigerant", OccurredAt: time.Now()}
	for _, rec := range []interface{}{&eq, &note, &event} {
		if err := db.Create(rec).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	content, ok, err := m.BuildJobSearchContent(ctx, "tenant-a", job.ID)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !ok {
		t.Fatal("expected ok for existing job")
	}
	for _, want := range []string{
		"no cooling", "acme bakery", "12 oak street", "springfield",
		"carrier", "24abc6", "2019", "roof hatch key", "low refrigerant",
	} {
		if !strings.Contains(content, want) {
			t.Fatalf("content missing %q: %q", want, content)
		}
	}
	if content != strings.ToLower(content) {
		t.Fatalf("content not lower-cased: %q", content)
	}
}

func TestBuildJobSearchContentMissingJob(t *testing.T) {
	db := newTestDB(t)
	m := NewMaintainer(db)

	content, ok, err := m.BuildJobSearchContent(context.Background(), "tenant-a", "nope")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if ok || content != "" {
		t.Fatalf("expected empty not-ok result, got ok=%v content=%q", ok, content)
	}
}

func TestUpsertJobSearchIndexIdempotent(t *testing.T) {
	db := newTestDB(t)
	m := NewMaintainer(db)
	ctx := context.Background()
	job := seedJobGraph(t, db, "tenant-a")

	if err := m.UpsertJobSearchIndex(ctx, "tenant-a", job.ID); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := m.UpsertJobSearchIndex(ctx, "tenant-a", job.ID); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	var count int64
	if err := db.Model(&model.JobSearchIndex{}).
		Where("tenant_id = ? AND job_id = ?", "tenant-a", job.ID).
		Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one index row, got %d", count)
	}
}

func TestUpsertJobSearchIndexRemovesStaleRow(t *testing.T) {
	db := newTestDB(t)
	m := NewMaintainer(db)
	ctx := context.Background()

	if err := db.Create(&model.JobSearchIndex{
		TenantID: "tenant-a", JobID: "gone", Content: "stale",
	}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := m.UpsertJobSearchIndex(ctx, "tenant-a", "gone"); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	var count int64
	if err := db.Model(&model.JobSearchIndex{}).
		Where("tenant_id = ? AND job_id = ?", "tenant-a", "gone").
		Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected stale row removed, got %d", count)
	}
}

func TestReindexJobsForPropertyRecomputesContent(t *testing.T) {
	db := newTestDB(t)
	m := NewMaintainer(db)
	ctx := context.Background()
	job := seedJobGraph(t, db, "tenant-a")

	if err := m.UpsertJobSearchIndex(ctx, "tenant-a", job.ID); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if err := db.Model(&model.Property{}).
		Where("id = ?", "prop-1").
		Update("address", "99 Elm Avenue").Error; err != nil {
		t.Fatalf("update property: %v", err)
	}

	n, err := m.ReindexJobsForProperty(ctx, "tenant-a", "prop-1")
	if err != nil {
		t.Fatalf("reindex: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 job touched, got %d", n)
	}

	var row model.JobSearchIndex
	if err := db.Where("tenant_id = ? AND job_id = ?", "tenant-a", job.ID).
		First(&row).Error; err != nil {
		t.Fatalf("load row: %v", err)
	}
	if !strings.Contains(row.Content, "99 elm avenue") {
		t.Fatalf("content not recomputed: %q", row.Content)
	}
	if strings.Contains(row.Content, "12 oak street") {
		t.Fatalf("content still carries old address: %q", row.Content)
	}
}

func TestReindexTenantScopesToTenant(t *testing.T) {
	db := newTestDB(t)
	m := NewMaintainer(db)
	ctx := context.Background()
	seedJobGraph(t, db, "tenant-a")

	other := model.Job{ID: "job-b", TenantID: "tenant-b", ClientID: "cb", PropertyID: "pb", Title: "Other tenant"}
	if err := db.Create(&other).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	n, err := m.ReindexTenant(ctx, "tenant-a")
	if err != nil {
		t.Fatalf("reindex: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected only tenant-a jobs touched, got %d", n)
	}

	var count int64
	if err := db.Model(&model.JobSearchIndex{}).
		Where("tenant_id = ?", "tenant-b").
		Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("tenant-b rows should be untouched, got %d", count)
	}
}
