package vectorstore

import (
	"context"
	"errors"
	"testing"

	"github.com/schradermade/hvac-ai-sub002/internal/evidence"
	"go.uber.org/zap"
)

type fakeEmbedder struct {
	vector []float64
	err    error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	return f.vector, f.err
}

type fakeQuerier struct {
	filtered   []Match
	unfiltered []Match
	err        error
	calls      []int
}

func (f *fakeQuerier) Query(ctx context.Context, vector []float64, topK int, filter *Filter) ([]Match, error) {
	f.calls = append(f.calls, topK)
	if f.err != nil {
		return nil, f.err
	}
	if filter != nil {
		return f.filtered, nil
	}
	return f.unfiltered, nil
}

func match(id, tenantID, jobID, snippet string) Match {
	return Match{
		ID:    id,
		Score: 0.9,
		Metadata: Metadata{
			TenantID: tenantID,
			JobID:    jobID,
			DocID:    id,
			Snippet:  snippet,
			Date:     "2026-02-10T08:30:00Z",
		},
	}
}

func TestRetrieveFilteredHit(t *testing.T) {
	index := &fakeQuerier{filtered: []Match{match("n1", "t1", "j1", "compressor hums")}}
	r := NewRetriever(&fakeEmbedder{vector: []float64{0.1}}, index, 5, 20, zap.NewNop())

	got := r.Retrieve(context.Background(), "t1", "j1", "compressor", false)

	if got.FallbackUsed {
		t.Fatal("fallback should not be used on a filtered hit")
	}
	if len(got.Items) != 1 || got.Items[0].DocID != "n1" {
		t.Fatalf("items = %+v", got.Items)
	}
	if got.Items[0].Type != evidence.TypeVector {
		t.Fatalf("type = %q", got.Items[0].Type)
	}
	if got.Items[0].Date.IsZero() {
		t.Fatal("date should be parsed from metadata")
	}
	if len(index.calls) != 1 || index.calls[0] != 5 {
		t.Fatalf("calls = %v", index.calls)
	}
}

func TestRetrieveFallbackFiltersLocally(t *testing.T) {
	index := &fakeQuerier{
		unfiltered: []Match{
			match("ours", "t1", "j1", "belongs here"),
			match("wrong-job", "t1", "j2", "other job"),
			match("wrong-tenant", "t2", "j1", "other tenant"),
		},
	}
	r := NewRetriever(&fakeEmbedder{vector: []float64{0.1}}, index, 5, 20, zap.NewNop())

	got := r.Retrieve(context.Background(), "t1", "j1", "compressor", false)

	if !got.FallbackUsed {
		t.Fatal("expected fallback")
	}
	if got.RawCount != 3 || got.FilteredOut != 2 {
		t.Fatalf("raw=%d filtered_out=%d", got.RawCount, got.FilteredOut)
	}
	if len(got.Items) != 1 || got.Items[0].DocID != "ours" {
		t.Fatalf("items = %+v", got.Items)
	}
	if len(index.calls) != 2 || index.calls[1] != 20 {
		t.Fatalf("calls = %v", index.calls)
	}
	if got.RawMatches != nil {
		t.Fatal("raw matches should only be carried in debug mode")
	}
}

func TestRetrieveDebugCarriesRawMatches(t *testing.T) {
	index := &fakeQuerier{unfiltered: []Match{match("m1", "t2", "j9", "foreign")}}
	r := NewRetriever(&fakeEmbedder{vector: []float64{0.1}}, index, 5, 20, zap.NewNop())

	got := r.Retrieve(context.Background(), "t1", "j1", "compressor", true)

	if len(got.RawMatches) != 1 || got.RawMatches[0].ID != "m1" {
		t.Fatalf("raw matches = %+v", got.RawMatches)
	}
	if len(got.Items) != 0 {
		t.Fatalf("foreign matches must be filtered out, got %+v", got.Items)
	}
}

func TestRetrieveEmbeddingErrorDegrades(t *testing.T) {
	index := &fakeQuerier{}
	r := NewRetriever(&fakeEmbedder{err: errors.New("quota")}, index, 5, 20, zap.NewNop())

	got := r.Retrieve(context.Background(), "t1", "j1", "compressor", false)

	if got.Items == nil || len(got.Items) != 0 {
		t.Fatalf("expected empty non-nil items, got %v", got.Items)
	}
	if len(index.calls) != 0 {
		t.Fatal("index should not be queried after an embedding failure")
	}
}

func TestRetrieveIndexErrorDegrades(t *testing.T) {
	index := &fakeQuerier{err: errors.New("connection refused")}
	r := NewRetriever(&fakeEmbedder{vector: []float64{0.1}}, index, 5, 20, zap.NewNop())

	got := r.Retrieve(context.Background(), "t1", "j1", "compressor", false)

	if got.Items == nil || len(got.Items) != 0 {
		t.Fatalf("expected empty non-nil items, got %v", got.Items)
	}
}

func TestNewRetrieverDefaults(t *testing.T) {
	r := NewRetriever(&fakeEmbedder{}, &fakeQuerier{}, 0, 0, zap.NewNop())
	if r.topK != 5 || r.fallbackTopK != 20 {
		t.Fatalf("defaults = %d/%d", r.topK, r.fallbackTopK)
	}
}
