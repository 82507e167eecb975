package vectorstore

import (
	"context"
	"time"

	"github.com/schradermade/hvac-ai-sub002/internal/evidence"
	"go.uber.org/zap"
)

// Embedder turns query text into an embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Result carries the retrieved evidence plus retrieval diagnostics.
type Result struct {
	Items        []evidence.Item
	FallbackUsed bool
	RawCount     int
	FilteredOut  int
	RawMatches   []Match // populated only in debug mode
}

// Retriever is the vector retrieval adapter. Errors from the embedding or
// vector backend degrade retrieval to an empty result: vector evidence is an
// enhancement, not a required input.
type Retriever struct {
	embedder     Embedder
	index        Querier
	topK         int
	fallbackTopK int
	log          *zap.Logger
}

// NewRetriever creates a Retriever.
func NewRetriever(embedder Embedder, index Querier, topK, fallbackTopK int, log *zap.Logger) *Retriever {
	if topK <= 0 {
		topK = 5
	}
	if fallbackTopK <= topK {
		fallbackTopK = topK * 4
	}
	return &Retriever{
		embedder:     embedder,
		index:        index,
		topK:         topK,
		fallbackTopK: fallbackTopK,
		log:          log,
	}
}

// Retrieve embeds the query and returns tenant/job-scoped vector evidence.
// When the scoped query returns nothing it re-queries with a larger K and no
// filter, then locally discards matches whose metadata does not belong to
// the caller. This compensates for index filter limitations and indexing lag.
func (r *Retriever) Retrieve(ctx context.Context, tenantID, jobID, queryText string, debug bool) Result {
	vector, err := r.embedder.Embed(ctx, queryText)
	if err != nil {
		r.log.Warn("Embedding failed, degrading to empty vector evidence", zap.Error(err))
		return Result{Items: []evidence.Item{}}
	}

	filter := &Filter{TenantID: tenantID, JobID: jobID}
	matches, err := r.index.Query(ctx, vector, r.topK, filter)
	if err != nil {
		r.log.Warn("Vector query failed, degrading to empty vector evidence", zap.Error(err))
		return Result{Items: []evidence.Item{}}
	}

	result := Result{RawCount: len(matches)}

	if len(matches) == 0 {
		raw, err := r.index.Query(ctx, vector, r.fallbackTopK, nil)
		if err != nil {
			r.log.Warn("Fallback vector query failed, degrading to empty vector evidence", zap.Error(err))
			return Result{Items: []evidence.Item{}, FallbackUsed: true}
		}
		result.FallbackUsed = true
		result.RawCount = len(raw)
		if debug {
			result.RawMatches = raw
		}

		matches = matches[:0]
		for _, m := range raw {
			if m.Metadata.TenantID == tenantID && m.Metadata.JobID == jobID {
				matches = append(matches, m)
			}
		}
		result.FilteredOut = result.RawCount - len(matches)
	} else if debug {
		result.RawMatches = matches
	}

	result.Items = toEvidence(matches)
	return result
}

func toEvidence(matches []Match) []evidence.Item {
	items := make([]evidence.Item, 0, len(matches))
	for _, m := range matches {
		item := evidence.Item{
			DocID:   m.Metadata.DocID,
			Type:    evidence.TypeVector,
			Snippet: m.Metadata.Snippet,
		}
		if m.Metadata.Date != "" {
			if parsed, err := time.Parse(time.RFC3339, m.Metadata.Date); err == nil {
				item.Date = parsed
			}
		}
		items = append(items, item)
	}
	return items
}
