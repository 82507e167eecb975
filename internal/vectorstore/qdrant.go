// Package vectorstore adapts the external vector index: a Qdrant REST
// client, the retrieval adapter with its unfiltered fallback path, and the
// reindexer that rebuilds a job's vector points from source records.
package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Metadata is the payload stored alongside every vector point.
type Metadata struct {
	TenantID string `json:"tenant_id"`
	JobID    string `json:"job_id"`
	DocID    string `json:"doc_id"`
	Snippet  string `json:"snippet"`
	Date     string `json:"date,omitempty"`
}

// Match is a nearest-neighbor hit from the index.
type Match struct {
	ID       string   `json:"id"`
	Score    float64  `json:"score"`
	Metadata Metadata `json:"metadata"`
}

// Point is a vector plus metadata for upsert.
type Point struct {
	ID       string
	Vector   []float64
	Metadata Metadata
}

// Filter restricts a query to a tenant and job by payload match.
type Filter struct {
	TenantID string
	JobID    string
}

// Querier is the query surface of the vector index.
type Querier interface {
	Query(ctx context.Context, vector []float64, topK int, filter *Filter) ([]Match, error)
}

// Qdrant is a minimal REST client to a Qdrant collection. Cosine distance
// is assumed; the collection is created on first ensure if missing.
type Qdrant struct {
	url        string
	apiKey     string
	collection string
	client     *http.Client
}

// QdrantConfig configures the Qdrant client.
type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

// NewQdrant creates a Qdrant client.
func NewQdrant(cfg QdrantConfig) *Qdrant {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Qdrant{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}
}

// EnsureCollection creates the collection if it does not exist.
func (q *Qdrant) EnsureCollection(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid dimension %d", dimension)
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	return q.doJSON(ctx, http.MethodPut,
		fmt.Sprintf("%s/collections/%s", q.url, q.collection), body, nil)
}

// Upsert writes points to the collection, waiting for durability.
func (q *Qdrant) Upsert(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}
	payload := make([]map[string]any, len(points))
	for i, p := range points {
		payload[i] = map[string]any{
			"id":     p.ID,
			"vector": p.Vector,
			"payload": map[string]any{
				"tenant_id": p.Metadata.TenantID,
				"job_id":    p.Metadata.JobID,
				"doc_id":    p.Metadata.DocID,
				"snippet":   p.Metadata.Snippet,
				"date":      p.Metadata.Date,
			},
		}
	}
	body := map[string]any{"points": payload}
	return q.doJSON(ctx, http.MethodPut,
		fmt.Sprintf("%s/collections/%s/points?wait=true", q.url, q.collection), body, nil)
}

// Query returns the top-K nearest neighbors, optionally restricted by a
// tenant/job payload filter.
func (q *Qdrant) Query(ctx context.Context, vector []float64, topK int, filter *Filter) ([]Match, error) {
	if topK <= 0 {
		topK = 5
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	if filter != nil {
		req["filter"] = map[string]any{
			"must": []map[string]any{
				{"key": "tenant_id", "match": map[string]any{"value": filter.TenantID}},
				{"key": "job_id", "match": map[string]any{"value": filter.JobID}},
			},
		}
	}

	var resp struct {
		Result []struct {
			ID      any            `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	err := q.doJSON(ctx, http.MethodPost,
		fmt.Sprintf("%s/collections/%s/points/search", q.url, q.collection), req, &resp)
	if err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(resp.Result))
	for _, r := range resp.Result {
		matches = append(matches, Match{
			ID:       fmt.Sprintf("%v", r.ID),
			Score:    r.Score,
			Metadata: metadataFromPayload(r.Payload),
		})
	}
	return matches, nil
}

// Fetch retrieves points by ID with their payloads, for index-health
// inspection.
func (q *Qdrant) Fetch(ctx context.Context, ids []string) ([]Match, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	req := map[string]any{
		"ids":          ids,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			ID      any            `json:"id"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	err := q.doJSON(ctx, http.MethodPost,
		fmt.Sprintf("%s/collections/%s/points", q.url, q.collection), req, &resp)
	if err != nil {
		return nil, err
	}
	matches := make([]Match, 0, len(resp.Result))
	for _, r := range resp.Result {
		matches = append(matches, Match{
			ID:       fmt.Sprintf("%v", r.ID),
			Metadata: metadataFromPayload(r.Payload),
		})
	}
	return matches, nil
}

func metadataFromPayload(payload map[string]any) Metadata {
	var md Metadata
	if v, ok := payload["tenant_id"].(string); ok {
		md.TenantID = v
	}
	if v, ok := payload["job_id"].(string); ok {
		md.JobID = v
	}
	if v, ok := payload["doc_id"].(string); ok {
		md.DocID = v
	}
	if v, ok := payload["snippet"].(string); ok {
		md.Snippet = v
	}
	if v, ok := payload["date"].(string); ok {
		md.Date = v
	}
	return md
}

func (q *Qdrant) doJSON(ctx context.Context, method, url string, body any, out any) error {
	data, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if q.apiKey != "" {
		req.Header.Set("api-key", q.apiKey)
	}

	resp, err := q.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant %s %s failed: %s", method, url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
