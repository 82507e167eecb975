package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/schradermade/hvac-ai-sub002/internal/evidence"
	"github.com/schradermade/hvac-ai-sub002/internal/llm"
	"github.com/schradermade/hvac-ai-sub002/internal/model"
	"github.com/schradermade/hvac-ai-sub002/internal/orchestrator"
)

type fakeChatClient struct {
	response string
	err      error
	requests []llm.Request
}

func (f *fakeChatClient) Chat(ctx context.Context, req llm.Request) (llm.Result, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return llm.Result{}, f.err
	}
	return llm.Result{Text: f.response}, nil
}

type aiFixture struct {
	*ingestFixture
	chat    *fakeChatClient
	handler *AIHandler
}

func newAIFixture(t *testing.T) *aiFixture {
	t.Helper()
	base := newIngestFixture(t)
	chat := &fakeChatClient{response: `{"answer":"Replace the capacitor.","citations":[],"follow_ups":[]}`}
	orch := orchestrator.New(chat, orchestrator.Config{Model: "gpt-4o-mini"})
	return &aiFixture{
		ingestFixture: base,
		chat:          chat,
		handler:       NewAIHandler(evidence.NewAssembler(base.db), nil, orch, 20),
	}
}

func (f *aiFixture) seedFullJob(t *testing.T) {
	t.Helper()
	client := model.Client{ID: "client-1", TenantID: "tenant-a", Name: "Acme Bakery"}
	property := model.Property{ID: "prop-1", TenantID: "tenant-a", ClientID: "client-1", Address: "12 Oak Street"}
	job := model.Job{ID: "job-1", TenantID: "tenant-a", ClientID: "client-1", PropertyID: "prop-1", Title: "No cooling"}
	note := model.Note{ID: "note-1", TenantID: "tenant-a", EntityType: model.NoteEntityJob, EntityID: "job-1", Body: "Unit hums but fan is dead"}
	for _, rec := range []interface{}{&client, &property, &job, &note} {
		if err := f.db.Create(rec).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func TestJobContext(t *testing.T) {
	f := newAIFixture(t)
	f.seedFullJob(t)

	rec, c := f.post("/jobs/job-1/ai/context", "tenant-a", "", nil)
	c.SetParamNames("jobId")
	c.SetParamValues("job-1")
	if err := f.handler.JobContext(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestJobContextMissingJob(t *testing.T) {
	f := newAIFixture(t)

	rec, c := f.post("/jobs/nope/ai/context", "tenant-a", "", nil)
	c.SetParamNames("jobId")
	c.SetParamValues("nope")
	if err := f.handler.JobContext(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCreateSession(t *testing.T) {
	f := newAIFixture(t)
	f.seedFullJob(t)

	rec, c := f.post("/jobs/job-1/ai/session", "tenant-a", "", nil)
	c.SetParamNames("jobId")
	c.SetParamValues("job-1")
	if err := f.handler.CreateSession(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	body := decodeBody(t, rec)
	if body["sessionId"] == "" || body["sessionId"] == nil {
		t.Fatalf("missing sessionId in %v", body)
	}
	if body["jobId"] != "job-1" || body["tenantId"] != "tenant-a" || body["status"] != "active" {
		t.Fatalf("body = %v", body)
	}
}

func TestCreateSessionMissingJob(t *testing.T) {
	f := newAIFixture(t)

	rec, c := f.post("/jobs/nope/ai/session", "tenant-a", "", nil)
	c.SetParamNames("jobId")
	c.SetParamValues("nope")
	if err := f.handler.CreateSession(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestChat(t *testing.T) {
	f := newAIFixture(t)
	f.seedFullJob(t)

	rec, c := f.post("/jobs/job-1/ai/chat", "tenant-a", `{"message":"Why does the unit hum?"}`, nil)
	c.SetParamNames("jobId")
	c.SetParamValues("job-1")
	if err := f.handler.Chat(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	if body["answer"] != "Replace the capacitor." {
		t.Fatalf("answer = %v", body["answer"])
	}
	if _, ok := body["debug"]; ok {
		t.Fatal("debug must be absent without the debug header")
	}

	if len(f.chat.requests) != 1 {
		t.Fatalf("chat calls = %d", len(f.chat.requests))
	}
	req := f.chat.requests[0]
	if !req.ForceJSON {
		t.Fatal("chat request should force JSON output")
	}
	if len(req.Messages) < 2 || req.Messages[0].Role != "system" {
		t.Fatalf("messages = %+v", req.Messages)
	}
}

func TestChatHistoryOrdering(t *testing.T) {
	f := newAIFixture(t)
	f.seedFullJob(t)

	body := `{"message":"And now?","history":[{"role":"user","content":"Why does the unit hum?"},{"role":"assistant","content":"Likely the capacitor."}]}`
	rec, c := f.post("/jobs/job-1/ai/chat", "tenant-a", body, nil)
	c.SetParamNames("jobId")
	c.SetParamValues("job-1")
	if err := f.handler.Chat(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	msgs := f.chat.requests[0].Messages
	if len(msgs) != 4 {
		t.Fatalf("messages = %d", len(msgs))
	}
	if msgs[0].Role != "system" || msgs[1].Role != "user" || msgs[2].Role != "assistant" || msgs[3].Role != "user" {
		t.Fatalf("roles = %s %s %s %s", msgs[0].Role, msgs[1].Role, msgs[2].Role, msgs[3].Role)
	}
}

func TestChatEmptyMessage(t *testing.T) {
	f := newAIFixture(t)
	f.seedFullJob(t)

	rec, c := f.post("/jobs/job-1/ai/chat", "tenant-a", `{"message":"  "}`, nil)
	c.SetParamNames("jobId")
	c.SetParamValues("job-1")
	if err := f.handler.Chat(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestChatMissingJob(t *testing.T) {
	f := newAIFixture(t)

	rec, c := f.post("/jobs/nope/ai/chat", "tenant-a", `{"message":"hello"}`, nil)
	c.SetParamNames("jobId")
	c.SetParamValues("nope")
	if err := f.handler.Chat(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestChatWithoutOrchestrator(t *testing.T) {
	f := newAIFixture(t)
	f.seedFullJob(t)
	h := NewAIHandler(evidence.NewAssembler(f.db), nil, nil, 20)

	rec, c := f.post("/jobs/job-1/ai/chat", "tenant-a", `{"message":"hello"}`, nil)
	c.SetParamNames("jobId")
	c.SetParamValues("job-1")
	if err := h.Chat(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestChatProviderError(t *testing.T) {
	f := newAIFixture(t)
	f.seedFullJob(t)
	f.chat.err = context.DeadlineExceeded

	rec, c := f.post("/jobs/job-1/ai/chat", "tenant-a", `{"message":"hello"}`, nil)
	c.SetParamNames("jobId")
	c.SetParamValues("job-1")
	if err := f.handler.Chat(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestChatDebugHeader(t *testing.T) {
	f := newAIFixture(t)
	f.seedFullJob(t)

	rec, c := f.post("/jobs/job-1/ai/chat", "tenant-a", `{"message":"hello"}`,
		map[string]string{DebugHeader: "1"})
	c.SetParamNames("jobId")
	c.SetParamValues("job-1")
	if err := f.handler.Chat(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	body := decodeBody(t, rec)
	debug, ok := body["debug"].(map[string]interface{})
	if !ok {
		t.Fatalf("missing debug block in %v", body)
	}
	if debug["vector_enabled"] != false {
		t.Fatalf("vector_enabled = %v", debug["vector_enabled"])
	}
}
