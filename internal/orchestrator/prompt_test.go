package orchestrator

import (
	"strings"
	"testing"
	"time"

	"github.com/schradermade/hvac-ai-sub002/internal/evidence"
	"github.com/schradermade/hvac-ai-sub002/internal/model"
)

func TestBuildUserMessage(t *testing.T) {
	snapshot := &evidence.Snapshot{
		Job: model.Job{ID: "job-1", Title: "No cooling"},
	}
	items := []evidence.Item{
		{DocID: "note-1", Type: evidence.TypeNote,
			Date: time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC), Snippet: "Unit hums but fan is dead"},
	}

	msg := BuildUserMessage(snapshot, items, "Why does the unit hum?")

	for _, want := range []string{
		"## Job context",
		"## Evidence",
		"## Question",
		"No cooling",
		"[doc_id=note-1 type=note date=2026-02-10]",
		"Why does the unit hum?",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestBuildUserMessageEmptyInputs(t *testing.T) {
	msg := BuildUserMessage(nil, nil, "anything?")

	if !strings.Contains(msg, "(no job context available)") {
		t.Fatalf("missing empty-context marker:\n%s", msg)
	}
	if !strings.Contains(msg, "(no evidence available)") {
		t.Fatalf("missing empty-evidence marker:\n%s", msg)
	}
}

func TestSystemPromptCarriesVersion(t *testing.T) {
	if !strings.Contains(SystemPrompt(), PromptVersion) {
		t.Fatal("system prompt must name its version")
	}
}
