package orchestrator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/schradermade/hvac-ai-sub002/internal/evidence"
)

// PromptVersion identifies the immutable system prompt in use. Bump it when
// the template changes; never edit a version in place.
const PromptVersion = "v1"

const systemPrompt = `You are a field-service assistant for HVAC technicians. Version: ` + PromptVersion + `.

Rules:
- Answer ONLY from the job context and evidence provided in the user message.
- If the evidence does not contain the answer, say so explicitly. Do not guess.
- Cite the evidence you used by its doc_id.
- Respond with raw JSON only, no Markdown, using exactly these keys:
  {"answer": string, "citations": [{"doc_id": string, "type": string}], "follow_ups": [string]}`

// SystemPrompt returns the versioned system prompt.
func SystemPrompt() string {
	return systemPrompt
}

// BuildUserMessage embeds the job snapshot, the merged evidence list and the
// technician's question into one model-facing message.
func BuildUserMessage(snapshot *evidence.Snapshot, items []evidence.Item, question string) string {
	var b strings.Builder

	b.WriteString("## Job context\n")
	if snapshot != nil {
		ctx, _ := json.Marshal(snapshot)
		b.Write(ctx)
	} else {
		b.WriteString("(no job context available)")
	}
	b.WriteString("\n\n## Evidence\n")

	if len(items) == 0 {
		b.WriteString("(no evidence available)\n")
	}
	for i, item := range items {
		date := ""
		if !item.Date.IsZero() {
			date = item.Date.Format("2006-01-02")
		}
		fmt.Fprintf(&b, "%d. [doc_id=%s type=%s date=%s] %s\n", i+1, item.DocID, item.Type, date, item.Snippet)
	}

	b.WriteString("\n## Question\n")
	b.WriteString(question)
	return b.String()
}
