package orchestrator

import (
	"encoding/json"
	"strings"
)

// Answer is the typed, defensive structure extracted from the model's raw
// response.
type Answer struct {
	Answer    string           `json:"answer"`
	Citations []map[string]any `json:"citations"`
	FollowUps []string         `json:"follow_ups"`
}

// ParseResponse extracts an Answer from raw model output. Markdown code
// fences are stripped, the payload is parsed as JSON, and each key is
// extracted defensively with empty defaults. Malformed JSON degrades to the
// trimmed raw text as the answer; this function never fails.
func ParseResponse(raw string) Answer {
	answer := Answer{
		Citations: []map[string]any{},
		FollowUps: []string{},
	}

	trimmed := stripCodeFences(strings.TrimSpace(raw))

	var payload map[string]any
	if err := json.Unmarshal([]byte(trimmed), &payload); err != nil {
		answer.Answer = trimmed
		return answer
	}

	if v, ok := payload["answer"].(string); ok {
		answer.Answer = v
	}

	// Non-array citations are silently dropped; entries keep their free-form
	// shape as long as they are objects.
	if arr, ok := payload["citations"].([]any); ok {
		for _, entry := range arr {
			if record, ok := entry.(map[string]any); ok {
				answer.Citations = append(answer.Citations, record)
			}
		}
	}

	if arr, ok := payload["follow_ups"].([]any); ok {
		for _, entry := range arr {
			if s, ok := entry.(string); ok {
				answer.FollowUps = append(answer.FollowUps, s)
			}
		}
	}

	return answer
}

// stripCodeFences removes a surrounding Markdown code fence, with or without
// a language tag, leaving other content untouched.
func stripCodeFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	body := strings.TrimPrefix(s, "```")
	if idx := strings.Index(body, "\n"); idx >= 0 {
		// Drop the fence line itself (e.g. "```json").
		body = body[idx+1:]
	} else {
		return s
	}
	body = strings.TrimSpace(body)
	body = strings.TrimSuffix(body, "```")
	return strings.TrimSpace(body)
}
