package service

import (
	"encoding/json"
	"strings"

	"github.com/cloo-solutions/papyrai/internal/domain"
)

// Directive is a structured tool call the model embeds in its response as a
// JSON object carrying an "action" field, either inside a fenced code block
// or inline in the prose.
type Directive struct {
	Action      string `json:"action"`
	Title       string `json:"title"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Category    string `json:"category"`
}

// ReminderPayload converts the directive fields to a reminder proposal.
func (d *Directive) ReminderPayload() domain.ReminderPayload {
	return domain.ReminderPayload{
		Title:       d.Title,
		Date:        d.Date,
		Description: d.Description,
		Priority:    d.Priority,
		Category:    d.Category,
	}
}

// ExtractDirective scans a model response for a tool directive. Returns the
// directive (nil when absent) and the response with the directive JSON and
// its fence removed, so only conversational text reaches the user.
func ExtractDirective(response string) (*Directive, string) {
	// Fenced blocks first; models usually wrap JSON in ```json fences.
	if d, cleaned, ok := extractFromFences(response); ok {
		return d, cleaned
	}
	if d, cleaned, ok := extractInline(response); ok {
		return d, cleaned
	}
	return nil, strings.TrimSpace(response)
}

func extractFromFences(response string) (*Directive, string, bool) {
	rest := response
	offset := 0
	for {
		open := strings.Index(rest, "```")
		if open < 0 {
			return nil, "", false
		}
		bodyStart := open + 3
		// Skip a language tag like "json" up to the newline
		if nl := strings.IndexByte(rest[bodyStart:], '\n'); nl >= 0 {
			if tag := strings.TrimSpace(rest[bodyStart : bodyStart+nl]); tag == "" || isFenceTag(tag) {
				bodyStart += nl + 1
			}
		}
		closing := strings.Index(rest[bodyStart:], "```")
		if closing < 0 {
			return nil, "", false
		}
		body := rest[bodyStart : bodyStart+closing]
		if d := decodeDirective(strings.TrimSpace(body)); d != nil {
			cleaned := response[:offset+open] + response[offset+bodyStart+closing+3:]
			return d, strings.TrimSpace(cleaned), true
		}
		advance := bodyStart + closing + 3
		rest = rest[advance:]
		offset += advance
	}
}

func extractInline(response string) (*Directive, string, bool) {
	for i := 0; i < len(response); i++ {
		if response[i] != '{' {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(response[i:]))
		var d Directive
		if err := dec.Decode(&d); err != nil || d.Action == "" {
			continue
		}
		end := i + int(dec.InputOffset())
		cleaned := response[:i] + response[end:]
		return &d, strings.TrimSpace(cleaned), true
	}
	return nil, "", false
}

func isFenceTag(tag string) bool {
	switch strings.ToLower(tag) {
	case "json", "javascript", "js":
		return true
	}
	return false
}

func decodeDirective(body string) *Directive {
	if !strings.HasPrefix(body, "{") {
		return nil
	}
	var d Directive
	if err := json.Unmarshal([]byte(body), &d); err != nil || d.Action == "" {
		return nil
	}
	return &d
}
