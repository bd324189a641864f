package summarize

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"

	"iris/internal/domain"
)

const bestEffortSummaryLimit = 400

// ParseModelOutput interprets raw model text as a TaskSummary. The text is
// untrusted: a strict JSON parse is tried first, then a tolerant field
// extraction of any JSON object embedded in surrounding prose, and finally a
// deterministic best-effort summary built from the original content.
// It always returns a summary with a non-empty title and plain_summary.
func ParseModelOutput(raw, title, content string) *domain.TaskSummary {
	cleaned := stripCodeFences(raw)

	var s domain.TaskSummary
	if err := json.Unmarshal([]byte(cleaned), &s); err == nil && s.Title != "" && s.PlainSummary != "" {
		return &s
	}

	if extracted := extractFields(cleaned); extracted != nil {
		return extracted
	}

	return bestEffort(title, content)
}

// extractFields pulls TaskSummary fields out of the first JSON object found
// in the text, tolerating junk around it and shape mismatches inside it.
func extractFields(text string) *domain.TaskSummary {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil
	}
	obj := text[start : end+1]
	if !gjson.Valid(obj) {
		return nil
	}

	title := gjson.Get(obj, "title").String()
	plain := gjson.Get(obj, "plain_summary").String()
	if title == "" || plain == "" {
		return nil
	}

	s := &domain.TaskSummary{
		Title:        title,
		Deadline:     gjson.Get(obj, "deadline").String(),
		PlainSummary: plain,
	}
	for _, d := range gjson.Get(obj, "deliverables").Array() {
		if v := d.String(); v != "" {
			s.Deliverables = append(s.Deliverables, v)
		}
	}
	return s
}

// bestEffort builds a summary from the original content when the model
// response is unusable: bullet lines become deliverables, the content itself
// becomes the truncated prose.
func bestEffort(title, content string) *domain.TaskSummary {
	return &domain.TaskSummary{
		Title:        title,
		Deliverables: bulletLines(content, 5),
		PlainSummary: truncate(content, bestEffortSummaryLimit),
	}
}

// bulletLines returns up to max lines that start with "-", with the bullet
// prefix (including an optional checklist marker) stripped and the remainder
// trimmed.
func bulletLines(content string, max int) []string {
	var out []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "-") {
			continue
		}
		line = strings.Trim(line, "-* ")
		for _, marker := range []string{"[ ]", "[x]", "[X]"} {
			if strings.HasPrefix(line, marker) {
				line = strings.TrimPrefix(line, marker)
				break
			}
		}
		out = append(out, strings.TrimSpace(line))
		if len(out) == max {
			break
		}
	}
	return out
}

// truncate cuts s at limit characters, appending an ellipsis marker when
// anything was cut.
func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}

// stripCodeFences removes a surrounding markdown code fence, with or without
// a language tag.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "\n"); i >= 0 && !strings.HasPrefix(s, "{") {
		// drop the language tag line (e.g. "json")
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
