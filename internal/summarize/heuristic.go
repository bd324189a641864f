package summarize

import (
	"context"
	"strings"

	"iris/internal/classifier"
	"iris/internal/domain"
)

const heuristicSummaryLimit = 200

// Heuristic is the deterministic fallback strategy. It is total: it never
// fails, for any input, and is the last line of defense when the model-backed
// strategy is unconfigured or broken.
type Heuristic struct{}

func NewHeuristic() *Heuristic { return &Heuristic{} }

func (h *Heuristic) Name() string { return "heuristic" }

func (h *Heuristic) Summarize(_ context.Context, title, content string) (*domain.TaskSummary, error) {
	var summary string
	for _, line := range strings.Split(content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			summary = line
			break
		}
	}
	if summary == "" {
		summary = truncateNoMarker(content, heuristicSummaryLimit)
	}

	return &domain.TaskSummary{
		Title:        title,
		Deliverables: bulletLines(content, 5),
		Deadline:     classifier.ExtractDeadline(content),
		PlainSummary: summary,
	}, nil
}

func truncateNoMarker(s string, limit int) string {
	if r := []rune(s); len(r) > limit {
		return string(r[:limit])
	}
	return s
}
