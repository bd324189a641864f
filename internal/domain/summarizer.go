package domain

import "context"

// Strategy turns a task's title and raw content into a TaskSummary.
// The model-backed strategy may fail; the heuristic strategy never does.
// Fallback selection between strategies belongs to the pipeline, not here.
type Strategy interface {
	Summarize(ctx context.Context, title, content string) (*TaskSummary, error)
	Name() string
}
