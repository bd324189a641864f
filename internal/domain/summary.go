package domain

// TaskSummary is the structured output of summarization. Title and
// PlainSummary are always set, even when produced by the fallback strategy.
// Deadline is free-form text, empty when no deadline was found.
type TaskSummary struct {
	Title        string   `json:"title"`
	Deliverables []string `json:"deliverables"`
	Deadline     string   `json:"deadline,omitempty"`
	PlainSummary string   `json:"plain_summary"`
}

// Notification is a rendered message body bound to its recipient.
type Notification struct {
	RecipientID string
	Body        string
}
