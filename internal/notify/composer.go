// Package notify renders task summaries into direct-message bodies.
package notify

import (
	"fmt"
	"strings"

	"iris/internal/domain"
)

const excerptLimit = 600

// Compose renders the notification body for a detected task. It is a pure
// function with a fixed section order: header, title, summary, deliverables
// (only when present), deadline (only when set), quoted excerpt of the
// original message, closing call-to-action.
func Compose(event domain.Event, summary *domain.TaskSummary) string {
	sections := []string{
		fmt.Sprintf("🟣 Iris detected a task in **%s**", event.Channel()),
		fmt.Sprintf("**Title:** %s", summary.Title),
		fmt.Sprintf("**Summary:** %s", summary.PlainSummary),
	}

	if len(summary.Deliverables) > 0 {
		var b strings.Builder
		b.WriteString("**Core deliverables:**")
		for _, d := range summary.Deliverables {
			b.WriteString("\n- ")
			b.WriteString(d)
		}
		sections = append(sections, b.String())
	}

	if summary.Deadline != "" {
		sections = append(sections, fmt.Sprintf("**Deadline:** %s", summary.Deadline))
	}

	sections = append(sections, "_Original message:_\n> "+excerpt(event.Content))
	sections = append(sections, "If you'd like, I can create a calendar reminder or add this to your personal todo list. Reply `@Iris remind me`.")

	return strings.Join(sections, "\n\n")
}

func excerpt(content string) string {
	r := []rune(content)
	if len(r) <= excerptLimit {
		return content
	}
	return string(r[:excerptLimit]) + "..."
}
