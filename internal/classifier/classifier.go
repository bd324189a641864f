// Package classifier decides whether a chat message plausibly describes an
// actionable task, and pulls a best-effort title and deadline out of it.
// The heuristics are deliberately shallow: free text in, free text out,
// nothing here validates dates or does NLP.
package classifier

import (
	"regexp"
	"strings"
)

const maxTitleLen = 150

// taskKeywords is the ordered set of task-indicating patterns. All are
// matched case-insensitively; first match wins.
var taskKeywords = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\btask\b`),
	regexp.MustCompile(`(?i)\bdeadline\b`),
	regexp.MustCompile(`(?i)\bdeliverable\b`),
	regexp.MustCompile(`(?i)\baction\b`),
	regexp.MustCompile(`(?i)\bplease\s+(?:do|complete|implement|review)\b`),
	regexp.MustCompile(`(?i)\bby\s+[A-Z][a-z]+ \d{1,2}\b`),
}

var (
	// checklist bullets at line start: "- [ ]" or "- [x]"
	checklistPattern = regexp.MustCompile(`(?m)^- \[ \] |^- \[(?i:x)\]`)
	// broader "by <word> <day>[, <year>]" phrase anywhere
	byDatePattern = regexp.MustCompile(`(?i)\bby\s+\w+\s+\d{1,2}(?:,?\s+\d{4})?\b`)

	// deadline extraction: "by <Capitalized-month> <day>[, <year>]", date portion only
	deadlinePhrasePattern = regexp.MustCompile(`by\s+([A-Z][a-z]+\s+\d{1,2}(?:,?\s+\d{4})?)`)
	// "deadline" label followed by a date-ish token
	deadlineLabelPattern = regexp.MustCompile(`(?i)deadline[:\s]*([0-9T:\-/ ]+)`)
)

// LooksLikeTask reports whether the content plausibly describes an
// actionable task. A false result drops the event from the pipeline.
func LooksLikeTask(content string) bool {
	for _, re := range taskKeywords {
		if re.MatchString(content) {
			return true
		}
	}
	if checklistPattern.MatchString(content) {
		return true
	}
	// phrases like "We need X by DATE"
	return byDatePattern.MatchString(content)
}

// ExtractTitle returns the first non-empty line of the content, truncated to
// 150 characters. All-whitespace input yields the empty string.
func ExtractTitle(content string) string {
	for _, line := range strings.Split(strings.TrimSpace(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if r := []rune(line); len(r) > maxTitleLen {
			return string(r[:maxTitleLen])
		}
		return line
	}
	return ""
}

// ExtractDeadline returns the first deadline-looking phrase in the content,
// or "" when none is found. The captured text is free-form and is not
// validated as a real calendar date.
func ExtractDeadline(content string) string {
	if m := deadlinePhrasePattern.FindStringSubmatch(content); m != nil {
		return m[1]
	}
	if m := deadlineLabelPattern.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}
