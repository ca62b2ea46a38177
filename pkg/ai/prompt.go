package ai

import (
	"fmt"
	"regexp"
	"strings"
)

var listMarker = regexp.MustCompile(`^(\d+[.)]|[-*•])\s*`)

// BuildBreakdownPrompt renders the instruction sent to every provider.
func BuildBreakdownPrompt(req BreakdownRequest) string {
	var b strings.Builder
	b.WriteString("Break down the following task into 3-5 clear, actionable subtasks:\n\n")
	fmt.Fprintf(&b, "Task: %s\n", req.Title)
	if req.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", req.Description)
	}
	if req.CustomPrompt != "" {
		fmt.Fprintf(&b, "Additional context: %s\n", req.CustomPrompt)
	}
	b.WriteString("\nReturn ONLY a list of subtasks, one per line. Each subtask should be clear and specific.")
	return b.String()
}

// ParseBreakdown splits model output into subtask titles: one per non-blank
// line, trimmed, with leading list numbering or bullets removed.
func ParseBreakdown(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = strings.TrimSpace(listMarker.ReplaceAllString(line, ""))
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}
