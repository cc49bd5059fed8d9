package taxonomy

import (
	"regexp"
	"strings"
)

// a question mark ends a question only when followed by whitespace or the end
// of the message, so "v2?beta" stays intact.
var questionBoundary = regexp.MustCompile(`\?(?:\s+|$)`)

// Split breaks message into its questions. Every returned fragment is
// trimmed, non-empty and ends with exactly one appended "?".
func Split(message string) []string {
	parts := questionBoundary.Split(message, -1)
	questions := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		questions = append(questions, part+"?")
	}
	return questions
}
