package client

import "strings"

// FormatMessageText renders a reply for a terminal: lines starting with
// "- " or "• " become bullets and the rest is kept as is.
func FormatMessageText(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "• ") {
			_, item, _ := strings.Cut(trimmed, " ")
			lines[i] = "  • " + item
		}
	}
	return strings.Join(lines, "\n")
}
