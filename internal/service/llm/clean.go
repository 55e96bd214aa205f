package llm

import "strings"

// CleanJSON strips Markdown code fences that models add despite being told not to.
func CleanJSON(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}
