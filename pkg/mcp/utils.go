package mcp

import "strings"

// splitCommaList splits a comma-separated argument into trimmed items,
// dropping empty segments. An empty input yields nil.
func splitCommaList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var items []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			items = append(items, part)
		}
	}
	return items
}
