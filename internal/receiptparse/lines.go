package receiptparse

import "strings"

// Lines splits raw OCR text into trimmed, non-empty lines, preserving order.
// Ideographic spaces inside a line are folded to ASCII spaces so the
// whitespace-sensitive rules treat full-width and half-width spacing alike.
func Lines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSpace(strings.ReplaceAll(line, "　", " "))
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
