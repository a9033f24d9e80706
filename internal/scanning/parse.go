package scanning

import "strings"

// CleanTranscript normalises provider output into plain receipt text: CRLF
// line endings become LF, a surrounding markdown code fence is removed and
// leading and trailing whitespace is trimmed.
func CleanTranscript(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		// Drop the opening fence along with any language tag.
		if i := strings.Index(text, "\n"); i >= 0 {
			text = text[i+1:]
		} else {
			text = strings.TrimPrefix(text, "```")
		}
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}

	return strings.TrimSpace(text)
}

// transcript cleans provider output and reports ErrNoText when nothing is left.
func transcript(raw string) (string, error) {
	text := CleanTranscript(raw)
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}
