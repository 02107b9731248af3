// Package sanitize normalizes pasted project source into executable markup.
package sanitize

import "strings"

// Clean strips an optional fenced-code-block wrapper from raw pasted source
// and trims surrounding whitespace. The payload itself is never altered, so
// Clean is idempotent: cleaning already-clean content returns it unchanged.
//
// Exactly one wrapper layer is stripped per call. A payload that itself
// starts and ends with fence lines loses that layer too when Clean runs
// again, so callers must not re-sanitize content they already persisted
// clean; the persistence path runs Clean once on the way in.
func Clean(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	lines := strings.Split(s, "\n")

	// Opening marker: a first line that is a fence, with an optional
	// language tag (```html, ```js, ...).
	if isOpeningFence(lines[0]) {
		lines = lines[1:]
	}

	// Closing marker: a last line that is a bare fence.
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func isOpeningFence(line string) bool {
	t := strings.TrimSpace(line)
	if !strings.HasPrefix(t, "```") {
		return false
	}
	// Everything after the fence must be a plain language tag, not content.
	rest := strings.TrimPrefix(t, "```")
	return !strings.ContainsAny(rest, " `<>")
}
