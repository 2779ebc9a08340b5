package pdf

import "strings"

// Normalize collapses extraction noise into readable text: CR/CRLF become
// LF, runs of spaces and tabs collapse to one space, each line is trimmed,
// and runs of blank lines collapse to a single paragraph break.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, ln := range lines {
		parts := strings.Fields(ln)
		if len(parts) == 0 {
			blank = true
			continue
		}
		if blank && len(out) > 0 {
			out = append(out, "")
		}
		blank = false
		out = append(out, strings.Join(parts, " "))
	}
	return strings.Join(out, "\n")
}
