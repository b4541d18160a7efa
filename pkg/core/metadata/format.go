package metadata

import (
	"html"
	"regexp"
	"strings"
)

var (
	blankLines    = regexp.MustCompile(`\n\s*\n`)
	openingDouble = regexp.MustCompile(`(^|[\s(\[{\-])"`)
	openingSingle = regexp.MustCompile(`(^|[\s(\[{\-])'`)
)

// FormatOverview renders plain overview text as HTML paragraphs. Blank lines separate
// paragraphs, single newlines become line breaks, and straight quotes are curled.
func FormatOverview(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	var b strings.Builder
	for _, para := range blankLines.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		lines := strings.Split(para, "\n")
		for i, line := range lines {
			lines[i] = html.EscapeString(curlQuotes(strings.TrimSpace(line)))
		}
		b.WriteString("<p>")
		b.WriteString(strings.Join(lines, "<br />\n"))
		b.WriteString("</p>\n")
	}
	return b.String()
}

func curlQuotes(s string) string {
	s = openingDouble.ReplaceAllString(s, "$1“")
	s = strings.ReplaceAll(s, `"`, "”")
	s = openingSingle.ReplaceAllString(s, "$1‘")
	s = strings.ReplaceAll(s, "'", "’")
	return s
}
