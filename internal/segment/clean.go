// Package segment turns a parsed document into guide sections, either by
// recognizing headings or from an explicit paragraph-range plan.
package segment

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dgallion1/guidesql/internal/parser"
)

var (
	annotation = regexp.MustCompile(`\{[^}]*\}`)
	newlines   = regexp.MustCompile(`\n+`)
)

// CleanText removes {...} annotation spans (amendment notes), collapses
// runs of newlines into one and trims the result.
func CleanText(s string) string {
	s = annotation.ReplaceAllString(s, "")
	s = newlines.ReplaceAllString(s, "\n")
	return strings.TrimSpace(s)
}

// Slice joins the non-empty paragraphs with index in [start, min(end, len))
// with a blank line between them.
func Slice(doc *parser.Document, start, end int) (string, error) {
	if start < 0 || end < start {
		return "", fmt.Errorf("paragraph range [%d, %d) is invalid", start, end)
	}
	if start > doc.Len() {
		return "", fmt.Errorf("paragraph range [%d, %d) starts past the end (%d paragraphs)", start, end, doc.Len())
	}
	end = min(end, doc.Len())

	var parts []string
	for _, p := range doc.Paragraphs[start:end] {
		if t := strings.TrimSpace(p.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}
