package utils

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// CleanMarkdown trims whitespace and strips an outer ``` fence if the whole note is wrapped in one.
func CleanMarkdown(input string) string {
	cleaned := strings.TrimSpace(input)
	if !strings.HasPrefix(cleaned, "```") || !strings.HasSuffix(cleaned, "```") || len(cleaned) < 6 {
		return cleaned
	}
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimPrefix(cleaned, "markdown")
	return strings.TrimSpace(cleaned)
}

// MarkdownHeadings parses the note with goldmark and returns its heading texts in order.
// Deal notes use headings as section names ("Landlord asks", "Open items").
func MarkdownHeadings(input string) []string {
	source := []byte(input)
	doc := goldmark.DefaultParser().Parse(text.NewReader(source))

	var headings []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if h, ok := n.(*ast.Heading); ok {
			var sb strings.Builder
			for c := h.FirstChild(); c != nil; c = c.NextSibling() {
				if t, ok := c.(*ast.Text); ok {
					sb.Write(t.Segment.Value(source))
				}
			}
			headings = append(headings, strings.TrimSpace(sb.String()))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return headings
}
