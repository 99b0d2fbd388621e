package epub

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jackzampolin/folio/internal/types"
)

// generateChapterXHTML renders one chapter as an XHTML document with a
// numbered heading followed by the chapter prose.
func (b *builder) generateChapterXHTML(ch types.ChapterResult) string {
	var sb strings.Builder

	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
  <title>`)
	sb.WriteString(escapeXML(ch.Title))
	sb.WriteString(`</title>
  <link rel="stylesheet" type="text/css" href="../styles/style.css"/>
</head>
<body>
`)

	sb.WriteString(fmt.Sprintf("<p class=\"chapter-number\">Chapter %d</p>\n", ch.ChapterNumber))
	sb.WriteString(fmt.Sprintf("<h1>%s</h1>\n", escapeXML(ch.Title)))
	sb.WriteString(proseToXHTML(ch.Content))

	sb.WriteString("</body>\n</html>\n")

	return sb.String()
}

// proseToXHTML converts generated chapter prose to XHTML paragraphs.
// Blank lines separate paragraphs; markdown-style headings and inline
// emphasis that models sometimes emit are handled.
func proseToXHTML(text string) string {
	var sb strings.Builder
	for _, block := range strings.Split(text, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		switch {
		case strings.HasPrefix(block, "### "):
			sb.WriteString("<h3>" + escapeXML(strings.TrimPrefix(block, "### ")) + "</h3>\n")
		case strings.HasPrefix(block, "## "):
			sb.WriteString("<h2>" + escapeXML(strings.TrimPrefix(block, "## ")) + "</h2>\n")
		case strings.HasPrefix(block, "# "):
			sb.WriteString("<h2>" + escapeXML(strings.TrimPrefix(block, "# ")) + "</h2>\n")
		default:
			joined := strings.Join(strings.Fields(block), " ")
			sb.WriteString("<p>" + inlineFormatting(joined) + "</p>\n")
		}
	}
	return sb.String()
}

var (
	boldRe   = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicRe = regexp.MustCompile(`\*([^*]+)\*`)
)

// inlineFormatting escapes the text and converts bold and italic
// markdown emphasis.
func inlineFormatting(text string) string {
	text = escapeXML(text)
	text = boldRe.ReplaceAllString(text, "<strong>$1</strong>")
	text = italicRe.ReplaceAllString(text, "<em>$1</em>")
	return text
}
