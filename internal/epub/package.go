package epub

import (
	"fmt"
	"strings"
	"time"
)

// generatePackage creates the content.opf package document.
func (b *builder) generatePackage() string {
	var sb strings.Builder

	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="pub-id">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
`)

	sb.WriteString(fmt.Sprintf("    <dc:identifier id=\"pub-id\">%s</dc:identifier>\n", b.pubID))
	sb.WriteString(fmt.Sprintf("    <dc:title>%s</dc:title>\n", escapeXML(b.book.Spec.Title)))
	sb.WriteString(fmt.Sprintf("    <dc:creator>%s</dc:creator>\n", escapeXML(b.book.Spec.Author)))
	sb.WriteString("    <dc:language>en</dc:language>\n")
	if b.book.Outline.Genre != "" {
		sb.WriteString(fmt.Sprintf("    <dc:subject>%s</dc:subject>\n", escapeXML(b.book.Outline.Genre)))
	}
	if b.book.Outline.PlotSummary != "" {
		sb.WriteString(fmt.Sprintf("    <dc:description>%s</dc:description>\n", escapeXML(b.book.Outline.PlotSummary)))
	}

	// dcterms:modified is required for ePub 3.
	modified := b.book.GeneratedAt
	if modified.IsZero() {
		modified = time.Now()
	}
	sb.WriteString(fmt.Sprintf("    <meta property=\"dcterms:modified\">%s</meta>\n",
		modified.UTC().Format("2006-01-02T15:04:05Z")))

	sb.WriteString("  </metadata>\n\n")

	sb.WriteString("  <manifest>\n")
	sb.WriteString("    <item id=\"nav\" href=\"nav.xhtml\" media-type=\"application/xhtml+xml\" properties=\"nav\"/>\n")
	sb.WriteString("    <item id=\"ncx\" href=\"toc.ncx\" media-type=\"application/x-dtbncx+xml\"/>\n")
	sb.WriteString("    <item id=\"style\" href=\"styles/style.css\" media-type=\"text/css\"/>\n")
	sb.WriteString("    <item id=\"title\" href=\"title.xhtml\" media-type=\"application/xhtml+xml\"/>\n")
	for _, ch := range b.book.Chapters {
		id := chapterID(ch.ChapterNumber)
		sb.WriteString(fmt.Sprintf("    <item id=\"%s\" href=\"chapters/%s.xhtml\" media-type=\"application/xhtml+xml\"/>\n", id, id))
	}
	sb.WriteString("  </manifest>\n\n")

	sb.WriteString("  <spine toc=\"ncx\">\n")
	sb.WriteString("    <itemref idref=\"title\"/>\n")
	for _, ch := range b.book.Chapters {
		sb.WriteString(fmt.Sprintf("    <itemref idref=\"%s\"/>\n", chapterID(ch.ChapterNumber)))
	}
	sb.WriteString("  </spine>\n")
	sb.WriteString("</package>\n")

	return sb.String()
}

// generateTitlePage creates the title.xhtml front matter page.
func (b *builder) generateTitlePage() string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
  <title>%s</title>
  <link rel="stylesheet" type="text/css" href="styles/style.css"/>
</head>
<body>
  <div class="title-page">
    <h1>%s</h1>
    <p class="author">%s</p>
  </div>
</body>
</html>
`, escapeXML(b.book.Spec.Title), escapeXML(b.book.Spec.Title), escapeXML(b.book.Spec.Author))
}

// escapeXML escapes special XML characters.
func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	s = strings.ReplaceAll(s, "'", "&apos;")
	return s
}
