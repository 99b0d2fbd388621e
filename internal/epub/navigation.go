package epub

import (
	"fmt"
	"strings"

	"github.com/jackzampolin/folio/internal/types"
)

// generateNavigation creates the nav.xhtml navigation document.
func (b *builder) generateNavigation() string {
	var sb strings.Builder

	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops">
<head>
  <title>Table of Contents</title>
  <link rel="stylesheet" type="text/css" href="styles/style.css"/>
</head>
<body>
  <nav epub:type="toc" id="toc">
    <h1>Table of Contents</h1>
    <ol>
`)

	sb.WriteString("      <li><a href=\"title.xhtml\">Title Page</a></li>\n")
	for _, ch := range b.book.Chapters {
		sb.WriteString(fmt.Sprintf("      <li><a href=\"chapters/%s.xhtml\">%s</a></li>\n",
			chapterID(ch.ChapterNumber), escapeXML(navTitle(ch))))
	}

	sb.WriteString(`    </ol>
  </nav>
</body>
</html>
`)

	return sb.String()
}

// navTitle formats a chapter's navigation label.
func navTitle(ch types.ChapterResult) string {
	numbered := fmt.Sprintf("Chapter %d", ch.ChapterNumber)
	if ch.Title == "" || ch.Title == numbered {
		return numbered
	}
	return fmt.Sprintf("%s: %s", numbered, ch.Title)
}

// generateNCX creates toc.ncx for ePub 2 reader compatibility.
func (b *builder) generateNCX() string {
	var sb strings.Builder

	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">
  <head>
    <meta name="dtb:uid" content="`)
	sb.WriteString(b.pubID)
	sb.WriteString(`"/>
    <meta name="dtb:depth" content="1"/>
    <meta name="dtb:totalPageCount" content="0"/>
    <meta name="dtb:maxPageNumber" content="0"/>
  </head>
  <docTitle>
    <text>`)
	sb.WriteString(escapeXML(b.book.Spec.Title))
	sb.WriteString(`</text>
  </docTitle>
  <navMap>
`)

	sb.WriteString(`    <navPoint id="navpoint-1" playOrder="1">
      <navLabel><text>Title Page</text></navLabel>
      <content src="title.xhtml"/>
    </navPoint>
`)
	for i, ch := range b.book.Chapters {
		order := i + 2
		sb.WriteString(fmt.Sprintf("    <navPoint id=\"navpoint-%d\" playOrder=\"%d\">\n", order, order))
		sb.WriteString(fmt.Sprintf("      <navLabel><text>%s</text></navLabel>\n", escapeXML(navTitle(ch))))
		sb.WriteString(fmt.Sprintf("      <content src=\"chapters/%s.xhtml\"/>\n", chapterID(ch.ChapterNumber)))
		sb.WriteString("    </navPoint>\n")
	}

	sb.WriteString(`  </navMap>
</ncx>
`)

	return sb.String()
}
