// Package docx generates Office Open XML word-processing documents from
// a compiled book. The output is a minimal WordprocessingML package:
// title page, then one heading plus body per chapter, each chapter
// starting on a new page.
package docx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"

	"github.com/jackzampolin/folio/internal/types"
)

// Compile renders the book as a .docx archive.
func Compile(book *types.CanonicalBook) ([]byte, error) {
	if book == nil {
		return nil, fmt.Errorf("book is nil")
	}
	if len(book.Chapters) == 0 {
		return nil, fmt.Errorf("book has no chapters")
	}

	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	entries := []struct {
		name    string
		content string
	}{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", relsXML},
		{"word/_rels/document.xml.rels", documentRelsXML},
		{"word/styles.xml", stylesXML},
		{"word/document.xml", generateDocument(book)},
	}
	for _, e := range entries {
		w, err := zw.Create(e.name)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", e.name, err)
		}
		if _, err := w.Write([]byte(e.content)); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", e.name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Filename returns the artifact filename for the docx output.
func Filename() string { return "book.docx" }

// generateDocument builds word/document.xml.
func generateDocument(book *types.CanonicalBook) string {
	var sb strings.Builder

	sb.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
`)

	// Title page
	sb.WriteString(styledParagraph("Title", book.Spec.Title))
	sb.WriteString(styledParagraph("Subtitle", "by "+book.Spec.Author))

	for _, ch := range book.Chapters {
		sb.WriteString(pageBreak())
		sb.WriteString(styledParagraph("Heading1", fmt.Sprintf("Chapter %d: %s", ch.ChapterNumber, ch.Title)))
		for _, block := range strings.Split(ch.Content, "\n\n") {
			block = strings.TrimSpace(block)
			if block == "" {
				continue
			}
			text := strings.Join(strings.Fields(block), " ")
			sb.WriteString(paragraph(text))
		}
	}

	sb.WriteString(`    <w:sectPr>
      <w:pgSz w:w="12240" w:h="15840"/>
      <w:pgMar w:top="1440" w:right="1440" w:bottom="1440" w:left="1440"/>
    </w:sectPr>
  </w:body>
</w:document>
`)
	return sb.String()
}

// paragraph emits a plain body paragraph.
func paragraph(text string) string {
	return fmt.Sprintf(`    <w:p>
      <w:r><w:t xml:space="preserve">%s</w:t></w:r>
    </w:p>
`, escapeXML(text))
}

// styledParagraph emits a paragraph with a named paragraph style.
func styledParagraph(style, text string) string {
	return fmt.Sprintf(`    <w:p>
      <w:pPr><w:pStyle w:val="%s"/></w:pPr>
      <w:r><w:t xml:space="preserve">%s</w:t></w:r>
    </w:p>
`, style, escapeXML(text))
}

// pageBreak emits an empty paragraph containing a hard page break.
func pageBreak() string {
	return `    <w:p>
      <w:r><w:br w:type="page"/></w:r>
    </w:p>
`
}

func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	s = strings.ReplaceAll(s, "'", "&apos;")
	return s
}

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
  <Default Extension="xml" ContentType="application/xml"/>
  <Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
  <Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>
</Types>
`

const relsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>
`

const documentRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>
</Relationships>
`

const stylesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:docDefaults>
    <w:rPrDefault>
      <w:rPr>
        <w:rFonts w:ascii="Georgia" w:hAnsi="Georgia"/>
        <w:sz w:val="24"/>
      </w:rPr>
    </w:rPrDefault>
  </w:docDefaults>
  <w:style w:type="paragraph" w:styleId="Title">
    <w:name w:val="Title"/>
    <w:pPr><w:jc w:val="center"/><w:spacing w:before="4800" w:after="240"/></w:pPr>
    <w:rPr><w:b/><w:sz w:val="56"/></w:rPr>
  </w:style>
  <w:style w:type="paragraph" w:styleId="Subtitle">
    <w:name w:val="Subtitle"/>
    <w:pPr><w:jc w:val="center"/><w:spacing w:after="240"/></w:pPr>
    <w:rPr><w:sz w:val="32"/></w:rPr>
  </w:style>
  <w:style w:type="paragraph" w:styleId="Heading1">
    <w:name w:val="heading 1"/>
    <w:pPr><w:spacing w:before="480" w:after="240"/><w:outlineLvl w:val="0"/></w:pPr>
    <w:rPr><w:b/><w:sz w:val="36"/></w:rPr>
  </w:style>
</w:styles>
`
