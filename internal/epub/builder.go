// Package epub generates ePub 3.0 files from a compiled book.
package epub

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/jackzampolin/folio/internal/types"
)

// Compile renders the book as an ePub 3.0 archive.
func Compile(book *types.CanonicalBook) ([]byte, error) {
	if book == nil {
		return nil, fmt.Errorf("book is nil")
	}
	if len(book.Chapters) == 0 {
		return nil, fmt.Errorf("book has no chapters")
	}
	b := newBuilder(book)
	buf := new(bytes.Buffer)
	if err := b.writeTo(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Filename returns the artifact filename for the epub output.
func Filename() string { return "book.epub" }

type builder struct {
	book *types.CanonicalBook
	// pubID identifies the publication in the package document and NCX.
	pubID string
}

func newBuilder(book *types.CanonicalBook) *builder {
	return &builder{
		book:  book,
		pubID: "urn:uuid:" + uuid.New().String(),
	}
}

// writeTo writes the full epub archive. The mimetype entry must come
// first and must be stored uncompressed.
func (b *builder) writeTo(w io.Writer) error {
	zw := zip.NewWriter(w)

	if err := b.writeMimetype(zw); err != nil {
		return err
	}
	if err := writeEntry(zw, "META-INF/container.xml", containerXML); err != nil {
		return err
	}
	if err := writeEntry(zw, "OEBPS/content.opf", b.generatePackage()); err != nil {
		return err
	}
	if err := writeEntry(zw, "OEBPS/nav.xhtml", b.generateNavigation()); err != nil {
		return err
	}
	if err := writeEntry(zw, "OEBPS/toc.ncx", b.generateNCX()); err != nil {
		return err
	}
	if err := writeEntry(zw, "OEBPS/styles/style.css", stylesheet); err != nil {
		return err
	}
	if err := writeEntry(zw, "OEBPS/title.xhtml", b.generateTitlePage()); err != nil {
		return err
	}
	for _, ch := range b.book.Chapters {
		name := fmt.Sprintf("OEBPS/chapters/%s.xhtml", chapterID(ch.ChapterNumber))
		if err := writeEntry(zw, name, b.generateChapterXHTML(ch)); err != nil {
			return fmt.Errorf("failed to write chapter %d: %w", ch.ChapterNumber, err)
		}
	}

	return zw.Close()
}

func (b *builder) writeMimetype(zw *zip.Writer) error {
	header := &zip.FileHeader{
		Name:   "mimetype",
		Method: zip.Store,
	}
	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("failed to create mimetype: %w", err)
	}
	_, err = w.Write([]byte("application/epub+zip"))
	return err
}

func writeEntry(zw *zip.Writer, name, content string) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	_, err = w.Write([]byte(content))
	return err
}

// chapterID returns the stable manifest id for a chapter number.
func chapterID(n int) string {
	return fmt.Sprintf("ch_%03d", n)
}

const containerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

const stylesheet = `body {
  font-family: Georgia, "Times New Roman", serif;
  font-size: 1em;
  line-height: 1.6;
  margin: 1em;
  text-align: justify;
}

h1, h2, h3 {
  font-family: "Helvetica Neue", Helvetica, Arial, sans-serif;
  font-weight: bold;
  margin-top: 1.5em;
  margin-bottom: 0.5em;
  text-align: left;
}

h1 {
  font-size: 1.8em;
  border-bottom: 1px solid #ccc;
  padding-bottom: 0.3em;
}

h2 {
  font-size: 1.4em;
}

p {
  margin: 0.5em 0;
  text-indent: 1.5em;
}

p:first-of-type,
h1 + p, h2 + p, h3 + p {
  text-indent: 0;
}

.title-page {
  text-align: center;
  margin-top: 30%;
}

.title-page .author {
  font-size: 1.2em;
  margin-top: 2em;
}

.chapter-number {
  font-size: 0.9em;
  text-transform: uppercase;
  letter-spacing: 0.1em;
  margin-bottom: 0.5em;
}
`
