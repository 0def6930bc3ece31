package export

import (
	"archive/zip"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/yuanying/bionicbook/internal/book"
)

const (
	epubMimetype  = "application/epub+zip"
	containerPath = "META-INF/container.xml"
	opfPath       = "OEBPS/content.opf"
	ncxPath       = "OEBPS/toc.ncx"
	stylePath     = "OEBPS/style.css"
	styleHref     = "style.css"
)

const containerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>
`

// DefaultStylesheet is written when the book carries no stylesheet.
const DefaultStylesheet = `body {
  font-family: serif;
  margin: 1em;
  line-height: 1.6;
}
h1, h2, h3 {
  font-family: sans-serif;
}
p {
  margin: 0.5em 0;
}
b.bionic {
  font-weight: bold;
}
`

// EPUBWriter writes a Book as an EPUB 2 package.
type EPUBWriter struct {
	// NewID generates the package identifier for books without one.
	NewID func() string
}

// NewEPUBWriter creates an EPUBWriter that identifies books by random UUID.
func NewEPUBWriter() *EPUBWriter {
	return &EPUBWriter{NewID: func() string { return "urn:uuid:" + uuid.NewString() }}
}

// Extension returns the file extension of the output.
func (e *EPUBWriter) Extension() string {
	return ".epub"
}

// ChapterHref returns the path, relative to OEBPS/, of the chapter at the
// given zero-based index.
func ChapterHref(index int) string {
	return fmt.Sprintf("chapter%03d.xhtml", index+1)
}

func chapterItemID(index int) string {
	return fmt.Sprintf("chapter%03d", index+1)
}

// Export writes b to w. The mimetype entry is written first and stored
// uncompressed.
func (e *EPUBWriter) Export(w io.Writer, b *book.Book) error {
	if b == nil {
		return ErrNilBook
	}
	identifier := strings.TrimSpace(b.Metadata.Identifier)
	if identifier == "" {
		identifier = e.newID()
	}

	zw := zip.NewWriter(w)

	mw, err := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		return fmt.Errorf("failed to create mimetype entry: %w", err)
	}
	if _, err := io.WriteString(mw, epubMimetype); err != nil {
		return fmt.Errorf("failed to write mimetype: %w", err)
	}

	if err := writeEntry(zw, containerPath, containerXML); err != nil {
		return err
	}
	if err := writeEntry(zw, opfPath, buildOPF(b, identifier)); err != nil {
		return err
	}
	if err := writeEntry(zw, ncxPath, buildNCX(b, identifier)); err != nil {
		return err
	}

	css := NormalizeStylesheet(b.Stylesheet)
	if strings.TrimSpace(css) == "" {
		css = DefaultStylesheet
	}
	if err := writeEntry(zw, stylePath, css); err != nil {
		return err
	}

	for i, ch := range b.Chapters {
		doc, err := buildChapter(ch, b.Metadata.Language)
		if err != nil {
			return fmt.Errorf("failed to convert chapter %q: %w", ch.ID, err)
		}
		if err := writeEntry(zw, "OEBPS/"+ChapterHref(i), doc); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish archive: %w", err)
	}
	return nil
}

func (e *EPUBWriter) newID() string {
	if e.NewID != nil {
		return e.NewID()
	}
	return "urn:uuid:" + uuid.NewString()
}

func writeEntry(zw *zip.Writer, name, content string) error {
	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	if _, err := io.WriteString(w, content); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

func escape(s string) string {
	return html.EscapeString(s)
}

func buildOPF(b *book.Book, identifier string) string {
	var manifest, spine strings.Builder
	manifest.WriteString(`    <item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>` + "\n")
	manifest.WriteString(`    <item id="style" href="` + styleHref + `" media-type="text/css"/>` + "\n")
	for i := range b.Chapters {
		id := chapterItemID(i)
		fmt.Fprintf(&manifest, `    <item id="%s" href="%s" media-type="application/xhtml+xml"/>`+"\n", id, ChapterHref(i))
		fmt.Fprintf(&spine, `    <itemref idref="%s"/>`+"\n", id)
	}

	var optional strings.Builder
	if b.Metadata.Publisher != "" {
		fmt.Fprintf(&optional, "    <dc:publisher>%s</dc:publisher>\n", escape(b.Metadata.Publisher))
	}
	if b.Metadata.Description != "" {
		fmt.Fprintf(&optional, "    <dc:description>%s</dc:description>\n", escape(b.Metadata.Description))
	}

	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0" unique-identifier="BookId">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:opf="http://www.idpf.org/2007/opf">
    <dc:identifier id="BookId">%s</dc:identifier>
    <dc:title>%s</dc:title>
    <dc:creator opf:role="aut">%s</dc:creator>
    <dc:language>%s</dc:language>
%s  </metadata>
  <manifest>
%s  </manifest>
  <spine toc="ncx">
%s  </spine>
</package>
`,
		escape(identifier),
		escape(b.Title),
		escape(b.Author),
		escape(b.Metadata.Language),
		optional.String(),
		manifest.String(),
		spine.String(),
	)
}

func buildNCX(b *book.Book, identifier string) string {
	var navPoints strings.Builder
	for i, ch := range b.Chapters {
		fmt.Fprintf(&navPoints, `    <navPoint id="navpoint-%d" playOrder="%d">
      <navLabel><text>%s</text></navLabel>
      <content src="%s"/>
    </navPoint>
`, i+1, i+1, escape(ch.Title), ChapterHref(i))
	}

	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">
  <head>
    <meta name="dtb:uid" content="%s"/>
    <meta name="dtb:depth" content="1"/>
    <meta name="dtb:totalPageCount" content="0"/>
    <meta name="dtb:maxPageNumber" content="0"/>
  </head>
  <docTitle><text>%s</text></docTitle>
  <navMap>
%s  </navMap>
</ncx>
`,
		escape(identifier),
		escape(b.Title),
		navPoints.String(),
	)
}

func buildChapter(ch book.Chapter, lang string) (string, error) {
	body, err := XHTMLBody(ch.Markup)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.1//EN" "http://www.w3.org/TR/xhtml11/DTD/xhtml11.dtd">
<html xmlns="http://www.w3.org/1999/xhtml" xml:lang="%s">
<head>
  <title>%s</title>
  <link rel="stylesheet" type="text/css" href="%s"/>
</head>
<body>
%s
</body>
</html>
`, escape(lang), escape(ch.Title), styleHref, body), nil
}
